package models

import (
	"time"

	"github.com/google/uuid"
)

// ModelVersion is a catalog entry for a classifier weights artifact.
// Effectively immutable once created by bootstrap; every Job references one.
type ModelVersion struct {
	ID          uuid.UUID
	Name        string
	WeightsPath string
	CreatedAt   time.Time
}
