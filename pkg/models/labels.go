package models

// PathologyLabels is the fixed, stable ordering of the 18 pathologies the
// classifier scores. The source system carries these as a dynamic JSON map;
// here the ordering is declared once at the module boundary so every
// Predictor implementation and every Result.Output agree on label identity.
var PathologyLabels = [18]string{
	"Atelectasis",
	"Consolidation",
	"Infiltration",
	"Pneumothorax",
	"Edema",
	"Emphysema",
	"Fibrosis",
	"Effusion",
	"Pneumonia",
	"Pleural_Thickening",
	"Cardiomegaly",
	"Nodule",
	"Mass",
	"Hernia",
	"Lung Lesion",
	"Fracture",
	"Lung Opacity",
	"Enlarged Cardiomediastinum",
}
