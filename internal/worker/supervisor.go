package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xxjiinn/medical-inference-platform/internal/cache"
	"github.com/xxjiinn/medical-inference-platform/internal/queue"
	"github.com/xxjiinn/medical-inference-platform/internal/store"
	"github.com/xxjiinn/medical-inference-platform/pkg/models"
)

const shutdownDrain = 30 * time.Second

// SupervisorConfig holds the tunables the Supervisor itself needs, beyond
// the per-worker Config every spawned Worker gets.
type SupervisorConfig struct {
	WorkerCount     int
	SupervisorTick  time.Duration
	RecoveryPeriod  time.Duration
	StuckInProgress time.Duration
	StuckQueued     time.Duration
}

// Supervisor launches WorkerCount worker goroutines, restarts any that
// exit unexpectedly, and periodically runs the recovery sweeper. It is
// the goroutine analogue of the original's process supervisor — no
// shared memory of the Predictor client across workers, by construction.
type Supervisor struct {
	cfg       SupervisorConfig
	workerCfg Config
	newWorker func(id string) *Worker
	sweeper   *Sweeper

	mu      sync.Mutex
	running map[string]chan struct{} // worker id -> done channel
}

func NewSupervisor(
	cfg SupervisorConfig,
	workerCfg Config,
	s store.Store,
	c cache.Cache,
	q queue.Queue,
	p models.Predictor,
	pre models.Preprocessor,
) *Supervisor {
	return &Supervisor{
		cfg:       cfg,
		workerCfg: workerCfg,
		newWorker: func(id string) *Worker {
			return New(id, s, c, q, p, pre, workerCfg)
		},
		sweeper: NewSweeper(s, c, q, workerCfg, cfg.StuckInProgress, cfg.StuckQueued),
		running: make(map[string]chan struct{}),
	}
}

// Run starts WorkerCount workers, the liveness-check ticker, and the
// recovery sweeper ticker, blocking until ctx is cancelled. On
// cancellation it waits up to shutdownDrain for all workers to exit.
func (sup *Supervisor) Run(ctx context.Context) {
	var wg sync.WaitGroup

	for i := 0; i < sup.cfg.WorkerCount; i++ {
		sup.spawn(ctx, &wg, workerID(i))
	}

	livenessTicker := time.NewTicker(sup.cfg.SupervisorTick)
	defer livenessTicker.Stop()
	recoveryTicker := time.NewTicker(sup.cfg.RecoveryPeriod)
	defer recoveryTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			sup.waitForDrain(&wg)
			return
		case <-livenessTicker.C:
			sup.restartDead(ctx, &wg)
		case <-recoveryTicker.C:
			if err := sup.sweeper.Sweep(ctx); err != nil {
				slog.Error("recovery sweep failed", "error", err)
			}
		}
	}
}

func (sup *Supervisor) spawn(ctx context.Context, wg *sync.WaitGroup, id string) {
	done := make(chan struct{})

	sup.mu.Lock()
	sup.running[id] = done
	sup.mu.Unlock()

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				slog.Error("panic in worker", "error", r, "worker_id", id)
			}
		}()
		slog.Info("worker starting", "worker_id", id)
		sup.newWorker(id).Run(ctx)
		slog.Info("worker exited", "worker_id", id)
	}()
}

// restartDead checks whether any worker's done channel has already
// closed (it exited on its own, without ctx being cancelled) and spawns
// a replacement with the same id.
func (sup *Supervisor) restartDead(ctx context.Context, wg *sync.WaitGroup) {
	if ctx.Err() != nil {
		return
	}

	sup.mu.Lock()
	dead := make([]string, 0)
	for id, done := range sup.running {
		select {
		case <-done:
			dead = append(dead, id)
		default:
		}
	}
	sup.mu.Unlock()

	for _, id := range dead {
		slog.Warn("restarting dead worker", "worker_id", id)
		sup.spawn(ctx, wg, id)
	}
}

func (sup *Supervisor) waitForDrain(wg *sync.WaitGroup) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("all workers drained")
	case <-time.After(shutdownDrain):
		slog.Warn("shutdown drain timed out, exiting with workers still running")
	}
}

func workerID(i int) string {
	return fmt.Sprintf("worker-%d", i)
}
