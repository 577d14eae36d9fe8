// Package scheduler
package scheduler

import (
	"context"
	"io"
	"log"
	"os"
	"time"

	businessflow "github.com/amirphl/Susanoo/business_flow"
	"github.com/amirphl/Susanoo/app/dto"
	"github.com/amirphl/Susanoo/config"
	"github.com/amirphl/Susanoo/repository"
	"github.com/amirphl/Susanoo/utils"
	"gopkg.in/natefinch/lumberjack.v2"
)

// DispatchWorker periodically picks up sends whose scheduled time has
// passed and pushes each one through the dispatch flow. It also sweeps
// sends stuck mid-dispatch after a crash back to a terminal state.
type DispatchWorker struct {
	sendRepo     repository.CampaignSendRepository
	dispatchFlow businessflow.DispatchFlow
	logger       *log.Logger
	interval     time.Duration
	batchSize    int
	stuckTimeout time.Duration
}

func NewDispatchWorker(
	sendRepo repository.CampaignSendRepository,
	dispatchFlow businessflow.DispatchFlow,
	deliveryCfg config.DeliveryConfig,
	loggingCfg config.LoggingConfig,
) *DispatchWorker {
	interval := deliveryCfg.WorkerInterval
	if interval <= 0 {
		interval = utils.DefaultWorkerInterval
	}
	batchSize := deliveryCfg.DispatchBatchSize
	if batchSize <= 0 {
		batchSize = utils.DefaultDispatchBatchSize
	}
	stuckTimeout := deliveryCfg.StuckSendingTimeout
	if stuckTimeout <= 0 {
		stuckTimeout = utils.DefaultStuckSendingTimeout
	}

	return &DispatchWorker{
		sendRepo:     sendRepo,
		dispatchFlow: dispatchFlow,
		logger:       newWorkerLogger(loggingCfg),
		interval:     interval,
		batchSize:    batchSize,
		stuckTimeout: stuckTimeout,
	}
}

// newWorkerLogger builds a logger writing to stdout and a rotating file,
// depending on the configured output mode.
func newWorkerLogger(cfg config.LoggingConfig) *log.Logger {
	var w io.Writer = os.Stdout

	if cfg.Output == "file" || cfg.Output == "both" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		if cfg.Output == "file" {
			w = rotating
		} else {
			w = io.MultiWriter(os.Stdout, rotating)
		}
	}

	// log.Logger is goroutine-safe; include timestamps with microseconds and UTC
	return log.New(w, "dispatch-worker ", log.LstdFlags|log.Lmicroseconds|log.LUTC)
}

// Start launches the worker loop in a background goroutine and returns a stop function
func (w *DispatchWorker) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		w.runOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.runOnce(ctx)
			}
		}
	}()

	return cancel
}

func (w *DispatchWorker) runOnce(ctx context.Context) {
	now := utils.UTCNow()

	// Reconcile sends abandoned mid-dispatch by a crashed worker
	swept, err := w.sendRepo.SweepStuckSending(ctx, now.Add(-w.stuckTimeout), "dispatch interrupted, timed out in sending state")
	if err != nil {
		w.logger.Printf("worker: sweep stuck sends failed: %v", err)
	} else if swept > 0 {
		w.logger.Printf("worker: swept %d stuck sends to failed", swept)
	}

	due, err := w.sendRepo.ListDue(ctx, now, w.batchSize)
	if err != nil {
		w.logger.Printf("worker: list due sends failed: %v", err)
		return
	}
	if len(due) == 0 {
		return
	}
	w.logger.Printf("worker: %d sends due for dispatch", len(due))

	metadata := businessflow.NewClientMetadata("worker", "dispatch-worker")

	dispatched := 0
	failed := 0
	for _, send := range due {
		if ctx.Err() != nil {
			return
		}

		req := &dto.DispatchSendRequest{SendUUID: send.UUID.String()}
		resp, err := w.dispatchFlow.SendNow(ctx, req, metadata)
		if err != nil {
			// A failed send never aborts the batch
			failed++
			w.logger.Printf("worker: dispatch send uuid=%s failed: %v", send.UUID, err)
			continue
		}
		if resp.AlreadyDispatched {
			continue
		}
		dispatched++
	}

	w.logger.Printf("worker: batch done, dispatched=%d failed=%d total=%d", dispatched, failed, len(due))
}
