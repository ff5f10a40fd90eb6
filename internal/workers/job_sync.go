// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"time"

	"github.com/MKhiriev/go-chat-keeper/internal/logger"
)

// DefaultSyncInterval is used when SyncJob is given a non-positive interval.
const DefaultSyncInterval = 5 * time.Minute

// SyncJob reconciles on a fixed interval while online reports true.
type SyncJob struct {
	reconciler Reconciler
	online     func() bool
	interval   time.Duration
	logger     *logger.Logger

	loop loop
}

// NewSyncJob creates an idle SyncJob. A nil online func means always online.
func NewSyncJob(reconciler Reconciler, online func() bool, interval time.Duration, log *logger.Logger) *SyncJob {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}
	if online == nil {
		online = func() bool { return true }
	}
	if log == nil {
		log = logger.Nop()
	}

	return &SyncJob{
		reconciler: reconciler,
		online:     online,
		interval:   interval,
		logger:     log,
	}
}

func (j *SyncJob) Start(ctx context.Context) {
	j.loop.start(ctx, j.interval, false, j.tick)
}

func (j *SyncJob) Stop() {
	j.loop.stop()
}

func (j *SyncJob) tick(ctx context.Context) {
	if !j.online() {
		j.logger.Debug().Msg("sync job: offline, skipping reconcile")
		return
	}

	report, err := j.reconciler.Reconcile(ctx)
	if err != nil {
		j.logger.Err(err).Str("func", "*SyncJob.tick").Msg("periodic reconcile failed")
		return
	}

	j.logger.Debug().Str("report", report.String()).Msg("periodic reconcile finished")
}
