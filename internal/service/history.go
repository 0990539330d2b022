package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"pomodisc/backend/internal/clock"
	"pomodisc/backend/internal/model"
	"pomodisc/backend/internal/repository"
)

const historyWriteTimeout = 2 * time.Second

// HistoryRecorder turns engine snapshots into the phase ledger. A phase is
// completed when its timer expired and cancelled when the run was reset.
type HistoryRecorder struct {
	clock  clock.Clock
	repo   *repository.PhaseRepository
	logger *slog.Logger

	last model.TimerState
	open *model.PhaseRecord
}

func NewHistoryRecorder(c clock.Clock, repo *repository.PhaseRepository, initial model.TimerState, logger *slog.Logger) *HistoryRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryRecorder{clock: c, repo: repo, logger: logger, last: initial}
}

// Observe is the engine subscriber. It must run on the loop.
func (h *HistoryRecorder) Observe(s model.TimerState) {
	prev := h.last
	h.last = s

	switch s.Status {
	case model.StatusRunning, model.StatusPaused:
		if h.open == nil {
			h.begin(s)
			return
		}
		if s.SessionType != h.open.SessionType || s.CurrentCycle != h.open.Cycle {
			h.finish(0, model.PhaseCompleted)
			h.begin(s)
		}
	case model.StatusIdle:
		if h.open == nil {
			return
		}
		if s.IsComplete {
			h.finish(0, model.PhaseCompleted)
		} else {
			h.finish(prev.RemainingSeconds, model.PhaseCancelled)
		}
	}
}

func (h *HistoryRecorder) begin(s model.TimerState) {
	h.open = &model.PhaseRecord{
		ID:             uuid.NewString(),
		SessionType:    s.SessionType,
		Cycle:          s.CurrentCycle,
		PlannedSeconds: s.DurationMinutes(s.SessionType) * 60,
		StartedAt:      h.clock.Now().UTC(),
	}
}

func (h *HistoryRecorder) finish(remainingSeconds int, status string) {
	record := h.open
	h.open = nil

	if remainingSeconds < 0 {
		remainingSeconds = 0
	}
	actual := record.PlannedSeconds - remainingSeconds
	if actual < 0 {
		actual = 0
	}
	record.ActualSeconds = actual
	record.EndedAt = h.clock.Now().UTC()
	record.Status = status

	if h.repo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), historyWriteTimeout)
	defer cancel()
	if err := h.repo.Insert(ctx, record); err != nil {
		h.logger.Warn("phase not recorded", "phase", record.SessionType, "status", status, "error", err)
		return
	}
	h.logger.Debug("phase recorded", "phase", record.SessionType, "cycle", record.Cycle, "status", status)
}

// List returns the ledger, newest first. Safe from any goroutine.
func (h *HistoryRecorder) List(ctx context.Context, limit int) ([]model.PhaseRecord, error) {
	if h.repo == nil {
		return []model.PhaseRecord{}, nil
	}
	return h.repo.List(ctx, limit)
}
