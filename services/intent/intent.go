package intent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	intentRepo "studioz/database/repository/intent"
	"studioz/models"
	"studioz/services/gateway"
	"studioz/utils"
)

var ErrIntentSettled = intentRepo.ErrIntentSettled

// Log brackets every upstream reserve/release call.
type Log interface {
	Begin(ctx context.Context, in models.ReservationIntent) (*models.ReservationIntent, error)
	Commit(ctx context.Context, id, reservationID string) error
	RollBack(ctx context.Context, id string, cause error) error
	Sweep(ctx context.Context, olderThan time.Time) (SweepResult, error)
}

// SweepResult counts what one sweep pass did.
type SweepResult struct {
	Scanned     int `json:"scanned"`
	Compensated int `json:"compensated"`
	RolledBack  int `json:"rolledBack"`
	Failed      int `json:"failed"`
}

const sweepBatch = 100

type DefaultLog struct {
	Repo     intentRepo.IntentRepository
	Bookings gateway.Bookings
	Now      func() time.Time
}

func NewLog(repo intentRepo.IntentRepository, bookings gateway.Bookings) *DefaultLog {
	return &DefaultLog{Repo: repo, Bookings: bookings, Now: time.Now}
}

func (l *DefaultLog) Begin(ctx context.Context, in models.ReservationIntent) (*models.ReservationIntent, error) {
	now := l.Now().UTC()
	in.ID = uuid.New().String()
	in.State = models.IntentPending
	in.CreatedAt = now
	in.UpdatedAt = now
	if err := l.Repo.Create(ctx, in); err != nil {
		return nil, fmt.Errorf("record intent: %w", err)
	}
	return &in, nil
}

// Commit and RollBack detach from the request context so a disconnected
// client cannot leave an answered call recorded as pending.
func (l *DefaultLog) Commit(ctx context.Context, id, reservationID string) error {
	_, err := l.Repo.Settle(context.WithoutCancel(ctx), id, models.IntentCommitted, reservationID, "")
	return err
}

func (l *DefaultLog) RollBack(ctx context.Context, id string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	_, err := l.Repo.Settle(context.WithoutCancel(ctx), id, models.IntentRolledBack, "", msg)
	return err
}

// Sweep settles pending intents created before olderThan. Reserve intents may
// hold hours upstream, so they are released before being rolled back.
func (l *DefaultLog) Sweep(ctx context.Context, olderThan time.Time) (SweepResult, error) {
	logger := utils.GetLogger()
	var res SweepResult

	stale, err := l.Repo.FindStalePending(ctx, olderThan, sweepBatch)
	if err != nil {
		return res, fmt.Errorf("find stale intents: %w", err)
	}
	res.Scanned = len(stale)

	for _, in := range stale {
		cause := errors.New("expired while pending")
		if in.Compensating() {
			if err := l.compensate(ctx, in); err != nil {
				// Left pending; the next sweep tries again.
				logger.Warn("Intent compensation failed",
					zap.String("intentId", in.ID), zap.String("kind", string(in.Kind)), zap.Error(err))
				utils.IntentsSwept.WithLabelValues(string(in.Kind), "failed").Inc()
				res.Failed++
				continue
			}
			cause = errors.New("expired while pending; reservation released")
			res.Compensated++
		}

		if err := l.RollBack(ctx, in.ID, cause); err != nil {
			if errors.Is(err, ErrIntentSettled) || errors.Is(err, mongo.ErrNoDocuments) {
				continue
			}
			logger.Error("Failed to roll back stale intent", zap.String("intentId", in.ID), zap.Error(err))
			res.Failed++
			continue
		}
		utils.IntentsSwept.WithLabelValues(string(in.Kind), "rolled_back").Inc()
		res.RolledBack++
	}

	if res.Scanned > 0 {
		logger.Info("Intent sweep finished",
			zap.Int("scanned", res.Scanned),
			zap.Int("compensated", res.Compensated),
			zap.Int("rolledBack", res.RolledBack),
			zap.Int("failed", res.Failed))
	}
	return res, nil
}

func (l *DefaultLog) compensate(ctx context.Context, in models.ReservationIntent) error {
	req := gateway.SlotRequest{
		ItemID:         in.ItemID,
		BookingDate:    in.BookingDate,
		StartTime:      in.StartTime,
		Hours:          in.Hours,
		ReservationID:  in.ReservationID,
		IdempotencyKey: "compensate-" + in.ID,
	}

	var err error
	if in.Kind == models.IntentReserveNext {
		err = l.Bookings.ReleaseLastTimeSlot(ctx, req)
	} else {
		err = l.Bookings.ReleaseTimeSlots(ctx, req)
	}
	// Nothing held upstream means there is nothing to undo.
	if errors.Is(err, gateway.ErrNotFound) {
		return nil
	}
	return err
}
