// Package scheduler runs the periodic appeal housekeeping jobs.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/modsentry/moderation-api/databases"
	"github.com/modsentry/moderation-api/models"
)

// Scheduler escalates appeals that have sat in pending for too long so the
// review queue surfaces them before the appellant gives up
type Scheduler struct {
	cron       *cron.Cron
	ADB        databases.AppealDatabase
	MDB        databases.AppealMessageDatabase
	HDB        databases.AppealHistoryDatabase
	staleAfter time.Duration
}

// NewScheduler creates a new scheduler instance
func NewScheduler(
	aDB databases.AppealDatabase,
	mDB databases.AppealMessageDatabase,
	hDB databases.AppealHistoryDatabase,
	staleAfter time.Duration,
) *Scheduler {
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		ADB:        aDB,
		MDB:        mDB,
		HDB:        hDB,
		staleAfter: staleAfter,
	}
}

// Start registers and starts the cron jobs
func (s *Scheduler) Start() {
	_, err := s.cron.AddFunc("@hourly", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		s.EscalateStaleAppeals(ctx)
	})
	if err != nil {
		zap.S().Errorw("failed to register stale appeal job", "error", err)
		return
	}
	s.cron.Start()
	zap.S().Infow("appeal scheduler started", "staleAfter", s.staleAfter)
}

// Stop stops the cron runner
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// EscalateStaleAppeals bumps pending appeals older than the stale window to
// high priority, with a system history row and an internal note so reviewers
// can see why the priority moved
func (s *Scheduler) EscalateStaleAppeals(ctx context.Context) {
	cutoff := primitive.NewDateTimeFromTime(time.Now().Add(-s.staleAfter))

	stale, err := s.ADB.Find(ctx, bson.M{
		"status":    models.AppealPending,
		"createdAt": bson.M{"$lt": cutoff},
		"priority":  bson.M{"$in": []string{models.PriorityLow, models.PriorityNormal}},
	})
	if err != nil {
		zap.S().Errorw("failed to find stale appeals", "error", err)
		return
	}

	for _, appeal := range stale {
		now := primitive.NewDateTimeFromTime(time.Now())

		// Conditional on the priority we read; if a reviewer touched the
		// appeal in the meantime, leave it alone
		matched, err := s.ADB.UpdateOne(ctx,
			bson.M{"_id": appeal.ID, "priority": appeal.Priority, "status": models.AppealPending},
			bson.M{"$set": bson.M{"priority": models.PriorityHigh, "updatedAt": now}})
		if err != nil {
			zap.S().Errorw("failed to escalate stale appeal", "code", appeal.Code, "error", err)
			continue
		}
		if matched == 0 {
			continue
		}

		if _, err := s.HDB.InsertOne(ctx, models.AppealHistory{
			ID:        primitive.NewObjectID(),
			AppealID:  appeal.ID,
			Action:    models.HistoryPriorityChange,
			OldValue:  appeal.Priority,
			NewValue:  models.PriorityHigh,
			CreatedAt: now,
		}); err != nil {
			zap.S().Errorw("failed to record stale appeal history", "code", appeal.Code, "error", err)
		}

		if _, err := s.MDB.InsertOne(ctx, models.AppealMessage{
			ID:         primitive.NewObjectID(),
			AppealID:   appeal.ID,
			SenderType: models.SenderSystem,
			Message:    "Priority raised automatically: appeal has been waiting past the review target.",
			IsInternal: true,
			CreatedAt:  now,
		}); err != nil {
			zap.S().Errorw("failed to record stale appeal note", "code", appeal.Code, "error", err)
		}

		zap.S().Infow("escalated stale appeal", "code", appeal.Code)
	}
}
