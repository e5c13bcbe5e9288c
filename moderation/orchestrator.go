package moderation

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/modsentry/moderation-api/databases"
	"github.com/modsentry/moderation-api/models"
)

// Notifier delivers a direct message describing an action to the affected
// user before the action lands. Implementations talk to the messaging
// platform; the orchestrator swallows their failures.
type Notifier interface {
	NotifyAction(ctx context.Context, userID, actionType, reason string, minutes int) error
}

// Executor invokes the destructive platform operation for an action. The
// until argument carries the computed end of a timed restriction and is the
// zero time for untimed actions.
type Executor interface {
	ExecuteAction(ctx context.Context, userID, actionType, reason string, until time.Time) error
}

// ValidationError rejects a request before any side effect
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Detail)
}

// ActionRequest is one inbound moderation action
type ActionRequest struct {
	UserID     string `json:"userId"`
	UserTag    string `json:"userTag"`
	ActionType string `json:"actionType"`
	Reason     string `json:"reason"`
	Duration   string `json:"duration"`
	Evidence   string `json:"evidence"`

	// Session identity of the requesting staff member
	ActorName  string `json:"actorName"`
	ActorEmail string `json:"actorEmail"`
}

// Orchestrator sequences a moderation action: validate, resolve the
// moderator label, notify the user, wait for delivery to settle, apply the
// platform action, then record the case. Notification and platform failures
// are logged and recorded on the case but never block it; only a failure to
// persist the case is returned to the caller.
type Orchestrator struct {
	Notifier Notifier
	Executor Executor
	Cases    databases.CaseDatabase
	Resolver IdentityResolver

	// SettlingDelay is the pause between the notification attempt and the
	// destructive action, giving async delivery a chance to land before the
	// user's access is revoked
	SettlingDelay time.Duration

	// DefaultMuteMinutes is applied when a mute carries no usable duration
	DefaultMuteMinutes int

	// StrictDurations rejects unparsable duration text up front instead of
	// silently defaulting
	StrictDurations bool
}

// Execute runs the full sequence for one request and returns the persisted case
func (o *Orchestrator) Execute(ctx context.Context, req ActionRequest) (models.Case, error) {
	if err := validate(req); err != nil {
		return models.Case{}, err
	}

	minutes, until, err := o.effectiveDuration(req)
	if err != nil {
		return models.Case{}, err
	}

	moderatorTag := o.Resolver.Resolve(req.ActorName, req.ActorEmail)

	now := time.Now()
	moderationCase := models.Case{
		ID:           primitive.NewObjectID(),
		UserID:       req.UserID,
		UserTag:      req.UserTag,
		ActionType:   req.ActionType,
		Reason:       req.Reason,
		DurationText: req.Duration,
		Evidence:     req.Evidence,
		ModeratorTag: moderatorTag,
		NotifyStatus: models.StepSkipped,
		ActionStatus: models.StepSkipped,
		CreatedAt:    primitive.NewDateTimeFromTime(now),
	}
	if !until.IsZero() {
		moderationCase.EffectiveUntil = primitive.NewDateTimeFromTime(until)
	}

	if req.ActionType != models.ActionNote {
		moderationCase.NotifyStatus = models.StepOK
		if err := o.Notifier.NotifyAction(ctx, req.UserID, req.ActionType, req.Reason, minutes); err != nil {
			zap.S().Errorw("failed to notify user of moderation action",
				"userId", req.UserID,
				"actionType", req.ActionType,
				"error", err)
			moderationCase.NotifyStatus = models.StepFailed
		}
		o.settle(ctx)
	}

	switch req.ActionType {
	case models.ActionKick, models.ActionBan, models.ActionMute:
		moderationCase.ActionStatus = models.StepOK
		if err := o.Executor.ExecuteAction(ctx, req.UserID, req.ActionType, req.Reason, until); err != nil {
			zap.S().Errorw("failed to execute moderation action",
				"userId", req.UserID,
				"actionType", req.ActionType,
				"error", err)
			moderationCase.ActionStatus = models.StepFailed
		}
	}

	persisted, err := o.Cases.InsertOne(ctx, moderationCase)
	if err != nil {
		return models.Case{}, fmt.Errorf("failed to record case: %w", err)
	}
	return persisted, nil
}

func validate(req ActionRequest) error {
	if req.UserID == "" {
		return &ValidationError{Field: "userId", Detail: "required"}
	}
	if !models.ValidActionType(req.ActionType) {
		return &ValidationError{Field: "actionType", Detail: fmt.Sprintf("unknown action %q", req.ActionType)}
	}
	if req.Reason == "" && req.ActionType != models.ActionNote {
		return &ValidationError{Field: "reason", Detail: "required"}
	}
	return nil
}

// effectiveDuration computes the minutes and absolute end of a timed
// restriction. Mutes always get a duration, defaulting when text is absent or
// unparsable; bans get one only when duration text was supplied.
func (o *Orchestrator) effectiveDuration(req ActionRequest) (int, time.Time, error) {
	def := o.DefaultMuteMinutes
	if def <= 0 {
		def = DefaultMuteMinutes
	}

	var minutes int
	if o.StrictDurations {
		m, err := ParseMinutesStrict(req.Duration, def)
		if err != nil {
			return 0, time.Time{}, &ValidationError{Field: "duration", Detail: err.Error()}
		}
		minutes = m
	} else {
		minutes = ParseMinutes(req.Duration, def)
	}

	switch req.ActionType {
	case models.ActionMute:
		return minutes, time.Now().Add(time.Duration(minutes) * time.Minute), nil
	case models.ActionBan:
		if req.Duration == "" {
			return 0, time.Time{}, nil
		}
		return minutes, time.Now().Add(time.Duration(minutes) * time.Minute), nil
	}
	return 0, time.Time{}, nil
}

// settle waits out the settling delay as an explicit timer stage so a
// cancelled request does not hold a worker hostage
func (o *Orchestrator) settle(ctx context.Context) {
	if o.SettlingDelay <= 0 {
		return
	}
	timer := time.NewTimer(o.SettlingDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
