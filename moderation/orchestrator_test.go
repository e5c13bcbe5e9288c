package moderation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/modsentry/moderation-api/models"
	"github.com/modsentry/moderation-api/moderation"
)

type fakeNotifier struct {
	calls int
	err   error

	lastAction  string
	lastMinutes int
}

func (f *fakeNotifier) NotifyAction(ctx context.Context, userID, actionType, reason string, minutes int) error {
	f.calls++
	f.lastAction = actionType
	f.lastMinutes = minutes
	return f.err
}

type fakeExecutor struct {
	calls int
	err   error

	lastAction string
	lastUntil  time.Time
}

func (f *fakeExecutor) ExecuteAction(ctx context.Context, userID, actionType, reason string, until time.Time) error {
	f.calls++
	f.lastAction = actionType
	f.lastUntil = until
	return f.err
}

type fakeCaseDB struct {
	inserted []models.Case
	err      error
}

func (f *fakeCaseDB) FindOne(ctx context.Context, filter interface{}) (*models.Case, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeCaseDB) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Case, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeCaseDB) InsertOne(ctx context.Context, c models.Case) (models.Case, error) {
	if f.err != nil {
		return models.Case{}, f.err
	}
	f.inserted = append(f.inserted, c)
	return c, nil
}

func (f *fakeCaseDB) CountDocuments(ctx context.Context, filter interface{}) (int64, error) {
	return int64(len(f.inserted)), nil
}

func newOrchestrator(n *fakeNotifier, e *fakeExecutor, db *fakeCaseDB) *moderation.Orchestrator {
	return &moderation.Orchestrator{
		Notifier:           n,
		Executor:           e,
		Cases:              db,
		Resolver:           moderation.IdentityResolver{},
		SettlingDelay:      0,
		DefaultMuteMinutes: 60,
	}
}

func TestOrchestratorMuteComputesEffectiveUntil(t *testing.T) {
	notifier := &fakeNotifier{}
	executor := &fakeExecutor{}
	db := &fakeCaseDB{}
	o := newOrchestrator(notifier, executor, db)

	before := time.Now()
	c, err := o.Execute(context.Background(), moderation.ActionRequest{
		UserID:     "123456789012345678",
		ActionType: models.ActionMute,
		Reason:     "spam",
		Duration:   "2h",
		ActorName:  "mod",
	})
	assert.NoError(t, err)

	expected := before.Add(120 * time.Minute)
	assert.WithinDuration(t, expected, c.EffectiveUntil.Time(), 5*time.Second)
	assert.WithinDuration(t, expected, executor.lastUntil, 5*time.Second)
	assert.Equal(t, 120, notifier.lastMinutes)
	assert.Equal(t, models.StepOK, c.NotifyStatus)
	assert.Equal(t, models.StepOK, c.ActionStatus)
}

func TestOrchestratorNotifyFailureNeverBlocksPersistence(t *testing.T) {
	notifier := &fakeNotifier{err: errors.New("DMs closed")}
	executor := &fakeExecutor{}
	db := &fakeCaseDB{}
	o := newOrchestrator(notifier, executor, db)

	c, err := o.Execute(context.Background(), moderation.ActionRequest{
		UserID:     "123456789012345678",
		ActionType: models.ActionBan,
		Reason:     "raid",
	})
	assert.NoError(t, err)
	assert.Len(t, db.inserted, 1)
	assert.Equal(t, models.StepFailed, c.NotifyStatus)
	assert.Equal(t, models.StepOK, c.ActionStatus)
}

func TestOrchestratorExecutorFailureNeverBlocksPersistence(t *testing.T) {
	notifier := &fakeNotifier{}
	executor := &fakeExecutor{err: errors.New("missing permission")}
	db := &fakeCaseDB{}
	o := newOrchestrator(notifier, executor, db)

	c, err := o.Execute(context.Background(), moderation.ActionRequest{
		UserID:     "123456789012345678",
		ActionType: models.ActionKick,
		Reason:     "alt account",
	})
	assert.NoError(t, err)
	assert.Len(t, db.inserted, 1)
	assert.Equal(t, models.StepFailed, c.ActionStatus)
}

func TestOrchestratorPersistenceFailureIsTheOnlyError(t *testing.T) {
	notifier := &fakeNotifier{}
	executor := &fakeExecutor{}
	db := &fakeCaseDB{err: errors.New("store unreachable")}
	o := newOrchestrator(notifier, executor, db)

	_, err := o.Execute(context.Background(), moderation.ActionRequest{
		UserID:     "123456789012345678",
		ActionType: models.ActionWarn,
		Reason:     "language",
	})
	assert.Error(t, err)
	assert.ErrorContains(t, err, "failed to record case")
}

func TestOrchestratorValidationHasNoSideEffects(t *testing.T) {
	notifier := &fakeNotifier{}
	executor := &fakeExecutor{}
	db := &fakeCaseDB{}
	o := newOrchestrator(notifier, executor, db)

	tests := []moderation.ActionRequest{
		{ActionType: models.ActionBan, Reason: "no user"},
		{UserID: "123456789012345678", ActionType: "obliterate", Reason: "nope"},
		{UserID: "123456789012345678", ActionType: models.ActionBan},
	}
	for _, req := range tests {
		_, err := o.Execute(context.Background(), req)
		var verr *moderation.ValidationError
		assert.ErrorAs(t, err, &verr)
	}
	assert.Zero(t, notifier.calls)
	assert.Zero(t, executor.calls)
	assert.Empty(t, db.inserted)
}

func TestOrchestratorNoteSkipsNotifyAndAction(t *testing.T) {
	notifier := &fakeNotifier{}
	executor := &fakeExecutor{}
	db := &fakeCaseDB{}
	o := newOrchestrator(notifier, executor, db)

	c, err := o.Execute(context.Background(), moderation.ActionRequest{
		UserID:     "123456789012345678",
		ActionType: models.ActionNote,
	})
	assert.NoError(t, err)
	assert.Zero(t, notifier.calls)
	assert.Zero(t, executor.calls)
	assert.Equal(t, models.StepSkipped, c.NotifyStatus)
	assert.Equal(t, models.StepSkipped, c.ActionStatus)
}

func TestOrchestratorWarnSkipsPlatformCall(t *testing.T) {
	notifier := &fakeNotifier{}
	executor := &fakeExecutor{}
	db := &fakeCaseDB{}
	o := newOrchestrator(notifier, executor, db)

	c, err := o.Execute(context.Background(), moderation.ActionRequest{
		UserID:     "123456789012345678",
		ActionType: models.ActionWarn,
		Reason:     "language",
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, notifier.calls)
	assert.Zero(t, executor.calls)
	assert.Equal(t, models.StepSkipped, c.ActionStatus)
	assert.Len(t, db.inserted, 1)
}

func TestOrchestratorPermanentBanHasNoExpiry(t *testing.T) {
	notifier := &fakeNotifier{}
	executor := &fakeExecutor{}
	db := &fakeCaseDB{}
	o := newOrchestrator(notifier, executor, db)

	c, err := o.Execute(context.Background(), moderation.ActionRequest{
		UserID:     "123456789012345678",
		ActionType: models.ActionBan,
		Reason:     "raid",
	})
	assert.NoError(t, err)
	assert.Zero(t, c.EffectiveUntil)
	assert.True(t, executor.lastUntil.IsZero())
}

func TestOrchestratorTimedBanComputesExpiry(t *testing.T) {
	notifier := &fakeNotifier{}
	executor := &fakeExecutor{}
	db := &fakeCaseDB{}
	o := newOrchestrator(notifier, executor, db)

	before := time.Now()
	c, err := o.Execute(context.Background(), moderation.ActionRequest{
		UserID:     "123456789012345678",
		ActionType: models.ActionBan,
		Reason:     "raid",
		Duration:   "1d",
	})
	assert.NoError(t, err)
	assert.WithinDuration(t, before.Add(1440*time.Minute), c.EffectiveUntil.Time(), 5*time.Second)
}

func TestOrchestratorStrictDurationRejectsGarbage(t *testing.T) {
	notifier := &fakeNotifier{}
	executor := &fakeExecutor{}
	db := &fakeCaseDB{}
	o := newOrchestrator(notifier, executor, db)
	o.StrictDurations = true

	_, err := o.Execute(context.Background(), moderation.ActionRequest{
		UserID:     "123456789012345678",
		ActionType: models.ActionMute,
		Reason:     "spam",
		Duration:   "garbage",
	})
	var verr *moderation.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Empty(t, db.inserted)
}

func TestOrchestratorRecordsCaseExactlyOnce(t *testing.T) {
	for _, actionType := range []string{models.ActionWarn, models.ActionMute, models.ActionKick, models.ActionBan, models.ActionNote} {
		db := &fakeCaseDB{}
		o := newOrchestrator(&fakeNotifier{}, &fakeExecutor{}, db)

		_, err := o.Execute(context.Background(), moderation.ActionRequest{
			UserID:     "123456789012345678",
			ActionType: actionType,
			Reason:     "because",
		})
		assert.NoError(t, err)
		assert.Len(t, db.inserted, 1, "actionType %s", actionType)
	}
}

func TestOrchestratorResolvesModeratorTag(t *testing.T) {
	db := &fakeCaseDB{}
	o := newOrchestrator(&fakeNotifier{}, &fakeExecutor{}, db)
	o.Resolver = moderation.IdentityResolver{Overrides: map[string]string{"boss@example.com": "The Boss"}}

	c, err := o.Execute(context.Background(), moderation.ActionRequest{
		UserID:     "123456789012345678",
		ActionType: models.ActionWarn,
		Reason:     "language",
		ActorName:  "boss",
		ActorEmail: "boss@example.com",
	})
	assert.NoError(t, err)
	assert.Equal(t, "The Boss", c.ModeratorTag)
}
