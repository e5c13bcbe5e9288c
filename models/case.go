package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Moderation action types
const (
	ActionWarn = "warn"
	ActionMute = "mute"
	ActionKick = "kick"
	ActionBan  = "ban"
	ActionNote = "note"
)

// Step outcomes recorded on a case. A case records the intent of an action;
// these fields record whether each platform call actually landed.
const (
	StepOK      = "ok"
	StepFailed  = "failed"
	StepSkipped = "skipped"
)

// Case is an immutable record of one completed moderation action against a
// user. Corrections are new cases, never in-place edits.
type Case struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID       string             `bson:"userId" json:"userId"`
	UserTag      string             `bson:"userTag,omitempty" json:"userTag,omitempty"`
	ActionType   string             `bson:"actionType" json:"actionType"`
	Reason       string             `bson:"reason,omitempty" json:"reason,omitempty"`
	DurationText string             `bson:"duration,omitempty" json:"duration,omitempty"`
	Evidence     string             `bson:"evidence,omitempty" json:"evidence,omitempty"`
	ModeratorTag string             `bson:"moderatorTag" json:"moderatorTag"`

	// EffectiveUntil is the computed end of a timed restriction. Only set
	// for mute, or for ban when a duration was supplied.
	EffectiveUntil primitive.DateTime `bson:"effectiveUntil,omitempty" json:"effectiveUntil,omitempty"`

	NotifyStatus string `bson:"notifyStatus" json:"notifyStatus"`
	ActionStatus string `bson:"actionStatus" json:"actionStatus"`

	CreatedAt primitive.DateTime `bson:"createdAt" json:"createdAt"`
}

// ValidActionType reports whether s names a known moderation action
func ValidActionType(s string) bool {
	switch s {
	case ActionWarn, ActionMute, ActionKick, ActionBan, ActionNote:
		return true
	}
	return false
}
