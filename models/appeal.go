package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Appeal statuses
const (
	AppealPending     = "pending"
	AppealUnderReview = "under_review"
	AppealApproved    = "approved"
	AppealDenied      = "denied"
	AppealEscalated   = "escalated"
)

// Appeal priorities
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Message sender types
const (
	SenderUser   = "user"
	SenderStaff  = "staff"
	SenderSystem = "system"
)

// History action taxonomy
const (
	HistoryStatusChange   = "status_change"
	HistoryClaim          = "claim"
	HistoryMessageAdded   = "message_added"
	HistoryPriorityChange = "priority_change"
)

// Appeal is a user-submitted request to reconsider a prior moderation action,
// tracked through a status lifecycle. Code is the human-memorable identity
// used in every lookup; it is stored upper-cased and matched case-insensitively.
type Appeal struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Code            string             `bson:"code" json:"code"`
	DiscordID       string             `bson:"discordId" json:"discordId"`
	DiscordUsername string             `bson:"discordUsername,omitempty" json:"discordUsername,omitempty"`
	Email           string             `bson:"email" json:"email"`
	AppealType      string             `bson:"appealType" json:"appealType"`
	BanReason       string             `bson:"banReason,omitempty" json:"banReason,omitempty"`
	AppealMessage   string             `bson:"appealMessage" json:"appealMessage"`
	Evidence        string             `bson:"evidence,omitempty" json:"evidence,omitempty"`
	Status          string             `bson:"status" json:"status"`
	Priority        string             `bson:"priority" json:"priority"`
	AssignedTo      string             `bson:"assignedTo,omitempty" json:"assignedTo,omitempty"`
	ReviewedBy      string             `bson:"reviewedBy,omitempty" json:"reviewedBy,omitempty"`
	ReviewedAt      primitive.DateTime `bson:"reviewedAt,omitempty" json:"reviewedAt,omitempty"`
	ReviewNote      string             `bson:"reviewNote,omitempty" json:"reviewNote,omitempty"`
	CreatedAt       primitive.DateTime `bson:"createdAt" json:"createdAt"`
	UpdatedAt       primitive.DateTime `bson:"updatedAt" json:"updatedAt"`
}

// AppealMessage is one entry in an appeal's correspondence thread. Entries
// with IsInternal set are staff-only and never reach the submitter.
type AppealMessage struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	AppealID   primitive.ObjectID `bson:"appealId" json:"appealId"`
	SenderType string             `bson:"senderType" json:"senderType"`
	SenderName string             `bson:"senderName,omitempty" json:"senderName,omitempty"`
	Message    string             `bson:"message" json:"message"`
	IsInternal bool               `bson:"isInternal" json:"isInternal"`
	CreatedAt  primitive.DateTime `bson:"createdAt" json:"createdAt"`
}

// AppealHistory is an immutable audit trail row. PerformedBy is empty for
// system-generated entries.
type AppealHistory struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	AppealID    primitive.ObjectID `bson:"appealId" json:"appealId"`
	Action      string             `bson:"action" json:"action"`
	OldValue    string             `bson:"oldValue,omitempty" json:"oldValue,omitempty"`
	NewValue    string             `bson:"newValue,omitempty" json:"newValue,omitempty"`
	PerformedBy string             `bson:"performedBy,omitempty" json:"performedBy,omitempty"`
	CreatedAt   primitive.DateTime `bson:"createdAt" json:"createdAt"`
}

// ValidAppealType reports whether s names an appealable action
func ValidAppealType(s string) bool {
	switch s {
	case ActionBan, ActionMute, ActionWarn:
		return true
	}
	return false
}

// ValidPriority reports whether s is a known priority
func ValidPriority(s string) bool {
	switch s {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}
