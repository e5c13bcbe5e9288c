package moderation

import "strings"

// FallbackModeratorLabel is recorded when a request carries no usable identity
const FallbackModeratorLabel = "Staff"

// IdentityResolver turns a session identity into the display label persisted
// on a case. The label is a point-in-time snapshot, never re-derived.
type IdentityResolver struct {
	// Overrides maps lower-cased staff emails to a preferred label for the
	// small set of superusers whose label differs from their display name
	Overrides map[string]string
}

// Resolve picks the moderator label in priority order: override table by
// lower-cased email, session display name, session email, static fallback.
func (r IdentityResolver) Resolve(displayName, email string) string {
	if label, ok := r.Overrides[strings.ToLower(email)]; ok && email != "" {
		return label
	}
	if displayName != "" {
		return displayName
	}
	if email != "" {
		return email
	}
	return FallbackModeratorLabel
}
