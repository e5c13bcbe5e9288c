package moderation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentityResolverOverrideWins(t *testing.T) {
	r := IdentityResolver{Overrides: map[string]string{"boss@example.com": "The Boss"}}

	// override beats the display name even when both are present
	assert.Equal(t, "The Boss", r.Resolve("boss", "Boss@Example.com"))
}

func TestIdentityResolverDisplayName(t *testing.T) {
	r := IdentityResolver{}
	assert.Equal(t, "modbot", r.Resolve("modbot", "mod@example.com"))
}

func TestIdentityResolverFallsBackToEmail(t *testing.T) {
	r := IdentityResolver{}
	assert.Equal(t, "mod@example.com", r.Resolve("", "mod@example.com"))
}

func TestIdentityResolverStaticFallback(t *testing.T) {
	r := IdentityResolver{}
	assert.Equal(t, FallbackModeratorLabel, r.Resolve("", ""))
}
