package discord

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modsentry/moderation-api/models"
)

// NotifyAction opens a DM to the user and sends the action notice: title is
// the action type, body carries the reason and duration, bans get the red
// severity cue. Callers treat any failure here as best-effort.
func (c *Client) NotifyAction(ctx context.Context, userID, actionType, reason string, minutes int) error {
	channelID, err := c.CreateDM(ctx, userID)
	if err != nil {
		return err
	}

	color := ColorAction
	if actionType == models.ActionBan {
		color = ColorBan
	}
	embed := Embed{
		Title:       fmt.Sprintf("You have received a %s", strings.ToLower(actionType)),
		Description: reason,
		Color:       color,
	}
	if minutes > 0 {
		embed.Fields = append(embed.Fields, EmbedField{
			Name:  "Duration",
			Value: fmt.Sprintf("%d minutes", minutes),
		})
	}
	return c.SendEmbed(ctx, channelID, embed)
}

// ExecuteAction applies the destructive platform operation for an action
// type. Warnings and notes have no platform effect and return nil.
func (c *Client) ExecuteAction(ctx context.Context, userID, actionType, reason string, until time.Time) error {
	switch actionType {
	case models.ActionKick:
		return c.KickMember(ctx, userID, reason)
	case models.ActionBan:
		return c.BanMember(ctx, userID, reason)
	case models.ActionMute:
		return c.TimeoutMember(ctx, userID, until, reason)
	}
	return nil
}
