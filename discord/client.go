// Package discord is a minimal REST client for the handful of Discord calls
// the moderation flow needs: opening a DM, sending an embed, and the member
// kick/ban/timeout operations.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const defaultBaseURL = "https://discord.com/api/v10"

// Embed colors for the action notice, red for bans and orange for lesser actions
const (
	ColorBan    = 0xED4245
	ColorAction = 0xFAA61A
)

// Client calls the Discord REST API with bot-token auth
type Client struct {
	http    *retryablehttp.Client
	token   string
	guildID string
	baseURL string
}

// Embed is the structured notice sent to a user's DM channel
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
}

// EmbedField is a single name/value pair inside an embed
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// New creates a client for the given bot token and guild
func New(token, guildID string) *Client {
	return NewWithBaseURL(token, guildID, defaultBaseURL)
}

// NewWithBaseURL creates a client against a non-default API host, used by tests
func NewWithBaseURL(token, guildID, baseURL string) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.HTTPClient.Timeout = 15 * time.Second
	rc.Logger = nil
	return &Client{
		http:    rc,
		token:   token,
		guildID: guildID,
		baseURL: baseURL,
	}
}

// CreateDM opens (or retrieves) the private channel to a user and returns its id
func (c *Client) CreateDM(ctx context.Context, userID string) (string, error) {
	body := map[string]string{"recipient_id": userID}
	var channel struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/users/@me/channels", body, "", &channel); err != nil {
		return "", fmt.Errorf("failed to create DM channel: %w", err)
	}
	return channel.ID, nil
}

// SendEmbed posts a single embed message into a channel
func (c *Client) SendEmbed(ctx context.Context, channelID string, embed Embed) error {
	body := map[string]interface{}{"embeds": []Embed{embed}}
	path := fmt.Sprintf("/channels/%s/messages", channelID)
	if err := c.do(ctx, http.MethodPost, path, body, "", nil); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// KickMember removes a user from the guild with an audit reason
func (c *Client) KickMember(ctx context.Context, userID, reason string) error {
	path := fmt.Sprintf("/guilds/%s/members/%s", c.guildID, userID)
	if err := c.do(ctx, http.MethodDelete, path, nil, reason, nil); err != nil {
		return fmt.Errorf("failed to kick member: %w", err)
	}
	return nil
}

// BanMember bans a user with an audit reason and no message-history purge
func (c *Client) BanMember(ctx context.Context, userID, reason string) error {
	body := map[string]int{"delete_message_seconds": 0}
	path := fmt.Sprintf("/guilds/%s/bans/%s", c.guildID, userID)
	if err := c.do(ctx, http.MethodPut, path, body, reason, nil); err != nil {
		return fmt.Errorf("failed to ban member: %w", err)
	}
	return nil
}

// TimeoutMember applies a timed communication restriction until the given instant
func (c *Client) TimeoutMember(ctx context.Context, userID string, until time.Time, reason string) error {
	body := map[string]string{"communication_disabled_until": until.UTC().Format(time.RFC3339)}
	path := fmt.Sprintf("/guilds/%s/members/%s", c.guildID, userID)
	if err := c.do(ctx, http.MethodPatch, path, body, reason, nil); err != nil {
		return fmt.Errorf("failed to timeout member: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, auditReason string, out interface{}) error {
	var buf io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		buf = bytes.NewBuffer(jsonData)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, buf)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	req.Header.Set("Content-Type", "application/json")
	if auditReason != "" {
		req.Header.Set("X-Audit-Log-Reason", url.PathEscape(auditReason))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("discord returned status %d: %s", resp.StatusCode, respBody)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
