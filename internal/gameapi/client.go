// Package gameapi is the client for the third-party game-data API. Every
// response is validated at this boundary: it must be a JSON object, carry
// the endpoint-specific required key, and report a zero status code where
// the endpoint has one. Payloads are otherwise passed through untouched so
// the bronze layer stages exactly what the API returned.
package gameapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/guildops/guildflow/internal/domain"
)

// APIError is a fatal error reported by the API itself via its status code
// field.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: code=%d message=%q", e.Code, e.Message)
}

// Client talks to the game-data API.
type Client struct {
	baseURL  string
	apiKey   string
	allyCode string
	http     *http.Client
}

func New(baseURL, apiKey, allyCode string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:  baseURL,
		apiKey:   apiKey,
		allyCode: allyCode,
		http:     &http.Client{Timeout: timeout},
	}
}

// EventsResponse is the validated calendar payload. Raw carries the exact
// bytes returned by the API for bronze staging.
type EventsResponse struct {
	Calendar domain.EventCalendar
	Raw      json.RawMessage
}

// FetchEvents returns the event calendar.
func (c *Client) FetchEvents(ctx context.Context) (EventsResponse, error) {
	raw, err := c.post(ctx, "/events", map[string]any{"allyCode": c.allyCode})
	if err != nil {
		return EventsResponse{}, err
	}
	if err := requireKeys(raw, "events"); err != nil {
		return EventsResponse{}, fmt.Errorf("events response: %w", err)
	}

	cal, err := domain.DecodeCalendar(raw)
	if err != nil {
		return EventsResponse{}, err
	}
	return EventsResponse{Calendar: cal, Raw: raw}, nil
}

// Contribution is one entry of a member's contribution list.
type Contribution struct {
	Type          string           `json:"type"`
	CurrentValue  domain.FlexInt64 `json:"currentValue"`
	LifetimeValue domain.FlexInt64 `json:"lifetimeValue"`
}

// GuildMember is the roster entry the guild endpoint returns per member.
type GuildMember struct {
	PlayerID           string           `json:"playerId"`
	PlayerName         string           `json:"playerName"`
	MemberLevel        string           `json:"memberLevel"`
	GuildJoinTime      domain.FlexInt64 `json:"guildJoinTime"`
	MemberContribution []Contribution   `json:"memberContribution"`
}

// GuildResponse is the validated guild payload.
type GuildResponse struct {
	Members []GuildMember
	Raw     json.RawMessage
}

// FetchGuild returns the guild roster with per-member contribution lists.
func (c *Client) FetchGuild(ctx context.Context, guildID string) (GuildResponse, error) {
	raw, err := c.post(ctx, "/guild", map[string]any{"guildId": guildID})
	if err != nil {
		return GuildResponse{}, err
	}
	if err := requireKeys(raw, "member"); err != nil {
		return GuildResponse{}, fmt.Errorf("guild response: %w", err)
	}

	var body struct {
		Member []GuildMember `json:"member"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return GuildResponse{}, fmt.Errorf("decode guild: %w", err)
	}
	return GuildResponse{Members: body.Member, Raw: raw}, nil
}

// FetchPlayer returns one player's payload. The schema is externally owned;
// only object-ness is enforced here.
func (c *Client) FetchPlayer(ctx context.Context, playerID string) (json.RawMessage, error) {
	return c.post(ctx, "/player", map[string]any{"playerId": playerID})
}

// LeaderboardResponse is the validated leaderboard payload for one kind.
// Raw is the payload to stage: for the war kind the whole response, for the
// battle kind the contents of the status envelope.
type LeaderboardResponse struct {
	Kind       string
	InstanceID string
	Raw        json.RawMessage
}

// FetchLeaderboard returns the leaderboard for a timed event kind.
func (c *Client) FetchLeaderboard(ctx context.Context, kind string) (LeaderboardResponse, error) {
	switch kind {
	case domain.LeaderboardKindWar:
		return c.fetchWarLeaderboard(ctx)
	case domain.LeaderboardKindBattle:
		return c.fetchBattleLeaderboard(ctx)
	default:
		return LeaderboardResponse{}, fmt.Errorf("unknown leaderboard kind %q", kind)
	}
}

func (c *Client) fetchWarLeaderboard(ctx context.Context) (LeaderboardResponse, error) {
	raw, err := c.post(ctx, "/twleaderboard", map[string]any{"allyCode": c.allyCode})
	if err != nil {
		return LeaderboardResponse{}, err
	}
	if err := requireKeys(raw, "territoryMapId"); err != nil {
		return LeaderboardResponse{}, fmt.Errorf("war leaderboard response: %w", err)
	}

	var body struct {
		TerritoryMapID string `json:"territoryMapId"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return LeaderboardResponse{}, fmt.Errorf("decode war leaderboard: %w", err)
	}
	return LeaderboardResponse{
		Kind:       domain.LeaderboardKindWar,
		InstanceID: body.TerritoryMapID,
		Raw:        raw,
	}, nil
}

func (c *Client) fetchBattleLeaderboard(ctx context.Context) (LeaderboardResponse, error) {
	raw, err := c.post(ctx, "/tbleaderboard", map[string]any{"allyCode": c.allyCode})
	if err != nil {
		return LeaderboardResponse{}, err
	}
	if err := requireKeys(raw, "territoryBattleStatus"); err != nil {
		return LeaderboardResponse{}, fmt.Errorf("battle leaderboard response: %w", err)
	}

	var body struct {
		Status json.RawMessage `json:"territoryBattleStatus"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return LeaderboardResponse{}, fmt.Errorf("decode battle leaderboard: %w", err)
	}

	var status struct {
		InstanceID string `json:"instanceId"`
	}
	if err := json.Unmarshal(body.Status, &status); err != nil {
		return LeaderboardResponse{}, fmt.Errorf("decode battle status: %w", err)
	}
	return LeaderboardResponse{
		Kind:       domain.LeaderboardKindBattle,
		InstanceID: status.InstanceID,
		Raw:        body.Status,
	}, nil
}

// post performs one API call and applies the shared validation contract:
// HTTP 200, JSON object body, and code==0 when a code field is present.
func (c *Client) post(ctx context.Context, path string, payload map[string]any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", path, resp.StatusCode)
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("%s response is not a JSON object: %w", path, err)
	}

	if codeRaw, ok := probe["code"]; ok {
		var code int
		if err := json.Unmarshal(codeRaw, &code); err == nil && code != 0 {
			var message string
			if msgRaw, ok := probe["message"]; ok {
				_ = json.Unmarshal(msgRaw, &message)
			}
			return nil, &APIError{Code: code, Message: message}
		}
	}

	return raw, nil
}

// requireKeys enforces presence of the endpoint-specific required top-level
// keys; missing keys are rejected, never guessed at.
func requireKeys(raw json.RawMessage, keys ...string) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return fmt.Errorf("not a JSON object: %w", err)
	}
	for _, key := range keys {
		if _, ok := probe[key]; !ok {
			return fmt.Errorf("missing required key %q", key)
		}
	}
	return nil
}
