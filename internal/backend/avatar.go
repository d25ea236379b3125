// ABOUTME: Avatar worker endpoints: start, list, and disconnect
// ABOUTME: StartAvatar reports whether the worker was cold-started

package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
)

// StartResult is the response from the avatar start endpoint.
type StartResult struct {
	IsNewInstance bool `json:"is_new_instance"`
}

// StartAvatar asks the backend to ensure the worker for the named avatar is
// running. IsNewInstance reports a cold start, which callers should give a
// settle delay before negotiating against.
func (c *Client) StartAvatar(ctx context.Context, name string) (*StartResult, error) {
	form := url.Values{"avatar_name": {name}}
	req, err := c.newRequest(ctx, http.MethodPost, "/api/avatar/start",
		"application/x-www-form-urlencoded", []byte(form.Encode()))
	if err != nil {
		return nil, err
	}

	var result StartResult
	if err := c.do(req, &result); err != nil {
		return nil, err
	}

	c.logger.Debug("avatar worker ready", "avatar", name, "cold_start", result.IsNewInstance)
	return &result, nil
}

// Avatar describes one avatar the backend can serve.
type Avatar struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// ListAvatars fetches the avatars available to the current user. The
// backend has shipped both an object keyed by name and a plain array for
// this endpoint, so both shapes are accepted.
func (c *Client) ListAvatars(ctx context.Context) ([]Avatar, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/avatar/get_avatars", "", nil)
	if err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if err := c.do(req, &raw); err != nil {
		return nil, err
	}
	return parseAvatarList(raw)
}

func parseAvatarList(raw json.RawMessage) ([]Avatar, error) {
	var byName map[string]Avatar
	if err := json.Unmarshal(raw, &byName); err == nil {
		avatars := make([]Avatar, 0, len(byName))
		for name, a := range byName {
			a.Name = name
			avatars = append(avatars, a)
		}
		sort.Slice(avatars, func(i, j int) bool { return avatars[i].Name < avatars[j].Name })
		return avatars, nil
	}

	var list []Avatar
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Disconnect notifies the backend that this viewer is leaving the channel.
// Best effort: teardown proceeds regardless of the outcome.
func (c *Client) Disconnect(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/avatar/disconnect", "", nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}
