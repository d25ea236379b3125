// ABOUTME: WebRTC signaling endpoints: offer submission and session registration
// ABOUTME: The sessionid rides in both the JSON body and a request header

package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Answer is the backend's reply to an offer: the remote description plus an
// optional backend session identifier used to route later requests to the
// right worker.
type Answer struct {
	SDP       string `json:"sdp"`
	Type      string `json:"type"`
	SessionID string `json:"sessionid,omitempty"`
}

// Offer submits the finalized local offer and returns the remote answer.
func (c *Client) Offer(ctx context.Context, sdp, typ string) (*Answer, error) {
	body, err := json.Marshal(map[string]string{"sdp": sdp, "type": typ})
	if err != nil {
		return nil, fmt.Errorf("encoding offer: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/webrtc/offer", "application/json", body)
	if err != nil {
		return nil, err
	}

	var answer Answer
	if err := c.do(req, &answer); err != nil {
		return nil, err
	}
	if answer.SDP == "" || answer.Type == "" {
		return nil, fmt.Errorf("/api/webrtc/offer: answer missing sdp or type")
	}
	return &answer, nil
}

// RegisterSession reports the backend-assigned session id so subsequent
// requests route to the worker that produced the answer. The id is carried
// in both the body and the sessionid header; the backend reads the header.
func (c *Client) RegisterSession(ctx context.Context, sessionID string) error {
	body, err := json.Marshal(map[string]string{"sessionid": sessionID})
	if err != nil {
		return fmt.Errorf("encoding session registration: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/sessionid", "application/json", body)
	if err != nil {
		return err
	}
	req.Header.Set("sessionid", sessionID)

	return c.do(req, nil)
}
