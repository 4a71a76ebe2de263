package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wricardo/hexstones/game/engine"
	"github.com/wricardo/hexstones/game/hexmath"
	"github.com/wricardo/hexstones/game/service"
)

// Client talks to the REST API on behalf of one session.
type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// do sends a request and decodes the response. Refused actions come back as
// 409 with an action result body, which is decoded like a success.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusConflict {
		return fmt.Errorf("%s %s failed: %s - %s", method, path, resp.Status, bytes.TrimSpace(data))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s response: %w", path, err)
	}
	return nil
}

// UseSession points the client at an existing session.
func (c *Client) UseSession(id string) {
	c.sessionID = id
}

func (c *Client) GetSession(ctx context.Context) (*service.SessionInfo, error) {
	var session service.SessionInfo
	if err := c.do(ctx, http.MethodGet, c.sessionPath(""), nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) sessionPath(suffix string) string {
	return "/api/sessions/" + c.sessionID + suffix
}

func (c *Client) CreateSession(ctx context.Context, configID string) (*service.SessionInfo, error) {
	var req map[string]string
	if configID != "" {
		req = map[string]string{"config_id": configID}
	}
	var session service.SessionInfo
	if err := c.do(ctx, http.MethodPost, "/api/sessions", req, &session); err != nil {
		return nil, err
	}
	c.sessionID = session.ID
	return &session, nil
}

func (c *Client) GetState(ctx context.Context) (*engine.GameState, error) {
	var state engine.GameState
	if err := c.do(ctx, http.MethodGet, c.sessionPath("/state"), nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *Client) Movable(ctx context.Context) ([]engine.MovableHex, error) {
	var resp struct {
		MovableHexes []engine.MovableHex `json:"movable_hexes"`
	}
	if err := c.do(ctx, http.MethodGet, c.sessionPath("/movable"), nil, &resp); err != nil {
		return nil, err
	}
	return resp.MovableHexes, nil
}

func (c *Client) Move(ctx context.Context, to hexmath.Coord) (*service.ActionResult, error) {
	var result service.ActionResult
	err := c.do(ctx, http.MethodPost, c.sessionPath("/move"), map[string]int{"q": to.Q, "r": to.R}, &result)
	return &result, err
}

func (c *Client) EndTurn(ctx context.Context) (*service.ActionResult, error) {
	var result service.ActionResult
	err := c.do(ctx, http.MethodPost, c.sessionPath("/end-turn"), nil, &result)
	return &result, err
}

func (c *Client) Reset(ctx context.Context) (*engine.GameState, error) {
	var resp struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/reset"), nil, &resp); err != nil {
		return nil, err
	}
	return resp.State, nil
}
