// Package dremio talks SQL-over-REST to the Dremio data lake that hosts the
// EEA Waterbase tables.
package dremio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/eea-wise/waterdata-api/internal/observability"
)

// ErrUnavailable marks failures of the data lake itself: connection errors,
// timeouts, auth expiry that re-login could not fix, 5xx responses.
var ErrUnavailable = errors.New("dremio unavailable")

type Config struct {
	Server     string
	AuthServer string
	Username   string
	Password   string
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger

	mu    sync.Mutex
	token string
}

func New(cfg Config, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	if cfg.Username == "" || cfg.Password == "" {
		return nil, errors.New("dremio username and password are required")
	}
	if cfg.Server == "" {
		return nil, errors.New("dremio server URL is required")
	}
	if cfg.AuthServer == "" {
		cfg.AuthServer = cfg.Server
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{cfg: cfg, http: httpClient, logger: logger}, nil
}

type loginRequest struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (c *Client) login(ctx context.Context) (string, error) {
	body, err := json.Marshal(loginRequest{UserName: c.cfg.Username, Password: c.cfg.Password})
	if err != nil {
		return "", fmt.Errorf("marshal login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AuthServer+"/apiv2/login", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: login: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: login status %d", ErrUnavailable, resp.StatusCode)
	}

	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return "", fmt.Errorf("%w: decode login response: %v", ErrUnavailable, err)
	}
	if lr.Token == "" {
		return "", fmt.Errorf("%w: no token in login response", ErrUnavailable)
	}
	return lr.Token, nil
}

func (c *Client) authToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" {
		return c.token, nil
	}
	tok, err := c.login(ctx)
	if err != nil {
		return "", err
	}
	c.token = tok
	if c.logger != nil {
		c.logger.Info("dremio authenticated", "server", c.cfg.AuthServer)
	}
	return tok, nil
}

func (c *Client) dropToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

type sqlRequest struct {
	SQL string `json:"sql"`
}

// Query executes SQL and returns flattened rows. An expired token is
// refreshed once before the failure is surfaced.
func (c *Client) Query(ctx context.Context, sql string) ([]map[string]any, error) {
	rows, err := c.query(ctx, sql)
	if err == nil {
		return rows, nil
	}

	var ae *authError
	if errors.As(err, &ae) {
		c.dropToken()
		return c.query(ctx, sql)
	}
	return nil, err
}

type authError struct{ status int }

func (e *authError) Error() string { return fmt.Sprintf("dremio auth rejected (status %d)", e.status) }

func (c *Client) query(ctx context.Context, sql string) ([]map[string]any, error) {
	tok, err := c.authToken(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(sqlRequest{SQL: sql})
	if err != nil {
		return nil, fmt.Errorf("marshal sql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Server+"/apiv2/sql", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build sql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "_dremio"+tok)

	start := time.Now()
	resp, err := c.http.Do(req)
	observability.ObserveUpstreamLatency("dremio", err, time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &authError{status: resp.StatusCode}
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: query status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		msg := readErrorMessage(resp.Body)
		return nil, fmt.Errorf("dremio query status %d: %s", resp.StatusCode, msg)
	}

	var qr queryResult
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		return nil, fmt.Errorf("%w: decode query response: %v", ErrUnavailable, err)
	}
	return qr.flatten(), nil
}

// Ping verifies the lake answers trivial SQL, for readiness probes.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Query(ctx, "SELECT 1")
	return err
}

func readErrorMessage(r io.Reader) string {
	var e struct {
		ErrorMessage string `json:"errorMessage"`
	}
	raw, _ := io.ReadAll(io.LimitReader(r, 4096))
	if json.Unmarshal(raw, &e) == nil && e.ErrorMessage != "" {
		return e.ErrorMessage
	}
	return string(raw)
}
