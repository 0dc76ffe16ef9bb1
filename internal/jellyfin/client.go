// Package jellyfin is a minimal client for the Jellyfin user management API.
package jellyfin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jellyrequest/jellyrequest/internal/upstream"
)

const serviceName = "jellyfin"

// ErrInvalidCredentials is returned by AuthenticateByName when Jellyfin
// rejects the username/password pair.
var ErrInvalidCredentials = errors.New("jellyfin: invalid username or password")

// Client calls the Jellyfin HTTP API using a static X-Emby-Token.
type Client struct {
	baseURL string
	apiKey  string
	logger  *slog.Logger
	http    *http.Client
}

// NewClient builds a Jellyfin client; baseURL and apiKey are required.
func NewClient(log *slog.Logger, baseURL, apiKey string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("jellyfin: base url is required")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("jellyfin: api key is required")
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		logger:  log.With(slog.String("client", serviceName)),
		http: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// BaseURL returns the configured server URL for display in user messages.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListUsers returns every account on the server.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.do(ctx, http.MethodGet, "/Users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CreateUser creates an account with the restrictive default policy:
// non-admin, playback enabled, live TV disabled.
func (c *Client) CreateUser(ctx context.Context, name, password string) (User, error) {
	payload := createUserRequest{
		Name:     name,
		Password: password,
		Policy: Policy{
			IsAdministrator:            false,
			EnableUserPreferenceAccess: true,
			EnableMediaPlayback:        true,
			EnableLiveTvAccess:         false,
			EnableLiveTvManagement:     false,
		},
	}
	var user User
	if err := c.do(ctx, http.MethodPost, "/Users/New", payload, &user); err != nil {
		return User{}, err
	}
	if user.ID == "" {
		return User{}, errors.New("jellyfin: create user returned no id")
	}
	return user, nil
}

// AuthenticateByName verifies a username/password pair and returns the
// matching account. A 401 maps to ErrInvalidCredentials.
func (c *Client) AuthenticateByName(ctx context.Context, username, password string) (User, error) {
	payload := authenticateRequest{Username: username, Password: password}
	var resp authenticateResponse
	if err := c.do(ctx, http.MethodPost, "/Users/AuthenticateByName", payload, &resp); err != nil {
		if upstream.IsStatus(err, http.StatusUnauthorized) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if resp.User.ID == "" {
		return User{}, errors.New("jellyfin: authenticate returned no user id")
	}
	return resp.User, nil
}

// DeleteUser removes an account by id.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/Users/"+url.PathEscape(id), nil, nil)
}

// ListPlayedItems returns all played movies and episodes for a user,
// including runtime and last-played data for watch statistics.
func (c *Client) ListPlayedItems(ctx context.Context, userID string) ([]Item, error) {
	query := url.Values{}
	query.Set("Recursive", "true")
	query.Set("IncludeItemTypes", "Movie,Episode")
	query.Set("Filters", "IsPlayed")
	query.Set("Fields", "RunTimeTicks,UserData,SeriesName")

	var resp itemsResponse
	path := "/Users/" + url.PathEscape(userID) + "/Items?" + query.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("X-Emby-Token", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &upstream.NetworkError{Service: serviceName, Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("close response body failed", slog.Any("error", err))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return &upstream.HTTPError{
			Service: serviceName,
			Status:  resp.StatusCode,
			Body:    strings.TrimSpace(string(raw)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("jellyfin: decode %s %s: %w", method, path, err)
	}
	return nil
}
