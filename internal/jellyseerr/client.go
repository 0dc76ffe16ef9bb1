// Package jellyseerr is a minimal client for the Jellyseerr request-service API.
package jellyseerr

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
	"strconv"
	"strings"
	"time"

	"github.com/jellyrequest/jellyrequest/internal/upstream"
)

const serviceName = "jellyseerr"

// Client calls the Jellyseerr HTTP API using a static X-Api-Key.
type Client struct {
	baseURL string
	apiKey  string
	logger  *slog.Logger
	http    *http.Client
}

// NewClient builds a Jellyseerr client; baseURL and apiKey are required.
func NewClient(log *slog.Logger, baseURL, apiKey string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("jellyseerr: base url is required")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("jellyseerr: api key is required")
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

// ImportFromJellyfin imports the given Jellyfin account ids into Jellyseerr
// and returns the created users.
func (c *Client) ImportFromJellyfin(ctx context.Context, jellyfinIDs []string) ([]User, error) {
	var users []User
	err := c.do(ctx, http.MethodPost, "/api/v1/user/import-from-jellyfin",
		importRequest{JellyfinUserIDs: jellyfinIDs}, &users)
	if err != nil {
		return nil, err
	}
	return users, nil
}

// ListUsers returns up to take users from the directory.
func (c *Client) ListUsers(ctx context.Context, take int) ([]User, error) {
	var resp userListResponse
	path := "/api/v1/user?take=" + strconv.Itoa(take)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// DeleteUser removes a Jellyseerr account by id.
func (c *Client) DeleteUser(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/user/"+strconv.Itoa(id), nil, nil)
}

// CreateRequest submits a media request on behalf of a user. TV requests ask
// for all seasons.
func (c *Client) CreateRequest(ctx context.Context, mediaType string, mediaID, userID int) error {
	payload := createRequestPayload{
		MediaType: mediaType,
		MediaID:   mediaID,
		UserID:    userID,
	}
	if mediaType == "tv" {
		payload.Seasons = "all"
	}
	return c.do(ctx, http.MethodPost, "/api/v1/request", payload, nil)
}

// GetMovie returns movie details by TMDB id.
func (c *Client) GetMovie(ctx context.Context, tmdbID int) (MediaResult, error) {
	return c.getMedia(ctx, "movie", tmdbID)
}

// GetTV returns TV show details by TMDB id.
func (c *Client) GetTV(ctx context.Context, tmdbID int) (MediaResult, error) {
	return c.getMedia(ctx, "tv", tmdbID)
}

// getMedia looks up one item. Direct lookups report mediaType "unknown", so
// the requested type is stamped back onto the result.
func (c *Client) getMedia(ctx context.Context, mediaType string, tmdbID int) (MediaResult, error) {
	var result MediaResult
	path := "/api/v1/" + mediaType + "/" + strconv.Itoa(tmdbID)
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return MediaResult{}, err
	}
	if result.MediaType == "" || result.MediaType == "unknown" {
		result.MediaType = mediaType
	}
	return result, nil
}

// Search runs a full-text search across movies, TV, and people.
func (c *Client) Search(ctx context.Context, query string) ([]MediaResult, error) {
	var resp mediaListResponse
	path := "/api/v1/search?" + url.Values{"query": {query}}.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// DiscoverMovies returns the popular-movies discovery feed.
func (c *Client) DiscoverMovies(ctx context.Context) ([]MediaResult, error) {
	return c.discover(ctx, "movies")
}

// DiscoverTV returns the popular-TV discovery feed.
func (c *Client) DiscoverTV(ctx context.Context) ([]MediaResult, error) {
	return c.discover(ctx, "tv")
}

func (c *Client) discover(ctx context.Context, kind string) ([]MediaResult, error) {
	var resp mediaListResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/discover/"+kind, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// ListRequests returns up to take requests made by the given user, newest
// ordering left to the caller.
func (c *Client) ListRequests(ctx context.Context, requestedBy, take, skip int) ([]Request, error) {
	query := url.Values{}
	query.Set("take", strconv.Itoa(take))
	query.Set("skip", strconv.Itoa(skip))
	query.Set("sort", "added")
	query.Set("filter", "all")
	query.Set("requestedBy", strconv.Itoa(requestedBy))

	var resp requestListResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/request?"+query.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
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
	req.Header.Set("X-Api-Key", c.apiKey)
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
		return fmt.Errorf("jellyseerr: decode %s %s: %w", method, path, err)
	}
	return nil
}
