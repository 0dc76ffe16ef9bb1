package jellyseerr

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jellyrequest/jellyrequest/internal/upstream"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient(slog.Default(), server.URL, "seerr-key", time.Second)
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func TestImportFromJellyfin(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/user/import-from-jellyfin" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("X-Api-Key") != "seerr-key" {
			t.Error("missing api key header")
		}
		var payload importRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatal(err)
		}
		if len(payload.JellyfinUserIDs) != 1 || payload.JellyfinUserIDs[0] != "jf-1" {
			t.Errorf("payload = %+v", payload)
		}
		_ = json.NewEncoder(w).Encode([]User{{ID: 7, JellyfinUserID: "jf-1", Username: "alice"}})
	}))

	users, err := client.ImportFromJellyfin(context.Background(), []string{"jf-1"})
	if err != nil {
		t.Fatalf("ImportFromJellyfin: %v", err)
	}
	if len(users) != 1 || users[0].ID != 7 {
		t.Errorf("users = %+v", users)
	}
}

func TestGetMovieStampsMediaType(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/movie/550" {
			t.Errorf("path = %s", r.URL.Path)
		}
		// Direct lookups report mediaType "unknown".
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":        550,
			"mediaType": "unknown",
			"title":     "Fight Club",
		})
	}))

	result, err := client.GetMovie(context.Background(), 550)
	if err != nil {
		t.Fatalf("GetMovie: %v", err)
	}
	if result.MediaType != "movie" {
		t.Errorf("mediaType = %q, want movie", result.MediaType)
	}
}

func TestCreateRequestTVRequestsAllSeasons(t *testing.T) {
	var payload createRequestPayload
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload = createRequestPayload{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatal(err)
		}
		w.WriteHeader(http.StatusCreated)
	}))

	if err := client.CreateRequest(context.Background(), "tv", 1399, 7); err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	if payload.Seasons != "all" {
		t.Errorf("seasons = %q, want all", payload.Seasons)
	}

	if err := client.CreateRequest(context.Background(), "movie", 550, 7); err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	if payload.Seasons != "" {
		t.Errorf("movie requests must not set seasons, got %q", payload.Seasons)
	}
}

func TestDeleteUserNotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	err := client.DeleteUser(context.Background(), 404)
	if !upstream.IsNotFound(err) {
		t.Fatalf("expected 404 HTTPError, got %v", err)
	}
}

func TestListRequestsQuery(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("requestedBy") != "7" || q.Get("take") != "100" || q.Get("filter") != "all" {
			t.Errorf("query = %v", q)
		}
		_ = json.NewEncoder(w).Encode(requestListResponse{Results: []Request{{ID: 1, Status: StatusAvailable}}})
	}))

	requests, err := client.ListRequests(context.Background(), 7, 100, 0)
	if err != nil {
		t.Fatalf("ListRequests: %v", err)
	}
	if len(requests) != 1 || requests[0].Status != StatusAvailable {
		t.Errorf("requests = %+v", requests)
	}
}
