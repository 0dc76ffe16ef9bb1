package jellyfin

import (
	"context"
	"encoding/json"
	"errors"
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
	client, err := NewClient(slog.Default(), server.URL, "test-key", time.Second)
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func TestCreateUserSendsRestrictivePolicy(t *testing.T) {
	var got createUserRequest
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/Users/New" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-Emby-Token") != "test-key" {
			t.Error("missing auth header")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
		_ = json.NewEncoder(w).Encode(User{ID: "jf-1", Name: got.Name})
	}))

	user, err := client.CreateUser(context.Background(), "alice", "hunter2-long")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.ID != "jf-1" {
		t.Errorf("id = %q", user.ID)
	}
	if got.Policy.IsAdministrator {
		t.Error("new accounts must not be admins")
	}
	if !got.Policy.EnableMediaPlayback {
		t.Error("playback must be enabled")
	}
	if got.Policy.EnableLiveTvAccess || got.Policy.EnableLiveTvManagement {
		t.Error("live TV must be disabled")
	}
}

func TestAuthenticateByNameUnauthorized(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := client.AuthenticateByName(context.Background(), "alice", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestDeleteUserHTTPError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such user", http.StatusNotFound)
	}))

	err := client.DeleteUser(context.Background(), "jf-404")
	var httpErr *upstream.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.Status != http.StatusNotFound || httpErr.Body != "no such user" {
		t.Errorf("HTTPError = %+v", httpErr)
	}
}

func TestListUsersNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	client, err := NewClient(slog.Default(), server.URL, "k", time.Second)
	if err != nil {
		t.Fatal(err)
	}
	server.Close()

	_, err = client.ListUsers(context.Background())
	var netErr *upstream.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}
