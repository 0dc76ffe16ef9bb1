package upstream

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsStatus(t *testing.T) {
	err := &HTTPError{Service: "jellyseerr", Status: 404, Body: "no such user"}
	if !IsStatus(err, 404) {
		t.Error("IsStatus should match a direct HTTPError")
	}
	if !IsNotFound(fmt.Errorf("delete user: %w", err)) {
		t.Error("IsNotFound should match through wrapping")
	}
	if IsStatus(err, 500) {
		t.Error("IsStatus must not match a different code")
	}
	if IsNotFound(errors.New("plain")) {
		t.Error("IsNotFound must not match non-HTTP errors")
	}
}

func TestNetworkErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &NetworkError{Service: "jellyfin", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("NetworkError should unwrap to its cause")
	}
}
