package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/jellyrequest/jellyrequest/internal/ledger"
	"github.com/jellyrequest/jellyrequest/internal/provision"
)

type fakeAccountStore struct {
	accounts map[string]ledger.LinkedAccount
}

func (f *fakeAccountStore) Get(ctx context.Context, telegramID string) (ledger.LinkedAccount, error) {
	account, ok := f.accounts[telegramID]
	if !ok {
		return ledger.LinkedAccount{}, ledger.ErrNotFound
	}
	return account, nil
}

func (f *fakeAccountStore) ListAll(ctx context.Context) ([]ledger.LinkedAccount, error) {
	var out []ledger.LinkedAccount
	for _, account := range f.accounts {
		out = append(out, account)
	}
	return out, nil
}

type fakeDeprov struct {
	targets []provision.Target
	err     error
}

func (f *fakeDeprov) Deprovision(ctx context.Context, target provision.Target) (provision.DeprovisionResult, error) {
	if f.err != nil {
		return provision.DeprovisionResult{}, f.err
	}
	f.targets = append(f.targets, target)
	return provision.DeprovisionResult{JellyfinDeleted: true, JellyseerrDeleted: true}, nil
}

func newAccountsEcho(store *fakeAccountStore, deprov *fakeDeprov) *echo.Echo {
	e := echo.New()
	NewAccountsHandler(slog.Default(), store, deprov).Register(e)
	return e
}

func TestAccountsList(t *testing.T) {
	store := &fakeAccountStore{accounts: map[string]ledger.LinkedAccount{
		"1": {TelegramID: "1", Username: "alice", JellyfinID: "jf-1"},
	}}
	e := newAccountsEcho(store, &fakeDeprov{})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/accounts", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var accounts []ledger.LinkedAccount
	if err := json.Unmarshal(rec.Body.Bytes(), &accounts); err != nil {
		t.Fatal(err)
	}
	if len(accounts) != 1 || accounts[0].Username != "alice" {
		t.Errorf("accounts = %+v", accounts)
	}
}

func TestAccountsListEmpty(t *testing.T) {
	e := newAccountsEcho(&fakeAccountStore{accounts: map[string]ledger.LinkedAccount{}}, &fakeDeprov{})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/accounts", nil))

	if rec.Body.String() != "[]\n" {
		t.Errorf("body = %q, want empty array", rec.Body.String())
	}
}

func TestAccountsDelete(t *testing.T) {
	store := &fakeAccountStore{accounts: map[string]ledger.LinkedAccount{
		"1": {TelegramID: "1", JellyfinID: "jf-1", JellyseerrID: "10"},
	}}
	deprov := &fakeDeprov{}
	e := newAccountsEcho(store, deprov)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/accounts/1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if len(deprov.targets) != 1 || deprov.targets[0].JellyfinID != "jf-1" {
		t.Errorf("targets = %+v", deprov.targets)
	}
}

func TestAccountsDeleteNotFound(t *testing.T) {
	e := newAccountsEcho(&fakeAccountStore{accounts: map[string]ledger.LinkedAccount{}}, &fakeDeprov{})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/accounts/404", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestAccountsDeleteUpstreamFailure(t *testing.T) {
	store := &fakeAccountStore{accounts: map[string]ledger.LinkedAccount{
		"1": {TelegramID: "1", JellyfinID: "jf-1"},
	}}
	e := newAccountsEcho(store, &fakeDeprov{err: errors.New("jellyfin down")})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/accounts/1", nil))

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d", rec.Code)
	}
}
