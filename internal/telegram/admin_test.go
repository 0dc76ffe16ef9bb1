package telegram

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/jellyrequest/jellyrequest/internal/jellyfin"
	"github.com/jellyrequest/jellyrequest/internal/jellyseerr"
	"github.com/jellyrequest/jellyrequest/internal/ledger"
	"github.com/jellyrequest/jellyrequest/internal/provision"
)

type fakeMediaDir struct {
	users   []jellyfin.User
	listErr error
	calls   int
}

func (f *fakeMediaDir) ListUsers(ctx context.Context) ([]jellyfin.User, error) {
	f.calls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.users, nil
}

func (f *fakeMediaDir) CreateUser(ctx context.Context, name, password string) (jellyfin.User, error) {
	return jellyfin.User{}, errors.New("not implemented")
}

func (f *fakeMediaDir) DeleteUser(ctx context.Context, id string) error {
	return errors.New("not implemented")
}

type fakeSeerrDir struct {
	users   []jellyseerr.User
	listErr error
}

func (f *fakeSeerrDir) ListUsers(ctx context.Context, take int) ([]jellyseerr.User, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.users, nil
}

func (f *fakeSeerrDir) ImportFromJellyfin(ctx context.Context, jellyfinIDs []string) ([]jellyseerr.User, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeSeerrDir) DeleteUser(ctx context.Context, id int) error {
	return errors.New("not implemented")
}

type fakeStore struct {
	accounts map[string]ledger.LinkedAccount
}

func newFakeStore(accounts ...ledger.LinkedAccount) *fakeStore {
	f := &fakeStore{accounts: make(map[string]ledger.LinkedAccount)}
	for _, account := range accounts {
		f.accounts[account.TelegramID] = account
	}
	return f
}

func (f *fakeStore) Get(ctx context.Context, telegramID string) (ledger.LinkedAccount, error) {
	account, ok := f.accounts[telegramID]
	if !ok {
		return ledger.LinkedAccount{}, ledger.ErrNotFound
	}
	return account, nil
}

func (f *fakeStore) GetByUsername(ctx context.Context, username string) (ledger.LinkedAccount, error) {
	for _, account := range f.accounts {
		if account.Username == username {
			return account, nil
		}
	}
	return ledger.LinkedAccount{}, ledger.ErrNotFound
}

func (f *fakeStore) Upsert(ctx context.Context, account ledger.LinkedAccount) error {
	f.accounts[account.TelegramID] = account
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, telegramID string) error {
	delete(f.accounts, telegramID)
	return nil
}

func newDeletionBot(media *fakeMediaDir, requests *fakeSeerrDir, store Store) *Bot {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &Bot{
		store:    store,
		resolver: provision.NewResolver(log, media, requests),
		logger:   log,
	}
}

func TestResolveDeletionTargetPrefersLedger(t *testing.T) {
	media := &fakeMediaDir{}
	store := newFakeStore(ledger.LinkedAccount{
		TelegramID:   "42",
		JellyfinID:   "jf-1",
		JellyseerrID: "7",
		Username:     "alice",
	})
	b := newDeletionBot(media, &fakeSeerrDir{}, store)

	target, err := b.resolveDeletionTarget(context.Background(), "alice")
	if err != nil {
		t.Fatalf("resolveDeletionTarget: %v", err)
	}
	want := provision.Target{TelegramID: "42", JellyfinID: "jf-1", JellyseerrID: "7"}
	if target != want {
		t.Errorf("target = %+v, want %+v", target, want)
	}
	if media.calls != 0 {
		t.Error("ledger hit must not scan the Jellyfin directory")
	}
}

func TestResolveDeletionTargetFallsBackToResolver(t *testing.T) {
	media := &fakeMediaDir{users: []jellyfin.User{{ID: "jf-9", Name: "Bob"}}}
	requests := &fakeSeerrDir{users: []jellyseerr.User{
		{ID: 12, Username: "Bob", JellyfinUserID: "jf-9"},
	}}
	b := newDeletionBot(media, requests, newFakeStore())

	target, err := b.resolveDeletionTarget(context.Background(), "bob")
	if err != nil {
		t.Fatalf("resolveDeletionTarget: %v", err)
	}
	want := provision.Target{JellyfinID: "jf-9", JellyseerrID: "12"}
	if target != want {
		t.Errorf("target = %+v, want %+v", target, want)
	}
	if target.TelegramID != "" {
		t.Error("unlinked user must not carry a Telegram id")
	}
}

func TestResolveDeletionTargetToleratesMissingCounterpart(t *testing.T) {
	media := &fakeMediaDir{users: []jellyfin.User{{ID: "jf-9", Name: "Bob"}}}
	b := newDeletionBot(media, &fakeSeerrDir{}, newFakeStore())

	target, err := b.resolveDeletionTarget(context.Background(), "Bob")
	if err != nil {
		t.Fatalf("resolveDeletionTarget: %v", err)
	}
	if target.JellyfinID != "jf-9" {
		t.Errorf("JellyfinID = %q, want jf-9", target.JellyfinID)
	}
	if target.JellyseerrID != "" {
		t.Errorf("JellyseerrID = %q, want empty for a missing counterpart", target.JellyseerrID)
	}
}

func TestResolveDeletionTargetUnknownUser(t *testing.T) {
	b := newDeletionBot(&fakeMediaDir{}, &fakeSeerrDir{}, newFakeStore())

	_, err := b.resolveDeletionTarget(context.Background(), "ghost")
	if !errors.Is(err, provision.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestResolveDeletionTargetResolverFailure(t *testing.T) {
	listErr := errors.New("media server down")
	b := newDeletionBot(&fakeMediaDir{listErr: listErr}, &fakeSeerrDir{}, newFakeStore())

	_, err := b.resolveDeletionTarget(context.Background(), "alice")
	if err == nil || errors.Is(err, provision.ErrNotFound) {
		t.Errorf("err = %v, want a hard failure", err)
	}
}

func TestResolveDeletionTargetCounterpartScanFailure(t *testing.T) {
	media := &fakeMediaDir{users: []jellyfin.User{{ID: "jf-9", Name: "Bob"}}}
	requests := &fakeSeerrDir{listErr: errors.New("request service down")}
	b := newDeletionBot(media, requests, newFakeStore())

	_, err := b.resolveDeletionTarget(context.Background(), "Bob")
	if err == nil || errors.Is(err, provision.ErrNotFound) {
		t.Errorf("err = %v, want a hard failure", err)
	}
}
