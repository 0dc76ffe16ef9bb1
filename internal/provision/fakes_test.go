package provision

import (
	"context"
	"errors"
	"strings"

	"github.com/jellyrequest/jellyrequest/internal/jellyfin"
	"github.com/jellyrequest/jellyrequest/internal/jellyseerr"
	"github.com/jellyrequest/jellyrequest/internal/ledger"
)

type fakeMedia struct {
	users     []jellyfin.User
	nextID    string
	listErr   error
	createErr error
	deleteErr error
	created   []string
	deleted   []string
}

func (f *fakeMedia) ListUsers(ctx context.Context) ([]jellyfin.User, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.users, nil
}

func (f *fakeMedia) CreateUser(ctx context.Context, name, password string) (jellyfin.User, error) {
	if f.createErr != nil {
		return jellyfin.User{}, f.createErr
	}
	f.created = append(f.created, name)
	user := jellyfin.User{ID: f.nextID, Name: name}
	f.users = append(f.users, user)
	return user, nil
}

func (f *fakeMedia) DeleteUser(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	for i, user := range f.users {
		if user.ID == id {
			f.users = append(f.users[:i], f.users[i+1:]...)
			break
		}
	}
	return nil
}

type fakeRequests struct {
	users     []jellyseerr.User
	importErr error
	listErr   error
	deleteErr error
	imported  [][]string
	deleted   []int
}

func (f *fakeRequests) ImportFromJellyfin(ctx context.Context, jellyfinIDs []string) ([]jellyseerr.User, error) {
	f.imported = append(f.imported, jellyfinIDs)
	if f.importErr != nil {
		return nil, f.importErr
	}
	var out []jellyseerr.User
	for _, id := range jellyfinIDs {
		for _, user := range f.users {
			if user.JellyfinUserID == id {
				out = append(out, user)
			}
		}
	}
	return out, nil
}

func (f *fakeRequests) ListUsers(ctx context.Context, take int) ([]jellyseerr.User, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.users, nil
}

func (f *fakeRequests) DeleteUser(ctx context.Context, id int) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeLedger struct {
	accounts  map[string]ledger.LinkedAccount
	upsertErr error
	deleteErr error
	deleted   []string
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{accounts: make(map[string]ledger.LinkedAccount)}
}

func (f *fakeLedger) Get(ctx context.Context, telegramID string) (ledger.LinkedAccount, error) {
	account, ok := f.accounts[telegramID]
	if !ok {
		return ledger.LinkedAccount{}, ledger.ErrNotFound
	}
	return account, nil
}

func (f *fakeLedger) GetByUsername(ctx context.Context, username string) (ledger.LinkedAccount, error) {
	for _, account := range f.accounts {
		if strings.EqualFold(account.Username, username) {
			return account, nil
		}
	}
	return ledger.LinkedAccount{}, ledger.ErrNotFound
}

func (f *fakeLedger) Upsert(ctx context.Context, account ledger.LinkedAccount) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.accounts[account.TelegramID] = account
	return nil
}

func (f *fakeLedger) Delete(ctx context.Context, telegramID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, telegramID)
	delete(f.accounts, telegramID)
	return nil
}

type fakeNotifier struct {
	sendErr  error
	messages []string
}

func (f *fakeNotifier) SendDirectMessage(ctx context.Context, chatID, text string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.messages = append(f.messages, text)
	return nil
}

var errUpstreamDown = errors.New("upstream down")
