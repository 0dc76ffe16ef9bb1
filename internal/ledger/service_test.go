package ledger

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapWriteError(t *testing.T) {
	if got := mapWriteError(nil); got != nil {
		t.Errorf("nil should pass through, got %v", got)
	}

	unique := &pgconn.PgError{Code: "23505", ConstraintName: "linked_accounts_username_idx"}
	if got := mapWriteError(unique); !errors.Is(got, ErrUsernameTaken) {
		t.Errorf("unique violation = %v, want ErrUsernameTaken", got)
	}
	wrapped := fmt.Errorf("exec insert: %w", unique)
	if got := mapWriteError(wrapped); !errors.Is(got, ErrUsernameTaken) {
		t.Errorf("wrapped unique violation = %v, want ErrUsernameTaken", got)
	}

	other := &pgconn.PgError{Code: "23502"}
	if got := mapWriteError(other); !errors.Is(got, other) {
		t.Errorf("non-unique pg error must pass through, got %v", got)
	}
}
