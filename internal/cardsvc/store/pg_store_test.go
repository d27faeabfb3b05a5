package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	carddb "github.com/avvvet/qrcard-services/internal/cardsvc/db"
	"github.com/stretchr/testify/require"
)

// Skips unless POSTGRES_TEST_URL is set.
func TestPGStoreContract(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_URL")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_URL not set; skipping postgres integration test")
	}

	pool, err := carddb.Connect(dsn)
	require.NoError(t, err)
	require.NoError(t, carddb.Migrate(context.Background(), pool))

	prefix := fmt.Sprintf("t%d-", time.Now().UnixNano())
	s := NewPGStore(pool)
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM cards WHERE code LIKE $1`, prefix+"%")
		_ = s.Close(context.Background())
	})

	runCardStoreContract(t, s, prefix)
}
