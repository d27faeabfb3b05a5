package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/avvvet/qrcard-services/internal/cardsvc/models"
	"github.com/stretchr/testify/require"
)

// runCardStoreContract checks the behavior every CardStore must share.
// prefix keeps codes apart when the backing store is shared with other runs.
func runCardStoreContract(t *testing.T, s CardStore, prefix string) {
	ctx := context.Background()

	t.Run("missing code", func(t *testing.T) {
		ok, err := s.Exists(ctx, prefix+"missing")
		require.NoError(t, err)
		require.False(t, ok)

		_, err = s.Get(ctx, prefix+"missing")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("put then get", func(t *testing.T) {
		card := models.Card{
			Code:      prefix + "ada",
			Name:      "Ada",
			Email:     "ada@x.com",
			Phone:     "123",
			Github:    "https://github.com/ada",
			CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		}
		require.NoError(t, s.Put(ctx, card))

		ok, err := s.Exists(ctx, card.Code)
		require.NoError(t, err)
		require.True(t, ok)

		got, err := s.Get(ctx, card.Code)
		require.NoError(t, err)
		require.Equal(t, card.Name, got.Name)
		require.Equal(t, card.Email, got.Email)
		require.Equal(t, card.Phone, got.Phone)
		require.Equal(t, card.Github, got.Github)
		require.Empty(t, got.Linkedin)
		require.True(t, card.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("duplicate put leaves first card", func(t *testing.T) {
		first := models.Card{Code: prefix + "mycard", Name: "First", Email: "first@x.com"}
		second := models.Card{Code: prefix + "mycard", Name: "Second", Email: "second@x.com"}

		require.NoError(t, s.Put(ctx, first))
		require.ErrorIs(t, s.Put(ctx, second), ErrAlreadyExists)

		got, err := s.Get(ctx, first.Code)
		require.NoError(t, err)
		require.Equal(t, "First", got.Name)
	})

	t.Run("concurrent puts are all kept", func(t *testing.T) {
		const n = 25
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs <- s.Put(ctx, models.Card{
					Code:  fmt.Sprintf("%sc%02d", prefix, i),
					Name:  fmt.Sprintf("user %d", i),
					Email: fmt.Sprintf("u%d@x.com", i),
				})
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		for i := 0; i < n; i++ {
			got, err := s.Get(ctx, fmt.Sprintf("%sc%02d", prefix, i))
			require.NoError(t, err)
			require.Equal(t, fmt.Sprintf("user %d", i), got.Name)
		}
	})
}
