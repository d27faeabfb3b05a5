package store

import (
	"context"
	"errors"

	"github.com/avvvet/qrcard-services/internal/cardsvc/models"
)

var (
	ErrNotFound      = errors.New("card not found")
	ErrAlreadyExists = errors.New("card code already exists")
)

// CardStore is the only path to the backing store.
//
// Put never overwrites. MongoStore and PGStore make it an atomic insert-if-absent
// so they are safe with several service instances on one database. FileStore
// serializes writes inside one process only; two processes sharing a data file
// can still lose updates.
type CardStore interface {
	Exists(ctx context.Context, code string) (bool, error)
	Get(ctx context.Context, code string) (*models.Card, error)
	Put(ctx context.Context, card models.Card) error
	Close(ctx context.Context) error
}
