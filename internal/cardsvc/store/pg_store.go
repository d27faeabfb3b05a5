package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/avvvet/qrcard-services/internal/cardsvc/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Exists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM cards WHERE code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check card code: %w", err)
	}
	return exists, nil
}

func (s *PGStore) Get(ctx context.Context, code string) (*models.Card, error) {
	query := `
		SELECT code, name, email, phone, github, linkedin, created_at
		FROM cards
		WHERE code = $1
	`

	var card models.Card
	err := s.db.QueryRow(ctx, query, code).Scan(
		&card.Code,
		&card.Name,
		&card.Email,
		&card.Phone,
		&card.Github,
		&card.Linkedin,
		&card.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get card by code: %w", err)
	}

	return &card, nil
}

func (s *PGStore) Put(ctx context.Context, card models.Card) error {
	query := `
		INSERT INTO cards (code, name, email, phone, github, linkedin, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (code) DO NOTHING
	`

	tag, err := s.db.Exec(ctx, query,
		card.Code, card.Name, card.Email, card.Phone, card.Github, card.Linkedin, card.CreatedAt)
	if err != nil {
		return fmt.Errorf("could not insert card: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (s *PGStore) Close(ctx context.Context) error {
	s.db.Close()
	return nil
}
