package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avvvet/qrcard-services/internal/cardsvc/metrics"
	"github.com/avvvet/qrcard-services/internal/cardsvc/models"
	"github.com/avvvet/qrcard-services/internal/cardsvc/store"
	log "github.com/sirupsen/logrus"
)

var (
	ErrInvalidCode = errors.New("code may only contain letters, digits, '-' and '_' (max 64)")
	ErrInvalidCard = errors.New("name and email are required")
)

// IssueNotifier hears about every stored card.
type IssueNotifier interface {
	CardIssued(card models.Card) error
}

// CardService issues and looks up cards. It keeps no state between calls;
// every check goes to the store.
type CardService struct {
	store    store.CardStore
	generate CodeGenerator
	notifier IssueNotifier
	now      func() time.Time
}

func NewCardService(store store.CardStore) *CardService {
	return &CardService{
		store:    store,
		generate: GenerateCode,
		now:      time.Now,
	}
}

// WithGenerator replaces the code generator.
func (s *CardService) WithGenerator(g CodeGenerator) *CardService {
	s.generate = g
	return s
}

// WithNotifier sets the notifier told about new cards.
func (s *CardService) WithNotifier(n IssueNotifier) *CardService {
	s.notifier = n
	return s
}

// Issue stores a new card under requestedCode, or under a generated code when
// requestedCode is empty, and returns the code.
//
// A taken code fails with store.ErrAlreadyExists whether it was requested or
// generated; generated collisions are not retried.
func (s *CardService) Issue(ctx context.Context, fields models.CardFields, requestedCode string) (string, error) {
	card := models.Card{
		Name:     strings.TrimSpace(fields.Name),
		Email:    strings.TrimSpace(fields.Email),
		Phone:    strings.TrimSpace(fields.Phone),
		Github:   strings.TrimSpace(fields.Github),
		Linkedin: strings.TrimSpace(fields.Linkedin),
	}
	if card.Name == "" || card.Email == "" {
		metrics.RecordIssueFailure("invalid_card")
		return "", ErrInvalidCard
	}

	code := strings.TrimSpace(requestedCode)
	source := metrics.SourceRequested
	if code == "" {
		generated, err := s.generate()
		if err != nil {
			metrics.RecordIssueFailure("internal")
			return "", err
		}
		code = generated
		source = metrics.SourceGenerated
	}
	if !ValidCode(code) {
		metrics.RecordIssueFailure("invalid_code")
		return "", ErrInvalidCode
	}

	exists, err := s.store.Exists(ctx, code)
	if err != nil {
		metrics.RecordIssueFailure("internal")
		return "", fmt.Errorf("check code %s: %w", code, err)
	}
	if exists {
		metrics.RecordIssueFailure("already_exists")
		return "", store.ErrAlreadyExists
	}

	card.Code = code
	card.CreatedAt = s.now().UTC()

	// Put is the real uniqueness check; a concurrent submission may have
	// taken the code since Exists.
	if err := s.store.Put(ctx, card); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			metrics.RecordIssueFailure("already_exists")
			return "", store.ErrAlreadyExists
		}
		metrics.RecordIssueFailure("internal")
		return "", fmt.Errorf("save card %s: %w", code, err)
	}

	metrics.RecordIssued(source)
	log.Infof("card saved: code=%s source=%s", code, source)

	if s.notifier != nil {
		if err := s.notifier.CardIssued(card); err != nil {
			log.Errorf("Error [CardService.Issue] notify card %s: %v", code, err)
		}
	}

	return code, nil
}

// Lookup returns the card stored under code or store.ErrNotFound.
func (s *CardService) Lookup(ctx context.Context, code string) (*models.Card, error) {
	card, err := s.store.Get(ctx, code)
	switch {
	case err == nil:
		metrics.RecordLookup(metrics.ResultFound)
		return card, nil
	case errors.Is(err, store.ErrNotFound):
		metrics.RecordLookup(metrics.ResultNotFound)
		return nil, store.ErrNotFound
	default:
		metrics.RecordLookup(metrics.ResultError)
		return nil, fmt.Errorf("load card %s: %w", code, err)
	}
}
