package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/avvvet/qrcard-services/internal/cardsvc/models"
	log "github.com/sirupsen/logrus"
)

var ErrStoreClosed = errors.New("card store closed")

// FileStore keeps every card in one JSON object keyed by code. Each write
// reads, merges and rewrites the whole file, which is fine for a small set of
// cards and gets slower as the file grows.
//
// Writes go through a single goroutine so concurrent Puts in this process
// never clobber each other.
type FileStore struct {
	path string

	writes  chan writeRequest
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

type writeRequest struct {
	card  models.Card
	reply chan error
}

func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create card data dir: %w", err)
	}

	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := os.WriteFile(path, []byte("{}"), 0644); err != nil {
			return nil, fmt.Errorf("init card file: %w", err)
		}
		log.Infof("card file %s created", path)
	} else if err != nil {
		return nil, fmt.Errorf("stat card file: %w", err)
	}

	s := &FileStore{
		path:    path,
		writes:  make(chan writeRequest),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.run()

	return s, nil
}

func (s *FileStore) Exists(ctx context.Context, code string) (bool, error) {
	cards, err := s.load()
	if err != nil {
		return false, err
	}
	_, ok := cards[code]
	return ok, nil
}

func (s *FileStore) Get(ctx context.Context, code string) (*models.Card, error) {
	cards, err := s.load()
	if err != nil {
		return nil, err
	}
	card, ok := cards[code]
	if !ok {
		return nil, ErrNotFound
	}
	return &card, nil
}

// Put queues the card for the writer and waits for it. Once queued the write
// is not abandoned, so a cancelled ctx cannot leave the caller unsure whether
// the card landed.
func (s *FileStore) Put(ctx context.Context, card models.Card) error {
	req := writeRequest{card: card, reply: make(chan error, 1)}

	select {
	case s.writes <- req:
	case <-s.done:
		return ErrStoreClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	return <-req.reply
}

func (s *FileStore) Close(ctx context.Context) error {
	s.once.Do(func() { close(s.done) })

	select {
	case <-s.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *FileStore) run() {
	defer close(s.stopped)
	for {
		select {
		case req := <-s.writes:
			req.reply <- s.insert(req.card)
		case <-s.done:
			return
		}
	}
}

// insert runs on the writer goroutine only.
func (s *FileStore) insert(card models.Card) error {
	cards, err := s.load()
	if err != nil {
		return err
	}

	if _, ok := cards[card.Code]; ok {
		return ErrAlreadyExists
	}
	cards[card.Code] = card

	data, err := json.MarshalIndent(cards, "", "  ")
	if err != nil {
		return fmt.Errorf("encode card file: %w", err)
	}

	return s.replace(data)
}

// replace writes data to a temp file next to the target and renames it over,
// so readers see either the old file or the new one.
func (s *FileStore) replace(data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".cards-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp card file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp card file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp card file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp card file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace card file: %w", err)
	}
	return nil
}

// load reads the whole card set. A missing, blank or null file is an empty
// set, and null entries are skipped.
func (s *FileStore) load() (map[string]models.Card, error) {
	cards := map[string]models.Card{}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return cards, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read card file: %w", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return cards, nil
	}

	var raw map[string]*models.Card
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode card file: %w", err)
	}
	for code, card := range raw {
		if card == nil {
			continue
		}
		cards[code] = *card
	}
	return cards, nil
}
