package broker

import (
	"encoding/json"
	"time"

	"github.com/avvvet/qrcard-services/internal/cardsvc/models"
	"github.com/avvvet/qrcard-services/internal/comm"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// Publisher is the part of *nats.Conn the broker needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Broker publishes card events for the socket service.
type Broker struct {
	Conn    Publisher
	CardURL func(code string) string
}

var _ Publisher = (*nats.Conn)(nil)

func NewBroker(conn Publisher, cardURL func(code string) string) *Broker {
	return &Broker{
		Conn:    conn,
		CardURL: cardURL,
	}
}

// CardIssued publishes a card-issued message on comm.CardSubject.
func (b *Broker) CardIssued(card models.Card) error {
	event := comm.CardIssued{
		Code:     card.Code,
		Name:     card.Name,
		URL:      b.CardURL(card.Code),
		IssuedAt: card.CreatedAt,
	}
	if event.IssuedAt.IsZero() {
		event.IssuedAt = time.Now().UTC()
	}

	msg, err := comm.NewMessage(comm.TypeCardIssued, event)
	if err != nil {
		log.Errorf("error [CardIssued] marshaling event: %v", err)
		return err
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("error [CardIssued] marshaling message: %v", err)
		return err
	}

	return b.Publish(comm.CardSubject, payload)
}

func (b *Broker) Publish(topic string, payload []byte) error {
	err := b.Conn.Publish(topic, payload)
	if err != nil {
		log.Errorf("Error publishing to topic %s: %s", topic, err)
		return err
	}

	return nil
}
