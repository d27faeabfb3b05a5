package broker

import (
	"encoding/json"

	"github.com/avvvet/qrcard-services/internal/comm"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

type Broker struct {
	Conn      *nats.Conn
	Broadcast func(*comm.Message)
}

func NewBroker(conn *nats.Conn, fncBroadcast func(*comm.Message)) *Broker {
	return &Broker{
		Conn:      conn,
		Broadcast: fncBroadcast,
	}
}

// consume card events from the card service
func (b *Broker) Subscribe(topic string) (*nats.Subscription, error) {
	sub, err := b.Conn.Subscribe(topic, b.handleMessages)
	if err != nil {
		return nil, err
	}

	return sub, nil
}

// handleMessages receive message from card service
func (b *Broker) handleMessages(msgNats *nats.Msg) {
	message := &comm.Message{}
	err := json.Unmarshal(msgNats.Data, message)
	if err != nil {
		log.Errorf("Error decoding card service message: %s", err)
		return
	}

	switch message.Type {
	case comm.TypeCardIssued:
		b.Broadcast(message)
	default:
		log.Errorf("Unknown message type %q", message.Type)
	}
}
