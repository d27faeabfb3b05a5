package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/avvvet/qrcard-services/internal/comm"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const writeWait = 10 * time.Second

// client serializes writes; gorilla connections allow one writer at a time.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

type Ws struct {
	connMap sync.Map // socketId -> *client
}

func NewWs() *Ws {
	return &Ws{}
}

// SocketMessage handles a message sent by a web client.
func (s *Ws) SocketMessage(socketId string, message *comm.Message) {
	switch message.Type {
	case comm.TypePing:
		s.Send(socketId, &comm.Message{Type: comm.TypePong, SocketId: socketId})
	default:
		log.Warnf("unknown event received: %s", message.Type)
		s.SendError(socketId, "unknown message type: "+message.Type)
	}
}

// Broadcast sends m to every connected client. Clients that fail the write
// are dropped.
func (s *Ws) Broadcast(m *comm.Message) {
	s.connMap.Range(func(key, value any) bool {
		socketId := key.(string)
		if err := value.(*client).writeJSON(m); err != nil {
			log.Warnf("broadcast to socket %s failed, closing: %v", socketId, err)
			s.HandleDisconnect(socketId)
		}
		return true
	})
}

func (s *Ws) Send(socketId string, m *comm.Message) {
	c, ok := s.connMap.Load(socketId)
	if !ok {
		return
	}
	if err := c.(*client).writeJSON(m); err != nil {
		log.Errorf("send to socket %s failed: %v", socketId, err)
	}
}

func (s *Ws) SendError(socketId string, errorMsg string) {
	data, _ := json.Marshal(comm.ErrorData{Error: errorMsg})
	s.Send(socketId, &comm.Message{Type: comm.TypeError, Data: data, SocketId: socketId})
}

func (s *Ws) StoreConnection(socketId string, conn *websocket.Conn) {
	s.connMap.Store(socketId, &client{conn: conn})
}

// HandleDisconnect forgets the socket and closes its connection.
func (s *Ws) HandleDisconnect(socketId string) {
	c, ok := s.connMap.LoadAndDelete(socketId)
	if !ok {
		return
	}
	_ = c.(*client).conn.Close()
	log.Infof("socket %s removed", socketId)
}

func (s *Ws) Count() int {
	count := 0
	s.connMap.Range(func(key, value any) bool {
		count++
		return true
	})
	return count
}
