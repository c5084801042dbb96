package sync

import (
	"encoding/json"
	"log"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"readlist/pkg/models"
)

const writeWait = 2 * time.Second

const (
	TransportTCP       = "tcp"
	TransportWebSocket = "websocket"
)

// subscriber is one open feed connection. Implementations are comparable so
// they can key the hub's set.
type subscriber interface {
	transport() string
	deliver(line []byte) error
	close()
}

type tcpSubscriber struct{ conn net.Conn }

func (s tcpSubscriber) transport() string { return TransportTCP }

func (s tcpSubscriber) deliver(line []byte) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_, err := s.conn.Write(line)
	return err
}

func (s tcpSubscriber) close() { _ = s.conn.Close() }

type wsSubscriber struct{ ws *websocket.Conn }

func (s wsSubscriber) transport() string { return TransportWebSocket }

func (s wsSubscriber) deliver(line []byte) error {
	_ = s.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return s.ws.WriteMessage(websocket.TextMessage, line)
}

func (s wsSubscriber) close() { _ = s.ws.Close() }

// Hub fans change events out to every connected listener. A listener whose
// write fails is dropped.
type Hub struct {
	mu   sync.Mutex
	subs map[subscriber]struct{}
}

type Stats struct {
	TCPClients int `json:"tcp_clients"`
	WSClients  int `json:"ws_clients"`
}

// Welcome is the first line every listener receives.
type Welcome struct {
	Type      string `json:"type"`
	Transport string `json:"transport"`
	Clients   int    `json:"clients"`
}

func NewHub() *Hub {
	return &Hub{subs: make(map[subscriber]struct{})}
}

func (h *Hub) Add(conn net.Conn) { h.add(tcpSubscriber{conn}) }

func (h *Hub) Remove(conn net.Conn) { h.remove(tcpSubscriber{conn}) }

func (h *Hub) AddWS(ws *websocket.Conn) { h.add(wsSubscriber{ws}) }

func (h *Hub) RemoveWS(ws *websocket.Conn) { h.remove(wsSubscriber{ws}) }

func (h *Hub) add(s subscriber) {
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(s subscriber) {
	h.mu.Lock()
	delete(h.subs, s)
	h.mu.Unlock()
	s.close()
}

// PublishBook fans out a BookEvent for a confirmed change.
func (h *Hub) PublishBook(action models.Action, b models.Book) {
	h.BroadcastJSON(NewBookEvent(action, b))
}

func (h *Hub) BroadcastJSON(v any) {
	line, err := encodeLine(v)
	if err != nil {
		log.Printf("[sync] marshal event: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		if err := s.deliver(line); err != nil {
			log.Printf("[sync] dropping %s listener: %v", s.transport(), err)
			s.close()
			delete(h.subs, s)
		}
	}
}

// Count reports connected listeners of either transport.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	var st Stats
	for s := range h.subs {
		if s.transport() == TransportWebSocket {
			st.WSClients++
		} else {
			st.TCPClients++
		}
	}
	return st
}

// Close drops every listener.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		s.close()
		delete(h.subs, s)
	}
}

// welcome builds the greeting line; it counts the new listener too.
func (h *Hub) welcome(transport string) []byte {
	line, _ := encodeLine(Welcome{Type: "welcome", Transport: transport, Clients: h.Count() + 1})
	return line
}

func encodeLine(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
