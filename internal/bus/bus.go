package bus

import (
	"encoding/json"
	log "log/slog"
	"time"

	ws "github.com/gorilla/websocket"
)

// Message mirrors one assistant event to the hub.
type Message struct {
	From     string `json:"from"`
	Kind     string `json:"kind"`
	Query    string `json:"query,omitempty"`
	Response string `json:"response,omitempty"`
}

// Bus mirrors turn events to a websocket hub. Publishing never blocks
// the interaction loop: events go through a buffered channel and are
// dropped when the hub cannot keep up. The writer goroutine redials on
// connection loss.
type Bus struct {
	url    string
	conn   *ws.Conn
	reconn time.Duration
	out    chan Message
}

func Connect(wsURL string) (*Bus, error) {
	conn, _, err := ws.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return nil, err
	}

	b := &Bus{
		url:    wsURL,
		conn:   conn,
		reconn: 5 * time.Second,
		out:    make(chan Message, 32),
	}
	go b.writer()

	log.Info("Connected to bus", "url", wsURL)
	return b, nil
}

func (b *Bus) Publish(kind, query, response string) {
	msg := Message{From: "raspai", Kind: kind, Query: query, Response: response}
	select {
	case b.out <- msg:
	default:
		log.Warn("Bus backlog full, dropping event", "kind", kind)
	}
}

func (b *Bus) writer() {
	for msg := range b.out {
		data, err := json.Marshal(msg)
		if err != nil {
			log.Error("Failed to encode bus message", "err", err)
			continue
		}

		if err := b.conn.WriteMessage(ws.TextMessage, data); err != nil {
			if isClosed(err) {
				log.Warn("Bus connection lost, reconnecting", "url", b.url)
				b.redial()
				continue
			}
			log.Error("Failed to publish to bus", "err", err)
		}
	}
}

func (b *Bus) redial() {
	for {
		conn, _, err := ws.DefaultDialer.Dial(b.url, nil)
		if err == nil {
			b.conn = conn
			log.Info("Reconnected to bus", "url", b.url)
			return
		}
		time.Sleep(b.reconn)
	}
}

func isClosed(err error) bool {
	return ws.IsCloseError(err,
		ws.CloseNormalClosure,
		ws.CloseGoingAway,
		ws.CloseAbnormalClosure) || ws.IsUnexpectedCloseError(err)
}
