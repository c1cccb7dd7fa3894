package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"StockPulse/internal/collector"
	"StockPulse/internal/model"
	"StockPulse/internal/scheduler"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// streamMessage is one frame sent to a WebSocket client.
type streamMessage struct {
	Type    string   `json:"type"`
	Payload *Payload `json:"payload,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// streamCommand is one frame received from a WebSocket client:
// {"type":"refresh"} or {"type":"symbol","symbol":"TSLA"}.
type streamCommand struct {
	Type   string `json:"type"`
	Symbol string `json:"symbol,omitempty"`
}

// watch holds the pair of hub subscriptions a stream is attached to.
type watch struct {
	quote      *scheduler.Subscription[model.Quote]
	prediction *scheduler.Subscription[model.Prediction]
}

func (s *Server) subscribe(symbol string) (*watch, error) {
	q, err := s.Quotes.Subscribe(symbol)
	if err != nil {
		return nil, err
	}
	p, err := s.Predictions.Subscribe(symbol)
	if err != nil {
		q.Close()
		return nil, err
	}
	return &watch{quote: q, prediction: p}, nil
}

func (w *watch) close() {
	w.quote.Close()
	w.prediction.Close()
}

func (s *Server) streamHandler(w http.ResponseWriter, r *http.Request) {
	symbol, ok := symbolVar(w, r)
	if !ok {
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ERROR] websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	current, err := s.subscribe(symbol)
	if err != nil {
		writeFrame(conn, streamMessage{Type: "error", Error: err.Error()})
		return
	}
	defer func() { current.close() }()
	log.Printf("[INFO] stream opened for %s from %s", symbol, r.RemoteAddr)

	commands := make(chan streamCommand)
	done := make(chan struct{})
	defer close(done)
	go readCommands(conn, commands, done)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case snap, ok := <-current.quote.Updates():
			if !ok {
				return
			}
			p := payloadOf(snap)
			if err := writeFrame(conn, streamMessage{Type: "quote", Payload: &p}); err != nil {
				return
			}
		case snap, ok := <-current.prediction.Updates():
			if !ok {
				return
			}
			p := payloadOf(snap)
			if err := writeFrame(conn, streamMessage{Type: "prediction", Payload: &p}); err != nil {
				return
			}
		case cmd, ok := <-commands:
			if !ok {
				log.Printf("[INFO] stream closed for %s", current.quote.Symbol())
				return
			}
			switch cmd.Type {
			case "refresh":
				current.quote.Refresh()
				current.prediction.Refresh()
			case "symbol":
				next, err := collector.NormalizeSymbol(cmd.Symbol)
				if err != nil {
					if writeFrame(conn, streamMessage{Type: "error", Error: err.Error()}) != nil {
						return
					}
					continue
				}
				if next == current.quote.Symbol() {
					continue
				}
				// Subscribe before releasing so a shared poller is not torn
				// down and rebuilt when switching between watched symbols.
				nw, err := s.subscribe(next)
				if err != nil {
					writeFrame(conn, streamMessage{Type: "error", Error: err.Error()})
					return
				}
				current.close()
				current = nw
			default:
				if writeFrame(conn, streamMessage{Type: "error", Error: "unknown command " + cmd.Type}) != nil {
					return
				}
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeFrame(conn *websocket.Conn, msg streamMessage) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

// readCommands forwards client frames until the connection fails or done
// is closed, then closes out.
func readCommands(conn *websocket.Conn, out chan<- streamCommand, done <-chan struct{}) {
	defer close(out)
	for {
		var cmd streamCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WARN] websocket read error: %v", err)
			}
			return
		}
		select {
		case out <- cmd:
		case <-done:
			return
		}
	}
}
