package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"StockPulse/internal/market"
	"StockPulse/internal/model"
	"StockPulse/internal/notifier"
	"StockPulse/internal/scheduler"
)

// Server exposes quotes, predictions and the market boards over HTTP and
// WebSocket.
type Server struct {
	Quotes      *scheduler.Hub[model.Quote]
	Predictions *scheduler.Hub[model.Prediction]
	FetchQuote  scheduler.FetchFunc[model.Quote]
	Predict     scheduler.FetchFunc[model.Prediction]
	News        *market.NewsDesk
	Trending    *market.TrendingBoard

	router   *mux.Router
	upgrader websocket.Upgrader
	origins  []string
	started  time.Time
}

// NewServer creates a Server and sets up its routes. allowedOrigins applies
// to both CORS and WebSocket upgrades; "*" allows any origin.
func NewServer(quotes *scheduler.Hub[model.Quote], predictions *scheduler.Hub[model.Prediction],
	fetchQuote scheduler.FetchFunc[model.Quote], predict scheduler.FetchFunc[model.Prediction],
	news *market.NewsDesk, trending *market.TrendingBoard, allowedOrigins []string) *Server {
	s := &Server{
		Quotes:      quotes,
		Predictions: predictions,
		FetchQuote:  fetchQuote,
		Predict:     predict,
		News:        news,
		Trending:    trending,
		router:      mux.NewRouter(),
		origins:     allowedOrigins,
		started:     time.Now(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/api/health", s.healthHandler).Methods("GET")

	s.router.HandleFunc("/api/quote/{symbol}", s.getQuoteHandler).Methods("GET")
	s.router.HandleFunc("/api/quote/{symbol}/refresh", s.refreshQuoteHandler).Methods("POST")

	s.router.HandleFunc("/api/prediction/{symbol}", s.getPredictionHandler).Methods("GET")
	s.router.HandleFunc("/api/prediction/{symbol}/refresh", s.refreshPredictionHandler).Methods("POST")

	s.router.HandleFunc("/api/news", s.marketNewsHandler).Methods("GET")
	s.router.HandleFunc("/api/news/{symbol}", s.companyNewsHandler).Methods("GET")
	s.router.HandleFunc("/api/trending", s.trendingHandler).Methods("GET")

	s.router.HandleFunc("/ws/{symbol}", s.streamHandler)
}

// Handler returns the router wrapped in CORS handling.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	return c.Handler(s.router)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:        addr,
		Handler:     s.Handler(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[INFO] API server listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Println("[INFO] API server stopped")
	return nil
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range s.origins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

// Payload is the JSON shape of one piece of refresh state.
type Payload struct {
	View      notifier.View       `json:"view"`
	Symbol    string              `json:"symbol"`
	Status    model.RefreshStatus `json:"status"`
	Loading   bool                `json:"loading"`
	Error     string              `json:"error,omitempty"`
	LastFetch *time.Time          `json:"lastFetch,omitempty"`
	Data      interface{}         `json:"data,omitempty"`
}

func payloadOf[T any](snap scheduler.Snapshot[T]) Payload {
	p := Payload{
		View:    notifier.ViewOf(snap.Data != nil, snap.Err),
		Symbol:  snap.Symbol,
		Status:  snap.Status,
		Loading: snap.Loading,
	}
	if snap.Err != nil {
		p.Error = snap.Err.Error()
	}
	if !snap.LastFetch.IsZero() {
		t := snap.LastFetch
		p.LastFetch = &t
	}
	if snap.Data != nil {
		p.Data = snap.Data
	}
	return p
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Error marshaling JSON"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"view": string(notifier.ViewError), "error": message})
}
