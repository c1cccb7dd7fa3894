package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"StockPulse/internal/collector"
	"StockPulse/internal/model"
	"StockPulse/internal/notifier"
	"StockPulse/internal/scheduler"
)

// requestTimeout bounds one-shot fetches for symbols nobody is streaming.
const requestTimeout = 45 * time.Second

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"timestamp":   time.Now().Format(time.RFC3339),
		"uptime":      time.Since(s.started).Round(time.Second).String(),
		"quotes":      s.Quotes.Symbols(),
		"predictions": s.Predictions.Symbols(),
	})
}

// symbolVar extracts and validates the {symbol} route variable, writing a
// 400 response when it is malformed.
func symbolVar(w http.ResponseWriter, r *http.Request) (string, bool) {
	sym, err := collector.NormalizeSymbol(mux.Vars(r)["symbol"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return sym, true
}

// serveSnapshot answers from the shared poller when symbol is being
// streamed, otherwise performs a one-shot fetch.
func serveSnapshot[T any](w http.ResponseWriter, r *http.Request, hub *scheduler.Hub[T], fetch scheduler.FetchFunc[T], symbol string) {
	if snap, ok := hub.Peek(symbol); ok {
		respondWithJSON(w, http.StatusOK, payloadOf(snap))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	data, err := fetch(ctx, symbol, nil)
	snap := scheduler.Snapshot[T]{Symbol: symbol, Data: data, Err: err, LastFetch: time.Now()}
	switch {
	case errors.Is(err, collector.ErrInvalidSymbol):
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		snap.Status = model.StatusError
		respondWithJSON(w, http.StatusServiceUnavailable, payloadOf(snap))
		return
	}
	snap.Status = model.StatusReady
	respondWithJSON(w, http.StatusOK, payloadOf(snap))
}

// refreshSnapshot forces a shared refresh. Symbols nobody is streaming are
// simply fetched.
func refreshSnapshot[T any](w http.ResponseWriter, r *http.Request, hub *scheduler.Hub[T], fetch scheduler.FetchFunc[T], symbol string) {
	if _, ok := hub.Peek(symbol); !ok {
		serveSnapshot(w, r, hub, fetch, symbol)
		return
	}
	accepted := hub.Refresh(symbol)
	snap, _ := hub.Peek(symbol)
	code := http.StatusAccepted
	if !accepted {
		code = http.StatusConflict
	}
	respondWithJSON(w, code, map[string]interface{}{
		"accepted": accepted,
		"current":  payloadOf(snap),
	})
}

func (s *Server) getQuoteHandler(w http.ResponseWriter, r *http.Request) {
	if sym, ok := symbolVar(w, r); ok {
		serveSnapshot(w, r, s.Quotes, s.FetchQuote, sym)
	}
}

func (s *Server) refreshQuoteHandler(w http.ResponseWriter, r *http.Request) {
	if sym, ok := symbolVar(w, r); ok {
		refreshSnapshot(w, r, s.Quotes, s.FetchQuote, sym)
	}
}

func (s *Server) getPredictionHandler(w http.ResponseWriter, r *http.Request) {
	if sym, ok := symbolVar(w, r); ok {
		serveSnapshot(w, r, s.Predictions, s.Predict, sym)
	}
}

func (s *Server) refreshPredictionHandler(w http.ResponseWriter, r *http.Request) {
	if sym, ok := symbolVar(w, r); ok {
		refreshSnapshot(w, r, s.Predictions, s.Predict, sym)
	}
}

func (s *Server) companyNewsHandler(w http.ResponseWriter, r *http.Request) {
	sym, ok := symbolVar(w, r)
	if !ok {
		return
	}
	feed, err := s.News.CompanyNews(r.Context(), sym)
	if err != nil {
		respondWithError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"view":       notifier.ViewReady,
		"symbol":     sym,
		"articles":   feed.Articles,
		"isFallback": feed.Fallback,
		"updated":    feed.Updated,
	})
}

func (s *Server) marketNewsHandler(w http.ResponseWriter, r *http.Request) {
	feed := s.News.MarketNews(r.Context())
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"view":       notifier.ViewReady,
		"articles":   feed.Articles,
		"isFallback": feed.Fallback,
		"updated":    feed.Updated,
	})
}

func (s *Server) trendingHandler(w http.ResponseWriter, r *http.Request) {
	feed := s.Trending.Current(r.Context())
	view := notifier.ViewOf(feed.Stocks != nil, nil)
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"view":       view,
		"stocks":     feed.Stocks,
		"source":     feed.Source,
		"isFallback": feed.Fallback,
		"updated":    feed.Updated,
	})
}
