package cogs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"derby-go/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// RaceLister reports the races a front end is running.
type RaceLister interface {
	ActiveRaces() []ActiveRace
}

// Status is the health endpoint the bot exposes next to its gateway
// connection.
type Status struct {
	service string

	mu    sync.RWMutex
	state string
	races RaceLister
}

func NewStatus(service string) *Status {
	return &Status{service: service, state: "starting"}
}

func (st *Status) Set(state string) {
	st.mu.Lock()
	st.state = state
	st.mu.Unlock()
}

func (st *Status) State() string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.state
}

// SetRaces attaches the source of /races.
func (st *Status) SetRaces(races RaceLister) {
	st.mu.Lock()
	st.races = races
	st.mu.Unlock()
}

func (st *Status) activeRaces() []ActiveRace {
	st.mu.RLock()
	races := st.races
	st.mu.RUnlock()
	if races == nil {
		return []ActiveRace{}
	}
	return races.ActiveRaces()
}

type healthResponse struct {
	Status    string                   `json:"status"`
	Service   string                   `json:"service"`
	BotStatus string                   `json:"bot_status"`
	Discord   utils.PerformanceMetrics `json:"discord"`
}

// Router serves /, /health and /races.
func (st *Status) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogging)
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintf(w, "Discord Bot Status: %s", st.State())
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{
			Status:    "healthy",
			Service:   st.service,
			BotStatus: st.State(),
			Discord:   utils.GetPerformanceMetrics(),
		})
	})

	r.Get("/races", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, st.activeRaces())
	})

	return r
}

// Serve listens on port until ctx is cancelled.
func (st *Status) Serve(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           st.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		utils.BotLogf("STATUS", "health server starting on port %d", port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		utils.BotErrorf("STATUS", err, "failed to encode response")
	}
}

func requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("area", "STATUS").
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
