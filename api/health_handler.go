package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const probeTimeout = 10 * time.Second

type healthHandler struct {
	responder   Responder
	logger      zerolog.Logger
	database    Pinger
	storage     Pinger
	endpoint    string
	startupTime time.Time
}

func newHealthHandler(database Pinger, storage ImageUploader, endpoint string, startupTime time.Time) healthHandler {
	logger := log.With().Str("handlerName", "healthHandler").Logger()

	return healthHandler{
		responder:   NewResponder(logger),
		logger:      logger,
		database:    database,
		storage:     storage,
		endpoint:    endpoint,
		startupTime: startupTime,
	}
}

func (h healthHandler) health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		defer cancel()

		dbState := "connected"
		if err := h.database.Ping(ctx); err != nil {
			h.logger.Warn().Err(err).Msg("Database ping failed")
			dbState = "disconnected"
		}

		username, _ := ctxGetUsername(r.Context())
		h.responder.WriteJSON(w, healthResponse{
			Status:     "ok",
			Timestamp:  time.Now().UTC(),
			Uptime:     time.Since(h.startupTime).Round(time.Second).String(),
			Database:   dbState,
			Connection: h.endpoint,
			Session:    username,
		})
	}
}

// testConnection probes the database and object storage concurrently
func (h healthHandler) testConnection() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		defer cancel()

		probes := map[string]Pinger{"database": h.database}
		if h.storage != nil {
			probes["storage"] = h.storage
		}

		var (
			mu     sync.Mutex
			checks = make(map[string]probeResult, len(probes))
			g      errgroup.Group
		)
		for name, p := range probes {
			g.Go(func() error {
				start := time.Now()
				err := p.Ping(ctx)
				result := probeResult{Status: "connected", LatencyMS: time.Since(start).Milliseconds()}
				if err != nil {
					h.logger.Warn().Err(err).Str("probe", name).Msg("Connection test failed")
					result.Status = "error"
					result.Error = err.Error()
				}
				mu.Lock()
				checks[name] = result
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()

		report := connectionReport{
			Success:    true,
			Connection: h.endpoint,
			Checks:     checks,
			Timestamp:  time.Now().UTC(),
		}
		for _, c := range checks {
			if c.Status != "connected" {
				report.Success = false
			}
		}

		status := http.StatusOK
		if !report.Success {
			status = http.StatusServiceUnavailable
		}
		h.responder.WriteJSONStatus(w, status, report)
	}
}
