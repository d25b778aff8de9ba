// Package debugserver implements component N (spec.md §2 expansion):
// an HTTP+WebSocket surface exporting logs, cache stats and system
// status. It stands in for the out-of-scope GUI's debug panel (spec.md
// §1 lists the window/widget toolkit itself as an external
// collaborator) — this is the only "UI" the core owns.
//
// Grounded on the teacher's pkg/web/routes.go: the Logs websocket
// handler and the Status/General JSON handlers are kept close to the
// original shape, with the monitor CRUD, HLS, recording and
// authentication routes dropped (spec.md has no camera/user surface)
// and a cache-stats route added for the Thumbnail Cache (spec.md
// §4.A's getPercentage, supplemented per SPEC_FULL.md from the
// original's UI cache display).
package debugserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"

	"flipreview/pkg/cache"
	"flipreview/pkg/config"
	"flipreview/pkg/diag"
	"flipreview/pkg/log"
)

// CacheStats is the JSON shape returned by /api/cache.
type CacheStats struct {
	Max        int     `json:"max"`
	Percentage float64 `json:"percentage"`
}

// Server is the debug/observability HTTP server.
type Server struct {
	addr string
	srv  *http.Server
}

// New builds a Server listening on addr (e.g. ":2021"), wiring logger,
// cache and general config into the routes below.
func New(addr string, logger *log.Logger, c *cache.Cache, sys *diag.System, general *config.Manager) *Server {
	mux := http.NewServeMux()

	mux.Handle("/api/status", statusHandler(sys))
	mux.Handle("/api/cache", cacheHandler(c))
	mux.Handle("/api/general", generalHandler(general))
	mux.Handle("/api/logs", logsHandler(logger))
	mux.Handle("/api/logs/query", logsQueryHandler(logger))

	return &Server{
		addr: addr,
		srv:  &http.Server{Addr: addr, Handler: mux},
	}
}

// Start runs the server until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		return s.srv.Close()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func statusHandler(sys *diag.System) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, sys.Status())
	})
}

func cacheHandler(c *cache.Cache) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, CacheStats{
			Max:        c.GetMax(),
			Percentage: c.GetPercentage(),
		})
	})
}

func generalHandler(general *config.Manager) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, general.Get())
		case http.MethodPut, http.MethodPost:
			var newConfig config.General
			if err := json.NewDecoder(r.Body).Decode(&newConfig); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if err := general.Set(newConfig); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			writeJSON(w, newConfig)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

// logsHandler opens a websocket streaming the log feed, one JSON
// message per entry, until the client disconnects (spec.md §2's "UI
// tick" analogue for the debug surface). No authentication gate:
// unlike the teacher, this server has no user/auth surface (spec.md §1
// out of scope).
func logsHandler(logger *log.Logger) http.Handler {
	upgrader := websocket.Upgrader{}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer c.Close()

		feed, cancel := logger.Subscribe()
		defer cancel()

		for entry := range feed {
			raw, err := json.Marshal(entry)
			if err != nil {
				continue
			}
			if err := c.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		}
	})
}

// logsQueryHandler answers a one-shot GET against the log database,
// the filters trimmed to what the debug log view actually offers: a
// level, a source and a request id, each repeatable, plus limit and
// before (an exclusive cutoff in the log's timestamp unit,
// microseconds since the Unix epoch). Unlike logsHandler this isn't a
// live stream, so it doesn't need a websocket.
func logsQueryHandler(logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		q := r.URL.Query()

		var levels []log.Level
		for _, s := range q["level"] {
			n, err := strconv.Atoi(s)
			if err != nil {
				http.Error(w, "bad level: "+s, http.StatusBadRequest)
				return
			}
			levels = append(levels, log.Level(n))
		}

		var limit int
		if s := q.Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil {
				http.Error(w, "bad limit: "+s, http.StatusBadRequest)
				return
			}
			limit = n
		}

		var before log.UnixMillisecond
		if s := q.Get("before"); s != "" {
			n, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				http.Error(w, "bad before: "+s, http.StatusBadRequest)
				return
			}
			before = log.UnixMillisecond(n)
		}

		logs, err := logger.Query(log.Query{
			Levels:   levels,
			Sources:  splitNonEmpty(q["src"]),
			Requests: splitNonEmpty(q["request"]),
			Time:     before,
			Limit:    limit,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, logs)
	})
}

// splitNonEmpty flattens repeated query params, also accepting a
// single comma-separated value per param for convenience.
func splitNonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("content-type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
