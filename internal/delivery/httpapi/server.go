package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"quickResume/internal/domain"
	"quickResume/internal/logging"
	"quickResume/internal/usecase"
)

var httpLog = logging.L("http")

const writeWait = 10 * time.Second

// Server exposes the command façade over HTTP and streams snapshots over a websocket
type Server struct {
	service  usecase.ProcessService
	router   *mux.Router
	upgrader websocket.Upgrader
}

// NewServer creates the HTTP façade
func NewServer(service usecase.ProcessService) *Server {
	s := &Server{
		service: service,
		router:  mux.NewRouter(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/processes", s.handleList).Methods(http.MethodGet)
	s.router.HandleFunc("/processes/{id}/suspend", s.handleSuspend).Methods(http.MethodPost)
	s.router.HandleFunc("/processes/{id}/resume", s.handleResume).Methods(http.MethodPost)
	s.router.HandleFunc("/view", s.handleView).Methods(http.MethodGet)
	s.router.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	s.router.HandleFunc("/ws", s.handleStream).Methods(http.MethodGet)
	s.router.Use(s.logRequests)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		httpLog.Info("listening", "addr", addr)
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
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		httpLog.Debug("request", "method", r.Method, "path", r.URL.Path,
			logging.KeyDurationMs, time.Since(start).Milliseconds())
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.service.GetAllProcesses(r.Context()))
}

func (s *Server) handleSuspend(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.service.SuspendProcess(r.Context(), mux.Vars(r)["id"]))
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.service.ResumeProcess(r.Context(), mux.Vars(r)["id"]))
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.View(r.Context(), filterFromQuery(r)))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	msg, ok := s.service.Status()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// streamFrame is one websocket message
type streamFrame struct {
	usecase.ProcessView
	Error string `json:"error,omitempty"`
}

// handleStream sends the current view, then a new one after every refresh.
// Frames reflect the filter given in the query string.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		httpLog.Warn("websocket upgrade failed", logging.KeyError, err)
		return
	}
	defer conn.Close()

	filter := filterFromQuery(r)
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	events, unsubscribe := s.service.Reconciler().Subscribe()
	defer unsubscribe()

	// the client never sends anything we act on; reading detects close
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := s.sendFrame(conn, streamFrame{ProcessView: s.service.View(ctx, filter)}); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			frame := streamFrame{ProcessView: s.service.View(ctx, filter)}
			if event.Err != nil {
				frame.Error = event.Err.Error()
			}
			if err := s.sendFrame(conn, frame); err != nil {
				httpLog.Debug("websocket closed", logging.KeyError, err)
				return
			}
		}
	}
}

func (s *Server) sendFrame(conn *websocket.Conn, frame streamFrame) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(frame)
}

func filterFromQuery(r *http.Request) domain.Filter {
	q := r.URL.Query()
	games, _ := strconv.ParseBool(q.Get("games"))
	return domain.Filter{Query: q.Get("filter"), GamesOnly: games}
}

// StatusCode maps a result to the HTTP status it is reported with
func StatusCode(result *domain.OperationResult) int {
	if result.Success {
		return http.StatusOK
	}
	switch result.Kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindProcessNotFound:
		return http.StatusNotFound
	case domain.KindPermissionDenied:
		return http.StatusForbidden
	case domain.KindPartialSuspend:
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

func writeResult(w http.ResponseWriter, result *domain.OperationResult) {
	writeJSON(w, StatusCode(result), result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		httpLog.Warn("failed to write response", logging.KeyError, err)
	}
}
