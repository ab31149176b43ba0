package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/dialoguetree"
	"github.com/aretw0/dialoguetree/internal/logging"
	"github.com/aretw0/dialoguetree/internal/presentation/graph"
	"github.com/aretw0/dialoguetree/pkg/compiler"
	"github.com/aretw0/dialoguetree/pkg/domain"
	"github.com/aretw0/dialoguetree/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// APIVersion is bumped whenever a route or payload changes incompatibly.
const APIVersion = "1"

// MaxStreamBytes bounds the size of an uploaded authoring stream.
const MaxStreamBytes = 4 << 20

// Server exposes asset storage, compilation and graph editing over HTTP.
type Server struct {
	Sessions *session.Manager
	Streams  *StreamManager

	metrics     http.Handler
	logger      *slog.Logger
	compileOpts []dialoguetree.Option
}

// Option configures the Server.
type Option func(*Server)

// WithMetricsHandler mounts h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithCompileOptions passes options to the builder used by POST /compile.
func WithCompileOptions(opts ...dialoguetree.Option) Option {
	return func(s *Server) {
		s.compileOpts = append(s.compileOpts, opts...)
	}
}

// NewHandler creates a new HTTP handler over the session manager.
func NewHandler(sessions *session.Manager, opts ...Option) http.Handler {
	server := &Server{
		Sessions: sessions,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(server)
	}
	server.Streams = NewStreamManager(server.logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Get("/events", server.SubscribeEvents)
	r.Post("/compile", server.CompileStream)
	if server.metrics != nil {
		r.Method(http.MethodGet, "/metrics", server.metrics)
	}

	r.Route("/assets", func(r chi.Router) {
		r.Get("/", server.ListAssets)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", server.GetAsset)
			r.Put("/", server.PutAsset)
			r.Delete("/", server.DeleteAsset)
			r.Get("/runtime", server.GetRuntime)
			r.Get("/graph", server.GetGraph)

			r.Post("/nodes", server.AddNode)
			r.Patch("/nodes/{node}", server.UpdateNode)
			r.Delete("/nodes/{node}", server.RemoveNode)
			r.Post("/nodes/{node}/options", server.AddOption)
			r.Delete("/nodes/{node}/options/{plug}", server.RemoveOption)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "dialoguetree-http",
		"version":     strings.TrimSpace(dialoguetree.Version),
		"api_version": APIVersion,
	})
}

// CompileResponse is the body returned by POST /compile.
type CompileResponse struct {
	Asset   *domain.Asset   `json:"asset"`
	Runtime *compiler.View  `json:"runtime"`
	Report  compiler.Report `json:"report"`
}

// CompileStream handles POST /compile: the body is an authoring stream, compiled
// without being stored.
func (s *Server) CompileStream(w http.ResponseWriter, r *http.Request) {
	stream, err := s.readStream(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	b := dialoguetree.New("preview", append([]dialoguetree.Option{dialoguetree.WithLogger(s.logger)}, s.compileOpts...)...)
	if err := b.Open(&domain.Asset{ID: b.ID(), AuthoringData: stream}); err != nil {
		s.writeError(w, err)
		return
	}
	asset, err := b.Compile()
	if err != nil {
		s.writeError(w, err)
		return
	}
	view, err := dialoguetree.LoadRuntime(asset)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, CompileResponse{
		Asset:   asset,
		Runtime: view,
		Report:  compiler.Reachability(view),
	})
}

// ListAssets handles GET /assets.
func (s *Server) ListAssets(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"assets": ids})
}

// GetAsset handles GET /assets/{id}.
func (s *Server) GetAsset(w http.ResponseWriter, r *http.Request) {
	asset, err := s.Sessions.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, asset)
}

// PutAsset handles PUT /assets/{id}: the body is an authoring stream that replaces
// the stored asset.
func (s *Server) PutAsset(w http.ResponseWriter, r *http.Request) {
	stream, err := s.readStream(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	asset, err := s.Sessions.Import(r.Context(), chi.URLParam(r, "id"), stream)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.announce("saved", asset.ID, asset.UpdatedAt)
	s.writeJSON(w, http.StatusOK, asset)
}

// DeleteAsset handles DELETE /assets/{id}.
func (s *Server) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Sessions.Delete(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	s.announce("deleted", id, time.Now().UTC())
	w.WriteHeader(http.StatusNoContent)
}

// GetRuntime handles GET /assets/{id}/runtime.
func (s *Server) GetRuntime(w http.ResponseWriter, r *http.Request) {
	view, ok := s.loadView(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

// GetGraph handles GET /assets/{id}/graph and returns a Mermaid flowchart.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	view, ok := s.loadView(w, r)
	if !ok {
		return
	}
	overlay := graph.OverlayFromReport(compiler.Reachability(view))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, graph.GenerateMermaid(view, overlay))
}

func (s *Server) loadView(w http.ResponseWriter, r *http.Request) (*compiler.View, bool) {
	asset, err := s.Sessions.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	view, err := dialoguetree.LoadRuntime(asset)
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	return view, true
}

// EditResponse is returned by the editor routes.
type EditResponse struct {
	NodeID *int          `json:"node_id,omitempty"`
	PlugID *int          `json:"plug_id,omitempty"`
	Asset  *domain.Asset `json:"asset"`
}

// AddNode handles POST /assets/{id}/nodes with a {"x","y"} body.
func (s *Server) AddNode(w http.ResponseWriter, r *http.Request) {
	var pos domain.Vector2
	if !s.decodeJSON(w, r, &pos) {
		return
	}
	nodeID, asset, err := s.Sessions.AddNode(r.Context(), chi.URLParam(r, "id"), pos)
	s.finishEdit(w, http.StatusCreated, EditResponse{NodeID: &nodeID, Asset: asset}, err)
}

// UpdateNode handles PATCH /assets/{id}/nodes/{node} with a session.NodePatch body.
func (s *Server) UpdateNode(w http.ResponseWriter, r *http.Request) {
	nodeID, ok := s.intParam(w, r, "node")
	if !ok {
		return
	}
	var patch session.NodePatch
	if !s.decodeJSON(w, r, &patch) {
		return
	}
	asset, err := s.Sessions.UpdateNode(r.Context(), chi.URLParam(r, "id"), nodeID, patch)
	s.finishEdit(w, http.StatusOK, EditResponse{Asset: asset}, err)
}

// RemoveNode handles DELETE /assets/{id}/nodes/{node}.
func (s *Server) RemoveNode(w http.ResponseWriter, r *http.Request) {
	nodeID, ok := s.intParam(w, r, "node")
	if !ok {
		return
	}
	asset, err := s.Sessions.RemoveNode(r.Context(), chi.URLParam(r, "id"), nodeID)
	s.finishEdit(w, http.StatusOK, EditResponse{Asset: asset}, err)
}

// AddOptionRequest is the body of POST /assets/{id}/nodes/{node}/options.
type AddOptionRequest struct {
	Target *int `json:"target,omitempty"`
}

// AddOption handles POST /assets/{id}/nodes/{node}/options.
func (s *Server) AddOption(w http.ResponseWriter, r *http.Request) {
	nodeID, ok := s.intParam(w, r, "node")
	if !ok {
		return
	}
	var req AddOptionRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	plugID, asset, err := s.Sessions.AddOption(r.Context(), chi.URLParam(r, "id"), nodeID, req.Target)
	s.finishEdit(w, http.StatusCreated, EditResponse{NodeID: &nodeID, PlugID: &plugID, Asset: asset}, err)
}

// RemoveOption handles DELETE /assets/{id}/nodes/{node}/options/{plug}.
func (s *Server) RemoveOption(w http.ResponseWriter, r *http.Request) {
	nodeID, ok := s.intParam(w, r, "node")
	if !ok {
		return
	}
	plugID, ok := s.intParam(w, r, "plug")
	if !ok {
		return
	}
	asset, err := s.Sessions.RemoveOption(r.Context(), chi.URLParam(r, "id"), nodeID, plugID)
	s.finishEdit(w, http.StatusOK, EditResponse{Asset: asset}, err)
}

func (s *Server) finishEdit(w http.ResponseWriter, status int, resp EditResponse, err error) {
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.announce("saved", resp.Asset.ID, resp.Asset.UpdatedAt)
	s.writeJSON(w, status, resp)
}

// SubscribeEvents handles the GET /events request (SSE). The optional asset_id query
// parameter narrows the stream to one asset.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	assetID := r.URL.Query().Get("asset_id")
	if assetID == "" {
		assetID = AllAssets
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.logger.Info("SSE: Subscribing to asset updates", "asset", assetID)
	ch, cancel := s.Streams.Subscribe(assetID)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "asset", assetID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// AssetEvent is the payload pushed to SSE subscribers.
type AssetEvent struct {
	Type      string    `json:"type"`
	AssetID   string    `json:"asset_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Server) announce(kind, assetID string, at time.Time) {
	bytes, err := json.Marshal(AssetEvent{Type: kind, AssetID: assetID, UpdatedAt: at})
	if err != nil {
		return
	}
	s.Streams.Broadcast(assetID, string(bytes))
}

func (s *Server) readStream(w http.ResponseWriter, r *http.Request) (string, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxStreamBytes))
	if err != nil {
		return "", fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return string(data), nil
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxStreamBytes)).Decode(dst); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("Invalid request body", "path", r.URL.Path, "error", err)
		return false
	}
	return true
}

func (s *Server) intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid %s id", name), http.StatusBadRequest)
		return 0, false
	}
	return v, true
}

var errBadRequest = errors.New("bad request")

// statusOf maps domain errors onto HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, domain.ErrInvalidAssetID):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAssetNotFound), errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrMalformedStream),
		errors.Is(err, domain.ErrDanglingReference),
		errors.Is(err, domain.ErrMultipleStartNodes),
		errors.Is(err, domain.ErrDuplicateID),
		errors.Is(err, session.ErrTextTooLarge),
		errors.Is(err, session.ErrInvalidUTF8):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrReadOnly):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	} else {
		s.logger.Debug("request rejected", "status", status, "error", err)
	}
	http.Error(w, err.Error(), status)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}
