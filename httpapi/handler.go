package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/elnormous/contenttype"
	"github.com/fr0gg/fr0gg/auth"
	"github.com/fr0gg/fr0gg/gallery"
	"github.com/fr0gg/fr0gg/internal/logctx"
	"github.com/fr0gg/fr0gg/prompt"
	"github.com/google/uuid"
)

const (
	authorizationHeader   = "Authorization"
	wwwAuthenticateHeader = "WWW-Authenticate"
	requestIDHeader       = "X-Request-Id"

	protectedResourcePath = "/.well-known/oauth-protected-resource"

	maxPublishBody = 64 << 10
)

var (
	jsonMediaType       = contenttype.NewMediaType("application/json")
	textMediaType       = contenttype.NewMediaType("text/plain")
	promptMediaTypes    = []contenttype.MediaType{jsonMediaType, textMediaType}
	schemaContentType   = "application/schema+json"
	textPlainUTF8       = "text/plain; charset=utf-8"
	errPublishingClosed = errors.New("publishing is disabled on this server")
)

// PromptComposer produces prompts. *prompt.Composer satisfies it.
type PromptComposer interface {
	ComposeDetailed() (prompt.Prompt, error)
}

// writeJSONError writes a transport-level JSON error body.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", jsonMediaType.String())
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": status, "message": msg}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", jsonMediaType.String())
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Option configures the Handler.
type Option func(*config)

type config struct {
	logger      *slog.Logger
	auth        auth.Authenticator
	realm       string
	maxPageSize int
	mcp         http.Handler
}

// WithLogger sets the logger. Records are enriched with request details.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithAuthenticator enables POST /frogs for callers holding a valid token.
func WithAuthenticator(a auth.Authenticator) Option {
	return func(c *config) { c.auth = a }
}

// WithRealm sets the realm advertised in WWW-Authenticate challenges.
func WithRealm(realm string) Option {
	return func(c *config) { c.realm = realm }
}

// WithMaxPageSize caps the limit accepted by GET /frogs. Values outside
// (0, gallery.MaxLimit] are ignored.
func WithMaxPageSize(n int) Option {
	return func(c *config) {
		if n > 0 && n <= gallery.MaxLimit {
			c.maxPageSize = n
		}
	}
}

// WithMCPHandler mounts h at /mcp.
func WithMCPHandler(h http.Handler) Option {
	return func(c *config) { c.mcp = h }
}

// Handler is the fr0gg HTTP API.
type Handler struct {
	log         *slog.Logger
	composer    PromptComposer
	store       gallery.Store
	auth        auth.Authenticator
	realm       string
	scopeHint   string
	maxPageSize int
	prm         *auth.ProtectedResourceMetadata
	schemas     map[string][]byte
	mux         *http.ServeMux
}

var _ http.Handler = (*Handler)(nil)

// New builds the API around composer and store.
func New(composer PromptComposer, store gallery.Store, opts ...Option) (*Handler, error) {
	if composer == nil {
		return nil, fmt.Errorf("composer is required")
	}
	if store == nil {
		return nil, fmt.Errorf("gallery store is required")
	}

	cfg := &config{logger: slog.Default(), realm: "fr0gg", maxPageSize: gallery.MaxLimit}
	for _, opt := range opts {
		opt(cfg)
	}

	schemas, err := buildSchemas()
	if err != nil {
		return nil, err
	}

	h := &Handler{
		log:         logctx.New(cfg.logger),
		composer:    composer,
		store:       store,
		auth:        cfg.auth,
		realm:       cfg.realm,
		maxPageSize: cfg.maxPageSize,
		schemas:     schemas,
	}
	if sd, ok := cfg.auth.(auth.SecurityDescriptor); ok {
		sec := sd.SecurityConfig()
		h.scopeHint = strings.Join(sec.RequiredScopes, " ")
		prm := sec.Metadata()
		h.prm = &prm
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /prompt", h.handleGetPrompt)
	mux.HandleFunc("GET /frogs", h.handleListFrogs)
	mux.HandleFunc("GET /frogs/{id}", h.handleGetFrog)
	mux.HandleFunc("POST /frogs", h.handlePublishFrog)
	mux.HandleFunc("GET /schema/{name}", h.handleGetSchema)
	mux.HandleFunc("GET /healthz", h.handleHealthz)
	if h.prm != nil {
		mux.HandleFunc("GET "+protectedResourcePath, h.handleGetProtectedResourceMetadata)
		mux.HandleFunc("OPTIONS "+protectedResourcePath, h.handleOptionsProtectedResourceMetadata)
	}
	if cfg.mcp != nil {
		mux.Handle("/mcp", cfg.mcp)
	}
	h.mux = mux
	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	w.Header().Set(requestIDHeader, id)
	h.mux.ServeHTTP(w, r.WithContext(logctx.WithRequestData(r.Context(), &logctx.RequestData{
		RequestID:  id,
		Method:     r.Method,
		UserAgent:  r.UserAgent(),
		RemoteAddr: r.RemoteAddr,
		Path:       r.URL.Path,
	})))
}

// handleGetPrompt composes one prompt. JSON is preferred; clients that only
// accept text/plain get the bare prompt.
func (h *Handler) handleGetPrompt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	mt, _, err := contenttype.GetAcceptableMediaType(r, promptMediaTypes)
	if err != nil {
		writeJSONError(w, http.StatusNotAcceptable, "supported media types: application/json, text/plain")
		h.log.InfoContext(ctx, "http.prompt.not_acceptable", slog.String("accept", r.Header.Get("Accept")))
		return
	}

	p, err := h.composer.ComposeDetailed()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to compose prompt")
		h.log.ErrorContext(ctx, "http.prompt.fail", slog.String("err", err.Error()))
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	if mt.Matches(textMediaType) {
		w.Header().Set("Content-Type", textPlainUTF8)
		_, _ = fmt.Fprintln(w, p.Text)
	} else {
		writeJSON(w, http.StatusOK, map[string]string{"prompt": p.Text})
	}
	h.log.DebugContext(ctx, "http.prompt.ok")
}

func (h *Handler) handleListFrogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	opts := gallery.ListOptions{Cursor: q.Get("cursor")}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeJSONError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		opts.Limit = min(n, h.maxPageSize)
	} else {
		opts.Limit = min(gallery.DefaultLimit, h.maxPageSize)
	}

	page, err := h.store.List(ctx, opts)
	if err != nil {
		h.writeStoreError(ctx, w, "http.frogs.list.fail", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) handleGetFrog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	e, err := h.store.Get(ctx, r.PathValue("id"))
	if err != nil {
		h.writeStoreError(ctx, w, "http.frogs.get.fail", err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// publishRequest is the body accepted by POST /frogs.
type publishRequest struct {
	ID       string `json:"id,omitempty"`
	Date     string `json:"date"`
	ImageURL string `json:"image_url"`
	Prompt   string `json:"prompt"`
}

func (h *Handler) handlePublishFrog(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	ui := h.checkAuthentication(ctx, r, w)
	if ui == nil {
		return
	}
	ctx = logctx.WithUserData(ctx, &logctx.UserData{UserID: ui.UserID()})
	ctx = auth.WithUserInfo(ctx, ui)

	ctype, err := contenttype.GetMediaType(r)
	if err != nil || !ctype.Matches(jsonMediaType) {
		writeJSONError(w, http.StatusUnsupportedMediaType, "content-type must be application/json")
		h.log.WarnContext(ctx, "content_type.unsupported")
		return
	}

	var req publishRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPublishBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	e, err := h.store.Add(ctx, gallery.Entry{ID: req.ID, Date: req.Date, ImageURL: req.ImageURL, Prompt: req.Prompt})
	if err != nil {
		h.writeStoreError(ctx, w, "http.frogs.publish.fail", err)
		return
	}
	w.Header().Set("Location", "/frogs/"+e.ID)
	writeJSON(w, http.StatusCreated, e)
	h.log.InfoContext(ctx, "http.frogs.publish.ok", slog.String("id", e.ID), slog.Duration("dur", time.Since(start)))
}

// checkAuthentication returns the caller or writes a challenge and returns
// nil.
func (h *Handler) checkAuthentication(ctx context.Context, r *http.Request, w http.ResponseWriter) auth.UserInfo {
	if h.auth == nil {
		writeJSONError(w, http.StatusForbidden, errPublishingClosed.Error())
		h.log.InfoContext(ctx, "auth.check.disabled")
		return nil
	}
	tok, err := auth.BearerToken(r)
	var ui auth.UserInfo
	if err == nil {
		ui, err = h.auth.CheckAuthentication(ctx, tok)
	}
	if err != nil {
		ch := auth.ChallengeFor(err, h.realm, h.scopeHint)
		w.Header().Add(wwwAuthenticateHeader, ch.WWWAuthenticate)
		writeJSONError(w, ch.Status, http.StatusText(ch.Status))
		h.log.InfoContext(ctx, "auth.check.fail", slog.Int("status", ch.Status), slog.String("err", err.Error()))
		return nil
	}
	return ui
}

func (h *Handler) writeStoreError(ctx context.Context, w http.ResponseWriter, event string, err error) {
	switch {
	case errors.Is(err, gallery.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "frog not found")
	case errors.Is(err, gallery.ErrConflict):
		writeJSONError(w, http.StatusConflict, "a frog with this id already exists")
	case errors.Is(err, gallery.ErrInvalidEntry), errors.Is(err, gallery.ErrInvalidListOptions):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		h.log.ErrorContext(ctx, event, slog.String("err", err.Error()))
		return
	}
	h.log.InfoContext(ctx, event, slog.String("err", err.Error()))
}

func (h *Handler) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	b, ok := h.schemas[r.PathValue("name")]
	if !ok {
		writeJSONError(w, http.StatusNotFound, "unknown schema")
		return
	}
	w.Header().Set("Content-Type", schemaContentType)
	_, _ = w.Write(b)
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", textPlainUTF8)
	_, _ = w.Write([]byte("ok\n"))
}

func (h *Handler) handleGetProtectedResourceMetadata(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Vary", "Origin")
	writeJSON(w, http.StatusOK, h.prm)
}

func (h *Handler) handleOptionsProtectedResourceMetadata(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, "+authorizationHeader)
	w.WriteHeader(http.StatusNoContent)
}
