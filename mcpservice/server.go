package mcpservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fr0gg/fr0gg/gallery"
	"github.com/fr0gg/fr0gg/internal/logctx"
	"github.com/fr0gg/fr0gg/prompt"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	CategoriesURI     = "fr0gg://categories"
	frogURIPrefix     = "fr0gg://frogs/"
	FrogURITemplate   = frogURIPrefix + "{id}"
	jsonMIMEType      = "application/json"
	defaultServerName = "fr0gg"
)

// Composer is the subset of *prompt.Composer the server needs.
type Composer interface {
	ComposeDetailed() (prompt.Prompt, error)
	Categories() prompt.Categories
}

// Option configures the Server.
type Option func(*config)

type config struct {
	logger  *slog.Logger
	name    string
	version string
}

// WithLogger sets the logger used for tool and resource activity.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithServerInfo sets the implementation name and version reported to
// clients during initialization.
func WithServerInfo(name, version string) Option {
	return func(c *config) {
		if name != "" {
			c.name = name
		}
		c.version = version
	}
}

// Server is the fr0gg MCP server.
type Server struct {
	log      *slog.Logger
	composer Composer
	store    gallery.Store
	srv      *mcp.Server
}

// New registers the fr0gg tools, prompt and resources on a fresh MCP server.
func New(composer Composer, store gallery.Store, opts ...Option) (*Server, error) {
	if composer == nil {
		return nil, fmt.Errorf("composer is required")
	}
	if store == nil {
		return nil, fmt.Errorf("gallery store is required")
	}
	cfg := &config{logger: slog.Default(), name: defaultServerName, version: "dev"}
	for _, opt := range opts {
		opt(cfg)
	}

	s := &Server{
		log:      logctx.New(cfg.logger),
		composer: composer,
		store:    store,
	}
	s.srv = mcp.NewServer(&mcp.Implementation{Name: cfg.name, Version: cfg.version}, &mcp.ServerOptions{
		Instructions:       "Compose ceramic frog souvenir prompts and browse the published frog gallery.",
		Logger:             cfg.logger,
		SubscribeHandler:   s.handleSubscribe,
		UnsubscribeHandler: s.handleUnsubscribe,
	})

	mcp.AddTool(s.srv, &mcp.Tool{
		Name:        "compose_frog_prompt",
		Title:       "Compose frog prompt",
		Description: "Compose a fresh ceramic frog souvenir prompt. Returns the prompt and the category entries drawn for it.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, s.composeFrogPrompt)

	mcp.AddTool(s.srv, &mcp.Tool{
		Name:        "list_frogs",
		Title:       "List published frogs",
		Description: "List published frogs, newest first. Pass next_cursor back as cursor to continue.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, s.listFrogs)

	s.srv.AddPrompt(&mcp.Prompt{
		Name:        "frog",
		Title:       "Frog prompt",
		Description: "A freshly composed ceramic frog souvenir prompt, ready for an image generator.",
	}, s.getFrogPrompt)

	s.srv.AddResource(&mcp.Resource{
		URI:         CategoriesURI,
		Name:        "categories",
		Title:       "Prompt categories",
		Description: "The artist, species, quality, firing style and visual quality lists prompts are drawn from.",
		MIMEType:    jsonMIMEType,
	}, s.readCategories)

	s.srv.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: FrogURITemplate,
		Name:        "frog",
		Title:       "Published frog",
		Description: "One published frog: date, image URL and prompt.",
		MIMEType:    jsonMIMEType,
	}, s.readFrog)

	return s, nil
}

// MCP returns the underlying go-sdk server.
func (s *Server) MCP() *mcp.Server { return s.srv }

// Run serves a single session over t until the peer disconnects or ctx is
// cancelled.
func (s *Server) Run(ctx context.Context, t mcp.Transport) error {
	return s.srv.Run(ctx, t)
}

// HTTPHandler returns a streamable HTTP handler backed by this server.
func (s *Server) HTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s.srv }, &mcp.StreamableHTTPOptions{
		Logger: s.log,
	})
}

// PublishCategoryUpdates sends a resource-updated notification for
// CategoriesURI to subscribed sessions each time changes fires. It returns
// when changes is closed or ctx is done.
func (s *Server) PublishCategoryUpdates(ctx context.Context, changes <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			if err := s.srv.ResourceUpdated(ctx, &mcp.ResourceUpdatedNotificationParams{URI: CategoriesURI}); err != nil {
				s.log.WarnContext(ctx, "categories.notify.fail", slog.String("err", err.Error()))
				continue
			}
			s.log.DebugContext(ctx, "categories.notify.ok")
		}
	}
}

func (s *Server) toolContext(ctx context.Context, req *mcp.CallToolRequest) context.Context {
	if req.Session != nil {
		ctx = logctx.WithSessionData(ctx, &logctx.SessionData{SessionID: req.Session.ID()})
	}
	return logctx.WithToolCallData(ctx, &logctx.ToolCallData{ToolName: req.Params.Name})
}

func (s *Server) composeFrogPrompt(ctx context.Context, req *mcp.CallToolRequest, _ any) (*mcp.CallToolResult, prompt.Prompt, error) {
	ctx = s.toolContext(ctx, req)
	p, err := s.composer.ComposeDetailed()
	if err != nil {
		s.log.ErrorContext(ctx, "tool.call.fail", slog.String("err", err.Error()))
		return nil, prompt.Prompt{}, fmt.Errorf("compose prompt: %w", err)
	}
	s.log.DebugContext(ctx, "tool.call.ok")
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: p.Text}}}, p, nil
}

// ListFrogsArgs is the input of the list_frogs tool.
type ListFrogsArgs struct {
	Cursor string `json:"cursor,omitempty" jsonschema:"Opaque cursor returned as next_cursor by a previous call"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Page size between 1 and 100; defaults to 20"`
}

func (s *Server) listFrogs(ctx context.Context, req *mcp.CallToolRequest, args ListFrogsArgs) (*mcp.CallToolResult, gallery.Page, error) {
	ctx = s.toolContext(ctx, req)
	page, err := s.store.List(ctx, gallery.ListOptions{Cursor: args.Cursor, Limit: args.Limit})
	if err != nil {
		s.log.InfoContext(ctx, "tool.call.fail", slog.String("err", err.Error()))
		return nil, gallery.Page{}, err
	}
	s.log.DebugContext(ctx, "tool.call.ok", slog.Int("entries", len(page.Entries)))
	return nil, page, nil
}

func (s *Server) getFrogPrompt(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	p, err := s.composer.ComposeDetailed()
	if err != nil {
		s.log.ErrorContext(ctx, "prompt.get.fail", slog.String("err", err.Error()))
		return nil, fmt.Errorf("compose prompt: %w", err)
	}
	return &mcp.GetPromptResult{
		Description: "Ceramic frog souvenir prompt",
		Messages: []*mcp.PromptMessage{{
			Role:    "user",
			Content: &mcp.TextContent{Text: p.Text},
		}},
	}, nil
}

func (s *Server) readCategories(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	b, err := json.Marshal(s.composer.Categories())
	if err != nil {
		return nil, fmt.Errorf("marshal categories: %w", err)
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{{
		URI:      CategoriesURI,
		MIMEType: jsonMIMEType,
		Text:     string(b),
	}}}, nil
}

func (s *Server) readFrog(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	id, ok := strings.CutPrefix(uri, frogURIPrefix)
	if !ok || id == "" || strings.Contains(id, "/") {
		return nil, mcp.ResourceNotFoundError(uri)
	}
	e, err := s.store.Get(ctx, id)
	if errors.Is(err, gallery.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(uri)
	}
	if err != nil {
		s.log.ErrorContext(ctx, "resource.read.fail", slog.String("uri", uri), slog.String("err", err.Error()))
		return nil, fmt.Errorf("read %s: %w", uri, err)
	}
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal entry: %w", err)
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{{
		URI:      uri,
		MIMEType: jsonMIMEType,
		Text:     string(b),
	}}}, nil
}

// Only the category lists change over a process lifetime; published frogs
// are immutable.
func (s *Server) handleSubscribe(ctx context.Context, req *mcp.SubscribeRequest) error {
	if req.Params.URI != CategoriesURI {
		return mcp.ResourceNotFoundError(req.Params.URI)
	}
	return nil
}

func (s *Server) handleUnsubscribe(ctx context.Context, req *mcp.UnsubscribeRequest) error {
	return nil
}
