// Package mcp exposes presentation control as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/liveslides/internal/logging"
	"github.com/aretw0/liveslides/pkg/catalog"
	"github.com/aretw0/liveslides/pkg/control"
	"github.com/aretw0/liveslides/pkg/domain"
	"github.com/aretw0/liveslides/pkg/tally"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	presentationsURI = "liveslides://presentations"
	presentationURI  = "liveslides://presentations/{code}"
)

// StateResponse is the Current-State of one presentation.
type StateResponse struct {
	Code           string `json:"code" jsonschema_description:"Presentation code"`
	CurrentSlideID string `json:"currentSlideId" jsonschema_description:"Active slide id, empty before the first move"`
}

// ListResponse lists the catalog.
type ListResponse struct {
	Presentations []catalog.Entry `json:"presentations" jsonschema_description:"Presentations in code order"`
}

// TallyResponse is the live aggregation of one presentation.
type TallyResponse struct {
	Code    string        `json:"code" jsonschema_description:"Presentation code"`
	Entries []tally.Entry `json:"entries" jsonschema_description:"Answers in first-seen order"`
	Total   int           `json:"total" jsonschema_description:"Number of counted responses"`
}

// Config holds the collaborators of the MCP server.
type Config struct {
	Catalog *catalog.Catalog
	Control *control.Service
	Tally   *tally.Tracker
	// Auth checks the token argument of write tools.
	Auth    *control.TokenAuth
	Version string
	Logger  *slog.Logger
}

// Server exposes the catalog, the presenter controls and the tally over MCP.
type Server struct {
	cfg       Config
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	if cfg.Auth == nil {
		cfg.Auth = control.NewTokenAuth("")
	}
	s := &Server{
		cfg:       cfg,
		logger:    cfg.Logger,
		mcpServer: server.NewMCPServer("liveslides-mcp", strings.TrimSpace(cfg.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on addr until ctx is canceled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("mcp server listening (sse)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_presentations",
		mcp.WithDescription("List the presentations of the catalog."),
		mcp.WithOutputSchema[ListResponse](),
	), mcp.NewStructuredToolHandler(s.handleList))

	s.mcpServer.AddTool(mcp.NewTool("get_presentation",
		mcp.WithDescription("Get the slides of a presentation."),
		mcp.WithString("code", mcp.Required(), mcp.Description("Presentation code")),
	), s.handleGetPresentation)

	s.mcpServer.AddTool(mcp.NewTool("get_state",
		mcp.WithDescription("Get the slide every participant is on."),
		mcp.WithString("code", mcp.Required(), mcp.Description("Presentation code")),
		mcp.WithOutputSchema[StateResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetState))

	s.mcpServer.AddTool(mcp.NewTool("set_current_slide",
		mcp.WithDescription("Move every participant of a presentation to a slide."),
		mcp.WithString("code", mcp.Required(), mcp.Description("Presentation code")),
		mcp.WithString("slide_id", mcp.Required(), mcp.Description("Target slide id")),
		mcp.WithString("token", mcp.Description("Presenter token, when the server requires one")),
		mcp.WithOutputSchema[StateResponse](),
	), mcp.NewStructuredToolHandler(s.handleSetSlide))

	s.mcpServer.AddTool(mcp.NewTool("step",
		mcp.WithDescription("Advance (delta > 0) or rewind (delta < 0) a presentation in deck order."),
		mcp.WithString("code", mcp.Required(), mcp.Description("Presentation code")),
		mcp.WithNumber("delta", mcp.Description("Number of slides to move, default 1")),
		mcp.WithString("token", mcp.Description("Presenter token, when the server requires one")),
		mcp.WithOutputSchema[StateResponse](),
	), mcp.NewStructuredToolHandler(s.handleStep))

	s.mcpServer.AddTool(mcp.NewTool("get_tally",
		mcp.WithDescription("Get the live tally of audience answers."),
		mcp.WithString("code", mcp.Required(), mcp.Description("Presentation code")),
		mcp.WithOutputSchema[TallyResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetTally))

	s.mcpServer.AddTool(mcp.NewTool("validate_presentation",
		mcp.WithDescription("Validate a presentation document and list authoring warnings."),
		mcp.WithString("document", mcp.Required(), mcp.Description("Presentation JSON")),
	), s.handleValidate)
}

func (s *Server) handleList(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ListResponse, error) {
	entries, err := s.cfg.Catalog.List(ctx)
	if err != nil {
		return ListResponse{}, fmt.Errorf("list failed: %w", err)
	}
	if entries == nil {
		entries = []catalog.Entry{}
	}
	return ListResponse{Presentations: entries}, nil
}

func (s *Server) handleGetPresentation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code := request.GetString("code", "")
	p, err := s.cfg.Catalog.Get(ctx, code)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get presentation failed: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(p)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleGetState(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StateResponse, error) {
	code := domain.NormalizeCode(stringArg(args, "code"))
	st, err := s.cfg.Control.CurrentState(ctx, code)
	if err != nil {
		return StateResponse{}, fmt.Errorf("get state failed: %w", err)
	}
	return StateResponse{Code: code, CurrentSlideID: st.CurrentSlideID}, nil
}

func (s *Server) handleSetSlide(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StateResponse, error) {
	code := domain.NormalizeCode(stringArg(args, "code"))
	slideID := stringArg(args, "slide_id")
	role := s.cfg.Auth.Role(stringArg(args, "token"))

	if err := s.cfg.Control.SetCurrentSlide(ctx, role, code, slideID); err != nil {
		s.logger.WarnContext(ctx, "mcp set_current_slide rejected", "code", code, "slide", slideID, "error", err)
		return StateResponse{}, fmt.Errorf("set current slide failed: %w", err)
	}
	return StateResponse{Code: code, CurrentSlideID: slideID}, nil
}

func (s *Server) handleStep(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StateResponse, error) {
	code := domain.NormalizeCode(stringArg(args, "code"))
	delta := 1
	if v, ok := args["delta"].(float64); ok && v != 0 {
		delta = int(v)
	}
	role := s.cfg.Auth.Role(stringArg(args, "token"))

	slideID, err := s.cfg.Control.Step(ctx, role, code, delta)
	if err != nil {
		return StateResponse{}, fmt.Errorf("step failed: %w", err)
	}
	return StateResponse{Code: code, CurrentSlideID: slideID}, nil
}

func (s *Server) handleGetTally(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TallyResponse, error) {
	code := domain.NormalizeCode(stringArg(args, "code"))
	ok, err := s.cfg.Catalog.Exists(ctx, code)
	if err != nil {
		return TallyResponse{}, err
	}
	if !ok {
		return TallyResponse{}, fmt.Errorf("%w: %s", domain.ErrPresentationNotFound, code)
	}
	board, err := s.cfg.Tally.Board(code)
	if err != nil {
		return TallyResponse{}, fmt.Errorf("tally failed: %w", err)
	}
	snap := board.Snapshot()
	return TallyResponse{Code: code, Entries: snap.Entries, Total: snap.Total}, nil
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p domain.Presentation
	if err := json.Unmarshal([]byte(request.GetString("document", "")), &p); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid JSON: %v", err)), nil
	}
	if err := domain.Validate(&p); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("valid")
	for _, w := range domain.Lint(&p) {
		b.WriteString("\nwarning: ")
		b.WriteString(w.String())
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(presentationsURI, "Presentation Catalog",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		entries, err := s.cfg.Catalog.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list presentations: %w", err)
		}
		jsonBytes, _ := json.Marshal(entries)
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: presentationsURI, MIMEType: "application/json", Text: string(jsonBytes)},
		}, nil
	})

	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(presentationURI, "Presentation",
		mcp.WithTemplateMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		uri := request.Params.URI
		code := strings.TrimPrefix(uri, presentationsURI+"/")
		p, err := s.cfg.Catalog.Get(ctx, code)
		if err != nil {
			return nil, err
		}
		jsonBytes, _ := json.Marshal(p)
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: uri, MIMEType: "application/json", Text: string(jsonBytes)},
		}, nil
	})
}

func stringArg(args map[string]interface{}, key string) string {
	v, _ := args[key].(string)
	return v
}
