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

	"github.com/aretw0/dialoguetree"
	"github.com/aretw0/dialoguetree/internal/logging"
	"github.com/aretw0/dialoguetree/internal/presentation/graph"
	"github.com/aretw0/dialoguetree/pkg/compiler"
	"github.com/aretw0/dialoguetree/pkg/domain"
	"github.com/aretw0/dialoguetree/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const assetURIPrefix = "dialoguetree://assets/"

// CompileResult is returned by the compile and inspect tools.
type CompileResult struct {
	AssetID     string          `json:"asset_id" jsonschema_description:"Id of the compiled asset"`
	RuntimeData string          `json:"runtime_data,omitempty" jsonschema_description:"Runtime token stream"`
	Runtime     *compiler.View  `json:"runtime" jsonschema_description:"Decoded runtime entries"`
	Report      compiler.Report `json:"report" jsonschema_description:"Reachability from the start node"`
}

// EditResult is returned by the editing tools.
type EditResult struct {
	AssetID   string    `json:"asset_id"`
	NodeID    int       `json:"node_id,omitempty"`
	PlugID    int       `json:"plug_id,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListResult is returned by list_assets.
type ListResult struct {
	Assets []string `json:"assets"`
}

type compileArgs struct {
	AuthoringData string `json:"authoring_data"`
}

type assetArgs struct {
	AssetID string `json:"asset_id"`
}

type importArgs struct {
	AssetID       string `json:"asset_id"`
	AuthoringData string `json:"authoring_data"`
}

type addNodeArgs struct {
	AssetID string  `json:"asset_id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

type updateNodeArgs struct {
	AssetID string  `json:"asset_id"`
	NodeID  int     `json:"node_id"`
	Speaker *string `json:"speaker"`
	Body    *string `json:"body"`
	Preview *string `json:"preview"`
	Start   *bool   `json:"start"`
}

type addOptionArgs struct {
	AssetID string `json:"asset_id"`
	NodeID  int    `json:"node_id"`
	Target  *int   `json:"target"`
}

type nodeArgs struct {
	AssetID string `json:"asset_id"`
	NodeID  int    `json:"node_id"`
}

// Server exposes dialogue assets as MCP tools and resources.
type Server struct {
	sessions    *session.Manager
	logger      *slog.Logger
	compileOpts []dialoguetree.Option
	mcpServer   *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithCompileOptions passes options to the builder used by compile_dialogue.
func WithCompileOptions(opts ...dialoguetree.Option) Option {
	return func(s *Server) {
		s.compileOpts = append(s.compileOpts, opts...)
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		sessions:  sessions,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("dialoguetree-mcp", strings.TrimSpace(dialoguetree.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
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
	// TOOL: compile_dialogue
	s.mcpServer.AddTool(mcp.NewTool("compile_dialogue",
		mcp.WithDescription("Compile an authoring stream into its runtime form without storing it."),
		mcp.WithString("authoring_data", mcp.Required(), mcp.Description("Authoring token stream")),
		mcp.WithOutputSchema[CompileResult](),
	), mcp.NewStructuredToolHandler(s.handleCompile))

	// TOOL: list_assets
	s.mcpServer.AddTool(mcp.NewTool("list_assets",
		mcp.WithDescription("List the ids of stored dialogue assets."),
		mcp.WithOutputSchema[ListResult](),
	), mcp.NewStructuredToolHandler(s.handleList))

	// TOOL: inspect_asset
	s.mcpServer.AddTool(mcp.NewTool("inspect_asset",
		mcp.WithDescription("Decode the runtime form of a stored asset and report reachability."),
		mcp.WithString("asset_id", mcp.Required(), mcp.Description("Asset id")),
		mcp.WithOutputSchema[CompileResult](),
	), mcp.NewStructuredToolHandler(s.handleInspect))

	// TOOL: import_asset
	s.mcpServer.AddTool(mcp.NewTool("import_asset",
		mcp.WithDescription("Store an authoring stream under an asset id, recompiling its runtime form."),
		mcp.WithString("asset_id", mcp.Required(), mcp.Description("Asset id")),
		mcp.WithString("authoring_data", mcp.Required(), mcp.Description("Authoring token stream")),
		mcp.WithOutputSchema[EditResult](),
	), mcp.NewStructuredToolHandler(s.handleImport))

	// TOOL: add_node
	s.mcpServer.AddTool(mcp.NewTool("add_node",
		mcp.WithDescription("Add an empty dialogue node to an asset. Creates the asset if missing."),
		mcp.WithString("asset_id", mcp.Required(), mcp.Description("Asset id")),
		mcp.WithNumber("x", mcp.Description("Editor X position")),
		mcp.WithNumber("y", mcp.Description("Editor Y position")),
		mcp.WithOutputSchema[EditResult](),
	), mcp.NewStructuredToolHandler(s.handleAddNode))

	// TOOL: update_node
	s.mcpServer.AddTool(mcp.NewTool("update_node",
		mcp.WithDescription("Change the speaker, body, preview or start flag of a node. Omitted fields are kept."),
		mcp.WithString("asset_id", mcp.Required(), mcp.Description("Asset id")),
		mcp.WithNumber("node_id", mcp.Required(), mcp.Description("Node id")),
		mcp.WithString("speaker", mcp.Description("Speaker name")),
		mcp.WithString("body", mcp.Description("Line spoken")),
		mcp.WithString("preview", mcp.Description("Label shown on options leading here")),
		mcp.WithBoolean("start", mcp.Description("Flag as the start node")),
		mcp.WithOutputSchema[EditResult](),
	), mcp.NewStructuredToolHandler(s.handleUpdateNode))

	// TOOL: add_option
	s.mcpServer.AddTool(mcp.NewTool("add_option",
		mcp.WithDescription("Append a dialogue option to a node, optionally leading to a target node."),
		mcp.WithString("asset_id", mcp.Required(), mcp.Description("Asset id")),
		mcp.WithNumber("node_id", mcp.Required(), mcp.Description("Node id")),
		mcp.WithNumber("target", mcp.Description("Target node id")),
		mcp.WithOutputSchema[EditResult](),
	), mcp.NewStructuredToolHandler(s.handleAddOption))

	// TOOL: remove_node
	s.mcpServer.AddTool(mcp.NewTool("remove_node",
		mcp.WithDescription("Remove a node and every connection touching it."),
		mcp.WithString("asset_id", mcp.Required(), mcp.Description("Asset id")),
		mcp.WithNumber("node_id", mcp.Required(), mcp.Description("Node id")),
		mcp.WithOutputSchema[EditResult](),
	), mcp.NewStructuredToolHandler(s.handleRemoveNode))

	// TOOL: asset_graph
	s.mcpServer.AddTool(mcp.NewTool("asset_graph",
		mcp.WithDescription("Render a stored asset as a Mermaid flowchart."),
		mcp.WithString("asset_id", mcp.Required(), mcp.Description("Asset id")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("asset_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		chart, err := s.graph(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("graph failed: %v", err)), nil
		}
		return mcp.NewToolResultText(chart), nil
	})
}

// Handler methods for structured tools

func (s *Server) handleCompile(ctx context.Context, request mcp.CallToolRequest, args compileArgs) (CompileResult, error) {
	b := dialoguetree.New("preview", append([]dialoguetree.Option{dialoguetree.WithLogger(s.logger)}, s.compileOpts...)...)
	if err := b.Open(&domain.Asset{ID: b.ID(), AuthoringData: args.AuthoringData}); err != nil {
		return CompileResult{}, fmt.Errorf("compile failed: %w", err)
	}
	asset, err := b.Compile()
	if err != nil {
		return CompileResult{}, fmt.Errorf("compile failed: %w", err)
	}
	return s.describe(asset)
}

func (s *Server) handleList(ctx context.Context, request mcp.CallToolRequest, args struct{}) (ListResult, error) {
	ids, err := s.sessions.List(ctx)
	if err != nil {
		return ListResult{}, fmt.Errorf("list failed: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ListResult{Assets: ids}, nil
}

func (s *Server) handleInspect(ctx context.Context, request mcp.CallToolRequest, args assetArgs) (CompileResult, error) {
	asset, err := s.sessions.Load(ctx, args.AssetID)
	if err != nil {
		return CompileResult{}, fmt.Errorf("inspect failed: %w", err)
	}
	res, err := s.describe(asset)
	res.RuntimeData = ""
	return res, err
}

func (s *Server) handleImport(ctx context.Context, request mcp.CallToolRequest, args importArgs) (EditResult, error) {
	if args.AssetID == "" {
		return EditResult{}, errors.New("asset_id is required")
	}
	asset, err := s.sessions.Import(ctx, args.AssetID, args.AuthoringData)
	if err != nil {
		return EditResult{}, fmt.Errorf("import failed: %w", err)
	}
	return EditResult{AssetID: asset.ID, UpdatedAt: asset.UpdatedAt}, nil
}

func (s *Server) handleAddNode(ctx context.Context, request mcp.CallToolRequest, args addNodeArgs) (EditResult, error) {
	nodeID, asset, err := s.sessions.AddNode(ctx, args.AssetID, domain.Vector2{X: args.X, Y: args.Y})
	if err != nil {
		return EditResult{}, fmt.Errorf("add node failed: %w", err)
	}
	return EditResult{AssetID: asset.ID, NodeID: nodeID, UpdatedAt: asset.UpdatedAt}, nil
}

func (s *Server) handleUpdateNode(ctx context.Context, request mcp.CallToolRequest, args updateNodeArgs) (EditResult, error) {
	patch := session.NodePatch{
		Speaker: args.Speaker,
		Body:    args.Body,
		Preview: args.Preview,
		Start:   args.Start,
	}
	asset, err := s.sessions.UpdateNode(ctx, args.AssetID, args.NodeID, patch)
	if err != nil {
		return EditResult{}, fmt.Errorf("update node failed: %w", err)
	}
	return EditResult{AssetID: asset.ID, NodeID: args.NodeID, UpdatedAt: asset.UpdatedAt}, nil
}

func (s *Server) handleAddOption(ctx context.Context, request mcp.CallToolRequest, args addOptionArgs) (EditResult, error) {
	plugID, asset, err := s.sessions.AddOption(ctx, args.AssetID, args.NodeID, args.Target)
	if err != nil {
		return EditResult{}, fmt.Errorf("add option failed: %w", err)
	}
	return EditResult{AssetID: asset.ID, NodeID: args.NodeID, PlugID: plugID, UpdatedAt: asset.UpdatedAt}, nil
}

func (s *Server) handleRemoveNode(ctx context.Context, request mcp.CallToolRequest, args nodeArgs) (EditResult, error) {
	asset, err := s.sessions.RemoveNode(ctx, args.AssetID, args.NodeID)
	if err != nil {
		return EditResult{}, fmt.Errorf("remove node failed: %w", err)
	}
	return EditResult{AssetID: asset.ID, UpdatedAt: asset.UpdatedAt}, nil
}

func (s *Server) describe(asset *domain.Asset) (CompileResult, error) {
	view, err := dialoguetree.LoadRuntime(asset)
	if err != nil {
		return CompileResult{}, fmt.Errorf("decode runtime: %w", err)
	}
	return CompileResult{
		AssetID:     asset.ID,
		RuntimeData: asset.RuntimeData,
		Runtime:     view,
		Report:      compiler.Reachability(view),
	}, nil
}

func (s *Server) graph(ctx context.Context, assetID string) (string, error) {
	asset, err := s.sessions.Load(ctx, assetID)
	if err != nil {
		return "", err
	}
	view, err := dialoguetree.LoadRuntime(asset)
	if err != nil {
		return "", err
	}
	return graph.GenerateMermaid(view, graph.OverlayFromReport(compiler.Reachability(view))), nil
}

func (s *Server) registerResources() {
	// EXPOSE: dialoguetree://assets
	s.mcpServer.AddResource(mcp.NewResource("dialoguetree://assets", "Stored dialogue assets",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		res, err := s.handleList(ctx, mcp.CallToolRequest{}, struct{}{})
		if err != nil {
			return nil, err
		}
		jsonBytes, _ := json.Marshal(res)
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "dialoguetree://assets",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})

	// EXPOSE: dialoguetree://assets/{id}
	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(assetURIPrefix+"{id}", "Runtime form of a dialogue asset",
		mcp.WithTemplateMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		id := strings.TrimPrefix(request.Params.URI, assetURIPrefix)
		asset, err := s.sessions.Load(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load asset: %w", err)
		}
		view, err := dialoguetree.LoadRuntime(asset)
		if err != nil {
			return nil, fmt.Errorf("failed to decode asset: %w", err)
		}
		jsonBytes, _ := json.Marshal(view)
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      request.Params.URI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
