package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/vaultguard"
	"github.com/aretw0/vaultguard/internal/engine"
	"github.com/aretw0/vaultguard/internal/logging"
	"github.com/aretw0/vaultguard/pkg/domain"
	"github.com/aretw0/vaultguard/pkg/runner"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Resource URIs.
const (
	ActionsURI = "vaultguard://actions"
	IntentsURI = "vaultguard://intents"
)

// Resolver turns an action request into a result.
type Resolver interface {
	Decide(ctx context.Context, req engine.ActionRequest) (domain.ActionResult, error)
}

// Classifier answers a chat message.
type Classifier interface {
	Decide(ctx context.Context, req engine.ChatRequest) (domain.ChatTurn, string, error)
}

// AlertChecker evaluates live metrics.
type AlertChecker interface {
	Check(ctx context.Context, riskScore, ltv float64) (domain.Alert, bool, error)
}

// ClassifyResponse is the classify_intent result: the chat turn plus the matched intent.
type ClassifyResponse struct {
	ResponseText    string  `json:"responseText" jsonschema_description:"Markdown reply of Super Eliza"`
	ActionToTrigger *string `json:"actionToTrigger" jsonschema_description:"Action the reply asks to run, or null"`
	Intent          string  `json:"intent" jsonschema_description:"Matched intent name"`
}

// AlertResponse is the check_alert result.
type AlertResponse struct {
	Triggered bool          `json:"triggered" jsonschema_description:"Whether the metrics breach a threshold"`
	Alert     *domain.Alert `json:"alert,omitempty" jsonschema_description:"The alert, when triggered"`
}

// ActionsResource is the content of the actions resource.
type ActionsResource struct {
	Actions    []string          `json:"actions"`
	Severities []domain.Severity `json:"severities"`
}

// Server exposes the VaultGuard engine as an MCP Server.
type Server struct {
	resolver   Resolver
	classifier Classifier
	alerts     AlertChecker
	logger     *slog.Logger
	mcpServer  *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(resolver Resolver, classifier Classifier, alerts AlertChecker, opts ...Option) *Server {
	s := &Server{
		resolver:   resolver,
		classifier: classifier,
		alerts:     alerts,
		logger:     logging.NewNop(),
		mcpServer:  server.NewMCPServer("vaultguard-mcp", vaultguard.Version),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
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
	// TOOL: resolve_action
	resolveTool := mcp.NewTool("resolve_action",
		mcp.WithDescription("Simulate a vault protection action and return its result and metric changes."),
		mcp.WithString("action", mcp.Required(), mcp.Description("Action name, e.g. \"Scan Vault\". Unknown names get a generic result.")),
		mcp.WithBoolean("demoMode", mcp.Description("Enable the demo-only branches (critical scan, vulnerable attack). Defaults to true.")),
		mcp.WithOutputSchema[domain.ActionResult](),
	)
	s.mcpServer.AddTool(resolveTool, mcp.NewStructuredToolHandler(s.handleResolveAction))

	// TOOL: classify_intent
	classifyTool := mcp.NewTool("classify_intent",
		mcp.WithDescription("Answer a chat message as Super Eliza, optionally triggering an action."),
		mcp.WithString("userMessage", mcp.Required(), mcp.Description("The user's message")),
		mcp.WithString("elizaStatus", mcp.Description("Agent status: ACTIVE, SCANNING or IDLE (default IDLE)")),
		mcp.WithNumber("currentStep", mcp.Description("Number of actions run so far")),
		mcp.WithString("aiRecommendedAction", mcp.Description("Currently recommended action, if any")),
		mcp.WithString("auditLogsSummary", mcp.Description("Newline separated audit trail")),
		mcp.WithOutputSchema[ClassifyResponse](),
	)
	s.mcpServer.AddTool(classifyTool, mcp.NewStructuredToolHandler(s.handleClassifyIntent))

	// TOOL: check_alert
	alertTool := mcp.NewTool("check_alert",
		mcp.WithDescription("Run the proactive alert check against live vault metrics."),
		mcp.WithNumber("riskScore", mcp.Required(), mcp.Description("Risk score, 0 to 100")),
		mcp.WithNumber("ltv", mcp.Required(), mcp.Description("Loan-to-value ratio in percent")),
		mcp.WithOutputSchema[AlertResponse](),
	)
	s.mcpServer.AddTool(alertTool, mcp.NewStructuredToolHandler(s.handleCheckAlert))

	// TOOL: evaluate_agent
	agentTool := mcp.NewTool("evaluate_agent",
		mcp.WithDescription("Run one guardian agent on raw readings and return its verdict."),
		mcp.WithString("agent", mcp.Required(), mcp.Enum(engine.Agents()...), mcp.Description("Guardian agent to run")),
		mcp.WithNumber("ltv", mcp.Description("liquidation-watchdog: current loan-to-value in percent")),
		mcp.WithNumber("maxLTV", mcp.Description("liquidation-watchdog: LTV limit in percent")),
		mcp.WithNumber("gas", mcp.Description("mev-defense: gas price in gwei")),
		mcp.WithBoolean("mempoolAlert", mcp.Description("mev-defense: whether the mempool shows sandwich activity")),
		mcp.WithNumber("price", mcp.Description("oracle-action: oracle price")),
		mcp.WithNumber("threshold", mcp.Description("oracle-action: price below which the action triggers")),
		mcp.WithString("action", mcp.Description("oracle-action: action to trigger")),
		mcp.WithNumber("currentAPR", mcp.Description("yield-switch: APR of the current vault")),
		mcp.WithNumber("bestAPR", mcp.Description("yield-switch: best APR on offer")),
		mcp.WithString("pool", mcp.Description("yield-switch: pool offering bestAPR")),
		mcp.WithOutputSchema[engine.Verdict](),
	)
	s.mcpServer.AddTool(agentTool, mcp.NewStructuredToolHandler(s.handleEvaluateAgent))
}

func (s *Server) handleEvaluateAgent(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (engine.Verdict, error) {
	agent, _ := args["agent"].(string)
	number := func(key string) *float64 {
		if v, ok := args[key].(float64); ok {
			return &v
		}
		return nil
	}
	req := engine.AgentRequest{
		LTV:        number("ltv"),
		MaxLTV:     number("maxLTV"),
		Gas:        number("gas"),
		Price:      number("price"),
		Threshold:  number("threshold"),
		CurrentAPR: number("currentAPR"),
		BestAPR:    number("bestAPR"),
	}
	req.MempoolAlert, _ = args["mempoolAlert"].(bool)

	for _, field := range []struct {
		key string
		dst *string
	}{{"action", &req.Action}, {"pool", &req.Pool}} {
		raw, _ := args[field.key].(string)
		if raw == "" {
			continue
		}
		clean, err := runner.SanitizeMessage(raw)
		if err != nil {
			return engine.Verdict{}, fmt.Errorf("%w: %s: %v", domain.ErrInvalidRequest, field.key, err)
		}
		*field.dst = clean
	}

	verdict, err := engine.EvaluateAgent(agent, req)
	if err != nil {
		s.logger.Warn("MCP evaluate_agent: Input rejected", "agent", agent, "err", err)
		return engine.Verdict{}, err
	}
	return verdict, nil
}

func (s *Server) handleResolveAction(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (domain.ActionResult, error) {
	action, _ := args["action"].(string)
	clean, err := runner.SanitizeMessage(action)
	if err != nil {
		s.logger.Warn("MCP resolve_action: Input rejected", "err", err, "size", len(action))
		return domain.ActionResult{}, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}

	demo := true
	if v, ok := args["demoMode"].(bool); ok {
		demo = v
	}
	return s.resolver.Decide(ctx, engine.ActionRequest{Action: clean, DemoMode: demo})
}

func (s *Server) handleClassifyIntent(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ClassifyResponse, error) {
	msg, _ := args["userMessage"].(string)
	clean, err := runner.SanitizeMessage(msg)
	if err != nil {
		s.logger.Warn("MCP classify_intent: Input rejected", "err", err, "size", len(msg))
		return ClassifyResponse{}, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}

	req := engine.ChatRequest{UserMessage: clean, Status: domain.AgentIdle}
	if v, ok := args["elizaStatus"].(string); ok && v != "" {
		req.Status = domain.AgentStatus(v)
	}
	if v, ok := args["currentStep"].(float64); ok {
		req.Step = int(v)
	}
	if v, ok := args["aiRecommendedAction"].(string); ok && v != "" {
		req.RecommendedAction = &v
	}
	if v, ok := args["auditLogsSummary"].(string); ok {
		req.AuditSummary = v
	}

	turn, intent, err := s.classifier.Decide(ctx, req)
	if err != nil {
		return ClassifyResponse{}, err
	}
	return ClassifyResponse{ResponseText: turn.ResponseText, ActionToTrigger: turn.ActionToTrigger, Intent: intent}, nil
}

func (s *Server) handleCheckAlert(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (AlertResponse, error) {
	risk, ok1 := args["riskScore"].(float64)
	ltv, ok2 := args["ltv"].(float64)
	if !ok1 || !ok2 {
		return AlertResponse{}, fmt.Errorf("%w: riskScore and ltv must be numbers", domain.ErrInvalidRequest)
	}

	alert, triggered, err := s.alerts.Check(ctx, risk, ltv)
	if err != nil {
		return AlertResponse{}, err
	}
	if !triggered {
		return AlertResponse{}, nil
	}
	return AlertResponse{Triggered: true, Alert: &alert}, nil
}

func (s *Server) registerResources() {
	// EXPOSE: vaultguard://actions
	s.mcpServer.AddResource(mcp.NewResource(ActionsURI, "Action Vocabulary",
		mcp.WithResourceDescription("Recognized action names and result severities"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return jsonResource(ActionsURI, actionsResource())
	})

	// EXPOSE: vaultguard://intents
	s.mcpServer.AddResource(mcp.NewResource(IntentsURI, "Intent Keywords",
		mcp.WithResourceDescription("Chat intents in match order with their keywords and triggered action"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return jsonResource(IntentsURI, intentsResource())
	})
}

func actionsResource() ActionsResource {
	return ActionsResource{
		Actions:    domain.Actions(),
		Severities: []domain.Severity{domain.SeveritySuccess, domain.SeverityWarning, domain.SeverityInfo, domain.SeverityError},
	}
}

type intentEntry struct {
	Intent   string   `json:"intent"`
	Keywords []string `json:"keywords"`
	Action   string   `json:"action,omitempty"`
}

func intentsResource() []intentEntry {
	rules := engine.Rules()
	out := make([]intentEntry, len(rules))
	for i, r := range rules {
		out[i] = intentEntry{Intent: r.Intent, Keywords: r.Keywords, Action: r.Action}
	}
	return out
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
