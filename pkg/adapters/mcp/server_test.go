package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/vaultguard/internal/engine"
	"github.com/aretw0/vaultguard/pkg/domain"
	"github.com/aretw0/vaultguard/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(rolls ...float64) *Server {
	opts := []engine.Option{engine.WithRandom(ports.Sequence(rolls...)), engine.WithWaiter(ports.NoWait)}
	return NewServer(engine.NewResolver(opts...), engine.NewClassifier(opts...), engine.NewMonitor(opts...))
}

func TestResolveAction(t *testing.T) {
	s := newTestServer(0, 0)
	ctx := context.Background()

	res, err := s.handleResolveAction(ctx, mcp.CallToolRequest{}, map[string]interface{}{"action": "Scan Vault"})
	require.NoError(t, err)
	assert.Equal(t, domain.SeverityError, res.Severity, "demo mode defaults on")
	assert.Equal(t, domain.ActionAntiLiquidation, res.FollowUp())

	res, err = s.handleResolveAction(ctx, mcp.CallToolRequest{}, map[string]interface{}{"action": "Scan Vault", "demoMode": false})
	require.NoError(t, err)
	assert.NotEqual(t, domain.SeverityError, res.Severity)

	_, err = s.handleResolveAction(ctx, mcp.CallToolRequest{}, map[string]interface{}{"action": " \x00 "})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = s.handleResolveAction(ctx, mcp.CallToolRequest{}, map[string]interface{}{})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestClassifyIntent(t *testing.T) {
	s := newTestServer(0)
	ctx := context.Background()

	resp, err := s.handleClassifyIntent(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"userMessage":         "give me a status report",
		"elizaStatus":         "ACTIVE",
		"currentStep":         float64(4),
		"aiRecommendedAction": "Optimize Yield",
	})
	require.NoError(t, err)
	assert.Equal(t, engine.IntentStatus, resp.Intent)
	assert.Nil(t, resp.ActionToTrigger)
	assert.Contains(t, resp.ResponseText, "ACTIVE")
	assert.Contains(t, resp.ResponseText, "Optimize Yield")

	resp, err = s.handleClassifyIntent(ctx, mcp.CallToolRequest{}, map[string]interface{}{"userMessage": "connect"})
	require.NoError(t, err)
	require.NotNil(t, resp.ActionToTrigger)
	assert.Equal(t, domain.ActionConnectWallet, *resp.ActionToTrigger)

	_, err = s.handleClassifyIntent(ctx, mcp.CallToolRequest{}, map[string]interface{}{"userMessage": "hi", "elizaStatus": "ASLEEP"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestCheckAlert(t *testing.T) {
	s := newTestServer(0)
	ctx := context.Background()

	resp, err := s.handleCheckAlert(ctx, mcp.CallToolRequest{}, map[string]interface{}{"riskScore": 81.0, "ltv": 10.0})
	require.NoError(t, err)
	require.True(t, resp.Triggered)
	assert.Equal(t, domain.UrgencyCritical, resp.Alert.Urgency)

	resp, err = s.handleCheckAlert(ctx, mcp.CallToolRequest{}, map[string]interface{}{"riskScore": 80.0, "ltv": 85.0})
	require.NoError(t, err)
	assert.False(t, resp.Triggered)
	assert.Nil(t, resp.Alert)

	_, err = s.handleCheckAlert(ctx, mcp.CallToolRequest{}, map[string]interface{}{"riskScore": "high"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestResources(t *testing.T) {
	contents, err := jsonResource(ActionsURI, actionsResource())
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text := contents[0].(mcp.TextResourceContents)
	assert.Equal(t, ActionsURI, text.URI)

	var actions ActionsResource
	require.NoError(t, json.Unmarshal([]byte(text.Text), &actions))
	assert.Equal(t, domain.Actions(), actions.Actions)
	assert.Len(t, actions.Severities, 4)

	intents := intentsResource()
	require.NotEmpty(t, intents)
	assert.Equal(t, engine.IntentConnect, intents[0].Intent)
	assert.Equal(t, domain.ActionConnectWallet, intents[0].Action)
	assert.NotNil(t, newTestServer(0).MCPServer())
}

func TestEvaluateAgent(t *testing.T) {
	s := newTestServer(0)
	ctx := context.Background()

	v, err := s.handleEvaluateAgent(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"agent":      engine.AgentYieldSwitch,
		"currentAPR": 5.0,
		"bestAPR":    6.6,
		"pool":       "Convex stETH",
	})
	require.NoError(t, err)
	assert.True(t, v.Triggered)
	assert.Equal(t, "🔁 Switch to Convex stETH with APR 6.6% (current: 5%)", v.Message)

	v, err = s.handleEvaluateAgent(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"agent": engine.AgentMEVDefense, "gas": 180.0, "mempoolAlert": true,
	})
	require.NoError(t, err)
	assert.True(t, v.Triggered)

	_, err = s.handleEvaluateAgent(ctx, mcp.CallToolRequest{}, map[string]interface{}{"agent": engine.AgentLiquidationWatchdog, "ltv": 50.0})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = s.handleEvaluateAgent(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"agent": engine.AgentOracleAction, "price": 1.0, "threshold": 2.0, "action": "\x00",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = s.handleEvaluateAgent(ctx, mcp.CallToolRequest{}, map[string]interface{}{"agent": "flash-loan"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}
