package engine

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/aretw0/vaultguard/pkg/domain"
)

//go:embed replies/*.md
var replyFS embed.FS

// HistoryWindow is the number of trailing audit characters quoted by the history reply.
const HistoryWindow = 300

// Intent names. IntentGeneric marks a message no keyword group matched.
const (
	IntentConnect = "connect"
	IntentScan    = "scan"
	IntentProtect = "protect"
	IntentYield   = "yield"
	IntentAttack  = "attack"
	IntentStatus  = "status"
	IntentMEV     = "mev"
	IntentHistory = "history"
	IntentHelp    = "help"
	IntentGeneric = "generic"
)

// ChatRequest carries a user message and the session context the replies quote.
type ChatRequest struct {
	UserMessage       string             `json:"userMessage"`
	Status            domain.AgentStatus `json:"elizaStatus"`
	Step              int                `json:"currentStep"`
	RecommendedAction *string            `json:"aiRecommendedAction"`
	AuditSummary      string             `json:"auditLogsSummary"`
}

// Rule is one keyword group of the classifier, in priority order.
type Rule struct {
	Intent   string
	Keywords []string
	Action   string
	reply    *template.Template
}

// Matches reports whether the lowercased message contains any keyword.
func (r Rule) Matches(lower string) bool {
	for _, kw := range r.Keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

var (
	rules = []Rule{
		{Intent: IntentConnect, Keywords: []string{"connect", "wallet"}, Action: domain.ActionConnectWallet},
		{Intent: IntentScan, Keywords: []string{"scan", "analyze", "check"}, Action: domain.ActionScanVault},
		{Intent: IntentProtect, Keywords: []string{"protect", "liquidation", "anti"}, Action: domain.ActionAntiLiquidation},
		{Intent: IntentYield, Keywords: []string{"optimize", "yield", "apy"}, Action: domain.ActionOptimizeYield},
		{Intent: IntentAttack, Keywords: []string{"attack", "test", "security", "simulate"}, Action: domain.ActionSimulateAttack},
		{Intent: IntentStatus, Keywords: []string{"status", "report"}},
		{Intent: IntentMEV, Keywords: []string{"mev"}},
		{Intent: IntentHistory, Keywords: []string{"log", "history"}},
		{Intent: IntentHelp, Keywords: []string{"help", "what"}},
	}
	genericReplies []*template.Template
)

func init() {
	for i := range rules {
		rules[i].reply = mustReply(rules[i].Intent)
	}
	for _, name := range []string{"generic_analysis", "generic_market", "generic_security", "generic_recommendations"} {
		genericReplies = append(genericReplies, mustReply(name))
	}
}

func mustReply(name string) *template.Template {
	return template.Must(template.ParseFS(replyFS, "replies/"+name+".md"))
}

// Rules returns a copy of the keyword groups in evaluation order.
func Rules() []Rule {
	return append([]Rule(nil), rules...)
}

// MatchIntent returns the first rule matching message, case-insensitively.
func MatchIntent(message string) (Rule, bool) {
	lower := strings.ToLower(message)
	for _, r := range rules {
		if r.Matches(lower) {
			return r, true
		}
	}
	return Rule{Intent: IntentGeneric}, false
}

// GenericReplies is the number of fallback replies chosen from uniformly.
func GenericReplies() int {
	return len(genericReplies)
}

// Classifier maps free text to a canned reply and an optional action.
type Classifier struct {
	opts options
}

// NewClassifier creates a classifier with the default 1.5s + up to 2s latency.
func NewClassifier(opts ...Option) *Classifier {
	return &Classifier{opts: newOptions(ClassifyDelay, opts)}
}

type replyData struct {
	Status            domain.AgentStatus
	Step              int
	RecommendedAction string
	RecentAudit       string
}

// Classify waits the simulated latency and picks the reply for req.
// The random source is drawn once for the delay and, only when no keyword
// group matches, once more to choose the generic reply.
func (c *Classifier) Classify(ctx context.Context, req ChatRequest) (domain.ChatTurn, string, error) {
	if err := c.opts.pause(ctx); err != nil {
		return domain.ChatTurn{}, "", err
	}

	data := replyData{
		Status:      req.Status,
		Step:        req.Step,
		RecentAudit: tail(req.AuditSummary, HistoryWindow),
	}
	if req.RecommendedAction != nil {
		data.RecommendedAction = *req.RecommendedAction
	}

	rule, matched := MatchIntent(req.UserMessage)
	tmpl := rule.reply
	if !matched {
		i := int(c.opts.random.Float64() * float64(len(genericReplies)))
		tmpl = genericReplies[min(i, len(genericReplies)-1)]
	}

	text, err := render(tmpl, data)
	if err != nil {
		return domain.ChatTurn{}, "", err
	}

	turn := domain.ChatTurn{ResponseText: text}
	if rule.Action != "" {
		turn.ActionToTrigger = next(rule.Action)
	}
	c.opts.logger.Debug("Intent classified", "intent", rule.Intent, "action", rule.Action)
	return turn, rule.Intent, nil
}

// Decide validates a boundary request before classifying it.
func (c *Classifier) Decide(ctx context.Context, req ChatRequest) (domain.ChatTurn, string, error) {
	if strings.TrimSpace(req.UserMessage) == "" {
		return domain.ChatTurn{}, "", fmt.Errorf("%w: userMessage is required", domain.ErrInvalidRequest)
	}
	if req.Status != "" && !req.Status.Valid() {
		return domain.ChatTurn{}, "", fmt.Errorf("%w: unknown status %q", domain.ErrInvalidRequest, req.Status)
	}
	if req.Step < 0 {
		return domain.ChatTurn{}, "", fmt.Errorf("%w: currentStep must not be negative", domain.ErrInvalidRequest)
	}
	return c.Classify(ctx, req)
}

func render(tmpl *template.Template, data replyData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering reply %s: %w", tmpl.Name(), err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// tail returns the last n runes of s.
func tail(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
