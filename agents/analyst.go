package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/va6996/tsetools/log"
	"github.com/va6996/tsetools/tools"
)

// ErrNoModel is returned by Ask when no AI plugin is configured
var ErrNoModel = errors.New("no model configured (set AI_PLUGIN to ollama or gemini)")

const analystSystemPrompt = `You are a market assistant for the Tehran Stock Exchange (TSE).
Answer using the tools available to you and never invent prices.

WORKFLOW:
1. Call search_stock with the company name or ticker the user mentioned.
   If several tickers match and the user's intent is unclear, list them and ask which one they mean.
2. Call get_stock_info for the latest closing price, change and trading volume.
3. Call get_stock_history when the user asks about trends or past prices.
get_stock_info and get_stock_history only work for symbols returned by search_stock.

Every tool returns {"isSuccess", "data", "message"}. When isSuccess is false, relay the message.
Prices are in Iranian rial (IRR). Reply in the user's language.`

// Asker answers free-form questions
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

// Analyst answers questions about TSE stocks by letting a model drive the registered tools
type Analyst struct {
	genkit   *genkit.Genkit
	registry *tools.Registry
	model    ai.Model
	MaxTurns int
	Now      func() time.Time
}

func NewAnalyst(gk *genkit.Genkit, registry *tools.Registry, model ai.Model) *Analyst {
	return &Analyst{
		genkit:   gk,
		registry: registry,
		model:    model,
		MaxTurns: 8,
		Now:      time.Now,
	}
}

// Enabled reports whether a model is available
func (a *Analyst) Enabled() bool {
	return a != nil && a.model != nil && a.genkit != nil
}

// Ask runs one question through the model with the tool registry attached
func (a *Analyst) Ask(ctx context.Context, question string) (string, error) {
	if !a.Enabled() {
		return "", ErrNoModel
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("question is required")
	}

	toolRefs := a.toolRefs()
	log.Debugf(ctx, "Analyst: asking model %v with %d tools", a.model, len(toolRefs))

	response, err := genkit.Generate(ctx,
		a.genkit,
		ai.WithModel(a.model),
		ai.WithSystem(a.systemPrompt()),
		ai.WithPrompt(question),
		ai.WithTools(toolRefs...),
		ai.WithMaxTurns(a.MaxTurns),
	)
	if err != nil {
		log.Errorf(ctx, "Analyst: generate failed: %v", err)
		return "", fmt.Errorf("analysis failed: %w", err)
	}

	text := strings.TrimSpace(response.Text())
	log.Debugf(ctx, "Analyst: finish reason %v, %d chars", response.FinishReason, len(text))
	return text, nil
}

func (a *Analyst) toolRefs() []ai.ToolRef {
	var refs []ai.ToolRef
	if a.registry == nil {
		return refs
	}
	for _, tool := range a.registry.GetTools() {
		refs = append(refs, tool)
	}
	return refs
}

func (a *Analyst) systemPrompt() string {
	return fmt.Sprintf("Today is %s.\n%s", a.Now().Format("2006-01-02"), analystSystemPrompt)
}
