package bootstrap

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"

	"github.com/va6996/tsetools/agents"
	"github.com/va6996/tsetools/config"
	"github.com/va6996/tsetools/log"
	"github.com/va6996/tsetools/plugins/tsetmc"
	"github.com/va6996/tsetools/tools"
)

// App holds the initialized components of the application
type App struct {
	Genkit   *genkit.Genkit
	Registry *tools.Registry
	Cache    tsetmc.SymbolCache
	Stocks   *tsetmc.StockTools
	Analyst  *agents.Analyst
	Model    ai.Model
}

// Setup initializes the application components based on the configuration
func Setup(ctx context.Context, cfg *config.Config) (*App, error) {
	// 1. Setup Genkit, with a model plugin when one is configured
	var gk *genkit.Genkit
	var model ai.Model

	switch cfg.AI.Plugin {
	case "ollama":
		log.Infof(ctx, "Using Ollama Plugin (Model: %s)...", cfg.AI.Ollama.Model)
		ollamaPlugin := &ollama.Ollama{
			ServerAddress: cfg.AI.Ollama.BaseURL,
		}
		gk = genkit.Init(ctx, genkit.WithPlugins(ollamaPlugin))

		model = ollamaPlugin.DefineModel(gk, ollama.ModelDefinition{
			Name: cfg.AI.Ollama.Model,
			Type: "chat",
		}, &ai.ModelOptions{
			Supports: &ai.ModelSupports{
				Multiturn:  true,
				SystemRole: true,
				Tools:      true,
				Media:      false,
			},
		})
	case "gemini":
		log.Infof(ctx, "Using Gemini Plugin (Model: %s)...", cfg.AI.Gemini.Model)
		if cfg.AI.Gemini.APIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY must be set (or set AI_PLUGIN=ollama)")
		}
		gk = genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{
			APIKey: cfg.AI.Gemini.APIKey,
		}))
		model = googlegenai.GoogleAIModel(gk, cfg.AI.Gemini.Model)
	default:
		log.Info(ctx, "No AI plugin configured, analyst disabled")
		gk = genkit.Init(ctx)
	}

	// 2. Init Tools Registry and the TSETMC tools
	registry := tools.NewRegistry()
	cache := tsetmc.NewMemoryCache()
	client := tsetmc.NewClient(cfg.TSETMC.BaseURL, cfg.TSETMC.UserAgent, cfg.TSETMC.Timeout())
	stocks := tsetmc.NewStockTools(client, cache, gk, registry)

	// 3. Analyst agent on top of the registry
	analyst := agents.NewAnalyst(gk, registry, model)

	return &App{
		Genkit:   gk,
		Registry: registry,
		Cache:    cache,
		Stocks:   stocks,
		Analyst:  analyst,
		Model:    model,
	}, nil
}
