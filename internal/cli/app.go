package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/oygul/asil/assistant"
	"github.com/oygul/asil/backend"
	"github.com/oygul/asil/conversation"
	"github.com/oygul/asil/core"
	"github.com/oygul/asil/erptool"
	"github.com/oygul/asil/internal/config"
	"github.com/oygul/asil/internal/metrics"
	"github.com/oygul/asil/logging"
	"github.com/oygul/asil/model"
	"github.com/oygul/asil/model/anthropic"
	"github.com/oygul/asil/model/gemini"
	"github.com/oygul/asil/model/openai"
	"github.com/oygul/asil/runner"
	"github.com/oygul/asil/session"
)

// app holds the components shared by every front end.
type app struct {
	cfg     *config.Config
	logger  logging.Logger
	metrics *metrics.Metrics
	store   *session.InMemoryStore
	client  *backend.Client
	runner  *runner.Runner
	manager *conversation.Manager
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Config{
		Backend:   cfg.Log.Backend,
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		Output:    os.Stderr,
		Redaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	m := metrics.NewMetrics()

	client := backend.New(cfg.Backend.URL,
		backend.WithTimeout(cfg.Backend.Timeout),
		backend.WithLogger(logger),
		backend.WithMetrics(m),
	)

	llm, err := newModel(ctx, cfg.Model)
	if err != nil {
		return nil, err
	}

	catalog, err := loadCatalog(cfg.Agent.Catalog)
	if err != nil {
		return nil, err
	}

	classifier, err := assistant.NewClassifier(cfg.Model.RouterMode, llm, catalog)
	if err != nil {
		return nil, err
	}

	orchestrator, err := assistant.Build(catalog, llm, erptool.NewSuite(client, erptool.WithMetrics(m)), assistant.Options{
		Classifier: classifier,
		Metrics:    m,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build agents: %w", err)
	}

	store := session.NewInMemoryStore()
	r := runner.New(orchestrator, func(o *runner.Options) {
		o.SessionStore = store
		o.MaxModelCalls = cfg.Agent.MaxModelCalls
		o.MaxConcurrentInvocations = cfg.Agent.MaxConcurrency
		o.Logger = logger
	})

	responder := turnTimeout{next: r, timeout: cfg.Agent.TurnTimeout}
	manager := conversation.NewManager(store, responder, client, func(o *conversation.Options) {
		o.AppName = cfg.Agent.AppName
		o.Logger = logger
	})

	logger.Info("asil.started",
		"provider", cfg.Model.Provider,
		"model", llm.Info().Name,
		"router", cfg.Model.RouterMode,
		"api", client.BaseURL(),
	)

	return &app{cfg: cfg, logger: logger, metrics: m, store: store, client: client, runner: r, manager: manager}, nil
}

// close logs the metric totals of the process.
func (a *app) close() {
	totals, err := a.metrics.Totals()
	if err != nil {
		a.logger.Warn("asil.metrics.failed", "error", err)
		return
	}
	a.logger.Info("asil.stopped", metrics.KeyValues(totals)...)
}

func applyFlags(cfg *config.Config) {
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if provider != "" {
		cfg.Model.Provider = provider
	}
	if modelName != "" {
		cfg.Model.Name = modelName
	}
	if routerMode != "" {
		cfg.Model.RouterMode = routerMode
	}
	if catalogPath != "" {
		cfg.Agent.Catalog = catalogPath
	}
}

func loadCatalog(path string) (*assistant.Catalog, error) {
	if path == "" {
		return assistant.DefaultCatalog()
	}
	return assistant.LoadCatalog(path)
}

func newModel(ctx context.Context, cfg config.ModelConfig) (model.Model, error) {
	switch cfg.Provider {
	case "openai":
		return openai.NewModel(func(o *openai.Options) {
			if cfg.Name != "" {
				o.Model = cfg.Name
			}
			o.Temperature = cfg.Temperature
			o.MaxCompletionTokens = int64(cfg.MaxOutputTokens)
			o.APIKey = cfg.OpenAIKey
			o.BaseURL = cfg.OpenAIBaseURL
		}), nil
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.Name != "" {
				o.Model = anthropicsdk.Model(cfg.Name)
			}
			o.Temperature = cfg.Temperature
			o.MaxTokens = int64(cfg.MaxOutputTokens)
			o.APIKey = cfg.AnthropicKey
		}), nil
	case "gemini":
		m, err := gemini.NewModel(ctx, func(o *gemini.Options) {
			if cfg.Name != "" {
				o.Model = cfg.Name
			}
			o.Temperature = cfg.Temperature
			o.MaxOutputTokens = int32(cfg.MaxOutputTokens)
			o.APIKey = cfg.GeminiKey
		})
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}

// turnTimeout bounds every turn by timeout.
type turnTimeout struct {
	next    conversation.Responder
	timeout time.Duration
}

func (t turnTimeout) Respond(ctx context.Context, key core.SessionKey, text string) (string, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	return t.next.Respond(ctx, key, text)
}
