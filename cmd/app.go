package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/nextgensultan/agentic-policybased-chatbot/agent/agents/assistant"
	"github.com/nextgensultan/agentic-policybased-chatbot/agent/agents/orchestrator"
	contractx "github.com/nextgensultan/agentic-policybased-chatbot/agent/contract"
	"github.com/nextgensultan/agentic-policybased-chatbot/agent/llm"
	"github.com/nextgensultan/agentic-policybased-chatbot/agent/order"
	"github.com/nextgensultan/agentic-policybased-chatbot/agent/order/csvstore"
	"github.com/nextgensultan/agentic-policybased-chatbot/agent/order/returnqueue"
	"github.com/nextgensultan/agentic-policybased-chatbot/agent/order/sqlstore"
	"github.com/nextgensultan/agentic-policybased-chatbot/agent/policy"
	"github.com/nextgensultan/agentic-policybased-chatbot/agent/policy/embedcache"
	"github.com/nextgensultan/agentic-policybased-chatbot/agent/prompt"
	statex "github.com/nextgensultan/agentic-policybased-chatbot/agent/state"
	"github.com/nextgensultan/agentic-policybased-chatbot/agent/tool"
	"github.com/nextgensultan/agentic-policybased-chatbot/pkg/assemblyai"
	configx "github.com/nextgensultan/agentic-policybased-chatbot/pkg/config"
	"github.com/nextgensultan/agentic-policybased-chatbot/pkg/embedding"
	"github.com/nextgensultan/agentic-policybased-chatbot/pkg/metrics"
	"github.com/nextgensultan/agentic-policybased-chatbot/pkg/qstash"
)

const (
	OrdersCSV      = "csv"
	OrdersPostgres = sqlstore.DriverPostgres
	OrdersSQLite   = sqlstore.DriverSQLite
)

type AppConfig struct {
	ListenAddr         string `split_words:"true" default:":5000"`
	OrdersBackend      string `split_words:"true" default:"csv"`
	OrdersCSV          string `envconfig:"ORDERS_CSV" default:"data/orders.csv"`
	OrdersDSN          string `envconfig:"ORDERS_DSN"`
	HistoryBackend     string `split_words:"true" default:"memory"`
	HistoryMaxMessages int    `split_words:"true" default:"20"`
	PolicyCachePath    string `split_words:"true"`
	SearchTopK         int    `split_words:"true" default:"3"`
	SessionCookie      string `split_words:"true" default:"session_id"`
	SecureCookie       bool   `split_words:"true" default:"false"`
	Fallback           string `split_words:"true"`
	NotifyReturns      bool   `split_words:"true" default:"false"`
	ReturnHookURL      string `envconfig:"RETURN_HOOK_URL"`
}

func (c *AppConfig) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.OrdersBackend)) {
	case OrdersCSV, OrdersPostgres, OrdersSQLite:
	default:
		return fmt.Errorf("%w: unknown orders backend %q", contractx.ErrValidation, c.OrdersBackend)
	}
	switch strings.ToLower(strings.TrimSpace(c.HistoryBackend)) {
	case statex.BackendMemory, statex.BackendRedis, statex.BackendUpstash:
	default:
		return fmt.Errorf("%w: %q", statex.ErrUnsupportedBackend, c.HistoryBackend)
	}
	if c.HistoryMaxMessages < 0 {
		return fmt.Errorf("%w: history max messages must be >= 0", contractx.ErrValidation)
	}
	return nil
}

// app holds the long-lived components shared by the subcommands.
type app struct {
	cfg     *AppConfig
	metrics *metrics.Metrics

	orders   *order.Store
	returns  *order.Returns
	index    *policy.Index
	executor *tool.Executor
	receiver *returnqueue.Receiver

	closers []func() error
}

func loadAppConfig() (*AppConfig, error) {
	return configx.New[AppConfig]("APP")
}

func (a *app) addCloser(fn func() error) {
	a.closers = append(a.closers, fn)
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn().Err(err).Msg("close failed")
		}
	}
	a.closers = nil
}

// newToolApp builds everything the five tools need: orders, returns, the
// policy index and the executor. On failure every handle opened so far is
// closed before the error is returned.
func newToolApp(ctx context.Context, cfg *AppConfig) (*app, error) {
	a := &app{cfg: cfg, metrics: metrics.New()}
	if err := a.buildTools(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) buildTools(ctx context.Context) error {
	repo, err := a.openOrders(ctx)
	if err != nil {
		return err
	}
	a.orders, err = order.NewStore(repo)
	if err != nil {
		return err
	}

	var returnOpts []order.ReturnsOption
	if a.cfg.NotifyReturns {
		notifier, err := a.returnQueue()
		if err != nil {
			return err
		}
		returnOpts = append(returnOpts, order.WithNotifier(notifier))
	}
	a.returns = order.NewReturns(a.orders, returnOpts...)

	a.index, err = a.buildIndex(ctx)
	if err != nil {
		return err
	}

	a.executor, err = tool.NewExecutor(tool.Deps{
		Orders:  a.orders,
		Returns: a.returns,
		Policy:  a.index,
		TopK:    a.cfg.SearchTopK,
		Metrics: a.metrics,
	})
	return err
}

func (a *app) openOrders(ctx context.Context) (order.Repository, error) {
	backend := strings.ToLower(strings.TrimSpace(a.cfg.OrdersBackend))
	switch backend {
	case OrdersCSV:
		repo, err := csvstore.Open(a.cfg.OrdersCSV)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", a.cfg.OrdersCSV).Msg("orders loaded from csv")
		return repo, nil
	case OrdersPostgres, OrdersSQLite:
		repo, err := sqlstore.Open(ctx, backend, a.cfg.OrdersDSN)
		if err != nil {
			return nil, err
		}
		a.addCloser(repo.Close)
		log.Info().Str("driver", backend).Msg("orders database connected")
		return repo, nil
	default:
		return nil, fmt.Errorf("%w: unknown orders backend %q", contractx.ErrValidation, a.cfg.OrdersBackend)
	}
}

func (a *app) returnQueue() (*returnqueue.Notifier, error) {
	qcfg, err := configx.New[qstash.Config]("QSTASH")
	if err != nil {
		return nil, err
	}
	client, err := qstash.NewClient(*qcfg)
	if err != nil {
		return nil, err
	}

	if qcfg.CurrentSigningKey != "" || qcfg.NextSigningKey != "" {
		verifier, err := qstash.NewVerifier(*qcfg)
		if err != nil {
			return nil, err
		}
		a.receiver, err = returnqueue.NewReceiver(verifier, a.cfg.ReturnHookURL, returnqueue.LogEvent)
		if err != nil {
			return nil, err
		}
	}
	return returnqueue.NewNotifier(client)
}

// embedder returns the embedder used to index chunks and the one used for
// queries. Only chunk vectors go through the bbolt cache; query vectors are
// never persisted.
func (a *app) embedder() (chunks, queries contractx.Embedder, err error) {
	ecfg, err := configx.New[embedding.Config]("EMBEDDING")
	if err != nil {
		return nil, nil, err
	}
	emb, err := embedding.New(*ecfg)
	if err != nil {
		return nil, nil, err
	}
	if path := strings.TrimSpace(a.cfg.PolicyCachePath); path != "" {
		cache, err := embedcache.Open(path, emb)
		if err != nil {
			return nil, nil, err
		}
		a.addCloser(cache.Close)
		return cache, emb, nil
	}
	return emb, emb, nil
}

func (a *app) buildIndex(ctx context.Context) (*policy.Index, error) {
	chunkEmb, queryEmb, err := a.embedder()
	if err != nil {
		return nil, err
	}
	docs, err := policy.DefaultDocuments()
	if err != nil {
		return nil, err
	}
	index, err := policy.Build(ctx, chunkEmb, docs, policy.WithQueryEmbedder(queryEmb))
	if err != nil {
		return nil, fmt.Errorf("build policy index: %w", err)
	}
	log.Info().
		Int("documents", len(docs)).
		Int("chunks", index.Len()).
		Str("model", chunkEmb.ModelName()).
		Msg("policy index built")
	return index, nil
}

func (a *app) historyStore(ctx context.Context) (statex.Store, error) {
	switch strings.ToLower(strings.TrimSpace(a.cfg.HistoryBackend)) {
	case statex.BackendMemory:
		return statex.NewMemoryStore(statex.DefaultTTL), nil
	case statex.BackendRedis:
		rcfg, err := configx.New[statex.RedisConfig]("REDIS")
		if err != nil {
			return nil, err
		}
		store, err := statex.NewRedisStore(ctx, *rcfg)
		if err != nil {
			return nil, err
		}
		a.addCloser(store.Close)
		return store, nil
	case statex.BackendUpstash:
		ucfg, err := configx.New[statex.UpstashRedisConfig]("UPSTASH")
		if err != nil {
			return nil, err
		}
		return statex.NewUpstashRedisStore(*ucfg)
	default:
		return nil, fmt.Errorf("%w: %q", statex.ErrUnsupportedBackend, a.cfg.HistoryBackend)
	}
}

// transcriber returns nil when AssemblyAI is not configured; audio turns
// then fail with orchestrator.ErrNoTranscriber.
func (a *app) transcriber() contractx.Transcriber {
	acfg, err := configx.New[assemblyai.Config]("ASSEMBLYAI")
	if err != nil {
		log.Warn().Err(err).Msg("assemblyai not configured, audio disabled")
		return nil
	}
	client, err := assemblyai.NewClient(*acfg)
	if err != nil {
		log.Warn().Err(err).Msg("assemblyai client invalid, audio disabled")
		return nil
	}
	return client
}

func (a *app) assistant(ctx context.Context) (*assistant.Assistant, error) {
	lcfg, err := configx.New[llm.Config]("LLM")
	if err != nil {
		return nil, err
	}
	orCfg := lcfg.OpenRouter()
	chatModel, err := orCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("build chat model: %w", err)
	}

	prompts := prompt.LoadPromptSet()
	return assistant.New(ctx, chatModel, a.executor,
		assistant.WithMaxIterations(lcfg.Iterations()),
		assistant.WithSystemPrompt(prompts.Assistant),
	)
}

func (a *app) orchestrator(ctx context.Context, withAudio bool) (*orchestrator.Orchestrator, error) {
	if a.executor == nil {
		return nil, errors.New("tools are not built")
	}

	store, err := a.historyStore(ctx)
	if err != nil {
		return nil, err
	}
	responder, err := a.assistant(ctx)
	if err != nil {
		return nil, err
	}

	opts := []orchestrator.Option{orchestrator.WithMetrics(a.metrics)}
	if withAudio {
		if t := a.transcriber(); t != nil {
			opts = append(opts, orchestrator.WithTranscriber(t))
		}
	}

	return orchestrator.New(store, responder, orchestrator.Config{
		MaxMessages: a.cfg.HistoryMaxMessages,
		Fallback:    a.cfg.Fallback,
	}, opts...)
}
