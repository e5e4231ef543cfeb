package cmd

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextgensultan/agentic-policybased-chatbot/agent/agents/orchestrator"
	"github.com/nextgensultan/agentic-policybased-chatbot/agent/order/sqlstore"
	"github.com/nextgensultan/agentic-policybased-chatbot/agent/policy/embedcache"
	statex "github.com/nextgensultan/agentic-policybased-chatbot/agent/state"
	"github.com/nextgensultan/agentic-policybased-chatbot/agent/tool"
)

const testOrdersCSV = `id,customer_email,status,order_date,location
1,customer1@example.com,shipped,2026-09-28,Delivered - Front Porch
2,customer2@example.com,pending,2026-10-14,Warehouse - Awaiting Pickup
`

func writeOrders(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.csv")
	require.NoError(t, os.WriteFile(path, []byte(testOrdersCSV), 0o644))
	return path
}

func setToolEnv(t *testing.T, csvPath string) {
	t.Helper()
	t.Setenv("APP_ORDERS_BACKEND", "csv")
	t.Setenv("APP_ORDERS_CSV", csvPath)
	t.Setenv("APP_HISTORY_BACKEND", "memory")
	t.Setenv("EMBEDDING_PROVIDER", "hash")
	t.Setenv("EMBEDDING_DIMENSIONS", "256")
}

func TestAppConfigValidate(t *testing.T) {
	cfg := AppConfig{OrdersBackend: "csv", HistoryBackend: "memory"}
	require.NoError(t, cfg.Validate())

	cfg.OrdersBackend = "mongo"
	assert.Error(t, cfg.Validate())

	cfg = AppConfig{OrdersBackend: "sqlite", HistoryBackend: "memcached"}
	assert.ErrorIs(t, cfg.Validate(), statex.ErrUnsupportedBackend)
}

func TestNewToolAppWiresExecutor(t *testing.T) {
	setToolEnv(t, writeOrders(t))
	t.Setenv("APP_POLICY_CACHE_PATH", filepath.Join(t.TempDir(), "vectors.db"))

	cfg, err := loadAppConfig()
	require.NoError(t, err)

	ctx := context.Background()
	a, err := newToolApp(ctx, cfg)
	require.NoError(t, err)
	defer a.Close()

	res, err := a.executor.Call(ctx, tool.ToolLookupOrder, map[string]any{"order_id": "2"})
	require.NoError(t, err)
	assert.Empty(t, res.Error)

	res, err = a.executor.Call(ctx, tool.ToolSearchReturnPolicy, map[string]any{"query": "refund timeframe"})
	require.NoError(t, err)
	assert.Empty(t, res.Error)
	assert.Greater(t, a.index.Len(), 0)

	store, err := a.historyStore(ctx)
	require.NoError(t, err)
	assert.IsType(t, &statex.MemoryStore{}, store)
}

func TestNewToolAppStartupErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T)
		cfg   func(cfg *AppConfig)
	}{
		{
			name: "missing orders csv",
			setup: func(t *testing.T) {
				setToolEnv(t, filepath.Join(t.TempDir(), "missing.csv"))
			},
		},
		{
			name: "unknown orders backend",
			setup: func(t *testing.T) {
				setToolEnv(t, writeOrders(t))
			},
			cfg: func(cfg *AppConfig) { cfg.OrdersBackend = "mongo" },
		},
		{
			name: "unknown embedding provider",
			setup: func(t *testing.T) {
				setToolEnv(t, writeOrders(t))
				t.Setenv("EMBEDDING_PROVIDER", "nope")
			},
		},
		{
			name: "sqlite without dsn",
			setup: func(t *testing.T) {
				setToolEnv(t, writeOrders(t))
				t.Setenv("APP_ORDERS_BACKEND", "sqlite")
				t.Setenv("APP_ORDERS_DSN", "")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup(t)
			cfg, err := loadAppConfig()
			require.NoError(t, err)
			if tt.cfg != nil {
				tt.cfg(cfg)
			}

			var a *app
			require.NotPanics(t, func() {
				a, err = newToolApp(context.Background(), cfg)
			})
			assert.Error(t, err)
			assert.Nil(t, a)
		})
	}
}

func TestNewToolAppClosesOpenedHandlesOnFailure(t *testing.T) {
	embeddings := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad model","type":"invalid_request_error"}}`))
	}))
	t.Cleanup(embeddings.Close)

	cachePath := filepath.Join(t.TempDir(), "vectors.db")
	setToolEnv(t, writeOrders(t))
	t.Setenv("APP_POLICY_CACHE_PATH", cachePath)
	t.Setenv("EMBEDDING_PROVIDER", "openai")
	t.Setenv("EMBEDDING_API_KEY", "test-key")
	t.Setenv("EMBEDDING_BASE_URL", embeddings.URL)

	cfg, err := loadAppConfig()
	require.NoError(t, err)

	a, err := newToolApp(context.Background(), cfg)
	require.Error(t, err)
	require.Nil(t, a)

	// bbolt holds an exclusive file lock until closed.
	cache, err := embedcache.Open(cachePath, embeddingStub{})
	require.NoError(t, err)
	require.NoError(t, cache.Close())
}

type embeddingStub struct{}

func (embeddingStub) Embed(_ context.Context, texts []string) ([][]float32, error) {
	return make([][]float32, len(texts)), nil
}
func (embeddingStub) Dimensions() int   { return 1 }
func (embeddingStub) ModelName() string { return "stub" }

func TestIndexCommandSearches(t *testing.T) {
	setToolEnv(t, writeOrders(t))

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"index", "--query", "refund timeframe", "-k", "2"})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), "1. [")
	assert.Contains(t, out.String(), "2. [")
	assert.NotContains(t, out.String(), "3. [")
}

func TestSeedCommandLoadsSQLite(t *testing.T) {
	csvPath := writeOrders(t)
	setToolEnv(t, csvPath)
	dsn := "file:" + filepath.Join(t.TempDir(), "orders.db")

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"seed", "--driver", "sqlite", "--dsn", dsn})
	require.NoError(t, root.Execute())
	assert.Equal(t, "seeded 2 of 2 orders\n", out.String())

	repo, err := sqlstore.Open(context.Background(), sqlstore.DriverSQLite, dsn)
	require.NoError(t, err)
	defer repo.Close()
	o, err := repo.Get(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "customer2@example.com", o.CustomerEmail)
}

func TestSeedCommandRejectsCSVBackend(t *testing.T) {
	setToolEnv(t, writeOrders(t))

	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"seed"})
	assert.Error(t, root.Execute())
}

type fakeChatter struct {
	turns   []string
	cleared int
	err     error
}

func (f *fakeChatter) HandleMessage(ctx context.Context, sessionID string, text string) (orchestrator.Turn, error) {
	if f.err != nil {
		return orchestrator.Turn{}, f.err
	}
	f.turns = append(f.turns, text)
	return orchestrator.Turn{Reply: "reply to " + text}, nil
}

func (f *fakeChatter) Clear(ctx context.Context, sessionID string) error {
	f.cleared++
	return nil
}

func TestChatLoop(t *testing.T) {
	t.Parallel()

	chat := &fakeChatter{}
	in := strings.NewReader("where is order 1?\n\n/clear\nthanks\n/quit\nignored\n")
	var out bytes.Buffer

	require.NoError(t, chatLoop(context.Background(), in, &out, chat, "s1"))
	assert.Equal(t, []string{"where is order 1?", "thanks"}, chat.turns)
	assert.Equal(t, 1, chat.cleared)
	assert.Contains(t, out.String(), "reply to where is order 1?")
	assert.Contains(t, out.String(), "history cleared")
}

func TestChatLoopReportsErrors(t *testing.T) {
	t.Parallel()

	chat := &fakeChatter{err: errors.New("model down")}
	var out bytes.Buffer

	require.NoError(t, chatLoop(context.Background(), strings.NewReader("hi\n"), &out, chat, "s1"))
	assert.Contains(t, out.String(), "error: model down")
}
