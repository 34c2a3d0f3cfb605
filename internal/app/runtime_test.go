package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dvloznov/edufin/internal/config"
	"github.com/dvloznov/edufin/internal/domain"
	"github.com/dvloznov/edufin/internal/identity"
	"github.com/dvloznov/edufin/internal/infra/sqlite"
	"github.com/dvloznov/edufin/internal/jobs"
	"github.com/dvloznov/edufin/internal/ledger"
	"github.com/dvloznov/edufin/internal/prediction"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InMemoryDefaults(t *testing.T) {
	rt, err := New(context.Background(), config.Defaults(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, rt.Close()) })

	assert.IsType(t, &ledger.MemoryStore{}, rt.Ledger)
	assert.NotNil(t, rt.Notifier)
	assert.NotNil(t, rt.Archiver)
	assert.Nil(t, rt.Mirror)
	assert.Nil(t, rt.Cache)
	assert.Nil(t, rt.Syncer())
	assert.Equal(t, prediction.RuleBased{}, rt.Predictor(context.Background()))

	repo, err := rt.Directory(context.Background())
	require.NoError(t, err)
	u, err := repo.GetByEmail(context.Background(), "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, u.Role)

	provider, roles := rt.Identity(repo)
	assert.IsType(t, &identity.DevFallback{}, provider)
	role, err := roles.Resolve(context.Background(), "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, role)
}

func TestRuntime_IdentityProviderSelection(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		devMode  bool
		want     identity.Provider
	}{
		{"no endpoint", "", false, &identity.DevFallback{}},
		{"appwrite only", "https://appwrite.example/v1", false, &identity.AppwriteProvider{}},
		{"appwrite with dev accounts", "https://appwrite.example/v1", true, &identity.DevFallback{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Defaults()
			cfg.Appwrite.Endpoint = tt.endpoint
			cfg.Appwrite.DevMode = tt.devMode

			rt, err := New(context.Background(), cfg, zerolog.Nop())
			require.NoError(t, err)
			t.Cleanup(func() { require.NoError(t, rt.Close()) })

			provider, _ := rt.Identity(nil)
			assert.IsType(t, tt.want, provider)
		})
	}
}

func TestNew_SQLiteLedger(t *testing.T) {
	cfg := config.Defaults()
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "ledger.db")

	rt, err := New(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, rt.Close()) })
	assert.IsType(t, &sqlite.LedgerStore{}, rt.Ledger)
}

func TestNew_RedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Defaults()
	cfg.Redis.Addr = mr.Addr()

	rt, err := New(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, rt.Close()) })

	require.NotNil(t, rt.Cache)
	assert.IsType(t, &prediction.CachedPredictor{}, rt.Predictor(context.Background()))

	_, roles := rt.Identity(nil)
	assert.IsType(t, identity.CachedResolver{}, roles)
}

func TestNew_UnreachableRedisDisablesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := config.Defaults()
	cfg.Redis.Addr = addr
	rt, err := New(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })
	assert.Nil(t, rt.Cache)
}

func TestJobHandlers_RecordPayment(t *testing.T) {
	rt, err := New(context.Background(), config.Defaults(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	job, err := jobs.NewJob(jobs.JobTypeRecordPayment, jobs.PaymentPayload{
		Result: domain.PaymentResult{
			Method:        domain.MethodCard,
			MethodLabel:   "Credit Card",
			TransactionID: "TXN-000042",
			Amount:        35000,
			Date:          time.Date(2024, time.April, 1, 9, 0, 0, 0, time.UTC),
		},
		Receipt:     domain.Receipt{ID: "RCP-000043", StudentID: "2", FeeTitle: "Term 3 Tuition Fee"},
		StudentName: "Student User",
	})
	require.NoError(t, err)
	require.NoError(t, rt.JobHandlers().Router().Dispatch(context.Background(), job))

	entries, err := rt.Ledger.ListByStudent(context.Background(), "2")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(35000), entries[0].Amount)
}
