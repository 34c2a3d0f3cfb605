// Package app builds the backends selected by configuration. Every binary
// shares it so the API, the worker and the tools agree on where payments,
// slips and notifications go.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/edufin/internal/archive"
	"github.com/dvloznov/edufin/internal/cache"
	"github.com/dvloznov/edufin/internal/config"
	"github.com/dvloznov/edufin/internal/directory"
	"github.com/dvloznov/edufin/internal/idgen"
	"github.com/dvloznov/edufin/internal/identity"
	infraBQ "github.com/dvloznov/edufin/internal/infra/bigquery"
	"github.com/dvloznov/edufin/internal/infra/sqlite"
	"github.com/dvloznov/edufin/internal/ledger"
	"github.com/dvloznov/edufin/internal/notify"
	"github.com/dvloznov/edufin/internal/notionsync"
	"github.com/dvloznov/edufin/internal/prediction"
	"github.com/dvloznov/edufin/internal/worker"
	"github.com/rs/zerolog"
)

const cachePrefix = "edufin"

// Runtime holds the clients built from one configuration. Close releases
// them in reverse order of creation.
type Runtime struct {
	Cfg      *config.AppConfig
	Log      zerolog.Logger
	IDs      idgen.Generator
	Ledger   ledger.Store
	Notifier notify.Notifier
	Archiver *archive.Archiver
	// Mirror is nil unless Notion is configured.
	Mirror worker.Mirror
	// Cache is nil unless Redis is configured and reachable.
	Cache cache.Cache

	closers []func() error
}

// New connects the ledger, notifier, archive bucket, Notion mirror and
// cache. Unconfigured backends fall back to in-memory versions.
func New(ctx context.Context, cfg *config.AppConfig, log zerolog.Logger) (*Runtime, error) {
	rt := &Runtime{Cfg: cfg, Log: log, IDs: idgen.New(cfg.Payments.IDScheme)}

	steps := []func(context.Context) error{
		rt.openLedger,
		rt.openNotifier,
		rt.openArchive,
		rt.openMirror,
		rt.openCache,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			_ = rt.Close()
			return nil, err
		}
	}
	return rt, nil
}

func (rt *Runtime) onClose(fn func() error) {
	rt.closers = append(rt.closers, fn)
}

// Close releases every client and joins their errors.
func (rt *Runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}

func (rt *Runtime) openLedger(ctx context.Context) error {
	switch {
	case rt.Cfg.SQLite.Path != "":
		store, err := sqlite.Open(rt.Cfg.SQLite.Path)
		if err != nil {
			return fmt.Errorf("New: ledger: %w", err)
		}
		rt.onClose(store.Close)
		rt.Ledger = store
		rt.Log.Info().Str("path", rt.Cfg.SQLite.Path).Msg("Ledger backed by SQLite")
	case rt.Cfg.BigQuery.ProjectID != "":
		repo, err := infraBQ.NewPaymentRepository(ctx, rt.Cfg.BigQuery.ProjectID, rt.Cfg.BigQuery.Dataset)
		if err != nil {
			return fmt.Errorf("New: ledger: %w", err)
		}
		rt.onClose(repo.Close)
		rt.Ledger = repo
		rt.Log.Info().Str("project_id", rt.Cfg.BigQuery.ProjectID).Str("dataset", rt.Cfg.BigQuery.Dataset).Msg("Ledger backed by BigQuery")
	default:
		rt.Ledger = ledger.NewMemoryStore()
		rt.Log.Warn().Msg("No ledger backend configured, payments are kept in memory")
	}
	return nil
}

func (rt *Runtime) openNotifier(context.Context) error {
	notifiers := notify.Multi{notify.LogNotifier{Log: rt.Log}}
	if rt.Cfg.Discord.Token != "" && rt.Cfg.Discord.ChannelID != "" {
		discord, err := notify.NewDiscordNotifier(rt.Cfg.Discord.Token, rt.Cfg.Discord.ChannelID)
		if err != nil {
			return fmt.Errorf("New: notifier: %w", err)
		}
		notifiers = append(notifiers, discord)
	}
	rt.Notifier = notifiers
	return nil
}

func (rt *Runtime) openArchive(ctx context.Context) error {
	if rt.Cfg.GCS.BucketName == "" {
		rt.Archiver = archive.New(&archive.MemoryBucket{BucketName: "salary-slips"})
		return nil
	}
	bucket, err := archive.NewGCSBucket(ctx, rt.Cfg.GCS.BucketName)
	if err != nil {
		return fmt.Errorf("New: archive: %w", err)
	}
	rt.onClose(bucket.Close)
	rt.Archiver = archive.New(bucket)
	return nil
}

func (rt *Runtime) openMirror(context.Context) error {
	if rt.Cfg.Notion.Token == "" || rt.Cfg.Notion.DatabaseID == "" {
		return nil
	}
	rt.Mirror = rt.Syncer()
	return nil
}

// Syncer returns a Notion syncer for the configured database, or nil when
// Notion is not configured.
func (rt *Runtime) Syncer() *notionsync.Syncer {
	if rt.Cfg.Notion.Token == "" || rt.Cfg.Notion.DatabaseID == "" {
		return nil
	}
	return notionsync.NewSyncer(notionsync.NewNotionClient(rt.Cfg.Notion.Token), rt.Cfg.Notion.DatabaseID)
}

func (rt *Runtime) openCache(ctx context.Context) error {
	if rt.Cfg.Redis.Addr == "" {
		return nil
	}
	rc := cache.NewRedisCache(rt.Cfg.Redis.Addr, rt.Cfg.Redis.Password, rt.Cfg.Redis.DB, cachePrefix)
	if err := rc.Ping(ctx); err != nil {
		// caching is an optimisation; run without it
		rt.Log.Warn().Err(err).Str("addr", rt.Cfg.Redis.Addr).Msg("Redis unreachable, caching disabled")
		return nil
	}
	rt.Cache = rc
	return nil
}

// JobHandlers returns the handlers for payment and slip jobs.
func (rt *Runtime) JobHandlers() *worker.Handlers {
	return &worker.Handlers{
		Ledger:   rt.Ledger,
		Mirror:   rt.Mirror,
		Notifier: rt.Notifier,
		Archiver: rt.Archiver,
	}
}

// Directory returns the profile repository: Mongo when configured,
// otherwise the seeded in-memory users.
func (rt *Runtime) Directory(ctx context.Context) (directory.Repository, error) {
	if rt.Cfg.Mongo.URI == "" {
		return directory.NewMemoryRepository(directory.SeedUsers()...), nil
	}
	client, err := directory.Connect(ctx, rt.Cfg.Mongo.URI)
	if err != nil {
		return nil, fmt.Errorf("Directory: %w", err)
	}
	rt.onClose(func() error { return client.Disconnect(context.Background()) })
	return directory.NewMongoRepository(client.Database(rt.Cfg.Mongo.DBName), rt.Cfg.Mongo.Collection), nil
}

// Identity returns the sign-in provider and role resolver. Without Appwrite
// only the dev accounts exist; dev mode also serves them while Appwrite is
// unavailable.
func (rt *Runtime) Identity(repo directory.Repository) (identity.Provider, identity.RoleResolver) {
	var provider identity.Provider
	switch {
	case rt.Cfg.Appwrite.Endpoint == "":
		rt.Log.Warn().Msg("No identity provider configured, serving dev accounts only")
		provider = identity.NewDevFallback(nil)
	case rt.Cfg.Appwrite.DevMode:
		rt.Log.Warn().Msg("Identity dev mode on, dev accounts answer while Appwrite is unavailable")
		provider = identity.NewDevFallback(identity.NewAppwriteProvider(rt.Cfg.Appwrite.Endpoint, rt.Cfg.Appwrite.ProjectID, rt.Cfg.Appwrite.APIKey))
	default:
		provider = identity.NewAppwriteProvider(rt.Cfg.Appwrite.Endpoint, rt.Cfg.Appwrite.ProjectID, rt.Cfg.Appwrite.APIKey)
	}

	var roles identity.RoleResolver = identity.NewStaticResolver(directory.SeedUsers()...)
	if rt.Cfg.Mongo.URI != "" {
		roles = identity.DirectoryResolver{Repo: repo}
	}
	if rt.Cache != nil {
		roles = identity.CachedResolver{Next: roles, Cache: rt.Cache, TTL: rt.Cfg.Redis.TTL}
	}
	return provider, roles
}

// Predictor returns the rule-based predictor, or Gemini when enabled.
// Either is memoized when a cache is available.
func (rt *Runtime) Predictor(ctx context.Context) prediction.Predictor {
	var p prediction.Predictor = prediction.RuleBased{}
	if rt.Cfg.Gemini.Enabled {
		g, err := prediction.NewGeminiPredictor(ctx, rt.Cfg.Gemini.Model)
		if err != nil {
			rt.Log.Warn().Err(err).Msg("Gemini unavailable, using rule-based predictions")
		} else {
			p = g
		}
	}
	if rt.Cache != nil {
		p = &prediction.CachedPredictor{Next: p, Cache: rt.Cache, TTL: rt.Cfg.Redis.TTL}
	}
	return p
}
