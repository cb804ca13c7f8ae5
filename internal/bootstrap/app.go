package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"steam-insights-backend/internal/analyses"
	"steam-insights-backend/internal/blueocean"
	"steam-insights-backend/internal/cache"
	"steam-insights-backend/internal/llm"
	"steam-insights-backend/internal/llm/gemini"
	"steam-insights-backend/internal/llm/openai"
	"steam-insights-backend/internal/queue"
	"steam-insights-backend/internal/services/health"
	"steam-insights-backend/internal/shared/config"
	"steam-insights-backend/internal/shared/server"
	"steam-insights-backend/internal/shared/storage/db"
	"steam-insights-backend/internal/shared/storage/object"
	localstore "steam-insights-backend/internal/shared/storage/object/local"
	s3store "steam-insights-backend/internal/shared/storage/object/s3"
	"steam-insights-backend/internal/steam"
	"steam-insights-backend/internal/storedoctor"
)

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Queue  queue.Client
	Cache  *cache.Cache
	LLM    llm.Client

	StoreClient *steam.StoreClient
	SpyClient   *steam.SpyClient

	AnalysesRepo       analyses.Repo
	AnalysesService    *analyses.Service
	StoreDoctorService *storedoctor.Service
	BlueOceanService   *blueocean.Service
}

// Build prepares shared dependencies and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	responseCache, err := BuildCache(cfg)
	if err != nil {
		return nil, err
	}

	llmClient, err := BuildLLM(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tuning, err := blueocean.LoadTuning(cfg.MarketTuningFile)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:      cfg,
		DB:          sqlDB,
		Store:       store,
		Queue:       queueClient,
		Cache:       responseCache,
		LLM:         llmClient,
		StoreClient: steam.NewStoreClient(steam.WithBaseURL(cfg.SteamStoreURL)),
		SpyClient:   steam.NewSpyClient(steam.WithBaseURL(cfg.SteamSpyURL)),
	}

	if sqlDB != nil {
		app.AnalysesRepo = &analyses.PGRepo{DB: sqlDB}
	} else {
		app.AnalysesRepo = analyses.NewMemoryRepo()
	}
	app.AnalysesService = &analyses.Service{
		Repo:  app.AnalysesRepo,
		Cache: responseCache,
		Steam: app.StoreClient,
		LLM:   llmClient,
		Store: store,
		Queue: queueClient,
	}
	app.StoreDoctorService = storedoctor.NewService(app.StoreClient, responseCache, storedoctor.NewLLMEvaluator(llmClient))
	app.BlueOceanService = blueocean.NewService(app.SpyClient, responseCache, tuning)

	var pinger health.Pinger
	if sqlDB != nil {
		pinger = sqlDB
	}
	app.Router = server.NewRouter(server.RouterDeps{
		Config:      cfg,
		Health:      health.NewService(pinger),
		Cache:       cache.NewHandler(responseCache),
		StoreDoctor: storedoctor.NewHandler(app.StoreDoctorService),
		BlueOcean:   blueocean.NewHandler(app.BlueOceanService),
		Analyses:    analyses.NewHandler(app.AnalysesService, cfg.PollWindow),
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	if isDevLike(cfg.Env) {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.SQSQueueURL) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx, cfg.AWSRegion, cfg.SQSQueueURL)
}

// BuildCache constructs the response cache with configured TTL overrides.
func BuildCache(cfg config.Config) (*cache.Cache, error) {
	overrides, err := cache.ParseTTLOverrides(cfg.CacheTTLOverrides)
	if err != nil {
		return nil, fmt.Errorf("CACHE_TTL_OVERRIDES: %w", err)
	}
	return cache.New(cache.WithTTLs(overrides)), nil
}

// BuildLLM picks the provider. Missing credentials fall back to the
// placeholder in dev so the non-LLM endpoints stay usable.
func BuildLLM(ctx context.Context, cfg config.Config) (llm.Client, error) {
	var (
		client llm.Client
		err    error
	)
	switch cfg.LLMProvider {
	case "none":
		return llm.PlaceholderClient{}, nil
	case "openai":
		client, err = openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel)
	default:
		client, err = gemini.New(ctx, gemini.Config{
			APIKey:         cfg.GeminiAPIKey,
			Model:          cfg.LLMModel,
			VertexProject:  cfg.GeminiVertexProject,
			VertexLocation: cfg.GeminiVertexLocation,
		})
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: %s client unavailable; LLM features disabled: %v", cfg.LLMProvider, err)
			return llm.PlaceholderClient{}, nil
		}
		return nil, err
	}
	return llm.WithRetry(client), nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
