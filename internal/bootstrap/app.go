package bootstrap

import (
	"context"
	"database/sql"
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"docvault-backend/internal/account"
	"docvault-backend/internal/documents"
	"docvault-backend/internal/flows"
	"docvault-backend/internal/gate"
	"docvault-backend/internal/identity"
	"docvault-backend/internal/llm"
	"docvault-backend/internal/llm/openai"
	"docvault-backend/internal/settings"
	"docvault-backend/internal/shared/config"
	"docvault-backend/internal/shared/server"
	"docvault-backend/internal/shared/storage/db"
	"docvault-backend/internal/shared/storage/object"
	localstore "docvault-backend/internal/shared/storage/object/local"
	s3store "docvault-backend/internal/shared/storage/object/s3"
	"docvault-backend/internal/shared/telemetry"
	"docvault-backend/internal/users"
)

// App is the wired application.
type App struct {
	Router   *gin.Engine
	Identity *identity.Service
	Gate     *gate.Registry

	stopGate func()
}

// Build wires repositories, services, and the router from configuration.
// Postgres and S3 are used when configured; otherwise everything runs on
// in-memory and local-disk fallbacks.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	sqlDB := openDatabase(ctx, cfg)

	var (
		usersRepo    users.UsersRepo
		docsRepo     documents.DocumentsRepo
		settingsRepo settings.SettingsRepo
	)
	if sqlDB != nil {
		usersRepo = users.NewPGRepo(sqlDB)
		docsRepo = documents.NewPGRepo(sqlDB)
		settingsRepo = settings.NewPGRepo(sqlDB)
	} else {
		usersRepo = users.NewMemoryRepo()
		docsRepo = documents.NewMemoryRepo()
		settingsRepo = settings.NewMemoryRepo()
	}

	store, err := buildObjectStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	llmClient := buildLLMClient(cfg)

	usersSvc := users.NewService(usersRepo)
	settingsSvc := settings.NewService(settingsRepo)
	flowsSvc := flows.NewService(llmClient)

	broker := identity.NewBroker()
	identitySvc := identity.NewService(usersSvc, broker)

	gateRegistry := gate.NewRegistry(settingsSvc, cfg.GateFailOpen)
	authEvents, stopGate := broker.Subscribe()
	go gateRegistry.Run(authEvents)

	docsBroker := documents.NewBroker()
	docsSvc := documents.NewService(docsRepo, store, docsBroker, flows.Categorizer{Svc: flowsSvc}, settingsSvc)
	accountSvc := account.NewService(usersSvc, docsSvc, settingsSvc, identitySvc)

	var google *identity.GoogleService
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		google = identity.NewGoogleService(identitySvc, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL, cfg.UIRedirectURL)
	}

	router := server.NewRouter(server.RouterDeps{
		Cfg:      cfg,
		Sessions: identitySvc,
		Gate:     gateRegistry,

		Identity:  identity.NewHandler(identitySvc, gateRegistry),
		Google:    google,
		GateAPI:   gate.NewHandler(gateRegistry),
		Users:     users.NewHandler(usersSvc),
		Settings:  settings.NewHandler(settingsSvc),
		Documents: documents.NewHandler(docsSvc),
		Flows:     flows.NewHandler(flowsSvc, docsRepo),
		Account:   account.NewHandler(accountSvc),
	})

	return &App{
		Router:   router,
		Identity: identitySvc,
		Gate:     gateRegistry,
		stopGate: stopGate,
	}, nil
}

// Close releases background resources.
func (a *App) Close() {
	if a.stopGate != nil {
		a.stopGate()
	}
}

func openDatabase(ctx context.Context, cfg config.Config) *sql.DB {
	if cfg.DatabaseURL == "" {
		return nil
	}
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		log.Printf("failed to connect database, falling back to memory: %v", err)
		return nil
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		log.Printf("failed to run migrations, falling back to memory: %v", err)
		_ = sqlDB.Close()
		return nil
	}
	return sqlDB
}

func buildObjectStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	if cfg.ObjectStoreType == "s3" {
		store, err := s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
		if err != nil {
			return nil, err
		}
		telemetry.Info("bootstrap.object_store", map[string]any{"type": "s3", "bucket": cfg.S3Bucket})
		return store, nil
	}
	telemetry.Info("bootstrap.object_store", map[string]any{"type": "local", "dir": cfg.LocalStoreDir})
	return localstore.New(cfg.LocalStoreDir), nil
}

func buildLLMClient(cfg config.Config) llm.Client {
	if cfg.LLMProvider != "openai" {
		log.Printf("unknown LLM provider %q, AI flows disabled", cfg.LLMProvider)
		return llm.PlaceholderClient{}
	}
	client, err := openai.NewClient(os.Getenv("OPENAI_API_KEY"), cfg.LLMModel)
	if err != nil {
		log.Printf("AI flows disabled: %v", err)
		return llm.PlaceholderClient{}
	}
	return client
}
