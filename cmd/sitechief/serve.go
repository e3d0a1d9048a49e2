package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/santiyeai/sitechief/internal/audit"
	"github.com/santiyeai/sitechief/internal/channel"
	"github.com/santiyeai/sitechief/internal/channel/adapters/whatsapp"
	"github.com/santiyeai/sitechief/internal/channel/inbound"
	"github.com/santiyeai/sitechief/internal/chat"
	"github.com/santiyeai/sitechief/internal/config"
	"github.com/santiyeai/sitechief/internal/conversation/flow"
	"github.com/santiyeai/sitechief/internal/db"
	dbsqlc "github.com/santiyeai/sitechief/internal/db/sqlc"
	"github.com/santiyeai/sitechief/internal/handlers"
	"github.com/santiyeai/sitechief/internal/keepalive"
	"github.com/santiyeai/sitechief/internal/logger"
	"github.com/santiyeai/sitechief/internal/media"
	"github.com/santiyeai/sitechief/internal/media/providers/openaimedia"
	"github.com/santiyeai/sitechief/internal/memory"
	"github.com/santiyeai/sitechief/internal/personas"
	"github.com/santiyeai/sitechief/internal/server"
	"github.com/santiyeai/sitechief/internal/sheets"
	"github.com/santiyeai/sitechief/internal/tenants"
)

func runServe() {
	fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,
			provideDBConn,
			provideDBQueries,
			provideTenantService,
			provideMemoryService,
			provideAuditService,
			provideBudgetImporter,
			providePersonas,
			provideWhatsAppClient,
			provideChannelRegistry,
			provideMediaResolver,
			provideInvoker,
			providePipeline,
			provideDispatcher,
			provideKeepAlive,
			provideServerHandler(handlers.NewPingHandler),
			provideServerHandler(whatsapp.NewWebhookServerHandler),
			provideServerHandler(handlers.NewAnalyzeServerHandler),
			provideServerHandler(handlers.NewHealthServerHandler),
			provideServer,
		),
		fx.Invoke(
			startKeepAlive,
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

func provideConfig() (config.Config, error) {
	return loadConfig()
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideDBConn(lc fx.Lifecycle, log *slog.Logger, cfg config.Config) (*pgxpool.Pool, error) {
	conn, err := db.Connect(context.Background(), log, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { conn.Close(); return nil }})
	return conn, nil
}

func provideDBQueries(conn *pgxpool.Pool) *dbsqlc.Queries { return dbsqlc.New(conn) }

func provideTenantService(log *slog.Logger, queries *dbsqlc.Queries) *tenants.Service {
	return tenants.NewService(log, queries)
}

func provideMemoryService(log *slog.Logger, queries *dbsqlc.Queries) *memory.Service {
	return memory.NewService(log, queries)
}

func provideAuditService(log *slog.Logger, queries *dbsqlc.Queries) *audit.Service {
	return audit.NewService(log, queries)
}

func provideBudgetImporter(log *slog.Logger, queries *dbsqlc.Queries) *sheets.Importer {
	return sheets.NewImporter(log, queries)
}

func providePersonas(cfg config.Config) (*personas.Library, error) {
	return personas.Load(cfg.Personas.Path)
}

func provideWhatsAppClient(log *slog.Logger, cfg config.Config) *whatsapp.Client {
	if cfg.WhatsApp.APIToken == "" || cfg.WhatsApp.PhoneID == "" {
		log.Warn("whatsapp credentials missing; replies and media downloads are disabled")
	}
	if cfg.WhatsApp.VerifyToken == "" {
		log.Warn("whatsapp verify token missing; webhook verification is rejected")
	}
	return whatsapp.NewClient(log, cfg.WhatsApp, cfg.Media.MaxBytes)
}

func provideChannelRegistry(client *whatsapp.Client) *channel.Registry {
	registry := channel.NewRegistry()
	registry.MustRegister(client)
	return registry
}

func provideMediaResolver(log *slog.Logger, cfg config.Config, client *whatsapp.Client, importer *sheets.Importer) (*media.Resolver, error) {
	spool, err := media.NewSpool(cfg.Media.SpoolDir)
	if err != nil {
		return nil, fmt.Errorf("media spool: %w", err)
	}
	speechClient := openaimedia.NewClient(cfg.Speech.APIKey, cfg.Speech.BaseURL, seconds(cfg.Speech.TimeoutSeconds))
	visionClient := openaimedia.NewClient(cfg.Vision.APIKey, cfg.Vision.BaseURL, seconds(cfg.Vision.TimeoutSeconds))
	return media.NewResolver(log, media.ResolverDeps{
		Fetcher:     client,
		Transcriber: openaimedia.NewTranscriber(speechClient, cfg.Speech.Model, cfg.Speech.Language),
		Captioner:   openaimedia.NewCaptioner(visionClient, cfg.Vision.Model, cfg.Vision.Prompt),
		Sheets:      importer,
		Spool:       spool,
		MaxBytes:    cfg.Media.MaxBytes,
	}), nil
}

func provideInvoker(log *slog.Logger, cfg config.Config) *chat.Invoker {
	timeout := seconds(cfg.LLM.TimeoutSeconds)
	completer := chat.NewCompleter(cfg.LLM.APIKey, cfg.LLM.BaseURL, timeout)
	if completer == nil {
		log.Warn("completion api key missing; chat replies use the fallback text")
	}
	return chat.NewInvoker(log, completer, chat.InvokerConfig{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     timeout,
	})
}

func providePipeline(log *slog.Logger, cfg config.Config, memoryService *memory.Service, invoker *chat.Invoker) *flow.Pipeline {
	return flow.NewPipeline(log, memoryService, invoker, flow.LoadLocation(cfg.Dispatcher.Timezone))
}

func provideDispatcher(log *slog.Logger, cfg config.Config, tenantService *tenants.Service, resolver *media.Resolver, pipeline *flow.Pipeline, auditService *audit.Service, registry *channel.Registry, library *personas.Library) *inbound.Dispatcher {
	return inbound.NewDispatcher(log, inbound.Config{
		VerifyToken:     cfg.WhatsApp.VerifyToken,
		RequireApproval: cfg.Dispatcher.RequireApproval,
		TriggerKeywords: cfg.Dispatcher.TriggerKeywords,
		MentionNames:    cfg.Dispatcher.MentionNames,
		Template:        library.Template(cfg.Dispatcher.Persona),
	}, inbound.Deps{
		Tenants:  tenantService,
		Media:    resolver,
		Chat:     pipeline,
		Audit:    auditService,
		Outbound: registry,
	})
}

func provideKeepAlive(log *slog.Logger, cfg config.Config) *keepalive.Pinger {
	return keepalive.NewPinger(log, cfg.KeepAlive)
}

type serverParams struct {
	fx.In
	Logger         *slog.Logger
	Config         config.Config
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.NewServer(params.Logger, params.Config.Server.Addr, params.Config.Auth.JWTSecret, params.ServerHandlers...)
}

func startKeepAlive(lc fx.Lifecycle, cfg config.Config, pinger *keepalive.Pinger) {
	if !cfg.KeepAlive.Enabled {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error { return pinger.Start() },
		OnStop:  func(ctx context.Context) error { pinger.Stop(ctx); return nil },
	})
}

func startServer(lc fx.Lifecycle, logger *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner, cfg config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting server", slog.String("addr", cfg.Server.Addr))
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
