package bootstrap

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"appreview/internal/bootstrap/config"
	"appreview/internal/bootstrap/database"
	"appreview/internal/bootstrap/logging"
	"appreview/internal/domain/search"
	"appreview/internal/domain/sentiment"
	"appreview/internal/errs"
	cacheinfra "appreview/internal/infrastructure/cache"
	"appreview/internal/infrastructure/metrics"
	"appreview/internal/infrastructure/passwords"
	sqliterepo "appreview/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "appreview/internal/infrastructure/persistence/sqlite/uow"
	"appreview/internal/ports"
	"appreview/internal/usecase/account"
	catalogusecase "appreview/internal/usecase/catalog"
	directoryusecase "appreview/internal/usecase/directory"
	"appreview/internal/usecase/moderation"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(
		fx.Annotate(sqliterepo.NewCatalogRepository, fx.As(new(ports.CatalogRepository))),
		fx.Annotate(sqliterepo.NewDirectoryRepository, fx.As(new(ports.DirectoryRepository))),
		fx.Annotate(sqliterepo.NewUserRepository, fx.As(new(ports.UserRepository))),
		fx.Annotate(sqliterepo.NewReviewRepository, fx.As(new(ports.ReviewRepository))),
		fx.Annotate(sqliterepo.NewTokenRepository, fx.As(new(ports.TokenRepository))),
	),
	fx.Provide(
		fx.Annotate(
			sqliteuow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(provideCache),
	fx.Provide(
		prometheus.NewRegistry,
		metrics.NewMetrics,
		func(m *metrics.Metrics) ports.Metrics { return m },
	),
	fx.Provide(
		fx.Annotate(
			search.NewTFIDFRanker,
			fx.As(new(ports.Ranker)),
		),
	),
	fx.Provide(provideHasher),
	fx.Provide(provideScorer),
	fx.Provide(
		directoryusecase.NewService,
		func(svc *directoryusecase.Service) moderation.Directory { return svc },
		func(svc *directoryusecase.Service) account.Flagger { return svc },
	),
	fx.Provide(moderation.NewService),
	fx.Provide(provideCatalogService),
	fx.Provide(provideAccountService),
	fx.Provide(newServices),
)

// Services is the set of use cases commands run against.
type Services struct {
	Catalog    *catalogusecase.Service
	Moderation *moderation.Service
	Directory  *directoryusecase.Service
	Accounts   *account.Service
	Metrics    *metrics.Metrics
}

type servicesParams struct {
	fx.In

	Catalog    *catalogusecase.Service
	Moderation *moderation.Service
	Directory  *directoryusecase.Service
	Accounts   *account.Service
	Metrics    *metrics.Metrics
}

func newServices(p servicesParams) *Services {
	return &Services{
		Catalog:    p.Catalog,
		Moderation: p.Moderation,
		Directory:  p.Directory,
		Accounts:   p.Accounts,
		Metrics:    p.Metrics,
	}
}

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideApp(cfg config.Config, db *gorm.DB) *App {
	return &App{
		Config: cfg,
		DB:     db,
	}
}

func provideCache(cfg config.Config, db *gorm.DB) ports.Cache {
	if strings.EqualFold(cfg.Cache.Backend, "sqlite") {
		return cacheinfra.NewDBCache(db)
	}
	return cacheinfra.NewMemoryCache(cfg.Cache.TTL)
}

func provideHasher(cfg config.Config) ports.PasswordHasher {
	return passwords.NewBcryptHasher(cfg.Auth.BcryptCost)
}

func provideScorer(ctx context.Context, cfg config.Config) (moderation.Scorer, error) {
	path := strings.TrimSpace(cfg.Sentiment.LexiconFile)
	if path == "" {
		return sentiment.NewScorer(sentiment.DefaultAnalyzer()), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrapf(err, "read lexicon %q", path)
	}
	lexicon, err := sentiment.ParseLexicon(raw)
	if err != nil {
		return nil, errs.Wrapf(err, "parse lexicon %q", path)
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))
	logging.Info(logCtx, "sentiment lexicon loaded", slog.String("path", path), slog.Int("words", len(lexicon.Words)))
	return sentiment.NewScorer(sentiment.NewLexiconAnalyzer(lexicon)), nil
}

type catalogParams struct {
	fx.In

	Config  config.Config
	Repo    ports.CatalogRepository
	UOW     ports.UnitOfWork
	Ranker  ports.Ranker
	Cache   ports.Cache
	Metrics ports.Metrics
}

func provideCatalogService(p catalogParams) *catalogusecase.Service {
	return catalogusecase.NewService(p.Repo, p.UOW, p.Ranker, p.Cache, p.Metrics, catalogusecase.Options{
		PageSize:           p.Config.Search.PageSize,
		SuggestionLimit:    p.Config.Search.SuggestionLimit,
		MinSuggestionChars: p.Config.Search.MinSuggestionChars,
		SuggestionTTL:      p.Config.Cache.TTL,
	})
}

type accountParams struct {
	fx.In

	Config  config.Config
	Users   ports.UserRepository
	Tokens  ports.TokenRepository
	Flagger account.Flagger
	UOW     ports.UnitOfWork
	Hasher  ports.PasswordHasher
}

func provideAccountService(p accountParams) *account.Service {
	return account.NewService(p.Users, p.Tokens, p.Flagger, p.UOW, p.Hasher, p.Config.Auth.TokenTTL)
}
