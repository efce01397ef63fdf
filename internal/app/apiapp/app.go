package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sickboy81/saphira/internal/catalog"
	"github.com/sickboy81/saphira/internal/config"
	s3infra "github.com/sickboy81/saphira/internal/infra/s3"
	pgrepo "github.com/sickboy81/saphira/internal/repo/postgres"
	redrepo "github.com/sickboy81/saphira/internal/repo/redis"
	adminsvc "github.com/sickboy81/saphira/internal/services/admin"
	authsvc "github.com/sickboy81/saphira/internal/services/auth"
	dashboardsvc "github.com/sickboy81/saphira/internal/services/dashboard"
	listingsvc "github.com/sickboy81/saphira/internal/services/listing"
	mediasvc "github.com/sickboy81/saphira/internal/services/media"
	ratesvc "github.com/sickboy81/saphira/internal/services/rate"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *minio.Client
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(cfg.S3); err != nil {
		log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
	} else {
		s3Client = c
	}

	fallback, err := catalog.Load()
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	sessionRepo := redrepo.NewSessionRepo(redisClient)
	rateRepo := redrepo.NewRateRepo(redisClient)
	cacheRepo := redrepo.NewCacheRepo(redisClient)
	accountRepo := pgrepo.NewAccountRepo(pool)
	profileRepo := pgrepo.NewProfileRepo(pool)
	mediaRepo := pgrepo.NewMediaRepo(pool)

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	loginLimiter := ratesvc.NewLimiter(rateRepo, "login", cfg.Limits.LoginPerMinute, cfg.Limits.LoginPer10Seconds)
	authService := authsvc.NewService(jwtManager, sessionRepo, accountRepo, profileRepo, loginLimiter, authsvc.Options{
		RefreshTTL:   cfg.Auth.RefreshTTL,
		MinPassword:  cfg.Auth.MinPassword,
		PasswordCost: cfg.Auth.PasswordCost,
		TOTPIssuer:   cfg.Auth.TOTPIssuer,
	})

	mediaStorage := mediasvc.NewS3Storage(s3Client, cfg.S3.Bucket)
	mediaService := mediasvc.NewService(mediaRepo, mediaStorage, mediasvc.Options{
		PresignTTL: cfg.S3.PresignTTL,
		MaxUpload:  cfg.S3.MaxUpload,
	})
	listingService := listingsvc.NewService(profileRepo, mediaRepo, mediaService, cacheRepo, fallback, log, listingsvc.Options{
		CacheTTL:     cfg.Listing.CacheTTL,
		DefaultLimit: cfg.Listing.DefaultLimit,
		MaxLimit:     cfg.Listing.MaxLimit,
		MaxLookupIDs: cfg.Listing.MaxLookupIDs,
		Bounds:       cfg.Filters.Bounds(),
	})
	adminService := adminsvc.NewService(profileRepo, authService, listingService, log)
	dashboardService := dashboardsvc.NewService(profileRepo, mediaService, listingService, log)

	RegisterRoutes(r, Dependencies{
		AuthService:      authService,
		ListingService:   listingService,
		AdminService:     adminService,
		DashboardService: dashboardService,
		Logger:           log,
		Config:           cfg,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
