package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/auth"
	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handlers"
	"storefront/internal/logger"
	"storefront/internal/payment"
	"storefront/internal/repository"
	"storefront/internal/routes"
	"storefront/internal/services"
	"storefront/internal/storage"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		// todavía no hay logger configurado
		bootstrap, _ := zap.NewProduction()
		bootstrap.Fatal("failed to load configuration", zap.Error(err))
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	if cfg.EnvFileLoaded {
		log.Info("loaded configuration from .env")
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(context.Background()); err != nil {
			log.Error("mongo disconnect failed", zap.Error(err))
		}
	}()
	log.Info("connected to MongoDB", zap.String("database", cfg.MongoDB))

	if err := db.EnsureIndexes(ctx); err != nil {
		return err
	}

	catalogCache, err := newCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer catalogCache.Close()

	files, err := newFileStore(ctx, cfg)
	if err != nil {
		return err
	}

	// Repositorios
	productRepo := repository.NewProductRepository(db.Collection(database.ProductsCollection), database.VariantsCollection)
	variantRepo := repository.NewVariantRepository(db.Collection(database.VariantsCollection))
	categoryRepo := repository.NewCategoryRepository(db.Collection(database.CategoriesCollection))
	userRepo := repository.NewUserRepository(db.Collection(database.UsersCollection))
	orderRepo := repository.NewOrderRepository(db.Collection(database.OrdersCollection))
	reviewRepo := repository.NewReviewRepository(db.Collection(database.ReviewsCollection))

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)

	// Servicios
	catalogService := services.NewCatalogService(productRepo, variantRepo, categoryRepo, catalogCache, cfg.CacheTTL)
	productService := services.NewProductService(productRepo, variantRepo, categoryRepo, files, catalogService)
	categoryService := services.NewCategoryService(categoryRepo, files, catalogService)
	authService := services.NewAuthService(userRepo, tokens)
	accountService := services.NewAccountService(userRepo, productRepo, variantRepo)
	orderService := services.NewOrderService(orderRepo, userRepo, payment.NewRazorpayVerifier(cfg.RazorpayKeySecret))
	reviewService := services.NewReviewService(reviewRepo, productRepo)
	if cfg.RazorpayKeySecret == "" {
		log.Warn("RAZORPAY_KEY_SECRET not set, razorpay orders will be rejected")
	}

	opts := routes.Options{
		Verifier:       tokens,
		Users:          userRepo,
		Log:            log,
		RequestTimeout: cfg.RequestTimeout,
	}
	if local, ok := files.(*storage.LocalStore); ok {
		opts.UploadDir = local.Dir()
		opts.UploadURL = local.URLPrefix()
	}

	router := routes.NewRouter(routes.Handlers{
		Products:   handlers.NewProductHandler(catalogService, productService, cfg.MaxUploadBytes),
		Categories: handlers.NewCategoryHandler(categoryService, cfg.MaxUploadBytes),
		Auth:       handlers.NewAuthHandler(authService, cfg.TokenTTL, cfg.IsProduction()),
		Accounts:   handlers.NewAccountHandler(accountService),
		Orders:     handlers.NewOrderHandler(orderService),
		Reviews:    handlers.NewReviewHandler(reviewService),
	}, opts)
	router.MaxMultipartMemory = cfg.MaxUploadBytes

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.RequestTimeout,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	// Apagado ordenado: se esperan los requests en curso
	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("server exited")
	return nil
}

// newCache elige el backend según CACHE_BACKEND; memoria por defecto.
func newCache(ctx context.Context, cfg *config.Config) (cache.Store, error) {
	switch cfg.CacheBackend {
	case config.CacheRedis:
		client, err := cache.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		zap.L().Info("catalog cache: redis")
		return cache.NewRedis(client, cfg.CacheTTL), nil
	case config.CacheNone:
		zap.L().Info("catalog cache: disabled")
		return cache.Noop{}, nil
	default:
		zap.L().Info("catalog cache: memory", zap.Duration("ttl", cfg.CacheTTL))
		return cache.NewMemory(cfg.CacheTTL), nil
	}
}

func newFileStore(ctx context.Context, cfg *config.Config) (storage.FileStore, error) {
	if cfg.StorageBackend == config.StorageS3 {
		store, err := storage.NewS3Store(ctx, storage.S3Options{
			Region:          cfg.AWSRegion,
			Endpoint:        cfg.AWSEndpoint,
			AccessKeyID:     cfg.AWSAccessKey,
			SecretAccessKey: cfg.AWSSecretKey,
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			PublicURL:       cfg.S3PublicURL,
		})
		if err != nil {
			return nil, err
		}
		zap.L().Info("file store: s3", zap.String("bucket", cfg.S3Bucket))
		return store, nil
	}

	store, err := storage.NewLocalStore(cfg.UploadDir, "/uploads")
	if err != nil {
		return nil, err
	}
	zap.L().Info("file store: local", zap.String("dir", cfg.UploadDir))
	return store, nil
}
