package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"exercise-tracker/internal/config"
	apphttp "exercise-tracker/internal/http"
	"exercise-tracker/internal/observability"
	"exercise-tracker/internal/repository"
	"exercise-tracker/internal/repository/dynamo"
	"exercise-tracker/internal/repository/mongodb"
	"exercise-tracker/internal/repository/sqlite"
	"exercise-tracker/internal/service"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warnf("invalid log level %q, using %s", cfg.Log.Level, logger.GetLevel())
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}
	statusPolicy, err := apphttp.ParseStatusPolicy(cfg.Server.ErrorStatus)
	if err != nil {
		logger.Fatalf("invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, cfg.Database.Timeout)
	store, err := buildStore(connectCtx, cfg, logger)
	if err == nil {
		err = repository.Init(connectCtx, store)
	}
	cancel()
	if err != nil {
		logger.Fatalf("setup store: %v", err)
	}
	logger.Infof("connected to %s store", cfg.Database.Driver)

	userService := service.NewUserService(store.Users())
	exerciseService := service.NewExerciseService(store.Users(), store.Exercises())

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), observability.AccessLog(logger), observability.RequestMetrics())
	handler := apphttp.NewHandler(
		userService,
		exerciseService,
		store,
		statusPolicy,
		logger,
	)
	handler.RegisterRoutes(router)
	apphttp.RegisterStatic(router, cfg.Server.ViewsDir, cfg.Server.PublicDir)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}

	go func() {
		logger.Infof("Your app is listening on %s", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	if err := store.Close(shutdownCtx); err != nil {
		logger.Warnf("close store: %v", err)
	}

	logger.Info("bye")
}

func buildStore(ctx context.Context, cfg config.Config, logger *logrus.Logger) (repository.Store, error) {
	switch cfg.Database.Driver {
	case config.DriverMongo:
		logger.Infof("using mongodb database %s", cfg.Database.Name)
		return mongodb.Connect(ctx, cfg.Database.URI, cfg.Database.Name)
	case config.DriverSQLite:
		logger.Infof("using sqlite database %s", cfg.Database.Path)
		return sqlite.NewStore(cfg.Database.Path)
	case config.DriverDynamoDB:
		return buildDynamoStore(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

func buildDynamoStore(ctx context.Context, cfg config.Config, logger *logrus.Logger) (repository.Store, error) {
	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.AWS.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.AWS.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.AWS.Endpoint)
		}
	})
	logger.Infof("using dynamodb tables %s/%s (region %s)", cfg.DynamoDB.UsersTable, cfg.DynamoDB.ExercisesTable, cfg.AWS.Region)

	store := dynamo.New(client, dynamo.Tables{
		Users:     cfg.DynamoDB.UsersTable,
		Exercises: cfg.DynamoDB.ExercisesTable,
		Unique:    cfg.DynamoDB.UniqueTable,
	}, cfg.DynamoDB.CreateTables)
	if err := store.Ping(ctx); err != nil && !cfg.DynamoDB.CreateTables {
		return nil, err
	}
	return store, nil
}
