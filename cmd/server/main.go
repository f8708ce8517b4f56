package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"neuroscan/internal/auth"
	"neuroscan/internal/config"
	apphttp "neuroscan/internal/http"
	"neuroscan/internal/predictor"
	"neuroscan/internal/repository/sqlite"
	"neuroscan/internal/service"
	"neuroscan/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	if strings.TrimSpace(cfg.Auth.SessionSecret) == "" {
		logger.Fatalf("auth session secret is required")
	}
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		logger.Fatalf("auth jwt secret is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	userRepo := sqlite.NewUserRepository(db)
	scanRepo := sqlite.NewScanRepository(db)
	classificationRepo := sqlite.NewClassificationRepository(db)
	console := sqlite.NewQueryConsole(db)

	if err := userRepo.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}
	if err := scanRepo.Init(ctx); err != nil {
		logger.Fatalf("init scan repository: %v", err)
	}
	if err := classificationRepo.Init(ctx); err != nil {
		logger.Fatalf("init classification repository: %v", err)
	}

	archiver, err := buildArchiver(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup storage: %v", err)
	}

	backup := func() (string, error) {
		backupPath, err := sqlite.Backup(cfg.Database.Path)
		if err != nil || backupPath == "" || archiver == nil {
			return backupPath, err
		}
		location, err := archiver.UploadFile(ctx, backupPath, storage.UploadOptions{
			Bucket:    cfg.Storage.Bucket,
			KeyPrefix: cfg.Storage.KeyPrefix,
		})
		if err != nil {
			logger.Warnf("archive backup: %v", err)
		} else {
			logger.Infof("backup archived to %s", location)
		}
		return backupPath, nil
	}

	userService := service.NewUserService(userRepo, scanRepo, backup, logger)
	if err := userService.EnsureDefaults(ctx); err != nil {
		logger.Fatalf("seed default accounts: %v", err)
	}

	pred := buildPredictor(cfg, logger)
	scanService := service.NewScanService(scanRepo, classificationRepo, userService, pred, cfg.Uploads.Dir, cfg.Model.Name, logger)

	sessions := auth.NewSessionManager(cfg.Auth.SessionSecret)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(
		userService,
		scanService,
		console,
		sessions,
		[]byte(cfg.Auth.JWTSecret),
		time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute,
		cfg.Uploads.Dir,
		cfg.Uploads.MaxSizeBytes,
	)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
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

	logger.Info("bye")
}

func buildPredictor(cfg config.Config, logger *logrus.Logger) predictor.Predictor {
	endpoint := strings.TrimSpace(cfg.Model.Endpoint)
	if endpoint == "" {
		logger.Warn("no model endpoint configured; predictions degrade to the neutral label")
		return predictor.NewUnavailable()
	}
	logger.Infof("using model endpoint %s (%s)", endpoint, cfg.Model.Name)
	return predictor.NewRemote(endpoint, &http.Client{Timeout: 60 * time.Second})
}

func buildArchiver(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Archiver, error) {
	if cfg.Storage.Bucket == "" {
		return nil, nil
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("archiving backups to s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Archiver(client), nil
}
