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

	"lostlink/internal/db"
	"lostlink/internal/server"
	"lostlink/internal/storage"
	"lostlink/internal/store"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var serveCommand = &cli.Command{
	Name:   "serve",
	Usage:  "Start the HTTP server",
	Action: serve,
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	config, err := loadConfig()
	if err != nil {
		return err
	}

	awsConfig, err := loadAWSConfig(ctx)
	if err != nil {
		return err
	}

	s3Client := s3.NewFromConfig(awsConfig)

	pool, err := db.Connect(ctx, config)
	if err != nil {
		return err
	}
	defer pool.Close()

	itemsRepo := store.NewItemRepository(pool)
	claimsRepo := store.NewClaimRepository(pool)
	usersRepo := store.NewUserRepository(pool)
	auditsRepo := store.NewAuditRepository(pool)
	notificationsRepo := store.NewNotificationRepository(pool)

	objects := storage.NewObjectStorage(s3Client, config.StorageBucket)

	// The campus SSO JWKS is optional; without it only locally signed
	// tokens are accepted.
	var jwkCache *jwk.Cache
	var jwksURL string
	if config.SSOIssuerURL != "" {
		jwkCache, err = jwk.NewCache(context.Background(), httprc.NewClient())
		if err != nil {
			return fmt.Errorf("failed to initialize jwk cache: %w", err)
		}

		jwksURL = fmt.Sprintf("%s/.well-known/jwks.json", config.SSOIssuerURL)

		if err := jwkCache.Register(context.Background(), jwksURL); err != nil {
			return fmt.Errorf("failed to register sso jwks with cache: %w", err)
		}
	}

	srv, err := server.New(
		config,
		logger,
		itemsRepo,
		claimsRepo,
		usersRepo,
		auditsRepo,
		notificationsRepo,
		objects,
		jwkCache,
		jwksURL,
	)
	if err != nil {
		return err
	}

	go func() {
		logger.WithField("port", config.ServerPort).Infof("server starting http://localhost:%d", config.ServerPort)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Stop(shutdownCtx)
}
