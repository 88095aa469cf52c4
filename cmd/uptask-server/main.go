package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	uptask "github.com/FacundoZu/UpTask-Backend"
)

func main() {
	cfg, err := uptask.LoadConfig()
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	logger := uptask.NewLogrusLogger(cfg.LogLevel)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited: %s", err)
		os.Exit(1)
	}
}

func run(cfg *uptask.Config, logger uptask.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.Storage.DSN)
	if err != nil {
		return err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	defer db.Close()

	uptask.RegisterModels(db)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		return err
	}

	if err := uptask.Migrate(ctx, db); err != nil {
		return err
	}

	repo := uptask.NewRepositoryManager(db, cfg.Session.TokenTTL)
	repo.MustValidate()

	tokens := uptask.NewTokenService(
		[]byte(cfg.Session.SigningKey),
		cfg.Session.TTL,
		cfg.Session.Issuer,
		cfg.Session.Audience,
		logger,
	)

	var mailer uptask.Mailer
	if cfg.SMTP.Host != "" {
		mailer, err = uptask.NewSMTPMailer(cfg.SMTP, cfg.FrontendURL)
		if err != nil {
			return err
		}
	} else {
		logger.Warn("no SMTP host configured, emails will be logged and dropped")
		mailer = uptask.NoopMailer{Logger: logger}
	}

	app := fiber.New(fiber.Config{
		AppName:               "uptask",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	mw := uptask.NewMiddleware(repo, tokens).WithLogger(logger)

	uptask.RegisterAuthRoutes(app,
		uptask.NewAuthController(repo, tokens, mailer).
			WithLogger(logger).
			WithDebug(cfg.Debug).
			WithDeterministicIDs(cfg.Storage.DeterministicIDs),
		mw,
	)
	uptask.RegisterProjectRoutes(app,
		uptask.NewProjectController(repo).WithLogger(logger),
		uptask.NewTaskController(repo).WithLogger(logger),
		uptask.NewTeamController(repo).WithLogger(logger),
		uptask.NewNoteController(repo).WithLogger(logger),
		mw,
	)

	reaper := uptask.NewTokenReaper(repo, cfg.Session.ReapSchedule).WithLogger(logger)
	if err := reaper.Start(); err != nil {
		return err
	}
	defer reaper.Stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening on %s", cfg.Server.Addr())
		errCh <- app.Listen(cfg.Server.Addr())
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	return app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout)
}
