package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"

	"github.com/transparencity/backend/internal/api/routes"
	"github.com/transparencity/backend/internal/cache"
	"github.com/transparencity/backend/internal/config"
	"github.com/transparencity/backend/internal/database"
	"github.com/transparencity/backend/internal/logger"
	"github.com/transparencity/backend/internal/metrics"
	"github.com/transparencity/backend/internal/server"
	"github.com/transparencity/backend/internal/services"
	"github.com/transparencity/backend/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log().WithError(err).Fatal("load config")
	}

	// Log to both stdout and a rotated file
	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		logger.Log().WithError(err).Warn("cannot create log directory, logging to stdout only")
		logger.Init(cfg.Debug, os.Stdout)
	} else {
		rotator := &lumberjack.Logger{
			Filename:   filepath.Join(cfg.LogDir, "transparencity.log"),
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		logger.Init(cfg.Debug, io.MultiWriter(os.Stdout, rotator))
	}

	db, err := database.Connect(cfg.DatabasePath)
	if err != nil {
		logger.Log().WithError(err).Fatal("connect database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Log().WithError(err).Fatal("migrate database")
	}

	if len(os.Args) > 1 {
		runCommand(db, cfg, os.Args[1], os.Args[2:])
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Log().WithField("version", version.Full()).Infof("starting %s backend", version.Name)

	cacheClient, err := cache.New(ctx, cfg.RedisURL, "transparencity:")
	if err != nil {
		logger.Log().WithError(err).Warn("redis unavailable, verification caching disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Register(registry)

	svc := routes.NewServices(db, cfg, cacheClient)
	opts := routes.Options{Registry: registry, SecureCookies: !cfg.IsDevelopment()}
	if cacheClient != nil {
		opts.Cache = cacheClient
		defer cacheClient.Close()
	}

	scheduler := services.NewDeadlineScheduler(svc.Proposals)
	if err := scheduler.Start(cfg.DeadlineSweep); err != nil {
		logger.Log().WithError(err).Fatal("start deadline scheduler")
	}
	defer scheduler.Stop(context.Background())

	logger.Log().WithField("port", cfg.HTTPPort).Info("listening")
	if err := server.New(db, cfg, svc, opts).Run(ctx); err != nil {
		logger.Log().WithError(err).Fatal("server error")
	}
	logger.Log().Info("shut down cleanly")
}

// runCommand executes an operator subcommand against the database and exits.
func runCommand(db *gorm.DB, cfg config.Config, name string, args []string) {
	log := logger.Log().WithField("command", name)
	svc := routes.NewServices(db, cfg, nil)

	switch name {
	case "promote-admin":
		if len(args) != 1 {
			log.Fatalf("usage: %s promote-admin <email>", os.Args[0])
		}
		user, err := svc.Users.PromoteAdmin(args[0])
		if err != nil {
			log.WithError(err).Fatal("promote admin")
		}
		log.WithField("user_id", user.ID).Info("user promoted to admin")

	case "reset-password":
		if len(args) != 2 {
			log.Fatalf("usage: %s reset-password <email> <new-password>", os.Args[0])
		}
		user, err := svc.Auth.ResetPassword(args[0], args[1])
		if err != nil {
			log.WithError(err).Fatal("reset password")
		}
		log.WithField("user_id", user.ID).Info("password updated and account unlocked")

	case "verify-audit":
		report, err := svc.Audit.VerifyChain()
		if err != nil {
			log.WithError(err).Fatal("verify audit chain")
		}
		entry := log.WithField("checked", report.Checked)
		if !report.Valid {
			entry.WithField("broken_at", report.BrokenAt).Error("audit chain is broken")
			os.Exit(1)
		}
		entry.Info("audit chain intact")

	case "close-expired":
		n, err := svc.Proposals.CloseExpired()
		if err != nil {
			log.WithError(err).Error("some proposals could not be closed")
		}
		log.WithField("closed", n).Info("expired votes closed")

	default:
		log.Fatalf("unknown command %q (want promote-admin, reset-password, verify-audit or close-expired)", name)
	}
}
