package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/FACorreiaa/loci-trip-engine/internal/app/domain/reminders"
	"github.com/FACorreiaa/loci-trip-engine/internal/pkg/config"
	"github.com/FACorreiaa/loci-trip-engine/internal/pkg/logger"
	"github.com/FACorreiaa/loci-trip-engine/internal/server"
)

const reminderScanInterval = time.Minute

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file, using environment variables")
	}

	// Initialize logger
	if err := logger.Init(zapcore.InfoLevel, zap.String("service", "loci-trip-engine")); err != nil {
		return err
	}
	zlog := logger.Log
	defer zlog.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Create server
	srv, err := server.New(cfg, zlog)
	if err != nil {
		return err
	}
	defer srv.Close()

	// Setup router
	router := server.SetupRouter(srv.GetDBPool(), cfg, zlog)
	srv.SetRouter(router)

	// Start pprof server (on separate port, not exposed publicly)
	server.StartPprofServer(":6060", zlog)

	// Background reminder scan
	reminderCtx, cancelReminders := context.WithCancel(context.Background())
	defer cancelReminders()

	reminderRepo := reminders.NewRepository(srv.GetDBPool(), zlog)
	var mailer reminders.Mailer = reminders.NewLogMailer(zlog)
	if cfg.Reminder.SMTPAddr != "" {
		mailer = reminders.NewSMTPMailer(cfg.Reminder.SMTPAddr, cfg.Reminder.SMTPFrom, zlog)
	}
	scheduler := reminders.NewScheduler(reminderRepo, mailer, cfg.Reminder, zlog)
	go scheduler.Run(reminderCtx, reminderScanInterval)

	// Create HTTP server
	httpServer := srv.HTTPServer()

	// Setup graceful shutdown; the reminder scheduler stops first
	done := make(chan bool, 1)
	go server.GracefulShutdown(httpServer, zlog, cancelReminders, done)

	// Start server
	zlog.Info("Server starting", zap.String("port", cfg.ServerPort))
	if err := httpServer.ListenAndServe(); err != nil {
		zlog.Error("Server error", zap.Error(err))
	}

	// Wait for graceful shutdown to complete
	<-done
	zlog.Info("Graceful shutdown complete")

	return nil
}
