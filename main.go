package main

import (
	"bufio"
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"lookingup/config"
	"lookingup/controllers"
	"lookingup/middleware"
	"lookingup/routes"
	"lookingup/utils"
	"lookingup/verifier"
	"lookingup/worker"
)

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	log := logrus.WithField("service", "lookingup")

	if err := config.LoadConfig(); err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	if config.AppConfig.Environment == "development" {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if dsn := config.AppConfig.SentryDSN; dsn != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         dsn,
			Environment: config.AppConfig.Environment,
		})
		if err != nil {
			log.WithError(err).Warn("sentry init failed, continuing without it")
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	if err := config.ConnectDB(); err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}

	sets := loadSets(log)

	engine := verifier.New(verifier.Config{
		HelloHostname:  config.AppConfig.Verifier.HelloHostname,
		SMTPPort:       config.AppConfig.Verifier.SMTPPort,
		ConnectTimeout: config.AppConfig.Verifier.ConnectTimeout,
		CommandPacing:  config.AppConfig.Verifier.CommandPacing,
		DNSTimeout:     config.AppConfig.Verifier.DNSTimeout,
		SocksProxyAddr: config.AppConfig.Verifier.SocksProxyAddr,
	}, sets, log.WithField("component", "verifier"))

	usage, err := utils.NewUsageReporter(config.DB, config.AppConfig.NSQDAddr, log.WithField("component", "usage"))
	if err != nil {
		log.WithError(err).Fatal("failed to initialize usage reporter")
	}
	defer usage.Stop()

	hub := worker.NewProgressHub()
	processor := worker.NewBulkProcessor(config.DB, engine, usage, hub, log.WithField("component", "worker"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go processor.Start(ctx)

	app := fiber.New(fiber.Config{
		AppName:      "lookingup",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 6 * time.Minute, // finder calls can run long
	})
	app.Use(recover.New())
	app.Use(middleware.CORS())

	vc := controllers.NewVerificationController(config.DB, engine, usage, processor, hub, log.WithField("component", "verify"))
	fc := controllers.NewFinderController(config.DB, engine, usage, log.WithField("component", "find"))
	uc := controllers.NewUsageController(config.DB, log.WithField("component", "usage"))
	routes.Setup(app, config.DB, vc, fc, uc)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info("shutting down")
		cancel()
		_ = app.Shutdown()
	}()

	log.WithField("port", config.AppConfig.ServerPort).Info("server starting")
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

// loadSets builds the classification sets, applying any file overrides
// from configuration. Each override file carries one entry per line.
func loadSets(log *logrus.Entry) verifier.Sets {
	sets := verifier.DefaultSets()
	if entries := readList(config.AppConfig.Verifier.DisposableListPath, log); entries != nil {
		sets.Disposable = verifier.SetFromList(entries)
	}
	if entries := readList(config.AppConfig.Verifier.RoleListPath, log); entries != nil {
		sets.RoleBased = verifier.SetFromList(entries)
	}
	if entries := readList(config.AppConfig.Verifier.FreeListPath, log); entries != nil {
		sets.Free = verifier.SetFromList(entries)
	}
	return sets
}

func readList(path string, log *logrus.Entry) []string {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		log.WithError(err).WithField("path", path).Warn("list override unreadable, using built-in set")
		return nil
	}
	defer f.Close()

	var entries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entries = append(entries, line)
	}
	if err := scanner.Err(); err != nil {
		log.WithError(err).WithField("path", path).Warn("list override unreadable, using built-in set")
		return nil
	}
	return entries
}
