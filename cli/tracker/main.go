package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rifflock/lfshook"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/fieldops/geotrack/cli/tracker/api"
	"github.com/fieldops/geotrack/cli/tracker/config"
	"github.com/fieldops/geotrack/cli/tracker/domain"
	"github.com/fieldops/geotrack/cli/tracker/server"
	"github.com/fieldops/geotrack/cli/tracker/storage"
)

func main() {
	configFilePath := ""
	flag.StringVar(&configFilePath, "c", "", "path to the config file")
	flag.Parse()

	if configFilePath == "" {
		log.Fatal("Config path is not set")
		return
	}

	settings, err := config.New(configFilePath)
	if err != nil {
		log.Fatalf("Failed to parse the config: %v", err)
		return
	}

	configureLogging(settings)

	pgParams, hasPostgres := settings.Store["postgresql"]
	if hasPostgres && settings.MigrationsPath != "" {
		if err := applyMigrations(settings.MigrationsPath, pgParams); err != nil {
			log.Fatalf("Failed to apply migrations: %v", err)
			return
		}
	}

	repo := storage.NewRepository()
	if err := repo.LoadStorages(settings.Store); err != nil {
		log.Fatalf("Failed to connect storages: %v", err)
		return
	}
	defer repo.Close()

	asyncRepo := storage.NewAsyncRepository(repo, 1024, 0)
	defer asyncRepo.Close()

	fenceSource, err := buildFenceSource(settings, pgParams, hasPostgres)
	if err != nil {
		log.Fatalf("Failed to build the fence source: %v", err)
		return
	}

	hub := domain.NewHub(asyncRepo, settings.GetTrackingSettings(), fenceSource, settings.FenceReloadCron)
	if err := hub.Initialize(); err != nil {
		log.Fatalf("Failed to initialize the hub: %v", err)
		return
	}
	defer hub.Shutdown()

	srv := server.NewServer(settings.GetListenAddress(), settings.GetEmptyConnTTL(), hub)
	go func() {
		if err := srv.Run(); err != nil {
			log.Fatalf("Failed to run the server on %s: %v", settings.GetListenAddress(), err)
		}
	}()
	defer srv.Stop()

	go func() {
		controller := api.NewController(api.NewHandler(hub))
		log.Infof("Starting the API on port %d", settings.ApiPort)
		if err := controller.Run(int32(settings.ApiPort)); err != nil {
			log.Fatal(err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("Shutting down")
}

func buildFenceSource(settings config.Settings, pgParams map[string]string, hasPostgres bool) (domain.FenceSource, error) {
	if hasPostgres {
		connStr := fmt.Sprintf("dbname=%s host=%s port=%s user=%s password=%s sslmode=%s",
			pgParams["database"], pgParams["host"], pgParams["port"], pgParams["user"], pgParams["password"], pgParams["sslmode"])
		return domain.NewPostgresSource(connStr, pgParams["fence_table"])
	}

	fences, err := settings.GetFences()
	if err != nil {
		return nil, err
	}
	return domain.NewStaticSource(fences), nil
}

func configureLogging(settings config.Settings) {
	log.SetLevel(settings.GetLogLevel())

	consoleFmt := &log.TextFormatter{ForceColors: true, FullTimestamp: false}
	log.SetFormatter(consoleFmt)
	log.SetOutput(os.Stdout)

	if settings.LogFilePath != "" {
		logDir := filepath.Dir(settings.LogFilePath)
		if _, err := os.Stat(logDir); os.IsNotExist(err) {
			if err := os.MkdirAll(logDir, os.ModePerm); err != nil {
				log.Fatalf("Failed to create the log directory: %v", err)
			}
		}

		lumberjackLogger := &lumberjack.Logger{
			Filename:   settings.LogFilePath,
			MaxSize:    100,
			MaxBackups: 366,
			MaxAge:     settings.LogMaxAgeDays,
			Compress:   true,
		}

		fileFmt := &log.TextFormatter{DisableColors: true, FullTimestamp: true}
		hook := lfshook.NewHook(lfshook.WriterMap{
			log.PanicLevel: lumberjackLogger,
			log.FatalLevel: lumberjackLogger,
			log.ErrorLevel: lumberjackLogger,
			log.WarnLevel:  lumberjackLogger,
			log.InfoLevel:  lumberjackLogger,
			log.DebugLevel: lumberjackLogger,
			log.TraceLevel: lumberjackLogger,
		}, fileFmt)

		log.AddHook(hook)
	}
}

func applyMigrations(migrationsPath string, pgParams map[string]string) error {
	databaseURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		pgParams["user"], pgParams["password"], pgParams["host"], pgParams["port"], pgParams["database"], pgParams["sslmode"])

	m, err := migrate.New(migrationsPath, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize migrations: %v", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if err == migrate.ErrNoChange {
			log.Info("No new migrations to apply")
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %v", err)
	}

	log.Info("Migrations applied")
	return nil
}
