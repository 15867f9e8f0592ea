// Risklab server - drives comparison-based risk ordering sessions over
// HTTP, persisting state in PostgreSQL and broadcasting live progress over
// WebSocket.
package main

import (
	"context"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/arborly/risklab/pkg/api"
	"github.com/arborly/risklab/pkg/cleanup"
	"github.com/arborly/risklab/pkg/config"
	"github.com/arborly/risklab/pkg/database"
	"github.com/arborly/risklab/pkg/events"
	"github.com/arborly/risklab/pkg/session"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("warning: could not load %s: %v", envPath, err)
		log.Printf("continuing with existing environment variables")
	} else {
		log.Printf("loaded environment from %s", envPath)
	}

	httpPort := getEnv("HTTP_PORT", "8080")
	healthPort := getEnv("HEALTH_PORT", "8081")

	log.Printf("starting risklab")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		log.Fatalf("failed to initialize configuration: %v", err)
	}

	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		log.Fatalf("failed to load database config: %v", err)
	}

	dbClient, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			log.Printf("error closing database client: %v", err)
		}
	}()
	log.Println("connected to PostgreSQL, migrations applied")

	sessionStore := database.NewSessionStore(dbClient.DB())
	publisher := events.NewPublisher(dbClient.DB())

	catchupQuerier := events.NewSQLCatchupQuerier(dbClient.DB())
	connManager := events.NewConnectionManager(catchupQuerier, 5*time.Second)

	listenerDSN := database.DSN(dbConfig)
	notifyListener := events.NewNotifyListener(listenerDSN, connManager)
	if err := notifyListener.Start(ctx); err != nil {
		log.Fatalf("failed to start NOTIFY listener: %v", err)
	}
	connManager.SetListener(notifyListener)
	defer notifyListener.Stop(context.Background())

	driver := session.NewDriver(sessionStore, cfg.InstrumentRegistry, publisher)

	cleanupSvc := cleanup.NewService(cfg.Retention, sessionStore)
	cleanupSvc.Start(ctx)
	defer cleanupSvc.Stop()

	apiServer := api.NewServer(driver, connManager, cfg.AllowedWSOrigins)
	healthRouter := api.NewHealthRouter(dbClient)

	go func() {
		log.Printf("health server listening on :%s", healthPort)
		ln, err := net.Listen("tcp", ":"+healthPort)
		if err != nil {
			log.Fatalf("failed to bind health port: %v", err)
		}
		if err := healthRouter.RunListener(ln); err != nil {
			log.Printf("health server stopped: %v", err)
		}
	}()

	go func() {
		log.Printf("API server listening on :%s", httpPort)
		if err := apiServer.Start(":" + httpPort); err != nil {
			log.Printf("API server stopped: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("error shutting down API server: %v", err)
	}
}
