package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"fiddler/adapters/archive"
	"fiddler/internal"
	"fiddler/internal/api"
	"fiddler/internal/config"
	"fiddler/internal/generator"
	"fiddler/ports"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := internal.NewDefaultLogger()
	if logger.GetLevel() < internal.LogLevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	var runArchive ports.RunArchive
	if appConfig.Archive.Enabled {
		store, err := archive.Open(context.Background(), appConfig.Archive.Driver, appConfig.Archive.DSN, logger)
		if err != nil {
			log.Fatalf("Failed to open run archive: %v", err)
		}
		defer store.Close()
		runArchive = store
		log.Printf("Run archive enabled (%s)", appConfig.Archive.Driver)
	}

	gen := generator.New(
		generator.WithLogger(logger),
		generator.WithWorkers(appConfig.Generation.Workers),
	)
	server := api.NewServer(gen, runArchive, appConfig.Generation.Workers, logger)

	log.Printf("🚀 Starting Fiddler server on port %s", appConfig.Server.Port)
	log.Fatal(server.Start(":" + appConfig.Server.Port))
}
