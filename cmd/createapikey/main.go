package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ndquotes/quote-api/internal/service"
	"github.com/ndquotes/quote-api/internal/storage/postgres"
	"go.uber.org/zap"
)

func main() {
	name := flag.String("name", "", "Name of the key owner")
	description := flag.String("description", "Issued via createapikey CLI", "Description stored with the key")
	flag.Parse()

	if *name == "" {
		log.Fatal("-name flag is required")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	logger, _ := zap.NewDevelopment()
	pool, err := pgxpool.New(context.Background(), dbURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}
	defer pool.Close()

	repo := postgres.NewAPIKeyRepository(pool, logger)
	keys := service.NewAPIKeyService(repo, logger)

	created, err := keys.GenerateKey(context.Background(), *name, *description)
	if err != nil {
		log.Fatalf("Failed to create API key: %v", err)
	}

	fmt.Printf("Generated API Key (SAVE THIS securely, it is not shown again!):\n%s\n\n", created.Key)
	fmt.Printf("API key saved to database with ID: %s\n", created.ID)
}
