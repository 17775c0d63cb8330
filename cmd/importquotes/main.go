package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ndquotes/quote-api/internal/domain/quote"
	"github.com/ndquotes/quote-api/internal/ierr"
	"github.com/ndquotes/quote-api/internal/service"
	"github.com/ndquotes/quote-api/internal/storage/postgres"
	"go.uber.org/zap"
)

// importquotes bulk-loads quotes from a CSV file with the columns
// text,author,source,tags. Tags are separated by "|" inside the cell.
// Rows whose text already exists in the catalog are skipped.
func main() {
	filePath := flag.String("file", "", "Path to the CSV file to import")
	publish := flag.Bool("publish", false, "Mark imported quotes as published")
	flag.Parse()

	if *filePath == "" {
		log.Fatal("-file flag is required")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	f, err := os.Open(*filePath)
	if err != nil {
		log.Fatalf("Failed to open CSV file: %v", err)
	}
	defer f.Close()

	logger, _ := zap.NewDevelopment()
	pool, err := pgxpool.New(context.Background(), dbURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}
	defer pool.Close()

	quotes := service.NewQuoteService(postgres.NewQuoteRepository(pool, logger), logger)

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		log.Fatalf("Failed to read CSV header: %v", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns["text"]; !ok {
		log.Fatal("CSV header must contain a \"text\" column")
	}

	var imported, skipped, failed int
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Printf("line %d: malformed row: %v", line, err)
			failed++
			continue
		}

		q := &quote.Quote{
			Text:        cell(record, columns, "text"),
			Author:      cell(record, columns, "author"),
			Source:      cell(record, columns, "source"),
			Tags:        splitTags(cell(record, columns, "tags")),
			IsPublished: *publish,
		}
		if q.Text == "" {
			log.Printf("line %d: empty text, skipping", line)
			failed++
			continue
		}

		_, err = quotes.Create(context.Background(), q)
		switch {
		case err == nil:
			imported++
		case errors.Is(err, ierr.ErrDuplicateQuote):
			skipped++
		default:
			log.Printf("line %d: %v", line, err)
			failed++
		}
	}

	fmt.Printf("Import finished: %d imported, %d duplicates skipped, %d failed\n", imported, skipped, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func cell(record []string, columns map[string]int, name string) string {
	idx, ok := columns[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, "|")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
