// Package main seeds the sheet store from an exported workbook.
//
// Seeded sheets carry no sync marker, so the first sync after seeding still
// fetches the full sheet from the remote endpoint.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/halaqat-hub/halaqat-reports/config"
	"github.com/halaqat-hub/halaqat-reports/internal/domain/sheet"
	"github.com/halaqat-hub/halaqat-reports/internal/infrastructure/external/workbook"
	"github.com/halaqat-hub/halaqat-reports/internal/infrastructure/persistence"
	"github.com/halaqat-hub/halaqat-reports/pkg/logger"
)

func main() {
	file := flag.String("file", "", "path to the exported .xlsx workbook")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := run(ctx, *file); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, file string) error {
	if file == "" {
		return errors.New("-file is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Options{
		Level:  cfg.Observability.LogLevel,
		Format: cfg.Observability.LogFormat,
		Output: os.Stdout,
	})
	slog.SetDefault(log)

	storage, err := persistence.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer storage.Close()

	log = log.With(logger.Component("seed"))

	if storage.Backend == persistence.BackendMemory {
		log.Warn("seeding the in-memory store; rows are lost when this process exits")
	}

	sheetsByName, err := workbook.NewReader(log).ReadFile(file)
	if err != nil {
		return err
	}
	if len(sheetsByName) == 0 {
		return fmt.Errorf("no known sheets found in %s", file)
	}

	names := make([]sheet.Name, 0, len(sheetsByName))
	for name := range sheetsByName {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	var failed int
	for _, name := range names {
		rows := sheetsByName[name]
		status := storage.Store.Put(ctx, name, rows, time.Time{})
		if status != sheet.StatusOK {
			failed++
			log.Error("seed failed", "sheet", name, "status", status.String())
			continue
		}
		log.Info("sheet seeded", "sheet", name, "rows", len(rows))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d sheets could not be seeded", failed, len(names))
	}
	log.Info("seed completed", "sheets", len(names))
	return nil
}
