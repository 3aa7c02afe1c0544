package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samirrijal/mapscreen/internal/pkg/config"
	"github.com/samirrijal/mapscreen/internal/pkg/logging"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: migrate <up|down>")
		os.Exit(2)
	}

	cfg, err := config.Load("mapscreen-migrate")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		slog.Error("db connect failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	switch os.Args[1] {
	case "up":
		err = run(ctx, pool, false)
	case "down":
		err = run(ctx, pool, true)
	default:
		err = fmt.Errorf("unknown command: %s", os.Args[1])
	}
	if err != nil {
		slog.Error("migrate failed", "error", err)
		os.Exit(1)
	}
}

// run applies every migrations/NNN_*.sql in order, or the matching
// *.down.sql files in reverse.
func run(ctx context.Context, pool *pgxpool.Pool, down bool) error {
	files, err := filepath.Glob("migrations/*.sql")
	if err != nil {
		return err
	}

	var selected []string
	for _, f := range files {
		if strings.HasSuffix(f, ".down.sql") == down {
			selected = append(selected, f)
		}
	}
	sort.Strings(selected)
	if down {
		sort.Sort(sort.Reverse(sort.StringSlice(selected)))
	}

	for _, f := range selected {
		data, err := os.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}
		if _, err := pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("exec %s: %w", f, err)
		}
		slog.Info("migration applied", "file", f)
	}

	slog.Info("all migrations applied", "count", len(selected), "down", down)
	return nil
}
