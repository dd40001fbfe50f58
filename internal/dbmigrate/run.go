package dbmigrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/fdg312/coach-hub/migrations"
)

// Commands accepted by Run.
var Commands = []string{"up", "down", "status", "version", "redo"}

func IsCommand(command string) bool {
	for _, c := range Commands {
		if c == command {
			return true
		}
	}
	return false
}

// Run executes a goose command against dbURL using the migrations embedded
// in the binary. A non-empty dir reads migrations from disk instead.
func Run(ctx context.Context, command string, dbURL string, dir string) error {
	if dbURL == "" {
		return fmt.Errorf("database URL is empty")
	}
	if !IsCommand(command) {
		return fmt.Errorf("unsupported goose command %q", command)
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	var source fs.FS = migrations.FS
	if dir != "" {
		source = nil
	} else {
		dir = "."
	}
	goose.SetBaseFS(source)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.RunContext(ctx, command, db, dir); err != nil {
		return fmt.Errorf("goose %s failed: %w", command, err)
	}

	return nil
}
