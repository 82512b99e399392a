package app

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/avelichko/go-taskboard/internal/config"
	"github.com/avelichko/go-taskboard/internal/models"
)

var globalDB *sql.DB

const createTasksTableQuery = `
CREATE TABLE IF NOT EXISTS tasks (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    title      TEXT NOT NULL,
    status     TEXT NOT NULL DEFAULT 'todo',
    created_at TIMESTAMP NOT NULL
)
`

func MustOpenStore() {
	cfg := config.Global().Store

	db, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to open store")
		panic(err)
	}

	// Every new connection to :memory: opens a distinct database,
	// so the pool must never grow past a single connection.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.OpenTimeout)
	defer cancel()

	err = db.PingContext(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to ping store")
		panic(err)
	}

	_, err = db.ExecContext(ctx, createTasksTableQuery)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to migrate store")
		panic(err)
	}

	globalDB = db
	globalLogger.Info().
		Str("dsn", cfg.DSN).
		Msg("opened store")

	if cfg.Seed {
		mustSeedStore(ctx)
	}
}

func CloseStore() {
	err := globalDB.Close()
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to close store")
		return
	}
	globalLogger.Info().Msg("closed store")
}

func mustSeedStore(ctx context.Context) {
	var count int64
	err := globalDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks`).Scan(&count)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to count tasks")
		panic(err)
	}
	if count > 0 {
		globalLogger.Info().
			Int64("count", count).
			Msg("store already populated, skipping seed")
		return
	}

	seeds := []struct {
		title  string
		status models.Status
	}{
		{"Sketch the board layout", models.StatusDone},
		{"Wire up the change feed", models.StatusInProgress},
		{"Write the first real task", models.StatusTodo},
	}

	now := time.Now()
	for i, seed := range seeds {
		_, err = globalDB.ExecContext(
			ctx,
			`INSERT INTO tasks (title, status, created_at) VALUES (?, ?, ?)`,
			seed.title,
			seed.status,
			now.Add(time.Duration(i-len(seeds))*time.Second),
		)
		if err != nil {
			globalLogger.Error().
				Err(err).
				Str("title", seed.title).
				Msg("failed to seed task")
			panic(err)
		}
	}
	globalLogger.Info().
		Int("count", len(seeds)).
		Msg("seeded store")
}
