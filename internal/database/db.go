package database

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

var db *sql.DB

// InitDB opens the PostgreSQL connection, verifies it, and makes sure the
// schema and the curated starter advice are in place.
func InitDB(connStr string) error {
	var err error
	db, err = sql.Open("postgres", connStr)
	if err != nil {
		return fmt.Errorf("opening database connection: %w", err)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("connecting to database (ping): %w", err)
	}

	zap.S().Info("PostgreSQL connection established")

	if err := ensureSchema(); err != nil {
		return err
	}
	return seedAdvice()
}

// GetDB returns the shared connection pool.
func GetDB() *sql.DB {
	if db == nil {
		zap.S().Fatal("database connection not initialized, call InitDB first")
	}
	return db
}

// ensureSchema creates the advice and query_logs tables when missing.
// Learned entries survive restarts, so nothing here is destructive.
func ensureSchema() error {
	advice := `
    CREATE TABLE IF NOT EXISTS advice (
        id SERIAL PRIMARY KEY,
        query TEXT NOT NULL,
        response TEXT NOT NULL,
        created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
        search_count INTEGER NOT NULL DEFAULT 0
    );`

	if _, err := db.Exec(advice); err != nil {
		return fmt.Errorf("creating advice table: %w", err)
	}

	// One row per normalized question. Learn relies on this index for its
	// first-write-wins upsert when two resolutions race on a new query.
	uniq := `
    CREATE UNIQUE INDEX IF NOT EXISTS idx_advice_query_norm
    ON advice (LOWER(query));`

	if _, err := db.Exec(uniq); err != nil {
		return fmt.Errorf("creating advice query index: %w", err)
	}

	logs := `
    CREATE TABLE IF NOT EXISTS query_logs (
        id SERIAL PRIMARY KEY,
        user_query TEXT NOT NULL,
        response_source VARCHAR(20),
        created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
    );`

	if _, err := db.Exec(logs); err != nil {
		return fmt.Errorf("creating query_logs table: %w", err)
	}

	zap.S().Info("tables 'advice' and 'query_logs' verified/created")
	return nil
}

// seedAdvice loads the curated Lilongwe entries. Existing rows keep their
// search_count; only the response text is refreshed when it changed.
func seedAdvice() error {
	inserted := 0
	for _, seed := range starterAdvice {
		res, err := db.Exec(`
            INSERT INTO advice (query, response)
            VALUES ($1, $2)
            ON CONFLICT (LOWER(query)) DO UPDATE
            SET response = EXCLUDED.response
            WHERE advice.response IS DISTINCT FROM EXCLUDED.response`,
			seed.query, seed.response,
		)
		if err != nil {
			return fmt.Errorf("seeding advice %q: %w", seed.query, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if inserted > 0 {
		zap.S().Infow("starter advice synchronized", "rows", inserted)
	} else {
		zap.S().Info("starter advice already up to date")
	}
	return nil
}
