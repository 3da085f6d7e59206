// Package store persists presentation requests, the verifier credential and the
// accepted presentations and declinations, in PostgreSQL or in memory.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"
)

//go:embed schema.sql
var schema string

// Tables lists every table the schema creates, in dependency order.
var Tables = []string{"presentations", "no_presentations", "verifier_credentials", "presentation_requests"}

// Migrate applies the schema. Statements are idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Clock returns the current time.
type Clock func() time.Time
