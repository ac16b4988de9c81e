package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lexflow/lexflow/pkg/persistence"
	"github.com/lexflow/lexflow/pkg/persistence/file"
	"github.com/lexflow/lexflow/pkg/persistence/postgresql"
)

// NewPersistence builds the storage backend from a database URL. Postgres
// URLs select the SQL backend; anything else falls back to the file store.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch parsePersistenceProvider(databaseURL) {
	case "postgres", "postgresql":
		return postgresql.NewPersistence(ctx, logger, databaseURL)
	default:
		return file.NewPersistence(strings.TrimPrefix(databaseURL, "file://"))
	}
}

func parsePersistenceProvider(databaseURL string) string {
	provider, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return provider
}

// MustNewPersistence is NewPersistence for main() wiring.
func MustNewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	p, err := NewPersistence(ctx, logger, databaseURL)
	if err != nil {
		panic(fmt.Errorf("failed to initialize persistence: %w", err))
	}

	return p
}
