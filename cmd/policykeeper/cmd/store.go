package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/solatis/policykeeper/internal/core/config"
	"github.com/solatis/policykeeper/internal/core/db"
	"github.com/solatis/policykeeper/internal/llm"
	"github.com/solatis/policykeeper/internal/store"
	"github.com/solatis/policykeeper/internal/store/mongostore"
	"github.com/solatis/policykeeper/internal/store/sqlstore"
)

// openStore selects a PolicyStore by URL scheme. SQL databases are migrated
// before use.
func openStore(ctx context.Context, dbURL string, logger *slog.Logger) (store.PolicyStore, error) {
	scheme, err := db.Scheme(dbURL)
	if err != nil {
		return nil, err
	}

	switch scheme {
	case "memory":
		logger.Warn("using in-memory policy store, policies are lost on exit")
		return store.NewMemory(), nil
	case "mongodb", "mongodb+srv":
		return mongostore.Open(ctx, dbURL)
	}

	if !db.IsSQL(dbURL) {
		return nil, fmt.Errorf("unsupported database scheme: %s (expected sqlite, postgres, mongodb or memory)", scheme)
	}
	conn, err := db.Open(ctx, dbURL)
	if err != nil {
		return nil, err
	}
	if err := db.MigrateUp(ctx, conn, logger); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	s, err := sqlstore.New(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func newLLMClient(cfg config.LLMConfig) (*llm.GeminiClient, error) {
	return llm.NewGeminiClient(llm.GeminiConfig{
		BaseURL:    cfg.BaseURL,
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	})
}
