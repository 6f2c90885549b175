package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "github.com/tanakrit/eduadmin-agent/agent/contract"
)

// Document is one durable record inside a named collection. The payload is
// schemaless JSONB so heterogeneous collections (users, ai_logs) share one
// table.
type Document struct {
	bun.BaseModel `bun:"table:documents,alias:d"`

	Collection string         `bun:"collection,pk"`
	ID         string         `bun:"id,pk"`
	Data       map[string]any `bun:"data,type:jsonb"`
	UpdatedAt  time.Time      `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type PostgresConfig struct {
	DSN          string        `envconfig:"DSN" split_words:"true" required:"true"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" split_words:"true" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" split_words:"true" default:"10s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" split_words:"true" default:"10s"`
}

// PostgresStore implements contract.DocumentStore on top of bun.
type PostgresStore struct {
	db *bun.DB
}

var _ contractx.DocumentStore = (*PostgresStore)(nil)

func NewPostgresStore(cfg PostgresConfig) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, errors.New("postgres dsn is required")
	}

	connector := pgdriver.NewConnector(
		pgdriver.WithDSN(cfg.DSN),
		pgdriver.WithDialTimeout(cfg.DialTimeout),
		pgdriver.WithReadTimeout(cfg.ReadTimeout),
		pgdriver.WithWriteTimeout(cfg.WriteTimeout),
	)
	sqldb := sql.OpenDB(connector)
	db := bun.NewDB(sqldb, pgdialect.New())

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromDB wraps an existing bun handle. Used by tests and by
// callers that manage the connection themselves.
func NewPostgresStoreFromDB(db *bun.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetDocument(ctx context.Context, collection, id string) (map[string]any, error) {
	doc := new(Document)
	err := s.db.NewSelect().
		Model(doc).
		Where("d.collection = ?", collection).
		Where("d.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: document %s/%s", contractx.ErrNotFound, collection, id)
		}
		return nil, fmt.Errorf("%w: get %s/%s: %v", contractx.ErrStore, collection, id, err)
	}
	return doc.Data, nil
}

func (s *PostgresStore) SetDocument(ctx context.Context, collection, id string, rec map[string]any) error {
	doc := &Document{
		Collection: collection,
		ID:         id,
		Data:       rec,
		UpdatedAt:  time.Now().UTC(),
	}
	_, err := s.db.NewInsert().
		Model(doc).
		On("CONFLICT (collection, id) DO UPDATE").
		Set("data = EXCLUDED.data").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("%w: set %s/%s: %v", contractx.ErrStore, collection, id, err)
	}
	return nil
}

func (s *PostgresStore) DeleteDocument(ctx context.Context, collection, id string) error {
	res, err := s.db.NewDelete().
		Model((*Document)(nil)).
		Where("d.collection = ?", collection).
		Where("d.id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("%w: delete %s/%s: %v", contractx.ErrStore, collection, id, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("%w: document %s/%s", contractx.ErrNotFound, collection, id)
	}
	return nil
}

func (s *PostgresStore) QueryDocuments(ctx context.Context, collection, orderBy string, limit int) ([]map[string]any, error) {
	var docs []Document
	err := s.db.NewSelect().
		Model(&docs).
		Where("d.collection = ?", collection).
		OrderExpr("d.data->>? DESC", orderBy).
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %v", contractx.ErrStore, collection, err)
	}

	records := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		records = append(records, doc.Data)
	}
	return records, nil
}
