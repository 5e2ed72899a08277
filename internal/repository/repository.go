package repository

import (
	"context"
	"database/sql"
	"time"

	"eta_monitor/internal/models"
	"eta_monitor/internal/repository/db"
)

// Keys of the persisted documents.
const (
	KeyConfig = "eta_config"
	KeyState  = "eta_db"
)

// Authorization stores API operators.
type Authorization interface {
	Create(ctx context.Context, username, hash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Count(ctx context.Context) (int, error)
}

// KVStore persists JSON documents by key.
type KVStore interface {
	Put(ctx context.Context, key string, v any) error
	// Get decodes the stored document into dst and reports whether it existed.
	Get(ctx context.Context, key string, dst any) (bool, error)
	Clear(ctx context.Context) error
}

// JournalRepo is the durable copy of the sync log.
type JournalRepo interface {
	Append(ctx context.Context, e models.LogEntry) error
	List(ctx context.Context, from, to time.Time, severity models.Severity) ([]models.LogEntry, error)
	Prune(ctx context.Context, keep int) error
	Clear(ctx context.Context) error
}

type Repository struct {
	KV      KVStore
	Journal JournalRepo
	Auth    Authorization
}

func NewRepository(conn *sql.DB) *Repository {
	return &Repository{
		KV:      NewKVSQLite(conn),
		Journal: NewJournalSQLite(conn),
		Auth:    NewUsersSQLite(conn),
	}
}

// InitDB opens the sqlite file at path and applies the schema.
func InitDB(path string) (*sql.DB, error) {
	return db.InitDB(path)
}
