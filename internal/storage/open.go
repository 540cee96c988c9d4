package storage

import (
	"context"
	"fmt"
	"strings"

	"feeManager/internal/storage/postgres"
)

const (
	KindMemory   = "memory"
	KindJsonl    = "jsonl"
	KindPostgres = "postgres"
)

// Options selects and configures a storage backend.
type Options struct {
	Kind       string
	Path       string
	ShieldPath string
	PGDSN      string
}

// Opened is an open backend. Postgres is set only for the postgres kind so
// callers can reuse its connection pool.
type Opened struct {
	Kind     string
	Ticks    TickStorage
	Shields  ShieldStorage
	Postgres *postgres.Store
}

// Durable reports whether records outlive the process.
func (o *Opened) Durable() bool {
	return o != nil && o.Kind != KindMemory
}

func (o *Opened) Close() {
	if o != nil && o.Postgres != nil {
		o.Postgres.Close()
	}
}

// Open builds the backend named by opts.Kind.
func Open(ctx context.Context, opts Options) (*Opened, error) {
	switch kind := strings.ToLower(strings.TrimSpace(opts.Kind)); kind {
	case KindMemory:
		return &Opened{Kind: kind, Ticks: NewMemoryStorage(), Shields: NewMemoryShieldStorage()}, nil
	case "", KindJsonl:
		ticks, err := OpenJsonlStorage(opts.Path)
		if err != nil {
			return nil, err
		}
		shieldPath := opts.ShieldPath
		if shieldPath == "" {
			shieldPath = opts.Path + ".shields"
		}
		shields, err := OpenJsonlShieldStorage(shieldPath)
		if err != nil {
			return nil, err
		}
		return &Opened{Kind: KindJsonl, Ticks: ticks, Shields: shields}, nil
	case KindPostgres:
		store, err := postgres.NewStore(ctx, opts.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return &Opened{Kind: kind, Ticks: store, Shields: store, Postgres: store}, nil
	default:
		return nil, fmt.Errorf("unsupported store kind: %s", opts.Kind)
	}
}
