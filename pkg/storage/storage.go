// Package storage persists pipeline runs so the server can serve results
// computed earlier.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/chargecost/chargecost/pkg/types"
	"github.com/levenlabs/go-lflag"
)

// ErrRunNotFound is returned when no run matches the requested ID, or when
// no runs have been recorded at all.
var ErrRunNotFound = errors.New("run not found")

// defaultListLimit caps ListRuns when the caller passes a non-positive
// limit.
const defaultListLimit = 20

// Database is the interface for persisting and retrieving pipeline runs.
type Database interface {
	// SaveRun stores a completed run.
	SaveRun(ctx context.Context, run types.Run) error
	// GetRun retrieves a run by ID.
	GetRun(ctx context.Context, id string) (types.Run, error)
	// GetLatestRun retrieves the most recently started run.
	GetLatestRun(ctx context.Context) (types.Run, error)
	// ListRuns retrieves up to limit runs, most recently started first.
	ListRuns(ctx context.Context, limit int) ([]types.Run, error)

	// Lifecycle
	Close() error
}

type configured struct {
	Database
	provider string
}

// Name reports which provider Configured selected, or "" for a Database
// that didn't come from Configured.
func Name(db Database) string {
	if c, ok := db.(*configured); ok {
		return c.provider
	}
	return ""
}

// Configured sets up the storage provider based on flags.
func Configured() Database {
	provider := lflag.String("storage-provider", "none", "Storage provider to use (available: firestore, memory, none)")

	p := &configured{}

	fs := configuredFirestore()

	lflag.Do(func() {
		p.provider = *provider
		switch *provider {
		case "firestore":
			if err := fs.Validate(); err != nil {
				panic(fmt.Sprintf("firestore validation failed: %v", err))
			}
			if err := fs.Init(context.Background()); err != nil {
				panic(fmt.Sprintf("firestore init failed: %v", err))
			}
			p.Database = fs
		case "memory":
			p.Database = NewMemoryProvider()
		case "none":
			p.Database = noopProvider{}
		default:
			panic(fmt.Sprintf("unknown storage provider: %s", *provider))
		}
	})

	return p
}

// noopProvider discards saves and reports no runs. Selected with
// -storage-provider=none when persistence isn't wanted.
type noopProvider struct{}

func (noopProvider) SaveRun(context.Context, types.Run) error { return nil }

func (noopProvider) GetRun(context.Context, string) (types.Run, error) {
	return types.Run{}, ErrRunNotFound
}

func (noopProvider) GetLatestRun(context.Context) (types.Run, error) {
	return types.Run{}, ErrRunNotFound
}

func (noopProvider) ListRuns(context.Context, int) ([]types.Run, error) { return nil, nil }

func (noopProvider) Close() error { return nil }
