// Package history records solves served by the API so clients can fetch
// them again by id.
//
// [MemoryStore] keeps a bounded in-process log and is the default.
// [MongoStore] persists runs in a MongoDB collection for servers that
// restart or run as several replicas.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	boardio "github.com/WalterStager/thaumcraft-research-solver/pkg/io"
)

// ErrNotFound is returned by Get for unknown run ids.
var ErrNotFound = errors.New("history: run not found")

// Kind names the solver that produced a run.
type Kind string

const (
	KindSolve Kind = "solve"
	KindExact Kind = "exact"
)

// Run is one recorded solve.
type Run struct {
	ID        string         `json:"id" bson:"_id"`
	Kind      Kind           `json:"kind" bson:"kind"`
	CreatedAt time.Time      `json:"created_at" bson:"created_at"`
	Duration  time.Duration  `json:"duration" bson:"duration"`
	Input     *boardio.Board `json:"input" bson:"input"`
	Output    *boardio.Board `json:"output,omitempty" bson:"output,omitempty"`

	// Status is "ok" or "error" for heuristic runs and the solver status
	// for exact runs.
	Status   string  `json:"status" bson:"status"`
	Cost     float64 `json:"cost" bson:"cost"`
	CacheHit bool    `json:"cache_hit" bson:"cache_hit"`
	Error    string  `json:"error,omitempty" bson:"error,omitempty"`
}

// NewRun starts a run record with a fresh id.
func NewRun(kind Kind, input *boardio.Board) *Run {
	return &Run{
		ID:        uuid.NewString(),
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
		Input:     input,
	}
}

// ValidID reports whether id could have come from NewRun.
func ValidID(id string) bool {
	return uuid.Validate(id) == nil
}

// Store saves and loads runs. Implementations are safe for concurrent use.
type Store interface {
	Save(ctx context.Context, run *Run) error
	Get(ctx context.Context, id string) (*Run, error)
	// List returns up to limit runs, newest first.
	List(ctx context.Context, limit int) ([]*Run, error)
	Close(ctx context.Context) error
}
