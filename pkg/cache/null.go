package cache

import (
	"context"
	"time"
)

// disabled backs --no-cache and the "none" backend: every lookup misses, so
// each solve runs from scratch and nothing is written.
type disabled struct{}

// Disabled returns a Cache that never stores solve results.
func Disabled() Cache { return disabled{} }

func (disabled) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (disabled) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (disabled) Delete(context.Context, string) error { return nil }
func (disabled) Close() error { return nil }
