package persist

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/l1jgo/rpgcore/internal/state"
)

// DefaultTimeout bounds a single store call when the caller sets none.
const DefaultTimeout = 5 * time.Second

// Store keeps the per-map entity states. Keys come from StatePath.
// A key that was never saved loads as an empty map without error.
type Store interface {
	Load(ctx context.Context, key string) (state.States, error)
	Save(ctx context.Context, key string, states state.States) error
	Close() error
}

// StatePath derives the storage key of a map source: the extension is
// stripped, every character other than a letter, digit or underscore
// becomes '_', and suffix is appended.
//
//	StatePath("maps/Town-1.yaml", ".state") == "maps_Town_1.state"
func StatePath(src, suffix string) string {
	src = strings.TrimSuffix(src, filepath.Ext(src))
	return strings.Map(func(c rune) rune {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
			return c
		}
		return '_'
	}, src) + suffix
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultTimeout
	}
	return context.WithTimeout(ctx, d)
}
