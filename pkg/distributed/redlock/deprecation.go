package redlock

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

var (
	suppressDeprecations atomic.Bool
	deprecationOnce       sync.Map // map[string]*sync.Once, keyed by the deprecated name
)

// SuppressDeprecationWarnings silences the one-time notices emitted by
// deprecated option constructors (WithExtendOnlyIfLife, WithExtendLife).
// Intended for tests that exercise the deprecated surface on purpose and
// would otherwise have their output poisoned by the warning.
func SuppressDeprecationWarnings() {
	suppressDeprecations.Store(true)
}

func warnDeprecated(oldName, newName string) {
	if suppressDeprecations.Load() {
		return
	}
	onceAny, _ := deprecationOnce.LoadOrStore(oldName, &sync.Once{})
	onceAny.(*sync.Once).Do(func() {
		slog.Warn("redlock: option is deprecated", "option", oldName, "replacement", newName)
	})
}
