package sqlite

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// vacuumGate lets MaybeVacuum run at most once every minute across however
// often callers invoke it, so a busy write path never pays SQLite's
// ANALYZE/incremental-vacuum cost on every commit.
var vacuumGate = rate.Sometimes{Interval: time.Minute}

// MaybeVacuum runs SQLite's incremental vacuum and ANALYZE, subject to
// vacuumGate. Callers (typically the engine, after a commit) invoke it
// unconditionally; most calls are no-ops. This is best-effort housekeeping,
// never required for correctness, and never on the transactional write path.
func (s *Store) MaybeVacuum(ctx context.Context) error {
	var err error
	vacuumGate.Do(func() {
		if _, execErr := s.db.ExecContext(ctx, `PRAGMA incremental_vacuum`); execErr != nil {
			err = fmt.Errorf("incremental vacuum: %w", execErr)
			return
		}
		if _, execErr := s.db.ExecContext(ctx, `ANALYZE`); execErr != nil {
			err = fmt.Errorf("analyze: %w", execErr)
		}
	})
	return err
}
