package app

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jimz159753/omnia-api/internal/clock"
	"github.com/jimz159753/omnia-api/internal/domain"
)

type fakeIDChecker struct {
	seen   map[string]bool
	calls  int
	always bool
}

func (f *fakeIDChecker) TicketIDExists(_ context.Context, id string) (bool, error) {
	f.calls++
	if f.always {
		return true, nil
	}
	return f.seen[id], nil
}

func TestTicketIDGenerator_Generate(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	pattern := regexp.MustCompile(`^TK-\d{4}-[A-Z0-9]{6}$`)

	t.Run("matches the expected format", func(t *testing.T) {
		gen := NewTicketIDGenerator(&fakeIDChecker{seen: map[string]bool{}}, clock.NewFixed(now))
		id, err := gen.Generate(context.Background())
		require.NoError(t, err)
		require.Regexp(t, pattern, id)
		require.Contains(t, id, "TK-2026-")
	})

	t.Run("unique across a large run", func(t *testing.T) {
		checker := &fakeIDChecker{seen: map[string]bool{}}
		gen := NewTicketIDGenerator(checker, clock.NewFixed(now))

		for i := 0; i < 1000; i++ {
			id, err := gen.Generate(context.Background())
			require.NoError(t, err)
			require.False(t, checker.seen[id], "duplicate id %s", id)
			checker.seen[id] = true
		}
	})

	t.Run("gives up after the retry bound", func(t *testing.T) {
		checker := &fakeIDChecker{always: true}
		gen := NewTicketIDGenerator(checker, clock.NewFixed(now))

		_, err := gen.Generate(context.Background())
		require.ErrorIs(t, err, domain.ErrTicketIDExhausted)
		require.Equal(t, 10, checker.calls)
	})
}
