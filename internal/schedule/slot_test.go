package schedule_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/randevu/internal/domain"
	"github.com/gosuda/randevu/internal/schedule"
)

func TestParseSlot(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		expr      string
		wantStart int
		wantEnd   int
		wantErr   bool
	}{
		{name: "bare evening default", expr: "9-10", wantStart: 21, wantEnd: 22},
		{name: "morning qualifier literal", expr: "sabah 9-10", wantStart: 9, wantEnd: 10},
		{name: "afternoon unchanged", expr: "14-15", wantStart: 14, wantEnd: 15},
		{name: "past midnight unchanged", expr: "1-2", wantStart: 1, wantEnd: 2},
		{name: "boundary 11 shifts 12 stays", expr: "11-12", wantStart: 23, wantEnd: 24},
		{name: "crosses midnight", expr: "23-1", wantStart: 23, wantEnd: 25},
		{name: "qualifier uppercase", expr: "SABAH 10-11", wantStart: 10, wantEnd: 11},
		{name: "extra words around range", expr: "yarın 8-9 arası", wantStart: 20, wantEnd: 21},
		{name: "single token", expr: "9", wantErr: true},
		{name: "no digits", expr: "aksam", wantErr: true},
		{name: "hour out of range", expr: "25-26", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			slot, err := schedule.ParseSlot(tc.expr)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantStart, slot.StartHour)
			assert.Equal(t, tc.wantEnd, slot.EndHour)
		})
	}
}

func TestResolveDay(t *testing.T) {
	t.Parallel()

	// Wednesday 2026-09-02.
	now := time.Date(2026, 9, 2, 17, 30, 0, 0, time.UTC)

	t.Run("same week monday", func(t *testing.T) {
		t.Parallel()

		day, err := schedule.ResolveDay(now, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), day)
	})

	t.Run("next week friday", func(t *testing.T) {
		t.Parallel()

		day, err := schedule.ResolveDay(now, 1, 4)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 9, 11, 0, 0, 0, 0, time.UTC), day)
	})

	t.Run("deterministic for fixed now", func(t *testing.T) {
		t.Parallel()

		first, err := schedule.ResolveDay(now, 2, 3)
		require.NoError(t, err)
		second, err := schedule.ResolveDay(now, 2, 3)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("weekday out of range", func(t *testing.T) {
		t.Parallel()

		_, err := schedule.ResolveDay(now, 0, 7)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrValidation))
	})
}

func TestResolve(t *testing.T) {
	t.Parallel()

	// Monday 2026-08-31.
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	t.Run("evening slot on today", func(t *testing.T) {
		t.Parallel()

		start, end, err := schedule.Resolve(now, 0, 0, "9-10")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 8, 31, 21, 0, 0, 0, time.UTC), start)
		assert.Equal(t, time.Date(2026, 8, 31, 22, 0, 0, 0, time.UTC), end)
	})

	t.Run("morning slot", func(t *testing.T) {
		t.Parallel()

		start, end, err := schedule.Resolve(now, 0, 0, "sabah 9-10")
		require.NoError(t, err)
		assert.Equal(t, 9, start.Hour())
		assert.Equal(t, 10, end.Hour())
	})

	t.Run("slot crossing midnight lands on next day", func(t *testing.T) {
		t.Parallel()

		start, end, err := schedule.Resolve(now, 0, 5, "23-1")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 9, 5, 23, 0, 0, 0, time.UTC), start)
		assert.Equal(t, time.Date(2026, 9, 6, 1, 0, 0, 0, time.UTC), end)
	})

	t.Run("invalid slot propagates validation error", func(t *testing.T) {
		t.Parallel()

		_, _, err := schedule.Resolve(now, 0, 0, "hiç")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrValidation))
	})
}
