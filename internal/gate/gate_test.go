package gate

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EngagementSync/internal/infrastructure/memory"
)

var base = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func TestIsDue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cursor  *time.Time
		now     time.Time
		wantDue bool
	}{
		{name: "never synced", cursor: nil, now: base, wantDue: true},
		{name: "just synced", cursor: &base, now: base, wantDue: false},
		{name: "below interval", cursor: &base, now: base.Add(DefaultInterval - time.Millisecond), wantDue: false},
		{name: "exactly interval", cursor: &base, now: base.Add(DefaultInterval), wantDue: true},
		{name: "beyond interval", cursor: &base, now: base.Add(3 * DefaultInterval), wantDue: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			g := New(memory.NewCursorStore())
			if tt.cursor != nil {
				require.NoError(t, g.MarkSynced(ctx, *tt.cursor))
			}

			due, err := g.IsDue(ctx, tt.now)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDue, due)
		})
	}
}

func TestMarkSyncedStoresEpochMillis(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewCursorStore()
	g := New(store)

	require.NoError(t, g.MarkSynced(ctx, base))
	require.NoError(t, g.MarkSynced(ctx, base.Add(time.Hour)))

	raw, ok, err := store.Get(ctx, CursorKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1773147600000", raw)

	last, ok, err := g.LastSyncTime(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, last.Equal(base.Add(time.Hour)))
}

func TestUnreadableCursorCountsAsAbsent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewCursorStore()
	require.NoError(t, store.Set(ctx, CursorKey, "yesterday"))

	g := New(store)
	due, err := g.IsDue(ctx, base)
	require.NoError(t, err)
	assert.True(t, due)

	text, err := g.HumanElapsed(ctx, base)
	require.NoError(t, err)
	assert.Equal(t, "Never", text)
}

func TestCustomIntervalAndKey(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewCursorStore()
	g := New(store, WithInterval(time.Hour), WithKey("custom"), WithInterval(0))

	assert.Equal(t, time.Hour, g.Interval())
	require.NoError(t, g.MarkSynced(ctx, base))

	_, ok, err := store.Get(ctx, "custom")
	require.NoError(t, err)
	assert.True(t, ok)

	due, err := g.IsDue(ctx, base.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, due)
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("disk gone")
}

func (failingStore) Set(context.Context, string, string) error {
	return errors.New("disk gone")
}

func TestStoreErrorsPropagate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	g := New(failingStore{})

	_, err := g.IsDue(ctx, base)
	assert.ErrorContains(t, err, "read sync cursor")

	err = g.MarkSynced(ctx, base)
	assert.ErrorContains(t, err, "write sync cursor")

	_, err = g.HumanElapsed(ctx, base)
	assert.Error(t, err)
}
