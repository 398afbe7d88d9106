package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/coordinator/journal"
)

func openTemp(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "checkout.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSaveAndReadBack(t *testing.T) {
	ctx := context.Background()
	repo := openTemp(t)

	base := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	entries := []*journal.Entry{
		{CheckoutID: "co-1", Status: journal.StatusStarted, Payload: `{"items":2}`, RecordedAt: base},
		{CheckoutID: "co-1", Status: journal.StatusStageDone, Stage: "CHECK_STOCK", RecordedAt: base.Add(time.Millisecond)},
		{CheckoutID: "co-1", Status: journal.StatusFailed, Stage: "CHARGE_PAYMENT", Errors: []string{"payment declined"}, RecordedAt: base.Add(2 * time.Millisecond)},
		{CheckoutID: "co-2", Status: journal.StatusStarted, RecordedAt: base},
	}
	for _, e := range entries {
		require.NoError(t, repo.Save(ctx, e))
	}

	latest, err := repo.GetLatest(ctx, "co-1")
	require.NoError(t, err)
	assert.Equal(t, journal.StatusFailed, latest.Status)
	assert.Equal(t, "CHARGE_PAYMENT", latest.Stage)
	assert.Equal(t, []string{"payment declined"}, latest.Errors)
	assert.Empty(t, latest.Payload)
	assert.True(t, latest.RecordedAt.Equal(base.Add(2*time.Millisecond)))

	all, err := repo.List(ctx, "co-1")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, journal.StatusStarted, all[0].Status)
	assert.Equal(t, `{"items":2}`, all[0].Payload)
	assert.Nil(t, all[0].Errors)
}

func TestUnknownCheckout(t *testing.T) {
	ctx := context.Background()
	repo := openTemp(t)

	_, err := repo.GetLatest(ctx, "missing")
	assert.ErrorIs(t, err, journal.ErrNotFound)

	_, err = repo.List(ctx, "missing")
	assert.ErrorIs(t, err, journal.ErrNotFound)
}

func TestReopenKeepsEntries(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "checkout.db")

	repo, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, journal.NewEntry(ctx, "co-9", journal.StatusCompleted, "NOTIFY")))
	require.NoError(t, repo.Close())

	repo, err = Open(path)
	require.NoError(t, err)
	defer repo.Close()

	latest, err := repo.GetLatest(ctx, "co-9")
	require.NoError(t, err)
	assert.Equal(t, journal.StatusCompleted, latest.Status)
}

func TestRecordedAtLayout(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC)
	formatted := at.Format(timeLayout)
	assert.Equal(t, "2026-01-02T03:04:05.000000006Z", formatted)

	got, err := parseRecordedAt(formatted)
	require.NoError(t, err)
	assert.True(t, got.Equal(at))

	_, err = parseRecordedAt("2026-01-02 03:04:05")
	assert.ErrorContains(t, err, "parse recorded_at")
}
