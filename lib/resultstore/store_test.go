package resultstore

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"distantrace-backend/lib/resultstore/db"
	"distantrace-backend/lib/telemetry"
	"distantrace-backend/lib/timezone"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupStore(t *testing.T) Store {
	sqlite, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { sqlite.Close() })
	_, err = sqlite.Exec(db.Schema)
	if err != nil {
		t.Fatal(err)
	}
	return NewStore(sqlite)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, timezone.Location)
}

func testBatch() Batch {
	return Batch{
		Events: []Event{
			{Id: "virtual-run-2024", Name: "Virtual Run 2024"},
		},
		Participants: []Participant{
			{Id: 101, Name: "Anna Bērziņa"},
			{Id: 102, Name: "Jānis Ozols"},
		},
		Results: []Result{
			{EventId: "virtual-run-2024", ParticipantId: 101, Date: date(2024, time.November, 1), Distance: 5.2, Steps: 7403},
			{EventId: "virtual-run-2024", ParticipantId: 101, Date: date(2024, time.November, 2), Distance: 3.8, Steps: 5211},
			{EventId: "virtual-run-2024", ParticipantId: 102, Date: date(2024, time.November, 1), Distance: 10.5, Steps: 14892},
		},
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:resultstore")
	defer cleanup()

	store := setupStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	batch := testBatch()
	err := store.Merge(ctx, batch)
	if err != nil {
		t.Fatal(err)
	}
	first, err := store.Results(ctx, "virtual-run-2024")
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, first, 3)

	err = store.Merge(ctx, batch)
	if err != nil {
		t.Fatal(err)
	}
	second, err := store.Results(ctx, "virtual-run-2024")
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, first, second)
}

func TestMergeOverwritesCorrectedValues(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:resultstore")
	defer cleanup()

	store := setupStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	err := store.Merge(ctx, testBatch())
	if err != nil {
		t.Fatal(err)
	}

	// a later crawl reports a corrected distance for an existing key
	corrected := testBatch()
	corrected.Results = []Result{
		{EventId: "virtual-run-2024", ParticipantId: 101, Date: date(2024, time.November, 1), Distance: 6.0, Steps: 8000},
	}
	err = store.Merge(ctx, corrected)
	if err != nil {
		t.Fatal(err)
	}

	results, err := store.Results(ctx, "virtual-run-2024")
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, results, 3)
	require.Equal(t, 6.0, results[0].Distance)
	require.Equal(t, int64(8000), results[0].Steps)
}

func TestMergeParticipantNameLastWriteWins(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:resultstore")
	defer cleanup()

	store := setupStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	err := store.Merge(ctx, testBatch())
	if err != nil {
		t.Fatal(err)
	}

	renamed := testBatch()
	renamed.Participants[0].Name = "Anna Kalniņa"
	err = store.Merge(ctx, renamed)
	if err != nil {
		t.Fatal(err)
	}

	var name string
	err = store.db.QueryRowContext(ctx, "SELECT name FROM participants WHERE id = $1", 101).Scan(&name)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "Anna Kalniņa", name)

	var count int
	err = store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM participants").Scan(&count)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, 2, count)
}

func TestMergeEmptyBatch(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:resultstore")
	defer cleanup()

	store := setupStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	err := store.Merge(ctx, Batch{})
	if err != nil {
		t.Fatal(err)
	}
	results, err := store.Results(ctx, "anything")
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, results, 0)
}
