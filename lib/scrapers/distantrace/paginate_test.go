package distantrace

import (
	"context"
	"testing"

	"distantrace-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func TestCollectResultPages(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:distantrace")
	defer cleanup()
	ctx := context.Background()

	server := newSite(t, siteOptions{})
	client := newTestClient(t, server)

	participant, rows, err := client.collectResultPages(ctx, "/lv/virtual-run-2024/dalibnieki/101/")
	if err != nil {
		t.Fatal(err)
	}

	require.Equal(t, Participant{Id: 101, Name: "Anna Bērziņa"}, participant)
	// the last page links back to already fetched ones, so the walk must
	// stop after page 3 without revisiting
	require.Equal(t, []ResultRow{
		{Date: day(2024, 11, 1), Distance: 5.2, Steps: 7403},
		{Date: day(2024, 11, 2), Distance: 3.8, Steps: 5211},
		{Date: day(2024, 11, 3), Distance: 7.1, Steps: 9870},
		{Date: day(2024, 11, 4), Distance: 2.4, Steps: 3305},
		{Date: day(2024, 11, 5), Distance: 12, Steps: 16044},
	}, rows)
}

func TestCollectResultPagesSinglePage(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:distantrace")
	defer cleanup()
	ctx := context.Background()

	server := newSite(t, siteOptions{})
	client := newTestClient(t, server)

	participant, rows, err := client.collectResultPages(ctx, "/lv/virtual-run-2024/dalibnieki/102/")
	if err != nil {
		t.Fatal(err)
	}

	require.Equal(t, Participant{Id: 102, Name: "Jānis Ozols"}, participant)
	require.Equal(t, []ResultRow{
		{Date: day(2024, 11, 1), Distance: 10.5, Steps: 14892},
	}, rows)
}

func TestCollectResultPagesMalformed(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:distantrace")
	defer cleanup()
	ctx := context.Background()

	server := newSite(t, siteOptions{})
	client := newTestClient(t, server)

	_, _, err := client.collectResultPages(ctx, "/lv/virtual-run-2024/dalibnieki/103/")

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}
