package distantrace

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"distantrace-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:distantrace")
	defer cleanup()
	ctx := context.Background()

	server := newSite(t, siteOptions{})
	client := newTestClient(t, server)

	landing, err := client.Login(ctx, testCredentials())
	if err != nil {
		t.Fatal(err)
	}

	doc, err := parseDocument(landing)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, []string{"/lv/virtual-run-2024/"}, extractActiveEvents(ctx, doc))
}

func TestLoginTokenMissing(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:distantrace")
	defer cleanup()
	ctx := context.Background()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := w.Write([]byte("<html><body><form></form></body></html>"))
		require.NoError(t, err)
	}))
	defer server.Close()
	client := newTestClient(t, server)

	_, err := client.Login(ctx, testCredentials())

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, "token not found", authErr.Reason)
}

func TestLoginCredentialsRejected(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:distantrace")
	defer cleanup()
	ctx := context.Background()

	server := newSite(t, siteOptions{rejectLogin: true})
	client := newTestClient(t, server)

	_, err := client.Login(ctx, testCredentials())

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, "credentials rejected", authErr.Reason)
}

func TestLoginUnreachable(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:distantrace")
	defer cleanup()
	ctx := context.Background()

	server := newSite(t, siteOptions{})
	client := newTestClient(t, server)
	server.Close()

	_, err := client.Login(ctx, testCredentials())

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, "login page unreachable", authErr.Reason)
}
