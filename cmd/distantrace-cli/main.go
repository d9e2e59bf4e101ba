package main

import (
	"context"

	"distantrace-backend/cmd/distantrace-cli/commands"
	"distantrace-backend/lib/telemetry"
)

func main() {
	telemetry.SetupFromEnv(context.Background(), "distantrace-cli")
	telemetry.InitSlog(true)
	commands.ExecuteContext(context.Background())
}
