package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"distantrace-backend/lib/configutil"
	"distantrace-backend/lib/configutil/configdb"
	"distantrace-backend/lib/ratelimit"
	"distantrace-backend/lib/resultstore"
	"distantrace-backend/lib/resultstore/db"
	scraper "distantrace-backend/lib/scrapers/distantrace"
	"distantrace-backend/lib/serviceutil"
	"distantrace-backend/lib/telemetry"
	"distantrace-backend/services/distantrace"
)

type Config struct {
	Database configdb.Struct `json:"database"`
	Login    string          `json:"login"`
	Password string          `json:"password"`
	// default to the public site when empty
	BaseUrl   string `json:"base_url"`
	LoginPath string `json:"login_path"`
	UserAgent string `json:"user_agent"`
	// cron spec in site-local time
	Schedule string `json:"schedule"`
	// politeness delay bounds and per-request timeout, in seconds
	DelayMinSeconds   int `json:"delay_min_seconds"`
	DelayMaxSeconds   int `json:"delay_max_seconds"`
	TimeoutSeconds    int `json:"timeout_seconds"`
	RunTimeoutMinutes int `json:"run_timeout_minutes"`
	Port              int `json:"port"`
	// when set, every http exchange is dumped under this directory
	DumpDir string `json:"dump_dir"`
}

func main() {
	telemetry.InitSlog(os.Getenv("VERBOSE") == "1")

	ctx := serviceutil.SignalContext()

	tel, err := telemetry.SetupFromEnv(ctx, "distantraced")
	if err != nil && !os.IsNotExist(err) {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	defer tel.Shutdown(ctx)
	telemetry.InstrumentPerfStats(ctx)

	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "0 * * * *"
	}
	if cfg.RunTimeoutMinutes == 0 {
		cfg.RunTimeoutMinutes = 30
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}

	database, err := cfg.Database.OpenDB(db.Schema)
	if err != nil {
		serviceutil.Fatal("failed to open db", err)
	}
	defer database.Close()

	limiter := ratelimit.Default
	if cfg.DelayMinSeconds > 0 || cfg.DelayMaxSeconds > 0 {
		limiter = ratelimit.Limiter{
			Min: time.Duration(cfg.DelayMinSeconds) * time.Second,
			Max: time.Duration(cfg.DelayMaxSeconds) * time.Second,
		}
	}
	client, err := scraper.NewClient(scraper.ClientOptions{
		BaseUrl:   cfg.BaseUrl,
		LoginPath: cfg.LoginPath,
		UserAgent: cfg.UserAgent,
		Timeout:   time.Duration(cfg.TimeoutSeconds) * time.Second,
		Limiter:   limiter,
	})
	if err != nil {
		serviceutil.Fatal("failed to initialize client", err)
	}
	if cfg.DumpDir != "" {
		client.SetDumpOutput(cfg.DumpDir)
	}

	service := distantrace.NewService(distantrace.ServiceOptions{
		Client:      client,
		Credentials: scraper.Credentials{Login: cfg.Login, Password: cfg.Password},
		Store:       resultstore.NewStore(database),
	})

	scheduler, err := service.StartCron(
		ctx,
		cfg.Schedule,
		time.Duration(cfg.RunTimeoutMinutes)*time.Minute,
	)
	if err != nil {
		serviceutil.Fatal("failed to schedule runs", err)
	}
	defer scheduler.Stop()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "ok")
	})
	serviceutil.StartHttpServer(cfg.Port, mux)
}
