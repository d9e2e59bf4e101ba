package commands

import (
	"time"

	"distantrace-backend/lib/configutil"
	"distantrace-backend/lib/configutil/configdb"
	"distantrace-backend/lib/ratelimit"
	"distantrace-backend/lib/resultstore"
	"distantrace-backend/lib/resultstore/db"
	scraper "distantrace-backend/lib/scrapers/distantrace"
	"distantrace-backend/lib/serviceutil"
	"distantrace-backend/services/distantrace"

	"github.com/spf13/cobra"
)

type Config struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	BaseUrl  string `json:"base_url"`
}

var scrapeDb *string
var scrapeDump *string
var scrapeFast *bool

func init() {
	scrapeDb = scrapeCmd.Flags().String("db", "results.db", "The sqlite database to write scrape results to.")
	scrapeDump = scrapeCmd.Flags().String("dump", "", "Dump every http exchange into this directory.")
	scrapeFast = scrapeCmd.Flags().Bool("fast", false, "Skip the politeness delays. Only use against a local mirror.")
	rootCmd.AddCommand(scrapeCmd)
}

func createClient(cfg Config) *scraper.Client {
	limiter := ratelimit.Default
	if *scrapeFast {
		limiter = ratelimit.Limiter{Min: time.Millisecond, Max: time.Millisecond}
	}
	client, err := scraper.NewClient(scraper.ClientOptions{
		BaseUrl: cfg.BaseUrl,
		Limiter: limiter,
	})
	if err != nil {
		serviceutil.Fatal("failed to initialize client", err)
	}
	if *scrapeDump != "" {
		client.SetDumpOutput(*scrapeDump)
	}
	return client
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--db <path/to/output.db>]",
	Short: "Runs one crawl according to a config and writes to a database.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := configutil.ReadConfig[Config]("config.json5")
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		out, err := configdb.Struct{File: *scrapeDb}.OpenDB(db.Schema)
		if err != nil {
			serviceutil.Fatal("failed to open db", err)
		}
		defer out.Close()

		service := distantrace.NewService(distantrace.ServiceOptions{
			Client:      createClient(cfg),
			Credentials: scraper.Credentials{Login: cfg.Login, Password: cfg.Password},
			Store:       resultstore.NewStore(out),
		})

		err = service.RunOnce(cmd.Context())
		if err != nil {
			serviceutil.Fatal("run failed", err)
		}
	},
}
