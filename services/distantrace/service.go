package distantrace

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"distantrace-backend/lib/resultstore"
	scraper "distantrace-backend/lib/scrapers/distantrace"
	"distantrace-backend/lib/timezone"

	"github.com/robfig/cron/v3"
)

type Service struct {
	client *scraper.Client
	creds  scraper.Credentials
	store  resultstore.Store
}

type ServiceOptions struct {
	Client      *scraper.Client
	Credentials scraper.Credentials
	Store       resultstore.Store
}

func NewService(opts ServiceOptions) Service {
	return Service{
		client: opts.Client,
		creds:  opts.Credentials,
		store:  opts.Store,
	}
}

// RunOnce performs one crawl and merges whatever it produced. a crawl
// that found no active event merges nothing and succeeds.
func (s Service) RunOnce(ctx context.Context) error {
	started := timezone.Now()

	batch, err := scraper.Scrape(ctx, s.client, s.creds)
	if err != nil {
		return fmt.Errorf("scrape: %w", err)
	}
	if batch.Empty() {
		return nil
	}

	err = s.store.Merge(ctx, toRecords(batch))
	if err != nil {
		return fmt.Errorf("merge: %w", err)
	}

	slog.InfoContext(ctx, "run complete",
		"event", batch.Event.Id,
		"participants", len(batch.Participants),
		"duration", timezone.Now().Sub(started).String(),
	)
	return nil
}

// toRecords flattens the crawl output into the store's record sets.
func toRecords(batch scraper.Batch) resultstore.Batch {
	out := resultstore.Batch{
		Events: []resultstore.Event{{
			Id:   batch.Event.Id,
			Name: batch.Event.Name,
		}},
	}
	for _, pr := range batch.Participants {
		out.Participants = append(out.Participants, resultstore.Participant{
			Id:   pr.Participant.Id,
			Name: pr.Participant.Name,
		})
		for _, row := range pr.Rows {
			out.Results = append(out.Results, resultstore.Result{
				EventId:       batch.Event.Id,
				ParticipantId: pr.Participant.Id,
				Date:          row.Date,
				Distance:      row.Distance,
				Steps:         row.Steps,
			})
		}
	}
	return out
}

// StartCron schedules RunOnce on the given cron spec in site-local time
// and returns the started scheduler so the caller can Stop it. every
// run gets its own timeout so a hung crawl cannot pile up behind the
// next trigger.
func (s Service) StartCron(ctx context.Context, spec string, runTimeout time.Duration) (*cron.Cron, error) {
	scheduler := cron.New(cron.WithLocation(timezone.Location))
	_, err := scheduler.AddFunc(spec, func() {
		runCtx, cancel := context.WithTimeout(ctx, runTimeout)
		defer cancel()

		err := s.RunOnce(runCtx)
		if err != nil {
			slog.ErrorContext(runCtx, "scheduled run failed", "err", err)
		}
	})
	if err != nil {
		return nil, err
	}
	scheduler.Start()
	return scheduler, nil
}
