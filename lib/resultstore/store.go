package resultstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"distantrace-backend/lib/timezone"
)

// Store merges crawl batches into the three result tables with
// insert-or-update semantics, so replaying the same batch converges to
// the same state instead of duplicating rows.
type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

type Event struct {
	Id   string
	Name string
}

type Participant struct {
	Id   int64
	Name string
}

type Result struct {
	EventId       string
	ParticipantId int64
	Date          time.Time
	Distance      float64
	Steps         int64
}

// Batch is the denormalized record set one crawl produced.
type Batch struct {
	Events       []Event
	Participants []Participant
	Results      []Result
}

const dateLayout = "2006-01-02"

// placeholders appear in strictly ascending order exactly once so the
// same query text binds correctly on both postgres and sqlite

const upsertEvent = `
INSERT INTO events (id, name) VALUES ($1, $2)
ON CONFLICT (id) DO UPDATE SET name = excluded.name`

const upsertParticipant = `
INSERT INTO participants (id, name) VALUES ($1, $2)
ON CONFLICT (id) DO UPDATE SET name = excluded.name`

const upsertResult = `
INSERT INTO results (event_id, participant_id, result_date, distance, steps)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (event_id, participant_id, result_date)
DO UPDATE SET distance = excluded.distance, steps = excluded.steps`

// Merge upserts the batch in dependency order: events, then
// participants, then results, one transaction per entity type. a
// failing pass leaves the previously committed passes in place; their
// rows are valid parents for a retried run.
func (s Store) Merge(ctx context.Context, batch Batch) error {
	err := s.mergeEvents(ctx, batch.Events)
	if err != nil {
		return fmt.Errorf("merge events: %w", err)
	}
	err = s.mergeParticipants(ctx, batch.Participants)
	if err != nil {
		return fmt.Errorf("merge participants: %w", err)
	}
	err = s.mergeResults(ctx, batch.Results)
	if err != nil {
		return fmt.Errorf("merge results: %w", err)
	}
	return nil
}

func (s Store) mergeEvents(ctx context.Context, events []Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.ExecContext(ctx, upsertEvent, e.Id, e.Name)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s Store) mergeParticipants(ctx context.Context, participants []Participant) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, p := range participants {
		_, err := tx.ExecContext(ctx, upsertParticipant, p.Id, p.Name)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s Store) mergeResults(ctx context.Context, results []Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, r := range results {
		_, err := tx.ExecContext(
			ctx, upsertResult,
			r.EventId, r.ParticipantId, r.Date.Format(dateLayout), r.Distance, r.Steps,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Results reads back every stored row of an event, ordered by
// participant then date. used by the CLI and tests.
func (s Store) Results(ctx context.Context, eventId string) ([]Result, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_id, participant_id, result_date, distance, steps
		FROM results WHERE event_id = $1
		ORDER BY participant_id, result_date`,
		eventId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var r Result
		var date any
		err := rows.Scan(&r.EventId, &r.ParticipantId, &date, &r.Distance, &r.Steps)
		if err != nil {
			return nil, err
		}
		r.Date, err = scanDate(date)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// postgres hands DATE columns back as time.Time, sqlite as the text we
// stored
func scanDate(v any) (time.Time, error) {
	switch date := v.(type) {
	case time.Time:
		return timezone.Date(date), nil
	case string:
		return time.ParseInLocation(dateLayout, date, timezone.Location)
	case []byte:
		return time.ParseInLocation(dateLayout, string(date), timezone.Location)
	default:
		return time.Time{}, fmt.Errorf("unexpected result_date type %T", v)
	}
}
