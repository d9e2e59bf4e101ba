package distantrace

import (
	"context"
	"log/slog"
)

// Batch is everything one crawl produced: the discovered event, the
// participants seen and all of their result rows. it only exists in
// memory between extraction and the merge into storage.
type Batch struct {
	Event        Event
	Participants []ParticipantResults
}

// ParticipantResults ties one participant to their rows.
type ParticipantResults struct {
	Participant Participant
	Rows        []ResultRow
}

// Empty reports the no-active-event outcome, which is a success, not
// an error.
func (b Batch) Empty() bool {
	return b.Event.Id == ""
}

type activeEvent struct {
	event            Event
	participantPaths []string
}

// discoverActiveEvent resolves the first active event on the landing
// page to its identity and participant listing. when several events
// are active only the first is crawled; the site has never listed more
// than one and the ordering is its own.
func (c *Client) discoverActiveEvent(ctx context.Context, landing []byte) (activeEvent, bool, error) {
	doc, err := parseDocument(landing)
	if err != nil {
		return activeEvent{}, false, &ParseError{What: "landing page", Err: err}
	}
	paths := extractActiveEvents(ctx, doc)
	if len(paths) == 0 {
		return activeEvent{}, false, nil
	}
	eventPath := paths[0]

	res, err := c.get(ctx, eventPath+participantPathMarker+"/", eventPath)
	if err != nil {
		return activeEvent{}, false, err
	}
	eventDoc, err := parseDocument(res.Body())
	if err != nil {
		return activeEvent{}, false, &ParseError{What: "event page", Err: err}
	}
	event, participantPaths, err := extractEvent(ctx, eventDoc, eventPath)
	if err != nil {
		return activeEvent{}, false, err
	}
	slog.InfoContext(ctx, "event name", "name", event.Name)
	return activeEvent{event: event, participantPaths: participantPaths}, true, nil
}

// Scrape runs one full crawl: login, active event discovery, then
// paginated extraction for every listed participant in order. a
// participant whose pages fail to fetch or parse is skipped and
// logged; authentication and discovery failures abort the run.
func Scrape(ctx context.Context, client *Client, creds Credentials) (Batch, error) {
	landing, err := client.Login(ctx, creds)
	if err != nil {
		return Batch{}, err
	}

	active, ok, err := client.discoverActiveEvent(ctx, landing)
	if err != nil {
		return Batch{}, err
	}
	if !ok {
		slog.InfoContext(ctx, "no active events")
		return Batch{}, nil
	}

	batch := Batch{Event: active.event}
	for _, path := range active.participantPaths {
		slog.InfoContext(ctx, "processing participant", "path", path)

		participant, rows, err := client.collectResultPages(ctx, path)
		if err != nil {
			slog.WarnContext(ctx, "skipping participant", "path", path, "err", err)
			continue
		}
		batch.Participants = append(batch.Participants, ParticipantResults{
			Participant: participant,
			Rows:        rows,
		})
	}

	return batch, nil
}
