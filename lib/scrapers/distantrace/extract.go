package distantrace

import (
	"context"
	"strconv"
	"strings"
	"time"

	"distantrace-backend/lib/htmlutil"
	"distantrace-backend/lib/timezone"

	"github.com/PuerkitoBio/goquery"
)

type Event struct {
	Id   string
	Name string
}

type Participant struct {
	Id   int64
	Name string
}

// one parsed row of a participant's result table
type ResultRow struct {
	Date     time.Time
	Distance float64
	Steps    int64
}

// participant detail pages are the links under an event's result table
// whose path contains this marker ("participants" in Latvian)
const participantPathMarker = "dalibnieki"

// result dates are rendered day-first; "2.1.2006" also accepts
// zero-padded days and months
const dateLayout = "2.1.2006"

// extractActiveEvents returns the detail page path of every event in
// the landing page's active events section, in document order. an
// empty slice means no event is currently open.
func extractActiveEvents(ctx context.Context, doc *goquery.Document) []string {
	var paths []string
	for _, a := range htmlutil.Anchors(ctx, doc.Find("#pills-active-events h5.card-title a")) {
		if a.Href != "" {
			paths = append(paths, a.Href)
		}
	}
	return paths
}

// extractEvent pulls the event identity and its participant page paths
// out of the event's participant listing page. the event id is the
// last path segment of the event url, assigned by the site and never
// generated locally.
func extractEvent(ctx context.Context, doc *goquery.Document, eventPath string) (Event, []string, error) {
	id := lastPathSegment(eventPath)
	if id == "" {
		return Event{}, nil, &ParseError{What: "event id", Value: eventPath}
	}
	name := htmlutil.CleanText(doc.Find("h1").First().Text())
	if name == "" {
		return Event{}, nil, &ParseError{What: "event heading missing"}
	}

	table := doc.Find("div.table-container table tbody")
	if table.Length() == 0 {
		return Event{}, nil, &ParseError{What: "participant table missing"}
	}
	var paths []string
	for _, a := range htmlutil.Anchors(ctx, table.Find("a")) {
		if strings.Contains(a.Href, participantPathMarker) {
			paths = append(paths, a.Href)
		}
	}
	return Event{Id: id, Name: name}, paths, nil
}

// extractParticipant reads the participant's identity off their detail
// page; the numeric id comes from the url, the name from the page
// heading.
func extractParticipant(doc *goquery.Document, participantPath string) (Participant, error) {
	idText := lastPathSegment(participantPath)
	id, err := strconv.ParseInt(idText, 10, 64)
	if err != nil {
		return Participant{}, &ParseError{What: "participant id", Value: idText, Err: err}
	}
	name := htmlutil.CleanText(doc.Find("h3.text-secondary").First().Text())
	if name == "" {
		return Participant{}, &ParseError{What: "participant heading missing"}
	}
	return Participant{Id: id, Name: name}, nil
}

// extractResultRows parses every row of the result table on a
// participant page. one malformed row fails the whole page.
func extractResultRows(doc *goquery.Document) ([]ResultRow, error) {
	tbody := doc.Find("div.table-container table tbody")
	if tbody.Length() == 0 {
		return nil, &ParseError{What: "result table missing"}
	}

	var rows []ResultRow
	var rowErr error
	tbody.Find("tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		cells := tr.Find("td").Map(func(_ int, td *goquery.Selection) string {
			return htmlutil.CleanText(td.Text())
		})
		// cell 0 is the row number
		if len(cells) < 4 {
			rowErr = &ParseError{What: "result row too short", Value: strings.Join(cells, "|")}
			return false
		}
		row, err := parseRow(cells[1], cells[2], cells[3])
		if err != nil {
			rowErr = err
			return false
		}
		rows = append(rows, row)
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}
	return rows, nil
}

// parseRow converts the canonical cell encodings: day-first date,
// comma as the decimal separator, comma as the thousands separator.
func parseRow(dateText, distanceText, stepsText string) (ResultRow, error) {
	date, err := time.ParseInLocation(dateLayout, dateText, timezone.Location)
	if err != nil {
		return ResultRow{}, &ParseError{What: "result date", Value: dateText, Err: err}
	}
	distance, err := strconv.ParseFloat(strings.ReplaceAll(distanceText, ",", "."), 64)
	if err != nil {
		return ResultRow{}, &ParseError{What: "distance", Value: distanceText, Err: err}
	}
	steps, err := strconv.ParseInt(strings.ReplaceAll(stepsText, ",", ""), 10, 64)
	if err != nil {
		return ResultRow{}, &ParseError{What: "steps", Value: stepsText, Err: err}
	}
	return ResultRow{Date: date, Distance: distance, Steps: steps}, nil
}

// paginationLinks returns the hrefs of the pagination controls,
// skipping placeholder anchors. the last one points at the next page.
func paginationLinks(ctx context.Context, doc *goquery.Document) []string {
	var links []string
	for _, a := range htmlutil.Anchors(ctx, doc.Find("nav.pagination a")) {
		if a.Href == "" || strings.HasPrefix(a.Href, "#") {
			continue
		}
		links = append(links, a.Href)
	}
	return links
}

func lastPathSegment(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	segments := strings.Split(p, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "" {
			return segments[i]
		}
	}
	return ""
}
