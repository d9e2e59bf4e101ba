package distantrace

import (
	"context"
	"log/slog"
)

// collectResultPages fetches a participant's detail page and walks its
// pagination until no next link remains, returning the participant's
// identity and every result row across all pages in page order.
func (c *Client) collectResultPages(ctx context.Context, participantPath string) (Participant, []ResultRow, error) {
	res, err := c.get(ctx, participantPath, participantPath)
	if err != nil {
		return Participant{}, nil, err
	}
	doc, err := parseDocument(res.Body())
	if err != nil {
		return Participant{}, nil, err
	}

	participant, err := extractParticipant(doc, participantPath)
	if err != nil {
		return Participant{}, nil, err
	}
	slog.InfoContext(ctx, "participant name", "name", participant.Name)

	rows, err := extractResultRows(doc)
	if err != nil {
		return Participant{}, nil, err
	}

	// a page linking back to an already fetched one (itself, or page 1
	// under its explicit query form) must not wedge or double-count the
	// crawl
	visited := map[string]bool{}
	visited[participantPath] = true
	visited[participantPath+"?page=1"] = true

	for {
		links := paginationLinks(ctx, doc)
		if len(links) == 0 {
			break
		}
		next := participantPath + links[len(links)-1]
		if visited[next] {
			break
		}
		visited[next] = true
		slog.InfoContext(ctx, "next page url", "url", next)

		res, err := c.getAnon(ctx, next)
		if err != nil {
			return Participant{}, nil, err
		}
		doc, err = parseDocument(res.Body())
		if err != nil {
			return Participant{}, nil, err
		}
		pageRows, err := extractResultRows(doc)
		if err != nil {
			return Participant{}, nil, err
		}
		rows = append(rows, pageRows...)
	}

	return participant, rows, nil
}
