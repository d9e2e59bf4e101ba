package htmlutil

import (
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	require.Equal(t, "Rīgas maratons", CleanText("  Rīgas\n\n  maratons \t"))
	require.Equal(t, "a b", CleanText("a     b"))
	require.Equal(t, "", CleanText(" \n\t "))
}

func TestAnchors(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
		<ul>
			<li><a href="/lv/event-1/">  Event
				One </a></li>
			<li><a>no href</a></li>
			<li><a href="#">placeholder</a></li>
		</ul>
	`))
	require.NoError(t, err)

	anchors := Anchors(context.Background(), doc.Find("a"))
	require.Equal(t, []Anchor{
		{Text: "Event One", Href: "/lv/event-1/"},
		{Text: "no href", Href: ""},
		{Text: "placeholder", Href: "#"},
	}, anchors)
}
