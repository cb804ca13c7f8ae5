package storedoctor

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// GenericTags are broad tags that say little about a game when they occupy
// the most visible positions.
var GenericTags = map[string]bool{
	"indie":            true,
	"casual":           true,
	"singleplayer":     true,
	"multiplayer":      true,
	"action":           true,
	"adventure":        true,
	"simulation":       true,
	"strategy":         true,
	"rpg":              true,
	"early access":     true,
	"free to play":     true,
	"2d":               true,
	"3d":               true,
	"colorful":         true,
	"cute":             true,
	"great soundtrack": true,
	"atmospheric":      true,
	"family friendly":  true,
	"funny":            true,
	"relaxing":         true,
}

// IsGenericTag reports whether tag is considered broad.
func IsGenericTag(tag string) bool {
	return GenericTags[strings.ToLower(strings.TrimSpace(tag))]
}

// Facts are the derived measurements the rules score against.
type Facts struct {
	TagCount         int     `json:"tagCount"`
	GenericInTop5    int     `json:"genericInTop5"`
	SpecificTagCount int     `json:"specificTagCount"`
	SpecificTagRatio float64 `json:"specificTagRatio"`
	TrailerCount     int     `json:"trailerCount"`
	ScreenshotCount  int     `json:"screenshotCount"`
	HasHeaderImage   bool    `json:"hasHeaderImage"`
	ShortDescLength  int     `json:"shortDescLength"`
	ImageCount       int     `json:"imageCount"`
	HeadingCount     int     `json:"headingCount"`
	ParagraphCount   int     `json:"paragraphCount"`
	PlainTextLength  int     `json:"plainTextLength"`
	LanguageCount    int     `json:"languageCount"`
	GenreCount       int     `json:"genreCount"`
	CategoryCount    int     `json:"categoryCount"`
	PlainText        string  `json:"-"`
}

// DeriveFacts measures a listing.
func DeriveFacts(l Listing) Facts {
	f := Facts{
		TagCount:        len(l.Tags),
		TrailerCount:    max(l.TrailerCount, 0),
		ScreenshotCount: max(l.ScreenshotCount, 0),
		HasHeaderImage:  l.HasHeaderImage,
		ShortDescLength: utf8.RuneCountInString(strings.TrimSpace(l.ShortDescription)),
		LanguageCount:   max(l.LanguageCount, 0),
		GenreCount:      max(l.GenreCount, 0),
		CategoryCount:   max(l.CategoryCount, 0),
	}
	for i, tag := range l.Tags {
		generic := IsGenericTag(tag)
		if i < 5 && generic {
			f.GenericInTop5++
		}
		if !generic {
			f.SpecificTagCount++
		}
	}
	if f.TagCount > 0 {
		f.SpecificTagRatio = float64(f.SpecificTagCount) / float64(f.TagCount)
	}

	s := describeHTML(l.DetailedDescriptionHTML)
	f.ImageCount = s.images
	f.HeadingCount = s.headings
	f.ParagraphCount = s.paragraphs
	f.PlainText = s.text
	f.PlainTextLength = utf8.RuneCountInString(s.text)
	return f
}

type htmlStructure struct {
	images     int
	headings   int
	paragraphs int
	text       string
}

// describeHTML counts images (img and video elements), headings (h1-h6) and
// paragraph breaks (p and br elements), and extracts the collapsed plain text.
func describeHTML(raw string) htmlStructure {
	var out htmlStructure
	if strings.TrimSpace(raw) == "" {
		return out
	}
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		out.text = strings.Join(strings.Fields(raw), " ")
		return out
	}

	var text strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			text.WriteString(n.Data)
			text.WriteByte(' ')
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Img, atom.Video:
				out.images++
			case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
				out.headings++
			case atom.P, atom.Br:
				out.paragraphs++
			case atom.Script, atom.Style:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	out.text = strings.Join(strings.Fields(text.String()), " ")
	return out
}
