package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ageGateCookies skip the mature content interstitial on store pages.
const ageGateCookies = "birthtime=0; lastagecheckage=1-0-1970; wants_mature_content=1"

// StoreClient talks to store.steampowered.com.
type StoreClient struct {
	baseURL string
	client  *http.Client
}

func NewStoreClient(opts ...Option) *StoreClient {
	o := buildOptions(DefaultStoreURL, opts)
	return &StoreClient{baseURL: o.baseURL, client: o.httpClient}
}

// AppDetails is the subset of the appdetails payload the service uses.
type AppDetails struct {
	AppID               string   `json:"appId"`
	Name                string   `json:"name"`
	ShortDescription    string   `json:"shortDescription"`
	DetailedDescription string   `json:"detailedDescription"`
	HeaderImage         string   `json:"headerImage"`
	Screenshots         []string `json:"screenshots"`
	Movies              []string `json:"movies"`
	Genres              []string `json:"genres"`
	Categories          []string `json:"categories"`
	Languages           []string `json:"languages"`
	Developers          []string `json:"developers"`
	ReleaseDate         string   `json:"releaseDate"`
	ComingSoon          bool     `json:"comingSoon"`
	IsFree              bool     `json:"isFree"`
}

type appDetailsEnvelope struct {
	Success bool           `json:"success"`
	Data    appDetailsData `json:"data"`
}

type appDetailsData struct {
	Name                string   `json:"name"`
	ShortDescription    string   `json:"short_description"`
	DetailedDescription string   `json:"detailed_description"`
	HeaderImage         string   `json:"header_image"`
	SupportedLanguages  string   `json:"supported_languages"`
	IsFree              bool     `json:"is_free"`
	Developers          []string `json:"developers"`
	Screenshots         []struct {
		PathFull string `json:"path_full"`
	} `json:"screenshots"`
	Movies []struct {
		Name string `json:"name"`
	} `json:"movies"`
	Genres []struct {
		Description string `json:"description"`
	} `json:"genres"`
	Categories []struct {
		Description string `json:"description"`
	} `json:"categories"`
	ReleaseDate struct {
		ComingSoon bool   `json:"coming_soon"`
		Date       string `json:"date"`
	} `json:"release_date"`
}

// AppDetails fetches store metadata for appID in the given language.
func (c *StoreClient) AppDetails(ctx context.Context, appID, lang string) (AppDetails, error) {
	q := url.Values{}
	q.Set("appids", appID)
	if lang != "" {
		q.Set("l", lang)
	}
	body, err := get(ctx, c.client, c.baseURL+"/api/appdetails?"+q.Encode(), "")
	if err != nil {
		return AppDetails{}, err
	}

	var envelope map[string]appDetailsEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return AppDetails{}, fmt.Errorf("%w: decode appdetails: %v", ErrUpstream, err)
	}
	entry, ok := envelope[appID]
	if !ok || !entry.Success {
		return AppDetails{}, ErrAppNotFound
	}

	d := entry.Data
	out := AppDetails{
		AppID:               appID,
		Name:                d.Name,
		ShortDescription:    d.ShortDescription,
		DetailedDescription: d.DetailedDescription,
		HeaderImage:         d.HeaderImage,
		Languages:           ParseLanguages(d.SupportedLanguages),
		Developers:          d.Developers,
		ReleaseDate:         d.ReleaseDate.Date,
		ComingSoon:          d.ReleaseDate.ComingSoon,
		IsFree:              d.IsFree,
	}
	for _, s := range d.Screenshots {
		out.Screenshots = append(out.Screenshots, s.PathFull)
	}
	for _, m := range d.Movies {
		out.Movies = append(out.Movies, m.Name)
	}
	for _, g := range d.Genres {
		out.Genres = append(out.Genres, g.Description)
	}
	for _, cat := range d.Categories {
		out.Categories = append(out.Categories, cat.Description)
	}
	return out, nil
}

// ParseLanguages turns the supported_languages HTML fragment into names.
// Text after the first line break is a footnote and is ignored.
func ParseLanguages(raw string) []string {
	var text strings.Builder
	z := html.NewTokenizer(strings.NewReader(raw))
loop:
	for {
		switch z.Next() {
		case html.ErrorToken:
			break loop
		case html.TextToken:
			text.Write(z.Text())
		case html.StartTagToken, html.SelfClosingTagToken:
			if name, _ := z.TagName(); atom.Lookup(name) == atom.Br {
				break loop
			}
		}
	}

	var out []string
	for _, part := range strings.Split(text.String(), ",") {
		name := strings.TrimSpace(strings.Trim(strings.TrimSpace(part), "*"))
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

// Tags scrapes the user tags from the store page in vote order.
func (c *StoreClient) Tags(ctx context.Context, appID string) ([]string, error) {
	body, err := get(ctx, c.client, c.baseURL+"/app/"+url.PathEscape(appID)+"/?l=english", ageGateCookies)
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("%w: parse store page: %v", ErrUpstream, err)
	}
	return extractTags(doc), nil
}

func extractTags(doc *html.Node) []string {
	var tags []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A && hasClass(n, "app_tag") && !hasClass(n, "add_button") {
			if t := strings.TrimSpace(nodeText(n)); t != "" && t != "+" {
				tags = append(tags, t)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return tags
}

func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(attr.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
