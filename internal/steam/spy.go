package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
)

// SpyClient reads tag listings from SteamSpy.
type SpyClient struct {
	baseURL string
	client  *http.Client
}

func NewSpyClient(opts ...Option) *SpyClient {
	o := buildOptions(DefaultSpyURL, opts)
	return &SpyClient{baseURL: o.baseURL, client: o.httpClient}
}

// SpyApp is one game in a SteamSpy listing.
type SpyApp struct {
	AppID    string `json:"appId"`
	Name     string `json:"name"`
	Positive int    `json:"positive"`
	Negative int    `json:"negative"`
}

// Popularity is the review count, used as a stand-in for sales.
func (a SpyApp) Popularity() int {
	return a.Positive + a.Negative
}

type spyEntry struct {
	AppID    json.Number `json:"appid"`
	Name     string      `json:"name"`
	Positive int         `json:"positive"`
	Negative int         `json:"negative"`
}

// TagListing returns every app SteamSpy files under tag, most popular first.
func (c *SpyClient) TagListing(ctx context.Context, tag string) ([]SpyApp, error) {
	q := url.Values{}
	q.Set("request", "tag")
	q.Set("tag", tag)
	body, err := get(ctx, c.client, c.baseURL+"/api.php?"+q.Encode(), "")
	if err != nil {
		return nil, err
	}

	var raw map[string]spyEntry
	if err := json.Unmarshal(body, &raw); err != nil {
		// SteamSpy answers unknown tags with an empty JSON array.
		var empty []any
		if json.Unmarshal(body, &empty) == nil && len(empty) == 0 {
			return []SpyApp{}, nil
		}
		return nil, fmt.Errorf("%w: decode steamspy tag %q: %v", ErrUpstream, tag, err)
	}

	out := make([]SpyApp, 0, len(raw))
	for key, e := range raw {
		id := e.AppID.String()
		if id == "" || id == "0" {
			id = key
		}
		out = append(out, SpyApp{AppID: id, Name: e.Name, Positive: e.Positive, Negative: e.Negative})
	}
	sort.Slice(out, func(i, j int) bool {
		pi, pj := out[i].Popularity(), out[j].Popularity()
		if pi != pj {
			return pi > pj
		}
		ai, _ := strconv.Atoi(out[i].AppID)
		aj, _ := strconv.Atoi(out[j].AppID)
		return ai < aj
	})
	return out, nil
}
