package blueocean

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Listing is one comparable game with its popularity proxy (review count).
type Listing struct {
	AppID      string `json:"appId"`
	Name       string `json:"name"`
	Popularity int    `json:"popularity"`
}

// Sample is the comparable-listing data for a tag combination.
// TotalCount is the size of the combined filter; PerFilterCounts holds the
// size of each tag's listing on its own.
type Sample struct {
	Tags            []string
	TotalCount      int
	PerFilterCounts []int
	Listings        []Listing
}

// Metrics are the raw ratios and counts the axes are computed from.
type Metrics struct {
	CompetitionRatio float64 `json:"competitionRatio"`
	HitDensity       float64 `json:"hitDensity"`
	AvgPopularity    float64 `json:"avgPopularity"`
	HitCount         int     `json:"hitCount"`
	MediumCount      int     `json:"mediumCount"`
	SynergyRatio     float64 `json:"synergyRatio"`
	SampleSize       int     `json:"sampleSize"`
	TotalCount       int     `json:"totalCount"`
}

// Axis is one scored dimension.
type Axis struct {
	Score  int     `json:"score"`
	Weight float64 `json:"weight"`
	Value  float64 `json:"value"`
}

// Axes holds the six market axes.
type Axes struct {
	Competition Axis `json:"competition"`
	HitDensity  Axis `json:"hitDensity"`
	Revenue     Axis `json:"revenue"`
	Niche       Axis `json:"niche"`
	Synergy     Axis `json:"synergy"`
	Demand      Axis `json:"demand"`
}

func (a Axes) list() []Axis {
	return []Axis{a.Competition, a.HitDensity, a.Revenue, a.Niche, a.Synergy, a.Demand}
}

// Position places a verdict on the opportunity map.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Verdict is the bucketed outcome.
type Verdict struct {
	Zone       string   `json:"zone"`
	Label      string   `json:"label"`
	Title      string   `json:"title"`
	Message    string   `json:"message"`
	Position   Position `json:"position"`
	GoldenZone bool     `json:"goldenZone"`
}

// MarketScore is the full market analysis result.
type MarketScore struct {
	Tags           []string  `json:"tags"`
	Total          int       `json:"total"`
	Axes           Axes      `json:"axes"`
	Metrics        Metrics   `json:"metrics"`
	Verdict        Verdict   `json:"verdict"`
	TopCompetitors []Listing `json:"topCompetitors"`
}

const topCompetitors = 5

// Scorer computes market scores from samples.
type Scorer struct {
	tuning Tuning
}

func NewScorer(t Tuning) *Scorer {
	return &Scorer{tuning: t}
}

// Measure derives the raw metrics. An empty sample uses the total count as
// the average popularity so the competition ratio stays finite.
func (s *Scorer) Measure(sample Sample) Metrics {
	t := s.tuning
	m := Metrics{
		SampleSize: len(sample.Listings),
		TotalCount: sample.TotalCount,
	}

	sum := 0
	for _, l := range sample.Listings {
		sum += l.Popularity
		if l.Popularity > t.HitThreshold {
			m.HitCount++
		} else if l.Popularity >= t.MediumThreshold {
			m.MediumCount++
		}
	}
	if m.SampleSize > 0 {
		m.AvgPopularity = float64(sum) / float64(m.SampleSize)
		m.HitDensity = float64(m.HitCount) / float64(m.SampleSize) * 100
	} else {
		m.AvgPopularity = float64(max(sample.TotalCount, 1))
	}
	if m.AvgPopularity > 0 {
		m.CompetitionRatio = float64(sample.TotalCount) / m.AvgPopularity
	} else {
		m.CompetitionRatio = float64(sample.TotalCount)
	}

	filterSum := 0
	for _, n := range sample.PerFilterCounts {
		filterSum += n
	}
	if filterSum > 0 {
		m.SynergyRatio = float64(sample.TotalCount) / float64(filterSum)
	} else {
		m.SynergyRatio = -1
	}
	return m
}

// ScoreAxes maps metrics onto the six ladders.
func (s *Scorer) ScoreAxes(m Metrics) Axes {
	t := s.tuning
	l := t.Ladders
	w := t.Weights

	synergy := t.NeutralSynergy
	if m.SynergyRatio >= 0 {
		synergy = l.Synergy.Score(m.SynergyRatio)
	}
	demand := l.DemandMedium.Score(float64(m.MediumCount))
	if m.HitCount > 0 {
		demand = l.DemandHits.Score(float64(m.HitCount))
	}

	return Axes{
		Competition: Axis{Score: l.Competition.Score(m.CompetitionRatio), Weight: w.Competition, Value: round2(m.CompetitionRatio)},
		HitDensity:  Axis{Score: l.HitDensity.Score(m.HitDensity), Weight: w.HitDensity, Value: round2(m.HitDensity)},
		Revenue:     Axis{Score: l.Revenue.Score(m.AvgPopularity), Weight: w.Revenue, Value: round2(m.AvgPopularity)},
		Niche:       Axis{Score: l.Niche.Score(float64(m.TotalCount)), Weight: w.Niche, Value: float64(m.TotalCount)},
		Synergy:     Axis{Score: synergy, Weight: w.Synergy, Value: round2(m.SynergyRatio)},
		Demand:      Axis{Score: demand, Weight: w.Demand, Value: float64(m.HitCount)},
	}
}

// Combine pulls the neutral 50 up or down by each axis' weighted deviation.
func Combine(axes ...Axis) int {
	total := 50.0
	for _, a := range axes {
		total += float64(a.Score-50) * a.Weight
	}
	return int(math.Max(0, math.Min(100, math.Round(total))))
}

// Verdict buckets total. The golden zone wins over the computed total.
func (s *Scorer) Verdict(m Metrics, total int, tags []string) Verdict {
	t := s.tuning
	golden := m.CompetitionRatio < t.GoldenZone.MaxCompetitionRatio && m.HitDensity >= t.GoldenZone.MinHitDensity

	band := t.Verdicts[len(t.Verdicts)-1]
	if golden {
		band = t.Verdicts[0]
	} else {
		for _, b := range t.Verdicts {
			if total >= b.MinScore {
				band = b
				break
			}
		}
	}

	message := strings.NewReplacer(
		"{tags}", strings.Join(tags, " + "),
		"{score}", strconv.Itoa(total),
	).Replace(band.Message)

	return Verdict{
		Zone:       band.Zone,
		Label:      band.Label,
		Title:      band.Title,
		Message:    message,
		Position:   Position{X: band.X, Y: band.Y},
		GoldenZone: golden,
	}
}

// Score runs the full pipeline. It never fails; degenerate samples produce
// a complete result through the fallbacks in Measure.
func (s *Scorer) Score(sample Sample) MarketScore {
	m := s.Measure(sample)
	axes := s.ScoreAxes(m)
	total := Combine(axes.list()...)

	top := make([]Listing, len(sample.Listings))
	copy(top, sample.Listings)
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Popularity > top[j].Popularity
	})
	if len(top) > topCompetitors {
		top = top[:topCompetitors]
	}

	return MarketScore{
		Tags:           sample.Tags,
		Total:          total,
		Axes:           axes,
		Metrics:        m,
		Verdict:        s.Verdict(m, total, sample.Tags),
		TopCompetitors: top,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
