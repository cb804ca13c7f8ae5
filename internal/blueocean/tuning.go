package blueocean

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed tuning.yaml
var defaultTuningYAML []byte

// Weights are the axis weights; they sum to 1.
type Weights struct {
	Competition float64 `yaml:"competition"`
	HitDensity  float64 `yaml:"hitDensity"`
	Revenue     float64 `yaml:"revenue"`
	Niche       float64 `yaml:"niche"`
	Synergy     float64 `yaml:"synergy"`
	Demand      float64 `yaml:"demand"`
}

func (w Weights) sum() float64 {
	return w.Competition + w.HitDensity + w.Revenue + w.Niche + w.Synergy + w.Demand
}

// Ladders holds one step function per axis. Demand uses two: hit count and,
// when there are no hits, the medium-tier count.
type Ladders struct {
	Competition  Ladder `yaml:"competition"`
	HitDensity   Ladder `yaml:"hitDensity"`
	Revenue      Ladder `yaml:"revenue"`
	Niche        Ladder `yaml:"niche"`
	Synergy      Ladder `yaml:"synergy"`
	DemandHits   Ladder `yaml:"demandHits"`
	DemandMedium Ladder `yaml:"demandMedium"`
}

// GoldenZone forces the best verdict regardless of the total.
type GoldenZone struct {
	MaxCompetitionRatio float64 `yaml:"maxCompetitionRatio"`
	MinHitDensity       float64 `yaml:"minHitDensity"`
}

// VerdictBand maps a minimum total to a verdict.
type VerdictBand struct {
	Zone     string `yaml:"zone"`
	Label    string `yaml:"label"`
	MinScore int    `yaml:"minScore"`
	X        int    `yaml:"x"`
	Y        int    `yaml:"y"`
	Title    string `yaml:"title"`
	Message  string `yaml:"message"`
}

// Tuning is the full set of market scoring constants.
type Tuning struct {
	HitThreshold    int           `yaml:"hitThreshold"`
	MediumThreshold int           `yaml:"mediumThreshold"`
	MaxTags         int           `yaml:"maxTags"`
	GoldenZone      GoldenZone    `yaml:"goldenZone"`
	NeutralSynergy  int           `yaml:"neutralSynergy"`
	Weights         Weights       `yaml:"weights"`
	Ladders         Ladders       `yaml:"ladders"`
	Verdicts        []VerdictBand `yaml:"verdicts"`
}

// DefaultTuning returns the embedded constants.
func DefaultTuning() Tuning {
	t, err := ParseTuning(defaultTuningYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded market tuning is invalid: %v", err))
	}
	return t
}

// LoadTuning reads tuning from path, or the embedded defaults when path is
// empty.
func LoadTuning(path string) (Tuning, error) {
	if path == "" {
		return DefaultTuning(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, fmt.Errorf("read market tuning: %w", err)
	}
	t, err := ParseTuning(data)
	if err != nil {
		return Tuning{}, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// ParseTuning decodes and validates a tuning document.
func ParseTuning(data []byte) (Tuning, error) {
	var t Tuning
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Tuning{}, fmt.Errorf("parse market tuning: %w", err)
	}
	if err := t.Validate(); err != nil {
		return Tuning{}, err
	}
	return t, nil
}

// Validate checks internal consistency.
func (t Tuning) Validate() error {
	if t.HitThreshold <= 0 || t.MediumThreshold <= 0 || t.MediumThreshold > t.HitThreshold {
		return errors.New("market tuning: need 0 < mediumThreshold <= hitThreshold")
	}
	if math.Abs(t.Weights.sum()-1) > 1e-6 {
		return fmt.Errorf("market tuning: weights sum to %.4f, want 1", t.Weights.sum())
	}
	ladders := map[string]Ladder{
		"competition":  t.Ladders.Competition,
		"hitDensity":   t.Ladders.HitDensity,
		"revenue":      t.Ladders.Revenue,
		"niche":        t.Ladders.Niche,
		"synergy":      t.Ladders.Synergy,
		"demandHits":   t.Ladders.DemandHits,
		"demandMedium": t.Ladders.DemandMedium,
	}
	for name, l := range ladders {
		if err := l.Validate(); err != nil {
			return fmt.Errorf("market tuning: ladder %s: %w", name, err)
		}
	}
	if len(t.Verdicts) == 0 {
		return errors.New("market tuning: no verdict bands")
	}
	for i := 1; i < len(t.Verdicts); i++ {
		if t.Verdicts[i].MinScore >= t.Verdicts[i-1].MinScore {
			return errors.New("market tuning: verdict bands must be in descending minScore order")
		}
	}
	if t.Verdicts[len(t.Verdicts)-1].MinScore > 0 {
		return errors.New("market tuning: last verdict band must start at 0")
	}
	return nil
}
