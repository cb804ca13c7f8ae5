package storedoctor

import (
	"context"
	"math"
)

// Category weights; they sum to 1.
const (
	WeightTags      = 0.30
	WeightVisuals   = 0.25
	WeightText      = 0.40
	WeightBasicInfo = 0.05
)

const (
	structureShare = 0.3
	contentShare   = 0.7

	minEvaluatedTextLength = 200
	shortTextScore         = 20
	unavailableTextScore   = 50
)

// Content score sources reported in TextDetail.
const (
	ContentSourceAI          = "ai"
	ContentSourceEmpty       = "empty"
	ContentSourceTooShort    = "too-short"
	ContentSourceUnavailable = "unavailable"
)

// Scorer turns listings into diagnoses.
type Scorer struct {
	evaluator TextEvaluator
}

// NewScorer builds a scorer. A nil evaluator yields the neutral content score
// for every listing long enough to be evaluated.
func NewScorer(evaluator TextEvaluator) *Scorer {
	return &Scorer{evaluator: evaluator}
}

// Score diagnoses a listing. It never fails: evaluator problems degrade the
// text category to a fixed score.
func (s *Scorer) Score(ctx context.Context, l Listing, language string) Diagnosis {
	facts := DeriveFacts(l)

	tags := scoreCategory(TagRules, facts, WeightTags)
	visuals := scoreCategory(VisualRules, facts, WeightVisuals)
	basic := scoreCategory(BasicInfoRules, facts, WeightBasicInfo)
	text := s.scoreText(ctx, l, facts, language)

	total := int(math.Round(
		float64(tags.Score)*tags.Weight +
			float64(visuals.Score)*visuals.Weight +
			float64(text.Score)*text.Weight +
			float64(basic.Score)*basic.Weight))
	total = clamp(total, 0, 100)

	return Diagnosis{
		AppID:      l.AppID,
		Name:       l.Name,
		TotalScore: total,
		Grade:      Grade(total),
		Categories: Categories{
			Tags:      tags,
			Visuals:   visuals,
			Text:      text,
			BasicInfo: basic,
		},
		Facts: facts,
	}
}

func scoreCategory(rules []Rule, f Facts, weight float64) CategoryResult {
	score, findings := scoreRules(rules, f)
	return CategoryResult{Score: score, Weight: weight, Findings: findings}
}

func (s *Scorer) scoreText(ctx context.Context, l Listing, f Facts, language string) TextCategoryResult {
	structure, findings := scoreRules(TextStructureRules, f)
	if _, sev, finding, ok := ShortDescriptionRule.Apply(f); ok {
		findings.add(sev, finding)
	}

	detail := TextDetail{StructureScore: structure}
	switch {
	case f.PlainTextLength == 0:
		detail.ContentScore = 0
		detail.ContentSource = ContentSourceEmpty
		findings.add(SeverityCritical, Finding{
			Message:    "The detailed description is empty",
			Suggestion: "Describe the core loop, the hook and the features players get",
		})
	case f.PlainTextLength < minEvaluatedTextLength:
		detail.ContentScore = shortTextScore
		detail.ContentSource = ContentSourceTooShort
		findings.add(SeverityCritical, Finding{
			Message:    "The detailed description is too short to sell the game",
			Suggestion: "Aim for several paragraphs covering gameplay, setting and features",
		})
	case s.evaluator == nil:
		detail.ContentScore = unavailableTextScore
		detail.ContentSource = ContentSourceUnavailable
	default:
		eval, err := s.evaluator.Evaluate(ctx, TextInput{
			Name:             l.Name,
			Language:         language,
			ShortDescription: l.ShortDescription,
			Description:      f.PlainText,
		})
		if err != nil {
			detail.ContentScore = unavailableTextScore
			detail.ContentSource = ContentSourceUnavailable
			break
		}
		detail.ContentScore = clamp(eval.OverallScore, 0, 100)
		detail.ContentSource = ContentSourceAI
		detail.AI = &eval
		for _, p := range eval.GoodPoints {
			findings.add(SeverityPassed, Finding{Message: p})
		}
		for _, imp := range eval.Improvements {
			findings.add(SeverityWarning, Finding{Message: imp})
		}
	}

	score := BlendText(structure, detail.ContentScore)
	return TextCategoryResult{
		CategoryResult: CategoryResult{Score: score, Weight: WeightText, Findings: findings},
		Detail:         detail,
	}
}

// BlendText combines the structure and content sub-scores.
func BlendText(structure, content int) int {
	return clamp(int(math.Round(structureShare*float64(structure)+contentShare*float64(content))), 0, 100)
}

// Grade maps a total score to a letter.
func Grade(total int) string {
	switch {
	case total >= 90:
		return "S"
	case total >= 80:
		return "A"
	case total >= 70:
		return "B"
	case total >= 60:
		return "C"
	case total >= 50:
		return "D"
	default:
		return "F"
	}
}
