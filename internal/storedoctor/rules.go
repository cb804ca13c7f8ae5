package storedoctor

import "fmt"

// Step is one branch of a rule. The first step whose When matches decides the
// rule's points and finding.
type Step struct {
	When     func(Facts) bool
	Points   int
	Severity Severity
	Message  func(Facts) string
	Suggest  string
}

// Rule is an ordered list of steps scored against the same measurement.
type Rule struct {
	Name  string
	Steps []Step
}

// Apply evaluates the rule, returning the points earned and the finding of the
// matching step. A rule with no matching step earns nothing.
func (r Rule) Apply(f Facts) (int, Severity, Finding, bool) {
	for _, step := range r.Steps {
		if step.When != nil && !step.When(f) {
			continue
		}
		var finding Finding
		if step.Message != nil {
			finding = Finding{Message: step.Message(f), Suggestion: step.Suggest}
		}
		return step.Points, step.Severity, finding, step.Message != nil
	}
	return 0, "", Finding{}, false
}

// scoreRules sums the rules' points, clamped to [0,100], and collects findings.
func scoreRules(rules []Rule, f Facts) (int, Findings) {
	findings := newFindings()
	total := 0
	for _, r := range rules {
		points, sev, finding, ok := r.Apply(f)
		total += points
		if ok {
			findings.add(sev, finding)
		}
	}
	return clamp(total, 0, 100), findings
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func always(Facts) bool { return true }

func text(msg string) func(Facts) string {
	return func(Facts) string { return msg }
}

// TagRules score the tag list.
var TagRules = []Rule{
	{
		Name:  "tag-count",
		Steps: []Step{
			{When: func(f Facts) bool { return f.TagCount == 0 }, Points: 0, Severity: SeverityCritical,
				Message: text("No user tags are applied"),
				Suggest: "Add at least 15 tags that describe genre, mechanics and mood"},
			{When: func(f Facts) bool { return f.TagCount < 10 }, Points: 10, Severity: SeverityCritical,
				Message: func(f Facts) string { return fmt.Sprintf("Only %d tags are applied", f.TagCount) },
				Suggest: "Steam allows 20 tags; fewer than 10 limits discovery through tag pages"},
			{When: func(f Facts) bool { return f.TagCount < 15 }, Points: 25, Severity: SeverityWarning,
				Message: func(f Facts) string { return fmt.Sprintf("%d tags are applied", f.TagCount) },
				Suggest: "Fill the remaining tag slots with specific sub-genres and mechanics"},
			{When: func(f Facts) bool { return f.TagCount < 20 }, Points: 35, Severity: SeverityWarning,
				Message: func(f Facts) string { return fmt.Sprintf("%d of 20 tag slots are used", f.TagCount) },
				Suggest: "Use all 20 tag slots"},
			{When: always, Points: 40, Severity: SeverityPassed,
				Message: func(f Facts) string { return fmt.Sprintf("%d tags are applied", f.TagCount) }},
		},
	},
	{
		Name:  "generic-top-tags",
		Steps: []Step{
			{When: func(f Facts) bool { return f.TagCount == 0 }, Points: 0},
			{When: func(f Facts) bool { return f.GenericInTop5 == 0 }, Points: 30, Severity: SeverityPassed,
				Message: text("The top 5 tags are all specific")},
			{When: func(f Facts) bool { return f.GenericInTop5 == 1 }, Points: 20, Severity: SeverityWarning,
				Message: text("1 broad tag is in the top 5"),
				Suggest: "Move a genre-defining tag above broad tags such as Indie or Casual"},
			{When: func(f Facts) bool { return f.GenericInTop5 == 2 }, Points: 10, Severity: SeverityWarning,
				Message: text("2 broad tags are in the top 5"),
				Suggest: "Broad tags in the top positions make the game look like every other indie title"},
			{When: always, Points: 0, Severity: SeverityCritical,
				Message: func(f Facts) string { return fmt.Sprintf("%d broad tags are in the top 5", f.GenericInTop5) },
				Suggest: "Ask players and curators to vote for specific tags so they outrank broad ones"},
		},
	},
	{
		Name:  "specific-tags",
		Steps: []Step{
			{When: func(f Facts) bool { return f.SpecificTagCount >= 3 }, Points: 30, Severity: SeverityPassed,
				Message: func(f Facts) string { return fmt.Sprintf("%d specific tags describe the game", f.SpecificTagCount) }},
			{When: func(f Facts) bool { return f.SpecificTagCount >= 1 }, Points: 15, Severity: SeverityWarning,
				Message: func(f Facts) string { return fmt.Sprintf("Only %d specific tags are applied", f.SpecificTagCount) },
				Suggest: "Add sub-genre and mechanic tags such as Roguelike Deckbuilder or Metroidvania"},
			{When: always, Points: 0, Severity: SeverityCritical,
				Message: text("No specific tags are applied"),
				Suggest: "Specific tags put the game on the tag pages its audience browses"},
		},
	},
}

// VisualRules score trailers, screenshots and the header capsule.
var VisualRules = []Rule{
	{
		Name:  "trailers",
		Steps: []Step{
			{When: func(f Facts) bool { return f.TrailerCount == 0 }, Points: 0, Severity: SeverityCritical,
				Message: text("No trailer is uploaded"),
				Suggest: "Upload a gameplay trailer; it autoplays on the store page"},
			{When: func(f Facts) bool { return f.TrailerCount == 1 }, Points: 25, Severity: SeverityWarning,
				Message: text("One trailer is uploaded"),
				Suggest: "Add a second, gameplay-focused trailer"},
			{When: always, Points: 40, Severity: SeverityPassed,
				Message: func(f Facts) string { return fmt.Sprintf("%d trailers are uploaded", f.TrailerCount) }},
		},
	},
	{
		Name:  "screenshots",
		Steps: []Step{
			{When: func(f Facts) bool { return f.ScreenshotCount == 0 }, Points: 0, Severity: SeverityCritical,
				Message: text("No screenshots are uploaded"),
				Suggest: "Upload at least 5 screenshots that show actual gameplay"},
			{When: func(f Facts) bool { return f.ScreenshotCount < 5 }, Points: 10, Severity: SeverityCritical,
				Message: func(f Facts) string { return fmt.Sprintf("Only %d screenshots are uploaded", f.ScreenshotCount) },
				Suggest: "Upload at least 5 screenshots"},
			{When: func(f Facts) bool { return f.ScreenshotCount < 10 }, Points: 25, Severity: SeverityWarning,
				Message: func(f Facts) string { return fmt.Sprintf("%d screenshots are uploaded", f.ScreenshotCount) },
				Suggest: "10 or more screenshots show the variety of the game"},
			// 10 already earns the full 40; 15 only changes the advice.
			{When: func(f Facts) bool { return f.ScreenshotCount < 15 }, Points: 40, Severity: SeverityPassed,
				Message: func(f Facts) string { return fmt.Sprintf("%d screenshots are uploaded", f.ScreenshotCount) },
				Suggest: "Around 15 screenshots cover every mode and biome"},
			{When: always, Points: 40, Severity: SeverityPassed,
				Message: func(f Facts) string { return fmt.Sprintf("%d screenshots are uploaded", f.ScreenshotCount) }},
		},
	},
	{
		Name:  "header-image",
		Steps: []Step{
			{When: func(f Facts) bool { return f.HasHeaderImage }, Points: 20, Severity: SeverityPassed,
				Message: text("A header capsule is set")},
			{When: always, Points: 0, Severity: SeverityCritical,
				Message: text("The header capsule is missing"),
				Suggest: "Set a header capsule with a readable logo"},
		},
	},
}

// TextStructureRules score the layout of the detailed description.
var TextStructureRules = []Rule{
	{
		Name:  "images",
		Steps: []Step{
			{When: func(f Facts) bool { return f.ImageCount >= 3 }, Points: 40, Severity: SeverityPassed,
				Message: func(f Facts) string { return fmt.Sprintf("The description embeds %d images or GIFs", f.ImageCount) }},
			{When: func(f Facts) bool { return f.ImageCount >= 1 }, Points: 25, Severity: SeverityWarning,
				Message: func(f Facts) string { return fmt.Sprintf("The description embeds only %d images or GIFs", f.ImageCount) },
				Suggest: "Break the text up with at least 3 GIFs of gameplay"},
			{When: always, Points: 0, Severity: SeverityCritical,
				Message: text("The description has no images or GIFs"),
				Suggest: "Players skim; animated GIFs between sections keep them reading"},
		},
	},
	{
		Name:  "headings",
		Steps: []Step{
			{When: func(f Facts) bool { return f.HeadingCount >= 2 }, Points: 30, Severity: SeverityPassed,
				Message: text("The description is organised with headings")},
			{When: func(f Facts) bool { return f.HeadingCount == 1 }, Points: 20, Severity: SeverityWarning,
				Message: text("The description has a single heading"),
				Suggest: "Use a heading per feature block"},
			{When: always, Points: 0, Severity: SeverityWarning,
				Message: text("The description has no headings"),
				Suggest: "Add headings so players can scan the features"},
		},
	},
	{
		Name:  "paragraphs",
		Steps: []Step{
			{When: func(f Facts) bool { return f.ParagraphCount >= 3 }, Points: 30, Severity: SeverityPassed,
				Message: text("The description is split into paragraphs")},
			{When: func(f Facts) bool { return f.ParagraphCount >= 1 }, Points: 15, Severity: SeverityWarning,
				Message: text("The description has few paragraph breaks"),
				Suggest: "Keep paragraphs to two or three sentences"},
			{When: always, Points: 0, Severity: SeverityWarning,
				Message: text("The description is a single block of text"),
				Suggest: "Split the text into short paragraphs"},
		},
	},
}

// ShortDescriptionRule only produces a finding; it earns no points.
var ShortDescriptionRule = Rule{
	Name:  "short-description",
	Steps: []Step{
		{When: func(f Facts) bool { return f.ShortDescLength == 0 }, Severity: SeverityCritical,
			Message: text("The short description is empty"),
			Suggest: "Write a one or two sentence pitch; it is shown next to the capsule"},
		{When: func(f Facts) bool { return f.ShortDescLength < 100 }, Severity: SeverityWarning,
			Message: func(f Facts) string { return fmt.Sprintf("The short description is only %d characters", f.ShortDescLength) },
			Suggest: "Use most of the 300 characters to state genre, hook and what the player does"},
		{When: always, Severity: SeverityPassed,
			Message: text("The short description pitches the game")},
	},
}

// BasicInfoRules score localisation, genres and store categories.
var BasicInfoRules = []Rule{
	{
		Name:  "languages",
		Steps: []Step{
			{When: func(f Facts) bool { return f.LanguageCount == 0 }, Points: 0, Severity: SeverityCritical,
				Message: text("No supported languages are listed")},
			{When: func(f Facts) bool { return f.LanguageCount == 1 }, Points: 10, Severity: SeverityWarning,
				Message: text("Only one language is supported"),
				Suggest: "Localising into Simplified Chinese, German and Japanese widens reach"},
			{When: func(f Facts) bool { return f.LanguageCount < 5 }, Points: 25, Severity: SeverityWarning,
				Message: func(f Facts) string { return fmt.Sprintf("%d languages are supported", f.LanguageCount) },
				Suggest: "Five or more languages cover most of Steam's audience"},
			{When: always, Points: 40, Severity: SeverityPassed,
				Message: func(f Facts) string { return fmt.Sprintf("%d languages are supported", f.LanguageCount) }},
		},
	},
	{
		Name:  "genres",
		Steps: []Step{
			{When: func(f Facts) bool { return f.GenreCount > 0 }, Points: 20, Severity: SeverityPassed,
				Message: text("Genres are set")},
			{When: always, Points: 0, Severity: SeverityCritical,
				Message: text("No genres are set"),
				Suggest: "Pick the genres in the Steamworks basic info page"},
		},
	},
	{
		Name:  "categories",
		Steps: []Step{
			{When: func(f Facts) bool { return f.CategoryCount == 0 }, Points: 0, Severity: SeverityWarning,
				Message: text("No store features are declared"),
				Suggest: "Declare features such as controller support, achievements and cloud saves"},
			{When: func(f Facts) bool { return f.CategoryCount <= 2 }, Points: 10, Severity: SeverityWarning,
				Message: func(f Facts) string { return fmt.Sprintf("Only %d store features are declared", f.CategoryCount) },
				Suggest: "Declare every feature the game supports; players filter by them"},
			{When: func(f Facts) bool { return f.CategoryCount <= 4 }, Points: 25, Severity: SeverityPassed,
				Message: func(f Facts) string { return fmt.Sprintf("%d store features are declared", f.CategoryCount) }},
			{When: always, Points: 40, Severity: SeverityPassed,
				Message: func(f Facts) string { return fmt.Sprintf("%d store features are declared", f.CategoryCount) }},
		},
	},
}
