package storedoctor

// Listing holds the observable attributes of a store page.
type Listing struct {
	AppID                   string   `json:"appId"`
	Name                    string   `json:"name"`
	Tags                    []string `json:"tags"`
	TrailerCount            int      `json:"trailerCount"`
	ScreenshotCount         int      `json:"screenshotCount"`
	HasHeaderImage          bool     `json:"hasHeaderImage"`
	ShortDescription        string   `json:"shortDescription"`
	DetailedDescriptionHTML string   `json:"detailedDescription"`
	LanguageCount           int      `json:"languageCount"`
	GenreCount              int      `json:"genreCount"`
	CategoryCount           int      `json:"categoryCount"`
}

// Severity classifies a finding.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityPassed   Severity = "passed"
)

// Finding is a human-readable observation with an optional suggestion.
type Finding struct {
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Findings groups findings by severity. The lists are disjoint.
type Findings struct {
	Issues   []Finding `json:"issues"`
	Warnings []Finding `json:"warnings"`
	Passed   []Finding `json:"passed"`
}

func (f *Findings) add(sev Severity, finding Finding) {
	switch sev {
	case SeverityCritical:
		f.Issues = append(f.Issues, finding)
	case SeverityWarning:
		f.Warnings = append(f.Warnings, finding)
	case SeverityPassed:
		f.Passed = append(f.Passed, finding)
	}
}

func newFindings() Findings {
	return Findings{Issues: []Finding{}, Warnings: []Finding{}, Passed: []Finding{}}
}

// CategoryResult is one scored dimension of the diagnosis.
type CategoryResult struct {
	Score  int     `json:"score"`
	Weight float64 `json:"weight"`
	Findings
}

// TextDetail explains how the text category score was assembled.
type TextDetail struct {
	StructureScore int         `json:"structureScore"`
	ContentScore   int         `json:"contentScore"`
	ContentSource  string      `json:"contentSource"`
	AI             *Evaluation `json:"ai,omitempty"`
}

// TextCategoryResult adds the text breakdown to a category result.
type TextCategoryResult struct {
	CategoryResult
	Detail TextDetail `json:"detail"`
}

// Categories holds the four scored dimensions.
type Categories struct {
	Tags      CategoryResult     `json:"tags"`
	Visuals   CategoryResult     `json:"visuals"`
	Text      TextCategoryResult `json:"text"`
	BasicInfo CategoryResult     `json:"basicInfo"`
}

// Diagnosis is the full Store Doctor result. It is computed per request and
// never persisted.
type Diagnosis struct {
	AppID      string     `json:"appId,omitempty"`
	Name       string     `json:"name,omitempty"`
	TotalScore int        `json:"totalScore"`
	Grade      string     `json:"grade"`
	Categories Categories `json:"categories"`
	Facts      Facts      `json:"facts"`
}
