package issue

import (
	"fmt"
	"path"

	"github.com/agusespa/issuescan/internal/matcher"
	"github.com/agusespa/issuescan/internal/types"
	"github.com/agusespa/issuescan/internal/utils"
)

var (
	securityLabels    = []string{"security", "vulnerability", "automated"}
	codePatternLabels = []string{"code-quality", "automated", "pattern-detection"}
	dependencyLabels  = []string{"dependencies", "security", "automated"}
)

var priorityText = map[types.Severity]string{
	types.SeverityHigh:   "High - Should be addressed promptly",
	types.SeverityMedium: "Medium - Should be addressed",
	types.SeverityLow:    "Low - Address when convenient",
}

// Builder turns findings into issues. The output depends only on the input
// and the builder's labels, so equal inputs always render equal issues.
type Builder struct {
	defaultLabels []string
	assignees     []string
	manifest      string
}

func NewBuilder(defaultLabels, assignees []string) *Builder {
	return &Builder{
		defaultLabels: append([]string(nil), defaultLabels...),
		assignees:     append([]string(nil), assignees...),
		manifest:      "pom.xml",
	}
}

// WithManifest sets the manifest file named in dependency update instructions
func (b *Builder) WithManifest(name string) *Builder {
	if name != "" {
		b.manifest = path.Base(name)
	}
	return b
}

// FromFinding dispatches on the finding's category
func (b *Builder) FromFinding(f types.Finding) (types.Issue, error) {
	switch f.Category {
	case types.CategorySecurity:
		return b.Security(f)
	case types.CategoryCodePattern:
		return b.CodePattern(f)
	default:
		return types.Issue{}, fmt.Errorf("no issue template for finding category %q", f.Category)
	}
}

type securityData struct {
	Name        string
	Location    string
	Severity    string
	Description string
	Path        string
	Line        int
	Code        string
}

func (b *Builder) Security(f types.Finding) (types.Issue, error) {
	body, err := render(types.TemplateVulnerability, securityData{
		Name:        f.PatternID,
		Location:    f.Location(),
		Severity:    f.Severity.Title(),
		Description: f.Description,
		Path:        f.Path,
		Line:        f.Line,
		Code:        f.Text,
	})
	if err != nil {
		return types.Issue{}, err
	}

	return b.finish(types.Issue{
		Title:    fmt.Sprintf("[SECURITY] %s: %s", f.PatternID, f.Location()),
		Body:     body,
		Labels:   types.LabelSet(securityLabels, b.defaultLabels),
		Severity: f.Severity,
		Template: types.TemplateVulnerability,
	})
}

type codePatternData struct {
	Marker   string
	Location string
	Priority string
	Language string
	Code     string
	Note     string
}

func (b *Builder) CodePattern(f types.Finding) (types.Issue, error) {
	body, err := render(types.TemplateCodePattern, codePatternData{
		Marker:   f.PatternID,
		Location: f.Location(),
		Priority: priorityText[f.Severity],
		Language: utils.DetectLanguageFromFilePath(f.Path),
		Code:     f.Text,
		Note:     matcher.ExtractTodoText(f.Text, f.PatternID),
	})
	if err != nil {
		return types.Issue{}, err
	}

	return b.finish(types.Issue{
		Title:    fmt.Sprintf("[CODE-PATTERN] %s Comment: %s", f.PatternID, f.Location()),
		Body:     body,
		Labels:   types.LabelSet(codePatternLabels, b.defaultLabels),
		Severity: f.Severity,
		Template: types.TemplateCodePattern,
	})
}

type dependencyData struct {
	Name     string
	Version  string
	Severity string
	IDs      []string
	Manifest string
}

func (b *Builder) Dependency(rec types.DependencyRecord) (types.Issue, error) {
	body, err := render(types.TemplateDependency, dependencyData{
		Name:     rec.Name(),
		Version:  rec.Version,
		Severity: rec.Severity.Title(),
		IDs:      rec.VulnerabilityIDs,
		Manifest: b.manifest,
	})
	if err != nil {
		return types.Issue{}, err
	}

	return b.finish(types.Issue{
		Title:    fmt.Sprintf("[DEPENDENCY] Vulnerable dependency: %s:%s", rec.Name(), rec.Version),
		Body:     body,
		Labels:   types.LabelSet(dependencyLabels, b.defaultLabels),
		Severity: rec.Severity,
		Template: types.TemplateDependency,
	})
}

func (b *Builder) finish(iss types.Issue) (types.Issue, error) {
	if len(b.assignees) > 0 {
		iss.Assignees = append([]string(nil), b.assignees...)
	}
	if err := iss.Validate(); err != nil {
		return types.Issue{}, err
	}
	return iss, nil
}
