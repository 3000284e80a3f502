package types

import (
	"fmt"
	"strings"
)

// Severity is the normalized severity of a finding or issue
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// ParseSeverity accepts low, medium or high in any letter case
func ParseSeverity(s string) (Severity, error) {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityLow:
		return SeverityLow, nil
	case SeverityMedium:
		return SeverityMedium, nil
	case SeverityHigh:
		return SeverityHigh, nil
	default:
		return "", fmt.Errorf("unknown severity %q (expected low, medium or high)", s)
	}
}

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// Title returns the capitalized form used in rendered issue bodies
func (s Severity) Title() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// Category selects the scan pass and the body template of an issue
type Category string

const (
	CategorySecurity    Category = "security"
	CategoryCodePattern Category = "code-pattern"
	CategoryDependency  Category = "dependency"
)

// TemplateTag names the body template an issue was rendered with
type TemplateTag string

const (
	TemplateVulnerability TemplateTag = "automated-vulnerability"
	TemplateCodePattern   TemplateTag = "automated-code-pattern"
	TemplateDependency    TemplateTag = "automated-dependency"
)

// Template returns the tag bound to the category
func (c Category) Template() TemplateTag {
	switch c {
	case CategorySecurity:
		return TemplateVulnerability
	case CategoryCodePattern:
		return TemplateCodePattern
	case CategoryDependency:
		return TemplateDependency
	default:
		return ""
	}
}
