package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/agusespa/issuescan/internal/types"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath          = ".github/copilot-issue-config.yml"
	DefaultMaxIssues     = 10
	DefaultReservedLabel = "automated"
	DefaultOutputDir     = "generated_issues"
	DefaultManifest      = "pom.xml"
	DefaultBaseURL       = "https://api.github.com"
	DefaultWorkflow      = "copilot-issue-creator.yml"
	DefaultRef           = "main"
)

var DefaultTodoMarkers = []string{"TODO", "FIXME"}

type Config struct {
	SecurityPatterns   SecurityPatterns   `yaml:"security_patterns"`
	CodePatterns       CodePatterns       `yaml:"code_patterns"`
	DependencyPatterns DependencyPatterns `yaml:"dependency_patterns"`
	Exclusions         Exclusions         `yaml:"exclusions"`
	IssueSettings      IssueSettings      `yaml:"issue_settings"`
	GitHub             GitHubConfig       `yaml:"github"`
}

type SecurityPatterns struct {
	CodeSecurityPatterns SecurityPatternGroup `yaml:"code_security_patterns"`
}

type SecurityPatternGroup struct {
	Enabled  bool              `yaml:"enabled"`
	Patterns []SecurityPattern `yaml:"patterns"`
}

type SecurityPattern struct {
	Name            string         `yaml:"name"`
	Regex           string         `yaml:"regex"`
	Severity        types.Severity `yaml:"severity"`
	Description     string         `yaml:"description"`
	CaseInsensitive bool           `yaml:"case_insensitive"`
}

type CodePatterns struct {
	TodoComments TodoComments `yaml:"todo_comments"`
}

type TodoComments struct {
	Enabled         bool                      `yaml:"enabled"`
	Patterns        []string                  `yaml:"patterns"`
	PriorityMapping map[string]types.Severity `yaml:"priority_mapping"`
	// SyntaxAware keeps only matches that sit inside comment nodes for languages with a grammar
	SyntaxAware bool `yaml:"syntax_aware"`
}

// Priority returns the mapped severity for a marker, medium when unmapped
func (t TodoComments) Priority(marker string) types.Severity {
	if sev, ok := t.PriorityMapping[marker]; ok {
		return sev
	}
	return types.SeverityMedium
}

type DependencyPatterns struct {
	VulnerableDependencies VulnerableDependencies `yaml:"vulnerable_dependencies"`
}

type VulnerableDependencies struct {
	Enabled  bool   `yaml:"enabled"`
	Manifest string `yaml:"manifest"`
}

type Exclusions struct {
	ExcludedDirectories []string `yaml:"excluded_directories"`
	ExcludedFiles       []string `yaml:"excluded_files"`
	ExcludedExtensions  []string `yaml:"excluded_extensions"`
}

type IssueSettings struct {
	MaxIssuesPerRun int      `yaml:"max_issues_per_run"`
	DefaultLabels   []string `yaml:"default_labels"`
	Assignees       []string `yaml:"assignees"`
	ReservedLabel   string   `yaml:"reserved_label"`
	OutputDir       string   `yaml:"output_dir"`

	// an explicit max_issues_per_run: 0 disables publishing
	maxIssuesSet bool
}

func (s *IssueSettings) UnmarshalYAML(node *yaml.Node) error {
	type plain IssueSettings
	var raw plain
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*s = IssueSettings(raw)

	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == "max_issues_per_run" {
			s.maxIssuesSet = true
		}
	}
	return nil
}

type GitHubConfig struct {
	Owner    string `yaml:"owner"`
	Repo     string `yaml:"repo"`
	BaseURL  string `yaml:"base_url"`
	Workflow string `yaml:"workflow"`
	Ref      string `yaml:"ref"`
}

// Default is the configuration used when no config file exists
func Default() *Config {
	cfg := &Config{
		SecurityPatterns: SecurityPatterns{
			CodeSecurityPatterns: SecurityPatternGroup{Enabled: true},
		},
		CodePatterns: CodePatterns{
			TodoComments: TodoComments{Enabled: true},
		},
		DependencyPatterns: DependencyPatterns{
			VulnerableDependencies: VulnerableDependencies{Enabled: true},
		},
		Exclusions: Exclusions{
			ExcludedDirectories: []string{".git", DefaultOutputDir},
		},
		IssueSettings: IssueSettings{
			DefaultLabels: []string{"automated"},
		},
	}
	cfg.applyDefaults()
	return cfg
}

// Load reads and validates the YAML config at filename. A missing file yields
// Default() with usedDefault set; malformed or invalid content is an error.
func Load(filename string) (cfg *Config, usedDefault bool, err error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), true, nil
		}
		return nil, false, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err = Parse(data)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", filename, err)
	}
	return cfg, false, nil
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	for i := range c.SecurityPatterns.CodeSecurityPatterns.Patterns {
		p := &c.SecurityPatterns.CodeSecurityPatterns.Patterns[i]
		if p.Severity == "" {
			p.Severity = types.SeverityMedium
		}
		p.Severity = types.Severity(strings.ToLower(string(p.Severity)))
	}

	todo := &c.CodePatterns.TodoComments
	if len(todo.Patterns) == 0 {
		todo.Patterns = append([]string(nil), DefaultTodoMarkers...)
	}
	for marker, sev := range todo.PriorityMapping {
		todo.PriorityMapping[marker] = types.Severity(strings.ToLower(string(sev)))
	}

	if c.DependencyPatterns.VulnerableDependencies.Manifest == "" {
		c.DependencyPatterns.VulnerableDependencies.Manifest = DefaultManifest
	}

	for i, ext := range c.Exclusions.ExcludedExtensions {
		if ext != "" && !strings.HasPrefix(ext, ".") {
			c.Exclusions.ExcludedExtensions[i] = "." + ext
		}
	}

	settings := &c.IssueSettings
	if settings.MaxIssuesPerRun == 0 && !settings.maxIssuesSet {
		settings.MaxIssuesPerRun = DefaultMaxIssues
	}
	if settings.DefaultLabels == nil {
		settings.DefaultLabels = []string{"automated"}
	}
	if settings.ReservedLabel == "" {
		settings.ReservedLabel = DefaultReservedLabel
	}
	if settings.OutputDir == "" {
		settings.OutputDir = DefaultOutputDir
	}

	gh := &c.GitHub
	if gh.BaseURL == "" {
		gh.BaseURL = DefaultBaseURL
	}
	if gh.Workflow == "" {
		gh.Workflow = DefaultWorkflow
	}
	if gh.Ref == "" {
		gh.Ref = DefaultRef
	}
}

func (c *Config) Validate() error {
	seen := make(map[string]bool)
	for i, p := range c.SecurityPatterns.CodeSecurityPatterns.Patterns {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("security pattern #%d: missing required 'name' field", i+1)
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate security pattern name: %s", p.Name)
		}
		seen[p.Name] = true
		if p.Regex == "" {
			return fmt.Errorf("security pattern %q: missing required 'regex' field", p.Name)
		}
		if _, err := regexp.Compile(p.Regex); err != nil {
			return fmt.Errorf("security pattern %q: invalid regex: %w", p.Name, err)
		}
		if !p.Severity.Valid() {
			return fmt.Errorf("security pattern %q: unknown severity %q", p.Name, p.Severity)
		}
	}

	for _, marker := range c.CodePatterns.TodoComments.Patterns {
		if strings.TrimSpace(marker) == "" {
			return fmt.Errorf("code pattern markers must not be empty")
		}
	}
	for marker, sev := range c.CodePatterns.TodoComments.PriorityMapping {
		if !sev.Valid() {
			return fmt.Errorf("priority mapping for %q: unknown severity %q", marker, sev)
		}
	}

	if c.IssueSettings.MaxIssuesPerRun < 0 {
		return fmt.Errorf("max_issues_per_run must not be negative, got %d", c.IssueSettings.MaxIssuesPerRun)
	}
	return nil
}

// Repository splits owner/repo, falling back to GITHUB_REPOSITORY
func (g GitHubConfig) Repository() (owner, repo string, err error) {
	owner, repo = g.Owner, g.Repo
	if owner == "" || repo == "" {
		if full := os.Getenv("GITHUB_REPOSITORY"); full != "" {
			parts := strings.SplitN(full, "/", 2)
			if len(parts) == 2 {
				if owner == "" {
					owner = parts[0]
				}
				if repo == "" {
					repo = parts[1]
				}
			}
		}
	}
	if owner == "" || repo == "" {
		return "", "", errors.New("github owner and repo must be configured (github.owner/github.repo or GITHUB_REPOSITORY)")
	}
	return owner, repo, nil
}
