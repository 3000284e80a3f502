package issue

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/agusespa/issuescan/internal/types"
)

type BodyTemplate struct {
	Tag         types.TemplateTag
	Description string
	Template    string
}

var BodyTemplates = map[types.TemplateTag]BodyTemplate{
	types.TemplateVulnerability: {
		Tag:         types.TemplateVulnerability,
		Description: "Security pattern matched in source",
		Template:    vulnerabilityTemplate,
	},
	types.TemplateCodePattern: {
		Tag:         types.TemplateCodePattern,
		Description: "Marker comment left in source",
		Template:    codePatternTemplate,
	},
	types.TemplateDependency: {
		Tag:         types.TemplateDependency,
		Description: "Declared dependency with known vulnerabilities",
		Template:    dependencyTemplate,
	},
}

var funcs = template.FuncMap{
	"join": strings.Join,
}

func LoadTemplates() (*template.Template, error) {
	tmpl := template.New("issues").Funcs(funcs)

	for tag, body := range BodyTemplates {
		_, err := tmpl.New(string(tag)).Parse(body.Template)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", tag, err)
		}
	}

	return tmpl, nil
}

// parsed once; the bodies are static
var templates = template.Must(LoadTemplates())

func render(tag types.TemplateTag, data any) (string, error) {
	var result strings.Builder
	if err := templates.ExecuteTemplate(&result, string(tag), data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", tag, err)
	}
	return result.String(), nil
}

const vulnerabilityTemplate = `**⚠️ This issue was automatically created by issuescan after detecting a potential security vulnerability.**

**Vulnerability Type:** {{.Name}}

**Affected Component:** {{.Location}}

**Severity Level:** {{.Severity}}

**Vulnerability Description:**
{{if .Description}}{{.Description}}{{else}}No description configured for this pattern.{{end}}

**Evidence/Location:**
` + "```" + `
File: {{.Path}}
Line: {{.Line}}
Code: {{.Code}}
` + "```" + `

**Suggested Remediation:**
- Review the flagged code for security implications
- Implement proper input validation/sanitization
- Consider using parameterized queries or safe APIs
- Follow secure coding best practices

**Automation Information:**
- [x] This issue was created by an automated security scan
- [x] The detection rules used are up-to-date
- [x] Manual verification is recommended
`

const codePatternTemplate = `**🤖 This issue was automatically created by issuescan after detecting a code pattern that may need attention.**

**Pattern Type:** {{.Marker}} comments

**Location:** {{.Location}}

**Priority Level:** {{.Priority}}

**Pattern Description:**
Found a {{.Marker}} comment that indicates unfinished work or a known issue that needs to be addressed.

**Code Excerpt:**
` + "```{{.Language}}" + `
{{.Code}}
` + "```" + `

**{{.Marker}} Content:** {{.Note}}

**Suggested Solution:**
- Review the {{.Marker}} comment and determine what work needs to be done
- Implement the necessary changes or create a more detailed issue
- Remove the {{.Marker}} comment once the work is complete
- If the work is not needed, remove the comment

**Impact Assessment:**
{{.Marker}} comments can indicate incomplete functionality, potential bugs, or areas needing improvement.

**Detection Information:**
- [x] Pattern detected by automated analysis
- [x] Multiple occurrences may exist
- [x] Requires human review for context
`

const dependencyTemplate = `**📦 This issue was automatically created by issuescan after detecting a dependency-related concern.**

**Issue Type:** Vulnerable dependency

**Dependency Name:** {{.Name}}

**Current Version:** {{.Version}}

**Severity Level:** {{.Severity}}

**Recommended Version:** Latest stable version (check dependency's releases)

**Issue Description:**
This dependency has known security vulnerabilities that should be addressed by updating to a newer version.

**Impact Analysis:**
- Security implications: {{join .IDs ", "}}
- Potential for exploitation if vulnerability is exposed
- Compliance and audit concerns

**Update Instructions:**
1. Check the latest stable version of this dependency
2. Update the version in {{.Manifest}}
3. Run ` + "`mvn clean compile`" + ` to verify compatibility
4. Run full test suite to ensure no breaking changes
5. Review release notes for any API changes

**References:**
{{range .IDs}}- https://nvd.nist.gov/vuln/detail/{{.}}
{{end}}- Check https://nvd.nist.gov/ for detailed vulnerability information

**Detection Information:**
- [x] Detected during automated dependency scan
- [x] Security database checked
- [ ] Version compatibility verified
- [ ] Breaking changes analysis needed
`
