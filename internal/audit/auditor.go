package audit

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/agusespa/issuescan/internal/types"
)

const MavenNamespace = "http://maven.apache.org/POM/4.0.0"

type dependency struct {
	GroupID    *string `xml:"http://maven.apache.org/POM/4.0.0 groupId"`
	ArtifactID *string `xml:"http://maven.apache.org/POM/4.0.0 artifactId"`
	Version    *string `xml:"http://maven.apache.org/POM/4.0.0 version"`
}

type Auditor struct {
	db VulnerabilityDatabase
}

func NewAuditor(db VulnerabilityDatabase) *Auditor {
	if db == nil {
		db = DefaultDatabase()
	}
	return &Auditor{db: db}
}

// AuditFile audits the manifest at path
func (a *Auditor) AuditFile(path string) ([]types.DependencyRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	records, err := a.Audit(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return records, nil
}

// Audit decodes every Maven dependency element in r and returns one record
// per dependency the database knows to be vulnerable. Dependencies with a
// missing coordinate or an unresolved ${...} version are skipped.
func (a *Auditor) Audit(r io.Reader) ([]types.DependencyRecord, error) {
	decoder := xml.NewDecoder(r)
	var records []types.DependencyRecord

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Space != MavenNamespace || start.Name.Local != "dependency" {
			continue
		}

		var dep dependency
		if err := decoder.DecodeElement(&dep, &start); err != nil {
			return nil, err
		}

		if rec, ok := a.check(dep); ok {
			records = append(records, rec)
		}
	}

	return records, nil
}

func (a *Auditor) check(dep dependency) (types.DependencyRecord, bool) {
	if dep.GroupID == nil || dep.ArtifactID == nil || dep.Version == nil {
		return types.DependencyRecord{}, false
	}

	group := strings.TrimSpace(*dep.GroupID)
	artifact := strings.TrimSpace(*dep.ArtifactID)
	version := strings.TrimSpace(*dep.Version)
	if strings.Contains(version, "${") {
		return types.DependencyRecord{}, false
	}

	vuln, ok := a.db.Lookup(artifact, version)
	if !ok {
		return types.DependencyRecord{}, false
	}

	return types.DependencyRecord{
		Group:            group,
		Artifact:         artifact,
		Version:          version,
		Severity:         vuln.Severity,
		VulnerabilityIDs: vuln.IDs,
	}, true
}
