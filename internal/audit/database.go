package audit

import (
	"slices"

	"github.com/agusespa/issuescan/internal/types"
)

// Vulnerability describes the known problems of one artifact version
type Vulnerability struct {
	Severity types.Severity
	IDs      []string
}

// VulnerabilityDatabase looks up known vulnerabilities by artifact and version
type VulnerabilityDatabase interface {
	Lookup(artifact, version string) (Vulnerability, bool)
}

// StaticDatabase maps artifact -> version -> vulnerability
type StaticDatabase map[string]map[string]Vulnerability

func (db StaticDatabase) Lookup(artifact, version string) (Vulnerability, bool) {
	v, ok := db[artifact][version]
	if !ok {
		return Vulnerability{}, false
	}
	return Vulnerability{Severity: v.Severity, IDs: slices.Clone(v.IDs)}, true
}

// DefaultDatabase is the built-in lookup table
func DefaultDatabase() StaticDatabase {
	return StaticDatabase{
		"jackson-databind": {
			"2.9.10": {Severity: types.SeverityHigh, IDs: []string{"CVE-2019-12384"}},
			"2.10.3": {Severity: types.SeverityMedium, IDs: []string{"CVE-2020-8840"}},
		},
	}
}
