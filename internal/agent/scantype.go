package agent

import "fmt"

type ScanType string

const (
	ScanSecurity     ScanType = "security"
	ScanCodePatterns ScanType = "code-patterns"
	ScanDependencies ScanType = "dependencies"
	ScanAll          ScanType = "all"
)

// AllScanTypes is the pass order used for "all"
var AllScanTypes = []ScanType{ScanSecurity, ScanCodePatterns, ScanDependencies}

// ParseScanType expands a --scan-type value into the passes to run
func ParseScanType(s string) ([]ScanType, error) {
	switch ScanType(s) {
	case ScanSecurity, ScanCodePatterns, ScanDependencies:
		return []ScanType{ScanType(s)}, nil
	case ScanAll:
		return append([]ScanType(nil), AllScanTypes...), nil
	default:
		return nil, fmt.Errorf("unknown scan type %q (expected security, code-patterns, dependencies or all)", s)
	}
}

func (t ScanType) progress() (scanning, found string) {
	switch t {
	case ScanSecurity:
		return "Scanning for security vulnerabilities...", "security"
	case ScanCodePatterns:
		return "Scanning for code patterns...", "code pattern"
	case ScanDependencies:
		return "Scanning for dependency issues...", "dependency"
	default:
		return fmt.Sprintf("Scanning for %s...", t), string(t)
	}
}
