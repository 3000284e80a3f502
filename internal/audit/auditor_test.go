package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agusespa/issuescan/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pom(deps string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<project xmlns="http://maven.apache.org/POM/4.0.0">
  <modelVersion>4.0.0</modelVersion>
  <dependencies>` + deps + `
  </dependencies>
</project>`
}

func dep(group, artifact, version string) string {
	return `
    <dependency>
      <groupId>` + group + `</groupId>
      <artifactId>` + artifact + `</artifactId>
      <version>` + version + `</version>
    </dependency>`
}

func TestAuditKnownVulnerableVersion(t *testing.T) {
	a := NewAuditor(nil)

	records, err := a.Audit(strings.NewReader(pom(
		dep("com.fasterxml.jackson.core", "jackson-databind", "2.9.10") +
			dep("org.lwjgl", "lwjgl", "3.3.3"),
	)))
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "com.fasterxml.jackson.core:jackson-databind", rec.Name())
	assert.Equal(t, "2.9.10", rec.Version)
	assert.Equal(t, types.SeverityHigh, rec.Severity)
	assert.Equal(t, []string{"CVE-2019-12384"}, rec.VulnerabilityIDs)
}

func TestAuditSkipsUnresolvedAndIncomplete(t *testing.T) {
	a := NewAuditor(nil)

	incomplete := `
    <dependency>
      <groupId>com.fasterxml.jackson.core</groupId>
      <artifactId>jackson-databind</artifactId>
    </dependency>`

	records, err := a.Audit(strings.NewReader(pom(
		dep("com.fasterxml.jackson.core", "jackson-databind", "${some.property}") +
			dep("com.fasterxml.jackson.core", "jackson-databind", "2.9.10-${suffix}") +
			incomplete,
	)))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestAuditFindsNestedDependencies(t *testing.T) {
	a := NewAuditor(nil)

	doc := `<project xmlns="http://maven.apache.org/POM/4.0.0">
  <dependencyManagement>
    <dependencies>` + dep("com.fasterxml.jackson.core", "jackson-databind", " 2.10.3 ") + `
    </dependencies>
  </dependencyManagement>
</project>`

	records, err := a.Audit(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, types.SeverityMedium, records[0].Severity)
	assert.Equal(t, []string{"CVE-2020-8840"}, records[0].VulnerabilityIDs)
}

func TestAuditIgnoresOtherNamespaces(t *testing.T) {
	a := NewAuditor(nil)

	doc := `<project>
  <dependencies>` + dep("com.fasterxml.jackson.core", "jackson-databind", "2.9.10") + `
  </dependencies>
</project>`

	records, err := a.Audit(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestAuditMalformedXML(t *testing.T) {
	a := NewAuditor(nil)

	_, err := a.Audit(strings.NewReader(`<project xmlns="http://maven.apache.org/POM/4.0.0"><dependencies><dependency>`))
	assert.Error(t, err)
}

func TestAuditCustomDatabase(t *testing.T) {
	db := StaticDatabase{
		"log4j-core": {"2.14.1": {Severity: types.SeverityHigh, IDs: []string{"CVE-2021-44228"}}},
	}
	a := NewAuditor(db)

	records, err := a.Audit(strings.NewReader(pom(
		dep("org.apache.logging.log4j", "log4j-core", "2.14.1") +
			dep("com.fasterxml.jackson.core", "jackson-databind", "2.9.10"),
	)))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "log4j-core", records[0].Artifact)
}

func TestAuditFile(t *testing.T) {
	a := NewAuditor(nil)
	dir := t.TempDir()

	path := filepath.Join(dir, "pom.xml")
	require.NoError(t, os.WriteFile(path, []byte(pom(dep("com.fasterxml.jackson.core", "jackson-databind", "2.9.10"))), 0o644))

	records, err := a.AuditFile(path)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	broken := filepath.Join(dir, "broken.xml")
	require.NoError(t, os.WriteFile(broken, []byte("<project"), 0o644))
	_, err = a.AuditFile(broken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.xml")
}

func TestStaticDatabaseLookupReturnsCopy(t *testing.T) {
	db := DefaultDatabase()

	v, ok := db.Lookup("jackson-databind", "2.9.10")
	require.True(t, ok)
	v.IDs[0] = "mutated"

	again, _ := db.Lookup("jackson-databind", "2.9.10")
	assert.Equal(t, "CVE-2019-12384", again.IDs[0])

	_, ok = db.Lookup("jackson-databind", "2.15.0")
	assert.False(t, ok)
}
