// Package testutil loads YAML fixture files in the format of the Mustache
// conformance suite.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lovasoa/rustache/value"
)

// FixtureFile is one fixture file: an overview and a list of cases.
type FixtureFile struct {
	Path     string        `yaml:"-"`
	Overview string        `yaml:"overview"`
	Tests    []FixtureCase `yaml:"tests"`
}

// FixtureCase is a single template, its data and the expected output.
type FixtureCase struct {
	Name     string            `yaml:"name"`
	Desc     string            `yaml:"desc"`
	Data     yaml.Node         `yaml:"data"`
	Template string            `yaml:"template"`
	Partials map[string]string `yaml:"partials"`
	Expected string            `yaml:"expected"`
}

// Value converts the case data.
func (c *FixtureCase) Value() (value.Value, error) {
	v, err := value.FromYAMLNode(&c.Data)
	if err != nil {
		return value.Missing(), fmt.Errorf("%s: %w", c.Name, err)
	}
	return v, nil
}

// ParseFixtureFile reads and decodes a fixture file.
func ParseFixtureFile(path string) (*FixtureFile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fixture, err := ParseFixture(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	fixture.Path = path
	return fixture, nil
}

// ParseFixture decodes fixture content.
func ParseFixture(content []byte) (*FixtureFile, error) {
	var fixture FixtureFile
	if err := yaml.Unmarshal(content, &fixture); err != nil {
		return nil, err
	}
	for i, tc := range fixture.Tests {
		if tc.Name == "" {
			return nil, fmt.Errorf("test %d has no name", i)
		}
	}
	return &fixture, nil
}

// GlobFixtures finds all fixture files matching a pattern, sorted.
func GlobFixtures(pattern string) ([]string, error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// TestResult represents the result of running a single test.
type TestResult struct {
	Name     string
	Expected string
	Actual   string
}

// Diff returns a simple diff between expected and actual output. Line
// endings are made visible so whitespace mistakes stand out.
func (r *TestResult) Diff() string {
	if r.Expected == r.Actual {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("=== Expected ===\n")
	sb.WriteString(visible(r.Expected))
	sb.WriteString("=== Actual ===\n")
	sb.WriteString(visible(r.Actual))
	sb.WriteString("=== End ===\n")
	return sb.String()
}

func visible(s string) string {
	s = strings.ReplaceAll(s, "\r", "␍")
	s = strings.ReplaceAll(s, "\n", "⏎\n")
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	return s
}
