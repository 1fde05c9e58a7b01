// Package catalog resolves show titles to curated question sets so that
// popular shows never reach the metered generation path.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embedded []byte

// QuestionsPerShow is the number of questions every curated entry carries.
const QuestionsPerShow = 5

// Metadata is descriptive information a session may display.
type Metadata struct {
	TotalSeasons int    `yaml:"total_seasons" json:"totalSeasons"`
	Years        string `yaml:"years" json:"years"`
	Description  string `yaml:"description" json:"description"`
}

type Entry struct {
	Title     string   `yaml:"title"`
	Questions []string `yaml:"questions"`
	Metadata  `yaml:",inline"`
}

type file struct {
	Shows []Entry `yaml:"shows"`
}

type Catalog struct {
	entries map[string]Entry
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(embedded)
}

// Load reads a catalog from path, or returns Default when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}

	c := &Catalog{entries: make(map[string]Entry, len(f.Shows))}
	for _, e := range f.Shows {
		if e.Title == "" {
			return nil, fmt.Errorf("catalog entry without title")
		}
		if len(e.Questions) != QuestionsPerShow {
			return nil, fmt.Errorf("catalog entry %q has %d questions, want %d", e.Title, len(e.Questions), QuestionsPerShow)
		}
		if _, dup := c.entries[e.Title]; dup {
			return nil, fmt.Errorf("duplicate catalog entry %q", e.Title)
		}
		c.entries[e.Title] = e
	}
	return c, nil
}

// Resolve looks up title by exact match. ok is false on a miss, which is not
// an error: the caller falls through to generation.
func (c *Catalog) Resolve(title string) (entry Entry, ok bool) {
	e, ok := c.entries[title]
	if !ok {
		return Entry{}, false
	}
	e.Questions = append([]string(nil), e.Questions...)
	return e, true
}

// Titles lists curated titles in alphabetical order.
func (c *Catalog) Titles() []string {
	titles := make([]string, 0, len(c.entries))
	for t := range c.entries {
		titles = append(titles, t)
	}
	sort.Strings(titles)
	return titles
}
