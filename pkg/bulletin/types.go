package bulletin

import (
	"fmt"
	"strings"
)

// Tag categorises a highlight or minor item.
type Tag string

const (
	TagFeature     Tag = "feature"
	TagBugfix      Tag = "bugfix"
	TagImprovement Tag = "improvement"
	TagAI          Tag = "ai"
	TagUI          Tag = "ui"
	TagPerformance Tag = "performance"
	TagOther       Tag = "other"
)

var knownTags = []Tag{TagFeature, TagBugfix, TagImprovement, TagAI, TagUI, TagPerformance, TagOther}

// Tags returns every accepted tag in declaration order.
func Tags() []Tag {
	return append([]Tag(nil), knownTags...)
}

// ParseTag maps a raw value onto the closed tag set.
func ParseTag(value string) (Tag, error) {
	for _, tag := range knownTags {
		if string(tag) == value {
			return tag, nil
		}
	}
	names := make([]string, len(knownTags))
	for i, tag := range knownTags {
		names[i] = string(tag)
	}
	return "", fmt.Errorf("unknown tag %q (expected one of %s)", value, strings.Join(names, ", "))
}

// Data is a validated update bulletin. Values are only produced by Decode
// after Validate passed.
type Data struct {
	Version     string          `json:"version"`
	ReleaseDate string          `json:"releaseDate"`
	Summary     string          `json:"summary,omitempty"`
	Highlights  []HighlightItem `json:"highlights"`
	MinorItems  []MinorItem     `json:"minorItems"`
}

// HighlightItem is a major change with a longer description.
type HighlightItem struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Screenshot  string `json:"screenshot,omitempty"`
	Tags        []Tag  `json:"tags"`
}

// MinorItem is a smaller fix or improvement listed on the summary page.
type MinorItem struct {
	Category    Tag    `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// LoadedConfig is the loader's output envelope.
type LoadedConfig struct {
	Data          Data
	CompositionID string
	// SourcePath is the absolute file path for Load and the logical path
	// for LoadInline.
	SourcePath string
}

// Clone returns a deep copy so cached values cannot be mutated by callers.
func (d Data) Clone() Data {
	out := d
	if d.Highlights != nil {
		out.Highlights = make([]HighlightItem, len(d.Highlights))
		for i, item := range d.Highlights {
			item.Tags = append([]Tag{}, item.Tags...)
			out.Highlights[i] = item
		}
	}
	if d.MinorItems != nil {
		out.MinorItems = append([]MinorItem{}, d.MinorItems...)
	}
	return out
}
