package mode

import (
	"fmt"
	"strings"
)

// Mode - workflow mode identifier
type Mode string

const (
	SingleImage    Mode = "single-image"
	ImageBatch     Mode = "image-batch"
	ImageFusion    Mode = "image-fusion"
	CharacterSheet Mode = "character-sheet"
	FashionPrompt  Mode = "fashion-prompt"
	TextConcept    Mode = "text-concept"
)

// Constraints - per-mode input rules
type Constraints struct {
	MinFiles       int
	MaxFiles       int
	AcceptsText    bool
	AppendOnIngest bool // batch slot appends up to the cap, all others replace
}

// registry - the closed set of workflow modes
var registry = map[Mode]Constraints{
	SingleImage:    {MinFiles: 1, MaxFiles: 1},
	ImageBatch:     {MinFiles: 1, MaxFiles: 10, AppendOnIngest: true},
	ImageFusion:    {MinFiles: 2, MaxFiles: 5},
	CharacterSheet: {MinFiles: 1, MaxFiles: 1},
	FashionPrompt:  {MinFiles: 1, MaxFiles: 2},
	TextConcept:    {MinFiles: 0, MaxFiles: 0, AcceptsText: true},
}

// Parse - resolve a mode string, rejecting anything outside the closed set
func Parse(s string) (Mode, error) {
	m := Mode(s)
	if _, ok := registry[m]; !ok {
		return "", fmt.Errorf("unknown mode: %q", s)
	}
	return m, nil
}

// Get - look up a mode's constraints
func Get(m Mode) (Constraints, error) {
	c, ok := registry[m]
	if !ok {
		return Constraints{}, fmt.Errorf("unknown mode: %q", m)
	}
	return c, nil
}

// All - every registered mode
func All() []Mode {
	return []Mode{SingleImage, ImageBatch, ImageFusion, CharacterSheet, FashionPrompt, TextConcept}
}

// CanSubmit - whether the current selection satisfies the mode's constraints
// fileCount applies to image modes, text to the text-concept mode.
func CanSubmit(m Mode, fileCount int, text string) bool {
	c, ok := registry[m]
	if !ok {
		return false
	}

	if c.AcceptsText {
		return strings.TrimSpace(text) != ""
	}

	return fileCount >= c.MinFiles && fileCount <= c.MaxFiles
}
