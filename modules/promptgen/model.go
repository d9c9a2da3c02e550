package promptgen

import "prompt-forge-server/modules/ingest"

// Labels for non-file-keyed prompt items
const (
	LabelFusedPrompt = "Fused Prompt"
	LabelTextConcept = "Text Concept"
)

// SourceKind - variant tag for a prompt item's origin
type SourceKind string

const (
	SourceImage    SourceKind = "image"
	SourceImageSet SourceKind = "imageSet"
	SourceText     SourceKind = "text"
)

// SourceRef - the minimal immutable reference needed to re-issue a request
// during refinement, retained on every prompt item.
type SourceRef struct {
	Kind   SourceKind            `json:"kind"`
	Images []ingest.EncodedImage `json:"images,omitempty"`
	Text   string                `json:"text,omitempty"`
}

// PromptItem - one generation result
// Exactly one of PromptText/ErrorMessage is set after a request resolves.
type PromptItem struct {
	ID           string    `json:"id"`
	Label        string    `json:"label"`
	PromptText   string    `json:"promptText,omitempty"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	Copied       bool      `json:"copied"`
	Source       SourceRef `json:"source"`
}

// Failed - whether the item's request resolved with an error
func (p PromptItem) Failed() bool {
	return p.ErrorMessage != ""
}

// sheetEntry - one element of the structured character-sheet response
type sheetEntry struct {
	Title  string `json:"title"`
	Prompt string `json:"prompt"`
}

// GenerateInput - the state submitted for one generation call
type GenerateInput struct {
	Files       []ingest.SourceFile
	TextConcept string
}
