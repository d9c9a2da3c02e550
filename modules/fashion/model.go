package fashion

import "prompt-forge-server/modules/ingest"

// Stage - pipeline stage derived from the accumulated artifacts
type Stage string

const (
	StageEmpty            Stage = "empty"
	StageAnalyzed         Stage = "analyzed"
	StagePreviewGenerated Stage = "preview-generated"
	StageQAComplete       Stage = "qa-complete"
)

// Analysis - structured garment analysis, the first pipeline artifact
// InitialJSONPrompt is a ready-to-use generation prompt.
type Analysis struct {
	GarmentAnalysis   string `json:"garmentAnalysis"`
	QAChecklist       string `json:"qaChecklist"`
	InitialJSONPrompt string `json:"initialJsonPrompt"`
}

// Preview - the generated (or user-supplied) preview image under review
type Preview struct {
	Image ingest.EncodedImage `json:"image"`
	URL   string              `json:"url,omitempty"`
}

// StudioPromptItem - one title-keyed prompt from the QA stage
type StudioPromptItem struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	PromptText string `json:"promptText"`
}

// QAResult - findings plus the full studio/lifestyle prompt set
type QAResult struct {
	QAFindings string             `json:"qaFindings"`
	Prompts    []StudioPromptItem `json:"prompts"`
}

// PipelineState - every artifact of the fashion workflow
// The zero value is the empty pipeline. Transitions are value-returning,
// see state.go for what each one clears.
type PipelineState struct {
	Garments       []ingest.EncodedImage `json:"garments"`
	BackgroundRefs []ingest.EncodedImage `json:"backgroundRefs,omitempty"`
	ModelRefs      []ingest.EncodedImage `json:"modelRefs,omitempty"`
	Analysis       *Analysis             `json:"analysis,omitempty"`
	Preview        *Preview              `json:"preview,omitempty"`
	QA             *QAResult             `json:"qa,omitempty"`
}
