package fashion

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"prompt-forge-server/modules/common/overrides"
	"prompt-forge-server/modules/common/utils"
	"prompt-forge-server/modules/ingest"
)

// Garment slot bounds
const (
	MinGarments = 1
	MaxGarments = 2
)

// TextGenerator - the multimodal generation collaborator
type TextGenerator interface {
	GenerateJSON(ctx context.Context, systemInstruction string, parts []*genai.Part, temperature float32, out interface{}) error
}

// InstructionOverrides - operator overrides read at stage invocation time
type InstructionOverrides interface {
	Get(ctx context.Context, key string) (string, error)
}

// Service - fashion pipeline stage runner
type Service struct {
	gen       TextGenerator
	overrides InstructionOverrides
}

// NewService - create the pipeline service
func NewService(gen TextGenerator, ov InstructionOverrides) *Service {
	return &Service{gen: gen, overrides: ov}
}

// Analyze - run the garment analysis stage (Empty -> Analyzed)
// Reference images are optional and never block analysis. A malformed or
// incomplete structured response aborts the stage with no partial artifact.
func (s *Service) Analyze(ctx context.Context, state PipelineState) (PipelineState, error) {
	if len(state.Garments) < MinGarments || len(state.Garments) > MaxGarments {
		return state, fmt.Errorf("analysis requires %d to %d garment images, got %d", MinGarments, MaxGarments, len(state.Garments))
	}

	instruction := s.instructionFor(ctx, overrides.KeyAnalysis, analysisInstruction)

	parts := make([]*genai.Part, 0, len(state.Garments)+len(state.BackgroundRefs)+len(state.ModelRefs)+2)
	for _, garment := range state.Garments {
		part, err := encodedPart(garment)
		if err != nil {
			return state, fmt.Errorf("garment image could not be decoded: %w", err)
		}
		parts = append(parts, part)
	}

	for _, ref := range state.BackgroundRefs {
		part, err := encodedPart(ref)
		if err != nil {
			return state, fmt.Errorf("background reference image could not be decoded: %w", err)
		}
		parts = append(parts, part)
	}
	for _, ref := range state.ModelRefs {
		part, err := encodedPart(ref)
		if err != nil {
			return state, fmt.Errorf("model reference image could not be decoded: %w", err)
		}
		parts = append(parts, part)
	}

	framing := fmt.Sprintf(
		"The first %d image(s) are the garment product images. %d background reference image(s) and %d model reference image(s) follow. Analyze per the system instructions.",
		len(state.Garments), len(state.BackgroundRefs), len(state.ModelRefs))

	// a combined grid view helps the model reason about the full outfit
	if len(state.Garments) > 1 {
		if merged, err := mergeEncoded(state.Garments); err == nil {
			parts = append(parts, gridPart(merged))
			framing += " The final image is a combined grid view of the garment images."
		} else {
			log.Printf("⚠️ [Fashion] Garment grid merge failed: %v", err)
		}
	}

	parts = append(parts, genai.NewPartFromText(framing))

	var analysis Analysis
	if err := s.gen.GenerateJSON(ctx, instruction, parts, 0.3, &analysis); err != nil {
		return state, err
	}

	if strings.TrimSpace(analysis.GarmentAnalysis) == "" ||
		strings.TrimSpace(analysis.QAChecklist) == "" ||
		strings.TrimSpace(analysis.InitialJSONPrompt) == "" {
		return state, fmt.Errorf("analysis response is missing one or more required fields")
	}

	log.Printf("✅ [Fashion] Analysis complete: %d garments, checklist %d chars",
		len(state.Garments), len(analysis.QAChecklist))
	return state.WithAnalysis(analysis), nil
}

// qaResponse - the structured QA reply on the wire
type qaResponse struct {
	QAFindings string `json:"qaFindings"`
	Prompts    []struct {
		Title  string `json:"title"`
		Prompt string `json:"prompt"`
	} `json:"prompts"`
}

// RunQA - run the QA stage (PreviewGenerated -> QAComplete)
// The original garment images go first as ground truth, then the preview
// image under review, then the prior analysis.
func (s *Service) RunQA(ctx context.Context, state PipelineState) (PipelineState, error) {
	if !state.CanRunQA() {
		return state, fmt.Errorf("QA requires a completed analysis and a preview image")
	}

	instruction := s.instructionFor(ctx, overrides.KeyQA, qaInstruction)

	parts := make([]*genai.Part, 0, len(state.Garments)+2)
	for _, garment := range state.Garments {
		part, err := encodedPart(garment)
		if err != nil {
			return state, fmt.Errorf("garment image could not be decoded: %w", err)
		}
		parts = append(parts, part)
	}
	previewPart, err := encodedPart(state.Preview.Image)
	if err != nil {
		return state, fmt.Errorf("preview image could not be decoded: %w", err)
	}
	parts = append(parts, previewPart)
	parts = append(parts, genai.NewPartFromText(fmt.Sprintf(
		"The first %d image(s) are the ORIGINAL garment images (ground truth). The last image is the GENERATED preview to review.\n\nPrior garment analysis:\n%s\n\nQA checklist:\n%s",
		len(state.Garments), state.Analysis.GarmentAnalysis, state.Analysis.QAChecklist)))

	var resp qaResponse
	if err := s.gen.GenerateJSON(ctx, instruction, parts, 0.3, &resp); err != nil {
		return state, err
	}

	result, err := validateQAResponse(resp)
	if err != nil {
		return state, err
	}

	log.Printf("✅ [Fashion] QA complete: findings %d chars, %d prompts", len(result.QAFindings), len(result.Prompts))
	return state.WithQA(result), nil
}

// validateQAResponse - strict contract check, mirroring the character sheet
// Exact count, exact title set, non-empty fields. Never partially accepted.
func validateQAResponse(resp qaResponse) (QAResult, error) {
	expected := QATitles()

	if strings.TrimSpace(resp.QAFindings) == "" {
		return QAResult{}, fmt.Errorf("QA response is missing the findings text")
	}
	if len(resp.Prompts) != len(expected) {
		return QAResult{}, fmt.Errorf("QA response has %d prompts, expected exactly %d", len(resp.Prompts), len(expected))
	}

	remaining := make(map[string]bool, len(expected))
	for _, title := range expected {
		remaining[title] = false
	}

	items := make([]StudioPromptItem, len(resp.Prompts))
	for i, entry := range resp.Prompts {
		if strings.TrimSpace(entry.Title) == "" || strings.TrimSpace(entry.Prompt) == "" {
			return QAResult{}, fmt.Errorf("QA response contains a prompt with an empty title or text")
		}
		seen, ok := remaining[entry.Title]
		if !ok {
			return QAResult{}, fmt.Errorf("QA response contains unexpected title %q", entry.Title)
		}
		if seen {
			return QAResult{}, fmt.Errorf("QA response contains duplicate title %q", entry.Title)
		}
		remaining[entry.Title] = true

		items[i] = StudioPromptItem{
			ID:         uuid.New().String(),
			Title:      entry.Title,
			PromptText: entry.Prompt,
		}
	}

	return QAResult{QAFindings: resp.QAFindings, Prompts: items}, nil
}

// instructionFor - operator override when set, built-in template otherwise
func (s *Service) instructionFor(ctx context.Context, key string, builtin func() string) string {
	if s.overrides != nil {
		override, err := s.overrides.Get(ctx, key)
		if err != nil {
			log.Printf("⚠️ [Fashion] Failed to read override %s: %v", key, err)
		} else if strings.TrimSpace(override) != "" {
			log.Printf("📝 [Fashion] Using instruction override for %s", key)
			return override
		}
	}
	return builtin()
}

// encodedPart - inline image part from an encoded image
// Pipeline state arrives from the client, so the payload is validated here.
func encodedPart(img ingest.EncodedImage) (*genai.Part, error) {
	data, err := base64.StdEncoding.DecodeString(img.Data)
	if err != nil {
		return nil, fmt.Errorf("image data is not valid base64: %w", err)
	}
	return &genai.Part{
		InlineData: &genai.Blob{
			MIMEType: img.MimeType,
			Data:     data,
		},
	}, nil
}

// mergeEncoded - grid-merge encoded garment images into one PNG
func mergeEncoded(images []ingest.EncodedImage) ([]byte, error) {
	raw := make([][]byte, 0, len(images))
	for _, img := range images {
		data, err := base64.StdEncoding.DecodeString(img.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode garment image: %w", err)
		}
		raw = append(raw, data)
	}
	return utils.MergeImages(raw)
}

func gridPart(pngData []byte) *genai.Part {
	return genai.NewPartFromBytes(pngData, "image/png")
}
