package promptgen

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"prompt-forge-server/modules/ingest"
	"prompt-forge-server/modules/mode"
)

// TextGenerator - the multimodal generation collaborator
type TextGenerator interface {
	GenerateText(ctx context.Context, systemInstruction string, parts []*genai.Part, temperature float32) (string, error)
	GenerateJSON(ctx context.Context, systemInstruction string, parts []*genai.Part, temperature float32, out interface{}) error
}

// maxConcurrentRequests - in-flight ceiling for batch fan-out
const maxConcurrentRequests = 4

// Service - prompt generation orchestrator
type Service struct {
	gen TextGenerator
}

// NewService - create the orchestrator with its generation collaborator
func NewService(gen TextGenerator) *Service {
	return &Service{gen: gen}
}

// Generate - run one generation request for the active mode
// Batch mode returns one item per input file in input order; per-item
// failures never cancel siblings. Character-sheet mode is all-or-nothing.
func (s *Service) Generate(ctx context.Context, m mode.Mode, input GenerateInput) ([]PromptItem, error) {
	if !mode.CanSubmit(m, len(input.Files), input.TextConcept) {
		return nil, submitError(m, len(input.Files))
	}

	switch m {
	case mode.SingleImage:
		return s.generateSingle(ctx, input.Files[0]), nil
	case mode.ImageBatch:
		return s.generateBatch(ctx, input.Files), nil
	case mode.ImageFusion:
		return s.generateFusion(ctx, input.Files), nil
	case mode.TextConcept:
		return s.generateTextConcept(ctx, input.TextConcept), nil
	case mode.CharacterSheet:
		return s.generateCharacterSheet(ctx, input.Files[0])
	default:
		return nil, fmt.Errorf("mode %q has no prompt generation flow", m)
	}
}

// generateSingle - one request, one item labeled by file name
func (s *Service) generateSingle(ctx context.Context, file ingest.SourceFile) []PromptItem {
	encoded := ingest.Encode(file)
	source := SourceRef{Kind: SourceImage, Images: []ingest.EncodedImage{encoded}}

	item := PromptItem{ID: uuid.New().String(), Label: file.Name, Source: source}

	part, err := imagePart(encoded)
	if err != nil {
		item.ErrorMessage = err.Error()
		return []PromptItem{item}
	}

	parts := []*genai.Part{
		part,
		genai.NewPartFromText("Based on the image provided, generate the detailed prompt as per the system instructions."),
	}

	text, err := s.gen.GenerateText(ctx, singleImageInstruction(), parts, 0.7)
	if err != nil {
		item.ErrorMessage = err.Error()
	} else {
		item.PromptText = text
	}
	return []PromptItem{item}
}

// generateBatch - N independent concurrent requests, results in input order
func (s *Service) generateBatch(ctx context.Context, files []ingest.SourceFile) []PromptItem {
	items := make([]PromptItem, len(files))

	var wg sync.WaitGroup
	var mu sync.Mutex
	semaphore := make(chan struct{}, maxConcurrentRequests)

	for i, file := range files {
		wg.Add(1)
		go func(idx int, f ingest.SourceFile) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			result := s.generateSingle(ctx, f)[0]

			mu.Lock()
			items[idx] = result
			mu.Unlock()
		}(i, file)
	}

	wg.Wait()
	log.Printf("✅ [PromptGen] Batch complete: %d items (%d failed)", len(items), countFailed(items))
	return items
}

// generateFusion - one request carrying every image, one fused item
func (s *Service) generateFusion(ctx context.Context, files []ingest.SourceFile) []PromptItem {
	encoded := ingest.EncodeAll(files)
	source := SourceRef{Kind: SourceImageSet, Images: encoded}

	item := PromptItem{ID: uuid.New().String(), Label: LabelFusedPrompt, Source: source}

	parts := make([]*genai.Part, 0, len(encoded)+1)
	for _, img := range encoded {
		part, err := imagePart(img)
		if err != nil {
			item.ErrorMessage = err.Error()
			return []PromptItem{item}
		}
		parts = append(parts, part)
	}
	parts = append(parts, genai.NewPartFromText("Based on ALL the images provided, generate a single fused detailed prompt as per the system instructions. Ensure elements from every image contribute to the final prompt."))

	text, err := s.gen.GenerateText(ctx, fusionInstruction(), parts, 0.7)
	if err != nil {
		item.ErrorMessage = err.Error()
	} else {
		item.PromptText = text
	}
	return []PromptItem{item}
}

// generateTextConcept - one request expanding the free-text concept
func (s *Service) generateTextConcept(ctx context.Context, concept string) []PromptItem {
	concept = strings.TrimSpace(concept)
	source := SourceRef{Kind: SourceText, Text: concept}

	item := PromptItem{ID: uuid.New().String(), Label: LabelTextConcept, Source: source}

	parts := []*genai.Part{
		genai.NewPartFromText(fmt.Sprintf("Generate a detailed prompt for the concept: \"%s\", following the system instructions.", concept)),
	}

	text, err := s.gen.GenerateText(ctx, textConceptInstruction(concept), parts, 0.7)
	if err != nil {
		item.ErrorMessage = err.Error()
	} else {
		item.PromptText = text
	}
	return []PromptItem{item}
}

// generateCharacterSheet - one structured request, exactly 6 title-keyed items
// Any contract violation aborts the whole stage with zero items.
func (s *Service) generateCharacterSheet(ctx context.Context, file ingest.SourceFile) ([]PromptItem, error) {
	encoded := ingest.Encode(file)
	source := SourceRef{Kind: SourceImage, Images: []ingest.EncodedImage{encoded}}

	part, err := imagePart(encoded)
	if err != nil {
		return nil, err
	}

	parts := []*genai.Part{
		part,
		genai.NewPartFromText("Based on the character in the image provided, generate the 6 character sheet prompts as per the system instructions."),
	}

	var entries []sheetEntry
	if err := s.gen.GenerateJSON(ctx, characterSheetInstruction(), parts, 0.4, &entries); err != nil {
		return nil, err
	}

	if err := validateSheetEntries(entries); err != nil {
		return nil, err
	}

	items := make([]PromptItem, len(entries))
	for i, entry := range entries {
		items[i] = PromptItem{
			ID:         uuid.New().String(),
			Label:      entry.Title,
			PromptText: entry.Prompt,
			Source:     source,
		}
	}
	return items, nil
}

// validateSheetEntries - strict contract check for the structured response
// Exact count, exact title set, non-empty fields. Never partially accepted.
func validateSheetEntries(entries []sheetEntry) error {
	if len(entries) != len(CharacterSheetTitles) {
		return fmt.Errorf("character sheet response has %d items, expected exactly %d", len(entries), len(CharacterSheetTitles))
	}

	expected := make(map[string]bool, len(CharacterSheetTitles))
	for _, title := range CharacterSheetTitles {
		expected[title] = false
	}

	for _, entry := range entries {
		if strings.TrimSpace(entry.Title) == "" || strings.TrimSpace(entry.Prompt) == "" {
			return fmt.Errorf("character sheet response contains an item with an empty title or prompt")
		}
		seen, ok := expected[entry.Title]
		if !ok {
			return fmt.Errorf("character sheet response contains unexpected title %q", entry.Title)
		}
		if seen {
			return fmt.Errorf("character sheet response contains duplicate title %q", entry.Title)
		}
		expected[entry.Title] = true
	}

	return nil
}

// Refine - re-issue every previously successful item with steering suggestions
// The returned set replaces the prior one: same size, same IDs, same
// source references. Items that previously failed pass through unchanged.
func (s *Service) Refine(ctx context.Context, items []PromptItem, suggestions string) ([]PromptItem, error) {
	suggestions = strings.TrimSpace(suggestions)
	if suggestions == "" {
		return nil, fmt.Errorf("refinement suggestions must not be empty")
	}
	if countFailed(items) == len(items) {
		return nil, fmt.Errorf("no successfully generated prompts to refine")
	}

	refined := make([]PromptItem, len(items))

	var wg sync.WaitGroup
	var mu sync.Mutex
	semaphore := make(chan struct{}, maxConcurrentRequests)

	for i, item := range items {
		if item.Failed() || item.PromptText == "" {
			refined[i] = item
			continue
		}

		wg.Add(1)
		go func(idx int, prior PromptItem) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			result := s.refineItem(ctx, prior, suggestions)

			mu.Lock()
			refined[idx] = result
			mu.Unlock()
		}(i, item)
	}

	wg.Wait()
	return refined, nil
}

// refineItem - rebuild one request from the retained source reference
func (s *Service) refineItem(ctx context.Context, prior PromptItem, suggestions string) PromptItem {
	next := PromptItem{ID: prior.ID, Label: prior.Label, Source: prior.Source}

	var instruction string
	var parts []*genai.Part

	switch prior.Source.Kind {
	case SourceImage:
		instruction = refineSingleImageInstruction(suggestions)
		part, err := imagePart(prior.Source.Images[0])
		if err != nil {
			next.ErrorMessage = fmt.Sprintf("Failed to refine prompt for %s: %v", prior.Label, err)
			return next
		}
		parts = []*genai.Part{
			part,
			genai.NewPartFromText("Based on the image provided and the system instructions (which include refinement suggestions), generate the refined detailed prompt."),
		}
	case SourceImageSet:
		instruction = refineFusionInstruction(suggestions)
		parts = make([]*genai.Part, 0, len(prior.Source.Images)+1)
		for _, img := range prior.Source.Images {
			part, err := imagePart(img)
			if err != nil {
				next.ErrorMessage = fmt.Sprintf("Failed to refine prompt for %s: %v", prior.Label, err)
				return next
			}
			parts = append(parts, part)
		}
		parts = append(parts, genai.NewPartFromText("Based on all provided images and the system instructions (which include refinement suggestions), generate the single refined detailed prompt."))
	case SourceText:
		instruction = refineTextInstruction(prior.Source.Text, suggestions)
		parts = []*genai.Part{
			genai.NewPartFromText(fmt.Sprintf("Refine the prompt for the concept: \"%s\", using the refinement suggestions outlined in the system instruction.", prior.Source.Text)),
		}
	default:
		next.ErrorMessage = fmt.Sprintf("cannot refine item with source kind %q", prior.Source.Kind)
		return next
	}

	text, err := s.gen.GenerateText(ctx, instruction, parts, 0.7)
	if err != nil {
		next.ErrorMessage = fmt.Sprintf("Failed to refine prompt for %s: %v", prior.Label, err)
		return next
	}

	next.PromptText = text
	return next
}

// imagePart - decode an encoded image back into an inline request part
// Refinement items arrive from the client, so the payload is validated here.
func imagePart(img ingest.EncodedImage) (*genai.Part, error) {
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

func submitError(m mode.Mode, fileCount int) error {
	c, err := mode.Get(m)
	if err != nil {
		return err
	}
	if c.AcceptsText {
		return fmt.Errorf("a non-empty text concept is required for mode %q", m)
	}
	return fmt.Errorf("mode %q requires between %d and %d files, got %d", m, c.MinFiles, c.MaxFiles, fileCount)
}

func countFailed(items []PromptItem) int {
	n := 0
	for _, item := range items {
		if item.Failed() {
			n++
		}
	}
	return n
}
