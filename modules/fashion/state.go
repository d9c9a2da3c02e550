package fashion

import "prompt-forge-server/modules/ingest"

// Stage - current pipeline stage, derived from which artifacts are present
func (s PipelineState) Stage() Stage {
	switch {
	case s.QA != nil:
		return StageQAComplete
	case s.Preview != nil:
		return StagePreviewGenerated
	case s.Analysis != nil:
		return StageAnalyzed
	default:
		return StageEmpty
	}
}

// WithGarments - replace the garment slot (and optional reference slots)
// Replacing garments invalidates every downstream artifact: analysis,
// preview, and QA result are all cleared.
func (s PipelineState) WithGarments(garments, backgroundRefs, modelRefs []ingest.EncodedImage) PipelineState {
	return PipelineState{
		Garments:       garments,
		BackgroundRefs: backgroundRefs,
		ModelRefs:      modelRefs,
	}
}

// WithAnalysis - record the analysis artifact
func (s PipelineState) WithAnalysis(a Analysis) PipelineState {
	next := s
	next.Analysis = &a
	return next
}

// WithPreview - set or replace the preview image
// A new preview invalidates any prior QA result but keeps the analysis.
func (s PipelineState) WithPreview(p Preview) PipelineState {
	next := s
	next.Preview = &p
	next.QA = nil
	return next
}

// WithQA - record the QA artifact
func (s PipelineState) WithQA(q QAResult) PipelineState {
	next := s
	next.QA = &q
	return next
}

// CanRunQA - QA needs both an analysis and a preview image present
func (s PipelineState) CanRunQA() bool {
	return s.Analysis != nil && s.Preview != nil && len(s.Garments) > 0
}
