package fashion

import (
	"testing"

	"prompt-forge-server/modules/ingest"
)

func encoded(marker string) ingest.EncodedImage {
	return ingest.EncodedImage{Data: marker, MimeType: "image/png"}
}

func fullPipeline() PipelineState {
	return PipelineState{}.
		WithGarments([]ingest.EncodedImage{encoded("QUFBQQ==")}, nil, nil).
		WithAnalysis(Analysis{GarmentAnalysis: "a", QAChecklist: "b", InitialJSONPrompt: "c"}).
		WithPreview(Preview{Image: encoded("QkJCQg==")}).
		WithQA(QAResult{QAFindings: "looks right", Prompts: []StudioPromptItem{{ID: "1", Title: StudioTitles[0], PromptText: "p"}}})
}

func TestStageProgression(t *testing.T) {
	state := PipelineState{}
	if state.Stage() != StageEmpty {
		t.Fatalf("zero state stage = %s, want %s", state.Stage(), StageEmpty)
	}

	state = state.WithGarments([]ingest.EncodedImage{encoded("QUFBQQ==")}, nil, nil)
	if state.Stage() != StageEmpty {
		t.Fatalf("garments alone must not advance the stage, got %s", state.Stage())
	}

	state = state.WithAnalysis(Analysis{GarmentAnalysis: "a", QAChecklist: "b", InitialJSONPrompt: "c"})
	if state.Stage() != StageAnalyzed {
		t.Fatalf("stage = %s, want %s", state.Stage(), StageAnalyzed)
	}

	state = state.WithPreview(Preview{Image: encoded("QkJCQg==")})
	if state.Stage() != StagePreviewGenerated {
		t.Fatalf("stage = %s, want %s", state.Stage(), StagePreviewGenerated)
	}

	state = state.WithQA(QAResult{QAFindings: "ok"})
	if state.Stage() != StageQAComplete {
		t.Fatalf("stage = %s, want %s", state.Stage(), StageQAComplete)
	}
}

func TestReplacingGarmentsClearsEverythingDownstream(t *testing.T) {
	state := fullPipeline()
	if state.Stage() != StageQAComplete {
		t.Fatalf("precondition: stage = %s", state.Stage())
	}

	next := state.WithGarments([]ingest.EncodedImage{encoded("Q0NDQw==")}, nil, nil)

	if next.Stage() != StageEmpty {
		t.Fatalf("stage after garment replacement = %s, want %s", next.Stage(), StageEmpty)
	}
	if next.Analysis != nil || next.Preview != nil || next.QA != nil {
		t.Fatal("garment replacement must clear analysis, preview, and QA result")
	}
	if len(next.Garments) != 1 || next.Garments[0].Data != "Q0NDQw==" {
		t.Fatal("new garments must be retained")
	}
}

func TestReplacingPreviewClearsOnlyQA(t *testing.T) {
	state := fullPipeline()

	next := state.WithPreview(Preview{Image: encoded("RERERA==")})

	if next.Stage() != StagePreviewGenerated {
		t.Fatalf("stage after preview replacement = %s, want %s", next.Stage(), StagePreviewGenerated)
	}
	if next.Analysis == nil {
		t.Fatal("preview replacement must keep the analysis")
	}
	if next.QA != nil {
		t.Fatal("preview replacement must clear the QA result")
	}
	if next.Preview.Image.Data != "RERERA==" {
		t.Fatal("new preview must be retained")
	}
}

func TestCanRunQA(t *testing.T) {
	state := PipelineState{}.WithGarments([]ingest.EncodedImage{encoded("QUFBQQ==")}, nil, nil)
	if state.CanRunQA() {
		t.Fatal("QA must not be runnable without analysis and preview")
	}

	state = state.WithAnalysis(Analysis{GarmentAnalysis: "a", QAChecklist: "b", InitialJSONPrompt: "c"})
	if state.CanRunQA() {
		t.Fatal("QA must not be runnable without a preview")
	}

	state = state.WithPreview(Preview{Image: encoded("QkJCQg==")})
	if !state.CanRunQA() {
		t.Fatal("QA must be runnable with analysis and preview present")
	}
}
