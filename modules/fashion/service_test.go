package fashion

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/png"
	"strings"
	"testing"

	"google.golang.org/genai"

	"prompt-forge-server/modules/common/overrides"
	"prompt-forge-server/modules/ingest"
)

// fakeJSONGenerator - scripted structured-response collaborator
type fakeJSONGenerator struct {
	fn func(systemInstruction string, parts []*genai.Part, out interface{}) error
}

func (f *fakeJSONGenerator) GenerateJSON(_ context.Context, si string, parts []*genai.Part, _ float32, out interface{}) error {
	return f.fn(si, parts, out)
}

// fakeOverrides - in-memory override store
type fakeOverrides map[string]string

func (f fakeOverrides) Get(_ context.Context, key string) (string, error) {
	return f[key], nil
}

func analysisJSON(out interface{}) error {
	raw := `{"garmentAnalysis":"washed denim jacket","qaChecklist":"four buttons, tonal stitching","initialJsonPrompt":"a model wearing a washed denim jacket"}`
	return json.Unmarshal([]byte(raw), out)
}

func qaJSON(titles []string) func(interface{}) error {
	return func(out interface{}) error {
		entries := make([]map[string]string, len(titles))
		for i, title := range titles {
			entries[i] = map[string]string{"title": title, "prompt": "prompt for " + title}
		}
		payload := map[string]interface{}{"qaFindings": "color tone slightly warm", "prompts": entries}
		raw, _ := json.Marshal(payload)
		return json.Unmarshal(raw, out)
	}
}

func analyzedState() PipelineState {
	return PipelineState{}.
		WithGarments([]ingest.EncodedImage{encoded("QUFBQQ==")}, nil, nil).
		WithAnalysis(Analysis{GarmentAnalysis: "washed denim jacket", QAChecklist: "four buttons", InitialJSONPrompt: "prompt"}).
		WithPreview(Preview{Image: encoded("QkJCQg==")})
}

func TestAnalyzeProducesAnalysis(t *testing.T) {
	gen := &fakeJSONGenerator{fn: func(si string, parts []*genai.Part, out interface{}) error {
		if !strings.Contains(si, "fashion product analyst") {
			t.Error("expected built-in analysis instruction")
		}
		return analysisJSON(out)
	}}
	svc := NewService(gen, fakeOverrides{})

	state := PipelineState{}.WithGarments([]ingest.EncodedImage{encoded("QUFBQQ==")}, nil, nil)

	next, err := svc.Analyze(context.Background(), state)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.Stage() != StageAnalyzed {
		t.Fatalf("stage = %s, want %s", next.Stage(), StageAnalyzed)
	}
	if next.Analysis.GarmentAnalysis == "" || next.Analysis.QAChecklist == "" || next.Analysis.InitialJSONPrompt == "" {
		t.Fatalf("incomplete analysis: %+v", next.Analysis)
	}
}

func TestAnalyzeRejectsGarmentCount(t *testing.T) {
	svc := NewService(&fakeJSONGenerator{}, fakeOverrides{})

	if _, err := svc.Analyze(context.Background(), PipelineState{}); err == nil {
		t.Fatal("expected error for zero garments")
	}

	three := PipelineState{}.WithGarments([]ingest.EncodedImage{
		encoded("QQ=="), encoded("Qg=="), encoded("Qw=="),
	}, nil, nil)
	if _, err := svc.Analyze(context.Background(), three); err == nil {
		t.Fatal("expected error for three garments")
	}
}

func TestAnalyzeRejectsIncompleteResponse(t *testing.T) {
	gen := &fakeJSONGenerator{fn: func(_ string, _ []*genai.Part, out interface{}) error {
		return json.Unmarshal([]byte(`{"garmentAnalysis":"x","qaChecklist":"","initialJsonPrompt":"y"}`), out)
	}}
	svc := NewService(gen, fakeOverrides{})

	state := PipelineState{}.WithGarments([]ingest.EncodedImage{encoded("QUFBQQ==")}, nil, nil)

	next, err := svc.Analyze(context.Background(), state)
	if err == nil {
		t.Fatal("expected error for missing checklist field")
	}
	if next.Analysis != nil {
		t.Fatal("failed analysis must not leave a partial artifact")
	}
}

func TestAnalyzeUsesInstructionOverride(t *testing.T) {
	gen := &fakeJSONGenerator{fn: func(si string, _ []*genai.Part, out interface{}) error {
		if si != "custom analysis instruction" {
			t.Errorf("instruction = %q, want the override", si)
		}
		return analysisJSON(out)
	}}
	svc := NewService(gen, fakeOverrides{overrides.KeyAnalysis: "custom analysis instruction"})

	state := PipelineState{}.WithGarments([]ingest.EncodedImage{encoded("QUFBQQ==")}, nil, nil)
	if _, err := svc.Analyze(context.Background(), state); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunQASendsGarmentsAsGroundTruth(t *testing.T) {
	gen := &fakeJSONGenerator{fn: func(si string, parts []*genai.Part, out interface{}) error {
		// garment images first, preview second to last, text part last
		if len(parts) != 3 {
			t.Fatalf("parts = %d, want 3 (garment, preview, text)", len(parts))
		}
		if parts[0].InlineData == nil || parts[1].InlineData == nil {
			t.Fatal("garment and preview must be inline images")
		}
		if parts[2].Text == "" || !strings.Contains(parts[2].Text, "ground truth") {
			t.Error("text part must frame the originals as ground truth")
		}
		if !strings.Contains(parts[2].Text, "washed denim jacket") {
			t.Error("prior analysis must accompany the QA request")
		}
		return qaJSON(QATitles())(out)
	}}
	svc := NewService(gen, fakeOverrides{})

	next, err := svc.RunQA(context.Background(), analyzedState())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.Stage() != StageQAComplete {
		t.Fatalf("stage = %s, want %s", next.Stage(), StageQAComplete)
	}
	if len(next.QA.Prompts) != 8 {
		t.Fatalf("prompts = %d, want 8", len(next.QA.Prompts))
	}
}

func TestRunQAStrictTitleValidation(t *testing.T) {
	cases := []struct {
		name   string
		titles []string
	}{
		{"seven prompts", QATitles()[:7]},
		{"duplicate title", append(append([]string{}, QATitles()[:7]...), QATitles()[0])},
		{"unexpected title", append(append([]string{}, QATitles()[:7]...), "Studio Prompt - Profile View")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gen := &fakeJSONGenerator{fn: func(_ string, _ []*genai.Part, out interface{}) error {
				return qaJSON(tc.titles)(out)
			}}
			svc := NewService(gen, fakeOverrides{})

			next, err := svc.RunQA(context.Background(), analyzedState())
			if err == nil {
				t.Fatal("expected strict validation error")
			}
			if next.QA != nil {
				t.Fatal("failed QA must not leave a partial artifact")
			}
		})
	}
}

func pngEncoded(t *testing.T) ingest.EncodedImage {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return ingest.EncodedImage{
		Data:     base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType: "image/png",
	}
}

func TestAnalyzeAppendsGarmentGridAfterReferences(t *testing.T) {
	gen := &fakeJSONGenerator{fn: func(_ string, parts []*genai.Part, out interface{}) error {
		// two garments, one background ref, the grid, then the framing text
		if len(parts) != 5 {
			t.Fatalf("parts = %d, want 5", len(parts))
		}
		if parts[3].InlineData == nil {
			t.Fatal("grid must follow the reference images as an inline image")
		}
		text := parts[4].Text
		if !strings.Contains(text, "combined grid view") {
			t.Errorf("framing text must mention the grid: %q", text)
		}
		if !strings.Contains(text, "The first 2 image(s) are the garment product images") {
			t.Errorf("framing text must count the garments: %q", text)
		}
		return analysisJSON(out)
	}}
	svc := NewService(gen, fakeOverrides{})

	state := PipelineState{}.WithGarments(
		[]ingest.EncodedImage{pngEncoded(t), pngEncoded(t)},
		[]ingest.EncodedImage{encoded("QkJCQg==")},
		nil,
	)

	if _, err := svc.Analyze(context.Background(), state); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunQARejectsMalformedPreviewImage(t *testing.T) {
	svc := NewService(&fakeJSONGenerator{fn: func(_ string, _ []*genai.Part, _ interface{}) error {
		t.Fatal("generator must not be called for undecodable input")
		return nil
	}}, fakeOverrides{})

	state := analyzedState().WithPreview(Preview{Image: ingest.EncodedImage{Data: "%%%not-base64%%%", MimeType: "image/png"}})

	next, err := svc.RunQA(context.Background(), state)
	if err == nil || !strings.Contains(err.Error(), "preview image could not be decoded") {
		t.Fatalf("expected preview decode error, got %v", err)
	}
	if next.QA != nil {
		t.Fatal("failed QA must not leave a partial artifact")
	}
}

func TestRunQARequiresAnalysisAndPreview(t *testing.T) {
	svc := NewService(&fakeJSONGenerator{}, fakeOverrides{})

	state := PipelineState{}.WithGarments([]ingest.EncodedImage{encoded("QUFBQQ==")}, nil, nil)
	if _, err := svc.RunQA(context.Background(), state); err == nil {
		t.Fatal("expected error when analysis and preview are missing")
	}
}
