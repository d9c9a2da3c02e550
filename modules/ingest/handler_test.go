package ingest

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
)

func pngDataURL(data []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
}

func TestHandleValidateSurfacesUnreadableFiles(t *testing.T) {
	handler := NewHandler()

	body, err := json.Marshal(ValidateRequest{
		Mode: "image-batch",
		Files: []FilePayload{
			{Name: "good.png", DataURL: pngDataURL([]byte{0xAB, 0xCD, 0xEF})},
			{Name: "broken.png", DataURL: "data:image/png;base64,%%%not-base64%%%"},
		},
	})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	req := httptest.NewRequest("POST", "/api/ingest/validate", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.HandleValidate(rec, req)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Accepted []AcceptedFile `json:"accepted"`
			Message  string         `json:"message"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if !resp.Success {
		t.Fatal("expected success envelope with a warning message")
	}
	if len(resp.Data.Accepted) != 1 || resp.Data.Accepted[0].Name != "good.png" {
		t.Fatalf("accepted = %+v, want only good.png", resp.Data.Accepted)
	}
	if !strings.Contains(resp.Data.Message, "broken.png (unreadable file data)") {
		t.Fatalf("message must name the unreadable file: %q", resp.Data.Message)
	}
	if !strings.Contains(resp.Data.Message, "Some files were not added:") {
		t.Fatalf("message missing preamble: %q", resp.Data.Message)
	}
}

func TestHandleValidateMergesUnreadableWithOtherRejections(t *testing.T) {
	handler := NewHandler()

	body, err := json.Marshal(ValidateRequest{
		Mode: "image-batch",
		Files: []FilePayload{
			{Name: "broken.png", DataURL: "not a data url"},
			{Name: "doc.pdf", DataURL: "data:application/pdf;base64," + base64.StdEncoding.EncodeToString([]byte{0x01})},
		},
	})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	req := httptest.NewRequest("POST", "/api/ingest/validate", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.HandleValidate(rec, req)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Accepted []AcceptedFile `json:"accepted"`
			Message  string         `json:"message"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if len(resp.Data.Accepted) != 0 {
		t.Fatalf("accepted = %+v, want none", resp.Data.Accepted)
	}
	if !strings.Contains(resp.Data.Message, "broken.png (unreadable file data)") {
		t.Errorf("message missing unreadable rejection: %q", resp.Data.Message)
	}
	if !strings.Contains(resp.Data.Message, "doc.pdf (invalid type, not an image)") {
		t.Errorf("message missing type rejection: %q", resp.Data.Message)
	}
}
