package promptgen

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"prompt-forge-server/modules/common/model"
	"prompt-forge-server/modules/ingest"
	"prompt-forge-server/modules/mode"
)

// Handler - prompt generation and refinement endpoints
type Handler struct {
	service *Service
}

// NewHandler - create the promptgen handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes - attach promptgen routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/prompts/generate", h.HandleGenerate).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/prompts/refine", h.HandleRefine).Methods("POST", "OPTIONS")
}

// GenerateRequest - one generation call for the active mode
type GenerateRequest struct {
	Mode        string               `json:"mode"`
	Files       []ingest.FilePayload `json:"files"`
	TextConcept string               `json:"textConcept"`
}

// GenerateResponse - the resulting prompt item set
type GenerateResponse struct {
	Items []PromptItem `json:"items"`
}

// HandleGenerate - POST /api/prompts/generate
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	if h.service == nil {
		log.Println("❌ [PromptGen] Service not initialized")
		json.NewEncoder(w).Encode(model.Fail(model.ErrCodeInternalError, "Service unavailable"))
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ [PromptGen] Invalid request: %v", err)
		json.NewEncoder(w).Encode(model.Fail(model.ErrCodeInvalidRequest, "Invalid request format"))
		return
	}

	m, err := mode.Parse(req.Mode)
	if err != nil {
		json.NewEncoder(w).Encode(model.Fail(model.ErrCodeInvalidMode, err.Error()))
		return
	}

	files, unreadable := ingest.DecodePayloads(req.Files)
	if len(unreadable) > 0 {
		json.NewEncoder(w).Encode(model.Fail(model.ErrCodeInvalidRequest, "One or more files could not be read"))
		return
	}

	log.Printf("🎨 [PromptGen] Generate: mode=%s files=%d textLen=%d", m, len(files), len(req.TextConcept))

	items, err := h.service.Generate(r.Context(), m, GenerateInput{
		Files:       files,
		TextConcept: req.TextConcept,
	})
	if err != nil {
		log.Printf("❌ [PromptGen] Generation failed: %v", err)
		json.NewEncoder(w).Encode(model.Fail(model.ErrCodeGenerationFailed, err.Error()))
		return
	}

	log.Printf("✅ [PromptGen] Generate complete: %d items", len(items))
	json.NewEncoder(w).Encode(model.Ok(GenerateResponse{Items: items}))
}

// RefineRequest - re-issue previously generated items with suggestions
type RefineRequest struct {
	Items       []PromptItem `json:"items"`
	Suggestions string       `json:"suggestions"`
}

// HandleRefine - POST /api/prompts/refine
func (h *Handler) HandleRefine(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	if h.service == nil {
		log.Println("❌ [PromptGen] Service not initialized")
		json.NewEncoder(w).Encode(model.Fail(model.ErrCodeInternalError, "Service unavailable"))
		return
	}

	var req RefineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ [PromptGen] Invalid refine request: %v", err)
		json.NewEncoder(w).Encode(model.Fail(model.ErrCodeInvalidRequest, "Invalid request format"))
		return
	}

	if strings.TrimSpace(req.Suggestions) == "" {
		json.NewEncoder(w).Encode(model.Fail(model.ErrCodeInvalidRequest, "Please enter suggestions to refine the prompt(s)"))
		return
	}
	if len(req.Items) == 0 {
		json.NewEncoder(w).Encode(model.Fail(model.ErrCodeInvalidRequest, "There are no generated prompts to refine"))
		return
	}

	log.Printf("🔄 [PromptGen] Refine: %d items", len(req.Items))

	items, err := h.service.Refine(r.Context(), req.Items, req.Suggestions)
	if err != nil {
		log.Printf("❌ [PromptGen] Refinement failed: %v", err)
		json.NewEncoder(w).Encode(model.Fail(model.ErrCodeGenerationFailed, err.Error()))
		return
	}

	json.NewEncoder(w).Encode(model.Ok(GenerateResponse{Items: items}))
}
