package fashion

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"prompt-forge-server/modules/common/model"
	"prompt-forge-server/modules/common/overrides"
	"prompt-forge-server/modules/ingest"
)

// Handler - fashion pipeline endpoints
// The pipeline state is owned by the client and sent with each stage call;
// the server validates transitions and produces the next state value.
type Handler struct {
	service *Service
	store   *overrides.Store
}

// NewHandler - create the fashion handler
func NewHandler(service *Service, store *overrides.Store) *Handler {
	return &Handler{service: service, store: store}
}

// RegisterRoutes - attach fashion routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/fashion/analyze", h.HandleAnalyze).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/fashion/preview", h.HandlePreview).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/fashion/qa", h.HandleQA).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/fashion/instructions/{kind}", h.HandleInstructions).Methods("GET", "PUT", "OPTIONS")
}

func setCORS(w http.ResponseWriter, methods string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", methods)
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
}

// AnalyzeRequest - garment submission for the analysis stage
type AnalyzeRequest struct {
	Garments       []ingest.FilePayload `json:"garments"`
	BackgroundRefs []ingest.FilePayload `json:"backgroundRefs"`
	ModelRefs      []ingest.FilePayload `json:"modelRefs"`
}

// HandleAnalyze - POST /api/fashion/analyze
// Replaces the garment slot, which clears every downstream artifact, then
// runs the analysis stage.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	setCORS(w, "POST, OPTIONS")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	if h.service == nil {
		log.Println("❌ [Fashion] Service not initialized")
		json.NewEncoder(w).Encode(model.Fail(model.ErrCodeInternalError, "Service unavailable"))
		return
	}

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ [Fashion] Invalid analyze request: %v", err)
		json.NewEncoder(w).Encode(model.Fail(model.ErrCodeInvalidRequest, "Invalid request format"))
		return
	}

	garments, rejected := decodeSlot(req.Garments, MaxGarments)
	if len(rejected) > 0 {
		json.NewEncoder(w).Encode(model.Fail(model.ErrCodeFilesRejected, rejected))
		return
	}
	if len(garments) < MinGarments {
		json.NewEncoder(w).Encode(model.Fail(model.ErrCodeInvalidRequest, "At least one garment image is required"))
		return
	}

	backgroundRefs, _ := decodeSlot(req.BackgroundRefs, 4)
	modelRefs, _ := decodeSlot(req.ModelRefs, 4)

	state := PipelineState{}.WithGarments(garments, backgroundRefs, modelRefs)

	log.Printf("👗 [Fashion] Analyze: %d garments, %d bg refs, %d model refs",
		len(garments), len(backgroundRefs), len(modelRefs))

	next, err := h.service.Analyze(r.Context(), state)
	if err != nil {
		log.Printf("❌ [Fashion] Analysis failed: %v", err)
		json.NewEncoder(w).Encode(model.Fail(model.ErrCodeGenerationFailed, err.Error()))
		return
	}

	json.NewEncoder(w).Encode(model.Ok(next))
}

// PreviewRequest - attach a preview image to an analyzed pipeline
type PreviewRequest struct {
	State   PipelineState      `json:"state"`
	Preview ingest.FilePayload `json:"preview"`
	URL     string             `json:"url"`
}

// HandlePreview - POST /api/fashion/preview
// Accepts either a user-uploaded image or one fetched from a generation
// job; both paths set the same preview state and clear any QA result.
func (h *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	setCORS(w, "POST, OPTIONS")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ [Fashion] Invalid preview request: %v", err)
		json.NewEncoder(w).Encode(model.Fail(model.ErrCodeInvalidRequest, "Invalid request format"))
		return
	}

	if req.State.Analysis == nil {
		json.NewEncoder(w).Encode(model.Fail(model.ErrCodePipelineState, "A completed analysis is required before attaching a preview"))
		return
	}

	files, rejected := ingest.DecodePayloads([]ingest.FilePayload{req.Preview})
	if len(rejected) > 0 || len(files) == 0 {
		json.NewEncoder(w).Encode(model.Fail(model.ErrCodeInvalidRequest, "Preview image could not be read"))
		return
	}

	next := req.State.WithPreview(Preview{Image: ingest.Encode(files[0]), URL: req.URL})
	json.NewEncoder(w).Encode(model.Ok(next))
}

// QARequest - run the QA stage on the submitted pipeline state
type QARequest struct {
	State PipelineState `json:"state"`
}

// HandleQA - POST /api/fashion/qa
func (h *Handler) HandleQA(w http.ResponseWriter, r *http.Request) {
	setCORS(w, "POST, OPTIONS")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	if h.service == nil {
		log.Println("❌ [Fashion] Service not initialized")
		json.NewEncoder(w).Encode(model.Fail(model.ErrCodeInternalError, "Service unavailable"))
		return
	}

	var req QARequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ [Fashion] Invalid QA request: %v", err)
		json.NewEncoder(w).Encode(model.Fail(model.ErrCodeInvalidRequest, "Invalid request format"))
		return
	}

	if !req.State.CanRunQA() {
		json.NewEncoder(w).Encode(model.Fail(model.ErrCodePipelineState, "QA requires both a completed analysis and a preview image"))
		return
	}

	log.Printf("🔍 [Fashion] QA: %d garments, stage=%s", len(req.State.Garments), req.State.Stage())

	next, err := h.service.RunQA(r.Context(), req.State)
	if err != nil {
		log.Printf("❌ [Fashion] QA failed: %v", err)
		json.NewEncoder(w).Encode(model.Fail(model.ErrCodeGenerationFailed, err.Error()))
		return
	}

	json.NewEncoder(w).Encode(model.Ok(next))
}

// InstructionPayload - override body on the wire
type InstructionPayload struct {
	Instruction string `json:"instruction"`
}

// HandleInstructions - GET/PUT /api/fashion/instructions/{kind}
// kind is "analysis" or "qa". An empty PUT clears the override.
func (h *Handler) HandleInstructions(w http.ResponseWriter, r *http.Request) {
	setCORS(w, "GET, PUT, OPTIONS")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	if h.store == nil {
		json.NewEncoder(w).Encode(model.Fail(model.ErrCodeInternalError, "Override store unavailable"))
		return
	}

	var key string
	switch mux.Vars(r)["kind"] {
	case "analysis":
		key = overrides.KeyAnalysis
	case "qa":
		key = overrides.KeyQA
	default:
		json.NewEncoder(w).Encode(model.Fail(model.ErrCodeNotFound, "Unknown instruction kind"))
		return
	}

	switch r.Method {
	case "GET":
		value, err := h.store.Get(r.Context(), key)
		if err != nil {
			json.NewEncoder(w).Encode(model.Fail(model.ErrCodeInternalError, err.Error()))
			return
		}
		json.NewEncoder(w).Encode(model.Ok(InstructionPayload{Instruction: value}))

	case "PUT":
		var payload InstructionPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			json.NewEncoder(w).Encode(model.Fail(model.ErrCodeInvalidRequest, "Invalid request format"))
			return
		}
		if err := h.store.Set(r.Context(), key, payload.Instruction); err != nil {
			json.NewEncoder(w).Encode(model.Fail(model.ErrCodeInternalError, err.Error()))
			return
		}
		log.Printf("📝 [Fashion] Instruction override updated: %s (%d chars)", key, len(payload.Instruction))
		json.NewEncoder(w).Encode(model.Ok(InstructionPayload{Instruction: payload.Instruction}))
	}
}

// decodeSlot - decode and validate one file slot
func decodeSlot(payloads []ingest.FilePayload, maxFiles int) ([]ingest.EncodedImage, string) {
	files, unreadable := ingest.DecodePayloads(payloads)

	result := ingest.Process(nil, files, ingest.Policy{MaxFiles: maxFiles})
	if len(unreadable) > 0 {
		return nil, "One or more files could not be read"
	}
	if result.Message != "" {
		return nil, result.Message
	}

	return ingest.EncodeAll(result.Accepted), ""
}
