package ingest

import (
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"prompt-forge-server/modules/common/model"
	"prompt-forge-server/modules/common/utils"
	"prompt-forge-server/modules/mode"
)

// Handler - file validation and preview endpoints
type Handler struct{}

// NewHandler - create the ingest handler
func NewHandler() *Handler {
	return &Handler{}
}

// RegisterRoutes - attach ingest routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/ingest/validate", h.HandleValidate).Methods("POST", "OPTIONS")
}

// FilePayload - one uploaded file on the wire
type FilePayload struct {
	Name         string `json:"name"`
	DataURL      string `json:"dataUrl"`
	LastModified int64  `json:"lastModified"`
}

// ValidateRequest - one ingestion batch for a mode's slot
type ValidateRequest struct {
	Mode     string        `json:"mode"`
	Existing []FilePayload `json:"existing"`
	Files    []FilePayload `json:"files"`
}

// AcceptedFile - accepted entry with its preview thumbnail
type AcceptedFile struct {
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Preview  string `json:"preview,omitempty"`
}

// ValidateResponse - validation outcome for the batch
type ValidateResponse struct {
	Accepted  []AcceptedFile `json:"accepted"`
	Message   string         `json:"message,omitempty"`
	CanSubmit bool           `json:"canSubmit"`
}

// HandleValidate - POST /api/ingest/validate
// Validates an upload batch against the active mode's slot rules and
// returns the slot contents with WebP preview thumbnails.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ [Ingest] Invalid request: %v", err)
		json.NewEncoder(w).Encode(model.Fail(model.ErrCodeInvalidRequest, "Invalid request format"))
		return
	}

	m, err := mode.Parse(req.Mode)
	if err != nil {
		json.NewEncoder(w).Encode(model.Fail(model.ErrCodeInvalidMode, err.Error()))
		return
	}
	constraints, _ := mode.Get(m)

	if constraints.AcceptsText {
		json.NewEncoder(w).Encode(model.Fail(model.ErrCodeInvalidMode, "Mode does not accept file uploads"))
		return
	}

	existing, _ := DecodePayloads(req.Existing)
	incoming, unreadable := DecodePayloads(req.Files)

	result := Process(existing, incoming, Policy{
		MaxFiles: constraints.MaxFiles,
		Append:   constraints.AppendOnIngest,
	})
	if len(unreadable) > 0 {
		result.Rejected = append(unreadable, result.Rejected...)
		result.Message = RejectionMessage(result.Rejected, constraints.MaxFiles)
	}

	log.Printf("📥 [Ingest] mode=%s incoming=%d accepted=%d rejected=%d",
		m, len(req.Files), len(result.Accepted), len(result.Rejected))

	resp := ValidateResponse{
		Accepted:  make([]AcceptedFile, 0, len(result.Accepted)),
		Message:   result.Message,
		CanSubmit: mode.CanSubmit(m, len(result.Accepted), ""),
	}
	for _, f := range result.Accepted {
		entry := AcceptedFile{Name: f.Name, MimeType: f.MimeType}
		if preview, ok := Preview(f); ok {
			entry.Preview = preview
		}
		resp.Accepted = append(resp.Accepted, entry)
	}

	json.NewEncoder(w).Encode(model.Ok(resp))
}

// DecodePayloads - turn wire payloads into source files
// Unreadable payloads become rejections, not request failures.
func DecodePayloads(payloads []FilePayload) ([]SourceFile, []Rejection) {
	files := make([]SourceFile, 0, len(payloads))
	var rejected []Rejection

	for _, p := range payloads {
		b64, mimeType, err := utils.ParseDataURL(p.DataURL)
		if err != nil {
			rejected = append(rejected, Rejection{FileName: p.Name, Reason: "unreadable file data"})
			continue
		}
		data, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			rejected = append(rejected, Rejection{FileName: p.Name, Reason: "unreadable file data"})
			continue
		}
		files = append(files, SourceFile{
			Name:         p.Name,
			MimeType:     mimeType,
			LastModified: p.LastModified,
			Data:         data,
		})
	}

	return files, rejected
}
