package worker

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"

	"prompt-forge-server/modules/common/model"
	"prompt-forge-server/modules/replicate"
)

// EnqueueHandler - image-generation job submission and status endpoints
type EnqueueHandler struct {
	store *Store
}

// NewEnqueueHandler - create the handler over an existing Redis connection
func NewEnqueueHandler(rdb *redis.Client) *EnqueueHandler {
	if rdb == nil {
		log.Println("⚠️ [Enqueue] No Redis connection available")
		return nil
	}

	log.Println("✅ [Enqueue] Handler initialized")
	return &EnqueueHandler{store: NewStore(rdb)}
}

// RegisterRoutes - attach job routes
func (h *EnqueueHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/images/generate", h.HandleEnqueue).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/images/jobs/{id}", h.HandleStatus).Methods("GET", "OPTIONS")
	log.Println("✅ Image job routes registered: /api/images/generate, /api/images/jobs/{id}")
}

// EnqueueRequest - job submission body
type EnqueueRequest struct {
	SessionID       string `json:"sessionId"`
	PromptItemID    string `json:"promptItemId"`
	PromptText      string `json:"promptText"`
	AspectRatio     string `json:"aspectRatio"`
	ReferenceImage1 string `json:"referenceImage1"`
	ReferenceImage2 string `json:"referenceImage2"`
}

// EnqueueResponse - job submission result
type EnqueueResponse struct {
	JobID         string `json:"jobId"`
	Status        string `json:"status"`
	QueuePosition int64  `json:"queuePosition"`
}

// HandleEnqueue - POST /api/images/generate
// Validates the model contract before anything is queued: both reference
// images are required.
func (h *EnqueueHandler) HandleEnqueue(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req EnqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ [Enqueue] Invalid request: %v", err)
		json.NewEncoder(w).Encode(model.Fail(model.ErrCodeInvalidRequest, "Invalid request format"))
		return
	}

	if req.PromptText == "" {
		json.NewEncoder(w).Encode(model.Fail(model.ErrCodeInvalidRequest, "promptText is required"))
		return
	}
	if req.ReferenceImage1 == "" || req.ReferenceImage2 == "" {
		json.NewEncoder(w).Encode(model.Fail(model.ErrCodeInvalidRequest,
			"This model requires both input images. Please select two reference images before generating."))
		return
	}

	aspectRatio := req.AspectRatio
	if aspectRatio == "" {
		aspectRatio = "1:1"
	}

	job := ImageJob{
		ID:           uuid.New().String(),
		SessionID:    req.SessionID,
		PromptItemID: req.PromptItemID,
		Status:       model.StatusPending,
		Job: replicate.Job{
			PromptText:      req.PromptText,
			AspectRatio:     aspectRatio,
			ReferenceImage1: req.ReferenceImage1,
			ReferenceImage2: req.ReferenceImage2,
		},
		CreatedAt: time.Now(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.store.Save(ctx, job); err != nil {
		log.Printf("❌ [Enqueue] Failed to store job: %v", err)
		json.NewEncoder(w).Encode(model.Fail(model.ErrCodeInternalError, "Failed to store job"))
		return
	}

	position, err := h.store.Enqueue(ctx, job.ID)
	if err != nil {
		log.Printf("❌ [Enqueue] Failed to enqueue job: %v", err)
		json.NewEncoder(w).Encode(model.Fail(model.ErrCodeInternalError, "Failed to enqueue job"))
		return
	}

	log.Printf("✅ [Enqueue] Job %s enqueued (position: %d)", job.ID, position)

	json.NewEncoder(w).Encode(model.Ok(EnqueueResponse{
		JobID:         job.ID,
		Status:        job.Status,
		QueuePosition: position,
	}))
}

// HandleStatus - GET /api/images/jobs/{id}
func (h *EnqueueHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	jobID := mux.Vars(r)["id"]

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	job, err := h.store.Load(ctx, jobID)
	if err != nil {
		log.Printf("❌ [Enqueue] Failed to load job %s: %v", jobID, err)
		json.NewEncoder(w).Encode(model.Fail(model.ErrCodeInternalError, "Failed to load job"))
		return
	}
	if job == nil {
		json.NewEncoder(w).Encode(model.Fail(model.ErrCodeNotFound, "Job not found"))
		return
	}

	json.NewEncoder(w).Encode(model.Ok(job))
}
