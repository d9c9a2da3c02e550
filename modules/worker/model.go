package worker

import (
	"time"

	"prompt-forge-server/modules/replicate"
)

// Redis keys
const (
	QueueKey     = "imagejobs:queue"
	jobKeyPrefix = "imagejob:"
	jobTTL       = 24 * time.Hour
)

// ImageJob - one queued image-generation job and its lifecycle state
type ImageJob struct {
	ID           string        `json:"id"`
	SessionID    string        `json:"sessionId,omitempty"`
	PromptItemID string        `json:"promptItemId,omitempty"`
	Status       string        `json:"status"`
	Job          replicate.Job `json:"job"`
	ResultURL    string        `json:"resultUrl,omitempty"`
	ErrorMessage string        `json:"errorMessage,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	CompletedAt  *time.Time    `json:"completedAt,omitempty"`
}

func jobKey(id string) string {
	return jobKeyPrefix + id
}
