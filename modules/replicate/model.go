package replicate

import "encoding/json"

// Prediction statuses
const (
	StatusStarting   = "starting"
	StatusProcessing = "processing"
	StatusSucceeded  = "succeeded"
	StatusFailed     = "failed"
	StatusCanceled   = "canceled"
)

// Job - one image-generation request
// The model contract requires both reference images; images are passed as
// data URLs or public URLs.
type Job struct {
	PromptText      string `json:"promptText"`
	AspectRatio     string `json:"aspectRatio"`
	ReferenceImage1 string `json:"referenceImage1"`
	ReferenceImage2 string `json:"referenceImage2"`
}

// PredictionInput - the model's input block on the wire
type PredictionInput struct {
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspect_ratio"`
	InputImage1 string `json:"input_image_1"`
	InputImage2 string `json:"input_image_2"`
}

// createPredictionRequest - submit body
type createPredictionRequest struct {
	Version string          `json:"version"`
	Input   PredictionInput `json:"input"`
}

// Prediction - job descriptor returned by submit and poll calls
// Output shape varies by model, so it stays raw until extraction.
type Prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Error  json.RawMessage `json:"error"`
	Output json.RawMessage `json:"output"`
	URLs   struct {
		Get    string `json:"get"`
		Cancel string `json:"cancel"`
	} `json:"urls"`
}
