package model

// APIResponse - shared response envelope for all HTTP handlers
type APIResponse struct {
	Success      bool        `json:"success"`
	Data         interface{} `json:"data,omitempty"`
	ErrorMessage string      `json:"errorMessage,omitempty"`
	ErrorCode    string      `json:"errorCode,omitempty"`
}

// Error codes
const (
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
	ErrCodeInvalidMode      = "INVALID_MODE"
	ErrCodeFilesRejected    = "FILES_REJECTED"
	ErrCodeGenerationFailed = "GENERATION_FAILED"
	ErrCodePipelineState    = "PIPELINE_STATE"
	ErrCodeBridgeError      = "BRIDGE_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// Job statuses
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Ok - success envelope
func Ok(data interface{}) APIResponse {
	return APIResponse{Success: true, Data: data}
}

// Fail - error envelope
func Fail(code, message string) APIResponse {
	return APIResponse{Success: false, ErrorCode: code, ErrorMessage: message}
}
