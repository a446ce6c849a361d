package dto

// PromptRequest is the body of POST /api/prompt. Prompt is a pointer so a
// missing field can be told apart from an empty one.
type PromptRequest struct {
	Prompt *string `json:"prompt"`
}

// MessageResponse is the single-line answer envelope used by every
// endpoint, success and failure alike.
type MessageResponse struct {
	Message string `json:"message"`
}
