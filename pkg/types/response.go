package types

// SuccessEnvelope wraps every successful response body.
type SuccessEnvelope struct {
	Success    bool   `json:"success"`
	Data       any    `json:"data"`
	Count      *int   `json:"count,omitempty"`
	NextCursor string `json:"next_cursor,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope carries both the flat message older clients read and the
// structured code newer clients branch on.
type ErrorEnvelope struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Error   APIError `json:"error"`
}
