package response

// Resp is the standard JSON response body.
type Resp struct {
	ErrorCode int    `json:"error_code"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
	Errors    any    `json:"errors,omitempty"`
}

const (
	MessageSuccess = "success"

	InternalServerErrorCode = 500
	TooManyRequestsCode     = 429

	DefaultErrorMessage = "something went wrong, please try again later"
)
