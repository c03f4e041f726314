package handlers

const (
	HeaderRequestID = "X-Request-Id"
	HeaderTimezone  = "X-Timezone"

	ErrInvalidJSON  = "invalid JSON body"
	ErrInvalidID    = "invalid id"
	ErrUnauthorized = "authentication required"

	// maxBodyBytes bounds every JSON request body
	maxBodyBytes = 1 << 20
)
