package server

import "net/http"

// Error codes returned in error bodies.
const (
	codeMalformedRequest = "malformed_request"
	codeInvalidParameter = "invalid_parameter"
	codeUnknownEnumValue = "unknown_enum_value"
	codeUnknownBoundary  = "unknown_boundary"
	codeInternal         = "internal"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error     errorBody `json:"error"`
	RequestID string    `json:"request_id"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, body errorBody) {
	s.writeJSON(w, r, status, ErrorResponse{
		Error:     body,
		RequestID: requestIDFromContext(r.Context()),
	})
}
