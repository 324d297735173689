package resp

import "net/http"

type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message, "")
}

func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message, "")
}

func WriteUnsupportedMediaType(w http.ResponseWriter, message string, detail string) {
	WriteError(w, http.StatusUnsupportedMediaType, message, detail)
}

func WritePayloadTooLarge(w http.ResponseWriter, message string, detail string) {
	WriteError(w, http.StatusRequestEntityTooLarge, message, detail)
}

func WriteInternalServerError(w http.ResponseWriter, message string, detail string) {
	WriteError(w, http.StatusInternalServerError, message, detail)
}

// WriteError writes {message, error}; error is left out when detail is empty.
func WriteError(w http.ResponseWriter, status int, message string, detail string) {
	writeResp(w, status, ErrorResponse{
		Message: message,
		Error:   detail,
	})
}
