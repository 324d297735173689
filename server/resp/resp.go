package resp

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// MessageResponse is the body of every non-list response.
type MessageResponse struct {
	Message string `json:"message"`
	URL     string `json:"url,omitempty"`
}

func WriteOK(w http.ResponseWriter, object any) {
	writeResp(w, http.StatusOK, object)
}

func WriteMessage(w http.ResponseWriter, message string) {
	writeResp(w, http.StatusOK, MessageResponse{Message: message})
}

func WriteUploaded(w http.ResponseWriter, message string, url string) {
	writeResp(w, http.StatusOK, MessageResponse{Message: message, URL: url})
}

func writeResp(w http.ResponseWriter, status int, object any) {
	haveObject := object != nil

	if haveObject {
		w.Header().Set("Content-Type", "application/json")
	}

	w.WriteHeader(status)

	if haveObject {
		err := json.NewEncoder(w).Encode(object)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to write standard HTTP response: %v", err), http.StatusInternalServerError)
		}
	}
}
