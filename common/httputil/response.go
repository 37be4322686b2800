package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
)

// ErrorBody is the error envelope returned by every API endpoint.
type ErrorBody struct {
	Error ErrorMessage `json:"error"`
}

// ErrorMessage carries the human readable failure reason.
type ErrorMessage struct {
	Message string `json:"message"`
}

// WriteJSON writes data as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// WriteData wraps data in a {"data": ...} envelope.
func WriteData(w http.ResponseWriter, status int, data interface{}) {
	WriteJSON(w, status, map[string]interface{}{"data": data})
}

// WriteDataPage is WriteData with a "meta" pagination block.
func WriteDataPage(w http.ResponseWriter, status int, data interface{}, page Pagination) {
	WriteJSON(w, status, map[string]interface{}{
		"data": data,
		"meta": map[string]interface{}{"pagination": page},
	})
}

// WriteError writes {"error": {"message": message}}.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorBody{Error: ErrorMessage{Message: message}})
}

// WriteAttachment sends body as a downloadable file.
func WriteAttachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		slog.Error("failed to write attachment", slog.String("error", err.Error()))
	}
}
