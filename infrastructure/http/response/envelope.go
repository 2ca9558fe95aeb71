package response

import (
	"encoding/json"
	"net/http"
	"strconv"

	apperr "github.com/medrec/hpquestion/pkg/error"
)

// Envelope is the body of every response. Status mirrors the HTTP status
// code as a string.
type Envelope struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

const MessageSuccess = "success"

func WriteJSON(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)

	envelope := Envelope{
		Status:  strconv.Itoa(statusCode),
		Message: message,
		Data:    data,
	}

	json.NewEncoder(w).Encode(envelope)
}

// Success writes a payload.
func Success(w http.ResponseWriter, statusCode int, data interface{}) {
	WriteJSON(w, statusCode, "", data)
}

// Message writes a payload-less response.
func Message(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, message, nil)
}

func Error(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, message, nil)
}

func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message)
}

func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, message)
}

func TooManyRequests(w http.ResponseWriter, message string) {
	Error(w, http.StatusTooManyRequests, message)
}

func InternalServerError(w http.ResponseWriter, message string) {
	Error(w, http.StatusInternalServerError, message)
}

// AppError writes err using its status and message.
func AppError(w http.ResponseWriter, err *apperr.AppError) {
	Error(w, err.Status, err.Message)
}
