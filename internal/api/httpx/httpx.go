package httpx

import (
	"encoding/json"
	"net/http"
)

const (
	CodeBadRequest          = "bad_request"
	CodeInvalidAmount       = "invalid_amount"
	CodeAmountTooLarge      = "amount_too_large"
	CodeInsufficientBalance = "insufficient_balance"
	CodeInternal            = "internal_error"
)

type APIError struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, code, msg string, details any) {
	WriteJSON(w, status, APIError{
		Error:   msg,
		Code:    code,
		Details: details,
	})
}
