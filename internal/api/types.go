package api

import (
	"fmt"
	"net/http"
)

// MessageRequest is the body of POST /send_message.
type MessageRequest struct {
	Message string `json:"message"`
}

// Replies holds the two Markdown answers for one message, one per side.
type Replies struct {
	A string `json:"resposta_a"`
	B string `json:"resposta_b"`
}

// Vote is the body of POST /evaluate.
type Vote struct {
	Winner      string `json:"winner"`
	Name        string `json:"nome"`
	Email       string `json:"email"`
	Proficiency string `json:"proficiencia"`
}

type EvaluateResponse struct {
	Status string `json:"status"`
	Winner string `json:"winner"`
}

type ResetResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Message)
}
