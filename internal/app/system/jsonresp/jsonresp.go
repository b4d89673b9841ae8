// Package jsonresp writes the API's JSON envelope:
//
//	{ "success": true|false, "message": "...", ...payload }
package jsonresp

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// M is a response payload. Its keys are merged into the envelope.
type M map[string]any

// MaxBodyBytes bounds JSON request bodies.
const MaxBodyBytes = 1 << 20

// Write sends payload with status. "success" is derived from status and a
// non-empty message is included.
func Write(w http.ResponseWriter, status int, message string, payload M) {
	body := make(M, len(payload)+2)
	for k, v := range payload {
		body[k] = v
	}
	body["success"] = status >= 200 && status < 300
	if message != "" {
		body["message"] = message
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// OK writes a 200 with payload.
func OK(w http.ResponseWriter, payload M) {
	Write(w, http.StatusOK, "", payload)
}

// Created writes a 201 with message and payload.
func Created(w http.ResponseWriter, message string, payload M) {
	Write(w, http.StatusCreated, message, payload)
}

// Message writes a 200 carrying only a message.
func Message(w http.ResponseWriter, message string) {
	Write(w, http.StatusOK, message, nil)
}

// Fail writes an error envelope.
func Fail(w http.ResponseWriter, status int, message string) {
	Write(w, status, message, nil)
}

// ErrEmptyBody is returned by Decode when the request has no body.
var ErrEmptyBody = errors.New("request body is empty")

// Decode reads a JSON body into dst, bounded by MaxBodyBytes.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}
