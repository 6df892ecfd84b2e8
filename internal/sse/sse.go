// Package sse streams query progress to an HTTP client as Server-Sent
// Events, used by cmd/serve.go's streaming k-best endpoint.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Stage names one phase of a streamed k-best query.
type Stage string

const (
	StageTraversal     Stage = "traversal"
	StageInterCluster  Stage = "inter_cluster"
	StageIntraCluster  Stage = "intra_cluster"
)

// ProgressEvent reports how far a streamed query has gotten.
type ProgressEvent struct {
	Stage   Stage `json:"stage"`
	Length  int   `json:"length,omitempty"`
	Visited int   `json:"visited"`
	Total   int   `json:"total"`
}

// Writer emits progress/complete/error events over an http.ResponseWriter
// that supports flushing, one JSON payload per event.
type Writer struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewWriter prepares w for SSE streaming, setting the required headers.
// Returns an error if w does not support flushing mid-response.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("sse: response writer does not support flushing")
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	return &Writer{w: w, flusher: flusher}, nil
}

// Progress emits a "progress" event carrying ev.
func (sw *Writer) Progress(ev ProgressEvent) error {
	return sw.emit("progress", ev)
}

// Complete emits a "complete" event carrying the final payload.
func (sw *Writer) Complete(payload interface{}) error {
	return sw.emit("complete", payload)
}

// Error emits an "error" event carrying the error's message.
func (sw *Writer) Error(err error) error {
	return sw.emit("error", map[string]string{"message": err.Error()})
}

func (sw *Writer) emit(event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("sse: marshal %s event: %w", event, err)
	}
	if _, err := fmt.Fprintf(sw.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return fmt.Errorf("sse: write %s event: %w", event, err)
	}
	sw.flusher.Flush()
	return nil
}
