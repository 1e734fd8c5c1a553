package v1

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tzhao11/lectern/internal/domain"
)

// ProcessLectureRequest is the body for POST /v1/lectures/process.
type ProcessLectureRequest struct {
	URL   string `json:"url"`
	Force bool   `json:"force"`
}

// ProcessLecture runs the pipeline in batch mode and returns the full record.
// POST /v1/lectures/process
func (h *Handler) ProcessLecture(c echo.Context) error {
	var req ProcessLectureRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.URL == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "url is required"})
	}

	res, err := h.service.Process(c.Request().Context(), req.URL, req.Force)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// StreamLecture runs the pipeline and streams progress as server-sent events.
// GET /v1/lectures/stream?url=...&force=true
func (h *Handler) StreamLecture(c echo.Context) error {
	sourceURL := c.QueryParam("url")
	if sourceURL == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "url is required"})
	}
	force := c.QueryParam("force") == "true"

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	sink := &sseSink{response: w}

	// The request context is cancelled when the client disconnects, which
	// stops the producer before its next emission.
	_ = h.service.ProcessStream(c.Request().Context(), sourceURL, force, sink)
	return nil
}

// sseSink writes stream events onto an SSE response, flushing after each
// message. Error events additionally carry the SSE event name so
// EventSource clients can attach a dedicated listener.
type sseSink struct {
	response *echo.Response
}

func (s *sseSink) Send(ev domain.StreamEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	if ev.Type == domain.EventError {
		if _, err := fmt.Fprintf(s.response, "event: error\ndata: %s\n\n", data); err != nil {
			return err
		}
	} else {
		if _, err := fmt.Fprintf(s.response, "data: %s\n\n", data); err != nil {
			return err
		}
	}
	s.response.Flush()
	return nil
}
