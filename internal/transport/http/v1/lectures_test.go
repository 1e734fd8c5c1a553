package v1

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tzhao11/lectern/internal/cache"
	"github.com/tzhao11/lectern/internal/config"
	"github.com/tzhao11/lectern/internal/domain"
	"github.com/tzhao11/lectern/internal/pipeline"
	"github.com/tzhao11/lectern/internal/policy"
	store "github.com/tzhao11/lectern/internal/repository"
	"github.com/tzhao11/lectern/internal/service"
)

const testURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

type stubRunner struct {
	record *domain.NoteRecord
	err    error
}

func (r *stubRunner) Run(ctx context.Context, sourceURL string, hooks *pipeline.Hooks) (*domain.NoteRecord, error) {
	if r.err != nil {
		return nil, r.err
	}
	if hooks != nil && hooks.SummaryChunk != nil {
		for _, chunk := range []string{"# Notes", "\n\nCells."} {
			if err := hooks.SummaryChunk(chunk); err != nil {
				return nil, err
			}
		}
	}
	if hooks != nil && hooks.TaskCompleted != nil {
		hooks.TaskCompleted(domain.TaskSummarize)
	}
	return r.record, nil
}

type stubStudy struct {
	set *domain.StudySet
	err error
}

func (s *stubStudy) Generate(ctx context.Context, rec *domain.NoteRecord) (*domain.StudySet, error) {
	return s.set, s.err
}

func testRecord() *domain.NoteRecord {
	return &domain.NoteRecord{
		SourceKey:  "dQw4w9WgXcQ",
		SourceURL:  testURL,
		Transcript: "the cell is the basic unit of life",
		Meta:       domain.SourceMeta{Title: "Cell Biology 101", Channel: "BioHub"},
		Notes:      "# Notes\n\nCells.",
		Concepts:   []domain.Concept{{Name: "Cell", Category: "term", Confidence: 0.9, Importance: "high"}},
		TaskTrace:  []domain.TaskName{domain.TaskFetch, domain.TaskSummarize, domain.TaskExtract},
	}
}

func newTestHandler(t *testing.T, runner *stubRunner, study *stubStudy) (*Handler, *store.SQLiteStore) {
	t.Helper()

	st, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	require.NoError(t, err)

	cfg := config.NewDefault()
	cfg.ReplayChunkDelayMs = 0
	gate := cache.NewGate(st)

	svc := service.New(st, runner, study, gate, engine, cfg, zap.NewNop())
	return NewHandler(svc), st
}

func TestProcessLecture(t *testing.T) {
	e := echo.New()
	handler, st := newTestHandler(t, &stubRunner{record: testRecord()}, &stubStudy{})

	reqBody, _ := json.Marshal(ProcessLectureRequest{URL: testURL})
	req := httptest.NewRequest(http.MethodPost, "/v1/lectures/process", bytes.NewReader(reqBody))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler.ProcessLecture(c)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp service.ProcessResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.FromCache)
	assert.Equal(t, "Cell Biology 101", resp.Record.Meta.Title)

	// The run was persisted.
	stored, err := st.FindLatest(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, resp.RecordID, stored.RecordID)
}

func TestProcessLectureSecondCallServedFromCache(t *testing.T) {
	e := echo.New()
	handler, _ := newTestHandler(t, &stubRunner{record: testRecord()}, &stubStudy{})

	run := func() *service.ProcessResult {
		reqBody, _ := json.Marshal(ProcessLectureRequest{URL: testURL})
		req := httptest.NewRequest(http.MethodPost, "/v1/lectures/process", bytes.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		require.NoError(t, handler.ProcessLecture(c))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp service.ProcessResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		return &resp
	}

	first := run()
	assert.False(t, first.FromCache)

	second := run()
	assert.True(t, second.FromCache)
	assert.Equal(t, first.RecordID, second.RecordID)
}

func TestProcessLectureMissingURL(t *testing.T) {
	e := echo.New()
	handler, _ := newTestHandler(t, &stubRunner{record: testRecord()}, &stubStudy{})

	req := httptest.NewRequest(http.MethodPost, "/v1/lectures/process", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	assert.NoError(t, handler.ProcessLecture(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProcessLectureBlockedHost(t *testing.T) {
	e := echo.New()
	handler, _ := newTestHandler(t, &stubRunner{record: testRecord()}, &stubStudy{})

	reqBody, _ := json.Marshal(ProcessLectureRequest{URL: "https://example.com/watch?v=dQw4w9WgXcQ"})
	req := httptest.NewRequest(http.MethodPost, "/v1/lectures/process", bytes.NewReader(reqBody))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	assert.NoError(t, handler.ProcessLecture(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// parseSSE extracts the streamed events from an SSE body.
func parseSSE(t *testing.T, body string) []domain.StreamEvent {
	t.Helper()
	var events []domain.StreamEvent
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev domain.StreamEvent
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
		events = append(events, ev)
	}
	return events
}

func TestStreamLecture(t *testing.T) {
	e := echo.New()
	handler, _ := newTestHandler(t, &stubRunner{record: testRecord()}, &stubStudy{})

	req := httptest.NewRequest(http.MethodGet, "/v1/lectures/stream?url="+testURL, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	assert.NoError(t, handler.StreamLecture(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get(echo.HeaderContentType))

	events := parseSSE(t, rec.Body.String())
	require.NotEmpty(t, events)
	assert.Equal(t, domain.EventComplete, events[len(events)-1].Type)

	var sawChunk, sawConcepts bool
	for _, ev := range events {
		switch ev.Type {
		case domain.EventChunk:
			sawChunk = true
		case domain.EventConcepts:
			sawConcepts = true
		}
	}
	assert.True(t, sawChunk)
	assert.True(t, sawConcepts)
}

func TestStreamLectureReplaysFromCache(t *testing.T) {
	e := echo.New()
	handler, st := newTestHandler(t, &stubRunner{record: testRecord()}, &stubStudy{})

	_, err := st.SaveRecord(context.Background(), testRecord())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/lectures/stream?url="+testURL, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	assert.NoError(t, handler.StreamLecture(c))

	events := parseSSE(t, rec.Body.String())
	require.NotEmpty(t, events)
	assert.Equal(t, domain.EventCache, events[0].Type)

	var payload domain.CachePayload
	require.NoError(t, json.Unmarshal(events[0].Data, &payload))
	assert.True(t, payload.FromCache)
}

func TestStreamLectureErrorEvent(t *testing.T) {
	e := echo.New()
	handler, _ := newTestHandler(t, &stubRunner{record: testRecord()}, &stubStudy{})

	req := httptest.NewRequest(http.MethodGet, "/v1/lectures/stream?url=https://example.com/v", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	assert.NoError(t, handler.StreamLecture(c))

	body := rec.Body.String()
	assert.Contains(t, body, "event: error")

	events := parseSSE(t, body)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventError, events[0].Type)
}

func TestStreamLectureMissingURL(t *testing.T) {
	e := echo.New()
	handler, _ := newTestHandler(t, &stubRunner{record: testRecord()}, &stubStudy{})

	req := httptest.NewRequest(http.MethodGet, "/v1/lectures/stream", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	assert.NoError(t, handler.StreamLecture(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
