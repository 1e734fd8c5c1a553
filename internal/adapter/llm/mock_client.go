package llm

import (
	"context"
	"fmt"
	"time"
)

// MockClient is a mock implementation of CompletionClient for testing and
// for running the service without an LLM backend.
type MockClient struct {
	// Response overrides the generated content when non-empty.
	Response string
	// Err, when set, is returned by every call.
	Err error
	// ChunkSize controls how the streamed response is split. Defaults to 10.
	ChunkSize int
}

// NewMockClient creates a new mock completion client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Ensure MockClient implements CompletionClient.
var _ CompletionClient = (*MockClient)(nil)

// CreateChatCompletion returns a mock response.
func (m *MockClient) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	content := m.content(req)
	return &ChatCompletionResponse{
		ID:      fmt.Sprintf("mock-chatcmpl-%d", time.Now().UnixNano()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []Choice{
			{
				Index:        0,
				Message:      &ChatMessage{Role: "assistant", Content: content},
				FinishReason: "stop",
			},
		},
		Usage: &Usage{
			PromptTokens:     len(req.Messages) * 8,
			CompletionTokens: len(content) / 4,
			TotalTokens:      len(req.Messages)*8 + len(content)/4,
		},
	}, nil
}

// CreateChatCompletionStream simulates a streaming response.
func (m *MockClient) CreateChatCompletionStream(ctx context.Context, req *ChatCompletionRequest, callback StreamCallback) error {
	if m.Err != nil {
		return m.Err
	}

	content := m.content(req)
	id := fmt.Sprintf("mock-chatcmpl-%d", time.Now().UnixNano())
	created := time.Now().Unix()

	size := m.ChunkSize
	if size <= 0 {
		size = 10
	}
	chunks := splitIntoChunks(content, size)

	for i, chunk := range chunks {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		finishReason := ""
		if i == len(chunks)-1 {
			finishReason = "stop"
		}

		if err := callback(&StreamChunk{
			ID:      id,
			Object:  "chat.completion.chunk",
			Created: created,
			Model:   req.Model,
			Choices: []Choice{
				{
					Index:        0,
					Delta:        &ChatMessage{Role: "assistant", Content: chunk},
					FinishReason: finishReason,
				},
			},
		}); err != nil {
			return err
		}
	}

	return nil
}

func (m *MockClient) content(req *ChatCompletionRequest) string {
	if m.Response != "" {
		return m.Response
	}
	if _, ok := req.ResponseFormat["type"]; ok {
		// Structured output request: return a minimal valid document.
		return `{"content_type":{"primary_type":"general","confidence":0.5,"keywords_matched":[]},"concepts":[]}`
	}
	return "# Mock Notes\n\nThis is a mock summary generated without an LLM backend."
}

func splitIntoChunks(s string, size int) []string {
	if s == "" {
		return []string{""}
	}
	runes := []rune(s)
	var chunks []string
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}
