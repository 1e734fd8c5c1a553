// Package summarizer generates narrative lecture notes from transcripts.
package summarizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/tzhao11/lectern/internal/adapter/llm"
)

const systemPrompt = `You are an expert academic note-taker. Turn lecture transcripts into clear, well-structured markdown lecture notes with headings, key points, and short explanations. Preserve the lecture's own terminology.`

// Transcripts beyond this length are truncated before prompting.
const maxTranscriptChars = 48000

// Summarizer produces lecture notes through a chat completion backend.
type Summarizer struct {
	client llm.CompletionClient
	model  string
}

// New creates a summarizer using the given model.
func New(client llm.CompletionClient, model string) *Summarizer {
	return &Summarizer{client: client, model: model}
}

// Summarize generates complete lecture notes in one call (batch mode).
func (s *Summarizer) Summarize(ctx context.Context, transcript, title string) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, s.request(transcript, title))
	if err != nil {
		return "", fmt.Errorf("summarization failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message == nil {
		return "", fmt.Errorf("summarization returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// SummarizeStream generates notes incrementally, invoking onChunk for each
// text fragment as it arrives. The fragment sequence is finite and
// non-restartable. Returns the accumulated notes text.
func (s *Summarizer) SummarizeStream(ctx context.Context, transcript, title string, onChunk func(text string) error) (string, error) {
	var notes strings.Builder

	err := s.client.CreateChatCompletionStream(ctx, s.request(transcript, title), func(chunk *llm.StreamChunk) error {
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta == nil {
			return nil
		}
		text := chunk.Choices[0].Delta.Content
		if text == "" {
			return nil
		}
		notes.WriteString(text)
		return onChunk(text)
	})
	if err != nil {
		return notes.String(), fmt.Errorf("summarization stream failed: %w", err)
	}

	return notes.String(), nil
}

func (s *Summarizer) request(transcript, title string) *llm.ChatCompletionRequest {
	if len(transcript) > maxTranscriptChars {
		transcript = transcript[:maxTranscriptChars]
	}

	prompt := fmt.Sprintf("Generate lecture notes for the following transcript.\n\nTitle: %s\n\nTranscript:\n%s", title, transcript)
	temp := 0.3

	return &llm.ChatCompletionRequest{
		Model: s.model,
		Messages: []llm.ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: &temp,
	}
}
