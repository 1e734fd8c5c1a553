// Package extractor pulls structured key concepts out of lecture transcripts
// and classifies the lecture's content type.
package extractor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tzhao11/lectern/internal/adapter/llm"
	"github.com/tzhao11/lectern/internal/domain"
)

// Transcripts beyond this length are truncated before prompting.
const maxTranscriptChars = 32000

// Extraction is the combined result of one extraction run.
type Extraction struct {
	Concepts       []domain.Concept
	Classification domain.Classification
}

// Extractor extracts concepts through a chat completion backend using
// structured JSON output.
type Extractor struct {
	client llm.CompletionClient
	model  string
}

// New creates an extractor using the given model.
func New(client llm.CompletionClient, model string) *Extractor {
	return &Extractor{client: client, model: model}
}

// Extract returns the ordered concepts found in the transcript together with
// the detected content classification. The classification is computed locally
// from keyword frequency and steers the extraction prompt.
func (e *Extractor) Extract(ctx context.Context, transcript, title string) (*Extraction, error) {
	classification := Classify(transcript)

	prompted := transcript
	if len(prompted) > maxTranscriptChars {
		prompted = prompted[:maxTranscriptChars]
	}

	temp := 0.0
	req := &llm.ChatCompletionRequest{
		Model: e.model,
		Messages: []llm.ChatMessage{
			{Role: "system", Content: systemPromptFor(classification.PrimaryType)},
			{Role: "user", Content: buildPrompt(prompted, title)},
		},
		Temperature:    &temp,
		ResponseFormat: map[string]interface{}{"type": "json_object"},
	}

	resp, err := e.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("concept extraction failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message == nil {
		return nil, fmt.Errorf("concept extraction returned no choices")
	}

	concepts, err := parseConcepts(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse extraction output: %w", err)
	}

	return &Extraction{
		Concepts:       concepts,
		Classification: classification,
	}, nil
}

// conceptDoc is the JSON shape requested from the model.
type conceptDoc struct {
	Name       string   `json:"name"`
	Category   string   `json:"category"`
	Definition string   `json:"definition"`
	Snippet    string   `json:"snippet"`
	Timestamp  *float64 `json:"timestamp"`
	Confidence float64  `json:"confidence"`
	Importance string   `json:"importance"`
}

func parseConcepts(content string) ([]domain.Concept, error) {
	var doc struct {
		Concepts []conceptDoc `json:"concepts"`
	}
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return nil, err
	}

	concepts := make([]domain.Concept, 0, len(doc.Concepts))
	for _, c := range doc.Concepts {
		if c.Name == "" {
			continue
		}
		if c.Confidence < 0 {
			c.Confidence = 0
		}
		if c.Confidence > 1 {
			c.Confidence = 1
		}
		if c.Importance == "" {
			c.Importance = "medium"
		}
		concepts = append(concepts, domain.Concept{
			Name:       c.Name,
			Category:   c.Category,
			Definition: c.Definition,
			Snippet:    c.Snippet,
			Timestamp:  c.Timestamp,
			Confidence: c.Confidence,
			Importance: c.Importance,
		})
	}
	return concepts, nil
}

func buildPrompt(transcript, title string) string {
	return fmt.Sprintf(`Extract the key concepts from this lecture transcript.

Title: %s

Transcript:
%s

Return a JSON object with a "concepts" array. Each concept has:
- name: the concept, term, person, or entity
- category: term, definition, person, theory, formula, event, tool, framework, book, place, or date
- definition: brief explanation (1-2 sentences), may be empty
- snippet: brief context where it was mentioned (max 100 chars)
- timestamp: approximate seconds into the lecture, or null
- confidence: 0.0-1.0
- importance: high, medium, or low`, title, transcript)
}

func systemPromptFor(primaryType string) string {
	instructions := map[string]string{
		"science":  "You are an expert at extracting scientific concepts, theories, formulas, experiments, and notable scientists from educational content.",
		"history":  "You are an expert at extracting historical events, dates, figures, movements, and cause-effect relationships from educational content.",
		"business": "You are an expert at extracting business concepts, frameworks, case studies, metrics, and notable entrepreneurs from educational content.",
		"tech":     "You are an expert at extracting technical concepts, tools, frameworks, architectures, and implementation patterns from educational content.",
		"math":     "You are an expert at extracting mathematical concepts, theorems, proofs, formulas, and problem-solving techniques from educational content.",
	}
	if s, ok := instructions[primaryType]; ok {
		return s
	}
	return "You are an expert at extracting key terms, definitions, people, and notable quotes from educational content of any subject."
}
