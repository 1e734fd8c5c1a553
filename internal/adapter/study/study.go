// Package study generates flashcards and quiz questions from processed
// lecture records.
package study

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tzhao11/lectern/internal/adapter/llm"
	"github.com/tzhao11/lectern/internal/domain"
)

const (
	maxFlashcards    = 15
	maxQuizQuestions = 10
	maxNotesChars    = 24000
)

// Generator produces study materials through a chat completion backend.
type Generator struct {
	client llm.CompletionClient
	model  string
}

// New creates a generator using the given model.
func New(client llm.CompletionClient, model string) *Generator {
	return &Generator{client: client, model: model}
}

// Generate builds a study set from a record's notes and concepts.
func (g *Generator) Generate(ctx context.Context, rec *domain.NoteRecord) (*domain.StudySet, error) {
	flashcards, err := g.generateFlashcards(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to generate flashcards: %w", err)
	}

	questions, err := g.generateQuiz(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to generate quiz: %w", err)
	}

	return &domain.StudySet{
		Flashcards:    flashcards,
		QuizQuestions: questions,
	}, nil
}

func (g *Generator) generateFlashcards(ctx context.Context, rec *domain.NoteRecord) ([]domain.Flashcard, error) {
	content, err := g.complete(ctx,
		"You are an expert at creating study flashcards from lecture material. Respond with JSON only.",
		flashcardPrompt(rec))
	if err != nil {
		return nil, err
	}

	var doc struct {
		Flashcards []domain.Flashcard `json:"flashcards"`
	}
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse flashcard output: %w", err)
	}

	cards := doc.Flashcards
	if len(cards) > maxFlashcards {
		cards = cards[:maxFlashcards]
	}
	for i := range cards {
		if cards[i].Difficulty == "" {
			cards[i].Difficulty = "medium"
		}
	}
	return cards, nil
}

func (g *Generator) generateQuiz(ctx context.Context, rec *domain.NoteRecord) ([]domain.QuizQuestion, error) {
	content, err := g.complete(ctx,
		"You are an expert at creating multiple choice quiz questions from lecture material. Respond with JSON only.",
		quizPrompt(rec))
	if err != nil {
		return nil, err
	}

	var doc struct {
		Questions []domain.QuizQuestion `json:"questions"`
	}
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse quiz output: %w", err)
	}

	questions := make([]domain.QuizQuestion, 0, len(doc.Questions))
	for _, q := range doc.Questions {
		// Malformed options or an out of range answer make a question unusable.
		if len(q.Options) != 4 || q.CorrectIndex < 0 || q.CorrectIndex > 3 {
			continue
		}
		if q.Difficulty == "" {
			q.Difficulty = "medium"
		}
		questions = append(questions, q)
		if len(questions) == maxQuizQuestions {
			break
		}
	}
	return questions, nil
}

func (g *Generator) complete(ctx context.Context, system, prompt string) (string, error) {
	temp := 0.4
	resp, err := g.client.CreateChatCompletion(ctx, &llm.ChatCompletionRequest{
		Model: g.model,
		Messages: []llm.ChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature:    &temp,
		ResponseFormat: map[string]interface{}{"type": "json_object"},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message == nil {
		return "", fmt.Errorf("completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func flashcardPrompt(rec *domain.NoteRecord) string {
	return fmt.Sprintf(`Create up to %d flashcards from this lecture.

Title: %s

Notes:
%s

Key concepts:
%s

Return a JSON object with a "flashcards" array. Each flashcard has:
- question: a clear question testing one idea
- answer: a concise, complete answer
- concept_name: the concept it tests
- difficulty: easy, medium, or hard
- category: the concept's category`,
		maxFlashcards, rec.Meta.Title, truncate(rec.Notes, maxNotesChars), conceptList(rec))
}

func quizPrompt(rec *domain.NoteRecord) string {
	return fmt.Sprintf(`Create up to %d multiple choice questions from this lecture.

Title: %s

Notes:
%s

Key concepts:
%s

Return a JSON object with a "questions" array. Each question has:
- question: the question text
- options: exactly 4 answer options
- correct_index: index (0-3) of the correct option
- explanation: why the correct answer is right
- concept_name: the concept it tests
- difficulty: easy, medium, or hard`,
		maxQuizQuestions, rec.Meta.Title, truncate(rec.Notes, maxNotesChars), conceptList(rec))
}

func conceptList(rec *domain.NoteRecord) string {
	if len(rec.Concepts) == 0 {
		return "(none extracted)"
	}
	var out string
	for _, c := range rec.Concepts {
		out += fmt.Sprintf("- %s (%s): %s\n", c.Name, c.Category, c.Definition)
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
