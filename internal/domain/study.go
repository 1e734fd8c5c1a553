package domain

// Flashcard is one question/answer pair generated from lecture concepts.
type Flashcard struct {
	Question    string `json:"question"`
	Answer      string `json:"answer"`
	ConceptName string `json:"concept_name"`
	Difficulty  string `json:"difficulty"` // easy, medium, hard
	Category    string `json:"category"`
}

// QuizQuestion is one multiple choice question with four options.
type QuizQuestion struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Explanation  string   `json:"explanation"`
	ConceptName  string   `json:"concept_name"`
	Difficulty   string   `json:"difficulty"`
}

// StudySet bundles the study materials generated for one record.
type StudySet struct {
	Flashcards    []Flashcard    `json:"flashcards"`
	QuizQuestions []QuizQuestion `json:"quiz_questions"`
}
