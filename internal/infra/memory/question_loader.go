package memory

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"telegram-quiz-bot/internal/domain"
)

// FileQuestionLoader reads the question bank from a YAML file:
//
//	- text: What is the capital of France?
//	  options: [Berlin, Madrid, Paris, Rome]
//	  correct: 2
type FileQuestionLoader struct {
	path string
}

func NewFileQuestionLoader(path string) *FileQuestionLoader {
	return &FileQuestionLoader{path: path}
}

func (l *FileQuestionLoader) LoadQuestions(_ context.Context) ([]domain.Question, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("reading question file: %w", err)
	}
	var questions []domain.Question
	if err := yaml.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("parsing question file: %w", err)
	}
	return questions, nil
}

// StaticQuestionLoader serves a fixed slice (useful for tests/demos).
type StaticQuestionLoader struct {
	questions []domain.Question
}

func NewStaticQuestionLoader(questions []domain.Question) *StaticQuestionLoader {
	return &StaticQuestionLoader{questions: questions}
}

func (l *StaticQuestionLoader) LoadQuestions(_ context.Context) ([]domain.Question, error) {
	return l.questions, nil
}
