package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"

	"github.com/alicankorkmaz-sudo/Quizzi/domain"
)

// MemorySource serves questions from an in-memory set, typically loaded from
// a bundled JSON file. Draws are uniform over the not-yet-used questions of a
// category.
type MemorySource struct {
	mu         sync.RWMutex
	questions  []domain.Question
	categories []domain.Category
}

func NewMemorySource(questions []domain.Question, categories []domain.Category) *MemorySource {
	if len(categories) == 0 {
		categories = deriveCategories(questions)
	}
	return &MemorySource{questions: questions, categories: categories}
}

type questionFile struct {
	Categories []domain.Category `json:"categories"`
	Questions  []domain.Question `json:"questions"`
}

// LoadQuestionFile builds a MemorySource from a JSON file of the form
// {"categories": [...], "questions": [...]}. Categories may be omitted and
// are then derived from the questions.
func LoadQuestionFile(path string) (*MemorySource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading question file: %w", err)
	}
	file := questionFile{}
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing question file %s: %w", path, err)
	}
	if len(file.Questions) == 0 {
		return nil, fmt.Errorf("question file %s contains no questions", path)
	}
	return NewMemorySource(file.Questions, file.Categories), nil
}

func (m *MemorySource) RandomQuestion(_ context.Context, categoryID int, excludeIDs []int) (domain.Question, error) {
	excluded := make(map[int]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = true
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	candidates := make([]domain.Question, 0)
	for _, q := range m.questions {
		if q.CategoryID == categoryID && !excluded[q.ID] {
			candidates = append(candidates, q)
		}
	}
	if len(candidates) == 0 {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return candidates[rand.Intn(len(candidates))], nil
}

func (m *MemorySource) Categories(_ context.Context) ([]domain.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Category, len(m.categories))
	copy(out, m.categories)
	return out, nil
}

func deriveCategories(questions []domain.Question) []domain.Category {
	seen := make(map[int]bool)
	categories := make([]domain.Category, 0)
	for _, q := range questions {
		if !seen[q.CategoryID] {
			seen[q.CategoryID] = true
			categories = append(categories, domain.Category{
				ID:   q.CategoryID,
				Name: fmt.Sprintf("Category %d", q.CategoryID),
			})
		}
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].ID < categories[j].ID })
	return categories
}
