// Package engine is the answer validation and analytics core. It validates
// submitted answers against each question's option set or format rules,
// persists them as normalized strings through a narrow Store interface, and
// recomputes per-question statistical summaries on demand.
package engine

import (
	"context"

	"github.com/formlab/formlab/model"
)

// Store is the persistence surface the engine needs. Implementations return
// ErrNotFound for missing forms.
type Store interface {
	// FormByID fetches a form without its questions.
	FormByID(ctx context.Context, id int) (model.Form, error)
	// Questions fetches all questions of a form in display order, with
	// options attached.
	Questions(ctx context.Context, formID int) ([]model.Question, error)
	// Answers fetches all stored answers for a form's questions.
	Answers(ctx context.Context, formID int) ([]model.Answer, error)
	// SaveAnswers appends all answers in one transaction, or none of them.
	SaveAnswers(ctx context.Context, answers []model.Answer) error
}

type Engine struct {
	store Store
}

func New(store Store) *Engine {
	return &Engine{store: store}
}
