package engine

import (
	"context"
	"errors"
	"time"

	"github.com/formlab/formlab/model"
	"github.com/google/uuid"
)

// Item is one submitted answer. Answer holds the decoded JSON value: a
// string, a number, or a list of values.
type Item struct {
	QuestionID int `json:"question_id"`
	Answer     any `json:"answer"`
}

// Submit validates a full submission against the form's questions and, when
// every answer passes, persists the whole batch in one transaction. userID is
// nil for anonymous submissions; elevated callers (superadmin) bypass the
// form lock. The returned id groups the batch's answer rows.
//
// Nothing is persisted when any step fails: all answers are validated before
// the first row is written.
func (e *Engine) Submit(ctx context.Context, formID int, userID *int, elevated bool, items []Item) (string, error) {
	form, err := e.store.FormByID(ctx, formID)
	if errors.Is(err, ErrNotFound) {
		return "", errf(FormNotFound, "form %d not found", formID)
	}
	if err != nil {
		return "", err
	}

	if form.IsLocked && !elevated {
		return "", errf(FormLocked, "form %q is locked and does not accept submissions", form.Name)
	}
	if !form.IsPublic && userID == nil && !elevated {
		return "", errf(AuthRequired, "you must be logged in to submit to form %q", form.Name)
	}

	questions, err := e.store.Questions(ctx, formID)
	if err != nil {
		return "", err
	}
	byID := make(map[int]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	for _, q := range questions {
		if !q.IsRequired {
			continue
		}
		present := false
		for _, it := range items {
			if it.QuestionID == q.ID && !isEmptyAnswer(it.Answer) {
				present = true
				break
			}
		}
		if !present {
			return "", errf(MissingRequiredAnswer, "missing required answer for question %q", q.Text)
		}
	}

	now := time.Now()
	submissionID := uuid.NewString()
	answers := make([]model.Answer, 0, len(items))
	for _, it := range items {
		q, ok := byID[it.QuestionID]
		if !ok {
			return "", errf(UnknownQuestion, "invalid question ID: %d", it.QuestionID)
		}

		value, err := NormalizeAnswer(q, it.Answer)
		if err != nil {
			return "", err
		}

		answers = append(answers, model.Answer{
			QuestionID:   q.ID,
			UserID:       userID,
			SubmissionID: submissionID,
			Value:        value,
			SubmittedAt:  now,
		})
	}

	if err := e.store.SaveAnswers(ctx, answers); err != nil {
		return "", err
	}
	return submissionID, nil
}
