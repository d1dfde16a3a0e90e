// Package store is the SQL implementation of the engine's persistence
// interface.
package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/formlab/formlab/engine"
	"github.com/formlab/formlab/model"
)

type SQL struct {
	db *sql.DB
}

func New(db *sql.DB) *SQL {
	return &SQL{db: db}
}

func (s *SQL) FormByID(ctx context.Context, id int) (model.Form, error) {
	f := model.Form{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, is_public, is_locked, owner_id
		FROM form
		WHERE id = ?`,
		id,
	).Scan(&f.ID, &f.Name, &f.Description, &f.IsPublic, &f.IsLocked, &f.OwnerID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Form{}, engine.ErrNotFound
	}
	if err != nil {
		return model.Form{}, err
	}
	return f, nil
}

func (s *SQL) Questions(ctx context.Context, formID int) ([]model.Question, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			q.id, q.form_id, q.text, q.type, q.is_required, q.ord,
			COALESCE(q.max_choices, 0), COALESCE(q.image_url, ''),
			o.id, o.text, COALESCE(o.image_url, '')
		FROM question q
		LEFT OUTER JOIN question_option o ON (q.id = o.question_id)
		WHERE q.form_id = ?
		ORDER BY q.ord, q.id, o.id`,
		formID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		q := model.Question{}
		var rawType string
		var optID sql.NullInt64
		var optText, optImage sql.NullString
		err = rows.Scan(
			&q.ID, &q.FormID, &q.Text, &rawType, &q.IsRequired, &q.Order,
			&q.MaxChoices, &q.ImageURL,
			&optID, &optText, &optImage,
		)
		if err != nil {
			return nil, err
		}
		q.Type = model.QuestionType(rawType)

		lastIdx := len(questions) - 1
		if lastIdx < 0 || questions[lastIdx].ID != q.ID {
			questions = append(questions, q)
			lastIdx++
		}
		if optID.Valid {
			questions[lastIdx].Options = append(questions[lastIdx].Options, model.Option{
				ID:         int(optID.Int64),
				QuestionID: q.ID,
				Text:       optText.String,
				ImageURL:   optImage.String,
			})
		}
	}
	return questions, rows.Err()
}

func (s *SQL) Answers(ctx context.Context, formID int) ([]model.Answer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.question_id, a.user_id, a.submission_id, a.value, a.submitted_at
		FROM answer a
		INNER JOIN question q ON (q.id = a.question_id)
		WHERE q.form_id = ?
		ORDER BY a.id`,
		formID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	answers := []model.Answer{}
	for rows.Next() {
		a := model.Answer{}
		var userID sql.NullInt64
		err = rows.Scan(&a.ID, &a.QuestionID, &userID, &a.SubmissionID, &a.Value, &a.SubmittedAt)
		if err != nil {
			return nil, err
		}
		if userID.Valid {
			id := int(userID.Int64)
			a.UserID = &id
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

func (s *SQL) SaveAnswers(ctx context.Context, answers []model.Answer) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO answer (question_id, user_id, submission_id, value, submitted_at)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range answers {
		var userID any
		if a.UserID != nil {
			userID = *a.UserID
		}
		_, err = stmt.ExecContext(ctx, a.QuestionID, userID, a.SubmissionID, a.Value, a.SubmittedAt)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ReplaceOptions swaps a question's option set in one transaction. Used by
// question updates; answers keep referencing old ids as plain text.
func (s *SQL) ReplaceOptions(ctx context.Context, questionID int, options []model.Option) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		DELETE FROM question_option
		WHERE question_id = ?`,
		questionID,
	)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO question_option (question_id, text, image_url)
		VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, o := range options {
		var image any
		if o.ImageURL != "" {
			image = o.ImageURL
		}
		_, err = stmt.ExecContext(ctx, questionID, o.Text, image)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}
