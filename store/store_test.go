package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/formlab/formlab/config"
	"github.com/formlab/formlab/database"
	"github.com/formlab/formlab/engine"
	"github.com/formlab/formlab/model"
)

func openTestStore(t *testing.T) *SQL {
	t.Helper()

	db, err := database.Open(config.Config{
		DBUrl: filepath.Join(t.TempDir(), "test.sqlite"),
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		INSERT INTO user (id, username, email, password_hash) VALUES (1, 'owner', 'owner@example.com', 'x');
		INSERT INTO form (id, name, description, is_public, owner_id) VALUES (1, 'poll', '', TRUE, 1);
		INSERT INTO question (id, form_id, text, type, is_required, ord) VALUES
			(1, 1, 'name', 'short_text', TRUE, 0),
			(2, 1, 'color', 'single_choice', FALSE, 1);
		INSERT INTO question_option (id, question_id, text) VALUES
			(10, 2, 'red'),
			(11, 2, 'blue');
	`)
	if err != nil {
		t.Fatal(err)
	}

	return New(db)
}

func TestFormByID(t *testing.T) {
	s := openTestStore(t)

	form, err := s.FormByID(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if form.Name != "poll" || !form.IsPublic || form.OwnerID != 1 {
		t.Errorf("unexpected form: %+v", form)
	}

	_, err = s.FormByID(context.Background(), 99)
	if !errors.Is(err, engine.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestQuestions(t *testing.T) {
	s := openTestStore(t)

	questions, err := s.Questions(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(questions) != 2 {
		t.Fatalf("got %d questions", len(questions))
	}
	if questions[0].Text != "name" || len(questions[0].Options) != 0 {
		t.Errorf("unexpected first question: %+v", questions[0])
	}
	q := questions[1]
	if q.Type != model.SingleChoice || len(q.Options) != 2 {
		t.Fatalf("unexpected second question: %+v", q)
	}
	if q.Options[0].Text != "red" || q.Options[1].ID != 11 {
		t.Errorf("unexpected options: %+v", q.Options)
	}
}

func TestSaveAndListAnswers(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	uid := 1
	now := time.Now().Truncate(time.Second)
	err := s.SaveAnswers(ctx, []model.Answer{
		{QuestionID: 1, UserID: &uid, SubmissionID: "batch-1", Value: "Ada", SubmittedAt: now},
		{QuestionID: 2, SubmissionID: "batch-1", Value: "10", SubmittedAt: now},
	})
	if err != nil {
		t.Fatal(err)
	}

	answers, err := s.Answers(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(answers) != 2 {
		t.Fatalf("got %d answers", len(answers))
	}
	if answers[0].UserID == nil || *answers[0].UserID != 1 {
		t.Errorf("first answer user = %v, want 1", answers[0].UserID)
	}
	if answers[1].UserID != nil {
		t.Errorf("second answer should be anonymous, got %v", *answers[1].UserID)
	}
	for _, a := range answers {
		if a.SubmissionID != "batch-1" {
			t.Errorf("answer %d has submission id %q", a.ID, a.SubmissionID)
		}
	}
}

func TestReplaceOptions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.ReplaceOptions(ctx, 2, []model.Option{
		{Text: "cyan"},
		{Text: "magenta", ImageURL: "http://example.com/m.png"},
	})
	if err != nil {
		t.Fatal(err)
	}

	questions, err := s.Questions(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	opts := questions[1].Options
	if len(opts) != 2 {
		t.Fatalf("got %d options", len(opts))
	}
	if opts[0].Text != "cyan" || opts[1].ImageURL != "http://example.com/m.png" {
		t.Errorf("unexpected options: %+v", opts)
	}
	if opts[0].ID == 10 || opts[1].ID == 11 {
		t.Error("old option ids should not be reused")
	}
}
