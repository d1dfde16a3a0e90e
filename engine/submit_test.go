package engine

import (
	"context"
	"testing"

	"github.com/formlab/formlab/model"
)

// fakeStore serves one form from memory and records saved batches.
type fakeStore struct {
	form      model.Form
	questions []model.Question
	answers   []model.Answer
	saved     [][]model.Answer
}

func (s *fakeStore) FormByID(ctx context.Context, id int) (model.Form, error) {
	if id != s.form.ID {
		return model.Form{}, ErrNotFound
	}
	return s.form, nil
}

func (s *fakeStore) Questions(ctx context.Context, formID int) ([]model.Question, error) {
	return s.questions, nil
}

func (s *fakeStore) Answers(ctx context.Context, formID int) ([]model.Answer, error) {
	return s.answers, nil
}

func (s *fakeStore) SaveAnswers(ctx context.Context, answers []model.Answer) error {
	s.saved = append(s.saved, answers)
	return nil
}

func testStore() *fakeStore {
	return &fakeStore{
		form: model.Form{ID: 1, Name: "feedback", IsPublic: true},
		questions: []model.Question{
			{ID: 1, FormID: 1, Text: "name", Type: model.ShortText, IsRequired: true},
			{ID: 2, FormID: 1, Text: "color", Type: model.SingleChoice, Options: []model.Option{
				{ID: 10, Text: "red"},
				{ID: 11, Text: "blue"},
			}},
		},
	}
}

func intPtr(n int) *int { return &n }

func TestSubmit(t *testing.T) {
	st := testStore()
	e := New(st)

	id, err := e.Submit(context.Background(), 1, nil, false, []Item{
		{QuestionID: 1, Answer: "Ada"},
		{QuestionID: 2, Answer: "blue"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if id == "" {
		t.Error("expected a submission id")
	}
	if len(st.saved) != 1 {
		t.Fatalf("expected one saved batch, got %d", len(st.saved))
	}

	batch := st.saved[0]
	if len(batch) != 2 {
		t.Fatalf("expected 2 answers, got %d", len(batch))
	}
	for _, a := range batch {
		if a.SubmissionID != id {
			t.Errorf("answer has submission id %q, want %q", a.SubmissionID, id)
		}
		if a.SubmittedAt.IsZero() {
			t.Error("answer has zero timestamp")
		}
	}
	if batch[1].Value != "11" {
		t.Errorf("choice answer stored as %q, want option id", batch[1].Value)
	}
}

func TestSubmitErrors(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(*fakeStore)
		formID   int
		userID   *int
		elevated bool
		items    []Item
		want     Kind
	}{
		{
			name:   "unknown form",
			formID: 99,
			items:  []Item{{QuestionID: 1, Answer: "x"}},
			want:   FormNotFound,
		},
		{
			name:   "locked form",
			setup:  func(s *fakeStore) { s.form.IsLocked = true },
			formID: 1,
			items:  []Item{{QuestionID: 1, Answer: "x"}},
			want:   FormLocked,
		},
		{
			name:   "private form needs login",
			setup:  func(s *fakeStore) { s.form.IsPublic = false },
			formID: 1,
			items:  []Item{{QuestionID: 1, Answer: "x"}},
			want:   AuthRequired,
		},
		{
			name:   "missing required answer",
			formID: 1,
			items:  []Item{{QuestionID: 2, Answer: "red"}},
			want:   MissingRequiredAnswer,
		},
		{
			name:   "empty string does not satisfy required",
			formID: 1,
			items:  []Item{{QuestionID: 1, Answer: ""}},
			want:   MissingRequiredAnswer,
		},
		{
			name:   "unknown question id",
			formID: 1,
			items: []Item{
				{QuestionID: 1, Answer: "Ada"},
				{QuestionID: 7, Answer: "x"},
			},
			want: UnknownQuestion,
		},
		{
			name:   "invalid option fails whole batch",
			formID: 1,
			items: []Item{
				{QuestionID: 1, Answer: "Ada"},
				{QuestionID: 2, Answer: "purple"},
			},
			want: InvalidOption,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := testStore()
			if tt.setup != nil {
				tt.setup(st)
			}
			e := New(st)

			_, err := e.Submit(context.Background(), tt.formID, tt.userID, tt.elevated, tt.items)
			if err == nil {
				t.Fatal("expected error")
			}
			if kind, ok := KindOf(err); !ok || kind != tt.want {
				t.Errorf("got kind %v (%v), want %v", kind, err, tt.want)
			}
			if len(st.saved) != 0 {
				t.Errorf("nothing should be persisted, got %d batches", len(st.saved))
			}
		})
	}
}

func TestSubmitElevatedBypassesLock(t *testing.T) {
	st := testStore()
	st.form.IsLocked = true
	st.form.IsPublic = false
	e := New(st)

	_, err := e.Submit(context.Background(), 1, nil, true, []Item{
		{QuestionID: 1, Answer: "Ada"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(st.saved) != 1 {
		t.Errorf("expected the batch to be saved")
	}
}

func TestSubmitAuthenticated(t *testing.T) {
	st := testStore()
	st.form.IsPublic = false
	e := New(st)

	_, err := e.Submit(context.Background(), 1, intPtr(7), false, []Item{
		{QuestionID: 1, Answer: "Ada"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if uid := st.saved[0][0].UserID; uid == nil || *uid != 7 {
		t.Errorf("answer should carry the submitting user id, got %v", uid)
	}
}

func TestSubmitOptionalListAnswers(t *testing.T) {
	st := testStore()
	st.questions = []model.Question{
		{ID: 1, FormID: 1, Text: "tags", Type: model.MultipleChoice, IsRequired: true,
			Options: []model.Option{{ID: 10, Text: "a"}, {ID: 11, Text: "b"}}},
	}
	e := New(st)

	_, err := e.Submit(context.Background(), 1, nil, false, []Item{
		{QuestionID: 1, Answer: []any{}},
	})
	if kind, ok := KindOf(err); !ok || kind != MissingRequiredAnswer {
		t.Errorf("empty list should not satisfy required, got %v", err)
	}

	_, err = e.Submit(context.Background(), 1, nil, false, []Item{
		{QuestionID: 1, Answer: []any{"a", "b"}},
	})
	if err != nil {
		t.Fatal(err)
	}
}
