package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/oauth"

	"github.com/formlab/formlab/app"
	"github.com/formlab/formlab/config"
	"github.com/formlab/formlab/database"
	"github.com/formlab/formlab/engine"
	"github.com/formlab/formlab/model"
	"github.com/formlab/formlab/store"
)

func openTestApp(t *testing.T) app.App {
	t.Helper()

	db, err := database.Open(config.Config{
		DBUrl: filepath.Join(t.TempDir(), "test.sqlite"),
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		INSERT INTO user (id, username, email, password_hash, role) VALUES
			(1, 'admin', 'admin@example.com', 'x', 'superadmin');
		INSERT INTO form (id, name, description, is_public, owner_id) VALUES (1, 'poll', '', TRUE, 1);
		INSERT INTO question (id, form_id, text, type, is_required, ord) VALUES
			(5, 1, 'fruit', 'single_choice', FALSE, 0),
			(6, 1, 'rating', 'single_choice', FALSE, 1);
		INSERT INTO question_option (question_id, text) VALUES
			(5, 'Apple'),
			(5, 'Banana'),
			(6, '1'),
			(6, '2');
	`)
	if err != nil {
		t.Fatal(err)
	}

	st := store.New(db)
	return app.App{DB: db, Engine: engine.New(st), Store: st}
}

func putQuestion(t *testing.T, a app.App, path string, fields url.Values) *httptest.ResponseRecorder {
	t.Helper()

	r := chi.NewRouter()
	r.Put("/forms/{id}/questions/{qid}", UpdateQuestion(a))

	req := httptest.NewRequest(http.MethodPut, path, strings.NewReader(fields.Encode()))
	req.Header.Set("content-type", "application/x-www-form-urlencoded")
	req = req.WithContext(context.WithValue(req.Context(), oauth.ClaimsContext, map[string]string{
		"user_id": "1",
		"roles":   "superadmin",
	}))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func questionState(t *testing.T, a app.App, questionID int) model.Question {
	t.Helper()

	questions, err := a.Store.Questions(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	for _, q := range questions {
		if q.ID == questionID {
			return q
		}
	}
	t.Fatalf("question %d not found", questionID)
	return model.Question{}
}

func TestUpdateQuestionTypeChangeKeepsNumericInvariant(t *testing.T) {
	a := openTestApp(t)

	resp := putQuestion(t, a, "/forms/1/questions/5", url.Values{
		"type": {"numeric_choice"},
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.Code)
	}
	if body := resp.Body.String(); !strings.Contains(body, "must be numeric") {
		t.Errorf("body = %q, want a non-numeric option message", body)
	}

	q := questionState(t, a, 5)
	if q.Type != model.SingleChoice {
		t.Errorf("type = %q, rejected update must not persist", q.Type)
	}
}

func TestUpdateQuestionTypeChangeWithNumericOptions(t *testing.T) {
	a := openTestApp(t)

	resp := putQuestion(t, a, "/forms/1/questions/6", url.Values{
		"type": {"numeric_choice"},
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", resp.Code, resp.Body.String())
	}

	q := questionState(t, a, 6)
	if q.Type != model.NumericChoice {
		t.Errorf("type = %q, want numeric_choice", q.Type)
	}
	if len(q.Options) != 2 {
		t.Errorf("existing options must survive, got %d", len(q.Options))
	}
}

func TestUpdateQuestionTypeChangeWithNewScale(t *testing.T) {
	a := openTestApp(t)

	resp := putQuestion(t, a, "/forms/1/questions/5", url.Values{
		"type":          {"numeric_choice"},
		"numeric_scale": {`{"start":1,"end":3,"step":1}`},
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", resp.Code, resp.Body.String())
	}

	q := questionState(t, a, 5)
	if q.Type != model.NumericChoice {
		t.Errorf("type = %q, want numeric_choice", q.Type)
	}
	if len(q.Options) != 3 || q.Options[0].Text != "1" {
		t.Errorf("scale should replace the options, got %+v", q.Options)
	}
}

func TestQuestionOptions(t *testing.T) {
	tests := []struct {
		name    string
		qt      model.QuestionType
		in      questionForm
		want    []string
		wantNil bool
		fails   bool
	}{
		{
			name: "scale expands for single_choice too",
			qt:   model.SingleChoice,
			in:   questionForm{NumericScale: `{"start":1,"end":3,"step":1}`},
			want: []string{"1", "2", "3"},
		},
		{
			name: "values expand for multiple_choice",
			qt:   model.MultipleChoice,
			in:   questionForm{NumericValues: `[1.5,2]`},
			want: []string{"1.5", "2"},
		},
		{
			name:    "no source for single_choice",
			qt:      model.SingleChoice,
			in:      questionForm{},
			wantNil: true,
		},
		{
			name:  "no source for numeric_choice",
			qt:    model.NumericChoice,
			in:    questionForm{},
			fails: true,
		},
		{
			name:  "two sources",
			qt:    model.SingleChoice,
			in:    questionForm{Options: `[{"text":"a"}]`, NumericValues: `[1]`},
			fails: true,
		},
		{
			name:  "non-numeric texts for numeric_choice",
			qt:    model.NumericChoice,
			in:    questionForm{Options: `[{"text":"Apple"}]`},
			fails: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			options, err := questionOptions(tt.qt, tt.in)
			if tt.fails {
				if err == nil {
					t.Fatalf("expected error, got %+v", options)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if tt.wantNil {
				if options != nil {
					t.Fatalf("expected no options, got %+v", options)
				}
				return
			}
			if len(options) != len(tt.want) {
				t.Fatalf("got %d options, want %d", len(options), len(tt.want))
			}
			for i, w := range tt.want {
				if options[i].Text != w {
					t.Errorf("option %d = %q, want %q", i, options[i].Text, w)
				}
			}
		})
	}
}
