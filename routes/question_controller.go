package routes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ajg/form"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/formlab/formlab/app"
	"github.com/formlab/formlab/engine"
	"github.com/formlab/formlab/httpx"
	"github.com/formlab/formlab/log"
	"github.com/formlab/formlab/model"
)

const maxQuestionFormSize = 10 << 20

// questionForm is the form-encoded payload of the question endpoints. The
// three option sources are JSON-encoded sub-fields; at most one may be
// supplied, and numeric_choice requires one.
type questionForm struct {
	Text          string `form:"text"`
	Type          string `form:"type"`
	IsRequired    bool   `form:"is_required"`
	Order         int    `form:"order"`
	MaxChoices    int    `form:"max_choices"`
	ImageURL      string `form:"image_url"`
	Options       string `form:"options"`        // JSON array of {text, image_url?}
	NumericScale  string `form:"numeric_scale"`  // JSON object {start, end, step}
	NumericValues string `form:"numeric_values"` // JSON array of numbers
}

type optionPayload struct {
	Text     string `json:"text"`
	ImageURL string `json:"image_url"`
}

type numericScale struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Step  float64 `json:"step"`
}

func parseQuestionForm(r *http.Request) (in questionForm, err error) {
	err = r.ParseMultipartForm(maxQuestionFormSize)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return
	}

	dec := form.NewDecoder(strings.NewReader(r.Form.Encode()))
	dec.IgnoreUnknownKeys(true)
	err = dec.Decode(&in)
	return
}

// questionOptions expands the supplied option source into concrete option
// rows, enforcing the numeric_choice invariants.
func questionOptions(qt model.QuestionType, in questionForm) ([]model.Option, error) {
	sources := 0
	for _, s := range []string{in.Options, in.NumericScale, in.NumericValues} {
		if s != "" {
			sources++
		}
	}

	if qt == model.NumericChoice && sources == 0 {
		return nil, errors.New("numeric_choice requires one of options, numeric_scale, numeric_values")
	}
	if sources > 1 {
		return nil, errors.New("supply at most one of options, numeric_scale, numeric_values")
	}
	if sources == 0 {
		return nil, nil
	}

	var texts []string
	var options []model.Option
	switch {
	case in.NumericScale != "":
		var scale numericScale
		if err := json.Unmarshal([]byte(in.NumericScale), &scale); err != nil {
			return nil, errors.New("invalid numeric_scale JSON format")
		}
		var err error
		texts, err = engine.NumericSeries(scale.Start, scale.End, scale.Step)
		if err != nil {
			return nil, err
		}
	case in.NumericValues != "":
		var values []float64
		if err := json.Unmarshal([]byte(in.NumericValues), &values); err != nil {
			return nil, errors.New("invalid numeric_values JSON format")
		}
		for _, v := range values {
			texts = append(texts, engine.FormatNumber(v))
		}
	default:
		var payload []optionPayload
		if err := json.Unmarshal([]byte(in.Options), &payload); err != nil {
			return nil, errors.New("invalid options JSON format")
		}
		for _, o := range payload {
			texts = append(texts, o.Text)
			options = append(options, model.Option{Text: o.Text, ImageURL: o.ImageURL})
		}
	}

	if qt == model.NumericChoice {
		if err := engine.ValidateNumericOptions(texts); err != nil {
			return nil, err
		}
	}

	if options == nil {
		for _, t := range texts {
			options = append(options, model.Option{Text: t})
		}
	}
	return options, nil
}

func AddQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		f, err := app.Store.FormByID(r.Context(), formId)
		if err != nil {
			httpx.LogEngineError(w, "db.get_form", err)
			return
		}

		ok, err := mayEditForm(r.Context(), app.DB, f, currentUser(r))
		if err != nil {
			httpx.LogInternalError(w, "db.add_question.access", err)
			return
		}
		if !ok {
			httpx.LogStatusMsg(w, http.StatusForbidden, log.DebugLevel, "add_question.access",
				"you are not allowed to edit this form")
			return
		}

		in, err := parseQuestionForm(r)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_form")
			return
		}
		if in.Text == "" || in.Type == "" {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "add_question.fields",
				"text and type are required")
			return
		}

		qt := model.ParseQuestionType(in.Type)
		options, err := questionOptions(qt, in)
		if err != nil {
			badOptions(w, "add_question.options", err)
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		var maxChoices any
		if in.MaxChoices > 0 {
			maxChoices = in.MaxChoices
		}
		var imageURL any
		if in.ImageURL != "" {
			imageURL = in.ImageURL
		}

		var questionId int
		err = tx.QueryRowContext(r.Context(), `
			INSERT INTO question (form_id, text, type, is_required, ord, max_choices, image_url)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			RETURNING id`,
			formId,
			in.Text,
			string(qt),
			in.IsRequired,
			in.Order,
			maxChoices,
			imageURL,
		).Scan(&questionId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_question", err)
			return
		}

		stmt, err := tx.PrepareContext(r.Context(), `
			INSERT INTO question_option (question_id, text, image_url)
			VALUES (?, ?, ?)`)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_question.options.prepare", err)
			return
		}
		defer stmt.Close()

		for _, o := range options {
			var image any
			if o.ImageURL != "" {
				image = o.ImageURL
			}
			_, err = stmt.ExecContext(r.Context(), questionId, o.Text, image)
			if err != nil {
				httpx.LogInternalError(w, "db.insert_question.options.insert", err)
				return
			}
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.insert_question.commit", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": questionId,
		})
	}
}

func UpdateQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}
		questionId, err := strconv.Atoi(chi.URLParam(r, "qid"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.qid")
			return
		}

		f, err := app.Store.FormByID(r.Context(), formId)
		if err != nil {
			httpx.LogEngineError(w, "db.get_form", err)
			return
		}

		ok, err := mayEditForm(r.Context(), app.DB, f, currentUser(r))
		if err != nil {
			httpx.LogInternalError(w, "db.update_question.access", err)
			return
		}
		if !ok {
			httpx.LogStatusMsg(w, http.StatusForbidden, log.DebugLevel, "update_question.access",
				"you are not allowed to edit this form")
			return
		}

		q := model.Question{}
		var rawType string
		err = app.QueryRowContext(r.Context(), `
			SELECT id, form_id, text, type, is_required, ord, COALESCE(max_choices, 0)
			FROM question
			WHERE id = ? AND form_id = ?`,
			questionId,
			formId,
		).Scan(&q.ID, &q.FormID, &q.Text, &rawType, &q.IsRequired, &q.Order, &q.MaxChoices)
		if err != nil {
			httpx.LogNotFound(w, "update_question", questionId)
			return
		}
		q.Type = model.QuestionType(rawType)

		in, err := parseQuestionForm(r)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_form")
			return
		}

		if r.Form.Has("text") {
			q.Text = in.Text
		}
		if r.Form.Has("type") {
			q.Type = model.ParseQuestionType(in.Type)
		}
		if r.Form.Has("is_required") {
			q.IsRequired = in.IsRequired
		}
		if r.Form.Has("order") {
			q.Order = in.Order
		}
		if r.Form.Has("max_choices") {
			q.MaxChoices = in.MaxChoices
		}

		// a type change to numeric_choice without a new option source must
		// leave only numeric option texts behind
		hasOptionSource := in.Options != "" || in.NumericScale != "" || in.NumericValues != ""
		if q.Type == model.NumericChoice && !hasOptionSource {
			texts, err := optionTexts(r.Context(), app.DB, questionId)
			if err != nil {
				httpx.LogInternalError(w, "db.update_question.options.get", err)
				return
			}
			if err := engine.ValidateNumericOptions(texts); err != nil {
				badOptions(w, "update_question.options", err)
				return
			}
		}

		var maxChoices any
		if q.MaxChoices > 0 {
			maxChoices = q.MaxChoices
		}
		_, err = app.ExecContext(r.Context(), `
			UPDATE question
			SET text = ?, type = ?, is_required = ?, ord = ?, max_choices = ?
			WHERE id = ?`,
			q.Text,
			string(q.Type),
			q.IsRequired,
			q.Order,
			maxChoices,
			questionId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_question", err)
			return
		}

		if hasOptionSource {
			options, err := questionOptions(q.Type, in)
			if err != nil {
				badOptions(w, "update_question.options", err)
				return
			}
			err = app.Store.ReplaceOptions(r.Context(), questionId, options)
			if err != nil {
				httpx.LogInternalError(w, "db.update_question.options", err)
				return
			}
		}

		render.JSON(w, r, q)
	}
}

func optionTexts(ctx context.Context, db *sql.DB, questionID int) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT text FROM question_option WHERE question_id = ?`,
		questionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var texts []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		texts = append(texts, t)
	}
	return texts, rows.Err()
}

// badOptions reports an option-source failure: engine validation errors keep
// their mapped status, anything else is a malformed request.
func badOptions(w http.ResponseWriter, code string, err error) {
	if _, ok := engine.KindOf(err); ok {
		httpx.LogEngineError(w, code, err)
		return
	}
	httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, code, "%s", err)
}
