package routes

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/formlab/formlab/app"
	"github.com/formlab/formlab/engine"
	"github.com/formlab/formlab/httpx"
	"github.com/formlab/formlab/log"
)

type submission struct {
	Answers []engine.Item `json:"answers"`
}

func SubmitAnswers(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		var sub submission
		err = render.DecodeJSON(r.Body, &sub)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		user := currentUser(r)
		submissionId, err := app.Engine.Submit(r.Context(), formId, userID(user), isSuperadmin(user), sub.Answers)
		if err != nil {
			httpx.LogEngineError(w, "submit_answers", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"submission_id": submissionId,
		})
	}
}

type answerRow struct {
	Question     string    `json:"question"`
	Answer       string    `json:"answer"`
	User         string    `json:"user"`
	SubmissionID string    `json:"submission_id"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

func ListAnswers(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		form, err := app.Store.FormByID(r.Context(), formId)
		if err != nil {
			httpx.LogEngineError(w, "db.get_form", err)
			return
		}

		ok, err := mayViewResults(r.Context(), app.DB, form, currentUser(r))
		if err != nil {
			httpx.LogInternalError(w, "db.get_answers.access", err)
			return
		}
		if !ok {
			httpx.LogStatusMsg(w, http.StatusForbidden, log.DebugLevel, "get_answers.access",
				"you are not allowed to view answers for this form")
			return
		}

		rows, err := app.QueryContext(r.Context(), `
			SELECT q.text, a.value, COALESCE(u.email, ''), a.submission_id, a.submitted_at
			FROM answer a
			INNER JOIN question q ON (q.id = a.question_id)
			LEFT OUTER JOIN user u ON (u.id = a.user_id)
			WHERE q.form_id = ?
			ORDER BY a.submission_id, a.id`,
			formId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.get_answers", err)
			return
		}
		defer rows.Close()

		answers := []answerRow{}
		for rows.Next() {
			row := answerRow{}
			err = rows.Scan(&row.Question, &row.Answer, &row.User, &row.SubmissionID, &row.SubmittedAt)
			if err != nil {
				httpx.LogInternalError(w, "db.get_answers.scan", err)
				return
			}
			if row.User == "" {
				row.User = "anonymous"
			}
			answers = append(answers, row)
		}

		render.JSON(w, r, answers)
	}
}

func FormAnalytics(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		form, err := app.Store.FormByID(r.Context(), formId)
		if err != nil {
			httpx.LogEngineError(w, "db.get_form", err)
			return
		}

		ok, err := mayViewResults(r.Context(), app.DB, form, currentUser(r))
		if err != nil {
			httpx.LogInternalError(w, "db.analytics.access", err)
			return
		}
		if !ok {
			httpx.LogStatusMsg(w, http.StatusForbidden, log.DebugLevel, "analytics.access",
				"you are not allowed to view results for this form")
			return
		}

		summaries, err := app.Engine.Aggregate(r.Context(), formId)
		if err != nil {
			httpx.LogEngineError(w, "analytics.aggregate", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"analytics": summaries,
		})
	}
}
