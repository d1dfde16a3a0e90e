package routes

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/formlab/formlab/app"
	"github.com/formlab/formlab/httpx"
	"github.com/formlab/formlab/log"
	"github.com/formlab/formlab/model"
)

type formUpdate struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsPublic    *bool   `json:"is_public"`
	IsLocked    *bool   `json:"is_locked"`
}

func CreateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form := model.Form{}
		err := render.DecodeJSON(r.Body, &form)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if form.Name == "" {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "create_form.name", "form name is required")
			return
		}

		user := currentUser(r)

		var formId int
		err = app.QueryRowContext(r.Context(), `
			INSERT INTO form (name, description, is_public, is_locked, owner_id)
			VALUES (?, ?, ?, FALSE, ?)
			RETURNING id`,
			form.Name,
			form.Description,
			form.IsPublic,
			user.ID,
		).Scan(&formId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_form", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": formId,
		})
	}
}

func PublicForms(app app.App) http.HandlerFunc {
	return listForms(app, `
		SELECT id, name, description, is_public, is_locked, owner_id
		FROM form
		WHERE is_public`, nil)
}

func OwnedForms(app app.App) http.HandlerFunc {
	return listForms(app, `
		SELECT id, name, description, is_public, is_locked, owner_id
		FROM form
		WHERE owner_id = ?`, func(r *http.Request) []any {
		return []any{currentUser(r).ID}
	})
}

func listForms(app app.App, query string, params func(*http.Request) []any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var args []any
		if params != nil {
			args = params(r)
		}

		rows, err := app.QueryContext(r.Context(), query, args...)
		if err != nil {
			httpx.LogInternalError(w, "db.get_forms", err)
			return
		}
		defer rows.Close()

		forms := []model.Form{}
		for rows.Next() {
			f := model.Form{}
			err = rows.Scan(&f.ID, &f.Name, &f.Description, &f.IsPublic, &f.IsLocked, &f.OwnerID)
			if err != nil {
				httpx.LogInternalError(w, "db.get_forms.scan", err)
				return
			}
			forms = append(forms, f)
		}

		render.JSON(w, r, map[string]any{
			"forms": forms,
		})
	}
}

func GetFormByID(app app.App) http.HandlerFunc {
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

		if !form.IsPublic {
			user := currentUser(r)
			if user == nil {
				httpx.LogStatusMsg(w, http.StatusForbidden, log.DebugLevel, "get_form.private",
					"this form is private")
				return
			}
			ok, err := mayViewResults(r.Context(), app.DB, form, user)
			if err != nil {
				httpx.LogInternalError(w, "db.get_form.access", err)
				return
			}
			if !ok {
				httpx.LogStatusMsg(w, http.StatusForbidden, log.DebugLevel, "get_form.private",
					"access denied to private form")
				return
			}
		}

		form.Questions, err = app.Store.Questions(r.Context(), formId)
		if err != nil {
			httpx.LogInternalError(w, "db.get_form.questions", err)
			return
		}

		render.JSON(w, r, form)
	}
}

func UpdateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		var upd formUpdate
		err = render.DecodeJSON(r.Body, &upd)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		form, err := app.Store.FormByID(r.Context(), formId)
		if err != nil {
			httpx.LogEngineError(w, "db.update_form", err)
			return
		}

		ok, err := mayEditForm(r.Context(), app.DB, form, currentUser(r))
		if err != nil {
			httpx.LogInternalError(w, "db.update_form.access", err)
			return
		}
		if !ok {
			httpx.LogStatusMsg(w, http.StatusForbidden, log.DebugLevel, "update_form.access",
				"you are not allowed to edit this form")
			return
		}

		if upd.Name != nil {
			form.Name = *upd.Name
		}
		if upd.Description != nil {
			form.Description = *upd.Description
		}
		if upd.IsPublic != nil {
			form.IsPublic = *upd.IsPublic
		}
		if upd.IsLocked != nil {
			form.IsLocked = *upd.IsLocked
		}

		_, err = app.ExecContext(r.Context(), `
			UPDATE form
			SET name = ?, description = ?, is_public = ?, is_locked = ?
			WHERE id = ?`,
			form.Name,
			form.Description,
			form.IsPublic,
			form.IsLocked,
			formId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_form", err)
			return
		}

		render.JSON(w, r, form)
	}
}

func DeleteForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		form, err := app.Store.FormByID(r.Context(), formId)
		if err != nil {
			httpx.LogEngineError(w, "db.delete_form", err)
			return
		}

		user := currentUser(r)
		if !isSuperadmin(user) && form.OwnerID != user.ID {
			httpx.LogStatusMsg(w, http.StatusForbidden, log.DebugLevel, "delete_form.access",
				"only the owner can delete this form")
			return
		}

		// questions, options and answers go with it (ON DELETE CASCADE)
		_, err = app.ExecContext(r.Context(), `DELETE FROM form WHERE id = ?`, formId)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_form", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
