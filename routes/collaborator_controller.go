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

type collaboratorChange struct {
	UserID int    `json:"user_id"`
	Role   string `json:"role"`
}

// collaborator management is owner-or-superadmin territory
func manageCollaborators(app app.App, w http.ResponseWriter, r *http.Request) (int, bool) {
	formId, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
		return 0, false
	}

	form, err := app.Store.FormByID(r.Context(), formId)
	if err != nil {
		httpx.LogEngineError(w, "db.get_form", err)
		return 0, false
	}

	user := currentUser(r)
	if !isSuperadmin(user) && form.OwnerID != user.ID {
		httpx.LogStatusMsg(w, http.StatusForbidden, log.DebugLevel, "collaborators.access",
			"only the owner can manage collaborators")
		return 0, false
	}
	return formId, true
}

func AddCollaborator(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId, ok := manageCollaborators(app, w, r)
		if !ok {
			return
		}

		var c collaboratorChange
		err := render.DecodeJSON(r.Body, &c)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if c.Role != "editor" && c.Role != "viewer" {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "collaborators.role",
				"role must be editor or viewer")
			return
		}

		var id int
		err = app.QueryRowContext(r.Context(), `
			INSERT INTO collaborator (form_id, user_id, role) VALUES (?, ?, ?)
			RETURNING id`,
			formId,
			c.UserID,
			c.Role,
		).Scan(&id)
		if err != nil {
			httpx.LogStatusMsg(w, http.StatusConflict, log.DebugLevel, "db.insert_collaborator",
				"user is already a collaborator")
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": id,
		})
	}
}

type collaboratorRow struct {
	ID       int    `json:"id"`
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func ListCollaborators(app app.App) http.HandlerFunc {
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
			httpx.LogInternalError(w, "db.get_collaborators.access", err)
			return
		}
		if !ok {
			httpx.LogStatusMsg(w, http.StatusForbidden, log.DebugLevel, "get_collaborators.access",
				"you are not allowed to view this form's collaborators")
			return
		}

		rows, err := app.QueryContext(r.Context(), `
			SELECT c.id, c.user_id, u.username, u.email, c.role
			FROM collaborator c
			INNER JOIN user u ON (u.id = c.user_id)
			WHERE c.form_id = ?`,
			formId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.get_collaborators", err)
			return
		}
		defer rows.Close()

		collaborators := []collaboratorRow{}
		for rows.Next() {
			c := collaboratorRow{}
			err = rows.Scan(&c.ID, &c.UserID, &c.Username, &c.Email, &c.Role)
			if err != nil {
				httpx.LogInternalError(w, "db.get_collaborators.scan", err)
				return
			}
			collaborators = append(collaborators, c)
		}

		render.JSON(w, r, collaborators)
	}
}

func UpdateCollaborator(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId, ok := manageCollaborators(app, w, r)
		if !ok {
			return
		}

		var c collaboratorChange
		err := render.DecodeJSON(r.Body, &c)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if c.Role != "editor" && c.Role != "viewer" {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "collaborators.role",
				"role must be editor or viewer")
			return
		}

		res, err := app.ExecContext(r.Context(), `
			UPDATE collaborator SET role = ?
			WHERE form_id = ? AND user_id = ?`,
			c.Role,
			formId,
			c.UserID,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_collaborator", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.update_collaborator.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "update_collaborator", c.UserID)
			return
		}

		render.JSON(w, r, model.Collaborator{FormID: formId, UserID: c.UserID, Role: c.Role})
	}
}

func RemoveCollaborator(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId, ok := manageCollaborators(app, w, r)
		if !ok {
			return
		}

		var c collaboratorChange
		err := render.DecodeJSON(r.Body, &c)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		res, err := app.ExecContext(r.Context(), `
			DELETE FROM collaborator
			WHERE form_id = ? AND user_id = ?`,
			formId,
			c.UserID,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_collaborator", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.delete_collaborator.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "delete_collaborator", c.UserID)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
