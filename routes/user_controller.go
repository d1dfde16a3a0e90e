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

func requireSuperadmin(w http.ResponseWriter, r *http.Request) bool {
	if !isSuperadmin(currentUser(r)) {
		httpx.LogStatus(w, http.StatusForbidden, log.DebugLevel, "users.access")
		return false
	}
	return true
}

func ListUsers(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireSuperadmin(w, r) {
			return
		}

		rows, err := app.QueryContext(r.Context(), `
			SELECT id, username, email, role FROM user`)
		if err != nil {
			httpx.LogInternalError(w, "db.get_users", err)
			return
		}
		defer rows.Close()

		users := []model.User{}
		for rows.Next() {
			u := model.User{}
			err = rows.Scan(&u.ID, &u.Username, &u.Email, &u.Role)
			if err != nil {
				httpx.LogInternalError(w, "db.get_users.scan", err)
				return
			}
			users = append(users, u)
		}

		render.JSON(w, r, users)
	}
}

func UpdateUser(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireSuperadmin(w, r) {
			return
		}

		targetId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		var upd struct {
			Username *string `json:"username"`
			Email    *string `json:"email"`
		}
		err = render.DecodeJSON(r.Body, &upd)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		u := model.User{}
		err = app.QueryRowContext(r.Context(), `
			SELECT id, username, email, role FROM user WHERE id = ?`,
			targetId,
		).Scan(&u.ID, &u.Username, &u.Email, &u.Role)
		if err != nil {
			httpx.LogNotFound(w, "update_user", targetId)
			return
		}

		if upd.Username != nil {
			u.Username = *upd.Username
		}
		if upd.Email != nil {
			u.Email = *upd.Email
		}

		_, err = app.ExecContext(r.Context(), `
			UPDATE user SET username = ?, email = ? WHERE id = ?`,
			u.Username,
			u.Email,
			targetId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_user", err)
			return
		}

		render.JSON(w, r, u)
	}
}

func DeleteUser(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireSuperadmin(w, r) {
			return
		}

		targetId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		res, err := app.ExecContext(r.Context(), `DELETE FROM user WHERE id = ?`, targetId)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_user", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.delete_user.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "delete_user", targetId)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
