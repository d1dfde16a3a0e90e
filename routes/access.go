package routes

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/oauth"

	"github.com/formlab/formlab/model"
)

// currentUser extracts the verified caller from the token claims, or nil for
// anonymous requests.
func currentUser(r *http.Request) *model.User {
	claims, ok := r.Context().Value(oauth.ClaimsContext).(map[string]string)
	if !ok {
		return nil
	}
	id, err := strconv.Atoi(claims["user_id"])
	if err != nil {
		return nil
	}
	username, _ := r.Context().Value(oauth.CredentialContext).(string)
	return &model.User{ID: id, Username: username, Role: claims["roles"]}
}

func isSuperadmin(user *model.User) bool {
	return user != nil && user.Role == model.RoleSuperadmin
}

func userID(user *model.User) *int {
	if user == nil {
		return nil
	}
	return &user.ID
}

// mayEditForm: owner, editor collaborator, or superadmin.
func mayEditForm(ctx context.Context, db *sql.DB, form model.Form, user *model.User) (bool, error) {
	if user == nil {
		return false, nil
	}
	if isSuperadmin(user) || form.OwnerID == user.ID {
		return true, nil
	}
	return isCollaborator(ctx, db, form.ID, user.ID, "editor")
}

// mayViewResults: owner, any collaborator, or superadmin.
func mayViewResults(ctx context.Context, db *sql.DB, form model.Form, user *model.User) (bool, error) {
	if user == nil {
		return false, nil
	}
	if isSuperadmin(user) || form.OwnerID == user.ID {
		return true, nil
	}
	return isCollaborator(ctx, db, form.ID, user.ID, "")
}

func isCollaborator(ctx context.Context, db *sql.DB, formID, userID int, role string) (bool, error) {
	query := `SELECT 1 FROM collaborator WHERE form_id = ? AND user_id = ?`
	args := []any{formID, userID}
	if role != "" {
		query += ` AND role = ?`
		args = append(args, role)
	}

	var found bool
	err := db.QueryRowContext(ctx, query, args...).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return found, nil
}
