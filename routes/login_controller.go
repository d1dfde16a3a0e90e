package routes

import (
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-chi/render"
	"golang.org/x/crypto/bcrypt"

	"github.com/formlab/formlab/app"
	"github.com/formlab/formlab/httpx"
	"github.com/formlab/formlab/log"
	"github.com/formlab/formlab/model"
)

type registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func Register(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var reg registration
		err := render.DecodeJSON(r.Body, &reg)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if reg.Username == "" || reg.Email == "" || reg.Password == "" {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "register.fields",
				"username, email and password are required")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
		if err != nil {
			httpx.LogInternalError(w, "register.hash", err)
			return
		}

		var id int
		err = app.QueryRowContext(r.Context(), `
			INSERT INTO user (username, email, password_hash, role) VALUES (?, ?, ?, ?)
			RETURNING id`,
			reg.Username,
			reg.Email,
			string(hash),
			model.RoleUser,
		).Scan(&id)
		if err != nil {
			httpx.LogStatusMsg(w, http.StatusConflict, log.DebugLevel, "register.insert",
				"username or email already taken")
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": id,
		})
	}
}

func Login(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok {
			// also accept credentials as a JSON body
			var reg registration
			if err := render.DecodeJSON(r.Body, &reg); err != nil || reg.Username == "" {
				httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "login.credentials")
				return
			}
			user, pass = reg.Username, reg.Password
		}

		body := url.Values{
			"grant_type": {"password"},
			"username":   {user},
			"password":   {pass},
		}
		r.Body = io.NopCloser(strings.NewReader(body.Encode()))
		r.Header.Set("content-type", "application/x-www-form-urlencoded")
		r.Header.Set("content-length", strconv.Itoa(len(body.Encode())))
		app.UserCredentials(w, r)
	}
}

var reRefreshToken = regexp.MustCompile(`(?i)^refresh\s+(.*)`)

func Refresh(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("authorization")
		match := reRefreshToken.FindStringSubmatch(auth)
		if len(match) == 0 {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "refresh.token")
			return
		}
		token := match[1]

		body := url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {token},
		}

		req, err := http.NewRequest("POST", "/", strings.NewReader(body.Encode()))
		if err != nil {
			httpx.LogStatus(w, http.StatusInternalServerError, log.DebugLevel, "refresh.new_request")
			return
		}
		req.Header.Set("content-type", "application/x-www-form-urlencoded")
		req.Header.Set("content-length", strconv.Itoa(len(body.Encode())))

		resp := httpx.NewResponseBuffer()
		app.UserCredentials(resp, req)
		resp.Flush(w)
	}
}

func Me(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)

		u := model.User{}
		err := app.QueryRowContext(r.Context(), `
			SELECT id, username, email, role FROM user WHERE id = ?`,
			user.ID,
		).Scan(&u.ID, &u.Username, &u.Email, &u.Role)
		if err != nil {
			httpx.LogInternalError(w, "db.get_me", err)
			return
		}

		render.JSON(w, r, u)
	}
}
