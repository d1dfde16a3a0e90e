package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/formlab/formlab/app"
	"github.com/formlab/formlab/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()
	api.Use(middlewares.Identify(app.TokenSecret))

	api.Post("/register", Register(app))
	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	// anonymous access allowed; handlers check visibility themselves
	api.Get("/forms/public", PublicForms(app))
	api.Get(`/forms/{id:^\d+$}`, GetFormByID(app))
	api.Post(`/forms/{id:^\d+$}/answers`, SubmitAnswers(app))

	api.Group(func(r chi.Router) {
		r.Use(middlewares.Authenticated)

		r.Get("/me", Me(app))

		r.Post("/forms", CreateForm(app))
		r.Get("/forms/owned", OwnedForms(app))
		r.Put(`/forms/{id:^\d+$}`, UpdateForm(app))
		r.Delete(`/forms/{id:^\d+$}`, DeleteForm(app))

		r.Post(`/forms/{id:^\d+$}/questions`, AddQuestion(app))
		r.Put(`/forms/{id:^\d+$}/questions/{qid:^\d+$}`, UpdateQuestion(app))

		r.Get(`/forms/{id:^\d+$}/answers`, ListAnswers(app))
		r.Get(`/forms/{id:^\d+$}/analytics`, FormAnalytics(app))

		r.Post(`/forms/{id:^\d+$}/collaborators`, AddCollaborator(app))
		r.Get(`/forms/{id:^\d+$}/collaborators`, ListCollaborators(app))
		r.Put(`/forms/{id:^\d+$}/collaborators`, UpdateCollaborator(app))
		r.Delete(`/forms/{id:^\d+$}/collaborators`, RemoveCollaborator(app))

		r.Get("/users", ListUsers(app))
		r.Put(`/users/{id:^\d+$}`, UpdateUser(app))
		r.Delete(`/users/{id:^\d+$}`, DeleteUser(app))
	})

	return api
}
