package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/resumectl/internal/auth"
	"github.com/starford/resumectl/internal/resumeservice"
)

// EventsHandler builds the per-user server-sent events endpoint.
type EventsHandler interface {
	Handler(usernameOf func(*http.Request) string) http.HandlerFunc
}

// NewRouter creates a chi router with all API routes mounted.
// Routes under /users/{username} require a bearer token issued to that user.
// events, if non-nil, is mounted at GET /users/{username}/events.
func NewRouter(svc *resumeservice.Service, tokens *auth.Tokens, events EventsHandler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()

	r.Post("/auth/register", h.Register)
	r.Post("/auth/signin", h.SignIn)
	r.Get("/sections", h.ListSections)

	r.Route("/users/{username}", func(r chi.Router) {
		r.Use(AuthMiddleware(tokens))
		r.Use(RequireSameUser)

		r.Patch("/", h.UpdateUser)
		r.Delete("/", h.DeleteUser)
		r.Get("/contact-info", h.GetContactInfo)
		r.Put("/contact-info", h.PutContactInfo)

		// Documents and their sections.
		r.Get("/documents", h.ListDocuments)
		r.Post("/documents", h.CreateDocument)
		r.Get("/documents/{documentId}", h.GetDocument)
		r.Patch("/documents/{documentId}", h.UpdateDocument)
		r.Delete("/documents/{documentId}", h.DeleteDocument)
		r.Put("/documents/{documentId}/sections", h.ReorderSections)
		r.Post("/documents/{documentId}/sections/{sectionId}", h.AttachSection)
		r.Delete("/documents/{documentId}/sections/{sectionId}", h.DetachSection)

		educationRoutes(svc).mount(r)
		experienceRoutes(svc).mount(r)
		skillRoutes(svc).mount(r)

		// Text snippets.
		r.Get("/text-snippets", h.ListTextSnippets)
		r.Get("/text-snippets/{snippetId}/versions", h.ListTextSnippetVersions)
		r.Patch("/text-snippets/{snippetId}", h.UpdateTextSnippet)
		r.Delete("/text-snippets/{snippetId}", h.DeleteTextSnippet)
		r.Route("/documents/{documentId}/experiences/{experienceId}/text-snippets", func(r chi.Router) {
			r.Get("/", h.ListExperienceTextSnippets)
			r.Post("/", h.CreateTextSnippet)
			r.Put("/", h.ReorderTextSnippets)
			r.Post("/{snippetId}", h.AttachTextSnippet)
			r.Delete("/{snippetId}", h.DetachTextSnippet)
		})

		if events != nil {
			r.Get("/events", events.Handler(username))
		}
	})

	return r
}
