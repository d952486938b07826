package handlers

import (
	"net/http"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

// NewRouter wires every route of the service
// withAuth guards routes that require a valid access token
func NewRouter(
	auth *AuthHandler,
	prompts *PromptHandler,
	withAuth func(next http.Handler) http.Handler,
	mds ...func(next http.Handler) http.Handler,
) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/register", auth.register)
	mux.HandleFunc("POST /api/auth/login", auth.login)
	mux.HandleFunc("POST /api/auth/refresh", auth.refresh)
	mux.HandleFunc("POST /api/auth/logout", auth.logout)
	mux.Handle("GET /api/auth/me", withAuth(handleUserMe()))

	mux.Handle("GET /api/prompts", withAuth(http.HandlerFunc(prompts.list)))
	mux.Handle("GET /api/prompts/search", withAuth(http.HandlerFunc(prompts.search)))
	mux.Handle("GET /api/prompts/{id}", withAuth(http.HandlerFunc(prompts.get)))
	mux.Handle("POST /api/prompts", withAuth(http.HandlerFunc(prompts.create)))
	mux.Handle("PUT /api/prompts/{id}", withAuth(http.HandlerFunc(prompts.update)))
	mux.Handle("DELETE /api/prompts/{id}", withAuth(http.HandlerFunc(prompts.delete)))

	return chain(mux, mds...)
}
