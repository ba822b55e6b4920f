package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter assembles the API route tree. Auth and health endpoints are
// public; entry endpoints require a valid bearer token.
func NewRouter(authHandler *AuthHandler, entryHandler *EntryHandler, jwtSecret []byte) *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
	api.HandleFunc("/health", healthHandler).Methods("GET")

	protected := api.PathPrefix("").Subrouter()
	protected.Use(AuthMiddleware(jwtSecret))

	protected.HandleFunc("/entries", entryHandler.List).Methods("GET")
	protected.HandleFunc("/entries/{id}", entryHandler.Upsert).Methods("PUT")

	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	Success(w, map[string]string{"status": "ok"})
}
