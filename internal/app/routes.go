package app

import (
	"github.com/gorilla/mux"
	"github.com/paihq/pai/pkg/document"
	"github.com/paihq/pai/pkg/google"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// User
	r.HandleFunc("/api/user", deps.UserHandler.CreateUser).Methods("POST")
	r.HandleFunc("/api/user/name-availability", deps.UserHandler.IsUsernameAvailable).Methods("GET").Queries("username", "{username}")
	r.HandleFunc("/api/user/current", deps.UserHandler.CurrentUser).Methods("GET")
	r.HandleFunc("/api/user/current", deps.UserHandler.UpdateUser).Methods("PUT")
	r.HandleFunc("/api/user/current", deps.UserHandler.DeleteUser).Methods("DELETE")
	r.HandleFunc("/api/user/current/token", deps.UserHandler.RotateToken).Methods("POST")

	// Records
	document.RegisterRoutes(r, deps.DocumentHandler)

	// Stats
	r.HandleFunc("/api/stats/finance", deps.StatsHandler.GetFinanceStats).Methods("GET")

	// Google
	google.RegisterRoutes(r, deps.GoogleAuth, deps.GoogleHandler)
}
