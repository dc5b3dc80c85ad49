package server

import "net/http"

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Bulk executions
	mux.HandleFunc("/api/bulk", s.app.BulkHandler.SubmitHandler)                 // POST - submit a bulk job
	mux.HandleFunc("/api/bulk/executions/", s.app.BulkHandler.GetExecutionHandler) // GET /{id} - poll progress

	// API routes - Authentication (OAuth + token admin)
	mux.HandleFunc("/api/auth/status", s.app.AuthHandler.GetStatusHandler)
	mux.HandleFunc("/api/auth/refresh", s.app.AuthHandler.RefreshHandler)
	mux.HandleFunc("/api/auth/login", s.app.AuthHandler.LoginHandler)
	mux.HandleFunc("/api/auth/callback", s.app.AuthHandler.CallbackHandler)
	mux.HandleFunc("/api/auth/account", s.app.AuthHandler.SelectAccountHandler)

	// API routes - Account resources
	mux.HandleFunc("/api/pixels", s.app.AuthHandler.PixelsHandler)

	// API routes - System
	mux.HandleFunc("/api/status", s.app.StatusHandler.GetStatusHandler)
	mux.HandleFunc("/api/health", s.app.StatusHandler.HealthHandler)
	mux.HandleFunc("/api/version", s.app.StatusHandler.VersionHandler)

	return mux
}
