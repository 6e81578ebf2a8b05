package rest

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/junes231/funnel-editor/internal/config"
	"github.com/junes231/funnel-editor/internal/service"
	"github.com/junes231/funnel-editor/internal/transport/rest/handler"
	"github.com/junes231/funnel-editor/internal/transport/rest/middleware"
	"github.com/junes231/funnel-editor/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService     *service.AuthService
	FunnelService   *service.FunnelService
	PlaybackService *service.PlaybackService
	TrackingService *service.TrackingService
	WSHub           *ws.Hub
	CORS            config.CORSConfig
	Logger          *zap.Logger
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	funnelHandler := handler.NewFunnelHandler(c.FunnelService, c.Logger)
	playHandler := handler.NewPlayHandler(c.PlaybackService, c.Logger)
	trackHandler := handler.NewTrackHandler(c.TrackingService, c.Logger)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.FunnelService, c.Logger)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.CORS))
	r.Use(middleware.RequestLogger(c.Logger))

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Health check
	v1.HandleFunc("/health", health).Methods("GET")
	r.HandleFunc("/health", health).Methods("GET")

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.HandleFunc("/track/click", trackHandler.Click).Methods("POST", "OPTIONS")

	// Player routes (public, addressed by session id)
	v1.HandleFunc("/play/sessions/{sessionId}", playHandler.Session).Methods("GET", "OPTIONS")
	v1.HandleFunc("/play/sessions/{sessionId}/answers", playHandler.Answer).Methods("POST", "OPTIONS")
	v1.HandleFunc("/play/sessions/{sessionId}/lead", playHandler.SubmitLead).Methods("POST", "OPTIONS")
	v1.HandleFunc("/play/{funnelId}", playHandler.Funnel).Methods("GET", "OPTIONS")
	v1.HandleFunc("/play/{funnelId}/sessions", playHandler.Start).Methods("POST", "OPTIONS")

	// WebSocket routes (public with token in query param)
	v1.HandleFunc("/ws/funnels/{id}", wsHandler.EditorWS).Methods("GET")

	// Editor routes (require editor auth)
	editorRoutes := v1.NewRoute().Subrouter()
	editorRoutes.Use(authMW.RequireEditor)

	editorRoutes.HandleFunc("/templates", funnelHandler.Templates).Methods("GET", "OPTIONS")
	editorRoutes.HandleFunc("/funnels", funnelHandler.Create).Methods("POST", "OPTIONS")
	editorRoutes.HandleFunc("/funnels", funnelHandler.List).Methods("GET", "OPTIONS")
	editorRoutes.HandleFunc("/funnels/{id}", funnelHandler.Get).Methods("GET", "OPTIONS")
	editorRoutes.HandleFunc("/funnels/{id}", funnelHandler.Update).Methods("PUT", "OPTIONS")
	editorRoutes.HandleFunc("/funnels/{id}", funnelHandler.Delete).Methods("DELETE", "OPTIONS")
	editorRoutes.HandleFunc("/funnels/{id}/import", funnelHandler.Import).Methods("POST", "OPTIONS")
	editorRoutes.HandleFunc("/funnels/{id}/templates/{name}", funnelHandler.ApplyTemplate).Methods("POST", "OPTIONS")
	editorRoutes.HandleFunc("/funnels/{id}/stats", funnelHandler.Stats).Methods("GET", "OPTIONS")
	editorRoutes.HandleFunc("/funnels/{id}/leads", funnelHandler.Leads).Methods("GET", "OPTIONS")

	return r
}

func health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func corsMiddleware(cfg config.CORSConfig) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", cfg.AllowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", cfg.AllowedMethods)
			w.Header().Set("Access-Control-Allow-Headers", cfg.AllowedHeaders)

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
