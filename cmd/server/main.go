package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/listkeep/listkeep/internal/auth"
	"github.com/listkeep/listkeep/internal/middleware"
	"github.com/listkeep/listkeep/internal/service"
	"github.com/listkeep/listkeep/internal/storage/sqlite"
	"github.com/listkeep/listkeep/pkg/logging"
)

const (
	sessionLifetime = 24 * time.Hour
	defaultTimeout  = 15 * time.Second
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	logging.Setup()

	port := getEnv("PORT", "8080")
	dbPath := getEnv("DB_PATH", "./data/listkeep.db")
	secret := getEnv("SESSION_SECRET", "")
	corsOrigins := strings.Split(getEnv("CORS_ORIGINS", "http://localhost:5173"), ",")
	secureCookies := getEnv("APP_ENV", "development") == "production"

	if secret == "" {
		secret = "dev-secret-change-me-in-production"
		slog.Warn("SESSION_SECRET not set, using insecure development secret")
	}

	// Initialize SQLite storage
	store, err := sqlite.New(dbPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", dbPath)

	authenticator := auth.NewPasswordAuthenticator(store)
	sessions := auth.NewSessionManager(store, secret, sessionLifetime)

	authSvc := service.NewAuthService(authenticator, sessions, secureCookies, slog.Default())
	listSvc := service.NewListService(store)
	friendSvc := service.NewFriendService(store)

	requireAuth := middleware.RequireAuth(sessions)

	// Metrics wraps inside the mux so the matched route pattern is
	// available as a label.
	public := func(h http.HandlerFunc) http.Handler {
		return middleware.Metrics(h)
	}
	protected := func(h http.HandlerFunc) http.Handler {
		return middleware.Metrics(requireAuth(h))
	}

	mux := http.NewServeMux()

	mux.Handle("GET /{$}", public(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "Welcome to the Listkeep server")
	}))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.Handle("POST /register", public(authSvc.HandleRegister))
	mux.Handle("POST /login", public(authSvc.HandleLogin))
	// Logout stays unauthenticated so logging out twice cannot fail.
	mux.Handle("POST /logout", public(authSvc.HandleLogout))

	mux.Handle("GET /lists", protected(listSvc.HandleLists))
	mux.Handle("GET /lists/{listId}", protected(listSvc.HandleGetList))
	mux.Handle("POST /lists", protected(listSvc.HandleCreate))
	mux.Handle("PUT /lists", protected(listSvc.HandleReconcile))
	mux.Handle("DELETE /lists/{listId}", protected(listSvc.HandleDeleteList))
	mux.Handle("DELETE /lists/{listId}/{itemId}", protected(listSvc.HandleDeleteItem))

	mux.Handle("GET /friends", protected(friendSvc.HandleFriends))
	mux.Handle("POST /friends", protected(friendSvc.HandleAction))

	handler := middleware.Logging(
		middleware.CORS(corsOrigins)(
			middleware.Timeout(defaultTimeout)(mux),
		),
	)

	// Wrap with h2c for HTTP/2 without TLS
	h2cHandler := h2c.NewHandler(handler, &http2.Server{})

	addr := ":" + port
	slog.Info("Server starting", "address", addr, "cors_origins", corsOrigins)
	if err := http.ListenAndServe(addr, h2cHandler); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
