package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	gorillahandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pliu/entradas/internal/auth"
	"github.com/pliu/entradas/internal/config"
	"github.com/pliu/entradas/internal/handlers"
	"github.com/pliu/entradas/internal/middleware"
	"github.com/pliu/entradas/internal/store"
	"github.com/pliu/entradas/internal/store/sqlstore"
)

func main() {
	cfg, err := config.Load(os.Args[1:], os.Getenv)
	if err != nil {
		log.Fatal("invalid configuration", "err", err)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		log.Fatal("invalid log settings", "err", err)
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", "err", err)
	}
}

func newLogger(cfg config.LogConfig) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           level,
	})
	if cfg.Format == "json" {
		logger.SetFormatter(log.JSONFormatter)
	}
	return logger, nil
}

func run(cfg *config.Config, logger *log.Logger) error {
	st, err := sqlstore.New(cfg.Database.Driver, cfg.Database.DSN,
		sqlstore.WithLogger(logger.WithPrefix("store")),
		sqlstore.WithSelfPurchase(cfg.Marketplace.AllowSelfPurchase),
	)
	if err != nil {
		return err
	}
	defer st.Close()
	logger.Info("database ready", "driver", cfg.Database.Driver)

	secret := []byte(cfg.Session.Secret)
	if len(secret) == 0 {
		if secret, err = auth.RandomSecret(); err != nil {
			return err
		}
		logger.Warn("no session secret configured; sessions will not survive a restart")
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(cfg, st, auth.NewSigner(secret), logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "addr", cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newRouter(cfg *config.Config, st store.Store, signer *auth.Signer, logger *log.Logger) http.Handler {
	authHandler := &handlers.AuthHandler{Store: st, Signer: signer, Logger: logger, SecureCookies: cfg.Session.Secure}
	entryHandler := &handlers.EntryHandler{Store: st, Logger: logger}
	messageHandler := &handlers.MessageHandler{Store: st, Logger: logger}
	statsHandler := &handlers.StatsHandler{Store: st, Logger: logger}

	r := mux.NewRouter()
	r.Use(middleware.LoggingMiddleware(logger))

	api := r.PathPrefix("/api").Subrouter()

	// Users
	api.HandleFunc("/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/login", authHandler.Login).Methods("POST")
	api.HandleFunc("/logout", authHandler.Logout).Methods("POST")
	api.HandleFunc("/users/{id}", authHandler.GetUser).Methods("GET")
	api.HandleFunc("/users/{id}", authHandler.UpdateUser).Methods("PUT")
	api.Handle("/session", middleware.AuthMiddleware(signer)(http.HandlerFunc(authHandler.Session))).Methods("GET")
	if cfg.Debug {
		api.HandleFunc("/debug/users", authHandler.DebugUsers).Methods("GET")
	}

	// Entries
	api.HandleFunc("/entries", entryHandler.CreateEntry).Methods("POST")
	api.HandleFunc("/entries", entryHandler.ListEntries).Methods("GET")
	api.HandleFunc("/entries/{id}", entryHandler.GetEntry).Methods("GET")
	api.HandleFunc("/entries/{id}", entryHandler.UpdateEntry).Methods("PUT")
	api.HandleFunc("/entries/{id}", entryHandler.DeleteEntry).Methods("DELETE")
	api.HandleFunc("/entries/{id}/comprar", entryHandler.Purchase).Methods("POST")

	// Messages
	api.HandleFunc("/messages", messageHandler.SendMessage).Methods("POST")
	api.HandleFunc("/messages/marcar-leidos", messageHandler.MarkRead).Methods("POST")
	api.HandleFunc("/messages/{entryId}/{user1}/{user2}", messageHandler.ListConversation).Methods("GET")
	api.HandleFunc("/conversaciones/{userId}", messageHandler.ListConversations).Methods("GET")

	// Stats
	api.HandleFunc("/stats", statsHandler.Summary).Methods("GET")
	api.HandleFunc("/stats/registrations", statsHandler.Registrations).Methods("GET")
	api.HandleFunc("/stats/entradas-publicadas", statsHandler.EntriesPosted).Methods("GET")
	api.HandleFunc("/stats/entradas-vendidas", statsHandler.EntriesSold).Methods("GET")
	api.HandleFunc("/stats/mensajes", statsHandler.Messages).Methods("GET")
	api.HandleFunc("/stats/conversaciones", statsHandler.Conversations).Methods("GET")

	// Serve the frontend entry page
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, filepath.Join(cfg.StaticDir, cfg.IndexFile))
	})

	// Serve static files, uncached for CSS and JS
	static := http.FileServer(http.Dir(cfg.StaticDir))
	r.PathPrefix("/").Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ".css") || strings.HasSuffix(r.URL.Path, ".js") {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
			w.Header().Set("Pragma", "no-cache")
			w.Header().Set("Expires", "0")
		}
		static.ServeHTTP(w, r)
	}))

	cors := gorillahandlers.CORS(
		gorillahandlers.AllowedOrigins(cfg.CORS.AllowedOrigins),
		gorillahandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorillahandlers.AllowedHeaders([]string{"Content-Type", middleware.RequestIDHeader}),
	)
	return cors(r)
}
