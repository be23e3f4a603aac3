package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"
	"github.com/relaydesk/relaydesk/pkg/domain/model/auth"
	"github.com/relaydesk/relaydesk/pkg/fanout"
	"github.com/relaydesk/relaydesk/pkg/usecase"
	"github.com/relaydesk/relaydesk/pkg/utils/logging"
)

type Server struct {
	router        *chi.Mux
	uc            *usecase.UseCases
	hub           *fanout.Hub
	registry      *auth.Registry
	webhookSecret string
	noAuthUser    *auth.User
}

type Options func(*Server)

// WithAuth installs the bearer-token user registry
func WithAuth(registry *auth.Registry) Options {
	return func(s *Server) {
		s.registry = registry
	}
}

// WithWebhookSecret enables HMAC signature verification on the vendor webhook
func WithWebhookSecret(secret string) Options {
	return func(s *Server) {
		s.webhookSecret = secret
	}
}

// WithNoAuthUser disables authentication and runs every request as the given
// user. Development only.
func WithNoAuthUser(user *auth.User) Options {
	return func(s *Server) {
		s.noAuthUser = user
	}
}

func New(uc *usecase.UseCases, hub *fanout.Hub, opts ...Options) (*Server, error) {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
		hub:    hub,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.registry == nil && s.noAuthUser == nil {
		return nil, goerr.New("either a user registry or a no-auth user is required")
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", handleHealth)

	// Vendor webhook - no user auth, optionally signature-verified
	r.Route("/hooks/messenger", func(r chi.Router) {
		if s.webhookSecret != "" {
			r.Use(WebhookSignatureMiddleware(s.webhookSecret))
		}
		r.Post("/", s.handleMessengerWebhook)
	})

	// Authenticated REST API
	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware(s.registry, s.noAuthUser))

		r.Route("/conversations", func(r chi.Router) {
			r.Post("/", s.handleCreateConversation)
			r.Get("/", s.handleListConversations)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetConversation)
				r.Delete("/", s.handleDeleteConversation)
				r.Post("/close", s.handleCloseConversation)
				r.Get("/messages", s.handleListMessages)
				r.Post("/messages", s.handlePostMessage)
				r.Get("/memories", s.handleListMemories)
				r.Post("/memories", s.handleCreateMemory)
				r.Delete("/memories/{memoryID}", s.handleDeleteMemory)
			})
		})
	})

	// Realtime stream - same auth, token also accepted as a query parameter
	// because browser websocket clients cannot set headers
	r.Route("/ws", func(r chi.Router) {
		r.Use(authMiddleware(s.registry, s.noAuthUser))
		r.Get("/conversations/{id}", s.handleWebSocket)
	})

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
