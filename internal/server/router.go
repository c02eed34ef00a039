// Package server assembles the HTTP surface of notekeeper.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"notekeeper/internal/identity"
	"notekeeper/internal/notes"
	"notekeeper/internal/ratelimit"
)

// NewRouter mounts the health check, the REST API, the HTML note page and
// the MCP endpoint. Everything except /health requires a bearer token and,
// when limiter is not nil, is throttled per principal.
func NewRouter(handler *notes.Handler, mcpSrv *mcpserver.MCPServer, tokens *identity.Tokens, limiter *ratelimit.Limiter, log *slog.Logger) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(log))
	router.Use(middleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// MCP uses POST for requests, GET for SSE streams and DELETE to end a session
	mcpHTTP := mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithHTTPContextFunc(callerContext),
	)

	router.Group(func(r chi.Router) {
		r.Use(identity.Middleware(tokens, log))
		if limiter != nil {
			r.Use(limiter.Middleware)
		}
		handler.Routes(r)

		r.Method(http.MethodPost, "/mcp", mcpHTTP)
		r.Method(http.MethodGet, "/mcp", mcpHTTP)
		r.Method(http.MethodDelete, "/mcp", mcpHTTP)
	})

	return router
}

// callerContext carries the authenticated principal into MCP tool calls.
func callerContext(ctx context.Context, r *http.Request) context.Context {
	if caller, ok := identity.FromContext(r.Context()); ok {
		return identity.WithCaller(ctx, caller)
	}
	return ctx
}

func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.Info("request",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"uri", r.RequestURI,
				"status", ww.Status(),
				"size", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}
