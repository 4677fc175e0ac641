// internal/server/router.go
//
// HTTP 路由註冊。所有端點同時掛在 /api/v1 與根路徑下。

package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Router 建立並回傳整個 HTTP 處理鏈。
func (s *Server) Router() http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.RequestID)
	root.Use(s.requestLogger)
	root.Use(middleware.Recoverer)

	root.Mount("/api/v1", s.v1())
	root.Mount("/", s.v1())
	return root
}

// v1 定義 API v1 路由：
//
//	GET  /health
//	POST /signup
//	POST /login
//	GET  /accounts/{id}
//	GET  /accounts/{id}/transactions
//	GET  /accounts/{id}/summary
//	POST /accounts/{id}/transfers
func (s *Server) v1() chi.Router {
	r := chi.NewRouter()
	r.Get("/health", s.health)
	r.Post("/signup", s.signup)
	r.Post("/login", s.login)
	r.Route("/accounts/{id}", func(r chi.Router) {
		r.Get("/", s.account)
		r.Get("/transactions", s.transactions)
		r.Get("/summary", s.summary)
		r.Post("/transfers", s.transfer)
	})
	return r
}

// requestLogger 以 slog 記錄每個請求的方法、路徑、狀態碼與耗時。
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.LogAttrs(r.Context(), slog.LevelInfo, "http request",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
		)
	})
}
