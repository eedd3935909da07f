package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

var defaultCORSOrigins = []string{
	"http://localhost:3000",           // local dev
	"https://app.coldrack.io",         // dashboard
	"https://coldrack-app.vercel.app", // Vercel deployment URL
}

// DefaultOrigins returns the origins accepted by the CORS policy.
func DefaultOrigins() []string {
	out := make([]string, len(defaultCORSOrigins))
	copy(out, defaultCORSOrigins)
	return out
}

// CORS returns middleware that applies the API's allowed origin policy.
func CORS() func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   defaultCORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
