package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS allows browser clients on the given origins to fetch previews. With
// no origins it returns next unchanged.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodHead,
			http.MethodPost,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"Range",
		},
		ExposedHeaders: []string{
			CacheStatusHeader,
			"X-Preview-Builder",
			"Content-Length",
		},
		MaxAge: 300,
	})
	return c.Handler
}
