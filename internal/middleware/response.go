package middleware

import (
	"net/http"

	"github.com/go-chi/render"
)

// writeError sends the JSON error envelope shared with the handlers.
func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": msg})
}
