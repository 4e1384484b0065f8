// httputil/text.go
package httputil

import (
	"io"
	"net/http"
)

// WriteText writes a plain-text response. The contact surface answers in
// text/plain so that simple HTML forms can show the result directly.
func WriteText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(clampStatus(status))
	_, _ = io.WriteString(w, body)
}
