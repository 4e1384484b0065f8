// middleware/sizelimit.go
package middleware

import (
	"net/http"
)

// LimitBodySize caps request bodies at maxBytes; 0 or less disables the cap.
// A request that declares a larger Content-Length is refused with 413 before
// the handler runs. Bodies without a declared length are wrapped in
// http.MaxBytesReader, and the decoder reports the overflow.
func LimitBodySize(maxBytes int64) func(next http.Handler) http.Handler {
	if maxBytes <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				w.Header().Set("Connection", "close")
				writePlain(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
