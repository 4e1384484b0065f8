// httputil/json.go
package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// WriteJSON writes v as JSON with the given status code. Encoding failures
// happen after the status line is sent, so they can only be logged.
//
// Invalid status codes (outside 100-599) are clamped to 500.
func WriteJSON(w http.ResponseWriter, status int, v any, logger *zap.Logger) {
	status = clampStatus(status)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil && logger != nil {
		logger.Error("json encoding failed after headers sent",
			zap.String("type", fmt.Sprintf("%T", v)),
			zap.Error(err))
	}
}

// DecodeJSON decodes a single JSON value from r into v. Unknown fields are
// allowed. Errors are rewritten into messages safe to return to clients.
func DecodeJSON(r io.Reader, v any) error {
	if r == nil {
		return errors.New("request body is empty")
	}

	dec := json.NewDecoder(r)
	if err := dec.Decode(v); err != nil {
		return parseJSONError(err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON value")
	}
	return nil
}

// parseJSONError converts json decoding errors into user-friendly messages.
func parseJSONError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, io.EOF) {
		return errors.New("request body is empty")
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Errorf("malformed JSON at position %d", syntaxErr.Offset)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if typeErr.Field == "" {
			return errors.New("request body must be a JSON object")
		}
		return fmt.Errorf("invalid value for field %q: expected %s", typeErr.Field, typeErr.Type.String())
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errors.New("request body too large")
	}

	if errors.Is(err, io.ErrUnexpectedEOF) || strings.Contains(err.Error(), "unexpected EOF") {
		return errors.New("malformed JSON: unexpected end of body")
	}

	return errors.New("invalid JSON in request body")
}

func clampStatus(status int) int {
	if status < 100 || status > 599 {
		return http.StatusInternalServerError
	}
	return status
}
