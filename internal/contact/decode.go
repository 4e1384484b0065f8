// internal/contact/decode.go
package contact

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/dalemusser/contactform/httputil"
	"github.com/dalemusser/contactform/internal/apperr"
)

// maxMultipartMemory bounds the in-memory part of multipart form parsing.
// Body size itself is capped by middleware.LimitBodySize.
const maxMultipartMemory = 1 << 20

type field int

const (
	fieldFullName field = iota
	fieldEmail
	fieldSubject
	fieldMessage
	fieldFromSite
)

// fieldAliases lists the accepted names for each logical field. Matching is
// case-insensitive; when a body carries more than one alias for a field, the
// earliest alias in this table wins.
var fieldAliases = []struct {
	field   field
	aliases []string
}{
	{fieldFullName, []string{"full_name", "fullname"}},
	{fieldEmail, []string{"email", "e-mail"}},
	{fieldSubject, []string{"subject"}},
	{fieldMessage, []string{"message"}},
	{fieldFromSite, []string{"from_site", "site", "website", "location"}},
}

// lookupFunc returns the raw value for an exact, lowercased alias.
type lookupFunc func(alias string) (string, bool, error)

func buildSubmission(lookup lookupFunc) (Submission, error) {
	var s Submission
	for _, fa := range fieldAliases {
		for _, alias := range fa.aliases {
			v, ok, err := lookup(alias)
			if err != nil {
				return Submission{}, err
			}
			if !ok {
				continue
			}
			s.set(fa.field, v)
			break
		}
	}
	return normalize(s)
}

func (s *Submission) set(f field, v string) {
	switch f {
	case fieldFullName:
		s.FullName = v
	case fieldEmail:
		s.Email = v
	case fieldSubject:
		s.Subject = v
	case fieldMessage:
		s.Message = v
	case fieldFromSite:
		s.FromSite = v
	}
}

// normalize trims the identity fields, fills the default subject and checks
// that the required fields are present. Subject and Message are kept as sent;
// only an absent or empty subject is replaced. It never inspects email syntax.
func normalize(s Submission) (Submission, error) {
	s.FullName = strings.TrimSpace(s.FullName)
	s.Email = strings.TrimSpace(s.Email)
	s.FromSite = strings.TrimSpace(s.FromSite)

	if s.Subject == "" {
		s.Subject = DefaultSubject
	}

	// A whitespace-only message still counts as missing.
	required := s
	required.Message = strings.TrimSpace(s.Message)
	if err := checkRequired(required); err != nil {
		return Submission{}, err
	}
	return s, nil
}

// DecodeForm builds a Submission from URL-encoded or multipart form values.
func DecodeForm(values url.Values) (Submission, error) {
	// Sort keys so that differently-cased duplicates resolve the same way
	// on every request.
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lowered := make(map[string]string, len(keys))
	for _, k := range keys {
		lk := strings.ToLower(k)
		if _, seen := lowered[lk]; seen || len(values[k]) == 0 {
			continue
		}
		lowered[lk] = values[k][0]
	}

	return buildSubmission(func(alias string) (string, bool, error) {
		v, ok := lowered[alias]
		return v, ok, nil
	})
}

// DecodeJSON builds a Submission from a JSON object body. Unknown keys are
// ignored; known keys must hold strings (null counts as absent).
func DecodeJSON(r io.Reader) (Submission, error) {
	var raw map[string]json.RawMessage
	if err := httputil.DecodeJSON(r, &raw); err != nil {
		return Submission{}, apperr.Wrap(err, apperr.Input, err.Error())
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lowered := make(map[string]json.RawMessage, len(keys))
	original := make(map[string]string, len(keys))
	for _, k := range keys {
		lk := strings.ToLower(k)
		if _, seen := lowered[lk]; seen {
			continue
		}
		lowered[lk] = raw[k]
		original[lk] = k
	}

	return buildSubmission(func(alias string) (string, bool, error) {
		msg, ok := lowered[alias]
		if !ok {
			return "", false, nil
		}
		var v *string
		if err := json.Unmarshal(msg, &v); err != nil {
			return "", false, apperr.Wrap(err, apperr.Input, "field \""+original[alias]+"\" must be a string")
		}
		if v == nil {
			return "", false, nil
		}
		return *v, true, nil
	})
}

// Decode reads a Submission from r, choosing the form or JSON path from the
// Content-Type header.
func Decode(r *http.Request) (Submission, error) {
	ct := r.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return Submission{}, apperr.Wrap(err, apperr.Unsupported,
			"Content-Type must be application/x-www-form-urlencoded, multipart/form-data or application/json")
	}

	switch {
	case mediaType == "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return Submission{}, formError(err)
		}
		return DecodeForm(r.PostForm)

	case mediaType == "multipart/form-data":
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			return Submission{}, formError(err)
		}
		return DecodeForm(r.PostForm)

	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		defer r.Body.Close()
		return DecodeJSON(r.Body)

	default:
		return Submission{}, apperr.Newf(apperr.Unsupported,
			"unsupported Content-Type %q", mediaType)
	}
}

func formError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperr.Wrap(err, apperr.Input, "request body too large")
	}
	return apperr.Wrap(err, apperr.Input, "malformed form body")
}
