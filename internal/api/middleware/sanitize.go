package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/phrazzld/natours-api/internal/api/shared"
)

// Sanitizer cleans JSON request bodies before they reach handlers. Keys that
// could be read as database operators are dropped and markup is stripped
// from string values.
type Sanitizer struct {
	policy  *bluemonday.Policy
	respond shared.ErrorResponder
}

// NewSanitizer creates a Sanitizer stripping every HTML tag.
func NewSanitizer(respond shared.ErrorResponder) *Sanitizer {
	return &Sanitizer{
		policy:  bluemonday.StrictPolicy(),
		respond: respond,
	}
}

// Handler rewrites the JSON body of the request. Bodies that are not JSON
// objects or arrays are passed on untouched.
func (s *Sanitizer) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body == nil || r.Body == http.NoBody || !isJSON(r) {
			next.ServeHTTP(w, r)
			return
		}

		raw, err := io.ReadAll(r.Body)
		_ = r.Body.Close()
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				s.respond(w, r, fmt.Errorf("%w: limit is %d bytes", shared.ErrBodyTooLarge, tooLarge.Limit))
				return
			}
			s.respond(w, r, fmt.Errorf("%w: %v", shared.ErrInvalidBody, err))
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(s.Clean(raw)))
		next.ServeHTTP(w, r)
	})
}

// Clean returns the sanitized form of a JSON document. Input that does not
// parse is returned unchanged.
func (s *Sanitizer) Clean(raw []byte) []byte {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return raw
	}
	cleaned, err := json.Marshal(s.clean("", doc))
	if err != nil {
		return raw
	}
	return cleaned
}

func (s *Sanitizer) clean(key string, v any) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, child := range v {
			if isOperatorKey(k) {
				continue
			}
			out[k] = s.clean(k, child)
		}
		return out
	case []any:
		for i, child := range v {
			v[i] = s.clean(key, child)
		}
		return v
	case string:
		// Passwords are hashed, never rendered.
		if strings.Contains(strings.ToLower(key), "password") {
			return v
		}
		return s.policy.Sanitize(v)
	default:
		return v
	}
}

// isOperatorKey reports keys a document database would interpret as an
// operator or a path into a nested document.
func isOperatorKey(key string) bool {
	return strings.HasPrefix(key, "$") || strings.Contains(key, ".")
}

func isJSON(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	return err == nil && (mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"))
}
