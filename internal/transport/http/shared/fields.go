package shared

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
)

var ErrUnsupportedPayload = errors.New("unsupported payload")

// Fields holds flat request inputs regardless of how they were posted.
type Fields map[string]string

func (f Fields) Get(key string) string {
	return strings.TrimSpace(f[key])
}

// ReadFields accepts a flat JSON object or an HTML form body. JSON numbers
// and booleans are kept in their literal text form.
func ReadFields(r *http.Request) (Fields, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		if len(raw) == 0 {
			return Fields{}, nil
		}
		var payload map[string]json.RawMessage
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedPayload, err)
		}
		out := make(Fields, len(payload))
		for key, value := range payload {
			if string(value) == "null" {
				continue
			}
			var s string
			if err := json.Unmarshal(value, &s); err == nil {
				out[key] = s
				continue
			}
			out[key] = string(value)
		}
		return out, nil
	case "application/x-www-form-urlencoded", "multipart/form-data", "":
		if err := r.ParseMultipartForm(1 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedPayload, err)
		}
		out := make(Fields, len(r.PostForm))
		for key := range r.PostForm {
			out[key] = r.PostForm.Get(key)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: content type %q", ErrUnsupportedPayload, mediaType)
	}
}
