package filter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/mikey/form-spam-filter/internal/core"
)

var errUnsupportedContentType = errors.New("unsupported content type")

// decodePayload reads a submission body. JSON objects keep numbers as
// json.Number; form encodings keep the last value of a repeated field
// unless its name ends in "[]". The bool result reports whether the body
// was JSON.
func decodePayload(r *http.Request, maxMemory int64) (core.Payload, bool, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil, false, errUnsupportedContentType
	}

	switch mediaType {
	case "application/json":
		p, err := decodeJSON(r.Body)
		return p, true, err
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, false, unwrapBodyError(err, "invalid form body")
		}
		return fromValues(r.PostForm), false, nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			return nil, false, unwrapBodyError(err, "invalid multipart body")
		}
		return fromValues(r.MultipartForm.Value), false, nil
	default:
		return nil, false, errUnsupportedContentType
	}
}

func decodeJSON(body io.Reader) (core.Payload, error) {
	dec := json.NewDecoder(body)
	dec.UseNumber()

	var p core.Payload
	if err := dec.Decode(&p); err != nil {
		return nil, unwrapBodyError(err, "invalid JSON body")
	}
	if p == nil {
		return nil, errors.New("JSON body must be an object")
	}
	if dec.More() {
		return nil, errors.New("invalid JSON body: trailing data")
	}
	return p, nil
}

// fromValues maps form values to a payload. Only "name[]" fields become
// lists; any other repeated field keeps its last value, so a field the
// classifier inspects is always a plain string.
func fromValues(values url.Values) core.Payload {
	p := make(core.Payload, len(values))
	for k, vs := range values {
		switch {
		case strings.HasSuffix(k, "[]"):
			list := make([]any, len(vs))
			for i, v := range vs {
				list[i] = v
			}
			p[k] = list
		case len(vs) == 0:
			p[k] = ""
		default:
			p[k] = vs[len(vs)-1]
		}
	}
	return p
}

// unwrapBodyError keeps size-limit errors recognisable and replaces
// everything else with a client-facing message
func unwrapBodyError(err error, message string) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return fmt.Errorf("%s: %w", message, err)
}
