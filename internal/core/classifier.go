package core

import (
	"encoding/json"
	"math"
	"reflect"
	"strings"
)

// EmailField is the payload key inspected for a disposable address
const EmailField = "email"

// Classifier flags honeypot and disposable-address submissions.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	domains DomainSet
}

// NewClassifier creates a classifier over a read-only domain set
func NewClassifier(domains DomainSet) *Classifier {
	return &Classifier{domains: domains}
}

// Classify decides whether a payload is spam. The honeypot check always
// runs first; the disposable-domain check only runs when it did not fire.
func (c *Classifier) Classify(payload Payload, honeypotField string) Verdict {
	if v, ok := payload[honeypotField]; ok && IsTruthy(v) {
		return Verdict{IsSpam: true, SpamReason: ReasonHoneypot}
	}

	if domain, ok := EmailDomain(payload); ok && c.domains != nil && c.domains.Contains(domain) {
		return Verdict{IsSpam: true, SpamReason: ReasonDisposableEmail}
	}

	return Verdict{}
}

// EmailDomain returns the lower-cased part after the first '@' of the
// payload's email value. It reports false when the value is missing,
// not a string, or has no '@'. The domain may be empty.
func EmailDomain(payload Payload) (string, bool) {
	email, ok := payload[EmailField].(string)
	if !ok {
		return "", false
	}
	_, domain, found := strings.Cut(email, "@")
	if !found {
		return "", false
	}
	return strings.ToLower(domain), true
}

// StripHoneypotField returns a copy of payload without the honeypot key.
// The input is never modified.
func StripHoneypotField(payload Payload, honeypotField string) Payload {
	cleaned := make(Payload, len(payload))
	for k, v := range payload {
		if k == honeypotField {
			continue
		}
		cleaned[k] = v
	}
	return cleaned
}

// IsTruthy reports whether a decoded form value counts as filled in.
// Strings must be non-empty, numbers non-zero (NaN is false) and booleans
// true. Nil values are false. Every other present value is true,
// including empty lists and objects.
func IsTruthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f != 0 && !math.IsNaN(f)
		}
		return t != ""
	case float64:
		return t != 0 && !math.IsNaN(t)
	case float32:
		return t != 0 && !math.IsNaN(float64(t))
	case int:
		return t != 0
	case int64:
		return t != 0
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f != 0 && !math.IsNaN(f)
	case reflect.String:
		return rv.Len() > 0
	case reflect.Bool:
		return rv.Bool()
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return !rv.IsNil()
	}
	return true
}
