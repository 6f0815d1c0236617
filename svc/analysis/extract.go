package analysis

import (
	"bytes"
	"encoding/json"
	"errors"
)

var fence = []byte("```")

// ExtractJSON returns the JSON document in body. Model output is often
// wrapped in a markdown code fence, optionally tagged "json", and may arrive
// as a JSON string holding such a fence; both forms are unwrapped.
func ExtractJSON(body []byte) (json.RawMessage, error) {
	doc := unfence(body)
	if !json.Valid(doc) {
		return nil, errors.Join(ErrInvalidResponse, errors.New("body is not JSON"))
	}

	var s string
	if err := json.Unmarshal(doc, &s); err == nil {
		inner := unfence([]byte(s))
		if !json.Valid(inner) || inner[0] == '"' {
			return nil, errors.Join(ErrInvalidResponse, errors.New("body is a plain string"))
		}
		doc = inner
	}
	return json.RawMessage(bytes.Clone(doc)), nil
}

func unfence(b []byte) []byte {
	b = bytes.TrimSpace(b)
	if !bytes.HasPrefix(b, fence) {
		return b
	}
	b = bytes.TrimPrefix(b, fence)
	if nl := bytes.IndexByte(b, '\n'); nl >= 0 && isLanguageTag(b[:nl]) {
		b = b[nl+1:]
	} else {
		b = bytes.TrimPrefix(b, []byte("json"))
	}
	b = bytes.TrimSpace(b)
	b = bytes.TrimSuffix(b, fence)
	return bytes.TrimSpace(b)
}

func isLanguageTag(b []byte) bool {
	b = bytes.TrimSpace(b)
	for _, c := range b {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
			return false
		}
	}
	return true
}
