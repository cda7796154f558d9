package engine

import (
	"strings"

	"github.com/ohler55/ojg/oj"
)

// PrepareJSON is a PrepareBody hook that encodes any body that is not
// already a string or []byte as JSON, and sets a JSON Content-Type when the
// handler did not set one. Values that cannot be encoded are left as they
// are and fail delivery with ErrInvalidResponse.
func PrepareJSON(body any, headers map[string]string) any {
	switch body.(type) {
	case nil, string, []byte:
		return body
	}

	data, err := oj.Marshal(body)
	if err != nil {
		return body
	}
	if headers != nil && !hasHeader(headers, "Content-Type") {
		headers["Content-Type"] = "application/json"
	}
	return data
}

func hasHeader(headers map[string]string, name string) bool {
	for k := range headers {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}
