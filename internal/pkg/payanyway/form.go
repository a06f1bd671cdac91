package payanyway

import (
	"bytes"
	"net/url"
)

// ParseForm splits a form-urlencoded body into two views of the same fields:
// raw values exactly as transmitted (no percent-decoding) and decoded values.
// The processor signs the undecoded bytes, so the verifier must see the raw
// view; everything downstream consumes the decoded one.
//
// Malformed pairs (no '=') are skipped. A garbage body yields two empty
// maps and no error: verification fails downstream, which is the correct
// rejection path.
func ParseForm(body []byte) (raw, decoded map[string]string) {
	raw = make(map[string]string)
	decoded = make(map[string]string)

	for _, pair := range bytes.Split(body, []byte("&")) {
		if len(pair) == 0 {
			continue
		}
		idx := bytes.IndexByte(pair, '=')
		if idx < 0 {
			continue
		}
		key, err := url.QueryUnescape(string(pair[:idx]))
		if err != nil || key == "" {
			continue
		}

		rawValue := string(pair[idx+1:])
		raw[key] = rawValue

		if value, err := url.QueryUnescape(rawValue); err == nil {
			decoded[key] = value
		}
	}

	return raw, decoded
}
