package httpadapter

import (
	"encoding/base64"
	"net/http"
	"strings"
)

// decodeBase64MaybeDataURL accepts a bare base64 string or a full
// data:<mime>;base64,<payload> URI and returns the bytes plus the MIME hint
// from the prefix, if any.
func decodeBase64MaybeDataURL(s string) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	var hintMime string
	if strings.HasPrefix(s, "data:") {
		if idx := strings.IndexByte(s, ','); idx > 0 {
			meta := s[len("data:"):idx]
			if semi := strings.IndexByte(meta, ';'); semi >= 0 {
				hintMime = meta[:semi]
			} else {
				hintMime = meta
			}
			s = s[idx+1:]
		}
	}

	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, hintMime, nil
	} else if b2, err2 := base64.URLEncoding.DecodeString(s); err2 == nil {
		return b2, hintMime, nil
	} else {
		return nil, "", err
	}
}

// pickMime prefers the data-URI hint and falls back on content sniffing.
func pickMime(hint string, data []byte) string {
	if h := strings.TrimSpace(hint); h != "" {
		return h
	}
	if len(data) > 0 {
		return http.DetectContentType(data)
	}
	return "image/jpeg"
}
