package middleware

import (
	"bytes"
	"encoding/json"
	"html"
	"io"
	"net/http"
	"strings"

	"arcana-app/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
)

// SanitizeInput strips markup from every top-level string field of a JSON
// body. Empty bodies pass through untouched. Numbers keep their literal form.
func SanitizeInput() gin.HandlerFunc {
	policy := bluemonday.StrictPolicy()

	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			c.Next()
			return
		}

		buf, err := io.ReadAll(c.Request.Body)
		if err != nil {
			response.Message(c, http.StatusBadRequest, "Invalid body")
			return
		}
		if len(bytes.TrimSpace(buf)) == 0 {
			c.Request.Body = io.NopCloser(bytes.NewReader(buf))
			c.Next()
			return
		}

		var body map[string]interface{}
		dec := json.NewDecoder(bytes.NewReader(buf))
		dec.UseNumber()
		if err := dec.Decode(&body); err != nil {
			response.Message(c, http.StatusBadRequest, "Malformed JSON")
			return
		}

		for k, v := range body {
			if str, ok := v.(string); ok {
				body[k] = sanitizeText(policy, str)
			}
		}

		cleaned, err := json.Marshal(body)
		if err != nil {
			response.Message(c, http.StatusBadRequest, "Malformed JSON")
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(cleaned))
		c.Request.ContentLength = int64(len(cleaned))

		c.Next()
	}
}

// sanitizeText strips tags and then undoes the entity escaping of plain text,
// so "&" in URLs and quotes in names survive. Escaped brackets stay escaped.
func sanitizeText(policy *bluemonday.Policy, s string) string {
	cleaned := policy.Sanitize(s)
	if plain := html.UnescapeString(cleaned); !strings.ContainsAny(plain, "<>") {
		return plain
	}
	return cleaned
}
