package middleware

import (
	"bytes"
	"encoding/base64"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Verifier interface {
	Verify(payload, sig []byte) error
}

// CallbackVerify checks the gateway's RSA-SHA256 signature on HTTP payment
// callbacks. The signature covers the raw request body and travels in
// X-Gateway-Signature (base64).
func CallbackVerify(v Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		sigB64 := c.GetHeader("X-Gateway-Signature")
		if sigB64 == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing signature"})
			return
		}
		sig, err := base64.StdEncoding.DecodeString(sigB64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid signature encoding"})
			return
		}

		raw, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(raw))

		if err := v.Verify(raw, sig); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "signature rejected"})
			return
		}
		c.Next()
	}
}
