package discord

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// VerifySignature checks the ed25519 signature Discord attaches to every
// interaction delivery before any handler runs. The raw body is restored on
// the request so downstream binding still works.
func VerifySignature(publicKeyHex string) gin.HandlerFunc {
	publicKey, err := hex.DecodeString(publicKeyHex)
	return func(c *gin.Context) {
		if err != nil || len(publicKey) != ed25519.PublicKeySize {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "interaction verification misconfigured"})
			return
		}

		signature, sigErr := hex.DecodeString(c.GetHeader("X-Signature-Ed25519"))
		timestamp := c.GetHeader("X-Signature-Timestamp")
		if sigErr != nil || len(signature) != ed25519.SignatureSize || timestamp == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Bad request signature"})
			return
		}

		body, readErr := io.ReadAll(c.Request.Body)
		if readErr != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		if !ed25519.Verify(publicKey, append([]byte(timestamp), body...), signature) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Bad request signature"})
			return
		}
		c.Next()
	}
}
