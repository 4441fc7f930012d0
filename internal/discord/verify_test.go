package discord_test

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"privacyreport/backend/internal/discord"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedRouter(t *testing.T) (*gin.Engine, ed25519.PrivateKey) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	r := gin.New()
	r.POST("/interactions", discord.VerifySignature(hex.EncodeToString(publicKey)), func(c *gin.Context) {
		// Body must still be readable after verification.
		body, err := io.ReadAll(c.Request.Body)
		require.NoError(t, err)
		c.String(http.StatusOK, string(body))
	})
	return r, privateKey
}

func TestVerifySignature_AcceptsValidSignature(t *testing.T) {
	r, privateKey := signedRouter(t)

	body := `{"type":1}`
	timestamp := "1700000000"
	signature := ed25519.Sign(privateKey, []byte(timestamp+body))

	req := httptest.NewRequest(http.MethodPost, "/interactions", strings.NewReader(body))
	req.Header.Set("X-Signature-Ed25519", hex.EncodeToString(signature))
	req.Header.Set("X-Signature-Timestamp", timestamp)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, body, w.Body.String())
}

func TestVerifySignature_RejectsTamperedBody(t *testing.T) {
	r, privateKey := signedRouter(t)

	timestamp := "1700000000"
	signature := ed25519.Sign(privateKey, []byte(timestamp+`{"type":1}`))

	req := httptest.NewRequest(http.MethodPost, "/interactions", strings.NewReader(`{"type":2}`))
	req.Header.Set("X-Signature-Ed25519", hex.EncodeToString(signature))
	req.Header.Set("X-Signature-Timestamp", timestamp)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVerifySignature_RejectsWrongKey(t *testing.T) {
	r, _ := signedRouter(t)
	_, otherKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	body := `{"type":1}`
	timestamp := "1700000000"
	signature := ed25519.Sign(otherKey, []byte(timestamp+body))

	req := httptest.NewRequest(http.MethodPost, "/interactions", strings.NewReader(body))
	req.Header.Set("X-Signature-Ed25519", hex.EncodeToString(signature))
	req.Header.Set("X-Signature-Timestamp", timestamp)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVerifySignature_RejectsMissingHeaders(t *testing.T) {
	r, _ := signedRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/interactions", strings.NewReader(`{"type":1}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
