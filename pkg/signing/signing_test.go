package signing_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/answear/luigisbox_sdk_go/pkg/signing"
)

var fixedTime = time.Date(2024, time.March, 5, 14, 7, 9, 0, time.FixedZone("CET", 3600))

func TestHTTPDate(t *testing.T) {
	assert.Equal(t, "Tue, 05 Mar 2024 13:07:09 GMT", signing.HTTPDate(fixedTime))
}

func TestHeadersMatchReferenceDigest(t *testing.T) {
	h := signing.Sign("pub", "secret", "POST", "/v1/content", fixedTime)

	canonical := "POST\napplication/json; charset=utf-8\nTue, 05 Mar 2024 13:07:09 GMT\n/v1/content"
	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write([]byte(canonical))
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	assert.Equal(t, signing.ContentType, h.ContentType)
	assert.Equal(t, "Tue, 05 Mar 2024 13:07:09 GMT", h.Date)
	assert.Equal(t, "luigisbox-go pub:"+want, h.Authorization)
}

func TestHeadersDeterministic(t *testing.T) {
	a := signing.Sign("pub", "secret", "GET", "/v1/update_by_query", fixedTime)
	b := signing.Sign("pub", "secret", "GET", "/v1/update_by_query", fixedTime)
	assert.Equal(t, a, b)
}

func TestHeadersSensitiveToEveryInput(t *testing.T) {
	base := signing.Sign("pub", "secret", "PATCH", "/v1/content", fixedTime)

	variants := map[string]signing.Headers{
		"public key":  signing.Sign("pub2", "secret", "PATCH", "/v1/content", fixedTime),
		"private key": signing.Sign("pub", "secret2", "PATCH", "/v1/content", fixedTime),
		"method":      signing.Sign("pub", "secret", "POST", "/v1/content", fixedTime),
		"path":        signing.Sign("pub", "secret", "PATCH", "/v1/update_by_query", fixedTime),
		"timestamp":   signing.Sign("pub", "secret", "PATCH", "/v1/content", fixedTime.Add(time.Second)),
	}
	for name, h := range variants {
		assert.NotEqual(t, base.Authorization, h.Authorization, name)
	}
}

func TestSignerClientName(t *testing.T) {
	h := signing.Signer{ClientName: "answear"}.Headers("pub", "secret", "GET", "/v1/content", fixedTime)
	client, pub, digest, err := signing.ParseAuthorization(h.Authorization)
	require.NoError(t, err)
	assert.Equal(t, "answear", client)
	assert.Equal(t, "pub", pub)
	assert.Equal(t, signing.Digest("secret", "GET", "/v1/content", signing.ContentType, h.Date), digest)
}

func TestParseAuthorizationRejectsMalformed(t *testing.T) {
	for _, header := range []string{"", "nospace", "client pubonly", "client :digest", "client pub:"} {
		_, _, _, err := signing.ParseAuthorization(header)
		assert.ErrorIs(t, err, signing.ErrInvalidAuthorization, header)
	}
}

func TestVerify(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/update_by_query?job_id=42", nil)
	signing.Sign("pub", "secret", http.MethodGet, "/v1/update_by_query", fixedTime).Apply(req.Header)

	pub, err := signing.Verify("secret", req)
	require.NoError(t, err)
	assert.Equal(t, "pub", pub)

	_, err = signing.Verify("other", req)
	assert.ErrorIs(t, err, signing.ErrSignatureMismatch)

	// Signing the query string must not verify.
	bad := httptest.NewRequest(http.MethodGet, "/v1/update_by_query?job_id=42", nil)
	signing.Sign("pub", "secret", http.MethodGet, "/v1/update_by_query?job_id=42", fixedTime).Apply(bad.Header)
	_, err = signing.Verify("secret", bad)
	assert.ErrorIs(t, err, signing.ErrSignatureMismatch)
}
