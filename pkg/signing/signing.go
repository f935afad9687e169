// Package signing implements the Luigi's Box HMAC request-signing scheme.
//
// The canonical string is the HTTP method, content type, HTTP date and the
// request path (without query string), joined by "\n". Its HMAC-SHA256 under
// the private key, base64 encoded, is sent as
//
//	Authorization: <client> <public key>:<digest>
//
// alongside a Date header carrying the same HTTP date.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	// ContentType is sent (and signed) with every request.
	ContentType = "application/json; charset=utf-8"
	// DefaultClientName is the label preceding the key pair in Authorization.
	DefaultClientName = "luigisbox-go"
)

var (
	// ErrInvalidAuthorization is returned by Verify for malformed headers.
	ErrInvalidAuthorization = errors.New("signing: malformed authorization header")
	// ErrSignatureMismatch is returned by Verify when the digest differs.
	ErrSignatureMismatch = errors.New("signing: signature mismatch")
)

// Clock supplies the timestamp used for signing.
type Clock func() time.Time

// SystemClock reads the wall clock.
func SystemClock() time.Time {
	return time.Now()
}

// Headers is the header set derived for a single request.
type Headers struct {
	ContentType   string
	Date          string
	Authorization string
}

// Apply writes the headers into h, replacing existing values.
func (s Headers) Apply(h http.Header) {
	h.Set("Content-Type", s.ContentType)
	h.Set("Date", s.Date)
	h.Set("Authorization", s.Authorization)
}

// Signer produces signed headers. The zero value uses DefaultClientName.
type Signer struct {
	ClientName string
}

// Headers signs method and path at the given instant. It does not read the
// clock, so equal inputs always produce equal headers.
func (s Signer) Headers(publicKey, privateKey, method, path string, at time.Time) Headers {
	date := HTTPDate(at)
	digest := Digest(privateKey, method, path, ContentType, date)
	return Headers{
		ContentType:   ContentType,
		Date:          date,
		Authorization: fmt.Sprintf("%s %s:%s", s.clientName(), publicKey, digest),
	}
}

func (s Signer) clientName() string {
	if s.ClientName == "" {
		return DefaultClientName
	}
	return s.ClientName
}

// Sign is Signer{}.Headers.
func Sign(publicKey, privateKey, method, path string, at time.Time) Headers {
	return Signer{}.Headers(publicKey, privateKey, method, path, at)
}

// HTTPDate formats t as an RFC 1123 date in GMT.
func HTTPDate(t time.Time) string {
	return t.UTC().Format(http.TimeFormat)
}

// CanonicalString returns the exact bytes covered by the signature.
func CanonicalString(method, path, contentType, date string) string {
	return strings.Join([]string{strings.ToUpper(method), contentType, date, path}, "\n")
}

// Digest computes base64(HMAC-SHA256(privateKey, canonical string)).
func Digest(privateKey, method, path, contentType, date string) string {
	mac := hmac.New(sha256.New, []byte(privateKey))
	mac.Write([]byte(CanonicalString(method, path, contentType, date)))
	return strings.TrimSpace(base64.StdEncoding.EncodeToString(mac.Sum(nil)))
}

// ParseAuthorization splits "<client> <public>:<digest>" into its parts.
func ParseAuthorization(header string) (client, publicKey, digest string, err error) {
	client, creds, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok {
		return "", "", "", ErrInvalidAuthorization
	}
	publicKey, digest, ok = strings.Cut(strings.TrimSpace(creds), ":")
	if !ok || publicKey == "" || digest == "" {
		return "", "", "", ErrInvalidAuthorization
	}
	return client, publicKey, digest, nil
}

// Verify checks a signed request the way the server does and returns the
// public key it was signed with. The caller is responsible for matching the
// public key to privateKey.
func Verify(privateKey string, r *http.Request) (string, error) {
	_, publicKey, digest, err := ParseAuthorization(r.Header.Get("Authorization"))
	if err != nil {
		return "", err
	}
	expected := Digest(privateKey, r.Method, r.URL.Path, r.Header.Get("Content-Type"), r.Header.Get("Date"))
	if !hmac.Equal([]byte(expected), []byte(digest)) {
		return publicKey, ErrSignatureMismatch
	}
	return publicKey, nil
}
