package middleware

import (
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = "whsec_" + base64.StdEncoding.EncodeToString([]byte("webhook-signing-key"))

func signedRequest(v *WebhookVerifier, body string, ts time.Time) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook", strings.NewReader(body))
	stamp := strconv.FormatInt(ts.Unix(), 10)
	req.Header.Set(HeaderWebhookID, "msg_1")
	req.Header.Set(HeaderWebhookTimestamp, stamp)
	req.Header.Set(HeaderWebhookSignature, "v1,bogus v1,"+v.sign("msg_1", stamp, []byte(body)))
	return req
}

func TestVerifyWebhook(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	v := NewWebhookVerifier(testSecret)
	v.now = func() time.Time { return now }
	body := `{"type":"user.created","data":{"id":"user_1"}}`

	run := func(req *http.Request) (string, error) {
		var got string
		c := echo.New().NewContext(req, httptest.NewRecorder())
		err := VerifyWebhook(v)(func(c echo.Context) error {
			b, _ := io.ReadAll(c.Request().Body)
			got = string(b)
			return nil
		})(c)
		return got, err
	}

	t.Run("valid signature passes and body is restored", func(t *testing.T) {
		got, err := run(signedRequest(v, body, now.Add(-time.Minute)))
		require.NoError(t, err)
		assert.Equal(t, body, got)
	})

	rejected := map[string]*http.Request{
		"stale timestamp":  signedRequest(v, body, now.Add(-6*time.Minute)),
		"future timestamp": signedRequest(v, body, now.Add(6*time.Minute)),
	}
	tampered := signedRequest(v, body, now)
	tampered.Body = io.NopCloser(strings.NewReader(strings.Replace(body, "user_1", "user_2", 1)))
	rejected["tampered body"] = tampered
	unsigned := signedRequest(v, body, now)
	unsigned.Header.Del(HeaderWebhookSignature)
	rejected["missing signature"] = unsigned

	for name, req := range rejected {
		t.Run(name, func(t *testing.T) {
			_, err := run(req)
			var he *echo.HTTPError
			require.ErrorAs(t, err, &he)
			assert.Equal(t, http.StatusUnauthorized, he.Code)
		})
	}
}

func TestNewWebhookVerifierAcceptsRawSecret(t *testing.T) {
	withPrefix := NewWebhookVerifier(testSecret)
	bare := NewWebhookVerifier(strings.TrimPrefix(testSecret, "whsec_"))
	assert.Equal(t, withPrefix.key, bare.key)
	assert.Equal(t, []byte("webhook-signing-key"), bare.key)
}
