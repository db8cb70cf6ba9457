package http

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func signParams(authToken, url string, params map[string]string, order []string) string {
	data := url
	for _, k := range order {
		data += k + params[k]
	}
	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestValidateTwilioSignature(t *testing.T) {
	const authToken = "12345"
	const url = "https://mycompany.com/myapp.php?foo=1&bar=2"
	params := map[string]string{
		"CallSid": "CA1234567890ABCDE",
		"Caller":  "+12349013030",
		"Digits":  "1234",
		"From":    "+12349013030",
		"To":      "+18005551212",
	}
	signature := signParams(authToken, url, params, []string{"CallSid", "Caller", "Digits", "From", "To"})

	assert.True(t, ValidateTwilioSignature(authToken, signature, url, params))
}

func TestValidateTwilioSignature_SortsParameterKeys(t *testing.T) {
	const authToken = "token"
	const url = "https://example.com/api/sms/webhook/twilio"
	params := map[string]string{"Body": "hi", "AccountSid": "AC1", "From": "+15551112222"}
	// Expected concatenation order is lexicographic regardless of map order.
	signature := signParams(authToken, url, params, []string{"AccountSid", "Body", "From"})

	assert.True(t, ValidateTwilioSignature(authToken, signature, url, params))
}

func TestValidateTwilioSignature_Rejections(t *testing.T) {
	const authToken = "token"
	const url = "https://example.com/api/sms/webhook/twilio"
	params := map[string]string{"Body": "hi"}
	signature := signParams(authToken, url, params, []string{"Body"})

	assert.False(t, ValidateTwilioSignature("other-token", signature, url, params))
	assert.False(t, ValidateTwilioSignature(authToken, signature, url, map[string]string{"Body": "tampered"}))
	assert.False(t, ValidateTwilioSignature(authToken, signature, "https://evil.example.com/", params))
	assert.False(t, ValidateTwilioSignature(authToken, "", url, params))
	assert.False(t, ValidateTwilioSignature("", signature, url, params))
}
