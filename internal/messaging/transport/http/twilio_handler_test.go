package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/entiremind/backend/internal/messaging/app"
	"github.com/entiremind/backend/internal/messaging/domain"
)

func twilioForm(body string) url.Values {
	form := url.Values{}
	form.Set("MessageSid", "SM1234567890")
	form.Set("AccountSid", "AC123")
	form.Set("From", "+15557654321")
	form.Set("To", "+15550001111")
	form.Set("Body", body)
	return form
}

func postTwilioWebhook(h *TwilioWebhookHandler, form url.Values, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/sms/webhook/twilio", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if signature != "" {
		req.Header.Set("X-Twilio-Signature", signature)
	}
	rec := httptest.NewRecorder()
	h.HandleWebhook(rec, req)
	return rec
}

func TestParseTwilioWebhookPayload(t *testing.T) {
	payload := ParseTwilioWebhookPayload(twilioForm("hello"))
	require.NotNil(t, payload)
	assert.Equal(t, "SM1234567890", payload.MessageSid)
	assert.Equal(t, "hello", payload.Body)

	// An empty Body is a valid SMS: presence matters, not content.
	payload = ParseTwilioWebhookPayload(twilioForm(""))
	require.NotNil(t, payload)
	assert.Equal(t, "", payload.Body)

	for _, missing := range []string{"MessageSid", "AccountSid", "From", "To", "Body"} {
		form := twilioForm("hello")
		form.Del(missing)
		assert.Nil(t, ParseTwilioWebhookPayload(form), "payload without %s should be rejected", missing)
	}
}

func TestTwilioWebhook_MissingFields(t *testing.T) {
	repo := new(MockMessageRepository)
	h := NewTwilioWebhookHandler(newTestRecorder(repo, new(MockUserDirectory)), "token", false, testLogger())

	form := twilioForm("hello")
	form.Del("From")
	rec := postTwilioWebhook(h, form, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid payload")
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestTwilioWebhook_GenericMessageStoredVerbatim(t *testing.T) {
	userID := uuid.New()
	users := new(MockUserDirectory)
	users.On("FindUserIDByPhone", mock.Anything, "+15557654321").Return(userID, nil).Once()

	const body = "  Slept badly, stressful day ahead  "
	repo := new(MockMessageRepository)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(msg *domain.Message) bool {
		return msg.UserID == userID &&
			msg.Direction == domain.DirectionInbound &&
			msg.Provider == domain.ProviderTwilio &&
			msg.Status == domain.MessageStatusReceived &&
			msg.Text == body &&
			msg.ExternalMessageID != nil && *msg.ExternalMessageID == "SM1234567890"
	})).Return(uuid.New(), nil).Once()

	h := NewTwilioWebhookHandler(newTestRecorder(repo, users), "token", false, testLogger())
	rec := postTwilioWebhook(h, twilioForm(body), "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/xml", rec.Header().Get("Content-Type"))
	assert.Equal(t, EmptyTwiML(), rec.Body.String())
	repo.AssertExpectations(t)
}

func TestTwilioWebhook_StopKeywordVariants(t *testing.T) {
	for _, body := range []string{"STOP", " stop ", "Unsubscribe", "QUIT"} {
		t.Run(body, func(t *testing.T) {
			users := new(MockUserDirectory)
			users.On("FindUserIDByPhone", mock.Anything, mock.Anything).Return(uuid.New(), nil).Once()

			repo := new(MockMessageRepository)
			repo.On("Create", mock.Anything, mock.MatchedBy(func(msg *domain.Message) bool {
				return msg.Text == body && msg.Status == domain.MessageStatusReceived
			})).Return(uuid.New(), nil).Once()

			h := NewTwilioWebhookHandler(newTestRecorder(repo, users), "token", false, testLogger())
			rec := postTwilioWebhook(h, twilioForm(body), "")

			// The record is kept; the reply envelope stays empty because Twilio
			// sends the opt-out confirmation itself.
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, EmptyTwiML(), rec.Body.String())
			repo.AssertExpectations(t)
		})
	}
}

func TestTwilioWebhook_HelpKeywordRepliesWithSupportText(t *testing.T) {
	users := new(MockUserDirectory)
	users.On("FindUserIDByPhone", mock.Anything, mock.Anything).Return(uuid.New(), nil).Once()
	repo := new(MockMessageRepository)
	repo.On("Create", mock.Anything, mock.Anything).Return(uuid.New(), nil).Once()

	h := NewTwilioWebhookHandler(newTestRecorder(repo, users), "token", false, testLogger())
	rec := postTwilioWebhook(h, twilioForm("help"), "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/xml", rec.Header().Get("Content-Type"))
	assert.Equal(t, TwiML(app.HelpResponse), rec.Body.String())
	assert.Contains(t, rec.Body.String(), "support@entiremind.com")
	repo.AssertExpectations(t)
}

func TestTwilioWebhook_UnknownSenderStillAcked(t *testing.T) {
	users := new(MockUserDirectory)
	users.On("FindUserIDByPhone", mock.Anything, mock.Anything).Return(uuid.Nil, domain.ErrUnknownSender).Once()
	repo := new(MockMessageRepository)

	h := NewTwilioWebhookHandler(newTestRecorder(repo, users), "token", false, testLogger())
	rec := postTwilioWebhook(h, twilioForm("who is this"), "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, EmptyTwiML(), rec.Body.String())
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestTwilioWebhook_SignatureEnforcedInProduction(t *testing.T) {
	const authToken = "prod-auth-token"
	form := twilioForm("hello")

	newHandler := func(repo *MockMessageRepository, users *MockUserDirectory) *TwilioWebhookHandler {
		return NewTwilioWebhookHandler(newTestRecorder(repo, users), authToken, true, testLogger())
	}

	t.Run("missing signature", func(t *testing.T) {
		repo := new(MockMessageRepository)
		h := newHandler(repo, new(MockUserDirectory))
		rec := postTwilioWebhook(h, form, "")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Missing signature")
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("invalid signature", func(t *testing.T) {
		repo := new(MockMessageRepository)
		h := newHandler(repo, new(MockUserDirectory))
		rec := postTwilioWebhook(h, form, "bm90LWEtcmVhbC1zaWduYXR1cmU=")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid signature")
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("valid signature", func(t *testing.T) {
		users := new(MockUserDirectory)
		users.On("FindUserIDByPhone", mock.Anything, mock.Anything).Return(uuid.New(), nil).Once()
		repo := new(MockMessageRepository)
		repo.On("Create", mock.Anything, mock.Anything).Return(uuid.New(), nil).Once()

		// httptest requests carry host example.com over plain HTTP.
		params := map[string]string{}
		for key := range form {
			params[key] = form.Get(key)
		}
		signature := signParams(authToken, "http://example.com/api/sms/webhook/twilio", params,
			[]string{"AccountSid", "Body", "From", "MessageSid", "To"})

		h := newHandler(repo, users)
		rec := postTwilioWebhook(h, form, signature)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, EmptyTwiML(), rec.Body.String())
		repo.AssertExpectations(t)
	})
}

func TestTwilioWebhook_SignatureSkippedOutsideProduction(t *testing.T) {
	users := new(MockUserDirectory)
	users.On("FindUserIDByPhone", mock.Anything, mock.Anything).Return(uuid.New(), nil).Once()
	repo := new(MockMessageRepository)
	repo.On("Create", mock.Anything, mock.Anything).Return(uuid.New(), nil).Once()

	h := NewTwilioWebhookHandler(newTestRecorder(repo, users), "token", false, testLogger())
	// No signature header at all, still processed.
	rec := postTwilioWebhook(h, twilioForm("hello"), "")

	assert.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
}

func TestTwilioWebhook_StorageFailureStillAcked(t *testing.T) {
	users := new(MockUserDirectory)
	users.On("FindUserIDByPhone", mock.Anything, mock.Anything).Return(uuid.New(), nil).Once()
	repo := new(MockMessageRepository)
	repo.On("Create", mock.Anything, mock.Anything).Return(uuid.Nil, errors.New("insert failed")).Once()

	h := NewTwilioWebhookHandler(newTestRecorder(repo, users), "token", false, testLogger())
	rec := postTwilioWebhook(h, twilioForm("hello"), "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, EmptyTwiML(), rec.Body.String())
}

func TestTwilioWebhook_Verification(t *testing.T) {
	h := NewTwilioWebhookHandler(newTestRecorder(new(MockMessageRepository), new(MockUserDirectory)), "token", false, testLogger())
	req := httptest.NewRequest(http.MethodGet, "/api/sms/webhook/twilio", nil)
	rec := httptest.NewRecorder()

	h.HandleVerification(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","provider":"twilio"}`, rec.Body.String())
}
