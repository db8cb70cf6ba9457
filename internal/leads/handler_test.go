package leads

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepository captures created leads in memory.
type fakeRepository struct {
	created   []*Lead
	createErr error
}

func (f *fakeRepository) Create(ctx context.Context, lead *Lead) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, lead)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func postLead(repo Repository, body string) *httptest.ResponseRecorder {
	h := NewHandler(repo, testLogger())
	router := chi.NewRouter()
	h.RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodPost, "/leads", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCaptureLead_WithEmail(t *testing.T) {
	repo := &fakeRepository{}
	rec := postLead(repo, `{"email":"Ada.Lovelace@Example.COM"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, repo.created, 1)
	lead := repo.created[0]
	require.NotNil(t, lead.Email)
	assert.Equal(t, "ada.lovelace@example.com", *lead.Email)
	assert.Nil(t, lead.Phone)
	assert.Equal(t, "landing_page", lead.Source)
}

func TestCaptureLead_WithPhone(t *testing.T) {
	repo := &fakeRepository{}
	rec := postLead(repo, `{"phone":"+1 (555) 765-4321"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, repo.created, 1)
	require.NotNil(t, repo.created[0].Phone)
	assert.Equal(t, "+1 (555) 765-4321", *repo.created[0].Phone)
}

func TestCaptureLead_Validation(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: "{not json"},
		{name: "neither email nor phone", body: `{}`},
		{name: "blank fields only", body: `{"email":"  ","phone":" "}`},
		{name: "invalid email", body: `{"email":"not-an-email"}`},
		{name: "phone too short", body: `{"phone":"555123"}`},
		{name: "phone too long", body: `{"phone":"12345678901234567890"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &fakeRepository{}
			rec := postLead(repo, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, repo.created)
		})
	}
}

func TestCaptureLead_StorageFailure(t *testing.T) {
	repo := &fakeRepository{createErr: errors.New("insert failed")}
	rec := postLead(repo, `{"email":"ada@example.com"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to capture lead")
}
