package backend

import (
	"context"
	"net/http"
	"testing"
	"time"

	"formassist/internal/common/backend/backendtest"
	"formassist/internal/common/errors"
	"formassist/internal/common/logger"
	"formassist/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helpers
// ==========================

func newTestClient(t *testing.T, srv *backendtest.Server) *Client {
	t.Helper()
	c, err := NewClient(Options{
		BaseURL:        srv.URL + "/",
		Timeout:        2 * time.Second,
		UploadTimeout:  2 * time.Second,
		ValidateSchema: true,
		Logger:         logger.NewTestLogger(t),
	})
	require.NoError(t, err)
	return c
}

func writeRaw(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// ==========================
// Construction
// ==========================

func TestNewClient(t *testing.T) {
	_, err := NewClient(Options{})
	assert.Error(t, err)

	c, err := NewClient(Options{BaseURL: "http://localhost:8000/"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", c.BaseURL())
}

// ==========================
// Session Endpoints
// ==========================

func TestInitSession(t *testing.T) {
	srv := backendtest.New(t)
	srv.Prefill = map[string]interface{}{"name": backendtest.Entity("Asha", 1.0, "master_profile")}
	c := newTestClient(t, srv)

	resp, err := c.InitSession(context.Background(), "income_certificate", srv.Token)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", resp.SessionID)
	assert.Equal(t, []string{"aadhaar", "pan"}, resp.RequiredDocuments)
	assert.Equal(t, 1, resp.PrefilledCount)

	calls := srv.CallsTo("POST", "/session/init")
	require.Len(t, calls, 1)
	assert.Equal(t, "income_certificate", calls[0].Form["form_type"])
	assert.Equal(t, srv.Token, calls[0].Form["token"])
	assert.NotEmpty(t, calls[0].RequestID)
}

func TestInitSession_Anonymous(t *testing.T) {
	srv := backendtest.New(t)
	srv.RequiredDocuments = nil
	c := newTestClient(t, srv)

	resp, err := c.InitSession(context.Background(), "birth_certificate", "")
	require.NoError(t, err)
	assert.Equal(t, 0, resp.PrefilledCount)
	assert.NotNil(t, resp.RequiredDocuments)

	call := srv.CallsTo("POST", "/session/init")[0]
	_, hasToken := call.Form["token"]
	assert.False(t, hasToken)
}

func TestInitSession_SchemaMismatch(t *testing.T) {
	srv := backendtest.New(t)
	srv.Intercept = func(w http.ResponseWriter, r *http.Request) bool {
		writeRaw(w, http.StatusOK, `{"message":"ok"}`)
		return true
	}
	c := newTestClient(t, srv)

	_, err := c.InitSession(context.Background(), "income_certificate", "")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSchemaMismatch, errors.CodeOf(err))
}

func TestGetSession_MixedEntityShapes(t *testing.T) {
	srv := backendtest.New(t)
	srv.Entities = map[string]interface{}{
		"name": backendtest.Entity("Asha Rao", 0.92, "aadhaar"),
		"age":  34,
	}
	c := newTestClient(t, srv)

	entities, err := c.GetSession(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", entities["name"].Value)
	assert.Equal(t, "aadhaar", entities["name"].Source)
	require.NotNil(t, entities["name"].Confidence)
	assert.InDelta(t, 0.92, *entities["name"].Confidence, 1e-9)
	assert.Equal(t, "34", entities["age"].Value)
}

func TestGetSession_BackendError(t *testing.T) {
	srv := backendtest.New(t)
	srv.Intercept = func(w http.ResponseWriter, r *http.Request) bool {
		writeRaw(w, http.StatusNotFound, `{"detail":"Session not found"}`)
		return true
	}
	c := newTestClient(t, srv)

	_, err := c.GetSession(context.Background(), "missing")
	stdErr, ok := errors.AsStandard(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeBackend, stdErr.Code)
	assert.Equal(t, "Session not found", stdErr.Message)
	assert.False(t, stdErr.Retryable)
}

func TestUploadDocument(t *testing.T) {
	srv := backendtest.New(t)
	srv.UploadEntities = map[string]interface{}{"pan_number": backendtest.Entity("ABCDE1234F", 0.88, "pan")}
	c := newTestClient(t, srv)

	resp, err := c.UploadDocument(context.Background(), "sess-1", "aadhaar", []models.SelectedFile{
		{Name: "front.jpg", ContentType: "image/jpeg", Data: []byte("front")},
		{Name: "back.png", ContentType: "image/png", Data: []byte("back")},
	})
	require.NoError(t, err)
	assert.Equal(t, "ABCDE1234F", resp.CurrentEntities["pan_number"].Value)

	call := srv.CallsTo("POST", "/session/sess-1/upload")[0]
	assert.Equal(t, "aadhaar", call.Form["document_type"])
	require.Len(t, call.Files, 2)
	types := map[string]string{}
	for _, f := range call.Files {
		assert.Equal(t, "files", f.Field)
		types[f.Name] = f.ContentType
	}
	assert.Equal(t, "image/jpeg", types["front.jpg"])
	assert.Equal(t, "image/png", types["back.png"])
}

func TestUploadDocument_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		detail  string
		wantMsg string
	}{
		{name: "server detail carried", status: http.StatusBadRequest, detail: "Unreadable document", wantMsg: "Unreadable document"},
		{name: "generic message without detail", status: http.StatusInternalServerError, wantMsg: "Upload failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := backendtest.New(t)
			srv.UploadStatus = tt.status
			srv.UploadDetail = tt.detail
			c := newTestClient(t, srv)

			_, err := c.UploadDocument(context.Background(), "sess-1", "pan", []models.SelectedFile{
				{Name: "pan.pdf", ContentType: "application/pdf", Data: []byte("%PDF")},
			})
			stdErr, ok := errors.AsStandard(err)
			require.True(t, ok)
			assert.Equal(t, errors.ErrCodeUploadFailed, stdErr.Code)
			assert.Equal(t, tt.wantMsg, stdErr.Message)
		})
	}
}

func TestUploadDocument_NetworkFailure(t *testing.T) {
	srv := backendtest.New(t)
	c := newTestClient(t, srv)
	srv.Close()

	_, err := c.UploadDocument(context.Background(), "sess-1", "pan", []models.SelectedFile{
		{Name: "pan.pdf", ContentType: "application/pdf", Data: []byte("%PDF")},
	})
	stdErr, ok := errors.AsStandard(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeUploadFailed, stdErr.Code)
	assert.Equal(t, "Upload failed", stdErr.Message)
}

func TestUploadDocument_EmptyBatch(t *testing.T) {
	srv := backendtest.New(t)
	c := newTestClient(t, srv)

	_, err := c.UploadDocument(context.Background(), "sess-1", "pan", nil)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.CodeOf(err))
	assert.Empty(t, srv.Calls())
}

func TestUploadVoice(t *testing.T) {
	srv := backendtest.New(t)
	srv.VoiceTranscript = "my name is Asha"
	srv.VoiceUpdates = map[string]interface{}{"name": backendtest.Entity("Asha", 0.7, "voice")}
	c := newTestClient(t, srv)

	resp, err := c.UploadVoice(context.Background(), "sess-1", []byte("RIFF"))
	require.NoError(t, err)
	assert.Equal(t, "my name is Asha", resp.Transcription)
	assert.Equal(t, "voice", resp.CurrentState["name"].Source)

	call := srv.CallsTo("POST", "/session/sess-1/voice")[0]
	require.Len(t, call.Files, 1)
	assert.Equal(t, "file", call.Files[0].Field)
	assert.Equal(t, "input.wav", call.Files[0].Name)
	assert.Equal(t, "audio/wav", call.Files[0].ContentType)
}

func TestFinalize_StringifiesValues(t *testing.T) {
	srv := backendtest.New(t)
	srv.Final = map[string]interface{}{"name": "Asha", "age": 34, "married": false, "note": nil}
	c := newTestClient(t, srv)

	final, err := c.Finalize(context.Background(), "sess-1", srv.Token)
	require.NoError(t, err)
	assert.Equal(t, models.FinalForm{"name": "Asha", "age": "34", "married": "false", "note": ""}, final)
	assert.Equal(t, srv.Token, srv.CallsTo("POST", "/session/sess-1/finalize")[0].Form["token"])
}

func TestListForms(t *testing.T) {
	srv := backendtest.New(t)
	c := newTestClient(t, srv)

	forms, err := c.ListForms(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"income_certificate", "caste_certificate"}, forms)
}

// ==========================
// Auth Endpoints
// ==========================

func TestLogin(t *testing.T) {
	srv := backendtest.New(t)
	c := newTestClient(t, srv)

	tok, err := c.Login(context.Background(), srv.Email, srv.Password)
	require.NoError(t, err)
	assert.Equal(t, srv.Token, tok.AccessToken)
	assert.Equal(t, "bearer", tok.TokenType)

	call := srv.CallsTo("POST", "/token")[0]
	assert.Equal(t, srv.Email, call.Form["username"])
	assert.Equal(t, srv.Password, call.Form["password"])
	assert.Empty(t, call.Authorization)
}

func TestLogin_WrongPasswordIsNotAuthRejection(t *testing.T) {
	srv := backendtest.New(t)
	c := newTestClient(t, srv)

	_, err := c.Login(context.Background(), srv.Email, "wrong")
	stdErr, ok := errors.AsStandard(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeBackend, stdErr.Code)
	assert.Equal(t, "Incorrect username or password", stdErr.Message)
}

func TestRegister(t *testing.T) {
	srv := backendtest.New(t)
	c := newTestClient(t, srv)
	name := "Ravi"

	user, err := c.Register(context.Background(), models.RegisterRequest{Email: "ravi@example.in", Password: "pw", FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, "ravi@example.in", user.Email)
	assert.Equal(t, "Ravi", user.DisplayName())

	_, err = c.Register(context.Background(), models.RegisterRequest{Email: srv.Email, Password: "pw"})
	stdErr, ok := errors.AsStandard(err)
	require.True(t, ok)
	assert.Equal(t, "Email already registered", stdErr.Message)
}

func TestMe(t *testing.T) {
	srv := backendtest.New(t)
	c := newTestClient(t, srv)

	user, err := c.Me(context.Background(), srv.Token)
	require.NoError(t, err)
	assert.Equal(t, srv.Email, user.Email)
	assert.Equal(t, "Bearer "+srv.Token, srv.CallsTo("GET", "/users/me")[0].Authorization)
}

func TestAuthenticatedCalls_RejectedToken(t *testing.T) {
	srv := backendtest.New(t)
	c := newTestClient(t, srv)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
	}{
		{name: "me", call: func() error { _, err := c.Me(ctx, "stale"); return err }},
		{name: "update profile", call: func() error { _, err := c.UpdateProfile(ctx, "stale", "x"); return err }},
		{name: "change password", call: func() error { _, err := c.ChangePassword(ctx, "stale", "a", "b"); return err }},
		{name: "dashboard stats", call: func() error { _, err := c.DashboardStats(ctx, "stale"); return err }},
		{name: "delete application", call: func() error { _, err := c.DeleteApplication(ctx, "stale", 1); return err }},
		{name: "update profile field", call: func() error { _, err := c.UpdateProfileField(ctx, "stale", "name", "x"); return err }},
		{name: "clear profile", call: func() error { _, err := c.ClearProfile(ctx, "stale"); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			assert.True(t, errors.IsAuthError(err), "got %v", err)
		})
	}
}

func TestAuthenticatedCalls_WithoutToken(t *testing.T) {
	srv := backendtest.New(t)
	c := newTestClient(t, srv)

	_, err := c.Me(context.Background(), "")
	assert.Equal(t, errors.ErrCodeNotAuthenticated, errors.CodeOf(err))
	_, err = c.DashboardStats(context.Background(), "")
	assert.Equal(t, errors.ErrCodeNotAuthenticated, errors.CodeOf(err))
	assert.Empty(t, srv.Calls())
}

func TestChangePassword(t *testing.T) {
	srv := backendtest.New(t)
	c := newTestClient(t, srv)

	_, err := c.ChangePassword(context.Background(), srv.Token, "nope", "new")
	stdErr, ok := errors.AsStandard(err)
	require.True(t, ok)
	assert.Equal(t, "Incorrect old password", stdErr.Message)

	msg, err := c.ChangePassword(context.Background(), srv.Token, "secret", "new-secret")
	require.NoError(t, err)
	assert.Equal(t, "Password updated successfully", msg)
	assert.Equal(t, "new-secret", srv.Password)
}

// ==========================
// Dashboard Endpoints
// ==========================

func TestDashboardStats(t *testing.T) {
	srv := backendtest.New(t)
	srv.Stats = map[string]interface{}{
		"saved_fields_count":        2,
		"active_applications_count": 1,
		"recent_activities": []interface{}{
			map[string]interface{}{"id": 7, "form_type": "income_certificate", "status": "in_progress", "created_at": "2024-03-01T10:15:00.123456"},
		},
		"stored_data": []interface{}{
			map[string]interface{}{"entity_key": "name", "value": "Asha", "source": "aadhaar", "last_updated": "2024-03-01T10:15:00"},
		},
	}
	c := newTestClient(t, srv)

	stats, err := c.DashboardStats(context.Background(), srv.Token)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.SavedFieldsCount)
	require.Len(t, stats.RecentActivities, 1)
	assert.Equal(t, int64(7), stats.RecentActivities[0].ID)
	assert.Equal(t, 2024, stats.RecentActivities[0].CreatedAt.Year())
	assert.Equal(t, "name", stats.StoredData[0].EntityKey)
}

func TestDeleteApplication(t *testing.T) {
	srv := backendtest.New(t)
	c := newTestClient(t, srv)

	msg, err := c.DeleteApplication(context.Background(), srv.Token, 12)
	require.NoError(t, err)
	assert.Equal(t, "Application deleted", msg)
	assert.Len(t, srv.CallsTo("DELETE", "/dashboard/application/12"), 1)

	_, err = c.DeleteApplication(context.Background(), srv.Token, 404)
	stdErr, ok := errors.AsStandard(err)
	require.True(t, ok)
	assert.Equal(t, "Application not found", stdErr.Message)
}

func TestUpdateProfileField(t *testing.T) {
	srv := backendtest.New(t)
	c := newTestClient(t, srv)

	resp, err := c.UpdateProfileField(context.Background(), srv.Token, "father_name", "Mohan")
	require.NoError(t, err)
	assert.Equal(t, "father_name", resp.Key)
	assert.Equal(t, "Mohan", resp.Value)

	_, err = c.UpdateProfileField(context.Background(), srv.Token, "", "x")
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.CodeOf(err))
}

func TestClearProfile(t *testing.T) {
	srv := backendtest.New(t)
	c := newTestClient(t, srv)

	msg, err := c.ClearProfile(context.Background(), srv.Token)
	require.NoError(t, err)
	assert.Equal(t, "Cleared 3 profile entries", msg)
}

// ==========================
// Error Detail Extraction
// ==========================

func TestExtractDetail(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "string detail", body: `{"detail":"Bad token"}`, want: "Bad token"},
		{name: "validation list", body: `{"detail":[{"msg":"field required"},{"msg":"too short"}]}`, want: "field required; too short"},
		{name: "no detail", body: `{"error":"x"}`, want: ""},
		{name: "not json", body: `<html>`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractDetail([]byte(tt.body)))
		})
	}
}

func TestSchemaValidationDisabled(t *testing.T) {
	srv := backendtest.New(t)
	srv.Intercept = func(w http.ResponseWriter, r *http.Request) bool {
		writeRaw(w, http.StatusOK, `{"forms":["a"],"extra":1}`)
		return true
	}
	c, err := NewClient(Options{BaseURL: srv.URL})
	require.NoError(t, err)

	forms, err := c.ListForms(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, forms)
}
