package applicationwizard

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"formassist/internal/common/backend"
	"formassist/internal/common/backend/backendtest"
	"formassist/internal/common/errors"
	"formassist/internal/common/export"
	"formassist/internal/common/logger"
	"formassist/internal/common/storage"
	"formassist/internal/models"
	documentupload "formassist/internal/services/document-upload"
	entitymerge "formassist/internal/services/entity-merge"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helpers
// ==========================

type staticToken string

func (t staticToken) Token() string { return string(t) }

type fixture struct {
	srv       *backendtest.Server
	mr        *miniredis.Miniredis
	store     storage.Store
	notices   *errors.NoticeRecorder
	exportDir string
	svc       *Service
}

const keyPrefix = "formassist:"

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := backendtest.New(t)
	client, err := backend.NewClient(backend.Options{BaseURL: srv.URL, ValidateSchema: true})
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	log := logger.NewTestLogger(t)
	f := &fixture{
		srv:       srv,
		mr:        mr,
		store:     storage.NewRedisStore(rdb, keyPrefix),
		notices:   &errors.NoticeRecorder{},
		exportDir: t.TempDir(),
	}
	handler := errors.NewErrorHandler(log, f.notices)

	uploads, err := documentupload.NewService(documentupload.ServiceDependencies{
		Uploader: client,
		Handler:  handler,
		Logger:   log,
	}, nil)
	require.NoError(t, err)
	sink, err := export.NewDirSink(f.exportDir)
	require.NoError(t, err)

	f.svc, err = NewService(ServiceDependencies{
		Client:  client,
		Tokens:  staticToken(srv.Token),
		Store:   f.store,
		Uploads: uploads,
		Sink:    sink,
		Handler: handler,
		Logger:  log,
	}, nil)
	require.NoError(t, err)
	return f
}

// finalWizard resumes sess-1 at the final step with the form loaded.
func (f *fixture) finalWizard(t *testing.T) *Wizard {
	t.Helper()
	w, err := f.svc.Resume(context.Background(), "sess-1", StageFinal)
	require.NoError(t, err)
	_, err = w.LoadFinal(context.Background())
	require.NoError(t, err)
	return w
}

func pdfFile(name string) models.SelectedFile {
	return models.SelectedFile{Name: name, ContentType: "application/pdf", Data: []byte("%PDF-1.4")}
}

// ==========================
// Construction
// ==========================

func TestNewService(t *testing.T) {
	_, err := NewService(ServiceDependencies{Store: storage.NewMemoryStore()}, nil)
	assert.Error(t, err)

	_, err = NewService(ServiceDependencies{Client: &backend.Client{}}, nil)
	assert.Error(t, err)

	_, err = NewService(ServiceDependencies{Client: &backend.Client{}, Store: storage.NewMemoryStore()}, &Config{})
	assert.Error(t, err)

	svc, err := NewService(ServiceDependencies{Client: &backend.Client{}, Store: storage.NewMemoryStore()}, nil)
	require.NoError(t, err)
	assert.Empty(t, svc.tokens.Token())
}

// ==========================
// Start / Resume
// ==========================

func TestStart(t *testing.T) {
	f := newFixture(t)
	f.srv.RequiredDocuments = []string{"aadhaar", "caste_certificate"}

	w, err := f.svc.Start(context.Background(), "caste_certificate")
	require.NoError(t, err)

	assert.Equal(t, "sess-1", w.SessionID())
	assert.Equal(t, StageUpload, w.Stage())
	assert.Equal(t, "caste_certificate", w.FormType())
	assert.Equal(t, []string{"aadhaar", "caste_certificate"}, w.State().RequiredDocuments)

	reqs, err := f.mr.Get(keyPrefix + "session_sess-1_reqs")
	require.NoError(t, err)
	assert.JSONEq(t, `["aadhaar","caste_certificate"]`, reqs)
	form, err := f.mr.Get(keyPrefix + "session_sess-1_form")
	require.NoError(t, err)
	assert.Equal(t, "caste_certificate", form)
	assert.Equal(t, time.Duration(0), f.mr.TTL(keyPrefix+"session_sess-1_reqs"))

	calls := f.srv.CallsTo("POST", "/session/init")
	require.Len(t, calls, 1)
	assert.Equal(t, "caste_certificate", calls[0].Form["form_type"])
	assert.Equal(t, f.srv.Token, calls[0].Form["token"])
}

func TestStart_PrefillNotice(t *testing.T) {
	f := newFixture(t)
	f.srv.Prefill = map[string]interface{}{
		"full_name": backendtest.Entity("Asha Rao", 1.0, "master_profile"),
		"state":     backendtest.Entity("Maharashtra", 1.0, "master_profile"),
	}

	_, err := f.svc.Start(context.Background(), "income_certificate")
	require.NoError(t, err)

	last, ok := f.notices.Last()
	require.True(t, ok)
	assert.Equal(t, errors.SeverityInfo, last.Severity)
	assert.Equal(t, "2 fields pre-filled from your saved profile", last.Message)
}

func TestStart_Failures(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Start(context.Background(), "")
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.CodeOf(err))
	assert.Empty(t, f.srv.Calls())

	f.srv.Intercept = func(w http.ResponseWriter, r *http.Request) bool {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"Unknown form type"}`))
		return true
	}
	_, err = f.svc.Start(context.Background(), "income_certificate")
	assert.Equal(t, errors.ErrCodeBackend, errors.CodeOf(err))

	last, ok := f.notices.Last()
	require.True(t, ok)
	assert.Equal(t, "Unknown form type", last.Message)
	assert.False(t, f.mr.Exists(keyPrefix+"session_sess-1_reqs"))
}

func TestResume_DefaultsWithoutCache(t *testing.T) {
	f := newFixture(t)

	w, err := f.svc.Resume(context.Background(), "sess-9", StageUpload)
	require.NoError(t, err)

	st := w.State()
	assert.Equal(t, []string{"aadhaar", "pan"}, st.RequiredDocuments)
	assert.Empty(t, st.Completed)
	assert.Empty(t, st.FormType)
	assert.Equal(t, "application_form", w.FormType())
	assert.Empty(t, f.srv.Calls())
}

func TestResume_UsesCache(t *testing.T) {
	f := newFixture(t)
	w, err := f.svc.Start(context.Background(), "income_certificate")
	require.NoError(t, err)
	w.MarkCompleted("pan")

	again, err := f.svc.Resume(context.Background(), w.SessionID(), StageUpload)
	require.NoError(t, err)
	st := again.State()
	assert.Equal(t, "income_certificate", st.FormType)
	assert.Equal(t, []string{"aadhaar", "pan"}, st.RequiredDocuments)
	assert.Equal(t, []string{"pan"}, st.Completed)
}

func TestResume_InvalidArguments(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Resume(context.Background(), "", StageUpload)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.CodeOf(err))
	_, err = f.svc.Resume(context.Background(), "sess-1", StageSelect)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.CodeOf(err))
	_, err = f.svc.Resume(context.Background(), "sess-1", Stage(7))
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.CodeOf(err))
}

// ==========================
// Upload step
// ==========================

func TestUploadProgress(t *testing.T) {
	tests := []struct {
		name      string
		reqs      []string
		completed []string
		progress  Progress
		label     string
	}{
		{name: "nothing uploaded", reqs: []string{"aadhaar", "pan"}, progress: ProgressNone, label: "Skip for Now"},
		{name: "one of two", reqs: []string{"aadhaar", "pan"}, completed: []string{"pan"}, progress: ProgressSome, label: "Continue with Uploaded"},
		{name: "all uploaded", reqs: []string{"aadhaar", "pan"}, completed: []string{"aadhaar", "pan"}, progress: ProgressAll, label: "Proceed to Review"},
		{name: "no requirements", reqs: []string{}, progress: ProgressNone, label: "Skip for Now"},
		{name: "unlisted upload only", reqs: []string{"aadhaar"}, completed: []string{"voter_id"}, progress: ProgressSome, label: "Continue with Uploaded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			w := f.svc.newWizard(StageUpload, "sess-1", "income_certificate", tt.reqs, nil)
			for _, d := range tt.completed {
				w.MarkCompleted(d)
			}
			assert.Equal(t, tt.progress, w.Progress())
			assert.Equal(t, tt.label, w.ContinueLabel())
			require.NoError(t, w.ToReview(), "moving forward is never gated")
		})
	}
}

func TestPending(t *testing.T) {
	f := newFixture(t)
	w := f.svc.newWizard(StageUpload, "sess-1", "", []string{"aadhaar", "pan", "voter_id"}, []string{"pan"})
	assert.Equal(t, []string{"aadhaar", "voter_id"}, w.Pending())
}

func TestUploadBatch_MarksCompleted(t *testing.T) {
	f := newFixture(t)
	f.srv.UploadEntities = map[string]interface{}{"pan_number": backendtest.Entity("ABCDE1234F", 0.95, "pan")}
	w, err := f.svc.Start(context.Background(), "income_certificate")
	require.NoError(t, err)

	batch, err := w.UploadBatch("pan")
	require.NoError(t, err)
	require.NoError(t, batch.Add(pdfFile("pan.pdf")))
	_, err = batch.Upload(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"pan"}, w.State().Completed)
	assert.Equal(t, ProgressSome, w.Progress())
	assert.Equal(t, "ABCDE1234F", w.Entities()["pan_number"].Value)

	uploaded, err := f.mr.Get(keyPrefix + "session_sess-1_uploaded")
	require.NoError(t, err)
	assert.JSONEq(t, `["pan"]`, uploaded)
}

func TestUploadBatch_WrongStage(t *testing.T) {
	f := newFixture(t)
	w, err := f.svc.Resume(context.Background(), "sess-1", StageReview)
	require.NoError(t, err)

	_, err = w.UploadBatch("pan")
	assert.Equal(t, errors.ErrCodeWrongStage, errors.CodeOf(err))
	require.NoError(t, w.BackToUpload())
	_, err = w.UploadBatch("")
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.CodeOf(err))
}

// ==========================
// Review step
// ==========================

func TestReview_LoadEditFinalize(t *testing.T) {
	f := newFixture(t)
	f.srv.Entities = map[string]interface{}{
		"full_name": backendtest.Entity("Asha", 0.8, "aadhaar"),
		"district":  backendtest.Entity("Pune", 0.9, "aadhaar"),
	}
	w, err := f.svc.Resume(context.Background(), "sess-1", StageReview)
	require.NoError(t, err)

	ents, err := w.LoadEntities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Asha", ents["full_name"].Value)

	require.NoError(t, w.EditEntity("full_name", "Asha Rao"))
	edited := w.Entities()["full_name"]
	assert.Equal(t, models.SourceUserEdit, edited.Source)
	require.NotNil(t, edited.Confidence)
	assert.Equal(t, 1.0, *edited.Confidence)
	assert.Equal(t, "Edited", SourceLabel(edited))

	require.NoError(t, w.Finalize(context.Background()))
	assert.Equal(t, StageFinal, w.Stage())

	key := keyPrefix + "session_sess-1_entities"
	raw, err := f.mr.Get(key)
	require.NoError(t, err)
	var cached models.EntityMap
	require.NoError(t, json.Unmarshal([]byte(raw), &cached))
	assert.Equal(t, "Asha Rao", cached["full_name"].Value)
	assert.Equal(t, "Pune", cached["district"].Value)
	assert.Equal(t, 12*time.Hour, f.mr.TTL(key))
}

func TestReview_VoiceUpdatesMerge(t *testing.T) {
	f := newFixture(t)
	f.srv.Entities = map[string]interface{}{"full_name": backendtest.Entity("Asha", 0.8, "aadhaar")}
	w, err := f.svc.Resume(context.Background(), "sess-1", StageReview)
	require.NoError(t, err)
	_, err = w.LoadEntities(context.Background())
	require.NoError(t, err)

	updater := w.Updater()
	seq := updater.Begin()
	updater.Apply(seq, models.EntityMap{"village": {Value: "Wagholi", Source: models.SourceVoice}}, models.SourceVoice)

	ents := w.Entities()
	assert.Equal(t, "Wagholi", ents["village"].Value)
	assert.Equal(t, "Asha", ents["full_name"].Value)
	assert.Equal(t, "Voice", SourceLabel(ents["village"]))
}

func TestReview_LoadKeepsConcurrentEdit(t *testing.T) {
	f := newFixture(t)
	f.srv.Entities = map[string]interface{}{"full_name": backendtest.Entity("Server", 0.8, "aadhaar")}
	w, err := f.svc.Resume(context.Background(), "sess-1", StageReview)
	require.NoError(t, err)

	release := make(chan struct{})
	f.srv.Intercept = func(rw http.ResponseWriter, r *http.Request) bool {
		if r.URL.Path == "/session/sess-1" {
			<-release
		}
		return false
	}

	done := make(chan error, 1)
	go func() {
		_, err := w.LoadEntities(context.Background())
		done <- err
	}()
	require.Eventually(t, func() bool {
		return len(f.srv.CallsTo("GET", "/session/sess-1")) == 1
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, w.EditEntity("full_name", "Typed"))
	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, "Typed", w.Entities()["full_name"].Value)
}

func TestReview_LoadFailure(t *testing.T) {
	f := newFixture(t)
	f.srv.Intercept = func(rw http.ResponseWriter, r *http.Request) bool {
		rw.WriteHeader(http.StatusBadGateway)
		return true
	}
	w, err := f.svc.Resume(context.Background(), "sess-1", StageReview)
	require.NoError(t, err)

	_, err = w.LoadEntities(context.Background())
	assert.Error(t, err)
	last, ok := f.notices.Last()
	require.True(t, ok)
	assert.Equal(t, "Failed to load session data", last.Message)
	assert.Equal(t, StageReview, w.Stage())
}

func TestReview_WrongStage(t *testing.T) {
	f := newFixture(t)
	w, err := f.svc.Resume(context.Background(), "sess-1", StageUpload)
	require.NoError(t, err)

	_, err = w.LoadEntities(context.Background())
	assert.Equal(t, errors.ErrCodeWrongStage, errors.CodeOf(err))
	assert.Equal(t, errors.ErrCodeWrongStage, errors.CodeOf(w.EditEntity("full_name", "x")))
	assert.Equal(t, errors.ErrCodeWrongStage, errors.CodeOf(w.Finalize(context.Background())))
	assert.Empty(t, f.srv.Calls())
}

// ==========================
// Final step
// ==========================

func TestLoadFinal_OverlaysReviewedEntities(t *testing.T) {
	f := newFixture(t)
	f.srv.Final = map[string]interface{}{
		"full_name": "Server Name",
		"district":  "Pune",
		"pincode":   411001,
	}
	require.NoError(t, storage.SetJSON(context.Background(), f.store, storage.SessionEntitiesKey("sess-1"), models.EntityMap{
		"full_name": entitymerge.Edit("Asha Rao"),
		"district":  {Value: ""},
		"village":   {Value: "Wagholi", Source: models.SourceVoice},
	}, time.Hour))

	w, err := f.svc.Resume(context.Background(), "sess-1", StageFinal)
	require.NoError(t, err)
	form, err := w.LoadFinal(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.FinalForm{
		"full_name": "Asha Rao",
		"district":  "Pune",
		"pincode":   "411001",
		"village":   "Wagholi",
	}, form)

	calls := f.srv.CallsTo("POST", "/session/sess-1/finalize")
	require.Len(t, calls, 1)
	assert.Equal(t, f.srv.Token, calls[0].Form["token"])
}

func TestLoadFinal_WithoutCache(t *testing.T) {
	f := newFixture(t)
	f.srv.Final = map[string]interface{}{"full_name": "Asha"}

	w := f.finalWizard(t)
	assert.Equal(t, models.FinalForm{"full_name": "Asha"}, w.Final())
}

func TestLoadFinal_Failure(t *testing.T) {
	f := newFixture(t)
	f.srv.Intercept = func(rw http.ResponseWriter, r *http.Request) bool {
		rw.WriteHeader(http.StatusInternalServerError)
		return true
	}
	w, err := f.svc.Resume(context.Background(), "sess-1", StageFinal)
	require.NoError(t, err)

	_, err = w.LoadFinal(context.Background())
	assert.Error(t, err)
	last, ok := f.notices.Last()
	require.True(t, ok)
	assert.Equal(t, "Failed to load application data", last.Message)
	assert.Nil(t, w.Final())

	assert.Equal(t, errors.ErrCodeInvalidInput, errors.CodeOf(w.BeginEdit()))
	_, err = w.Download(context.Background())
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.CodeOf(err))
}

func TestEditCycle(t *testing.T) {
	f := newFixture(t)
	f.srv.Final = map[string]interface{}{"full_name": "Asha", "district": "Pune"}
	w := f.finalWizard(t)

	assert.Equal(t, errors.ErrCodeInvalidInput, errors.CodeOf(w.EditField("full_name", "x")), "not editing yet")

	require.NoError(t, w.BeginEdit())
	require.NoError(t, w.EditField("full_name", "Asha Rao"))
	assert.True(t, w.Editing())

	_, err := w.Download(context.Background())
	assert.Equal(t, errors.ErrCodeEditInProgress, errors.CodeOf(err))
	assert.Equal(t, errors.ErrCodeEditInProgress, errors.CodeOf(w.Print(&bytes.Buffer{})))

	w.CancelEdit()
	assert.False(t, w.Editing())
	assert.Equal(t, "Asha", w.Final()["full_name"])
	assert.Equal(t, "Asha", w.State().Edited["full_name"])

	require.NoError(t, w.BeginEdit())
	require.NoError(t, w.EditField("full_name", "Asha Rao"))
	require.NoError(t, w.Save(context.Background()))
	assert.False(t, w.Editing())
	assert.Equal(t, "Asha Rao", w.Final()["full_name"])

	last, ok := f.notices.Last()
	require.True(t, ok)
	assert.Equal(t, errors.SeveritySuccess, last.Severity)
	assert.Equal(t, "Changes saved successfully!", last.Message)

	var cached models.EntityMap
	require.NoError(t, storage.GetJSON(context.Background(), f.store, storage.SessionEntitiesKey("sess-1"), &cached))
	assert.Equal(t, "Asha Rao", cached["full_name"].Value)
	_, hasDistrict := cached["district"]
	assert.False(t, hasDistrict, "only changed fields are recorded")

	reloaded, err := w.LoadFinal(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", reloaded["full_name"])
}

func TestDownload(t *testing.T) {
	f := newFixture(t)
	f.srv.Final = map[string]interface{}{"full_name": "Asha", "pincode": "411001"}
	require.NoError(t, f.store.Set(context.Background(), storage.SessionFormKey("sess-1"), "income_certificate", 0))
	w := f.finalWizard(t)

	location, err := w.Download(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(f.exportDir, "income_certificate_sess-1.json"), location)

	data, err := os.ReadFile(location)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"full_name\": \"Asha\",\n  \"pincode\": \"411001\"\n}", string(data))

	last, ok := f.notices.Last()
	require.True(t, ok)
	assert.Equal(t, "Application data downloaded!", last.Message)
}

func TestDownload_DefaultFormType(t *testing.T) {
	f := newFixture(t)
	f.srv.Final = map[string]interface{}{"full_name": "Asha"}
	w := f.finalWizard(t)

	assert.Equal(t, "application_form_sess-1.json", w.DownloadName())
}

func TestPrint(t *testing.T) {
	f := newFixture(t)
	f.srv.Final = map[string]interface{}{
		"full_name":      "Asha Rao",
		"aadhaar_number": "1234 5678 9012",
		"annual_income":  "120000",
		"zeta_note":      "z",
	}
	require.NoError(t, f.store.Set(context.Background(), storage.SessionFormKey("session-abcdefghijk"), "income_certificate", 0))
	w, err := f.svc.Resume(context.Background(), "session-abcdefghijk", StageFinal)
	require.NoError(t, err)
	_, err = w.LoadFinal(context.Background())
	require.NoError(t, err)
	f.svc.printer.now = func() time.Time { return time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC) }

	var out bytes.Buffer
	require.NoError(t, w.Print(&out))
	text := out.String()

	assert.Contains(t, text, "GOVERNMENT OF INDIA")
	assert.Contains(t, text, "Income Certificate")
	assert.Contains(t, text, "Application Number: SESSION-ABCD")
	assert.Contains(t, text, "Date: 6/1/2026")
	assert.Contains(t, text, "Asha Rao")
	assert.Contains(t, text, "Father's Name:")
	assert.Contains(t, text, blankValue)
	assert.Contains(t, text, "DECLARATION")

	order := []string{"SECTION A", "SECTION B", "SECTION C", "SECTION D", "SECTION E", "Annual Income", "Zeta Note"}
	last := -1
	for _, marker := range order {
		idx := strings.Index(text, marker)
		require.GreaterOrEqual(t, idx, 0, marker)
		assert.Greater(t, idx, last, marker)
		last = idx
	}

	notice, ok := f.notices.Last()
	require.True(t, ok)
	assert.Equal(t, "Opening print dialog...", notice.Message)
}

func TestPrint_WrapsLongTextFields(t *testing.T) {
	address := "Flat 12, Shanti Niketan Housing Society, Near Old Bus Stand, Kothrud, Pune, Maharashtra 411038"
	p := NewPrinter(nil)
	p.now = func() time.Time { return time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC) }

	var out bytes.Buffer
	require.NoError(t, p.Render(&out, Document{
		FormType:  "income_certificate",
		SessionID: "sess-1",
		Fields:    models.FinalForm{"address": address, "district": "Pune"},
	}))

	lines := strings.Split(out.String(), "\n")
	start := -1
	for i, l := range lines {
		if l == "  Residential Address:" {
			start = i
		}
	}
	require.GreaterOrEqual(t, start, 0, out.String())

	var wrapped []string
	for _, l := range lines[start+1:] {
		if !strings.HasPrefix(l, "    ") {
			break
		}
		assert.LessOrEqual(t, len(l), pageWidth, l)
		wrapped = append(wrapped, strings.TrimSpace(l))
	}
	assert.Greater(t, len(wrapped), 1)
	assert.Equal(t, address, strings.Join(wrapped, " "))
	assert.Regexp(t, `(?m)^  District:\s+Pune$`, out.String())
}

func TestFinal_WrongStage(t *testing.T) {
	f := newFixture(t)
	w, err := f.svc.Resume(context.Background(), "sess-1", StageReview)
	require.NoError(t, err)

	_, err = w.LoadFinal(context.Background())
	assert.Equal(t, errors.ErrCodeWrongStage, errors.CodeOf(err))
	_, err = w.Download(context.Background())
	assert.Equal(t, errors.ErrCodeWrongStage, errors.CodeOf(err))
	assert.Equal(t, errors.ErrCodeWrongStage, errors.CodeOf(w.Print(&bytes.Buffer{})))
}

// ==========================
// Helpers
// ==========================

func TestSourceLabel(t *testing.T) {
	tests := []struct {
		entity models.Entity
		want   string
	}{
		{models.Entity{Value: "x", Source: models.SourceUserEdit}, "Edited"},
		{models.Entity{Value: "x", Source: models.SourceVoice}, "Voice"},
		{models.Entity{Value: "x", Source: "aadhaar"}, "AI Auto-filled"},
		{models.Entity{Value: "x"}, "AI Auto-filled"},
		{models.Entity{Source: models.SourceUserEdit}, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SourceLabel(tt.entity))
	}
}

func TestApplicationNumber(t *testing.T) {
	assert.Equal(t, "SESS-1", ApplicationNumber("sess-1"))
	assert.Equal(t, "3F2A9C1B-77D", ApplicationNumber("3f2a9c1b-77d4-4c1e-9a8f-0b1c2d3e4f5a"))
}

func TestWrap(t *testing.T) {
	lines := wrap(declaration, 40)
	for _, l := range lines {
		assert.LessOrEqual(t, len(l), 40)
	}
	assert.Equal(t, declaration, strings.Join(lines, " "))
}
