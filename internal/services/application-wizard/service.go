// Package applicationwizard drives one application through its four steps:
// service selection, document upload, review and the final official form.
package applicationwizard

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"formassist/internal/common/errors"
	"formassist/internal/common/export"
	"formassist/internal/common/logger"
	"formassist/internal/common/storage"
	"formassist/internal/models"
	documentupload "formassist/internal/services/document-upload"
	entitymerge "formassist/internal/services/entity-merge"
	"formassist/pkg/registry"
)

type Service struct {
	config  *Config
	client  SessionClient
	tokens  TokenSource
	store   storage.Store
	uploads *documentupload.Service
	sink    export.Sink
	catalog *registry.Catalog
	printer *Printer
	handler *errors.ErrorHandler
	logger  logger.Logger
}

type anonymous struct{}

func (anonymous) Token() string { return "" }

func NewService(deps ServiceDependencies, config *Config) (*Service, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if deps.Client == nil {
		return nil, fmt.Errorf("session client is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if deps.Tokens == nil {
		deps.Tokens = anonymous{}
	}
	if deps.Catalog == nil {
		deps.Catalog = registry.Default()
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNoOpLogger()
	}
	if deps.Handler == nil {
		deps.Handler = errors.NewErrorHandler(deps.Logger, nil)
	}

	return &Service{
		config:  config,
		client:  deps.Client,
		tokens:  deps.Tokens,
		store:   deps.Store,
		uploads: deps.Uploads,
		sink:    deps.Sink,
		catalog: deps.Catalog,
		printer: NewPrinter(deps.Catalog),
		handler: deps.Handler,
		logger:  deps.Logger.WithFields(map[string]interface{}{"component": "application-wizard"}),
	}, nil
}

// Start opens a backend session for formType and moves to the upload step.
// The required documents and form type are cached under the session id.
func (s *Service) Start(ctx context.Context, formType string) (*Wizard, error) {
	if formType == "" {
		return nil, s.handler.Handle("wizard.start", errors.NewInvalidInputError("form type", "form type is required"))
	}

	resp, err := s.client.InitSession(ctx, formType, s.tokens.Token())
	if err != nil {
		return nil, s.handler.Handle("wizard.start", err)
	}

	reqs := append([]string{}, resp.RequiredDocuments...)
	s.persist(ctx, func(ctx context.Context) error {
		return storage.SetJSON(ctx, s.store, storage.SessionRequirementsKey(resp.SessionID), reqs, 0)
	}, storage.SessionRequirementsKey(resp.SessionID))
	s.persist(ctx, func(ctx context.Context) error {
		return s.store.Set(ctx, storage.SessionFormKey(resp.SessionID), formType, 0)
	}, storage.SessionFormKey(resp.SessionID))

	s.logger.Info("Session started", map[string]interface{}{
		"sessionId":         resp.SessionID,
		"formType":          formType,
		"requiredDocuments": reqs,
		"prefilledCount":    resp.PrefilledCount,
	})
	if resp.PrefilledCount > 0 {
		s.handler.Info(fmt.Sprintf("%d fields pre-filled from your saved profile", resp.PrefilledCount), s.config.NoticeDismiss)
	}

	return s.newWizard(StageUpload, resp.SessionID, formType, reqs, nil), nil
}

// Resume reopens an existing session at stage. Cached requirements are used
// when present, otherwise the catalog fallback for the form type.
func (s *Service) Resume(ctx context.Context, sessionID string, stage Stage) (*Wizard, error) {
	if sessionID == "" {
		return nil, errors.NewInvalidInputError("session", "session id is required")
	}
	if stage < StageUpload || stage > StageFinal {
		return nil, errors.NewInvalidInputError("stage", fmt.Sprintf("cannot resume at %s", stage))
	}

	formType, err := s.store.Get(ctx, storage.SessionFormKey(sessionID))
	if err != nil {
		s.warnUnlessMissing(err, storage.SessionFormKey(sessionID))
		formType = ""
	}

	var reqs []string
	if err := storage.GetJSON(ctx, s.store, storage.SessionRequirementsKey(sessionID), &reqs); err != nil {
		s.warnUnlessMissing(err, storage.SessionRequirementsKey(sessionID))
		reqs = s.catalog.RequiredDocuments(formType)
	}

	var done []string
	if err := storage.GetJSON(ctx, s.store, storage.SessionUploadsKey(sessionID), &done); err != nil {
		s.warnUnlessMissing(err, storage.SessionUploadsKey(sessionID))
	}

	s.logger.Debug("Session resumed", map[string]interface{}{
		"sessionId": sessionID,
		"stage":     stage.String(),
	})
	return s.newWizard(stage, sessionID, formType, reqs, done), nil
}

func (s *Service) newWizard(stage Stage, sessionID, formType string, reqs, done []string) *Wizard {
	w := &Wizard{
		svc:       s,
		tracker:   entitymerge.NewTracker(s.logger),
		stage:     stage,
		sessionID: sessionID,
		formType:  formType,
		reqs:      reqs,
		completed: make(map[string]bool, len(done)),
	}
	for _, d := range done {
		w.completed[d] = true
	}
	return w
}

func (s *Service) persist(ctx context.Context, write func(context.Context) error, key string) {
	ctx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()
	if err := write(ctx); err != nil {
		s.logger.Warn("Failed to cache session state", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}

func (s *Service) warnUnlessMissing(err error, key string) {
	if stderrors.Is(err, storage.ErrNotFound) {
		return
	}
	s.logger.Warn("Ignoring unreadable session cache", map[string]interface{}{
		"key":   key,
		"error": err.Error(),
	})
}

// Wizard is the controller of one session. Its state is only changed through
// its methods; storage is written as a side channel.
type Wizard struct {
	svc     *Service
	tracker *entitymerge.Tracker

	mu        sync.Mutex
	stage     Stage
	sessionID string
	formType  string
	reqs      []string
	completed map[string]bool
	final     models.FinalForm
	edited    models.FinalForm
	editing   bool
}

// requireLocked rejects op unless the wizard is at stage. Callers hold w.mu.
func (w *Wizard) requireLocked(op string, stage Stage) error {
	if w.stage != stage {
		return errors.NewWrongStageError(op, int(w.stage), int(stage))
	}
	return nil
}

func (w *Wizard) SessionID() string { return w.sessionID }

func (w *Wizard) Stage() Stage {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stage
}

// FormType is the cached form type, or the configured default when unknown.
func (w *Wizard) FormType() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.formTypeLocked()
}

func (w *Wizard) formTypeLocked() string {
	if w.formType == "" {
		return w.svc.config.DefaultFormType
	}
	return w.formType
}

// State returns a snapshot of the wizard.
func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	st := State{
		Stage:             w.stage,
		SessionID:         w.sessionID,
		FormType:          w.formType,
		RequiredDocuments: append([]string(nil), w.reqs...),
		Completed:         w.completedLocked(),
		Entities:          w.tracker.Snapshot(),
		Editing:           w.editing,
	}
	if w.final != nil {
		st.Final = w.final.Clone()
		st.Edited = w.edited.Clone()
	}
	return st
}

// ==========================
// Upload step
// ==========================

// UploadBatch opens a file selection for docType. A successful upload marks
// the document completed.
func (w *Wizard) UploadBatch(docType string) (*documentupload.Batch, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireLocked("upload", StageUpload); err != nil {
		return nil, err
	}
	if w.svc.uploads == nil {
		return nil, fmt.Errorf("document uploads are not configured")
	}
	if docType == "" {
		return nil, errors.NewInvalidInputError("document type", "document type is required")
	}
	return w.svc.uploads.NewBatch(w.sessionID, docType, func(doc string, resp *models.UploadResponse) {
		if resp != nil && resp.CurrentEntities != nil {
			w.tracker.Apply(w.tracker.Begin(), resp.CurrentEntities, "upload")
		}
		w.MarkCompleted(doc)
	}), nil
}

// MarkCompleted records docType as uploaded.
func (w *Wizard) MarkCompleted(docType string) {
	w.mu.Lock()
	w.completed[docType] = true
	done := w.completedLocked()
	w.mu.Unlock()

	key := storage.SessionUploadsKey(w.sessionID)
	w.svc.persist(context.Background(), func(ctx context.Context) error {
		return storage.SetJSON(ctx, w.svc.store, key, done, 0)
	}, key)
}

func (w *Wizard) completedLocked() []string {
	out := make([]string, 0, len(w.completed))
	for d := range w.completed {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Pending lists required documents not yet uploaded, in display order.
func (w *Wizard) Pending() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []string
	for _, r := range w.reqs {
		if !w.completed[r] {
			out = append(out, r)
		}
	}
	return out
}

// Progress is all when every required document is uploaded, some when at
// least one document is, and none otherwise.
func (w *Wizard) Progress() Progress {
	w.mu.Lock()
	defer w.mu.Unlock()
	all := len(w.reqs) > 0
	for _, r := range w.reqs {
		if !w.completed[r] {
			all = false
			break
		}
	}
	switch {
	case all:
		return ProgressAll
	case len(w.completed) > 0:
		return ProgressSome
	default:
		return ProgressNone
	}
}

// ContinueLabel is the caption of the forward action of the upload step.
func (w *Wizard) ContinueLabel() string {
	switch w.Progress() {
	case ProgressAll:
		return "Proceed to Review"
	case ProgressSome:
		return "Continue with Uploaded"
	default:
		return "Skip for Now"
	}
}

// ToReview moves forward regardless of upload progress.
func (w *Wizard) ToReview() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireLocked("continue", StageUpload); err != nil {
		return err
	}
	w.stage = StageReview
	return nil
}

func (w *Wizard) BackToUpload() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireLocked("back", StageReview); err != nil {
		return err
	}
	w.stage = StageUpload
	return nil
}

// ==========================
// Review step
// ==========================

// LoadEntities replaces the review state with the session's current
// entities. Keys edited after the load began are kept.
func (w *Wizard) LoadEntities(ctx context.Context) (models.EntityMap, error) {
	w.mu.Lock()
	err := w.requireLocked("review", StageReview)
	w.mu.Unlock()
	if err != nil {
		return nil, err
	}

	seq := w.tracker.Begin()
	ents, err := w.svc.client.GetSession(ctx, w.sessionID)
	if err != nil {
		return nil, w.svc.handler.Fail("wizard.review", err, "Failed to load session data")
	}
	w.tracker.Replace(seq, ents)
	return w.tracker.Snapshot(), nil
}

// EditEntity records a user correction for key.
func (w *Wizard) EditEntity(key, value string) error {
	w.mu.Lock()
	err := w.requireLocked("edit", StageReview)
	w.mu.Unlock()
	if err != nil {
		return err
	}
	if key == "" {
		return errors.NewInvalidInputError("field", "field key is required")
	}
	w.tracker.Apply(w.tracker.Begin(), models.EntityMap{key: entitymerge.Edit(value)}, models.SourceUserEdit)
	return nil
}

// Entities returns the current review state.
func (w *Wizard) Entities() models.EntityMap {
	return w.tracker.Snapshot()
}

// Updater receives voice updates for the review state.
func (w *Wizard) Updater() *entitymerge.Tracker {
	return w.tracker
}

// Finalize hands the reviewed entities to the final step through ephemeral
// storage and advances. On a storage failure the wizard stays at review.
func (w *Wizard) Finalize(ctx context.Context) error {
	w.mu.Lock()
	err := w.requireLocked("submit", StageReview)
	w.mu.Unlock()
	if err != nil {
		return err
	}

	key := storage.SessionEntitiesKey(w.sessionID)
	if err := storage.SetJSON(ctx, w.svc.store, key, w.tracker.Snapshot(), w.svc.config.EphemeralTTL); err != nil {
		return w.svc.handler.Handle("wizard.finalize", errors.NewStorageError("set", key, err))
	}

	w.mu.Lock()
	w.stage = StageFinal
	w.final = nil
	w.edited = nil
	w.editing = false
	w.mu.Unlock()

	w.svc.logger.Info("Review submitted", map[string]interface{}{"sessionId": w.sessionID})
	return nil
}

// ==========================
// Final step
// ==========================

// LoadFinal fetches the finalized form and overlays the reviewed entities
// that carry a value.
func (w *Wizard) LoadFinal(ctx context.Context) (models.FinalForm, error) {
	w.mu.Lock()
	err := w.requireLocked("final", StageFinal)
	w.mu.Unlock()
	if err != nil {
		return nil, err
	}

	form, err := w.svc.client.Finalize(ctx, w.sessionID, w.svc.tokens.Token())
	if err != nil {
		return nil, w.svc.handler.Fail("wizard.final", err, "Failed to load application data")
	}

	merged := form.Clone()
	overlaid := 0
	for k, e := range w.cachedEntities(ctx) {
		if e.Filled() {
			merged[k] = e.Value
			overlaid++
		}
	}
	w.svc.logger.Debug("Final form loaded", map[string]interface{}{
		"sessionId": w.sessionID,
		"fields":    len(merged),
		"overlaid":  overlaid,
	})

	w.mu.Lock()
	w.final = merged
	w.edited = merged.Clone()
	w.editing = false
	w.mu.Unlock()
	return merged.Clone(), nil
}

func (w *Wizard) cachedEntities(ctx context.Context) models.EntityMap {
	var cached models.EntityMap
	key := storage.SessionEntitiesKey(w.sessionID)
	if err := storage.GetJSON(ctx, w.svc.store, key, &cached); err != nil {
		w.svc.warnUnlessMissing(err, key)
		return nil
	}
	return cached
}

// BeginEdit switches the loaded form to inline editing.
func (w *Wizard) BeginEdit() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireLoadedLocked("edit"); err != nil {
		return err
	}
	w.editing = true
	w.edited = w.final.Clone()
	return nil
}

// EditField changes one field of the working copy.
func (w *Wizard) EditField(key, value string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireLoadedLocked("edit"); err != nil {
		return err
	}
	if !w.editing {
		return errors.NewInvalidInputError("edit", "editing has not been started")
	}
	if key == "" {
		return errors.NewInvalidInputError("field", "field key is required")
	}
	w.edited[key] = value
	return nil
}

// Save commits the working copy. Changed fields are also written to the
// reviewed-entity snapshot so a later LoadFinal shows them.
func (w *Wizard) Save(ctx context.Context) error {
	w.mu.Lock()
	if err := w.requireLoadedLocked("save"); err != nil {
		w.mu.Unlock()
		return err
	}
	if !w.editing {
		w.mu.Unlock()
		return errors.NewInvalidInputError("save", "editing has not been started")
	}
	changed := models.EntityMap{}
	for k, v := range w.edited {
		if prev, ok := w.final[k]; !ok || prev != v {
			changed[k] = entitymerge.Edit(v)
		}
	}
	w.final = w.edited.Clone()
	w.editing = false
	w.mu.Unlock()

	if len(changed) > 0 {
		key := storage.SessionEntitiesKey(w.sessionID)
		w.svc.persist(ctx, func(ctx context.Context) error {
			return storage.SetJSON(ctx, w.svc.store, key, entitymerge.Merge(w.cachedEntities(ctx), changed), w.svc.config.EphemeralTTL)
		}, key)
	}

	w.svc.handler.Success("Changes saved successfully!")
	return nil
}

// CancelEdit discards the working copy.
func (w *Wizard) CancelEdit() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.final != nil {
		w.edited = w.final.Clone()
	}
	w.editing = false
}

// Editing reports whether inline editing is active.
func (w *Wizard) Editing() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.editing
}

// Final returns the committed form, or nil before LoadFinal.
func (w *Wizard) Final() models.FinalForm {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.final == nil {
		return nil
	}
	return w.final.Clone()
}

// DownloadName is the file name of the exported form.
func (w *Wizard) DownloadName() string {
	return fmt.Sprintf("%s_%s.json", w.FormType(), w.sessionID)
}

// Download exports the committed form as indented JSON and returns where it
// was written.
func (w *Wizard) Download(ctx context.Context) (string, error) {
	form, err := w.exportable("download")
	if err != nil {
		return "", err
	}
	if w.svc.sink == nil {
		return "", fmt.Errorf("no export sink configured")
	}

	name := w.DownloadName()
	data, err := json.MarshalIndent(form, "", "  ")
	if err != nil {
		return "", w.svc.handler.Handle("wizard.download", errors.NewExportFailedError(name, err))
	}
	location, err := w.svc.sink.Write(ctx, name, data, "application/json")
	if err != nil {
		return "", w.svc.handler.Handle("wizard.download", errors.NewExportFailedError(name, err))
	}

	w.svc.logger.Info("Application exported", map[string]interface{}{
		"sessionId": w.sessionID,
		"location":  location,
	})
	w.svc.handler.Success("Application data downloaded!")
	return location, nil
}

// Print renders the official form to out.
func (w *Wizard) Print(out io.Writer) error {
	form, err := w.exportable("print")
	if err != nil {
		return err
	}
	w.svc.handler.Info("Opening print dialog...", w.svc.config.NoticeDismiss)
	return w.svc.printer.Render(out, Document{
		FormType:  w.FormType(),
		SessionID: w.sessionID,
		Fields:    form,
	})
}

func (w *Wizard) exportable(action string) (models.FinalForm, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireLoadedLocked(action); err != nil {
		return nil, err
	}
	if w.editing {
		return nil, w.svc.handler.Handle("wizard."+action, errors.NewEditInProgressError(action))
	}
	return w.final.Clone(), nil
}

func (w *Wizard) requireLoadedLocked(op string) error {
	if err := w.requireLocked(op, StageFinal); err != nil {
		return err
	}
	if w.final == nil {
		return errors.NewInvalidInputError("final form", "application data is not loaded")
	}
	return nil
}
