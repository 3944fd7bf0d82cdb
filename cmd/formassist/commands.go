package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"formassist/internal/common/errors"
	"formassist/internal/models"
	applicationwizard "formassist/internal/services/application-wizard"
	voiceupdate "formassist/internal/services/voice-update"

	"github.com/dustin/go-humanize"
)

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "register":
		return a.register(ctx, args)
	case "forms":
		return a.forms(ctx)
	case "logout":
		a.session.Logout()
		fmt.Fprintln(a.out, "Signed out.")
		return nil
	}

	if err := a.session.Init(ctx); err != nil {
		a.log.Warn("Failed to restore session", map[string]interface{}{"error": err.Error()})
	}

	switch command {
	case "login":
		return a.login(ctx, args)
	case "whoami":
		return a.whoami()
	case "start":
		return a.start(ctx, args)
	case "upload":
		return a.upload(ctx, args)
	case "review":
		return a.review(ctx, args)
	case "voice":
		return a.voice(ctx, args)
	case "finalize":
		return a.finalize(ctx, args)
	case "final":
		return a.final(ctx, args)
	case "edit":
		return a.edit(ctx, args)
	case "download":
		return a.download(ctx, args)
	case "print":
		return a.print(ctx, args)
	case "dashboard":
		return a.dashboard(ctx, args)
	default:
		help()
		return fmt.Errorf("unknown command: %s", command)
	}
}

// ==========================
// Account
// ==========================

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "Account email (required)")
	password := fs.String("password", "", "Account password (required)")
	fs.Parse(args)

	if *email == "" || *password == "" {
		fs.Usage()
		return fmt.Errorf("email and password are required")
	}

	// A rejected sign-in is already signed out by the session.
	user, err := a.session.Authenticate(ctx, *email, *password)
	if err != nil {
		return a.handler.Report("auth.login", err)
	}
	fmt.Fprintf(a.out, "Signed in as %s\n", user.DisplayName())
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	email := fs.String("email", "", "Account email (required)")
	password := fs.String("password", "", "Account password (required)")
	name := fs.String("name", "", "Full name")
	fs.Parse(args)

	user, err := a.session.Register(ctx, *email, *password, strings.TrimSpace(*name))
	if err != nil {
		return a.handler.Handle("auth.register", err)
	}
	fmt.Fprintf(a.out, "Account created for %s. Sign in with `formassist login`.\n", user.Email)
	return nil
}

func (a *app) whoami() error {
	user := a.session.User()
	if user == nil {
		fmt.Fprintln(a.out, "Not signed in.")
		return nil
	}
	fmt.Fprintf(a.out, "%s <%s> (id %d)\n", user.DisplayName(), user.Email, user.ID)
	return nil
}

// ==========================
// Application wizard
// ==========================

func (a *app) forms(ctx context.Context) error {
	ids, err := a.client.ListForms(ctx)
	if err != nil {
		return a.handler.Handle("forms.list", err)
	}
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FORM\tTITLE\tDOCUMENTS")
	for _, id := range ids {
		fmt.Fprintf(w, "%s\t%s\t%d\n", id, a.catalog.FormTitle(id), len(a.catalog.RequiredDocuments(id)))
	}
	return w.Flush()
}

func (a *app) start(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	form := fs.String("form", "", "Form type to apply for (required)")
	fs.Parse(args)

	wiz, err := a.wizard.Start(ctx, *form)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Session %s started for %s\n", wiz.SessionID(), a.catalog.FormTitle(wiz.FormType()))
	a.printPending(wiz)
	return nil
}

func (a *app) upload(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	session := fs.String("session", "", "Session ID (required)")
	docType := fs.String("doc", "", "Document type (required)")
	fs.Parse(args)

	if *session == "" || *docType == "" || fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("session, document type and at least one file are required")
	}

	wiz, err := a.wizard.Resume(ctx, *session, applicationwizard.StageUpload)
	if err != nil {
		return err
	}
	files, err := a.uploads.ReadFiles(fs.Args()...)
	if err != nil {
		return a.handler.Handle("document.read", err)
	}

	batch, err := wiz.UploadBatch(*docType)
	if err != nil {
		return err
	}
	if err := batch.Add(files...); err != nil {
		return err
	}
	for _, f := range batch.Files() {
		fmt.Fprintf(a.out, "  %s (%s, %s)\n", f.Name, f.Kind(), humanize.Bytes(uint64(len(f.Data))))
	}
	if _, err := batch.Upload(ctx); err != nil {
		return err
	}

	a.printPending(wiz)
	return nil
}

func (a *app) printPending(wiz *applicationwizard.Wizard) {
	pending := wiz.Pending()
	if len(pending) == 0 {
		fmt.Fprintln(a.out, "All required documents uploaded.")
	} else {
		fmt.Fprintln(a.out, "Still needed:")
		for _, doc := range pending {
			fmt.Fprintf(a.out, "  - %s (%s)\n", a.catalog.DocumentTitle(doc), doc)
		}
	}
	fmt.Fprintf(a.out, "Next: %s\n", wiz.ContinueLabel())
}

// reviewWizard resumes a session at the review step with its entities loaded.
func (a *app) reviewWizard(ctx context.Context, sessionID string) (*applicationwizard.Wizard, error) {
	wiz, err := a.wizard.Resume(ctx, sessionID, applicationwizard.StageReview)
	if err != nil {
		return nil, err
	}
	if _, err := wiz.LoadEntities(ctx); err != nil {
		return nil, err
	}
	return wiz, nil
}

func (a *app) review(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("review", flag.ExitOnError)
	session := fs.String("session", "", "Session ID (required)")
	fs.Parse(args)

	wiz, err := a.reviewWizard(ctx, *session)
	if err != nil {
		return err
	}
	a.printEntities(wiz.Entities())
	return nil
}

func (a *app) printEntities(entities models.EntityMap) {
	shown := make(map[string]bool)
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for _, g := range a.catalog.Groups {
		fmt.Fprintf(w, "\n%s\n", g.Title)
		for _, key := range g.Keys {
			shown[key] = true
			a.printEntity(w, key, entities[key])
		}
	}

	var rest []string
	for _, key := range entities.Keys() {
		if !shown[key] {
			rest = append(rest, key)
		}
	}
	if len(rest) > 0 {
		fmt.Fprintf(w, "\nOther Details\n")
		for _, key := range rest {
			a.printEntity(w, key, entities[key])
		}
	}
	w.Flush()
	fmt.Fprintf(a.out, "\n%d of %d fields filled\n", entities.FilledCount(), len(entities))
}

func (a *app) printEntity(w *tabwriter.Writer, key string, e models.Entity) {
	value := e.Value
	if !e.Filled() {
		value = "-"
	}
	badge := applicationwizard.SourceLabel(e)
	if badge != "" {
		badge = "[" + badge + "]"
	}
	fmt.Fprintf(w, "  %s\t%s\t%s\n", a.catalog.FieldLabel(key), value, badge)
}

func (a *app) voice(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("voice", flag.ExitOnError)
	session := fs.String("session", "", "Session ID (required)")
	file := fs.String("file", "", "Send a prerecorded WAV file instead of the microphone")
	fs.Parse(args)

	wiz, err := a.reviewWizard(ctx, *session)
	if err != nil {
		return err
	}
	svc, err := a.voiceService(*file)
	if err != nil {
		return err
	}

	widget := svc.NewWidget(wiz.SessionID(), wiz.Updater())
	if _, err := widget.Toggle(ctx); err != nil {
		return err
	}
	if *file == "" {
		a.console.waitEnter("Recording... press Enter to stop. ")
	}
	outcome, err := widget.Toggle(ctx)
	if err != nil {
		return err
	}

	if outcome.Transcript != "" {
		fmt.Fprintf(a.out, "Heard: %q\n", outcome.Transcript)
	}
	if outcome.State == voiceupdate.StateIdle && outcome.Applied > 0 {
		a.printEntities(wiz.Entities())
	}
	return nil
}

func (a *app) finalize(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("finalize", flag.ExitOnError)
	session := fs.String("session", "", "Session ID (required)")
	fs.Parse(args)

	edits, err := parseAssignments(fs.Args())
	if err != nil {
		return err
	}
	wiz, err := a.reviewWizard(ctx, *session)
	if err != nil {
		return err
	}
	for _, kv := range edits {
		if err := wiz.EditEntity(kv[0], kv[1]); err != nil {
			return err
		}
	}
	if err := wiz.Finalize(ctx); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Session %s is ready. Run `formassist final -session %s`.\n", wiz.SessionID(), wiz.SessionID())
	return nil
}

// finalWizard resumes a session at the final step with the form loaded.
func (a *app) finalWizard(ctx context.Context, sessionID string) (*applicationwizard.Wizard, error) {
	wiz, err := a.wizard.Resume(ctx, sessionID, applicationwizard.StageFinal)
	if err != nil {
		return nil, err
	}
	if _, err := wiz.LoadFinal(ctx); err != nil {
		return nil, err
	}
	return wiz, nil
}

func (a *app) final(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("final", flag.ExitOnError)
	session := fs.String("session", "", "Session ID (required)")
	fs.Parse(args)

	wiz, err := a.finalWizard(ctx, *session)
	if err != nil {
		return err
	}
	a.printFinal(wiz.Final())
	return nil
}

func (a *app) printFinal(form models.FinalForm) {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for _, key := range keys {
		fmt.Fprintf(w, "%s\t%s\n", a.catalog.FieldLabel(key), form[key])
	}
	w.Flush()
}

func (a *app) edit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	session := fs.String("session", "", "Session ID (required)")
	fs.Parse(args)

	edits, err := parseAssignments(fs.Args())
	if err != nil {
		return err
	}
	if len(edits) == 0 {
		fs.Usage()
		return fmt.Errorf("at least one KEY=VALUE is required")
	}

	wiz, err := a.finalWizard(ctx, *session)
	if err != nil {
		return err
	}
	if err := wiz.BeginEdit(); err != nil {
		return err
	}
	for _, kv := range edits {
		if err := wiz.EditField(kv[0], kv[1]); err != nil {
			wiz.CancelEdit()
			return err
		}
	}
	if err := wiz.Save(ctx); err != nil {
		return err
	}
	a.printFinal(wiz.Final())
	return nil
}

func (a *app) download(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("download", flag.ExitOnError)
	session := fs.String("session", "", "Session ID (required)")
	fs.Parse(args)

	wiz, err := a.finalWizard(ctx, *session)
	if err != nil {
		return err
	}
	location, err := wiz.Download(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Saved %s\n", location)
	return nil
}

func (a *app) print(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("print", flag.ExitOnError)
	session := fs.String("session", "", "Session ID (required)")
	outPath := fs.String("out", "", "Write the form to a file instead of stdout")
	fs.Parse(args)

	wiz, err := a.finalWizard(ctx, *session)
	if err != nil {
		return err
	}
	if *outPath == "" {
		return wiz.Print(a.out)
	}

	f, err := os.Create(*outPath)
	if err != nil {
		return a.handler.Handle("application.print", errors.NewExportFailedError(*outPath, err))
	}
	if err := wiz.Print(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ==========================
// Dashboard
// ==========================

func (a *app) dashboard(ctx context.Context, args []string) error {
	action := "stats"
	if len(args) > 0 {
		action, args = args[0], args[1:]
	}

	switch action {
	case "stats":
		return a.dashboardStats(ctx)
	case "delete":
		if len(args) != 1 {
			return fmt.Errorf("usage: dashboard delete APPLICATION_ID")
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid application id %q", args[0])
		}
		msg, err := a.account.DeleteApplication(ctx, id)
		if err != nil {
			return cancelled(err)
		}
		fmt.Fprintln(a.out, msg)
	case "set":
		if len(args) != 2 {
			return fmt.Errorf("usage: dashboard set KEY VALUE")
		}
		resp, err := a.account.UpdateField(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s = %s\n", a.catalog.FieldLabel(resp.Key), resp.Value)
	case "clear":
		if _, err := a.account.ClearProfile(ctx); err != nil {
			return cancelled(err)
		}
	case "name":
		if len(args) == 0 {
			return fmt.Errorf("usage: dashboard name FULL_NAME")
		}
		if _, err := a.account.UpdateName(ctx, strings.Join(args, " ")); err != nil {
			return err
		}
	case "password":
		if len(args) != 2 {
			return fmt.Errorf("usage: dashboard password OLD NEW")
		}
		return a.account.ChangePassword(ctx, args[0], args[1])
	default:
		return fmt.Errorf("unknown dashboard action: %s", action)
	}
	return nil
}

func (a *app) dashboardStats(ctx context.Context) error {
	stats, err := a.account.Stats(ctx)
	if err != nil {
		return err
	}
	if user := a.session.User(); user != nil {
		fmt.Fprintf(a.out, "Welcome, %s\n\n", user.DisplayName())
	}
	fmt.Fprintf(a.out, "Saved fields: %d\nActive applications: %d\n", stats.SavedFieldsCount, stats.ActiveApplicationsCount)

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	if len(stats.RecentActivities) > 0 {
		fmt.Fprintln(w, "\nID\tFORM\tSTATUS\tSTARTED")
		for _, act := range stats.RecentActivities {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", act.ID, a.catalog.FormTitle(act.FormType), act.Status, humanize.Time(act.CreatedAt.Time))
		}
	}
	if len(stats.StoredData) > 0 {
		fmt.Fprintln(w, "\nFIELD\tVALUE\tSOURCE\tUPDATED")
		for _, f := range stats.StoredData {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.catalog.FieldLabel(f.EntityKey), f.Value, f.Source, humanize.Time(f.LastUpdated.Time))
		}
	}
	return w.Flush()
}

// cancelled treats a declined confirmation as a normal exit.
func cancelled(err error) error {
	if errors.HasCode(err, errors.ErrCodeActionCancelled) {
		return nil
	}
	return err
}

// parseAssignments splits KEY=VALUE arguments, keeping their order.
func parseAssignments(args []string) ([][2]string, error) {
	out := make([][2]string, 0, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("expected KEY=VALUE, got %q", arg)
		}
		out = append(out, [2]string{key, value})
	}
	return out, nil
}
