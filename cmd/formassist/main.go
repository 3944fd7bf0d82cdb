// cmd/formassist/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"formassist/internal/common/backend"
	"formassist/internal/common/config"
	"formassist/internal/common/errors"
	"formassist/internal/common/export"
	"formassist/internal/common/logger"
	"formassist/internal/common/metrics"
	"formassist/internal/common/observability"
	"formassist/internal/common/storage"
	accountdashboard "formassist/internal/services/account-dashboard"
	applicationwizard "formassist/internal/services/application-wizard"
	authsession "formassist/internal/services/auth-session"
	documentupload "formassist/internal/services/document-upload"
	voiceupdate "formassist/internal/services/voice-update"
	"formassist/pkg/registry"
)

type app struct {
	cfg     *config.Config
	log     logger.Logger
	obs     *observability.Observability
	console *console
	store   storage.Store
	client  *backend.Client
	catalog *registry.Catalog
	handler *errors.ErrorHandler
	session *authsession.Session
	uploads *documentupload.Service
	wizard  *applicationwizard.Service
	account *accountdashboard.Service
	out     io.Writer
}

func main() {
	global := flag.NewFlagSet("formassist", flag.ExitOnError)
	configPath := global.String("config", "", "Path to a config file (default: configs/config.yaml or the user config dir)")
	assumeYes := global.Bool("yes", false, "Answer yes to every confirmation")
	global.Usage = help
	global.Parse(os.Args[1:])

	args := global.Args()
	if len(args) == 0 || args[0] == "help" {
		help()
		if len(args) == 0 {
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, *configPath, *assumeYes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	err = a.run(ctx, args[0], args[1:])
	a.close()
	if err != nil {
		if !a.console.reported() {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newApp(ctx context.Context, configPath string, assumeYes bool) (*app, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	a := &app{
		cfg:     cfg,
		log:     log,
		obs:     observability.New(cfg.Metrics.ServiceName),
		console: newConsole(os.Stdin, os.Stderr, assumeYes, log),
		out:     os.Stdout,
	}
	a.handler = errors.NewErrorHandler(log, a.console)

	a.catalog, err = registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		return nil, fmt.Errorf("load service catalog: %w", err)
	}
	if err := a.catalog.Validate(); err != nil {
		return nil, fmt.Errorf("invalid service catalog: %w", err)
	}

	a.store, err = storage.New(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	a.client, err = backend.NewClient(backend.Options{
		BaseURL:        cfg.Backend.BaseURL,
		Timeout:        config.GetDuration(cfg.Backend.Timeout),
		UploadTimeout:  config.GetDuration(cfg.Backend.UploadTimeout),
		ValidateSchema: cfg.Backend.ValidateSchema,
		Logger:         log,
		Observability:  a.obs,
	})
	if err != nil {
		return nil, err
	}

	a.session, err = authsession.NewSession(authsession.ServiceDependencies{
		Client:    a.client,
		Store:     a.store,
		Handler:   a.handler,
		Navigator: a.console,
		Logger:    log,
	}, nil)
	if err != nil {
		return nil, err
	}

	a.uploads, err = documentupload.NewService(documentupload.ServiceDependencies{
		Uploader: a.client,
		Catalog:  a.catalog,
		Handler:  a.handler,
		Logger:   log,
	}, nil)
	if err != nil {
		return nil, err
	}

	wcfg := applicationwizard.DefaultConfig()
	wcfg.EphemeralTTL = config.GetDuration(cfg.Storage.EphemeralTTL)
	if a.catalog.DefaultFormType != "" {
		wcfg.DefaultFormType = a.catalog.DefaultFormType
	}
	a.wizard, err = applicationwizard.NewService(applicationwizard.ServiceDependencies{
		Client:  a.client,
		Tokens:  a.session,
		Store:   a.store,
		Uploads: a.uploads,
		Sink:    lazySink{cfg: cfg.Export},
		Catalog: a.catalog,
		Handler: a.handler,
		Logger:  log,
	}, wcfg)
	if err != nil {
		return nil, err
	}

	a.account, err = accountdashboard.NewService(accountdashboard.ServiceDependencies{
		Client:    a.client,
		Tokens:    a.session,
		Confirmer: a.console,
		Handler:   a.handler,
		Logger:    log,
	}, nil)
	if err != nil {
		return nil, err
	}

	return a, nil
}

// voiceService builds the recorder only when a voice command runs, so a
// missing capture program does not affect other commands.
func (a *app) voiceService(file string) (*voiceupdate.Service, error) {
	vcfg := voiceupdate.DefaultConfig()
	vcfg.MaxDuration = config.GetDuration(a.cfg.Voice.MaxDuration)
	vcfg.TranscriptExpiry = config.GetDuration(a.cfg.Voice.TranscriptExpiry)
	vcfg.UploadTimeout = config.GetDuration(a.cfg.Backend.UploadTimeout)

	var rec voiceupdate.Recorder
	if file != "" {
		rec = &voiceupdate.FileRecorder{Path: file}
	} else {
		rec = &voiceupdate.CommandRecorder{
			Command:     a.cfg.Voice.Command,
			Args:        a.cfg.Voice.Args,
			MaxDuration: vcfg.MaxDuration,
		}
	}
	return voiceupdate.NewService(voiceupdate.ServiceDependencies{
		Client:   a.client,
		Recorder: rec,
		Handler:  a.handler,
		Logger:   a.log,
	}, vcfg)
}

func (a *app) close() {
	if a.cfg.Metrics.Enabled && a.cfg.Metrics.TextfilePath != "" {
		if err := metrics.WriteTextfile(a.cfg.Metrics.TextfilePath); err != nil {
			a.log.Warn("Failed to write metrics textfile", map[string]interface{}{
				"path":  a.cfg.Metrics.TextfilePath,
				"error": err.Error(),
			})
		}
	}
	a.obs.Shutdown()
	if err := a.store.Close(); err != nil {
		a.log.Warn("Failed to close storage", map[string]interface{}{"error": err.Error()})
	}
}

// lazySink opens the configured export target on first use.
type lazySink struct {
	cfg config.ExportConfig
}

func (l lazySink) Write(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	sink, err := export.New(l.cfg)
	if err != nil {
		return "", err
	}
	return sink.Write(ctx, name, data, contentType)
}

func help() {
	fmt.Println("Usage: formassist [-config path] [-yes] <command> [options]")
	fmt.Println()
	fmt.Println("Account:")
	fmt.Println("  login     -email E -password P     Sign in")
	fmt.Println("  logout                             Sign out")
	fmt.Println("  whoami                             Show the signed-in user")
	fmt.Println("  register  -email E -password P [-name N]")
	fmt.Println("  dashboard [stats|delete ID|set KEY VALUE|clear|name NAME|password OLD NEW]")
	fmt.Println()
	fmt.Println("Applications:")
	fmt.Println("  forms                              List available services")
	fmt.Println("  start     -form TYPE               Start an application")
	fmt.Println("  upload    -session ID -doc TYPE FILE...")
	fmt.Println("  review    -session ID              Show extracted fields")
	fmt.Println("  voice     -session ID [-file WAV]  Speak a correction")
	fmt.Println("  finalize  -session ID [KEY=VALUE...]")
	fmt.Println("  final     -session ID              Show the final form")
	fmt.Println("  edit      -session ID KEY=VALUE... Edit the final form")
	fmt.Println("  download  -session ID              Export the final form as JSON")
	fmt.Println("  print     -session ID [-out FILE]  Render the official form")
}
