package main

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"

	"formassist/internal/common/backend"
	"formassist/internal/common/backend/backendtest"
	"formassist/internal/common/errors"
	"formassist/internal/common/logger"
	"formassist/internal/common/storage"
	authsession "formassist/internal/services/auth-session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type routeLog struct {
	mu     sync.Mutex
	routes []string
}

func (r *routeLog) Navigate(route string) {
	r.mu.Lock()
	r.routes = append(r.routes, route)
	r.mu.Unlock()
}

func (r *routeLog) Routes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.routes...)
}

func TestLogin_RejectedProfileSignsOutOnce(t *testing.T) {
	srv := backendtest.New(t)
	srv.Intercept = func(w http.ResponseWriter, r *http.Request) bool {
		if r.URL.Path != "/users/me" {
			return false
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Could not validate credentials"}`))
		return true
	}

	client, err := backend.NewClient(backend.Options{BaseURL: srv.URL})
	require.NoError(t, err)

	log := logger.NewTestLogger(t)
	var term, out bytes.Buffer
	nav := &routeLog{}
	a := &app{
		log:     log,
		console: newConsole(strings.NewReader(""), &term, false, log),
		out:     &out,
	}
	a.handler = errors.NewErrorHandler(log, a.console)
	a.session, err = authsession.NewSession(authsession.ServiceDependencies{
		Client:    client,
		Store:     storage.NewMemoryStore(),
		Handler:   a.handler,
		Navigator: nav,
		Logger:    log,
	}, nil)
	require.NoError(t, err)

	err = a.login(context.Background(), []string{"-email", srv.Email, "-password", srv.Password})

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeAuthRejected, errors.CodeOf(err))
	assert.Equal(t, []string{"/"}, nav.Routes())
	assert.False(t, a.session.Authenticated())
	assert.True(t, a.console.reported())
	assert.Equal(t, 1, strings.Count(term.String(), "error:"))
	assert.Empty(t, out.String())
}
