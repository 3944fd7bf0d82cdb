// Package backendtest runs an in-process fake of the form-filing API for tests.
package backendtest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// Call is one request the fake received.
type Call struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
	Form          map[string]string
	Files         []File
	JSON          map[string]interface{}
}

// File is an uploaded multipart file.
type File struct {
	Field       string
	Name        string
	ContentType string
	Size        int
}

// Server is a fake backend. Exported fields may be changed between calls;
// hold Lock while doing so from concurrent tests.
type Server struct {
	*httptest.Server
	sync.Mutex

	Email    string
	Password string
	Token    string
	UserID   int64
	FullName *string

	RequiredDocuments []string
	Prefill           map[string]interface{}
	Entities          map[string]interface{}
	UploadEntities    map[string]interface{}
	UploadStatus      int
	UploadDetail      string
	VoiceTranscript   string
	VoiceUpdates      map[string]interface{}
	VoiceStatus       int
	Final             map[string]interface{}
	Forms             []string
	Stats             map[string]interface{}

	// MeGate, when set, blocks /users/me until it is closed.
	MeGate chan struct{}
	// Intercept runs before the default routes; returning true ends the request.
	Intercept func(w http.ResponseWriter, r *http.Request) bool

	calls   []Call
	session int
}

// New starts a fake with one registered account and closes it on cleanup.
func New(t testing.TB) *Server {
	s := &Server{
		Email:             "asha@example.in",
		Password:          "secret",
		Token:             "valid-token",
		UserID:            1,
		RequiredDocuments: []string{"aadhaar", "pan"},
		Entities:          map[string]interface{}{},
		UploadEntities:    map[string]interface{}{},
		VoiceUpdates:      map[string]interface{}{},
		Forms:             []string{"income_certificate", "caste_certificate"},
		Stats: map[string]interface{}{
			"saved_fields_count":        0,
			"active_applications_count": 0,
			"recent_activities":         []interface{}{},
			"stored_data":               []interface{}{},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /session/init", s.initSession)
	mux.HandleFunc("GET /session/{id}", s.getSession)
	mux.HandleFunc("POST /session/{id}/upload", s.upload)
	mux.HandleFunc("POST /session/{id}/voice", s.voice)
	mux.HandleFunc("POST /session/{id}/finalize", s.finalize)
	mux.HandleFunc("GET /forms/list/", s.forms)
	mux.HandleFunc("POST /token", s.token)
	mux.HandleFunc("POST /register", s.register)
	mux.HandleFunc("GET /users/me", s.me)
	mux.HandleFunc("PUT /users/profile", s.updateProfile)
	mux.HandleFunc("POST /users/change-password", s.changePassword)
	mux.HandleFunc("GET /dashboard/stats", s.stats)
	mux.HandleFunc("DELETE /dashboard/application/{id}", s.deleteApplication)
	mux.HandleFunc("PUT /dashboard/profile/{key}", s.updateProfileField)
	mux.HandleFunc("DELETE /dashboard/profile/clear", s.clearProfile)

	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.record(r)
		s.Lock()
		intercept := s.Intercept
		s.Unlock()
		if intercept != nil && intercept(w, r) {
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

// Calls returns every request received so far.
func (s *Server) Calls() []Call {
	s.Lock()
	defer s.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallsTo returns the requests whose path equals path.
func (s *Server) CallsTo(method, path string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Method == method && c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

// Entity builds a backend entity object.
func Entity(value interface{}, confidence float64, source string) map[string]interface{} {
	return map[string]interface{}{"value": value, "confidence": confidence, "source": source}
}

func (s *Server) record(r *http.Request) {
	c := Call{
		Method:        r.Method,
		Path:          r.URL.Path,
		Authorization: r.Header.Get("Authorization"),
		RequestID:     r.Header.Get("X-Request-ID"),
		Form:          map[string]string{},
	}

	ct := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(ct, "multipart/form-data"):
		if err := r.ParseMultipartForm(32 << 20); err == nil {
			for k, v := range r.MultipartForm.Value {
				if len(v) > 0 {
					c.Form[k] = v[0]
				}
			}
			for field, headers := range r.MultipartForm.File {
				for _, h := range headers {
					c.Files = append(c.Files, File{
						Field:       field,
						Name:        h.Filename,
						ContentType: h.Header.Get("Content-Type"),
						Size:        int(h.Size),
					})
				}
			}
		}
	case strings.HasPrefix(ct, "application/x-www-form-urlencoded"):
		if err := r.ParseForm(); err == nil {
			for k, v := range r.PostForm {
				if len(v) > 0 {
					c.Form[k] = v[0]
				}
			}
		}
	case strings.HasPrefix(ct, "application/json"):
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &c.JSON)
	}

	s.Lock()
	s.calls = append(s.calls, c)
	s.Unlock()
}

func (s *Server) last() Call {
	s.Lock()
	defer s.Unlock()
	return s.calls[len(s.calls)-1]
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func detail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{"detail": msg})
}

func (s *Server) authorized(r *http.Request) bool {
	s.Lock()
	defer s.Unlock()
	return r.Header.Get("Authorization") == "Bearer "+s.Token
}

func (s *Server) initSession(w http.ResponseWriter, r *http.Request) {
	call := s.last()
	s.Lock()
	s.session++
	id := fmt.Sprintf("sess-%d", s.session)
	prefilled := 0
	if call.Form["token"] == s.Token {
		for k, v := range s.Prefill {
			s.Entities[k] = v
			prefilled++
		}
	}
	reqs := append([]string{}, s.RequiredDocuments...)
	s.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session_id":         id,
		"message":            "Session initialized",
		"required_documents": reqs,
		"prefilled_count":    prefilled,
	})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	s.Lock()
	defer s.Unlock()
	writeJSON(w, http.StatusOK, s.Entities)
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	call := s.last()
	s.Lock()
	defer s.Unlock()
	if s.UploadStatus != 0 {
		if s.UploadDetail != "" {
			detail(w, s.UploadStatus, s.UploadDetail)
		} else {
			writeJSON(w, s.UploadStatus, map[string]interface{}{})
		}
		return
	}
	for k, v := range s.UploadEntities {
		s.Entities[k] = v
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":          call.Form["document_type"] + " processed and merged.",
		"current_entities": s.Entities,
	})
}

func (s *Server) voice(w http.ResponseWriter, r *http.Request) {
	s.Lock()
	defer s.Unlock()
	if s.VoiceStatus != 0 {
		detail(w, s.VoiceStatus, "Transcription failed")
		return
	}
	for k, v := range s.VoiceUpdates {
		s.Entities[k] = v
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":       "Voice processed and merged.",
		"transcription": s.VoiceTranscript,
		"current_state": s.Entities,
	})
}

func (s *Server) finalize(w http.ResponseWriter, r *http.Request) {
	s.Lock()
	defer s.Unlock()
	if s.Final != nil {
		writeJSON(w, http.StatusOK, s.Final)
		return
	}
	flat := map[string]interface{}{}
	for k, v := range s.Entities {
		if obj, ok := v.(map[string]interface{}); ok {
			flat[k] = obj["value"]
		} else {
			flat[k] = v
		}
	}
	writeJSON(w, http.StatusOK, flat)
}

func (s *Server) forms(w http.ResponseWriter, r *http.Request) {
	s.Lock()
	defer s.Unlock()
	writeJSON(w, http.StatusOK, map[string]interface{}{"forms": s.Forms})
}

func (s *Server) token(w http.ResponseWriter, r *http.Request) {
	call := s.last()
	s.Lock()
	defer s.Unlock()
	if call.Form["username"] != s.Email || call.Form["password"] != s.Password {
		detail(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"access_token": s.Token, "token_type": "bearer"})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	call := s.last()
	s.Lock()
	defer s.Unlock()
	email, _ := call.JSON["email"].(string)
	if email == s.Email {
		detail(w, http.StatusBadRequest, "Email already registered")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id": s.UserID + 1, "email": email, "full_name": call.JSON["full_name"],
	})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	s.Lock()
	gate := s.MeGate
	s.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}
	if !s.authorized(r) {
		detail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	s.Lock()
	defer s.Unlock()
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": s.UserID, "email": s.Email, "full_name": s.FullName})
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		detail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	call := s.last()
	s.Lock()
	defer s.Unlock()
	name, _ := call.JSON["full_name"].(string)
	s.FullName = &name
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": s.UserID, "email": s.Email, "full_name": name})
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		detail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	call := s.last()
	s.Lock()
	defer s.Unlock()
	if call.JSON["old_password"] != s.Password {
		detail(w, http.StatusBadRequest, "Incorrect old password")
		return
	}
	s.Password, _ = call.JSON["new_password"].(string)
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Password updated successfully"})
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		detail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	s.Lock()
	defer s.Unlock()
	writeJSON(w, http.StatusOK, s.Stats)
}

func (s *Server) deleteApplication(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		detail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	if r.PathValue("id") == "404" {
		detail(w, http.StatusNotFound, "Application not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Application deleted"})
}

func (s *Server) updateProfileField(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		detail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	call := s.last()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Field updated", "key": r.PathValue("key"), "value": call.JSON["value"],
	})
}

func (s *Server) clearProfile(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		detail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Cleared 3 profile entries"})
}
