package errors

import (
	"sync"
	"time"
)

// Severity of a user-facing notice.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityError   Severity = "error"
)

// Notice is a message shown to the user. Transient notices disappear on
// their own after Dismiss; blocking notices must be acknowledged.
type Notice struct {
	Severity Severity      `json:"severity"`
	Message  string        `json:"message"`
	Code     ErrorCode     `json:"code,omitempty"`
	Blocking bool          `json:"blocking"`
	Dismiss  time.Duration `json:"dismiss,omitempty"`
}

// Notifier displays notices.
type Notifier interface {
	Notify(n Notice)
}

// Logger is the subset of the logger used by the handler.
type Logger interface {
	Error(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
}

// ErrorHandler turns operation failures into notices and applies the
// forced-logout policy for rejected credentials.
type ErrorHandler struct {
	logger   Logger
	notifier Notifier

	mu           sync.RWMutex
	authRejected func()
}

func NewErrorHandler(logger Logger, notifier Notifier) *ErrorHandler {
	return &ErrorHandler{logger: logger, notifier: notifier}
}

// OnAuthRejected registers the callback run when an operation fails with
// AUTH_REJECTED. The auth session registers its Logout here.
func (h *ErrorHandler) OnAuthRejected(fn func()) {
	h.mu.Lock()
	h.authRejected = fn
	h.mu.Unlock()
}

// Handle logs err, emits a notice and returns the normalized error.
// Permission errors are shown as blocking alerts, everything else transiently.
func (h *ErrorHandler) Handle(operation string, err error) *StandardError {
	if err == nil {
		return nil
	}
	stdErr := h.normalizeError(err)
	h.report(operation, stdErr, stdErr.Message, true)
	return stdErr
}

// Report is Handle without the forced-logout policy, for failures whose
// caller has already signed the user out.
func (h *ErrorHandler) Report(operation string, err error) *StandardError {
	if err == nil {
		return nil
	}
	stdErr := h.normalizeError(err)
	h.report(operation, stdErr, stdErr.Message, false)
	return stdErr
}

// Fail is Handle with a fixed notice message in place of the error's own.
func (h *ErrorHandler) Fail(operation string, err error, message string) *StandardError {
	if err == nil {
		return nil
	}
	stdErr := h.normalizeError(err)
	h.report(operation, stdErr, message, true)
	return stdErr
}

func (h *ErrorHandler) report(operation string, stdErr *StandardError, message string, enforce bool) {
	h.logger.Error("Operation failed", map[string]interface{}{
		"operation":     operation,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	})

	if stdErr.Code != ErrCodeActionCancelled && h.notifier != nil {
		h.notifier.Notify(Notice{
			Severity: SeverityError,
			Message:  message,
			Code:     stdErr.Code,
			Blocking: stdErr.Code == ErrCodePermissionDenied,
		})
	}

	if enforce && stdErr.Code == ErrCodeAuthRejected {
		h.mu.RLock()
		fn := h.authRejected
		h.mu.RUnlock()
		if fn != nil {
			h.logger.Info("Credentials rejected, forcing logout", map[string]interface{}{
				"operation": operation,
			})
			fn()
		}
	}
}

// Success emits a transient success notice.
func (h *ErrorHandler) Success(message string) {
	if h.notifier != nil {
		h.notifier.Notify(Notice{Severity: SeveritySuccess, Message: message})
	}
}

// Info emits a transient informational notice with an auto-dismiss delay.
func (h *ErrorHandler) Info(message string, dismiss time.Duration) {
	if h.notifier != nil {
		h.notifier.Notify(Notice{Severity: SeverityInfo, Message: message, Dismiss: dismiss})
	}
}

func (h *ErrorHandler) normalizeError(err error) *StandardError {
	if stdErr, ok := AsStandard(err); ok {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NoticeRecorder is an in-memory Notifier.
type NoticeRecorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *NoticeRecorder) Notify(n Notice) {
	r.mu.Lock()
	r.notices = append(r.notices, n)
	r.mu.Unlock()
}

// Notices returns a copy of everything recorded so far.
func (r *NoticeRecorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

// Last returns the most recent notice.
func (r *NoticeRecorder) Last() (Notice, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return Notice{}, false
	}
	return r.notices[len(r.notices)-1], true
}
