package remote

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// ErrorKind is the closed set of failure classes the browser reacts to.
type ErrorKind string

const (
	KindPermission     ErrorKind = "permission"
	KindNotFound       ErrorKind = "not_found"
	KindSessionExpired ErrorKind = "session_expired"
	KindNetwork        ErrorKind = "network"
	KindUnknown        ErrorKind = "unknown"
	// KindValidation is produced locally and never by a response.
	KindValidation ErrorKind = "validation"
)

// ErrNoSession is returned when no session handle has been supplied.
var ErrNoSession = errors.New("no active session")

var (
	sessionKeywords    = []string{"session", "expired", "unauthorized", "unauthenticated", "invalid token", "not connected"}
	permissionKeywords = []string{"permission", "access denied", "forbidden", "not permitted", "eacces", "eperm"}
	notFoundKeywords   = []string{"not found", "no such file", "does not exist", "enoent"}
)

// Error is a classified failure of a single gateway call.
type Error struct {
	Op      string
	Path    string
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	b.WriteString(": ")
	switch {
	case e.Message != "":
		b.WriteString(e.Message)
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	default:
		b.WriteString(string(e.Kind))
	}
	if e.Status != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.Status)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Classify maps a failed response to exactly one kind. A zero status means no
// response was received. The result depends only on the arguments.
func Classify(status int, message string) ErrorKind {
	switch status {
	case http.StatusUnauthorized:
		return KindSessionExpired
	case http.StatusForbidden:
		return KindPermission
	case http.StatusNotFound:
		return KindNotFound
	case 0:
		return KindNetwork
	}

	msg := strings.ToLower(message)
	switch {
	case containsAny(msg, sessionKeywords):
		return KindSessionExpired
	case containsAny(msg, permissionKeywords):
		return KindPermission
	case containsAny(msg, notFoundKeywords):
		return KindNotFound
	}
	return KindUnknown
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// KindOf recovers the kind of err through any wrapping. Cancellation and nil
// have no kind.
func KindOf(err error) ErrorKind {
	if err == nil || IsCanceled(err) {
		return ""
	}
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	if errors.Is(err, ErrNoSession) {
		return KindSessionExpired
	}
	return KindUnknown
}

// IsCanceled reports whether err stems from a deliberate supersession.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// Persistent reports whether the failure changes what the user can do next and
// must stay visible in the affected view instead of a transient notice.
func (k ErrorKind) Persistent() bool {
	return k == KindPermission || k == KindSessionExpired
}

// Recoverable reports whether a failed directory load may fall back to the parent.
func (k ErrorKind) Recoverable() bool {
	return k == KindNotFound || k == KindNetwork || k == KindUnknown
}

// UserMessage is the headline shown for a kind.
func (k ErrorKind) UserMessage() string {
	switch k {
	case KindPermission:
		return "Permission denied"
	case KindNotFound:
		return "Not found"
	case KindSessionExpired:
		return "Session expired, reconnect to continue"
	case KindNetwork:
		return "Network error, the server could not be reached"
	case KindValidation:
		return "Invalid input"
	default:
		return "Something went wrong"
	}
}
