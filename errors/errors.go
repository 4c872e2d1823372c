package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseIntrospect Phase = "introspect" // Go type to descriptor
	PhaseLayout     Phase = "layout"     // descriptor to layout
	PhasePack       Phase = "pack"       // values to words
	PhaseUnpack     Phase = "unpack"     // words to values
	PhaseACL        Phase = "acl"        // permission checks and mutations
	PhaseRegister   Phase = "register"   // namespace/resource registration
	PhaseUpgrade    Phase = "upgrade"    // schema upgrade checks
	PhaseStore      Phase = "store"      // word store access
	PhaseConfig     Phase = "config"     // environment configuration
	PhaseManifest   Phase = "manifest"   // manifest parsing
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidLayout       Kind = "invalid_layout"
	KindLengthMismatch      Kind = "length_mismatch"
	KindNotAuthorized       Kind = "not_authorized"
	KindNotRegistered       Kind = "not_registered"
	KindSelectorMismatch    Kind = "selector_mismatch"
	KindIncompatibleUpgrade Kind = "incompatible_upgrade"
	KindAlreadyRegistered   Kind = "already_registered"
	KindInvalidInput        Kind = "invalid_input"
	KindTypeMismatch        Kind = "type_mismatch"
	KindUnsupported         Kind = "unsupported"
	KindNotFound            Kind = "not_found"
	KindClosed              Kind = "closed"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	GoType string
	TyName string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" || e.TyName != "" {
		b.WriteString(": ")
		switch {
		case e.GoType != "" && e.TyName != "":
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", schema type ")
			b.WriteString(e.TyName)
		case e.GoType != "":
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		default:
			b.WriteString("schema type ")
			b.WriteString(e.TyName)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.TyName != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target with an empty Phase matches on Kind alone.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		if t.Phase == "" {
			return e.Kind == t.Kind
		}
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// TyName sets the schema type name
func (b *Builder) TyName(t string) *Builder {
	b.err.TyName = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// HasKind reports whether any *Error in err's chain has the given kind.
func HasKind(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Cause
	}
	return false
}

// Sentinel returns a kind-only target usable with errors.Is.
func Sentinel(kind Kind) *Error {
	return &Error{Kind: kind}
}

// Convenience constructors for common error patterns

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, goType, tyName string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Path:   path,
		GoType: goType,
		TyName: tyName,
	}
}

// InvalidLayout creates an invalid layout error
func InvalidLayout(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidLayout,
		Path:   path,
		Detail: detail,
	}
}

// InvalidWidth creates an invalid layout error for a width outside 1..max
func InvalidWidth(phase Phase, path []string, width, max uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidLayout,
		Path:   path,
		Detail: fmt.Sprintf("width %d outside 1..%d", width, max),
		Value:  width,
	}
}

// LengthMismatch creates a length mismatch error
func LengthMismatch(phase Phase, detail string, args ...any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindLengthMismatch,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// NotAuthorized creates an error naming the missing role and the resource tag
func NotAuthorized(role, tag, account string) *Error {
	return &Error{
		Phase:  PhaseACL,
		Kind:   KindNotAuthorized,
		Detail: fmt.Sprintf("account %s is not %s of %s", account, role, tag),
	}
}

// NotRegistered creates an error for an unknown namespace or resource
func NotRegistered(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotRegistered,
		Detail: fmt.Sprintf("%s is not registered", what),
	}
}

// AlreadyRegistered creates an error for a duplicate registration
func AlreadyRegistered(what string) *Error {
	return &Error{
		Phase:  PhaseRegister,
		Kind:   KindAlreadyRegistered,
		Detail: fmt.Sprintf("%s is already registered", what),
	}
}

// SelectorMismatch creates an error for a self-reported selector that
// disagrees with the derived one
func SelectorMismatch(tag, reported, derived string) *Error {
	return &Error{
		Phase:  PhaseRegister,
		Kind:   KindSelectorMismatch,
		Detail: fmt.Sprintf("%s reports selector %s, derived %s", tag, reported, derived),
	}
}

// IncompatibleUpgrade creates an upgrade rejection error
func IncompatibleUpgrade(tag string, path []string, reason string, detail string) *Error {
	msg := tag + ": " + reason
	if detail != "" {
		msg += " (" + detail + ")"
	}
	return &Error{
		Phase:  PhaseUpgrade,
		Kind:   KindIncompatibleUpgrade,
		Path:   path,
		Detail: msg,
		Value:  reason,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Path:   path,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Store wraps a backend failure
func Store(op string, cause error) *Error {
	return &Error{
		Phase:  PhaseStore,
		Kind:   KindInvalidInput,
		Detail: op,
		Cause:  cause,
	}
}
