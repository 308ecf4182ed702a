package errs

// Failure kinds shared by every layer. Concrete errors are tagged with one
// of these through Mark at the point where the failure is classified.
var (
	ErrAuthRequired = New("authentication required")
	ErrConflict     = New("conflict")
	ErrTransient    = New("transient failure")
	ErrValidation   = New("validation failed")
)

type Kind string

const (
	KindAuthRequired Kind = "auth_required"
	KindConflict     Kind = "conflict"
	KindTransient    Kind = "transient"
	KindValidation   Kind = "validation"
	KindInternal     Kind = "internal"
)

func AuthRequired(err error) error { return Mark(err, ErrAuthRequired) }
func Conflict(err error) error     { return Mark(err, ErrConflict) }
func Transient(err error) error    { return Mark(err, ErrTransient) }
func Validation(err error) error   { return Mark(err, ErrValidation) }

// KindOf reports how err was classified. Auth takes precedence so callers
// can always redirect to login.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case Is(err, ErrAuthRequired):
		return KindAuthRequired
	case Is(err, ErrValidation):
		return KindValidation
	case Is(err, ErrConflict):
		return KindConflict
	case Is(err, ErrTransient):
		return KindTransient
	default:
		return KindInternal
	}
}

func IsTransient(err error) bool {
	return KindOf(err) == KindTransient
}
