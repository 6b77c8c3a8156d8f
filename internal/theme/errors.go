package theme

import (
	"errors"
	"fmt"
)

// Reasons reported by SchemaMismatchError.
const (
	ReasonUnsupported      = "is not supported (Is it misspelled?)"
	ReasonEmpty            = "has empty/undefined value"
	ReasonUnsupportedValue = "has unsupported value"
	ReasonNotObject        = "must be a JSON object"
)

// ErrInvalidParam is returned for a themeParam value that is not key|value.
var ErrInvalidParam = errors.New("invalid theme parameter")

// SchemaMismatchError reports user input that does not fit the selector
// schema. Theme holds the configuration as it stood when compilation failed.
type SchemaMismatchError struct {
	Key    string
	Path   string
	Reason string
	Theme  string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("Skills Theme Error! Failed to process provided custom theme due to invalid format! JSON key of [%s] %s. Theme is %s",
		e.Key, e.Reason, e.Theme)
}

// SchemaAuthoringError reports a malformed schema leaf.
type SchemaAuthoringError struct {
	Path string
	Rule Rule
}

func (e *SchemaAuthoringError) Error() string {
	return fmt.Sprintf("Bug in the custom theme code. Both selector and styleName must be present for [%s: selector=%q styleName=%q]",
		e.Path, e.Rule.Selector, e.Rule.StyleName)
}

// IsUserError reports whether err was caused by the supplied theme rather
// than by the schema.
func IsUserError(err error) bool {
	var mismatch *SchemaMismatchError
	return errors.As(err, &mismatch) || errors.Is(err, ErrInvalidParam)
}
