package filtering

import "fmt"

// UnknownFilterError is returned when a request names a filter the set does not define.
type UnknownFilterError struct {
	Kind   string
	Filter string
}

func (e *UnknownFilterError) Error() string {
	return fmt.Sprintf("unknown filter %q for %s", e.Filter, e.Kind)
}

// CoercionError is returned when a supplied value cannot be converted to the
// filter's field type.
type CoercionError struct {
	Filter  string
	Value   string
	Message string
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("%s: invalid value %q: %s", e.Filter, e.Value, e.Message)
}

// SpecError represents an invalid filter definition
type SpecError struct {
	Filter  string
	Message string
}

func (e *SpecError) Error() string {
	if e.Filter == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Filter, e.Message)
}
