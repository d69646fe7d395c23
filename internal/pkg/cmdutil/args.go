package cmdutil

import (
	"fmt"
	"strings"

	"github.com/endorses/routefilter/internal/pkg/filtering"
)

// ParseFilterArgs turns "name=value" arguments into a request. Repeated
// names accumulate values, and a comma-separated value adds one value per
// element ("device=Edge 1,Edge 2"). `\,` is a literal comma.
func ParseFilterArgs(args []string) (filtering.Request, error) {
	req := make(filtering.Request)
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, &ArgError{Arg: arg}
		}
		req.Add(name, splitValues(value)...)
	}
	return req, nil
}

// splitValues splits on unescaped commas. Other backslashes are kept for the
// filter itself, e.g. `\*` in search patterns.
func splitValues(value string) []string {
	var out []string
	var b strings.Builder
	for i := 0; i < len(value); i++ {
		switch {
		case value[i] == '\\' && i+1 < len(value) && value[i+1] == ',':
			b.WriteByte(',')
			i++
		case value[i] == ',':
			out = append(out, b.String())
			b.Reset()
		default:
			b.WriteByte(value[i])
		}
	}
	return append(out, b.String())
}

// ArgError reports a malformed filter argument
type ArgError struct {
	Arg string
}

func (e *ArgError) Error() string {
	return fmt.Sprintf("invalid filter argument %q (expected name=value)", e.Arg)
}
