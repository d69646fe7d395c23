package filtering

import "strings"

// Anchor says where a substring pattern must sit in a field value.
type Anchor int

const (
	// AnchorNone matches the text anywhere in the value
	AnchorNone Anchor = iota
	// AnchorStart matches values that begin with the text ("Inst*")
	AnchorStart
	// AnchorEnd matches values that end with the text ("*/24")
	AnchorEnd
)

func (a Anchor) String() string {
	switch a {
	case AnchorStart:
		return "prefix"
	case AnchorEnd:
		return "suffix"
	default:
		return "contains"
	}
}

// Pattern is a compiled free-text search term. Text is stored lower-cased so
// only the field value needs folding per record.
type Pattern struct {
	Text   string
	Anchor Anchor
}

// ParsePattern compiles a search term. A leading "*" anchors the term at
// the end of the value, a trailing "*" anchors it at the start, and both or
// neither match anywhere. `\*` is a literal asterisk.
func ParsePattern(input string) Pattern {
	leading := strings.HasPrefix(input, "*")
	trailing := strings.HasSuffix(input, "*") && !strings.HasSuffix(input, `\*`) && len(input) > 1

	body := input
	if leading {
		body = body[1:]
	}
	if trailing {
		body = body[:len(body)-1]
	}

	p := Pattern{Text: strings.ToLower(strings.ReplaceAll(body, `\*`, "*"))}
	switch {
	case leading && !trailing:
		p.Anchor = AnchorEnd
	case trailing && !leading:
		p.Anchor = AnchorStart
	}
	return p
}

// Match reports whether value satisfies the pattern, ignoring case.
func (p Pattern) Match(value string) bool {
	if p.Text == "" {
		return true
	}
	value = strings.ToLower(value)
	switch p.Anchor {
	case AnchorStart:
		return strings.HasPrefix(value, p.Text)
	case AnchorEnd:
		return strings.HasSuffix(value, p.Text)
	default:
		return strings.Contains(value, p.Text)
	}
}

// String renders the pattern as "<anchor>:<text>"
func (p Pattern) String() string {
	return p.Anchor.String() + ":" + p.Text
}
