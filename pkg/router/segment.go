package router

import "regexp"

// SegmentKind classifies a file or directory name token.
type SegmentKind int

const (
	// SegmentLiteral is a plain path segment.
	SegmentLiteral SegmentKind = iota
	// SegmentParam is a named parameter: [name].
	SegmentParam
	// SegmentCatchAll matches the rest of the path: [...name].
	SegmentCatchAll
)

// String returns the kind name.
func (k SegmentKind) String() string {
	switch k {
	case SegmentParam:
		return "param"
	case SegmentCatchAll:
		return "catch-all"
	default:
		return "literal"
	}
}

var (
	catchAllPattern = regexp.MustCompile(`^\[\.\.\.([^\[\]/]+)\]$`)
	paramPattern    = regexp.MustCompile(`^\[([^.\[\]/]+)\]$`)
)

// ClassifySegment reports the kind of token and the parameter name it
// captures. Literals return the token itself as name.
func ClassifySegment(token string) (SegmentKind, string) {
	if m := catchAllPattern.FindStringSubmatch(token); m != nil {
		return SegmentCatchAll, m[1]
	}
	if m := paramPattern.FindStringSubmatch(token); m != nil {
		return SegmentParam, m[1]
	}
	return SegmentLiteral, token
}

// ConvertSegment maps a file or directory name token to a react-router path
// segment:
//
//	[...rest] → *
//	[id]      → :id
//	about     → about
//
// Anything that is not exactly one of the bracket forms passes through
// unchanged, including malformed brackets.
func ConvertSegment(token string) string {
	kind, name := ClassifySegment(token)
	switch kind {
	case SegmentCatchAll:
		return "*"
	case SegmentParam:
		return ":" + name
	default:
		return token
	}
}
