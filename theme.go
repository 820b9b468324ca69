package margin

// Theme defines semantic color mappings using ANSI color indices (0-15).
// The user's terminal theme determines the actual RGB values, so output
// automatically matches any color scheme.
type Theme struct {
	Reasoning int // streamed reasoning text
	Error     int // error messages
	Success   int // success indicators
	Muted     int // status line, placeholders
	CodeBg    int // code block background
	Accent    int // headings, links
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{
		Reasoning: 8,
		Error:     1,
		Success:   2,
		Muted:     8,
		CodeBg:    0,
		Accent:    5,
	}
}
