package main

import (
	"github.com/fatih/color"
)

// styles holds color formatters for terminal output
type styles struct {
	name     *color.Color
	missing  *color.Color
	location *color.Color
	heading  *color.Color
}

// newStyles creates color formatters.
// enabled=false respects --no-color; fatih/color also honours NO_COLOR and
// non-terminal output on its own.
func newStyles(enabled bool) *styles {
	s := &styles{
		name:     color.New(color.Bold, color.FgHiGreen),
		missing:  color.New(color.FgYellow),
		location: color.New(color.FgHiBlue),
		heading:  color.New(color.Bold),
	}

	if !enabled {
		s.name.DisableColor()
		s.missing.DisableColor()
		s.location.DisableColor()
		s.heading.DisableColor()
	}

	return s
}
