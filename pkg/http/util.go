package http

import (
	"time"

	xutil "github.com/aayeshatech/SYMBOLASTRO/pkg/util"
)

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time { return xutil.ParseTimeDefault(s, def) }
