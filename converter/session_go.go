//go:build !ORT

package converter

import (
	"fmt"

	"github.com/knights-analytics/hugot"
)

// Built without the ORT backend: the ORT-backed strategy reports itself
// unavailable and the chain falls through to the pure-Go pipeline.
func ortAvailable() error {
	return fmt.Errorf("%w: built without ORT support (rebuild with -tags ORT)", ErrUnavailable)
}

func newORTSession() (*hugot.Session, error) {
	return nil, ortAvailable()
}
