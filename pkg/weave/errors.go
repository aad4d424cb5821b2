package weave

import (
	"fmt"

	"github.com/Boceto3D/Weave-B3D/pkg/units"
)

// ValidationError reports an invalid parameter or selection before any
// geometry work has started. It always aborts the whole run.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// GeometryExtractionError reports that the selected body yields no
// usable closed reference curve. It always aborts the whole run.
type GeometryExtractionError struct {
	Reason string
	Err    error
}

func (e *GeometryExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("reference curve extraction failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("reference curve extraction failed: %s", e.Reason)
}

func (e *GeometryExtractionError) Unwrap() error {
	return e.Err
}

// SweepConstructionError reports that the geometry kernel could not
// realize a rope sweep after the full thickness retry sequence. It is
// recorded on the rope result, never raised to the caller.
type SweepConstructionError struct {
	RopeIndex int
	Attempts  int
	Thickness units.Length
	Err       error
}

func (e *SweepConstructionError) Error() string {
	return fmt.Sprintf("rope %d: sweep failed after %d attempts (last thickness %s): %v",
		e.RopeIndex, e.Attempts, e.Thickness, e.Err)
}

func (e *SweepConstructionError) Unwrap() error {
	return e.Err
}
