// Package units defines typed length and angle quantities so that
// millimeter and degree values cannot be mixed up as bare floats
// while crossing package boundaries.
package units

import (
	"fmt"
	"math"
)

// Length is a length in millimeters.
type Length float64

// Millimeters returns the length as a bare float64 millimeter value.
func (l Length) Millimeters() float64 {
	return float64(l)
}

// String formats the length with its unit.
func (l Length) String() string {
	return fmt.Sprintf("%.3fmm", float64(l))
}

// Angle is an angle in degrees.
type Angle float64

// Degrees returns the angle as a bare float64 degree value.
func (a Angle) Degrees() float64 {
	return float64(a)
}

// Radians converts the angle to radians.
func (a Angle) Radians() float64 {
	return float64(a) * math.Pi / 180.0
}

// Normalized wraps the angle into the [0, 360) range.
func (a Angle) Normalized() Angle {
	d := math.Mod(float64(a), 360.0)
	if d < 0 {
		d += 360.0
	}
	return Angle(d)
}

// String formats the angle with its unit.
func (a Angle) String() string {
	return fmt.Sprintf("%.1f°", float64(a))
}
