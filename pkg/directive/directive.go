// Package directive renders firmware velocity-limit directives and emits
// them only when the requested regime differs from the active one.
package directive

import (
	"regexp"
	"strconv"
	"strings"
)

// Limit selects which values of a Regime are meaningful.
type Limit uint8

const (
	LimitAccel Limit = 1 << iota
	LimitSCV
)

// Regime is the bundle of limits in force while a region is active.
type Regime struct {
	Accel                float64
	SquareCornerVelocity float64
	Set                  Limit
}

// SCV returns a regime that sets only the square corner velocity.
func SCV(v float64) Regime {
	return Regime{SquareCornerVelocity: v, Set: LimitSCV}
}

// Accel returns a regime that sets only the acceleration.
func Accel(v float64) Regime {
	return Regime{Accel: v, Set: LimitAccel}
}

// AccelSCV returns a regime that sets both limits.
func AccelSCV(accel, scv float64) Regime {
	return Regime{Accel: accel, SquareCornerVelocity: scv, Set: LimitAccel | LimitSCV}
}

// IsZero reports whether the regime sets nothing.
func (r Regime) IsZero() bool { return r.Set == 0 }

// Merge returns r with every limit o sets overwritten by o's value.
func (r Regime) Merge(o Regime) Regime {
	if o.Set&LimitAccel != 0 {
		r.Accel = o.Accel
	}
	if o.Set&LimitSCV != 0 {
		r.SquareCornerVelocity = o.SquareCornerVelocity
	}
	r.Set |= o.Set
	return r
}

// Covers reports whether r already holds every limit o sets, with the
// same values.
func (r Regime) Covers(o Regime) bool {
	if o.Set&^r.Set != 0 {
		return false
	}
	if o.Set&LimitAccel != 0 && r.Accel != o.Accel {
		return false
	}
	if o.Set&LimitSCV != 0 && r.SquareCornerVelocity != o.SquareCornerVelocity {
		return false
	}
	return true
}

var (
	reCommand  = regexp.MustCompile(`(?i)^SET_VELOCITY_LIMIT(?:\s|$)`)
	reAccelArg = regexp.MustCompile(`(?i)(?:^|\s)ACCEL=(\d+(?:\.\d*)?)`)
	reSCVArg   = regexp.MustCompile(`(?i)(?:^|\s)SQUARE_CORNER_VELOCITY=(\d+(?:\.\d*)?)`)
)

// Parse reads the limits a SET_VELOCITY_LIMIT command sets. code is the
// command without its comment. Keys are matched case-insensitively and
// arguments other than ACCEL and SQUARE_CORNER_VELOCITY are ignored. ok
// is false for other commands and for directives that set neither limit.
func Parse(code string) (Regime, bool) {
	code = strings.TrimSpace(code)
	if !reCommand.MatchString(code) {
		return Regime{}, false
	}
	var r Regime
	if m := reAccelArg.FindStringSubmatch(code); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			r = r.Merge(Accel(v))
		}
	}
	if m := reSCVArg.FindStringSubmatch(code); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			r = r.Merge(SCV(v))
		}
	}
	return r, !r.IsZero()
}

// Formatter renders a regime as a directive line. The command and key
// names are the only firmware-specific part of the engine.
type Formatter struct {
	Command  string
	AccelKey string
	SCVKey   string
}

// Klipper is the stock SET_VELOCITY_LIMIT formatter.
var Klipper = Formatter{
	Command:  "SET_VELOCITY_LIMIT",
	AccelKey: "ACCEL",
	SCVKey:   "SQUARE_CORNER_VELOCITY",
}

// KlipperLower uses the lower-case corner velocity key some macros expect.
var KlipperLower = Formatter{
	Command:  "SET_VELOCITY_LIMIT",
	AccelKey: "accel",
	SCVKey:   "square_corner_velocity",
}

// Format renders r with an optional trailing note.
func (f Formatter) Format(r Regime, note string) string {
	var sb strings.Builder
	sb.WriteString(f.Command)
	if r.Set&LimitAccel != 0 {
		sb.WriteString(" ")
		sb.WriteString(f.AccelKey)
		sb.WriteString("=")
		sb.WriteString(formatNumber(r.Accel))
	}
	if r.Set&LimitSCV != 0 {
		sb.WriteString(" ")
		sb.WriteString(f.SCVKey)
		sb.WriteString("=")
		sb.WriteString(formatNumber(r.SquareCornerVelocity))
	}
	if note != "" {
		sb.WriteString(" ; ")
		sb.WriteString(note)
	}
	return sb.String()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
