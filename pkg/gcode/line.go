// Package gcode parses slicer G-code lines into the small model the
// annotators need: the normalised command, the axis words it carries and
// any structural marker comment.
package gcode

import (
	"regexp"
	"strconv"
	"strings"
)

// Axis identifies a tracked machine axis.
type Axis int

const (
	X Axis = iota
	Y
	Z
	E
)

var axisNames = [...]string{"X", "Y", "Z", "E"}

func (a Axis) String() string {
	if a < X || a > E {
		return "?"
	}
	return axisNames[a]
}

// Kind classifies a line for the region state machines.
type Kind int

const (
	KindBlank   Kind = iota // empty or whitespace only
	KindComment             // only a ; comment
	KindTravel              // G0
	KindLinear              // G1
	KindArc                 // G2 / G3
	KindCommand             // any other command
)

func (k Kind) String() string {
	switch k {
	case KindBlank:
		return "blank"
	case KindComment:
		return "comment"
	case KindTravel:
		return "travel"
	case KindLinear:
		return "linear"
	case KindArc:
		return "arc"
	default:
		return "command"
	}
}

// Line is one parsed G-code line.
type Line struct {
	// Raw is the line with trailing whitespace removed.
	Raw string
	// Code is the text before any ';', trimmed.
	Code string
	// Comment is the text after the first ';', trimmed. Empty if none.
	Comment string
	// HasComment reports whether the line carries a ';' at all.
	HasComment bool
	// Command is the upper-case command token with leading zeros removed
	// from G/M/T numbers ("g01" -> "G1").
	Command string
	Kind    Kind

	axes    [4]float64
	present [4]bool
}

var (
	reParenComment = regexp.MustCompile(`\([^)]*\)`)
	reNumbered     = regexp.MustCompile(`(?i)^([GMT])0*(\d+)(\.\d+)?`)
	reAxisWord     = regexp.MustCompile(`(?i)([XYZE])(-?\d+(?:\.\d*)?)`)
)

// Parse builds a Line from raw text. It never fails: text it cannot make
// sense of is kept verbatim and classified as a plain command.
func Parse(raw string) Line {
	l := Line{Raw: strings.TrimRight(raw, " \t\r\n")}
	ln := strings.TrimSpace(l.Raw)
	if ln == "" {
		l.Kind = KindBlank
		return l
	}
	code := ln
	if idx := strings.IndexByte(ln, ';'); idx >= 0 {
		code = ln[:idx]
		l.Comment = strings.TrimSpace(ln[idx+1:])
		l.HasComment = true
	}
	code = strings.TrimSpace(reParenComment.ReplaceAllString(code, " "))
	l.Code = code
	if code == "" {
		l.Kind = KindComment
		return l
	}

	if m := reNumbered.FindStringSubmatch(code); m != nil {
		l.Command = strings.ToUpper(m[1]) + m[2] + m[3]
	} else {
		l.Command = strings.ToUpper(strings.Fields(code)[0])
	}

	switch l.Command {
	case "G0":
		l.Kind = KindTravel
	case "G1":
		l.Kind = KindLinear
	case "G2", "G3":
		l.Kind = KindArc
	default:
		l.Kind = KindCommand
		// G92 re-bases the position and carries axis words too.
		if l.Command != "G92" {
			return l
		}
	}

	// Words after the command token. The first occurrence of an axis wins;
	// a malformed number leaves the axis absent.
	rest := code[len(reNumbered.FindString(code)):]
	for _, m := range reAxisWord.FindAllStringSubmatch(rest, -1) {
		a := axisFromLetter(m[1])
		if l.present[a] {
			continue
		}
		f, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		l.axes[a] = f
		l.present[a] = true
	}
	return l
}

func axisFromLetter(s string) Axis {
	switch strings.ToUpper(s) {
	case "X":
		return X
	case "Y":
		return Y
	case "Z":
		return Z
	default:
		return E
	}
}

// Axis returns the value of an axis word and whether the line carries it.
func (l Line) Axis(a Axis) (float64, bool) {
	if a < X || a > E {
		return 0, false
	}
	return l.axes[a], l.present[a]
}

// Has reports whether the line carries the axis word.
func (l Line) Has(a Axis) bool {
	_, ok := l.Axis(a)
	return ok
}

// HasXY reports whether the line carries an X or a Y word.
func (l Line) HasXY() bool {
	return l.present[X] || l.present[Y]
}

// HasBothXY reports whether the line carries both X and Y words.
func (l Line) HasBothXY() bool {
	return l.present[X] && l.present[Y]
}

// IsMotion reports whether the line is a G0, G1, G2 or G3 move.
func (l Line) IsMotion() bool {
	return l.Kind == KindTravel || l.Kind == KindLinear || l.Kind == KindArc
}

// SplitLines splits file contents into lines with trailing whitespace
// removed. A final newline does not produce an extra empty line.
func SplitLines(data string) []string {
	if data == "" {
		return nil
	}
	data = strings.TrimSuffix(data, "\n")
	parts := strings.Split(data, "\n")
	for i, p := range parts {
		parts[i] = strings.TrimRight(p, " \t\r")
	}
	return parts
}

// JoinLines joins lines with '\n' and terminates the last one.
func JoinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
