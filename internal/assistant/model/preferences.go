package model

import (
	"fmt"
	"strings"
)

type PointOfView string

const (
	ThirdPerson PointOfView = "third"
	FirstPerson PointOfView = "first"
)

type Verbosity string

const (
	VerbosityNormal Verbosity = "normal"
	VerbosityLow    Verbosity = "low"
	VerbosityHigh   Verbosity = "high"
)

type Formatting string

const (
	FormatNormal   Formatting = "normal"
	FormatBulleted Formatting = "bulleted"
	FormatProse    Formatting = "prose"
)

// Preferences are the visitor's display choices for future answers.
// The zero value is equivalent to DefaultPreferences.
type Preferences struct {
	PointOfView PointOfView `json:"point_of_view"`
	Verbosity   Verbosity   `json:"verbosity"`
	Formatting  Formatting  `json:"formatting"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		PointOfView: ThirdPerson,
		Verbosity:   VerbosityNormal,
		Formatting:  FormatNormal,
	}
}

// Normalize fills empty fields with defaults and lower-cases the rest.
func (p Preferences) Normalize() Preferences {
	d := DefaultPreferences()
	if v := PointOfView(strings.ToLower(strings.TrimSpace(string(p.PointOfView)))); v != "" {
		d.PointOfView = v
	}
	if v := Verbosity(strings.ToLower(strings.TrimSpace(string(p.Verbosity)))); v != "" {
		d.Verbosity = v
	}
	if v := Formatting(strings.ToLower(strings.TrimSpace(string(p.Formatting)))); v != "" {
		d.Formatting = v
	}
	return d
}

// Validate returns an error naming the first unknown value.
func (p Preferences) Validate() error {
	switch p.PointOfView {
	case ThirdPerson, FirstPerson:
	default:
		return fmt.Errorf("unknown point of view %q", p.PointOfView)
	}
	switch p.Verbosity {
	case VerbosityNormal, VerbosityLow, VerbosityHigh:
	default:
		return fmt.Errorf("unknown verbosity %q", p.Verbosity)
	}
	switch p.Formatting {
	case FormatNormal, FormatBulleted, FormatProse:
	default:
		return fmt.Errorf("unknown formatting %q", p.Formatting)
	}
	return nil
}
