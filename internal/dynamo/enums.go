package dynamo

import (
	"fmt"
	"strings"
)

// ResistanceKind selects the front (tip) resistance model.
type ResistanceKind int

const (
	ResistanceUnset ResistanceKind = iota
	// ResistanceConstant uses a single depth-independent coefficient.
	ResistanceConstant
	// ResistanceBanded steps the coefficient over 1 m depth bands down to 10 m.
	ResistanceBanded
)

// RpmMode selects how the rotational speed is raised.
type RpmMode int

const (
	RpmUnset RpmMode = iota
	// RpmAdaptive raises the speed by a fixed step whenever the pile stalls.
	RpmAdaptive
	// RpmTable follows a (time, speed) schedule.
	RpmTable
)

// TrackMode selects which impulse tracks a run computes.
type TrackMode int

const (
	// TracksClean computes the noise-free track only; no random numbers are drawn.
	TracksClean TrackMode = iota
	// TracksNoisy computes a single perturbed track.
	TracksNoisy
	// TracksDual computes both tracks and records both impulses.
	TracksDual
)

// Track names one impulse track.
type Track int

const (
	TrackClean Track = iota
	TrackNoisy
)

var (
	resistanceNames = map[ResistanceKind]string{ResistanceUnset: "unset", ResistanceConstant: "constant", ResistanceBanded: "banded"}
	rpmModeNames    = map[RpmMode]string{RpmUnset: "unset", RpmAdaptive: "adaptive", RpmTable: "table"}
	trackModeNames  = map[TrackMode]string{TracksClean: "clean", TracksNoisy: "noisy", TracksDual: "dual"}
	trackNames      = map[Track]string{TrackClean: "clean", TrackNoisy: "noisy"}
)

func (k ResistanceKind) String() string { return enumString(resistanceNames, k) }
func (m RpmMode) String() string        { return enumString(rpmModeNames, m) }
func (m TrackMode) String() string      { return enumString(trackModeNames, m) }
func (t Track) String() string          { return enumString(trackNames, t) }

func (k ResistanceKind) valid() bool { return k == ResistanceConstant || k == ResistanceBanded }
func (m TrackMode) valid() bool      { return m >= TracksClean && m <= TracksDual }
func (t Track) valid() bool          { return t == TrackClean || t == TrackNoisy }

func (k ResistanceKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }
func (m RpmMode) MarshalText() ([]byte, error)        { return []byte(m.String()), nil }
func (m TrackMode) MarshalText() ([]byte, error)      { return []byte(m.String()), nil }
func (t Track) MarshalText() ([]byte, error)          { return []byte(t.String()), nil }

func (k *ResistanceKind) UnmarshalText(b []byte) error {
	return enumParse(resistanceNames, string(b), k)
}
func (m *RpmMode) UnmarshalText(b []byte) error   { return enumParse(rpmModeNames, string(b), m) }
func (m *TrackMode) UnmarshalText(b []byte) error { return enumParse(trackModeNames, string(b), m) }
func (t *Track) UnmarshalText(b []byte) error     { return enumParse(trackNames, string(b), t) }

func enumString[T ~int](names map[T]string, v T) string {
	if s, ok := names[v]; ok {
		return s
	}
	return fmt.Sprintf("%T(%d)", v, int(v))
}

func enumParse[T ~int](names map[T]string, s string, out *T) error {
	s = strings.ToLower(strings.TrimSpace(s))
	for v, name := range names {
		if name == s && name != "unset" {
			*out = v
			return nil
		}
	}
	return configErrorf("unknown value %q", s)
}
