package player

// State is the playback state.
type State int32

const (
	Stopped State = iota
	Playing
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	default:
		return "unknown"
	}
}

// StopReason tells a stop observer why playback stopped.
type StopReason int

const (
	// StopRequested means Stop was called.
	StopRequested StopReason = iota
	// StopEndOfTrack means rendering ran past the end of the source.
	StopEndOfTrack
	// StopUnderrun means the engine failed to fill a block.
	StopUnderrun
)

func (r StopReason) String() string {
	switch r {
	case StopRequested:
		return "requested"
	case StopEndOfTrack:
		return "end of track"
	case StopUnderrun:
		return "underrun"
	default:
		return "unknown"
	}
}

// Region is a loop region in seconds, Start < End.
type Region struct {
	Start float64
	End   float64
}

// Len returns End - Start.
func (r Region) Len() float64 { return r.End - r.Start }

// Contains reports whether t lies in [Start, End].
func (r Region) Contains(t float64) bool { return t >= r.Start && t <= r.End }
