package worker

import "fmt"

// State is the lifecycle step of a worker
type State int

const (
	Parsed State = iota
	Installing
	Installed
	Activating
	Activated
	Redundant
)

var stateNames = map[State]string{
	Parsed:     "parsed",
	Installing: "installing",
	Installed:  "installed",
	Activating: "activating",
	Activated:  "activated",
	Redundant:  "redundant",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}

	return "unknown"
}

// MarshalText implements encoding.TextMarshaler
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Source tells where an intercepted response comes from
type Source int

const (
	SourceNetwork Source = iota
	SourceBypass
	SourceCache
	SourceOfflinePage
	SourceNone
)

func (s Source) String() string {
	switch s {
	case SourceNetwork:
		return "network"
	case SourceBypass:
		return "bypass"
	case SourceCache:
		return "cache"
	case SourceOfflinePage:
		return "offline-page"
	default:
		return "none"
	}
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *State) UnmarshalText(text []byte) error {
	for state, name := range stateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}

	return fmt.Errorf("unknown worker state %q", text)
}
