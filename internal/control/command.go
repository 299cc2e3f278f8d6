package control

import (
	"fmt"
	"strings"
)

// Command is the throttle and steering intent for one frame.
type Command struct {
	Forward bool `json:"forward"`
	Reverse bool `json:"reverse"`
	Left    bool `json:"left"`
	Right   bool `json:"right"`
}

// Active counts the fields that are set.
func (c Command) Active() int {
	n := 0
	for _, b := range [...]bool{c.Forward, c.Reverse, c.Left, c.Right} {
		if b {
			n++
		}
	}
	return n
}

// Kind tags the strategy a source implements.
type Kind int

const (
	KindManual Kind = iota
	KindFixed
	KindNeural
)

func (k Kind) String() string {
	switch k {
	case KindManual:
		return "manual"
	case KindFixed:
		return "dummy"
	case KindNeural:
		return "ai"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps config names to kinds. "keys" and "dummy" are accepted as
// aliases so older scenario files keep working.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "manual", "keys":
		return KindManual, nil
	case "dummy", "fixed":
		return KindFixed, nil
	case "ai", "neural":
		return KindNeural, nil
	default:
		return 0, fmt.Errorf("unknown control source: %q", s)
	}
}

type Source interface {
	Kind() Kind
	Command() Command
}

// Actuated sources take the controller outputs evaluated during a frame and
// turn them into the command used on the next frame.
type Actuated interface {
	Source
	Apply(outputs []float64)
}

// New builds the default source for a kind.
func New(k Kind) Source {
	switch k {
	case KindFixed:
		return NewFixed()
	case KindNeural:
		return NewNeural()
	default:
		return NewManual()
	}
}
