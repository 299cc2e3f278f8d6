package control

import (
	"fmt"
	"strings"
	"sync"
)

type Key int

const (
	KeyUp Key = iota
	KeyDown
	KeyLeft
	KeyRight
)

func (k Key) String() string {
	switch k {
	case KeyUp:
		return "up"
	case KeyDown:
		return "down"
	case KeyLeft:
		return "left"
	case KeyRight:
		return "right"
	default:
		return fmt.Sprintf("Key(%d)", int(k))
	}
}

// ParseKey understands terminal key names and DOM-style arrow names.
func ParseKey(s string) (Key, bool) {
	switch strings.ToLower(s) {
	case "up", "arrowup":
		return KeyUp, true
	case "down", "arrowdown":
		return KeyDown, true
	case "left", "arrowleft":
		return KeyLeft, true
	case "right", "arrowright":
		return KeyRight, true
	}
	return 0, false
}

// Manual is driven by key edges. Press and Release may be called from an
// input goroutine while the frame loop reads Command.
type Manual struct {
	mu  sync.Mutex
	cmd Command
}

func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) Kind() Kind { return KindManual }

func (m *Manual) Command() Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cmd
}

func (m *Manual) Press(k Key) { m.set(k, true) }

func (m *Manual) Release(k Key) { m.set(k, false) }

func (m *Manual) set(k Key, down bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch k {
	case KeyUp:
		m.cmd.Forward = down
	case KeyDown:
		m.cmd.Reverse = down
	case KeyLeft:
		m.cmd.Left = down
	case KeyRight:
		m.cmd.Right = down
	}
}
