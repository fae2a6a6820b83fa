package highlight

import (
	"errors"
	"fmt"
	"sort"
)

// ErrStyleNotFound is returned when a named environment style is queried
// that the highlighter never registered.
var ErrStyleNotFound = errors.New("named style not found")

// Fixed environment slot names. Every Environment carries all of them.
const (
	SlotDefault          = "Default"
	SlotSelection        = "Selection"
	SlotVRuler           = "VRuler"
	SlotInvalidLines     = "InvalidLines"
	SlotCaretMarker      = "CaretMarker"
	SlotCaretLine        = "CaretLine"
	SlotLineNumbers      = "LineNumbers"
	SlotFoldLine         = "FoldLine"
	SlotFoldMarker       = "FoldMarker"
	SlotSelectedFoldLine = "SelectedFoldLine"
	SlotEOLMarkers       = "EOLMarkers"
	SlotSpaceMarkers     = "SpaceMarkers"
	SlotTabMarkers       = "TabMarkers"
)

func defaultSlots() map[string]Style {
	black := RGB(0x00, 0x00, 0x00)
	white := RGB(0xff, 0xff, 0xff)
	gray := RGB(0x80, 0x80, 0x80)
	silver := RGB(0xc0, 0xc0, 0xc0)
	return map[string]Style{
		SlotDefault:          {Fg: black, Bg: white},
		SlotSelection:        {Fg: white, Bg: RGB(0x31, 0x6a, 0xc5)},
		SlotVRuler:           {Fg: silver, Bg: white},
		SlotInvalidLines:     {Fg: RGB(0xb2, 0x22, 0x22)},
		SlotCaretMarker:      {Fg: RGB(0xff, 0xff, 0xe0)},
		SlotCaretLine:        {Fg: RGB(0xff, 0xff, 0xe0)},
		SlotLineNumbers:      {Fg: gray, Bg: white},
		SlotFoldLine:         {Fg: gray, Bg: black},
		SlotFoldMarker:       {Fg: gray, Bg: white},
		SlotSelectedFoldLine: {Fg: black},
		SlotEOLMarkers:       {Fg: white},
		SlotSpaceMarkers:     {Fg: silver},
		SlotTabMarkers:       {Fg: silver},
	}
}

// Environment is an immutable table of named styles. The fixed slots are
// always present, so lookups of those names never fail.
type Environment struct {
	slots map[string]Style
}

// NewEnvironment builds an environment from the fixed defaults with the
// given overrides applied. Overrides may also introduce extra names.
func NewEnvironment(overrides map[string]Style) *Environment {
	slots := defaultSlots()
	for name, style := range overrides {
		slots[name] = style
	}
	return &Environment{slots: slots}
}

// Lookup returns the style registered under name.
func (e *Environment) Lookup(name string) (Style, error) {
	if e == nil {
		return Style{}, fmt.Errorf("%w: %q", ErrStyleNotFound, name)
	}
	s, ok := e.slots[name]
	if !ok {
		return Style{}, fmt.Errorf("%w: %q", ErrStyleNotFound, name)
	}
	return s, nil
}

// Names returns the registered slot names in sorted order.
func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.slots))
	for name := range e.slots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Styles returns a copy of the slot table.
func (e *Environment) Styles() map[string]Style {
	out := make(map[string]Style, len(e.slots))
	for k, v := range e.slots {
		out[k] = v
	}
	return out
}
