package domain

import "strings"

// Slot is one of the four canonical answer positions.
type Slot string

const (
	SlotNone Slot = ""
	SlotA    Slot = "A"
	SlotB    Slot = "B"
	SlotC    Slot = "C"
	SlotD    Slot = "D"
)

// Slots lists the canonical slots in presentation order.
var Slots = [4]Slot{SlotA, SlotB, SlotC, SlotD}

// ParseSlot maps raw input ("b", "B", "option_b", "Option B") to a slot.
// Unrecognized input yields SlotNone and false.
func ParseSlot(raw string) (Slot, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.TrimPrefix(s, "OPTION")
	s = strings.TrimLeft(s, "_- ")
	switch Slot(s) {
	case SlotA, SlotB, SlotC, SlotD:
		return Slot(s), true
	}
	return SlotNone, false
}

// Valid reports whether s is one of A-D.
func (s Slot) Valid() bool {
	switch s {
	case SlotA, SlotB, SlotC, SlotD:
		return true
	}
	return false
}
