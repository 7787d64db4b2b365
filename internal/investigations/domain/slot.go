package domain

import "time"

// SlotLayout is the canonical rendering of a slot.
const SlotLayout = "2006-01-02T15:04"

// MaxSlots bounds the number of candidate slots in one proposal.
const MaxSlots = 5

// Slots are wall-clock times without an offset; the RDV timezone applies.
var slotLayouts = []string{
	SlotLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

// ParseSlot parses a raw slot string. The second result is false when no
// accepted layout matches. Surrounding whitespace is not tolerated.
func ParseSlot(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range slotLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatSlot renders t with SlotLayout.
func FormatSlot(t time.Time) string {
	return t.Format(SlotLayout)
}
