package watch

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Slot names for the fixed two-slot capture set. Larger slot counts fall back
// to positional names.
const (
	SlotFront = "front"
	SlotBack  = "back"
)

// WorkItem is one raw media file observed at the source location. It exists
// as a filesystem object until the archiver completes a terminal transition.
type WorkItem struct {
	Path         string
	Name         string
	Slot         string
	Size         int64
	DiscoveredAt time.Time
}

// Batch is an ordered, fixed-size group of WorkItems representing one
// physical item's capture set. Never split once formed.
type Batch struct {
	ID    uuid.UUID
	Items []WorkItem
}

// Back returns the designated back-of-box item: the last slot, which is the
// one photographed against the printed item number.
func (b *Batch) Back() WorkItem {
	return b.Items[len(b.Items)-1]
}

// slotName maps a slot index to its name for a given slot count.
func slotName(i, slots int) string {
	switch {
	case i == 0:
		return SlotFront
	case i == slots-1:
		return SlotBack
	default:
		return fmt.Sprintf("slot%d", i+1)
	}
}
