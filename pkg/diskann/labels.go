package diskann

import (
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
)

// LabelIndex holds, per slot, the set of label ids a point carries,
// and an inverted per-label posting list that Matches consults. A
// point carrying the universal label matches every filter.
type LabelIndex struct {
	mu            sync.RWMutex
	bySlot        map[uint32][]uint32
	byLabel       map[uint32]*roaring.Bitmap
	universal     uint32
	hasUniversal  bool
	universalSlots *roaring.Bitmap
}

// NewLabelIndex returns an empty label index.
func NewLabelIndex() *LabelIndex {
	return &LabelIndex{
		bySlot:         make(map[uint32][]uint32),
		byLabel:        make(map[uint32]*roaring.Bitmap),
		universalSlots: roaring.New(),
	}
}

// SetUniversalLabel designates label as matching every filter.
func (l *LabelIndex) SetUniversalLabel(label uint32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.universal = label
	l.hasUniversal = true
}

// Set records slot's label set, replacing any prior one.
func (l *LabelIndex) Set(slot uint32, labels []uint32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clearLocked(slot)
	cp := append([]uint32(nil), labels...)
	l.bySlot[slot] = cp
	for _, lbl := range labels {
		bm, ok := l.byLabel[lbl]
		if !ok {
			bm = roaring.New()
			l.byLabel[lbl] = bm
		}
		bm.Add(slot)
		if l.hasUniversal && lbl == l.universal {
			l.universalSlots.Add(slot)
		}
	}
}

// Clear removes slot's label bindings, called when its slot is freed.
func (l *LabelIndex) Clear(slot uint32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clearLocked(slot)
}

func (l *LabelIndex) clearLocked(slot uint32) {
	for _, lbl := range l.bySlot[slot] {
		if bm, ok := l.byLabel[lbl]; ok {
			bm.Remove(slot)
		}
	}
	l.universalSlots.Remove(slot)
	delete(l.bySlot, slot)
}

// Matches reports whether slot carries label, or carries the
// universal label.
func (l *LabelIndex) Matches(slot, label uint32) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.hasUniversal && l.universalSlots.Contains(slot) {
		return true
	}
	bm, ok := l.byLabel[label]
	return ok && bm.Contains(slot)
}

// LabelsOf returns the labels bound to slot.
func (l *LabelIndex) LabelsOf(slot uint32) []uint32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]uint32(nil), l.bySlot[slot]...)
}
