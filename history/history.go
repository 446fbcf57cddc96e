// Package history owns the ordered record of finalized segments and their
// translations. Translations are computed by concurrent fire-and-forget tasks
// and can land in any order relative to segment finalization, so resolution
// prefers an exact sequence-id match and falls back to a deterministic
// slot-seeking policy when no usable id is present.
//
// History is not safe for concurrent use; it is mutated only by the single
// event-bus consumer.
package history

import "slices"

type Status int

const (
	Pending Status = iota
	Ready
)

// Unit is one finalized segment of input. Text is immutable once the unit is
// stored. Surrogate marks units created from typed input rather than speech.
type Unit struct {
	Seq       uint64
	Text      string
	Surrogate bool
}

// Annotation is the translation slot for a unit. Seq 0 means the slot was
// backfilled defensively and has no known owner.
type Annotation struct {
	Seq    uint64
	Text   string
	Status Status
}

// History keeps units and annotations newest-first in two index-aligned
// slices. Every stored unit has exactly one annotation slot.
type History struct {
	units       []Unit
	annotations []Annotation
	repairs     int
	anomalies   int
}

func New() *History {
	return &History{}
}

// AddUnit inserts a finalized unit at the front together with its Pending
// annotation slot. This is the only operation that grows the unit sequence.
func (h *History) AddUnit(seq uint64, text string, surrogate bool) {
	h.units = slices.Insert(h.units, 0, Unit{Seq: seq, Text: text, Surrogate: surrogate})
	h.annotations = slices.Insert(h.annotations, 0, Annotation{Seq: seq})
	h.repair()
}

// MarkPending records the placeholder-pending event for seq. The slot
// normally already exists (AddUnit created it), making this a no-op
// confirmation; when it does not, the placeholder is inserted aligned with
// the most recently added unit that still lacks a slot.
func (h *History) MarkPending(seq uint64) {
	if seq != 0 && h.slotIndex(seq) >= 0 {
		return
	}

	i := h.newestUnitWithoutSlot()
	if i < 0 {
		// Every unit is already paired; a stray placeholder is a defect
		// upstream, not a reason to grow the annotation list.
		h.anomalies++
		return
	}
	pos := min(i, len(h.annotations))
	h.annotations = slices.Insert(h.annotations, pos, Annotation{Seq: seq})
	h.repair()
}

// Resolve merges a completed translation into the history. Priority order:
// exact slot by sequence id; the newest slot if still Pending; the earliest
// (oldest) remaining Pending slot; a fresh entry when annotations trail the
// unit count; otherwise the result is dropped as a duplicate.
func (h *History) Resolve(seq uint64, text string) {
	if seq != 0 {
		if i := h.slotIndex(seq); i >= 0 {
			if h.annotations[i].Status == Ready {
				// Duplicate delivery; the first result wins.
				h.anomalies++
				return
			}
			h.fill(i, seq, text)
			return
		}
	}

	if len(h.annotations) > 0 && h.annotations[0].Status == Pending {
		h.fill(0, seq, text)
		return
	}

	for i := len(h.annotations) - 1; i >= 0; i-- {
		if h.annotations[i].Status == Pending {
			h.fill(i, seq, text)
			return
		}
	}

	if len(h.annotations) < len(h.units) {
		h.annotations = slices.Insert(h.annotations, 0, Annotation{Seq: seq, Text: text, Status: Ready})
		h.repair()
		return
	}

	h.anomalies++
}

func (h *History) fill(i int, seq uint64, text string) {
	a := &h.annotations[i]
	a.Text = text
	a.Status = Ready
	if a.Seq == 0 {
		a.Seq = seq
	}
	h.repair()
}

// repair restores the length invariants: annotations never outnumber units,
// and every unit keeps a slot. Normal event flows never trigger it; a rising
// repair count signals a reconciliation bug (see Repairs).
func (h *History) repair() {
	changed := false
	for len(h.annotations) > len(h.units) {
		h.annotations = h.annotations[:len(h.annotations)-1] // oldest assumed extra
		changed = true
	}
	for len(h.annotations) < len(h.units) {
		h.annotations = slices.Insert(h.annotations, 0, Annotation{Text: "[pending translation]"})
		changed = true
	}
	if changed {
		h.repairs++
	}
}

func (h *History) slotIndex(seq uint64) int {
	for i := range h.annotations {
		if h.annotations[i].Seq == seq {
			return i
		}
	}
	return -1
}

func (h *History) newestUnitWithoutSlot() int {
	for i := range h.units {
		if h.units[i].Seq == 0 || h.slotIndex(h.units[i].Seq) < 0 {
			return i
		}
	}
	return -1
}

// Units returns the stored units, newest first. The returned slice is the
// internal one; callers must not mutate it.
func (h *History) Units() []Unit { return h.units }

// Annotations returns the annotation slots, newest first, index-aligned with
// Units.
func (h *History) Annotations() []Annotation { return h.annotations }

func (h *History) Len() int { return len(h.units) }

// Repairs counts defensive invariant repairs. Zero under correct operation.
func (h *History) Repairs() int { return h.repairs }

// Anomalies counts dropped duplicates and stray events.
func (h *History) Anomalies() int { return h.anomalies }
