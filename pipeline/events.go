package pipeline

// Event is the closed set of messages published on the bus. Exactly one
// consumer (the UI update loop) drains them in order.
type Event interface{ isEvent() }

// StatusEvent updates the one-line status display.
type StatusEvent struct{ Text string }

// ErrorEvent carries a non-fatal pipeline error for display.
type ErrorEvent struct{ Err error }

// LiveTextEvent replaces the in-progress transcription line. Empty text
// clears it.
type LiveTextEvent struct{ Text string }

// UnitFinalizedEvent records a finalized speech segment.
type UnitFinalizedEvent struct {
	Seq  uint64
	Text string
}

// SurrogateUnitEvent records a typed unit submitted from the control plane.
type SurrogateUnitEvent struct {
	Seq  uint64
	Text string
}

// AnnotationPendingEvent announces that a translation task was dispatched
// for the unit.
type AnnotationPendingEvent struct{ Seq uint64 }

// AnnotationReadyEvent delivers the completed translation for a unit. Tasks
// finish in any order, so these arrive out of order relative to dispatch.
type AnnotationReadyEvent struct {
	Seq  uint64
	Text string
}

// SamplesProcessedEvent reports samples consumed by a finished transcription.
type SamplesProcessedEvent struct{ Count int }

// RawSamplesEvent reports samples seen at the device callback, before
// segmentation. Used for the capture-activity indicator.
type RawSamplesEvent struct{ Count int }

// EndedEvent signals that the chunk source is exhausted and the capture loop
// has exited.
type EndedEvent struct{}

func (StatusEvent) isEvent()            {}
func (ErrorEvent) isEvent()             {}
func (LiveTextEvent) isEvent()          {}
func (UnitFinalizedEvent) isEvent()     {}
func (SurrogateUnitEvent) isEvent()     {}
func (AnnotationPendingEvent) isEvent() {}
func (AnnotationReadyEvent) isEvent()   {}
func (SamplesProcessedEvent) isEvent()  {}
func (RawSamplesEvent) isEvent()        {}
func (EndedEvent) isEvent()             {}
