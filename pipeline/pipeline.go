// Package pipeline connects a chunked audio source to a transcription engine
// and an asynchronous translator, publishing everything the UI needs on a
// single bounded event bus.
//
// Producers: the capture/transcription loop (one goroutine), the device
// callback (RawSamplesEvent via TryPublish), and one short-lived goroutine
// per dispatched translation. Each finalized unit gets a process-unique
// sequence id so the consumer can correlate translation results that arrive
// out of order.
package pipeline

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"tsuyaku/log"
	"tsuyaku/transcriber"
	"tsuyaku/translator"
)

const (
	DefaultBusCapacity       = 32
	DefaultChunkWait         = 50 * time.Millisecond
	DefaultPausePoll         = 100 * time.Millisecond
	DefaultNoSpeechThreshold = 0.85
)

// ChunkSource hands out PCM chunks as the segmenter closes them. NextChunk
// waits at most wait for a chunk; ok reports whether one was returned. The
// error is io.EOF once the source is exhausted.
type ChunkSource interface {
	NextChunk(ctx context.Context, wait time.Duration) (chunk []byte, ok bool, err error)
}

type Config struct {
	Source      ChunkSource
	Transcriber transcriber.Engine
	Translator  translator.Engine

	BusCapacity       int
	ChunkWait         time.Duration
	PausePoll         time.Duration
	NoSpeechThreshold float64
}

func (c *Config) fillDefaults() {
	if c.BusCapacity <= 0 {
		c.BusCapacity = DefaultBusCapacity
	}
	if c.ChunkWait <= 0 {
		c.ChunkWait = DefaultChunkWait
	}
	if c.PausePoll <= 0 {
		c.PausePoll = DefaultPausePoll
	}
	if c.NoSpeechThreshold <= 0 {
		c.NoSpeechThreshold = DefaultNoSpeechThreshold
	}
}

type Pipeline struct {
	cfg       Config
	bus       *Bus
	listening atomic.Bool
	seq       atomic.Uint64
	tasks     sync.WaitGroup
}

// New builds a pipeline in the listening state. Run starts the capture loop.
func New(cfg Config) *Pipeline {
	cfg.fillDefaults()
	p := &Pipeline{cfg: cfg, bus: newBus(cfg.BusCapacity)}
	p.listening.Store(true)
	return p
}

func (p *Pipeline) Events() <-chan Event { return p.bus.Events() }

// SetListening flips the capture flag. While false the loop stops pulling
// chunks; a chunk already pulled is still transcribed to completion.
func (p *Pipeline) SetListening(on bool) { p.listening.Store(on) }

func (p *Pipeline) Listening() bool { return p.listening.Load() }

// SubmitText finalizes typed input as a surrogate unit, bypassing capture
// and transcription, and dispatches its translation. Blank input is ignored.
func (p *Pipeline) SubmitText(text string) (uint64, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}
	seq := p.seq.Add(1)
	log.SegmentText(seq, text)
	p.bus.Publish(SurrogateUnitEvent{Seq: seq, Text: text})
	p.dispatch(seq, text)
	return seq, true
}

// ReportActivity publishes a raw-sample count from the device callback. The
// callback must never block, so a full bus drops the event.
func (p *Pipeline) ReportActivity(samples int) {
	p.bus.TryPublish(RawSamplesEvent{Count: samples})
}

// Dropped reports advisory events discarded on a full bus.
func (p *Pipeline) Dropped() uint64 { return p.bus.Dropped() }

// Close releases the bus so in-flight producers stop blocking. It does not
// wait for translation tasks.
func (p *Pipeline) Close() { p.bus.Close() }

// WaitAnnotations blocks until all dispatched translation tasks have
// published their results. Used by tests to make async completion
// deterministic.
func (p *Pipeline) WaitAnnotations() { p.tasks.Wait() }
