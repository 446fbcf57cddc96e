package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"tsuyaku/log"
)

// transcribeChunk runs one chunk through the engine, streaming cumulative
// live-text updates as fragments arrive. Fragments at or above the no-speech
// probability threshold are rejected. The chunk ends in exactly
// one of: a finalized unit (with its translation dispatched) or a cleared
// live line.
func (p *Pipeline) transcribeChunk(ctx context.Context, chunk []byte) {
	start := time.Now()

	stream, err := p.cfg.Transcriber.Transcribe(ctx, chunk)
	if err != nil {
		p.bus.Publish(ErrorEvent{Err: fmt.Errorf("transcribe: %w", err)})
		p.bus.Publish(LiveTextEvent{})
		return
	}

	var b strings.Builder
	accepted, rejected := 0, 0
	for {
		frag, err := stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			p.bus.Publish(ErrorEvent{Err: fmt.Errorf("transcribe stream: %w", err)})
			p.bus.Publish(LiveTextEvent{})
			return
		}
		if frag.NoSpeechProb >= p.cfg.NoSpeechThreshold {
			rejected++
			continue
		}
		accepted++
		b.WriteString(frag.Text)
		p.bus.Publish(LiveTextEvent{Text: strings.TrimSpace(b.String())})
	}

	samples := len(chunk) / 2
	p.bus.TryPublish(SamplesProcessedEvent{Count: samples})

	text := strings.TrimSpace(b.String())
	if text == "" {
		// Nothing but silence or rejected fragments; drop the live line.
		log.SegmentMetrics(0, samples, accepted, rejected,
			float64(time.Since(start).Milliseconds()))
		p.bus.Publish(LiveTextEvent{})
		return
	}

	seq := p.seq.Add(1)
	log.SegmentMetrics(seq, samples, accepted, rejected,
		float64(time.Since(start).Milliseconds()))
	log.SegmentText(seq, text)
	p.bus.Publish(UnitFinalizedEvent{Seq: seq, Text: text})
	p.dispatch(seq, text)
}
