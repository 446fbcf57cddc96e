package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// Run drives the capture loop until the source is exhausted or ctx is
// cancelled. While paused it polls the listening flag instead of pulling
// chunks, so the source's internal buffer fills and overflow is dropped at
// the device edge rather than queued for later.
func (p *Pipeline) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		if !p.listening.Load() {
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.cfg.PausePoll):
			}
			continue
		}

		chunk, ok, err := p.cfg.Source.NextChunk(ctx, p.cfg.ChunkWait)
		if err != nil {
			if errors.Is(err, io.EOF) {
				p.bus.Publish(EndedEvent{})
				return
			}
			if ctx.Err() != nil {
				return
			}
			p.bus.Publish(ErrorEvent{Err: fmt.Errorf("audio source: %w", err)})
			continue
		}
		if !ok {
			continue
		}

		// The flag may have flipped while we waited; a chunk already
		// pulled is still processed to completion.
		p.transcribeChunk(ctx, chunk)
	}
}
