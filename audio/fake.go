package audio

import (
	"context"
	"io"
	"sync/atomic"
	"time"
)

// FakeSource is a scriptable chunk source for tests. Chunks pushed with Push
// are handed out by NextChunk in order; End closes the stream.
type FakeSource struct {
	ch       chan []byte
	requests atomic.Int64
}

func NewFakeSource(buffer int) *FakeSource {
	return &FakeSource{ch: make(chan []byte, buffer)}
}

func (f *FakeSource) Push(chunk []byte) { f.ch <- chunk }

func (f *FakeSource) End() { close(f.ch) }

// Requests reports how many times NextChunk has been called, used to verify
// that a paused capture loop stops asking for chunks.
func (f *FakeSource) Requests() int64 { return f.requests.Load() }

func (f *FakeSource) NextChunk(ctx context.Context, wait time.Duration) ([]byte, bool, error) {
	f.requests.Add(1)
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case chunk, ok := <-f.ch:
		if !ok {
			return nil, false, io.EOF
		}
		return chunk, true, nil
	case <-timer.C:
		return nil, false, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}
