package transcriber

import (
	"context"
	"fmt"
)

// Fake is a scripted engine for tests. Each Transcribe call pops the next
// fragment script; once the scripts run out, chunks transcribe to nothing.
type Fake struct {
	scripts [][]Fragment
	err     error
	lang    string
	calls   int
}

func NewFake(scripts ...[]Fragment) *Fake {
	return &Fake{scripts: scripts}
}

// NewFakeErr builds a Fake whose Transcribe always fails.
func NewFakeErr(err error) *Fake {
	return &Fake{err: err}
}

func (f *Fake) Name() string         { return "fake" }
func (f *Fake) SetLanguage(l string) { f.lang = l }
func (f *Fake) Language() string     { return f.lang }
func (f *Fake) Calls() int           { return f.calls }

func (f *Fake) Transcribe(_ context.Context, _ []byte) (Stream, error) {
	f.calls++
	if f.err != nil {
		return nil, fmt.Errorf("fake transcriber error: %w", f.err)
	}
	if len(f.scripts) == 0 {
		return newSliceStream(nil), nil
	}
	script := f.scripts[0]
	f.scripts = f.scripts[1:]
	return newSliceStream(script), nil
}
