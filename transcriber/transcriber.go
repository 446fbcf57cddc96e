package transcriber

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Fragment is one partial result of transcribing a chunk. NoSpeechProb is the
// engine's likelihood that the fragment contains no speech at all.
type Fragment struct {
	Text         string
	NoSpeechProb float64
	AvgLogProb   float64
	Start        float64
	End          float64
}

// Stream yields the fragments of a single chunk in order.
type Stream interface {
	// Next returns the next fragment, or io.EOF after the last one.
	Next(ctx context.Context) (Fragment, error)
}

type Engine interface {
	Name() string
	SetLanguage(lang string)
	Language() string
	// Transcribe starts transcription of one PCM chunk and returns its
	// fragment stream.
	Transcribe(ctx context.Context, pcm []byte) (Stream, error)
}

// New picks an engine from the environment.
func New() (Engine, error) {
	if key := os.Getenv("GROQ_API_KEY"); key != "" {
		return NewGroq(key), nil
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return NewOpenAI(key), nil
	}
	return nil, fmt.Errorf("set GROQ_API_KEY or OPENAI_API_KEY environment variable")
}

// sliceStream adapts a fixed fragment list to the Stream interface. The HTTP
// engines receive all fragments in one response and replay them in order.
type sliceStream struct {
	frags []Fragment
	i     int
}

func newSliceStream(frags []Fragment) *sliceStream {
	return &sliceStream{frags: frags}
}

func (s *sliceStream) Next(ctx context.Context) (Fragment, error) {
	if err := ctx.Err(); err != nil {
		return Fragment{}, err
	}
	if s.i >= len(s.frags) {
		return Fragment{}, io.EOF
	}
	f := s.frags[s.i]
	s.i++
	return f, nil
}
