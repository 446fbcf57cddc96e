package audio

import (
	"sync"

	"tsuyaku/encoder"
)

const (
	vadMode       = 3
	vadFrameMs    = 20
	vadFrameBytes = encoder.SampleRate * vadFrameMs / 1000 * 2 // 640 bytes

	openDebounce = 3  // consecutive speech frames to open a segment
	endSilence   = 20 // 400ms of trailing silence closes a segment
	preSpeech    = 10 // 200ms of audio retained before the opening frame

	maxSegmentBytes = encoder.SampleRate * 30 * 2 // hard cap per segment
)

// frameClassifier decides whether a single 20ms PCM frame contains speech.
// Satisfied by *webrtcvad.VAD.
type frameClassifier interface {
	Process(rate int, frame []byte) (bool, error)
}

// segmenter cuts a continuous PCM feed into discrete chunks on silence
// boundaries. A segment opens after openDebounce consecutive speech frames
// (keeping a short pre-speech ring so the first syllable is not clipped) and
// closes after endSilence silent frames or at the hard size cap.
type segmenter struct {
	vad  frameClassifier
	emit func(chunk []byte)

	mu         sync.Mutex
	onActivity func(samples int)
	buf        []byte   // partial-frame carry between callbacks
	pre        [][]byte // ring of recent frames while no segment is open
	cur        []byte
	open       bool
	speechRun  int
	silenceRun int
}

func newSegmenter(vad frameClassifier, emit func([]byte)) *segmenter {
	return &segmenter{vad: vad, emit: emit}
}

// SetActivityFunc registers a callback invoked with the sample count of every
// speech-positive frame. The callback must not block; it runs on the capture
// path.
func (s *segmenter) SetActivityFunc(fn func(samples int)) {
	s.mu.Lock()
	s.onActivity = fn
	s.mu.Unlock()
}

func (s *segmenter) Process(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf = append(s.buf, data...)
	for len(s.buf) >= vadFrameBytes {
		frame := make([]byte, vadFrameBytes)
		copy(frame, s.buf[:vadFrameBytes])
		s.buf = s.buf[vadFrameBytes:]

		active, err := s.vad.Process(encoder.SampleRate, frame)
		if err != nil {
			continue
		}
		s.step(frame, active)
	}
}

func (s *segmenter) step(frame []byte, active bool) {
	if active {
		s.speechRun++
		s.silenceRun = 0
		if s.onActivity != nil {
			s.onActivity(vadFrameBytes / 2)
		}
	} else {
		s.speechRun = 0
		s.silenceRun++
	}

	if !s.open {
		s.pre = append(s.pre, frame)
		if len(s.pre) > preSpeech+openDebounce {
			s.pre = s.pre[1:]
		}
		if active && s.speechRun >= openDebounce {
			s.open = true
			for _, f := range s.pre {
				s.cur = append(s.cur, f...)
			}
			s.pre = s.pre[:0]
		}
		return
	}

	s.cur = append(s.cur, frame...)
	if s.silenceRun >= endSilence || len(s.cur) >= maxSegmentBytes {
		s.closeSegment()
	}
}

func (s *segmenter) closeSegment() {
	chunk := s.cur
	s.cur = nil
	s.open = false
	s.speechRun = 0
	s.silenceRun = 0
	if s.emit != nil {
		s.emit(chunk)
	}
}

// Flush emits any segment still open, used when capture stops mid-speech.
func (s *segmenter) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open {
		s.closeSegment()
	}
}
