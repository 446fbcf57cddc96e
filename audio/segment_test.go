package audio

import "testing"

// stubVAD replays a scripted classification per frame; exhausted scripts read
// as silence.
type stubVAD struct {
	script []bool
	calls  int
}

func (s *stubVAD) Process(_ int, _ []byte) (bool, error) {
	s.calls++
	if s.calls <= len(s.script) {
		return s.script[s.calls-1], nil
	}
	return false, nil
}

func frames(speech, silence int) []bool {
	var script []bool
	for i := 0; i < speech; i++ {
		script = append(script, true)
	}
	for i := 0; i < silence; i++ {
		script = append(script, false)
	}
	return script
}

func feed(s *segmenter, nFrames int) {
	s.Process(make([]byte, nFrames*vadFrameBytes))
}

func collect(s *segmenter) func() [][]byte {
	var chunks [][]byte
	s.emit = func(chunk []byte) { chunks = append(chunks, chunk) }
	return func() [][]byte { return chunks }
}

func TestSegmentOpensAfterDebounceAndClosesOnSilence(t *testing.T) {
	vad := &stubVAD{script: frames(openDebounce, endSilence)}
	s := newSegmenter(vad, nil)
	got := collect(s)

	feed(s, openDebounce+endSilence)

	chunks := got()
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	want := (openDebounce + endSilence) * vadFrameBytes
	if len(chunks[0]) != want {
		t.Fatalf("chunk size = %d, want %d", len(chunks[0]), want)
	}
}

func TestShortBlipDoesNotOpen(t *testing.T) {
	// Speech bursts below the debounce threshold, separated by silence.
	var script []bool
	for i := 0; i < 10; i++ {
		script = append(script, true, true, false)
	}
	vad := &stubVAD{script: script}
	s := newSegmenter(vad, nil)
	got := collect(s)

	feed(s, len(script))

	if len(got()) != 0 {
		t.Fatalf("got %d chunks, want none for sub-debounce blips", len(got()))
	}
}

func TestPreSpeechRingRetained(t *testing.T) {
	vad := &stubVAD{script: append(frames(0, 15), frames(openDebounce, endSilence)...)}
	s := newSegmenter(vad, nil)
	got := collect(s)

	feed(s, 15+openDebounce+endSilence)

	chunks := got()
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	// The ring holds preSpeech+openDebounce frames at open time.
	want := (preSpeech + openDebounce + endSilence) * vadFrameBytes
	if len(chunks[0]) != want {
		t.Fatalf("chunk size = %d, want %d (pre-speech included)", len(chunks[0]), want)
	}
}

func TestFlushEmitsOpenSegment(t *testing.T) {
	vad := &stubVAD{script: frames(openDebounce+2, 0)}
	s := newSegmenter(vad, nil)
	got := collect(s)

	feed(s, openDebounce+2)
	if len(got()) != 0 {
		t.Fatal("segment should still be open")
	}
	s.Flush()
	if len(got()) != 1 {
		t.Fatalf("got %d chunks after Flush, want 1", len(got()))
	}
	s.Flush()
	if len(got()) != 1 {
		t.Fatal("second Flush must not emit again")
	}
}

func TestPartialFrameCarry(t *testing.T) {
	vad := &stubVAD{}
	s := newSegmenter(vad, nil)

	s.Process(make([]byte, vadFrameBytes+vadFrameBytes/2))
	if vad.calls != 1 {
		t.Fatalf("classifier calls = %d, want 1 with half a frame carried", vad.calls)
	}
	s.Process(make([]byte, vadFrameBytes/2))
	if vad.calls != 2 {
		t.Fatalf("classifier calls = %d, want 2 after carry completes", vad.calls)
	}
}

func TestActivityCallbackCountsSpeechFrames(t *testing.T) {
	vad := &stubVAD{script: frames(5, 3)}
	s := newSegmenter(vad, nil)
	collect(s)

	samples := 0
	s.SetActivityFunc(func(n int) { samples += n })
	feed(s, 8)

	want := 5 * vadFrameBytes / 2
	if samples != want {
		t.Fatalf("activity samples = %d, want %d", samples, want)
	}
}

func TestIsBluetooth(t *testing.T) {
	for _, tt := range []struct {
		name string
		want bool
	}{
		{"AirPods Pro", true},
		{"WH-1000XM5 (Bluetooth)", true},
		{"MacBook Pro Microphone", false},
		{"USB Audio Device", false},
	} {
		if got := IsBluetooth(tt.name); got != tt.want {
			t.Errorf("IsBluetooth(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
