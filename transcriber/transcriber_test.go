package transcriber

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func drain(t *testing.T, s Stream) []Fragment {
	t.Helper()
	var frags []Fragment
	for {
		f, err := s.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return frags
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		frags = append(frags, f)
	}
}

func TestSliceStreamOrderAndEOF(t *testing.T) {
	s := newSliceStream([]Fragment{{Text: "a"}, {Text: "b"}})
	frags := drain(t, s)
	if len(frags) != 2 || frags[0].Text != "a" || frags[1].Text != "b" {
		t.Fatalf("frags = %+v", frags)
	}
	if _, err := s.Next(context.Background()); !errors.Is(err, io.EOF) {
		t.Fatalf("err after EOF = %v, want io.EOF", err)
	}
}

func TestSliceStreamHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := newSliceStream([]Fragment{{Text: "a"}})
	if _, err := s.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestNewPrefersGroq(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "g")
	t.Setenv("OPENAI_API_KEY", "o")
	e, err := New()
	if err != nil {
		t.Fatal(err)
	}
	if e.Name() != "groq" {
		t.Fatalf("engine = %q, want groq", e.Name())
	}
}

func TestNewFallsBackToOpenAI(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "o")
	e, err := New()
	if err != nil {
		t.Fatal(err)
	}
	if e.Name() != "openai" {
		t.Fatalf("engine = %q, want openai", e.Name())
	}
}

func TestNewWithoutKeysFails(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := New(); err == nil {
		t.Fatal("expected error without API keys")
	}
}

func TestWhisperVerboseJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("multipart parse: %v", err)
		}
		if got := r.FormValue("response_format"); got != "verbose_json" {
			t.Errorf("response_format = %q", got)
		}
		if got := r.FormValue("language"); got != "ja" {
			t.Errorf("language = %q", got)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("file field: %v", err)
		} else {
			defer f.Close()
			if hdr.Filename != "audio.flac" {
				t.Errorf("filename = %q", hdr.Filename)
			}
			magic := make([]byte, 4)
			io.ReadFull(f, magic)
			if string(magic) != "fLaC" {
				t.Errorf("upload magic = %q, want fLaC", magic)
			}
		}
		io.WriteString(w, `{
			"text": "こんにちは 世界",
			"duration": 1.5,
			"segments": [
				{"text": "こんにちは", "start": 0, "end": 0.8, "no_speech_prob": 0.01, "avg_logprob": -0.2},
				{"text": " 世界", "start": 0.8, "end": 1.5, "no_speech_prob": 0.9, "avg_logprob": -0.6}
			]
		}`)
	}))
	defer srv.Close()

	w := &whisperAPI{
		name:   "groq",
		apiURL: srv.URL,
		model:  "whisper-large-v3-turbo",
		apiKey: "test",
		lang:   "ja",
		client: &http.Client{Timeout: 5 * time.Second},
	}

	stream, err := w.Transcribe(context.Background(), make([]byte, 3200))
	if err != nil {
		t.Fatal(err)
	}
	frags := drain(t, stream)
	if len(frags) != 2 {
		t.Fatalf("got %d fragments, want 2", len(frags))
	}
	if frags[0].Text != "こんにちは" || frags[0].NoSpeechProb != 0.01 {
		t.Fatalf("first fragment = %+v", frags[0])
	}
	if frags[1].NoSpeechProb != 0.9 {
		t.Fatalf("second fragment = %+v", frags[1])
	}
}

func TestWhisperFallsBackToTopLevelText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `{"text": "plain", "duration": 2.0}`)
	}))
	defer srv.Close()

	w := &whisperAPI{
		name: "openai", apiURL: srv.URL, model: "whisper-1",
		client: &http.Client{Timeout: 5 * time.Second},
	}
	stream, err := w.Transcribe(context.Background(), make([]byte, 320))
	if err != nil {
		t.Fatal(err)
	}
	frags := drain(t, stream)
	if len(frags) != 1 || frags[0].Text != "plain" || frags[0].End != 2.0 {
		t.Fatalf("frags = %+v", frags)
	}
}

func TestWhisperAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	w := &whisperAPI{
		name: "groq", apiURL: srv.URL, model: "whisper-large-v3-turbo",
		client: &http.Client{Timeout: 5 * time.Second},
	}
	_, err := w.Transcribe(context.Background(), make([]byte, 320))
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("err = %v, want API error with status", err)
	}
}

func TestFakePopsScripts(t *testing.T) {
	f := NewFake(
		[]Fragment{{Text: "one"}},
		[]Fragment{{Text: "two"}},
	)
	for _, want := range []string{"one", "two"} {
		s, err := f.Transcribe(context.Background(), nil)
		if err != nil {
			t.Fatal(err)
		}
		frags := drain(t, s)
		if len(frags) != 1 || frags[0].Text != want {
			t.Fatalf("frags = %+v, want %q", frags, want)
		}
	}
	// Scripts exhausted: silence.
	s, _ := f.Transcribe(context.Background(), nil)
	if frags := drain(t, s); len(frags) != 0 {
		t.Fatalf("frags = %+v, want none", frags)
	}
	if f.Calls() != 3 {
		t.Fatalf("Calls() = %d, want 3", f.Calls())
	}
}
