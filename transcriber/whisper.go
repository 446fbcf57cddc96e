package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"tsuyaku/encoder"
)

// whisperAPI transcribes chunks through an OpenAI-compatible transcription
// endpoint. Chunks are FLAC-compressed before upload; the verbose_json
// response carries per-segment no_speech_prob scores that become the
// fragment confidence.
type whisperAPI struct {
	name   string
	apiURL string
	model  string
	apiKey string
	lang   string
	client *http.Client
}

func NewGroq(apiKey string) Engine {
	return &whisperAPI{
		name:   "groq",
		apiURL: "https://api.groq.com/openai/v1/audio/transcriptions",
		model:  "whisper-large-v3-turbo",
		apiKey: apiKey,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

func NewOpenAI(apiKey string) Engine {
	return &whisperAPI{
		name:   "openai",
		apiURL: "https://api.openai.com/v1/audio/transcriptions",
		model:  "whisper-1",
		apiKey: apiKey,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

func (w *whisperAPI) Name() string            { return w.name }
func (w *whisperAPI) SetLanguage(lang string) { w.lang = lang }
func (w *whisperAPI) Language() string        { return w.lang }

type whisperResponse struct {
	Text     string  `json:"text"`
	Duration float64 `json:"duration"`
	Segments []struct {
		Text         string  `json:"text"`
		Start        float64 `json:"start"`
		End          float64 `json:"end"`
		NoSpeechProb float64 `json:"no_speech_prob"`
		AvgLogProb   float64 `json:"avg_logprob"`
	} `json:"segments"`
}

func (w *whisperAPI) Transcribe(ctx context.Context, pcm []byte) (Stream, error) {
	flacData, err := encoder.EncodePCM16(pcm)
	if err != nil {
		return nil, fmt.Errorf("encoding chunk: %w", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio.flac")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(flacData); err != nil {
		return nil, err
	}

	writer.WriteField("model", w.model)
	writer.WriteField("response_format", "verbose_json")
	if w.lang != "" {
		writer.WriteField("language", w.lang)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.apiURL, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+w.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s API error %d: %s", w.name, resp.StatusCode, string(respBody))
	}

	var wResp whisperResponse
	if err := json.Unmarshal(respBody, &wResp); err != nil {
		return nil, fmt.Errorf("%s response parse error: %w", w.name, err)
	}

	frags := make([]Fragment, 0, len(wResp.Segments))
	for _, seg := range wResp.Segments {
		frags = append(frags, Fragment{
			Text:         seg.Text,
			NoSpeechProb: seg.NoSpeechProb,
			AvgLogProb:   seg.AvgLogProb,
			Start:        seg.Start,
			End:          seg.End,
		})
	}
	if len(frags) == 0 && wResp.Text != "" {
		frags = append(frags, Fragment{Text: wResp.Text, End: wResp.Duration})
	}
	return newSliceStream(frags), nil
}
