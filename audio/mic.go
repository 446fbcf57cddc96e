package audio

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
	webrtcvad "github.com/maxhawkins/go-webrtcvad"

	"tsuyaku/encoder"
)

type Config struct {
	Device string // capture device name; empty = system default
}

// Mic captures 16kHz mono PCM from a microphone and segments it into chunks
// on silence boundaries. Segmented chunks are handed out one at a time via
// NextChunk with a bounded wait.
type Mic struct {
	ctx    *malgo.AllocatedContext
	dev    *malgo.Device
	seg    *segmenter
	chunks chan []byte
	name   string

	closeOnce sync.Once
}

func NewMic(cfg Config) (*Mic, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("audio context init: %w", err)
	}

	m := &Mic{
		ctx:    ctx,
		chunks: make(chan []byte, 8),
		name:   "system default",
	}

	vad, err := webrtcvad.New()
	if err != nil {
		m.teardownContext()
		return nil, fmt.Errorf("vad init: %w", err)
	}
	if err := vad.SetMode(vadMode); err != nil {
		m.teardownContext()
		return nil, fmt.Errorf("vad mode: %w", err)
	}
	m.seg = newSegmenter(vad, m.enqueue)

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = encoder.Channels
	deviceConfig.SampleRate = encoder.SampleRate

	if cfg.Device != "" {
		info, err := findDevice(ctx, cfg.Device)
		if err != nil {
			m.teardownContext()
			return nil, err
		}
		idBytes, err := hex.DecodeString(info.ID)
		if err != nil {
			m.teardownContext()
			return nil, fmt.Errorf("invalid device ID: %w", err)
		}
		var devID malgo.DeviceID
		copy(devID[:], idBytes)
		deviceConfig.Capture.DeviceID = devID.Pointer()
		m.name = info.Name
	}

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, data []byte, _ uint32) {
			m.seg.Process(data)
		},
	}

	dev, err := malgo.InitDevice(ctx.Context, deviceConfig, callbacks)
	if err != nil {
		m.teardownContext()
		return nil, fmt.Errorf("capture device init: %w", err)
	}
	m.dev = dev

	if err := dev.Start(); err != nil {
		dev.Uninit()
		m.teardownContext()
		return nil, fmt.Errorf("capture start: %w", err)
	}
	return m, nil
}

func findDevice(ctx *malgo.AllocatedContext, name string) (DeviceInfo, error) {
	devices, err := ctx.Devices(malgo.Capture)
	if err != nil {
		return DeviceInfo{}, fmt.Errorf("enumerating devices: %w", err)
	}
	for _, d := range devices {
		if d.Name() == name {
			return DeviceInfo{
				ID:   hex.EncodeToString(d.ID[:]),
				Name: d.Name(),
			}, nil
		}
	}
	return DeviceInfo{}, fmt.Errorf("capture device not found: %s", name)
}

func (m *Mic) enqueue(chunk []byte) {
	// The consumer polls with a short wait, so the buffer only fills when the
	// pipeline is paused for a long stretch. Dropping whole segments there is
	// acceptable: paused means the operator asked not to listen.
	select {
	case m.chunks <- chunk:
	default:
	}
}

// SetActivityFunc forwards speech-frame sample counts, used for the
// raw-samples counter in the UI.
func (m *Mic) SetActivityFunc(fn func(samples int)) {
	m.seg.SetActivityFunc(fn)
}

// NextChunk waits up to wait for the next segmented chunk. ok is false when
// the wait elapsed without a chunk. io.EOF reports end of capture.
func (m *Mic) NextChunk(ctx context.Context, wait time.Duration) (chunk []byte, ok bool, err error) {
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case chunk, chOk := <-m.chunks:
		if !chOk {
			return nil, false, io.EOF
		}
		return chunk, true, nil
	case <-timer.C:
		return nil, false, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

func (m *Mic) DeviceName() string { return m.name }

func (m *Mic) Close() error {
	m.closeOnce.Do(func() {
		if m.dev != nil {
			m.dev.Stop()
			m.dev.Uninit()
		}
		m.seg.Flush()
		close(m.chunks)
		m.teardownContext()
	})
	return nil
}

func (m *Mic) teardownContext() {
	if m.ctx != nil {
		m.ctx.Uninit()
		m.ctx.Free()
		m.ctx = nil
	}
}
