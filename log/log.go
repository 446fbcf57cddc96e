package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	diagLog        zerolog.Logger
	diagFile       *os.File
	transcriptFile *os.File
	logMu          sync.Mutex
	logReady       bool
	pid            int
	dir            string
)

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: -logpath flag
	if flagPath != "" {
		if !filepath.IsAbs(flagPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, flagPath), nil
		}
		return flagPath, nil
	}

	// Priority 2: TSUYAKU_LOG_PATH environment variable
	envPath := os.Getenv("TSUYAKU_LOG_PATH")
	if envPath != "" {
		if !filepath.IsAbs(envPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, envPath), nil
		}
		return envPath, nil
	}

	// Priority 3: Default OS-specific location
	return getDefaultDir()
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error

	diagPath := filepath.Join(dir, "diagnostics_log.txt")
	diagFile, err = os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	transcriptPath := filepath.Join(dir, "transcript_log.txt")
	transcriptFile, err = os.OpenFile(transcriptPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if transcriptFile != nil {
		transcriptFile.Close()
		transcriptFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

// SegmentText appends a finalized segment to the transcript log.
func SegmentText(seq uint64, text string) {
	writeTranscriptLine("seg", seq, text)
}

// TranslationText appends a completed translation to the transcript log.
func TranslationText(seq uint64, text string) {
	writeTranscriptLine("tr", seq, text)
}

func writeTranscriptLine(kind string, seq uint64, text string) {
	if !logReady {
		return
	}
	logMu.Lock()
	defer logMu.Unlock()
	line := fmt.Sprintf("%s\t[%d]\t%s#%d\t%s\n", time.Now().Format("2006-01-02 15:04:05"), pid, kind, seq, text)
	transcriptFile.WriteString(line)
}

func SegmentMetrics(seq uint64, samples, fragments, rejected int, totalMs float64) {
	if !logReady {
		return
	}
	diagLog.Info().
		Uint64("seq", seq).
		Int("samples", samples).
		Int("fragments", fragments).
		Int("rejected", rejected).
		Float64("total_ms", totalMs).
		Msg("segment")
}

func TranslationMetrics(seq uint64, chars int, totalMs float64) {
	if !logReady {
		return
	}
	diagLog.Info().
		Uint64("seq", seq).
		Int("chars", chars).
		Float64("total_ms", totalMs).
		Msg("translation")
}

// Repair records a reconciler repair-step trigger. Frequent repairs point
// at a correlation bug upstream, so they surface at warn level.
func Repair(total int) {
	if !logReady {
		return
	}
	diagLog.Warn().Int("total", total).Msg("history_repair")
}

func SessionStart(sttName, translatorName, lang string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("stt", sttName).
		Str("translator", translatorName).
		Str("lang", lang).
		Msg("session_start")
}

func SessionEnd(units int, dropped uint64) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("units", units).
		Uint64("dropped_events", dropped).
		Msg("session_end")
}
