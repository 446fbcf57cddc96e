package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"tsuyaku/audio"
	"tsuyaku/log"
	"tsuyaku/pipeline"
	"tsuyaku/shutdown"
	"tsuyaku/transcriber"
	"tsuyaku/translator"
)

var version = "dev"

func main() {
	run()
}

func run() {
	langFlag := flag.String("lang", "ja", "Language code for transcription (e.g., ja, en). Empty = auto-detect")
	fromFlag := flag.String("from", "Japanese", "Source language name for translation prompts")
	toFlag := flag.String("to", "English", "Target language name for translation prompts")
	providerFlag := flag.String("translator", "ollama", "Translation provider: openai, anthropic, groq, or ollama")
	modelFlag := flag.String("model", "qwen2.5:7b-instruct", "Translation model name")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	setupFlag := flag.Bool("setup", false, "Select microphone device (otherwise uses system default)")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	profileFlag := flag.String("profile", "", "Enable pprof profiling server (e.g., :6060 or localhost:6060)")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	// Resolve log directory early
	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)

	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if *profileFlag != "" {
		go func() {
			fmt.Fprintf(os.Stderr, "pprof server listening on http://%s/debug/pprof/\n", *profileFlag)
			if err := http.ListenAndServe(*profileFlag, nil); err != nil {
				fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
			}
		}()
	}

	if *versionFlag {
		fmt.Printf("tsuyaku %s\n", version)
		os.Exit(0)
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "Error: tsuyaku needs an interactive terminal")
		os.Exit(1)
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open log files: %v\n", err)
	}

	stt, err := transcriber.New()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	stt.SetLanguage(*langFlag)

	tr, err := translator.NewLLM(*providerFlag, *modelFlag, *fromFlag, *toFlag)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if *setupFlag && *deviceFlag == "" {
		dev, err := audio.SelectDevice()
		if err != nil {
			fmt.Printf("Error selecting device: %v\n", err)
			os.Exit(1)
		}
		if dev != nil {
			*deviceFlag = dev.Name
		}
	}

	mic, err := audio.NewMic(audio.Config{Device: *deviceFlag})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	pl := pipeline.New(pipeline.Config{
		Source:      mic,
		Transcriber: stt,
		Translator:  tr,
	})
	mic.SetActivityFunc(pl.ReportActivity)

	log.SessionStart(stt.Name(), tr.Name(), *langFlag)

	ctx, cancel := context.WithCancel(context.Background())
	go pl.Run(ctx)

	deviceLine := "mic: " + mic.DeviceName()
	if audio.IsBluetooth(mic.DeviceName()) {
		deviceLine += " (BT!)"
	}

	program := tea.NewProgram(
		newUIModel(pl, *fromFlag, *toFlag, deviceLine),
		tea.WithAltScreen(),
	)

	sig := make(chan os.Signal, 1)
	shutdown.Notify(sig)
	go func() {
		<-sig
		program.Quit()
	}()

	finalModel, err := program.Run()
	if err != nil {
		log.Errorf("tui: %v", err)
	}

	cancel()
	pl.Close()
	mic.Close()

	units := 0
	if m, ok := finalModel.(uiModel); ok {
		units = m.hist.Len()
	}
	log.SessionEnd(units, pl.Dropped())
	log.Close()
}
