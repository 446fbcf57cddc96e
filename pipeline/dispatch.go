package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tsuyaku/log"
)

// dispatch hands one finalized unit to the translator as a fire-and-forget
// task: the placeholder event goes out first, then a goroutine publishes the
// result whenever it lands. The task context is independent of the capture
// loop, so pausing or stopping capture never cancels an in-flight
// translation. Failures become displayable sentinel text rather than lost
// slots.
func (p *Pipeline) dispatch(seq uint64, text string) {
	p.bus.Publish(AnnotationPendingEvent{Seq: seq})

	p.tasks.Add(1)
	go func() {
		defer p.tasks.Done()
		start := time.Now()

		out, err := p.cfg.Translator.Translate(context.Background(), text)
		out = strings.TrimSpace(out)
		switch {
		case err != nil:
			log.Errorf("translation %d failed: %v", seq, err)
			out = fmt.Sprintf("[translation error: %v]", err)
		case out == "":
			out = "[no translation generated]"
		}

		log.TranslationText(seq, out)
		log.TranslationMetrics(seq, len(out), float64(time.Since(start).Milliseconds()))
		p.bus.Publish(AnnotationReadyEvent{Seq: seq, Text: out})
	}()
}
