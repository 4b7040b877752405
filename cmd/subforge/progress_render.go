package main

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"subforge/internal/progress"
)

// progressPrinter drains tracker events onto a writer. On a terminal it
// drives a progress bar; otherwise it prints a line per finished stage.
type progressPrinter struct {
	out    io.Writer
	bar    *progressbar.ProgressBar
	events chan progress.Event
	done   chan struct{}
}

func startProgress(out io.Writer) *progressPrinter {
	p := &progressPrinter{
		out:    out,
		events: make(chan progress.Event, 32),
		done:   make(chan struct{}),
	}
	if shouldColorize(out) {
		p.bar = progressbar.NewOptions(100,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetWidth(30),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionSetDescription("starting"),
			progressbar.OptionClearOnFinish(),
		)
	}
	go p.loop()
	return p
}

func (p *progressPrinter) sink() chan<- progress.Event {
	return p.events
}

// stop must only be called once the pipeline call has returned.
func (p *progressPrinter) stop() {
	close(p.events)
	<-p.done
}

func (p *progressPrinter) loop() {
	defer close(p.done)
	for ev := range p.events {
		if p.bar == nil {
			if ev.Done {
				fmt.Fprintln(p.out, formatProgress(ev))
			}
			continue
		}
		p.bar.Describe(barDescription(ev))
		_ = p.bar.Set(int(ev.Percent))
	}
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

func barDescription(ev progress.Event) string {
	desc := fmt.Sprintf("%-10s", ev.Stage)
	if ev.ETA > 0 && ev.Stage != progress.StageDone {
		desc += " eta " + ev.ETA.Round(time.Second).String()
	}
	return desc
}

func formatProgress(ev progress.Event) string {
	line := fmt.Sprintf("%-11s %5.1f%%", ev.Stage, ev.Percent)
	if ev.Detail != "" {
		line += "  " + ev.Detail
	}
	if ev.ETA > 0 && ev.Stage != progress.StageDone {
		line += "  eta " + ev.ETA.Round(time.Second).String()
	}
	return line
}

func printerSink(p *progressPrinter) chan<- progress.Event {
	if p == nil {
		return nil
	}
	return p.sink()
}

func stopPrinter(p *progressPrinter) {
	if p != nil {
		p.stop()
	}
}
