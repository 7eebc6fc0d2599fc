package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/gosuri/uiprogress"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// progressBars renders one bar per named phase on the terminal stdout.
// Without a terminal every method is a no-op.
type progressBars struct {
	mu       sync.Mutex
	progress *uiprogress.Progress
	bars     map[string]*uiprogress.Bar
}

func (c *commandContext) newProgress(cmd *cobra.Command) *progressBars {
	if c.jsonOutput() || (c.noProgressFlag != nil && *c.noProgressFlag) || !isTerminal(cmd.OutOrStdout()) {
		return &progressBars{}
	}
	p := uiprogress.New()
	p.Start()
	return &progressBars{progress: p, bars: make(map[string]*uiprogress.Bar)}
}

// update moves the bar of phase to done out of total, creating it on first
// use.
func (p *progressBars) update(phase string, done, total int) {
	if p == nil || p.progress == nil || total <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	bar, ok := p.bars[phase]
	if !ok {
		bar = p.progress.AddBar(total)
		bar.AppendCompleted()
		bar.PrependElapsed()
		bar.PrependFunc(func(*uiprogress.Bar) string {
			return fmt.Sprintf("%-10s", phase)
		})
		p.bars[phase] = bar
	}
	_ = bar.Set(done)
}

// callback adapts update to the done/total progress hooks.
func (p *progressBars) callback(phase string) func(done, total int) {
	return func(done, total int) { p.update(phase, done, total) }
}

func (p *progressBars) stop() {
	if p == nil || p.progress == nil {
		return
	}
	p.progress.Stop()
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
