package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"evovec/pkg/evovec"
)

const (
	terminalProgressEvery = 500
	logProgressEvery      = 50000
)

// progressPrinter renders annealer progress. On a terminal the line is
// redrawn in place; otherwise one line is emitted per report.
type progressPrinter struct {
	w        io.Writer
	terminal bool
}

func newProgressPrinter(f *os.File) *progressPrinter {
	fd := f.Fd()
	return &progressPrinter{
		w:        f,
		terminal: isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd),
	}
}

func (p *progressPrinter) every() int {
	if p.terminal {
		return terminalProgressEvery
	}
	return logProgressEvery
}

func (p *progressPrinter) report(pr evovec.Progress) {
	line := formatProgress(pr)
	if !p.terminal {
		fmt.Fprintln(p.w, line)
		return
	}
	fmt.Fprintf(p.w, "\r\033[K%s", line)
	if pr.Done {
		fmt.Fprintln(p.w)
	}
}

func formatProgress(pr evovec.Progress) string {
	pct := 0.0
	if pr.EstimatedIterations > 0 {
		pct = 100 * float64(pr.Iteration) / float64(pr.EstimatedIterations)
		if pct > 100 {
			pct = 100
		}
	}
	return fmt.Sprintf("progress improving=%s annealed=%s iteration=%s/%s (%.1f%%) temperature=%.4f best_fitness=%s elapsed=%s",
		humanize.Comma(int64(pr.Improving)),
		humanize.Comma(int64(pr.Annealed)),
		humanize.Comma(int64(pr.Iteration)),
		humanize.Comma(int64(pr.EstimatedIterations)),
		pct,
		pr.Temperature,
		humanize.Comma(clampInt64(pr.BestFitness)),
		pr.Elapsed.Round(time.Millisecond),
	)
}

// snapshotBytes sums the on-disk size of the written snapshots. Missing
// files are skipped.
func snapshotBytes(paths []string) string {
	var total uint64
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		total += uint64(info.Size())
	}
	return humanize.Bytes(total)
}

func clampInt64(v uint64) int64 {
	if v > 1<<63-1 {
		return 1<<63 - 1
	}
	return int64(v)
}
