package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"

	"filldrops/internal/filldrops"
)

func newProgressBar(w io.Writer, total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("frames"),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func printRunSummary(w io.Writer, output string, stats filldrops.RenderStats, elapsed time.Duration) {
	p := newPrinter()
	p.Fprintf(w, "Rendered %d frames in %s (%.1f fps)\n",
		stats.Frames, elapsed.Round(time.Millisecond), fps(stats.Frames, elapsed))
	p.Fprintf(w, "Kept %d original, interpolated %d (%.1f%%)\n",
		stats.Original, stats.Interpolated, percent(stats.Interpolated, stats.Frames))
	if info, err := os.Stat(output); err == nil {
		fmt.Fprintf(w, "Wrote %s (%s)\n", output, humanize.Bytes(uint64(info.Size())))
	} else {
		fmt.Fprintf(w, "Wrote %s\n", output)
	}
}

func fps(frames int, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(frames) / elapsed.Seconds()
}
