package engine

import (
	"fmt"
	"os"
	"time"

	"github.com/ivlev/voicescene/internal/system"
)

type stats struct {
	scene  string
	frames int
	total  time.Duration
	prep   time.Duration
	render time.Duration
	mux    time.Duration
}

const benchmarkLog = "benchmark.log"

// report prints the performance summary and appends one line to benchmark.log.
func (p *Project) report(s stats) {
	fps := float64(s.frames) / s.render.Seconds()
	host, err := system.HostInfo()
	if err != nil {
		p.Log.WithError(err).Debug("host info unavailable")
	}

	fmt.Print(formatReport(p.Config.BuildVersion, s, fps, host))

	logEntry := fmt.Sprintf("[%s] Build: %s | Run: %s | Scene: %s | Frames: %d | Total: %.2fs | Render: %.2fs | Mux: %.2fs | FPS: %.2f | CPUs: %d\n",
		time.Now().Format("2006-01-02 15:04:05"),
		p.Config.BuildVersion,
		p.RunID[:8],
		s.scene,
		s.frames,
		s.total.Seconds(),
		s.render.Seconds(),
		s.mux.Seconds(),
		fps,
		host.LogicalCPUs,
	)

	f, err := os.OpenFile(benchmarkLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Printf("[!] Could not write %s: %v\n", benchmarkLog, err)
		return
	}
	defer f.Close()
	f.WriteString(logEntry)
}

func formatReport(build string, s stats, fps float64, host system.Host) string {
	return fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Total Time: %.2fs\n"+
			"Narration + Compile: %.2fs\n"+
			"Rendering + Encoding: %.2fs\n"+
			"Mix + Mux: %.2fs\n"+
			"Frames: %d\n"+
			"Effective FPS: %.2f\n"+
			"Host: %d CPUs, %.1f GiB RAM (%.0f%% used)\n"+
			"----------------------------\n",
		build, s.total.Seconds(), s.prep.Seconds(), s.render.Seconds(), s.mux.Seconds(),
		s.frames, fps, host.LogicalCPUs, float64(host.TotalMemory)/(1<<30), host.UsedPercent,
	)
}
