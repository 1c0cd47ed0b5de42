package progress

import (
	"fmt"
	"strings"
	"time"
)

// Info is a snapshot of scheduler progress.
type Info struct {
	TotalTasks     int
	FinishedTasks  int
	CancelledTasks int
	RunningTasks   int
	ElapsedTime    time.Duration
	EstimatedLeft  time.Duration
}

// Reporter formats periodic progress reports.
type Reporter struct {
	startTime      time.Time
	lastReportTime time.Time
	reportInterval time.Duration
}

// NewReporter creates a new progress reporter
func NewReporter() *Reporter {
	return &Reporter{
		startTime:      time.Now(),
		lastReportTime: time.Now(),
		reportInterval: 5 * time.Second,
	}
}

// ShouldReport returns true if it's time to report progress
func (r *Reporter) ShouldReport() bool {
	return time.Since(r.lastReportTime) >= r.reportInterval
}

// Report generates a formatted progress report
func (r *Reporter) Report(info Info) string {
	r.lastReportTime = time.Now()

	var sb strings.Builder

	percentage := 0.0
	if info.TotalTasks > 0 {
		percentage = float64(info.FinishedTasks) / float64(info.TotalTasks) * 100
	}

	sb.WriteString(fmt.Sprintf("Progress: %d/%d tasks finished (%.1f%%)",
		info.FinishedTasks, info.TotalTasks, percentage))

	if info.RunningTasks > 0 {
		sb.WriteString(fmt.Sprintf(" | Running: %d", info.RunningTasks))
	}
	if info.CancelledTasks > 0 {
		sb.WriteString(fmt.Sprintf(" | Cancelled: %d", info.CancelledTasks))
	}

	sb.WriteString(fmt.Sprintf(" | Elapsed: %v", info.ElapsedTime.Round(time.Second)))

	if info.EstimatedLeft > 0 {
		sb.WriteString(fmt.Sprintf(" | ETA: %s", FormatDuration(info.EstimatedLeft)))
	}

	return sb.String()
}

// CalculateETA estimates time remaining based on current progress
func CalculateETA(finished, total int, elapsed time.Duration) time.Duration {
	if finished <= 0 || total <= 0 || finished >= total {
		return 0
	}

	averageTimePerTask := elapsed / time.Duration(finished)
	remainingTasks := total - finished
	return averageTimePerTask * time.Duration(remainingTasks)
}

// FormatDuration formats a duration in a user-friendly way
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}
