package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReport(t *testing.T) {
	r := NewReporter()

	out := r.Report(Info{
		TotalTasks:    10,
		FinishedTasks: 4,
		RunningTasks:  2,
		ElapsedTime:   8 * time.Second,
		EstimatedLeft: 12 * time.Second,
	})

	assert.Contains(t, out, "4/10 tasks finished (40.0%)")
	assert.Contains(t, out, "Running: 2")
	assert.Contains(t, out, "ETA: 12s")
	assert.NotContains(t, out, "Cancelled")
}

func TestReportIncludesCancelled(t *testing.T) {
	r := NewReporter()

	out := r.Report(Info{TotalTasks: 3, FinishedTasks: 3, CancelledTasks: 1})
	assert.Contains(t, out, "Cancelled: 1")
}

func TestShouldReportRespectsInterval(t *testing.T) {
	r := NewReporter()
	assert.False(t, r.ShouldReport())

	r.lastReportTime = time.Now().Add(-10 * time.Second)
	assert.True(t, r.ShouldReport())

	r.Report(Info{TotalTasks: 1})
	assert.False(t, r.ShouldReport())
}

func TestCalculateETA(t *testing.T) {
	assert.Equal(t, 30*time.Second, CalculateETA(2, 8, 10*time.Second))
	assert.Equal(t, time.Duration(0), CalculateETA(0, 8, 10*time.Second))
	assert.Equal(t, time.Duration(0), CalculateETA(8, 8, 10*time.Second))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "45s", FormatDuration(45*time.Second))
	assert.Equal(t, "2m 5s", FormatDuration(125*time.Second))
	assert.Equal(t, "1h 30m", FormatDuration(90*time.Minute))
}
