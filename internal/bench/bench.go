// Package bench provides the wall-clock measurement and reporting used to
// compare the two training backends.
package bench

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

// Timing records one measured operation.
type Timing struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
}

// Measure runs op and records its wall-clock duration. The duration is
// reported even when op fails, so a failed training run still shows how
// long it took to fail.
func Measure(name string, op func() error) (Timing, error) {
	start := time.Now()
	err := op()
	return Timing{Name: name, Duration: time.Since(start)}, err
}

// ReleaseMemory forces a garbage collection pass and returns freed memory
// to the OS. The pipeline calls it between the two training runs so the
// second backend is not measured under the first one's allocation
// pressure. Failures are not possible; the call is fire-and-forget.
func ReleaseMemory() {
	runtime.GC()
	debug.FreeOSMemory()
}

// Comparison collects timings and renders a report.
type Comparison struct {
	timings []Timing
}

// NewComparison creates an empty comparison.
func NewComparison() *Comparison {
	return &Comparison{}
}

// Add records a timing.
func (c *Comparison) Add(t Timing) {
	c.timings = append(c.timings, t)
}

// Timings returns the recorded timings in insertion order.
func (c *Comparison) Timings() []Timing {
	return append([]Timing(nil), c.timings...)
}

// Speedup returns how many times faster b was than a, by recorded name.
// It returns 0 when either timing is missing or b took no measurable time.
func (c *Comparison) Speedup(a, b string) float64 {
	ta, okA := c.find(a)
	tb, okB := c.find(b)
	if !okA || !okB || tb.Duration <= 0 {
		return 0
	}
	return float64(ta.Duration) / float64(tb.Duration)
}

func (c *Comparison) find(name string) (Timing, bool) {
	for _, t := range c.timings {
		if t.Name == name {
			return t, true
		}
	}
	return Timing{}, false
}

// Report renders a markdown table of all recorded timings.
func (c *Comparison) Report() string {
	if len(c.timings) == 0 {
		return "# Timing Report\n\nNo timings recorded.\n"
	}

	var report strings.Builder
	report.WriteString("# Timing Report\n\n")
	report.WriteString("| Operation | Duration |\n")
	report.WriteString("|-----------|----------|\n")
	for _, t := range c.timings {
		fmt.Fprintf(&report, "| %s | %v |\n", t.Name, t.Duration)
	}
	return report.String()
}
