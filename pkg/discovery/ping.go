package discovery

import (
	"context"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/lanwatch/lanwatch/pkg/models"
)

var (
	windowsTimePattern = regexp.MustCompile(`time([<=])(\d+(?:\.\d+)?)ms`)
	unixTimePattern    = regexp.MustCompile(`time=(\d+\.?\d*) ms`)
)

// pingHost issues a single ICMP echo through the platform ping binary and
// reports whether the host answered along with the round-trip time. The
// reported time from the ping output is preferred; if it cannot be parsed
// the measured wall-clock elapsed time is used instead.
func pingHost(ctx context.Context, ip string, timeout time.Duration) (time.Duration, bool) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.CommandContext(ctx, "ping", "-n", "1", "-w", "1000", ip)
	case "darwin":
		cmd = exec.CommandContext(ctx, "ping", "-c", "1", "-W", "1000", ip)
	default:
		cmd = exec.CommandContext(ctx, "ping", "-c", "1", "-W", "1", ip)
	}

	start := time.Now()
	out, err := cmd.CombinedOutput()
	elapsed := time.Since(start)
	if err != nil {
		return 0, false
	}

	output := string(out)
	lower := strings.ToLower(output)
	if strings.Contains(lower, "unreachable") || strings.Contains(lower, "timed out") {
		return 0, false
	}

	if rtt, ok := parsePingTime(output); ok {
		return rtt, true
	}
	return clampLatency(elapsed), true
}

// parsePingTime extracts the reported round-trip time from ping output,
// handling both the Windows "time=Xms" / "time<1ms" and Unix "time=X ms"
// reply formats.
func parsePingTime(output string) (time.Duration, bool) {
	if m := unixTimePattern.FindStringSubmatch(output); m != nil {
		return parseMillis(m[1])
	}
	if m := windowsTimePattern.FindStringSubmatch(output); m != nil {
		// "time<Nms" reports a reply below the tool's resolution, not a
		// measured value of N.
		if m[1] == "<" {
			return models.MinLatency, true
		}
		return parseMillis(m[2])
	}
	return 0, false
}

func parseMillis(s string) (time.Duration, bool) {
	ms, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return clampLatency(time.Duration(ms * float64(time.Millisecond))), true
}

// clampLatency floors a measured latency at the minimum representable
// value so a real reply is never reported as zero.
func clampLatency(d time.Duration) time.Duration {
	if d < models.MinLatency {
		return models.MinLatency
	}
	return d
}
