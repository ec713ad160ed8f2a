package segment

import (
	"fmt"
	"strconv"
	"strings"
)

// timestampSlackSeconds tolerates rounding between the reconciled duration
// and the model's MM:SS arithmetic.
const timestampSlackSeconds = 90

// ParseTimestamp converts an MM:SS string back to seconds.
func ParseTimestamp(value string) (float64, error) {
	parts := strings.SplitN(strings.TrimSpace(value), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	minutes, err := strconv.Atoi(parts[0])
	if err != nil || minutes < 0 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	seconds, err := strconv.Atoi(parts[1])
	if err != nil || seconds < 0 || seconds > 59 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(minutes*60 + seconds), nil
}

// auditAnalysis checks the soft expectations on a segmentation result: the
// first segment starts at 00:00 and the final segment ends near the
// reconciled duration. Violations are reported as warnings, never errors;
// the model's output is kept as-is either way.
func auditAnalysis(analysis *Analysis, duration float64) []string {
	if analysis == nil || len(analysis.Segments) == 0 {
		return []string{"segmentation returned no segments"}
	}

	var warnings []string
	first := analysis.Segments[0]
	if start, err := ParseTimestamp(first.StartTime); err != nil {
		warnings = append(warnings, fmt.Sprintf("first segment has unparseable start %q", first.StartTime))
	} else if start != 0 {
		warnings = append(warnings, fmt.Sprintf("first segment starts at %s, expected 00:00", first.StartTime))
	}

	last := analysis.Segments[len(analysis.Segments)-1]
	if end, err := ParseTimestamp(last.EndTime); err != nil {
		warnings = append(warnings, fmt.Sprintf("last segment has unparseable end %q", last.EndTime))
	} else if diff := end - duration; diff > timestampSlackSeconds || diff < -timestampSlackSeconds {
		warnings = append(warnings, fmt.Sprintf("last segment ends at %s, expected about %s", last.EndTime, FormatTimestamp(duration)))
	}

	for i, seg := range analysis.Segments {
		if strings.TrimSpace(seg.Topic) == "" {
			warnings = append(warnings, fmt.Sprintf("segment %d has no topic label", i))
		}
	}
	return warnings
}
