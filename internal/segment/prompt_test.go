package segment

import (
	"strings"
	"testing"

	"scribe/internal/transcribe"
)

func TestFormatTimestamp(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00"},
		{5, "00:05"},
		{65, "01:05"},
		{599.7, "09:59"},
		{3600, "60:00"},
		{7265, "121:05"},
		{-3, "00:00"},
	}
	for _, tc := range cases {
		if got := FormatTimestamp(tc.seconds); got != tc.want {
			t.Errorf("FormatTimestamp(%v) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	if got, err := ParseTimestamp("01:30"); err != nil || got != 90 {
		t.Errorf("ParseTimestamp(01:30) = %v, %v", got, err)
	}
	if got, err := ParseTimestamp("121:05"); err != nil || got != 7265 {
		t.Errorf("ParseTimestamp(121:05) = %v, %v", got, err)
	}
	for _, bad := range []string{"", "90", "1:75", "-1:00", "aa:bb"} {
		if _, err := ParseTimestamp(bad); err == nil {
			t.Errorf("ParseTimestamp(%q) should fail", bad)
		}
	}
}

func TestBuildUserPrompt(t *testing.T) {
	segments := []transcribe.GlobalSegment{
		{Text: "intro remarks", Start: 0, End: 12},
		{Text: "", Start: 12, End: 14},
		{Text: "main topic", Start: 32, End: 38},
	}
	prompt := BuildUserPrompt(segments, 900, PlanTopics(900))

	if !strings.Contains(prompt, "Total duration: 15:00 (short recording)") {
		t.Errorf("missing duration header:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Divide the recording into 3-6 topics.") {
		t.Errorf("missing topic target:\n%s", prompt)
	}
	if !strings.Contains(prompt, "[00:00 - 00:12] intro remarks") {
		t.Errorf("missing first transcript line:\n%s", prompt)
	}
	if !strings.Contains(prompt, "[00:32 - 00:38] main topic") {
		t.Errorf("missing offset transcript line:\n%s", prompt)
	}
	if strings.Contains(prompt, "00:12 - 00:14") {
		t.Error("empty segments should be omitted")
	}
}

func TestAuditAnalysis(t *testing.T) {
	good := &Analysis{Segments: []TopicSegment{
		{StartTime: "00:00", EndTime: "07:30", Topic: "Opening"},
		{StartTime: "07:30", EndTime: "15:00", Topic: "Case study"},
	}}
	if warnings := auditAnalysis(good, 900); len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}

	late := &Analysis{Segments: []TopicSegment{
		{StartTime: "00:10", EndTime: "05:00", Topic: "Opening"},
	}}
	warnings := auditAnalysis(late, 900)
	if len(warnings) != 2 {
		t.Errorf("expected start and span warnings, got %v", warnings)
	}

	if warnings := auditAnalysis(nil, 900); len(warnings) != 1 {
		t.Errorf("nil analysis should warn once, got %v", warnings)
	}
}
