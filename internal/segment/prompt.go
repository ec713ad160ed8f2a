package segment

import (
	"fmt"
	"strings"

	"scribe/internal/transcribe"
)

// TopicSegmentationPrompt is the system prompt sent to the LLM when deriving
// topic segments from a timestamped transcript.
const TopicSegmentationPrompt = `You are an assistant that segments a timestamped transcript into coherent topics.

You receive a transcript rendered as lines of the form "[MM:SS - MM:SS] text"
plus a target topic-count range. Divide the full recording into that many
topics, each covering a contiguous span of the timeline.

Rules:
- The first segment must start at 00:00.
- Segments must be contiguous: each segment starts where the previous one ends.
- The last segment must end at the stated total duration.
- Topic titles are short (a few words); descriptions are one or two sentences.

You must respond ONLY with JSON:
{"segments": [{"startTime": "MM:SS", "endTime": "MM:SS", "topic": "...", "description": "..."}]}`

// TopicSegment is one LLM-derived span of the global timeline.
type TopicSegment struct {
	StartTime   string `json:"startTime"` // MM:SS
	EndTime     string `json:"endTime"`   // MM:SS
	Topic       string `json:"topic"`
	Description string `json:"description"`
}

// Analysis is the structured segmentation result.
type Analysis struct {
	Segments []TopicSegment `json:"segments"`
}

// FormatTimestamp renders absolute seconds as MM:SS. Minutes are not wrapped
// at the hour, matching the transcript line format the prompt describes.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// BuildUserPrompt renders the timestamped transcript and the topic target
// into the single prompt artifact sent alongside TopicSegmentationPrompt.
func BuildUserPrompt(segments []transcribe.GlobalSegment, duration float64, plan Plan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total duration: %s (%s recording)\n", FormatTimestamp(duration), plan.Category)
	fmt.Fprintf(&b, "Divide the recording into %d-%d topics.\n\n", plan.MinTopics, plan.MaxTopics)
	b.WriteString("Transcript:\n")
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "[%s - %s] %s\n", FormatTimestamp(seg.Start), FormatTimestamp(seg.End), text)
	}
	return b.String()
}
