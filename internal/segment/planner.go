package segment

// Plan is a duration-derived target for topic granularity.
type Plan struct {
	Category  string
	MinTopics int
	MaxTopics int
}

// PlanTopics maps the reconciled audio duration in seconds to a target
// topic-count range. Pure function; the result only parametrizes the
// segmentation prompt.
func PlanTopics(durationSeconds float64) Plan {
	switch {
	case durationSeconds < 60:
		return Plan{Category: "very_short", MinTopics: 2, MaxTopics: 3}
	case durationSeconds < 1200:
		return Plan{Category: "short", MinTopics: 3, MaxTopics: 6}
	case durationSeconds < 2400:
		return Plan{Category: "medium", MinTopics: 5, MaxTopics: 8}
	default:
		return Plan{Category: "long", MinTopics: 8, MaxTopics: 10}
	}
}
