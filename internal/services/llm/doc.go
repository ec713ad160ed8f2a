// Package llm wraps the text-generation capability used for topic
// segmentation. Failures here are opaque to callers; the segmenting stage
// decides whether to degrade or fail the job.
package llm
