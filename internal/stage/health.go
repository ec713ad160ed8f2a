package stage

// Health reports whether a pipeline stage can currently accept work.
// Detail carries the blocking condition and is empty for a ready stage.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy marks the named stage ready for work.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy marks the named stage blocked, naming what is missing.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}
