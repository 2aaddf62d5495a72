package service

import "time"

type options struct {
	timeFunc func() time.Time
	location *time.Location
}

// Option customizes a service.
type Option func(*options)

// WithTimeFunc overrides the clock used for creation, completion and
// status computations.
func WithTimeFunc(fn func() time.Time) Option {
	return func(o *options) {
		if fn != nil {
			o.timeFunc = fn
		}
	}
}

// WithLocation sets the location that defines calendar days for DueToday.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.location = loc
		}
	}
}

func applyOptions(opts []Option) options {
	o := options{timeFunc: time.Now, location: time.UTC}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
