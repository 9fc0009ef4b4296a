// Package ledger tracks daily attendance.
package ledger

// Option applies a configuration option to the Ledger.
type Option func(*Ledger)

// WithRecorder sets the durable record log appended on every new mark.
func WithRecorder(r Recorder) Option {
	return func(l *Ledger) {
		if r != nil {
			l.recorder = r
		}
	}
}
