package record

import "errors"

// #region multi
// Multi fans each record out to several sinks.
type Multi []Sink

// Append forwards rec to every sink and joins any failures.
func (m Multi) Append(rec CycleRecord) error {
	var errs []error
	for _, s := range m {
		if err := s.Append(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink, even after a failure.
func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// #endregion multi
