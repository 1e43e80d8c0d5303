package scraper

import (
	log "github.com/sirupsen/logrus"
)

// Strategy extracts one value from a source, reporting whether it succeeded.
type Strategy[S, T any] func(src S) (T, bool)

// FirstMatch tries strategies in order and returns the first success. A
// panicking strategy counts as a miss.
func FirstMatch[S, T any](src S, strategies ...Strategy[S, T]) (T, bool) {
	for _, strategy := range strategies {
		if v, ok := try(src, strategy); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func try[S, T any](src S, strategy Strategy[S, T]) (v T, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Debug("extraction strategy panicked")
			var zero T
			v, ok = zero, false
		}
	}()
	return strategy(src)
}

// Safely runs one field extraction so a panic never aborts the others.
func Safely(field string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{"field": field, "panic": r}).Debug("field extraction panicked")
		}
	}()
	fn()
}
