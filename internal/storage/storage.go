package storage

import (
	"context"
	"errors"

	"metaregistryCheck/internal/model"
)

// Sink receives batches of case results.
type Sink interface {
	PutResults(ctx context.Context, results []model.CaseResult) error
}

// Multi writes every batch to all sinks, in order, and joins their errors.
type Multi []Sink

func (m Multi) PutResults(ctx context.Context, results []model.CaseResult) error {
	var errs []error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.PutResults(ctx, results); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
