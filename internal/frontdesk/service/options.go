package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/store"
	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/types"
	"github.com/zhank48/ultfpeb-sub004/internal/logging"
	"github.com/zhank48/ultfpeb-sub004/internal/metrics"
)

// Options carries the ambient collaborators shared by every service.
// The zero value logs nowhere, records no metrics and uses the wall clock.
type Options struct {
	Logger  logrus.FieldLogger
	Metrics *metrics.Metrics
	Now     func() time.Time
}

func (o Options) withDefaults() Options {
	o.Logger = logging.OrDiscard(o.Logger)
	if o.Now == nil {
		o.Now = defaultNow
	}
	return o
}

// Timestamps are kept at millisecond precision, which every backend stores
// losslessly.
func defaultNow() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// storageErr passes domain errors through and wraps everything else as a
// StorageError.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, domain := range []error{
		types.ErrValidation,
		types.ErrConflict,
		types.ErrNotFound,
		types.ErrInvalidState,
		types.ErrStorage,
	} {
		if errors.Is(err, domain) {
			return err
		}
	}
	return &types.StorageError{Op: op, Err: err}
}

func lookupErr(entity string, id int64, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return &types.NotFoundError{Entity: entity, ID: id}
	}
	return fmt.Errorf("get %s %d: %w", entity, id, err)
}

func ptr[T any](v T) *T { return &v }
