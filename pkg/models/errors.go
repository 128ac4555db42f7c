package models

import (
	"fmt"
	"time"
)

// ValidationError reports a payload or canonical object that does not
// match the expected shape. Field names the first offending key.
type ValidationError struct {
	ASIN  string
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: required key %q missing or invalid", e.ASIN, e.Field)
}

// NotFoundError reports an entity absent at a source or in the store.
type NotFoundError struct {
	ASIN string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.ASIN)
}

// RegionUnsupportedError reports an entity that is structurally
// unavailable in the requested marketplace.
type RegionUnsupportedError struct {
	ASIN   string
	Region string
}

func (e *RegionUnsupportedError) Error() string {
	return fmt.Sprintf("%s is not available in region %s", e.ASIN, e.Region)
}

// TransportError reports a network or HTTP failure against an upstream
// source. Status is 0 when the failure happened below HTTP.
type TransportError struct {
	Source string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: http status %d", e.Source, e.Status)
	}
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// FutureDateError reports a resolved release date later than now.
// A data-integrity guard: no record is written with such a date.
type FutureDateError struct {
	ASIN string
	Date time.Time
}

func (e *FutureDateError) Error() string {
	return fmt.Sprintf("release date %s for %s is in the future", e.Date.Format(time.RFC3339), e.ASIN)
}

// ReconciliationError reports that both sources failed for an entity.
type ReconciliationError struct {
	ASIN string
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("no source data available for %s", e.ASIN)
}
