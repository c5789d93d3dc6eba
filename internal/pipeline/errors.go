package pipeline

import (
	"errors"
	"fmt"
)

// ErrPipeline marks a run in which at least one asset failed.
var ErrPipeline = errors.New("pipeline failure")

// AssetError ties a failure to the asset that produced it.
type AssetError struct {
	Asset string
	Err   error
}

func (e *AssetError) Error() string {
	return fmt.Sprintf("%s: %v", e.Asset, e.Err)
}

func (e *AssetError) Unwrap() error {
	return e.Err
}

// errTotalFailure is the cause recorded when every segment of an asset failed.
var errTotalFailure = errors.New("every segment failed transcription")

func joinAssetErrors(errs []error, total int) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d of %d assets failed: %w", ErrPipeline, len(errs), total, errors.Join(errs...))
}
