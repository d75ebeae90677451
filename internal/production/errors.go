package production

import "errors"

// Sentinel errors surfaced to the handler layer. Handlers map these onto HTTP
// status codes; everything else is treated as an internal error.
var (
	// ErrMissingProductionData means the crop profile lacks average yield,
	// germination days or light days, so no schedule can be computed.
	ErrMissingProductionData = errors.New("crop profile is missing production data")

	ErrCropProfileNotFound = errors.New("crop profile not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderItemNotFound   = errors.New("order item not found")
	ErrTaskNotFound        = errors.New("task not found")

	// ErrIncompleteCompletion means the completion request had no completed_by.
	ErrIncompleteCompletion = errors.New("completed_by is required")

	// ErrTaskCancelled means a cancelled task was asked to complete.
	ErrTaskCancelled = errors.New("task is cancelled")

	// ErrInvalidStatusChange means the requested status transition is not
	// allowed from the current status.
	ErrInvalidStatusChange = errors.New("invalid status change")
)
