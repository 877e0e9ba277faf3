package routecard

import "errors"

// Sentinel errors returned by CardStore write and lookup operations. None
// of them is fatal; callers are expected to branch on them and carry on.
var (
	// ErrDuplicateSerial is returned when provisioning a serial that
	// already has a live row.
	ErrDuplicateSerial = errors.New("serial already provisioned")

	// ErrStoreUnavailable wraps failures to reach the persistent medium.
	// It is distinct from "zero rows matched": the completion workflow
	// must be able to tell a store fault apart from a legitimate miss.
	ErrStoreUnavailable = errors.New("card store unavailable")
)
