package roster

import "errors"

var (
	ErrViewNotFound        = errors.New("Report view not found")
	ErrUpstreamUnavailable = errors.New("Punch source unavailable")
	ErrUnknownReportType   = errors.New("Unknown report type")
)
