package vecsearch

import "github.com/kailas-cloud/vecsearch/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrParam             = domain.ErrParam
	ErrNotConnected      = domain.ErrNotConnected
	ErrClosed            = domain.ErrClosed
	ErrDimensionMismatch = domain.ErrDimensionMismatch
	ErrTimeout           = domain.ErrTimeout
	ErrIndexOutOfRange   = domain.ErrIndexOutOfRange
	ErrTableNotFound     = domain.ErrTableNotFound
	ErrTableExists       = domain.ErrTableExists
)

type (
	// StatusError is a failure reported by the service. Use errors.As to
	// read its Code.
	StatusError = domain.StatusError
	// StatusCode is a service status.
	StatusCode = domain.StatusCode
)

// Status codes most callers branch on. The full set lives on StatusCode.
const (
	StatusSuccess             = domain.StatusSuccess
	StatusUnexpected          = domain.StatusUnexpected
	StatusConnectFailed       = domain.StatusConnectFailed
	StatusPermissionDenied    = domain.StatusPermissionDenied
	StatusTableNotExists      = domain.StatusTableNotExists
	StatusTableExists         = domain.StatusTableExists
	StatusIllegalArgument     = domain.StatusIllegalArgument
	StatusIllegalDimension    = domain.StatusIllegalDimension
	StatusIllegalSearchResult = domain.StatusIllegalSearchResult
	StatusFileNotFound        = domain.StatusFileNotFound
)
