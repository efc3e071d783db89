package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrParam signals malformed caller input. Never produced by a remote call.
	ErrParam = errors.New("invalid parameter")
	// ErrNotConnected signals an operation on a connection that is not connected.
	ErrNotConnected = errors.New("not connected")
	// ErrClosed signals reuse of a connection after Disconnect.
	ErrClosed = fmt.Errorf("connection closed: %w", ErrNotConnected)
	// ErrDimensionMismatch signals a vector whose length disagrees with its table.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrTimeout signals an elapsed deadline.
	ErrTimeout = errors.New("timeout")
	// ErrIndexOutOfRange signals access to a result row beyond its length.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrTableNotFound signals a missing table.
	ErrTableNotFound = errors.New("table not found")
	// ErrTableExists signals a duplicate table.
	ErrTableExists = errors.New("table already exists")
)

// Paramf returns an ErrParam-wrapping error with a formatted detail.
func Paramf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrParam, fmt.Sprintf(format, args...))
}

// StatusCode is a status reported by the search service.
type StatusCode int

// Status codes use the service's numbering.
const (
	StatusSuccess             StatusCode = 0
	StatusUnexpected          StatusCode = 1
	StatusConnectFailed       StatusCode = 2
	StatusPermissionDenied    StatusCode = 3
	StatusTableNotExists      StatusCode = 4
	StatusIllegalArgument     StatusCode = 5
	StatusIllegalRange        StatusCode = 6
	StatusIllegalDimension    StatusCode = 7
	StatusIllegalIndexType    StatusCode = 8
	StatusIllegalTableName    StatusCode = 9
	StatusIllegalTopK         StatusCode = 10
	StatusIllegalRowRecord    StatusCode = 11
	StatusIllegalVectorID     StatusCode = 12
	StatusIllegalSearchResult StatusCode = 13
	StatusFileNotFound        StatusCode = 14
	StatusMetaFailed          StatusCode = 15
	StatusCacheFailed         StatusCode = 16
	StatusBuildIndexError     StatusCode = 21
	StatusIllegalNList        StatusCode = 22
	StatusIllegalMetricType   StatusCode = 23
	StatusOutOfMemory         StatusCode = 24
	StatusTableExists         StatusCode = 25
)

var statusNames = map[StatusCode]string{
	StatusSuccess:             "SUCCESS",
	StatusUnexpected:          "UNEXPECTED_ERROR",
	StatusConnectFailed:       "CONNECT_FAILED",
	StatusPermissionDenied:    "PERMISSION_DENIED",
	StatusTableNotExists:      "TABLE_NOT_EXISTS",
	StatusIllegalArgument:     "ILLEGAL_ARGUMENT",
	StatusIllegalRange:        "ILLEGAL_RANGE",
	StatusIllegalDimension:    "ILLEGAL_DIMENSION",
	StatusIllegalIndexType:    "ILLEGAL_INDEX_TYPE",
	StatusIllegalTableName:    "ILLEGAL_TABLE_NAME",
	StatusIllegalTopK:         "ILLEGAL_TOPK",
	StatusIllegalRowRecord:    "ILLEGAL_ROWRECORD",
	StatusIllegalVectorID:     "ILLEGAL_VECTOR_ID",
	StatusIllegalSearchResult: "ILLEGAL_SEARCH_RESULT",
	StatusFileNotFound:        "FILE_NOT_FOUND",
	StatusMetaFailed:          "META_FAILED",
	StatusCacheFailed:         "CACHE_FAILED",
	StatusBuildIndexError:     "BUILD_INDEX_ERROR",
	StatusIllegalNList:        "ILLEGAL_NLIST",
	StatusIllegalMetricType:   "ILLEGAL_METRIC_TYPE",
	StatusOutOfMemory:         "OUT_OF_MEMORY",
	StatusTableExists:         "TABLE_EXISTS",
}

func (c StatusCode) String() string {
	if n, ok := statusNames[c]; ok {
		return n
	}
	return fmt.Sprintf("STATUS_%d", int(c))
}

// StatusError is a non-success status reported by the service.
type StatusError struct {
	Code    StatusCode
	Message string
}

// NewStatus creates a StatusError.
func NewStatus(code StatusCode, format string, args ...any) *StatusError {
	return &StatusError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return "status " + e.Code.String()
	}
	return "status " + e.Code.String() + ": " + e.Message
}

// Is lets errors.Is match a status against the domain sentinels.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrTableNotFound:
		return e.Code == StatusTableNotExists
	case ErrTableExists:
		return e.Code == StatusTableExists
	case ErrDimensionMismatch:
		return e.Code == StatusIllegalDimension
	case ErrNotConnected:
		return e.Code == StatusConnectFailed
	case ErrParam:
		switch e.Code {
		case StatusIllegalArgument, StatusIllegalRange, StatusIllegalIndexType,
			StatusIllegalTableName, StatusIllegalTopK, StatusIllegalRowRecord,
			StatusIllegalVectorID, StatusIllegalNList, StatusIllegalMetricType:
			return true
		}
	}
	return false
}

// AsStatus converts err into a StatusError, wrapping anything unrecognized as
// StatusUnexpected.
func AsStatus(err error) *StatusError {
	if err == nil {
		return nil
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se
	}
	switch {
	case errors.Is(err, ErrTableNotFound):
		return &StatusError{Code: StatusTableNotExists, Message: err.Error()}
	case errors.Is(err, ErrTableExists):
		return &StatusError{Code: StatusTableExists, Message: err.Error()}
	case errors.Is(err, ErrDimensionMismatch):
		return &StatusError{Code: StatusIllegalDimension, Message: err.Error()}
	case errors.Is(err, ErrParam):
		return &StatusError{Code: StatusIllegalArgument, Message: err.Error()}
	}
	return &StatusError{Code: StatusUnexpected, Message: err.Error()}
}
