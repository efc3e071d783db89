package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound   = errors.New("db: key not found")
	ErrIndexNotFound = errors.New("db: index not found")
	ErrIndexExists   = errors.New("db: index already exists")
)

// Redis/Valkey command names, used as Error.Op.
const (
	OpPing        = "PING"
	OpInfo        = "INFO"
	OpHSet        = "HSET"
	OpHGetAll     = "HGETALL"
	OpDel         = "DEL"
	OpExists      = "EXISTS"
	OpScan        = "SCAN"
	OpIncrBy      = "INCRBY"
	OpCreateIndex = "FT.CREATE"
	OpDropIndex   = "FT.DROPINDEX"
	OpIndexInfo   = "FT.INFO"
	OpSearch      = "FT.SEARCH"
)

// Error is a failed command. Key names the key or index it touched, when
// there is exactly one.
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + " " + e.Key + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }
