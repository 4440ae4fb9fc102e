package domain

import "fmt"

// WriteOp is the closed set of write operations a sink can be asked to apply.
// Only OpInsert is implemented by the shipped sinks; OpUpdate and OpDelete
// are reserved and fail fast.
type WriteOp int

const (
	OpInsert WriteOp = iota
	OpUpdate
	OpDelete
)

// String returns the configuration name of the operation.
func (op WriteOp) String() string {
	switch op {
	case OpInsert:
		return "insert"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Implemented reports whether the batch engine can dispatch the operation.
func (op WriteOp) Implemented() bool {
	switch op {
	case OpInsert:
		return true
	case OpUpdate, OpDelete:
		return false
	default:
		return false
	}
}

// ParseWriteOp maps a configuration name onto a WriteOp.
func ParseWriteOp(s string) (WriteOp, error) {
	switch s {
	case "insert", "":
		return OpInsert, nil
	case "update":
		return OpUpdate, nil
	case "delete":
		return OpDelete, nil
	default:
		return 0, fmt.Errorf("%w: unknown write operation %q", ErrInvalidConfig, s)
	}
}
