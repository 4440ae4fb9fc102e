package domain

// ApplyKind classifies the outcome of applying a chunk to a sink.
type ApplyKind int

const (
	// ApplyFull means every record was durably applied.
	ApplyFull ApplyKind = iota

	// ApplyPartial means some records were applied and some rejected.
	ApplyPartial

	// ApplyFailed means nothing was applied or the call could not complete.
	ApplyFailed
)

// String returns a human-readable name for the kind.
func (k ApplyKind) String() string {
	switch k {
	case ApplyFull:
		return "full"
	case ApplyPartial:
		return "partial"
	case ApplyFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ApplyResult is the structured outcome a sink returns for one chunk.
type ApplyResult struct {
	Kind ApplyKind

	// Applied is the number of records the sink applied
	Applied int

	// Rejections holds per-record rejection reasons, when the sink reports them
	Rejections []string

	// Cause is set for ApplyFailed
	Cause error
}

// FullSuccess reports that all n records were applied.
func FullSuccess(n int) ApplyResult {
	return ApplyResult{Kind: ApplyFull, Applied: n}
}

// PartialSuccess reports that applied records went through and the rest were
// rejected for the given reasons. A partial result with nothing applied is a
// total failure.
func PartialSuccess(applied int, reasons []string) ApplyResult {
	if applied <= 0 {
		return ApplyResult{Kind: ApplyFailed, Rejections: reasons, Cause: errNothingApplied}
	}
	return ApplyResult{Kind: ApplyPartial, Applied: applied, Rejections: reasons}
}

// TotalFailure reports that nothing was applied.
func TotalFailure(cause error) ApplyResult {
	return ApplyResult{Kind: ApplyFailed, Cause: cause}
}

// Succeeded reports whether the chunk counts as applied.
func (r ApplyResult) Succeeded() bool {
	switch r.Kind {
	case ApplyFull:
		return true
	case ApplyPartial:
		return r.Applied > 0
	default:
		return false
	}
}

// Rejected returns how many of n submitted records were not applied.
func (r ApplyResult) Rejected(n int) int {
	if !r.Succeeded() || r.Applied >= n {
		return 0
	}
	return n - r.Applied
}

var errNothingApplied = applyError("no records applied")

type applyError string

func (e applyError) Error() string { return string(e) }
