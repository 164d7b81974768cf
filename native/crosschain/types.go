package crosschain

import "errors"

var (
	// ErrDuplicateRequest indicates a create for a request id already registered.
	ErrDuplicateRequest = errors.New("crosschain: request already exists")
	// ErrRequestNotFound indicates a lookup or archival on an unknown request id.
	ErrRequestNotFound = errors.New("crosschain: request not found")
	// ErrInvalidRequestID indicates the zero sentinel id or a corrupted index entry.
	ErrInvalidRequestID = errors.New("crosschain: invalid request id")
	// ErrUnsupportedChain indicates a burn targeting a chain outside the supported set.
	ErrUnsupportedChain = errors.New("crosschain: unsupported target chain")
	// ErrAmountTooLow indicates a burn amount that does not strictly exceed the total fee.
	ErrAmountTooLow = errors.New("crosschain: amount does not exceed total fee")
	// ErrInvalidPagination indicates a page/pageSize combination where only one is zero.
	ErrInvalidPagination = errors.New("crosschain: page and page size must both be set or both be zero")
)

// RequestRecord captures one cross-chain burn or mint leg. Records are
// immutable once created; archival removes them wholesale.
type RequestRecord struct {
	ID            RequestID
	LocalUser     [20]byte
	OuterUser     string
	Amount        uint64
	IsBurn        bool
	TargetChainID uint64
}

// Copy returns a value copy so callers cannot mutate registry-held records.
func (r *RequestRecord) Copy() RequestRecord {
	return *r
}
