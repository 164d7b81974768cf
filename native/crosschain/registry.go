package crosschain

// Registry is the append-mostly table of cross-chain request records plus the
// two active-index side structures. It is not safe for concurrent use; the
// owning engine serializes access.
//
// Side-table invariant: for every id held in an active list at position p the
// matching index maps the id to exactly p, and the index holds no id absent
// from the list.
type Registry struct {
	localChainID uint64
	counter      uint64

	records      map[RequestID]*RequestRecord
	activeSource []RequestID
	activeTarget []RequestID
	sourceIndex  map[RequestID]int
	targetIndex  map[RequestID]int

	supported map[uint64]bool
}

// NewRegistry constructs an empty registry rooted at the local chain id.
func NewRegistry(localChainID uint64) *Registry {
	return &Registry{
		localChainID: localChainID,
		records:      make(map[RequestID]*RequestRecord),
		sourceIndex:  make(map[RequestID]int),
		targetIndex:  make(map[RequestID]int),
		supported:    make(map[uint64]bool),
	}
}

// LocalChainID returns the chain id locally numbered requests are rooted at.
func (r *Registry) LocalChainID() uint64 { return r.localChainID }

// Counter returns the last locally issued request count.
func (r *Registry) Counter() uint64 { return r.counter }

// NextSourceID advances the monotonic counter and derives the id for a new
// burn-originated request.
func (r *Registry) NextSourceID() RequestID {
	r.counter++
	return ComposeRequestID(r.localChainID, ProtocolSalt, r.counter)
}

// AddSupportedChain marks a chain as a valid burn target.
func (r *Registry) AddSupportedChain(chainID uint64) { r.supported[chainID] = true }

// RemoveSupportedChain withdraws a chain from the supported set.
func (r *Registry) RemoveSupportedChain(chainID uint64) { delete(r.supported, chainID) }

// IsSupported reports whether burns may target the chain.
func (r *Registry) IsSupported(chainID uint64) bool { return r.supported[chainID] }

// SupportedChains returns the supported chain ids in unspecified order.
func (r *Registry) SupportedChains() []uint64 {
	out := make([]uint64, 0, len(r.supported))
	for chain := range r.supported {
		out = append(out, chain)
	}
	return out
}

// Create registers a request record exactly once. Burn-originated records
// join the source active list, mint-originated records the target list. The
// zero id sentinel can never be registered.
func (r *Registry) Create(rec RequestRecord) error {
	if rec.ID.IsZero() {
		return ErrInvalidRequestID
	}
	if _, exists := r.records[rec.ID]; exists {
		return ErrDuplicateRequest
	}
	stored := rec
	r.records[rec.ID] = &stored
	if rec.IsBurn {
		r.sourceIndex[rec.ID] = len(r.activeSource)
		r.activeSource = append(r.activeSource, rec.ID)
	} else {
		r.targetIndex[rec.ID] = len(r.activeTarget)
		r.activeTarget = append(r.activeTarget, rec.ID)
	}
	return nil
}

// Archive removes the request from its active list via swap-and-pop and
// deletes the record, returning the removed record for downstream archival.
func (r *Registry) Archive(id RequestID, source bool) (RequestRecord, error) {
	list, index := r.activeTarget, r.targetIndex
	if source {
		list, index = r.activeSource, r.sourceIndex
	}
	pos, ok := index[id]
	if !ok {
		return RequestRecord{}, ErrRequestNotFound
	}
	if pos >= len(list) || list[pos] != id {
		return RequestRecord{}, ErrInvalidRequestID
	}
	last := len(list) - 1
	if pos != last {
		moved := list[last]
		list[pos] = moved
		index[moved] = pos
	}
	list = list[:last]
	if source {
		r.activeSource = list
	} else {
		r.activeTarget = list
	}
	delete(index, id)
	record := *r.records[id]
	delete(r.records, id)
	return record, nil
}

// ArchiveBatch archives every id still present, silently skipping ids that
// are already gone so relayers can resubmit overlapping batches.
func (r *Registry) ArchiveBatch(ids []RequestID, source bool) []RequestRecord {
	archived := make([]RequestRecord, 0, len(ids))
	for _, id := range ids {
		record, err := r.Archive(id, source)
		if err != nil {
			continue
		}
		archived = append(archived, record)
	}
	return archived
}

// Get returns a copy of the record for the id.
func (r *Registry) Get(id RequestID) (RequestRecord, bool) {
	record, ok := r.records[id]
	if !ok {
		return RequestRecord{}, false
	}
	return *record, true
}

// BatchGet resolves each id; missing entries come back as zero-id records,
// matching the nonexistence sentinel convention.
func (r *Registry) BatchGet(ids []RequestID) []RequestRecord {
	out := make([]RequestRecord, len(ids))
	for i, id := range ids {
		if record, ok := r.records[id]; ok {
			out[i] = *record
		}
	}
	return out
}

// Exists reports whether the id is registered.
func (r *Registry) Exists(id RequestID) bool {
	_, ok := r.records[id]
	return ok
}

// BatchExists resolves existence for each id in order.
func (r *Registry) BatchExists(ids []RequestID) []bool {
	out := make([]bool, len(ids))
	for i, id := range ids {
		_, out[i] = r.records[id]
	}
	return out
}

// UserSourceRequests pages the user's burn-originated requests newest first.
// page and pageSize both zero returns everything; otherwise both must be
// positive. A page beyond the end yields an empty slice.
func (r *Registry) UserSourceRequests(user [20]byte, page, pageSize uint64) ([]RequestRecord, error) {
	return r.pageUserRequests(r.activeSource, user, page, pageSize)
}

// UserTargetRequests pages the user's mint-originated requests newest first.
func (r *Registry) UserTargetRequests(user [20]byte, page, pageSize uint64) ([]RequestRecord, error) {
	return r.pageUserRequests(r.activeTarget, user, page, pageSize)
}

func (r *Registry) pageUserRequests(list []RequestID, user [20]byte, page, pageSize uint64) ([]RequestRecord, error) {
	if (page == 0) != (pageSize == 0) {
		return nil, ErrInvalidPagination
	}
	// The active list is append-ordered, so walking it backwards yields
	// newest first. A linear scan is acceptable because active sizes are
	// bounded by periodic archival.
	matched := make([]RequestRecord, 0)
	for i := len(list) - 1; i >= 0; i-- {
		record := r.records[list[i]]
		if record.LocalUser == user {
			matched = append(matched, *record)
		}
	}
	if page == 0 {
		return matched, nil
	}
	total := uint64(len(matched))
	start := (page - 1) * pageSize
	if pageSize != 0 && start/pageSize != page-1 {
		// page * pageSize overflowed; the window is past any real total.
		return []RequestRecord{}, nil
	}
	if start >= total {
		return []RequestRecord{}, nil
	}
	end := min(start+pageSize, total)
	return matched[start:end], nil
}

// RequestByCount reconstructs the id of a locally numbered (burn-originated)
// request from its counter value and resolves it.
func (r *Registry) RequestByCount(count uint64) (RequestRecord, bool) {
	if count == 0 {
		return RequestRecord{}, false
	}
	return r.Get(ComposeRequestID(r.localChainID, ProtocolSalt, count))
}

// RequestsFromCount resolves up to limit locally numbered requests starting
// at the given counter value, skipping counts that are archived or past the
// issued range.
func (r *Registry) RequestsFromCount(start, limit uint64) []RequestRecord {
	out := make([]RequestRecord, 0, limit)
	for count := start; count <= r.counter && uint64(len(out)) < limit; count++ {
		if count == 0 {
			continue
		}
		if record, ok := r.RequestByCount(count); ok {
			out = append(out, record)
		}
	}
	return out
}

// ActiveSourceIDs returns a copy of the source active list.
func (r *Registry) ActiveSourceIDs() []RequestID {
	return append([]RequestID(nil), r.activeSource...)
}

// ActiveTargetIDs returns a copy of the target active list.
func (r *Registry) ActiveTargetIDs() []RequestID {
	return append([]RequestID(nil), r.activeTarget...)
}
