package crosschain

import (
	"github.com/holiman/uint256"
)

// ProtocolSalt namespaces locally minted request ids from other protocols
// sharing the same id space.
const ProtocolSalt uint64 = 0x7765757364 // "weusd"

// RequestID is a 256-bit request identifier in big-endian layout:
// (source chain id << 128) | (protocol salt << 64) | counter. The zero value
// is the "does not exist" sentinel and is never a legitimate id.
type RequestID [32]byte

// ComposeRequestID packs the id components. Because the salt is nonzero the
// result is never the zero sentinel.
func ComposeRequestID(sourceChainID, salt, count uint64) RequestID {
	id := new(uint256.Int).SetUint64(sourceChainID)
	id.Lsh(id, 128)
	mid := new(uint256.Int).SetUint64(salt)
	mid.Lsh(mid, 64)
	id.Or(id, mid)
	id.Or(id, new(uint256.Int).SetUint64(count))
	return RequestID(id.Bytes32())
}

// IsZero reports whether the id is the nonexistence sentinel.
func (id RequestID) IsZero() bool {
	return id == RequestID{}
}

// SourceChainID extracts the chain component (bits 128..255, of which the low
// 64 are meaningful here).
func (id RequestID) SourceChainID() uint64 {
	v := new(uint256.Int).SetBytes32(id[:])
	return v.Rsh(v, 128).Uint64()
}

// Salt extracts the protocol salt component (bits 64..127).
func (id RequestID) Salt() uint64 {
	v := new(uint256.Int).SetBytes32(id[:])
	v.Rsh(v, 64)
	return v.Uint64()
}

// Count extracts the monotonic counter component (bits 0..63).
func (id RequestID) Count() uint64 {
	v := new(uint256.Int).SetBytes32(id[:])
	return v.Uint64()
}

// Hex renders the id as a 0x-prefixed minimal hex string.
func (id RequestID) Hex() string {
	v := new(uint256.Int).SetBytes32(id[:])
	return v.Hex()
}

// ParseRequestID decodes a 0x-prefixed hex id.
func ParseRequestID(s string) (RequestID, error) {
	v, err := uint256.FromHex(s)
	if err != nil {
		return RequestID{}, ErrInvalidRequestID
	}
	return RequestID(v.Bytes32()), nil
}
