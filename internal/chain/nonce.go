package chain

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// NonceSource reads the pending nonce for an address; satisfied by Gateway.
type NonceSource interface {
	PendingNonce(ctx context.Context, addr common.Address) (uint64, error)
}

// NonceManager hands out contiguous nonce runs per wallet. A multi-leg
// operation reserves all of its nonces once up front so a dropped first leg
// can never make a later leg reuse a stale nonce. After a failed broadcast the
// caller must Forget the wallet so the next reservation re-reads the pending
// nonce instead of trusting the in-memory sequence.
type NonceManager struct {
	src NonceSource

	mu   sync.Mutex
	next map[common.Address]uint64
}

func NewNonceManager(src NonceSource) *NonceManager {
	return &NonceManager{
		src:  src,
		next: make(map[common.Address]uint64),
	}
}

// Reserve returns the first nonce of a contiguous run of count nonces for
// addr. The first reservation for a wallet reads the pending nonce from the
// source; subsequent reservations continue the in-memory sequence.
func (m *NonceManager) Reserve(ctx context.Context, addr common.Address, count uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	start, ok := m.next[addr]
	if !ok {
		pending, err := m.src.PendingNonce(ctx, addr)
		if err != nil {
			return 0, err
		}
		start = pending
	}
	m.next[addr] = start + count
	return start, nil
}

// Forget drops the tracked sequence for addr. Call after any failed or
// abandoned broadcast for the wallet.
func (m *NonceManager) Forget(addr common.Address) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.next, addr)
}
