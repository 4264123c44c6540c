package service

import (
	"context"
	"crypto/ecdsa"
	"encoding/binary"
	"errors"
	"math/big"
	"sync"

	"poolvault/internal/chain"
	"poolvault/internal/models"

	"github.com/ethereum/go-ethereum/common"
)

// fakeGateway is an in-memory chain provider for service tests. Behavior is
// driven by plain fields; zero values mean "succeed with empty results".
type fakeGateway struct {
	mu sync.Mutex

	head         uint64
	headErr      error
	transfers    []chain.Transfer
	transfersErr error

	// scannedFrom/To record the range requested by the last Transfers call.
	scannedFrom uint64
	scannedTo   uint64

	balances    map[common.Address]*big.Int
	gasPrice    *big.Int
	estimateGas uint64
	pending     map[common.Address]uint64

	tokenSends     []fakeSend
	nativeSends    []fakeSend
	tokenSendCalls int
	tokenSendErrs  []error // per-call, indexed by call order; nil or short slice means success
	confirmErrs    map[common.Hash]error

	nextHash uint64
}

type fakeSend struct {
	to     common.Address
	amount *big.Int
	nonce  uint64
	hash   common.Hash
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		balances:    make(map[common.Address]*big.Int),
		gasPrice:    big.NewInt(1),
		estimateGas: 21000,
		pending:     make(map[common.Address]uint64),
		confirmErrs: make(map[common.Hash]error),
	}
}

func (g *fakeGateway) HeadBlock(context.Context) (uint64, error) {
	return g.head, g.headErr
}

func (g *fakeGateway) Transfers(_ context.Context, _ common.Address, _ []common.Address, fromBlock, toBlock uint64) ([]chain.Transfer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scannedFrom, g.scannedTo = fromBlock, toBlock
	return g.transfers, g.transfersErr
}

func (g *fakeGateway) NativeBalance(_ context.Context, addr common.Address) (*big.Int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if b, ok := g.balances[addr]; ok {
		return new(big.Int).Set(b), nil
	}
	return big.NewInt(0), nil
}

func (g *fakeGateway) TokenBalance(context.Context, common.Address, common.Address) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (g *fakeGateway) GasPrice(context.Context) (*big.Int, error) {
	return new(big.Int).Set(g.gasPrice), nil
}

func (g *fakeGateway) EstimateTransferGas(context.Context, common.Address, common.Address, common.Address, *big.Int) (uint64, error) {
	return g.estimateGas, nil
}

func (g *fakeGateway) PendingNonce(_ context.Context, addr common.Address) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending[addr], nil
}

func (g *fakeGateway) SendTokenTransfer(_ context.Context, _ *ecdsa.PrivateKey, _ common.Address, to common.Address, amount *big.Int, nonce uint64) (chain.TxHandle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	call := g.tokenSendCalls
	g.tokenSendCalls++
	if call < len(g.tokenSendErrs) && g.tokenSendErrs[call] != nil {
		return chain.TxHandle{}, g.tokenSendErrs[call]
	}
	h := g.hashFor()
	g.tokenSends = append(g.tokenSends, fakeSend{to: to, amount: new(big.Int).Set(amount), nonce: nonce, hash: h})
	return chain.TxHandle{Hash: h, Nonce: nonce}, nil
}

func (g *fakeGateway) SendNativeTransfer(_ context.Context, _ *ecdsa.PrivateKey, to common.Address, amount *big.Int, nonce uint64) (chain.TxHandle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	h := g.hashFor()
	g.nativeSends = append(g.nativeSends, fakeSend{to: to, amount: new(big.Int).Set(amount), nonce: nonce, hash: h})
	return chain.TxHandle{Hash: h, Nonce: nonce}, nil
}

func (g *fakeGateway) WaitConfirmations(_ context.Context, h chain.TxHandle, _ uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.confirmErrs[h.Hash]
}

func (g *fakeGateway) hashFor() common.Hash {
	g.nextHash++
	return hashN(g.nextHash)
}

// hashN is the deterministic hash of the n-th broadcast, for asserting
// against the gateway's generated hashes.
func hashN(n uint64) common.Hash {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], n)
	return common.BytesToHash(b[:])
}

var errWalletMissing = errors.New("wallet not found")

// fakeWalletDir serves wallet lookups for all three wallet interfaces.
type fakeWalletDir struct {
	deposit   []models.CustodialWallet
	byPurpose map[string]*models.CustodialWallet
	byUser    map[uint]*models.CustodialWallet
	err       error
}

func (f *fakeWalletDir) DepositWallets() ([]models.CustodialWallet, error) {
	return f.deposit, f.err
}

func (f *fakeWalletDir) ByPurpose(purpose string) (*models.CustodialWallet, error) {
	if f.err != nil {
		return nil, f.err
	}
	w, ok := f.byPurpose[purpose]
	if !ok {
		return nil, errWalletMissing
	}
	return w, nil
}

func (f *fakeWalletDir) ForUser(userID uint) (*models.CustodialWallet, error) {
	if f.err != nil {
		return nil, f.err
	}
	w, ok := f.byUser[userID]
	if !ok {
		return nil, errWalletMissing
	}
	return w, nil
}

type fakeDepositStore struct {
	seen    map[string]bool
	credits []depositCredit
	err     error
	errOnTx map[string]error // per-hash Credit failures, cleared by the test to simulate recovery
}

type depositCredit struct {
	rec   *models.DepositRecord
	entry *models.LedgerEntry
	pos   *models.Position
}

func newFakeDepositStore() *fakeDepositStore {
	return &fakeDepositStore{seen: make(map[string]bool)}
}

func (f *fakeDepositStore) ExistsByTxHash(txHash string) (bool, error) {
	return f.seen[txHash], nil
}

func (f *fakeDepositStore) Credit(rec *models.DepositRecord, entry *models.LedgerEntry, pos *models.Position) error {
	if f.err != nil {
		return f.err
	}
	if err := f.errOnTx[rec.TxHash]; err != nil {
		return err
	}
	f.seen[rec.TxHash] = true
	f.credits = append(f.credits, depositCredit{rec: rec, entry: entry, pos: pos})
	return nil
}

type fakeCursorStore struct {
	cursor uint64
	set    bool
}

func (f *fakeCursorStore) Last(string) (uint64, bool, error) {
	return f.cursor, f.set, nil
}

func (f *fakeCursorStore) Advance(_ string, block uint64) error {
	if !f.set || block > f.cursor {
		f.cursor = block
		f.set = true
	}
	return nil
}

type fakePositionStore struct {
	pending    []models.Position
	leg1Stamps map[uint]string
	swept      map[uint]string
	failed     map[uint]string
}

func newFakePositionStore(pending ...models.Position) *fakePositionStore {
	return &fakePositionStore{
		pending:    pending,
		leg1Stamps: make(map[uint]string),
		swept:      make(map[uint]string),
		failed:     make(map[uint]string),
	}
}

func (f *fakePositionStore) PendingSweeps() ([]models.Position, error) { return f.pending, nil }

func (f *fakePositionStore) StampLeg1(positionID uint, txHash string) error {
	f.leg1Stamps[positionID] = txHash
	return nil
}

func (f *fakePositionStore) MarkSwept(positionID uint, leg2TxHash string) error {
	f.swept[positionID] = leg2TxHash
	return nil
}

func (f *fakePositionStore) MarkSweepFailed(positionID uint, reason string) error {
	f.failed[positionID] = reason
	return nil
}

type fakeQueueStore struct {
	items     []*models.WithdrawalQueueItem
	requeued  []*models.WithdrawalQueueItem
	stamps    map[uint]string
	settled   []*models.Withdrawal
	settleErr error
}

func newFakeQueueStore(items ...*models.WithdrawalQueueItem) *fakeQueueStore {
	return &fakeQueueStore{items: items, stamps: make(map[uint]string)}
}

func (f *fakeQueueStore) Dequeue() (*models.WithdrawalQueueItem, error) {
	if len(f.items) == 0 {
		return nil, nil
	}
	item := f.items[0]
	f.items = f.items[1:]
	return item, nil
}

func (f *fakeQueueStore) Requeue(item *models.WithdrawalQueueItem) error {
	f.requeued = append(f.requeued, item)
	return nil
}

func (f *fakeQueueStore) StampBroadcast(itemID uint, txHash string) error {
	f.stamps[itemID] = txHash
	return nil
}

func (f *fakeQueueStore) Settle(_ *models.WithdrawalQueueItem, w *models.Withdrawal) error {
	if f.settleErr != nil {
		return f.settleErr
	}
	f.settled = append(f.settled, w)
	return nil
}

type fakeGasFunder struct {
	calls []*big.Int
	err   error
}

func (f *fakeGasFunder) EnsureCushion(_ context.Context, _ common.Address, required *big.Int) error {
	f.calls = append(f.calls, new(big.Int).Set(required))
	return f.err
}

type publishedEvent struct {
	eventType string
	payload   any
}

type fakePublisher struct {
	events []publishedEvent
}

func (f *fakePublisher) Publish(eventType string, event any) error {
	f.events = append(f.events, publishedEvent{eventType: eventType, payload: event})
	return nil
}

func (f *fakePublisher) byType(eventType string) []publishedEvent {
	var out []publishedEvent
	for _, e := range f.events {
		if e.eventType == eventType {
			out = append(out, e)
		}
	}
	return out
}
