package service

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"time"

	"poolvault/config"
	"poolvault/internal/chain"
	"poolvault/internal/domain"
	"poolvault/internal/events"
	"poolvault/internal/keystore"
	"poolvault/internal/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// WithdrawalQueueStore is the processor's view of queue persistence.
type WithdrawalQueueStore interface {
	Dequeue() (*models.WithdrawalQueueItem, error)
	Requeue(item *models.WithdrawalQueueItem) error
	StampBroadcast(itemID uint, txHash string) error
	Settle(item *models.WithdrawalQueueItem, w *models.Withdrawal) error
}

// WithdrawalProcessor settles queued payout requests one at a time. Serial
// processing keeps nonce management on the shared processing wallet simple;
// throughput is bounded by on-chain confirmation latency, by design of the
// queue cadence.
type WithdrawalProcessor struct {
	gw       chain.Gateway
	nonces   *chain.NonceManager
	ks       *keystore.Keystore
	queue    WithdrawalQueueStore
	wallets  SharedWalletStore
	gas      GasFunder
	pub      events.Publisher
	cfg      config.WithdrawalConfig
	token    common.Address
	decimals int32

	now func() time.Time
}

func NewWithdrawalProcessor(
	gw chain.Gateway,
	nonces *chain.NonceManager,
	ks *keystore.Keystore,
	queue WithdrawalQueueStore,
	wallets SharedWalletStore,
	gas GasFunder,
	pub events.Publisher,
	cfg config.WithdrawalConfig,
	chainCfg config.ChainConfig,
) *WithdrawalProcessor {
	return &WithdrawalProcessor{
		gw:       gw,
		nonces:   nonces,
		ks:       ks,
		queue:    queue,
		wallets:  wallets,
		gas:      gas,
		pub:      pub,
		cfg:      cfg,
		token:    common.HexToAddress(chainCfg.TokenAddress),
		decimals: chainCfg.TokenDecimals,
		now:      time.Now,
	}
}

// ProcessNext claims the oldest queued item and attempts settlement. An item
// short on gas is deferred, not failed: funding is triggered at most once per
// cooldown window and the item goes back to the queue.
func (p *WithdrawalProcessor) ProcessNext(ctx context.Context) error {
	item, err := p.queue.Dequeue()
	if err != nil {
		return fmt.Errorf("dequeue: %w", err)
	}
	if item == nil {
		return nil
	}

	wallet, err := p.wallets.ByPurpose(domain.WalletPurposeTrading)
	if err != nil {
		p.requeue(item)
		return fmt.Errorf("resolve processing wallet: %w", err)
	}
	from := common.HexToAddress(wallet.Address)
	dest := common.HexToAddress(item.DestinationAddress)
	amountUnits := toTokenUnits(item.Amount, p.decimals)

	gasLimit, err := p.gw.EstimateTransferGas(ctx, p.token, from, dest, amountUnits)
	if err != nil {
		p.requeue(item)
		return fmt.Errorf("estimate gas: %w", err)
	}
	gasPrice, err := p.gw.GasPrice(ctx)
	if err != nil {
		p.requeue(item)
		return fmt.Errorf("gas price: %w", err)
	}
	required := new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(gasLimit))

	balance, err := p.gw.NativeBalance(ctx, from)
	if err != nil {
		p.requeue(item)
		return fmt.Errorf("native balance: %w", err)
	}
	if balance.Cmp(required) < 0 {
		return p.deferForGas(ctx, item, from, required)
	}

	key, err := p.ks.DecryptKey(wallet.EncryptedKey)
	if err != nil {
		p.requeue(item)
		return fmt.Errorf("processing wallet key: %w", err)
	}
	nonce, err := p.nonces.Reserve(ctx, from, 1)
	if err != nil {
		p.requeue(item)
		return fmt.Errorf("reserve nonce: %w", err)
	}
	h, err := p.gw.SendTokenTransfer(ctx, key, p.token, dest, amountUnits, nonce)
	if err != nil {
		p.nonces.Forget(from)
		p.requeue(item)
		return fmt.Errorf("broadcast withdrawal for item %d: %w", item.ID, err)
	}
	// Stamp the hash before deletion: a crash between broadcast and
	// settlement leaves a reconcilable item rather than a silent duplicate.
	if err := p.queue.StampBroadcast(item.ID, h.Hash.Hex()); err != nil {
		log.Printf("[withdrawal] item %d: stamp broadcast hash: %v", item.ID, err)
	}

	w := &models.Withdrawal{
		UserID:             item.UserID,
		OrderID:            fmt.Sprintf("wd-%s", uuid.New().String()),
		DestinationAddress: item.DestinationAddress,
		Amount:             item.Amount,
		Token:              item.Token,
		TxHash:             h.Hash.Hex(),
		Status:             domain.WithdrawalCompleted,
	}
	if err := p.queue.Settle(item, w); err != nil {
		// The transfer is on chain but the ledger is not settled. Operator
		// must reconcile by the stamped transaction hash.
		return fmt.Errorf("settle item %d after broadcast tx=%s: %w", item.ID, h.Hash.Hex(), err)
	}
	log.Printf("[withdrawal] item %d settled: %s %s -> %s tx=%s",
		item.ID, item.Amount, item.Token, item.DestinationAddress, h.Hash.Hex())
	if err := p.pub.Publish(events.TypeWithdrawalSettled, events.WithdrawalSettled{
		UserID:  item.UserID,
		OrderID: w.OrderID,
		Amount:  item.Amount,
		TxHash:  w.TxHash,
	}); err != nil {
		log.Printf("[withdrawal] publish event: %v", err)
	}
	return nil
}

// deferForGas handles an item whose wallet cannot pay for the transfer.
// Funding runs only when no attempt is in flight and the cooldown since the
// last attempt has elapsed; otherwise the item is simply re-queued untouched.
func (p *WithdrawalProcessor) deferForGas(ctx context.Context, item *models.WithdrawalQueueItem, addr common.Address, required *big.Int) error {
	now := p.now()
	cooldownOver := item.LastGasFundAttempt == nil || now.Sub(*item.LastGasFundAttempt) >= p.cfg.FundingCooldown
	if !item.GasFunded || cooldownOver {
		if err := p.gas.EnsureCushion(ctx, addr, required); err != nil {
			log.Printf("[withdrawal] item %d: gas funding: %v", item.ID, err)
		}
		item.GasFunded = true
		item.LastGasFundAttempt = &now
		item.Retries++
		log.Printf("[withdrawal] item %d deferred for gas funding (attempt %d)", item.ID, item.Retries)
	}
	return p.queue.Requeue(item)
}

func (p *WithdrawalProcessor) requeue(item *models.WithdrawalQueueItem) {
	if err := p.queue.Requeue(item); err != nil {
		log.Printf("[withdrawal] item %d: requeue: %v", item.ID, err)
	}
}
