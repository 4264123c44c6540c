package service

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"time"

	"poolvault/config"
	"poolvault/internal/chain"
	"poolvault/internal/events"
	"poolvault/internal/keystore"
	"poolvault/internal/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// PositionStore is the sweep engine's view of position persistence.
type PositionStore interface {
	PendingSweeps() ([]models.Position, error)
	StampLeg1(positionID uint, txHash string) error
	MarkSwept(positionID uint, leg2TxHash string) error
	MarkSweepFailed(positionID uint, reason string) error
}

// UserWalletStore resolves a user's custodial wallet.
type UserWalletStore interface {
	ForUser(userID uint) (*models.CustodialWallet, error)
}

// GasFunder guarantees a wallet can pay for its next transfers.
type GasFunder interface {
	EnsureCushion(ctx context.Context, addr common.Address, required *big.Int) error
}

// SweepEngine consolidates deposited capital out of per-user custodial
// wallets: a larger leg to the shared trading wallet, a smaller leg to the
// operations wallet, in that fixed order.
type SweepEngine struct {
	gw            chain.Gateway
	nonces        *chain.NonceManager
	ks            *keystore.Keystore
	positions     PositionStore
	wallets       UserWalletStore
	gas           GasFunder
	pub           events.Publisher
	cfg           config.SweepConfig
	token         common.Address
	decimals      int32
	confirmations uint64
	gasLimit      uint64

	tradingAddr common.Address
	opsAddr     common.Address
}

func NewSweepEngine(
	gw chain.Gateway,
	nonces *chain.NonceManager,
	ks *keystore.Keystore,
	positions PositionStore,
	wallets UserWalletStore,
	gas GasFunder,
	pub events.Publisher,
	cfg config.SweepConfig,
	chainCfg config.ChainConfig,
	gasCfg config.GasConfig,
) *SweepEngine {
	return &SweepEngine{
		gw:            gw,
		nonces:        nonces,
		ks:            ks,
		positions:     positions,
		wallets:       wallets,
		gas:           gas,
		pub:           pub,
		cfg:           cfg,
		token:         common.HexToAddress(chainCfg.TokenAddress),
		decimals:      chainCfg.TokenDecimals,
		confirmations: chainCfg.Confirmations,
		gasLimit:      gasCfg.TransferGasLimit,
		tradingAddr:   common.HexToAddress(cfg.TradingAddress),
		opsAddr:       common.HexToAddress(cfg.OperationsAddress),
	}
}

// Run sweeps every pending position. Each position is isolated: a failure in
// one neither rolls back nor blocks its siblings, and a fixed delay between
// positions keeps the provider rate and cross-wallet nonce races in check.
func (e *SweepEngine) Run(ctx context.Context) error {
	positions, err := e.positions.PendingSweeps()
	if err != nil {
		return fmt.Errorf("list pending sweeps: %w", err)
	}
	for i := range positions {
		if i > 0 && e.cfg.InterPositionDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(e.cfg.InterPositionDelay):
			}
		}
		if err := e.sweepPosition(ctx, &positions[i]); err != nil {
			log.Printf("[sweep] position %d: %v", positions[i].ID, err)
		}
	}
	return nil
}

func (e *SweepEngine) sweepPosition(ctx context.Context, pos *models.Position) error {
	wallet, err := e.wallets.ForUser(pos.UserID)
	if err != nil {
		return fmt.Errorf("wallet for user %d: %w", pos.UserID, err)
	}
	addr := common.HexToAddress(wallet.Address)

	// The wallet must cover two transfer fees before anything is broadcast.
	// Funding failures are transient: the position stays ACTIVE and is
	// retried on the next run.
	gasPrice, err := e.gw.GasPrice(ctx)
	if err != nil {
		return fmt.Errorf("gas price: %w", err)
	}
	required := new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(e.gasLimit*2))
	if err := e.gas.EnsureCushion(ctx, addr, required); err != nil {
		return fmt.Errorf("gas funding: %w", err)
	}

	key, err := e.ks.DecryptKey(wallet.EncryptedKey)
	if err != nil {
		// Key failures are fatal for this position only; no secret material
		// in the log.
		e.fail(pos, "", fmt.Sprintf("key decryption failed for wallet %s", wallet.Address))
		return fmt.Errorf("decrypt wallet key: %w", err)
	}

	total := pos.Entry.Amount
	opsAmount := total.Mul(e.cfg.OpsShare)
	tradingAmount := total.Sub(opsAmount)
	tradingUnits := toTokenUnits(tradingAmount, e.decimals)
	opsUnits := toTokenUnits(opsAmount, e.decimals)

	// Both nonces are read once up front. A dropped leg 1 must never let
	// leg 2 reuse a stale nonce.
	nonce, err := e.nonces.Reserve(ctx, addr, 2)
	if err != nil {
		return fmt.Errorf("reserve nonces: %w", err)
	}

	// A rejected broadcast leaves nothing on chain, so the position stays
	// ACTIVE and is retried on the next run.
	leg1, err := e.gw.SendTokenTransfer(ctx, key, e.token, e.tradingAddr, tradingUnits, nonce)
	if err != nil {
		e.nonces.Forget(addr)
		return fmt.Errorf("leg 1 broadcast: %w", err)
	}
	if err := e.positions.StampLeg1(pos.ID, leg1.Hash.Hex()); err != nil {
		log.Printf("[sweep] position %d: stamp leg1 hash: %v", pos.ID, err)
	}
	if err := e.gw.WaitConfirmations(ctx, leg1, e.confirmations); err != nil {
		e.nonces.Forget(addr)
		e.fail(pos, leg1.Hash.Hex(), fmt.Sprintf("leg 1 confirmation failed: %v", err))
		return fmt.Errorf("leg 1 confirmation: %w", err)
	}

	// Leg 1 is on chain now. Any failure from here is operator territory:
	// an automatic retry would re-send the already-executed first leg.
	leg2, err := e.gw.SendTokenTransfer(ctx, key, e.token, e.opsAddr, opsUnits, nonce+1)
	if err != nil {
		e.nonces.Forget(addr)
		e.fail(pos, leg1.Hash.Hex(), fmt.Sprintf("leg 2 broadcast failed after leg 1 confirmed: %v", err))
		return fmt.Errorf("leg 2 broadcast: %w", err)
	}
	if err := e.gw.WaitConfirmations(ctx, leg2, e.confirmations); err != nil {
		e.nonces.Forget(addr)
		e.fail(pos, leg1.Hash.Hex(), fmt.Sprintf("leg 2 confirmation failed: %v", err))
		return fmt.Errorf("leg 2 confirmation: %w", err)
	}

	if err := e.positions.MarkSwept(pos.ID, leg2.Hash.Hex()); err != nil {
		return fmt.Errorf("mark swept: %w", err)
	}
	log.Printf("[sweep] position %d swept: leg1=%s leg2=%s", pos.ID, leg1.Hash.Hex(), leg2.Hash.Hex())
	if err := e.pub.Publish(events.TypeSweepCompleted, events.SweepCompleted{
		PositionID: pos.ID,
		EntryID:    pos.EntryID,
		UserID:     pos.UserID,
		Leg1TxHash: leg1.Hash.Hex(),
		Leg2TxHash: leg2.Hash.Hex(),
	}); err != nil {
		log.Printf("[sweep] publish event: %v", err)
	}
	return nil
}

// fail marks the position SWEEP_FAILED for operator attention. The ledger
// entry stays PENDING_SWEEP; resolution is manual.
func (e *SweepEngine) fail(pos *models.Position, leg1Hash, reason string) {
	if err := e.positions.MarkSweepFailed(pos.ID, reason); err != nil {
		log.Printf("[sweep] position %d: mark failed: %v", pos.ID, err)
	}
	if err := e.pub.Publish(events.TypeSweepFailed, events.SweepFailed{
		PositionID: pos.ID,
		EntryID:    pos.EntryID,
		UserID:     pos.UserID,
		Leg1TxHash: leg1Hash,
		Reason:     reason,
	}); err != nil {
		log.Printf("[sweep] publish event: %v", err)
	}
}

func toTokenUnits(amount decimal.Decimal, decimals int32) *big.Int {
	return amount.Shift(decimals).BigInt()
}
