package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"poolvault/config"
	"poolvault/internal/chain"
	"poolvault/internal/domain"
	"poolvault/internal/events"
	"poolvault/internal/models"
	"poolvault/internal/repository"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

const depositCursorName = "deposit_scan"

// WalletDirectory lists the custodial addresses the scanner watches.
type WalletDirectory interface {
	DepositWallets() ([]models.CustodialWallet, error)
}

// DepositStore persists a credited deposit as one atomic step.
type DepositStore interface {
	ExistsByTxHash(txHash string) (bool, error)
	Credit(rec *models.DepositRecord, entry *models.LedgerEntry, pos *models.Position) error
}

// CursorStore tracks the last fully processed block.
type CursorStore interface {
	Last(name string) (uint64, bool, error)
	Advance(name string, block uint64) error
}

// ScanRange is an explicit block range for administrative rescans. Overridden
// scans never advance the persisted cursor.
type ScanRange struct {
	From uint64
	To   uint64
}

// DepositScanner discovers inbound token transfers to custodial wallets and
// credits the ledger exactly once per transaction hash.
type DepositScanner struct {
	gw       chain.Gateway
	wallets  WalletDirectory
	deposits DepositStore
	cursors  CursorStore
	pub      events.Publisher
	cfg      config.DepositConfig
	token    common.Address
	decimals int32
}

func NewDepositScanner(
	gw chain.Gateway,
	wallets WalletDirectory,
	deposits DepositStore,
	cursors CursorStore,
	pub events.Publisher,
	cfg config.DepositConfig,
	chainCfg config.ChainConfig,
) *DepositScanner {
	return &DepositScanner{
		gw:       gw,
		wallets:  wallets,
		deposits: deposits,
		cursors:  cursors,
		pub:      pub,
		cfg:      cfg,
		token:    common.HexToAddress(chainCfg.TokenAddress),
		decimals: chainCfg.TokenDecimals,
	}
}

// Scan processes one block range. With a nil override the range starts at
// cursor+1 and ends at head minus the finality buffer; ranges larger than the
// max chunk are truncated so a backlog drains incrementally across ticks. The
// cursor advances only on non-overridden scans, and only past blocks whose
// transfers were all applied: a credit failure pins the cursor below the
// failing block so the next tick re-fetches it.
func (s *DepositScanner) Scan(ctx context.Context, override *ScanRange) error {
	var from, to uint64
	if override != nil {
		from, to = override.From, override.To
	} else {
		head, err := s.gw.HeadBlock(ctx)
		if err != nil {
			return fmt.Errorf("fetch head: %w", err)
		}
		if head <= s.cfg.FinalityBlocks {
			return nil
		}
		to = head - s.cfg.FinalityBlocks
		last, ok, err := s.cursors.Last(depositCursorName)
		if err != nil {
			return fmt.Errorf("read cursor: %w", err)
		}
		if !ok {
			// First run: start at the finality edge rather than replaying
			// the whole chain.
			from = to
		} else {
			from = last + 1
		}
	}
	if to < from {
		return nil
	}
	if s.cfg.MaxScanChunk > 0 && to-from+1 > s.cfg.MaxScanChunk {
		to = from + s.cfg.MaxScanChunk - 1
	}

	wallets, err := s.wallets.DepositWallets()
	if err != nil {
		return fmt.Errorf("list custodial wallets: %w", err)
	}
	if len(wallets) == 0 {
		return s.finish(override, to)
	}
	byAddr := make(map[common.Address]*models.CustodialWallet, len(wallets))
	addrs := make([]common.Address, 0, len(wallets))
	for i := range wallets {
		addr := common.HexToAddress(wallets[i].Address)
		byAddr[addr] = &wallets[i]
		addrs = append(addrs, addr)
	}

	transfers, err := s.gw.Transfers(ctx, s.token, addrs, from, to)
	if err != nil {
		return fmt.Errorf("fetch transfers [%d,%d]: %w", from, to, err)
	}
	credited := 0
	failed := 0
	var failedBlock uint64
	for _, tr := range transfers {
		wallet, ok := byAddr[tr.To]
		if !ok || wallet.UserID == nil {
			continue
		}
		applied, err := s.credit(tr, wallet)
		if err != nil {
			log.Printf("[deposit-scan] skip tx=%s block=%d: %v", tr.TxHash.Hex(), tr.BlockNumber, err)
			if failed == 0 || tr.BlockNumber < failedBlock {
				failedBlock = tr.BlockNumber
			}
			failed++
			continue
		}
		if applied {
			credited++
		}
	}
	if credited > 0 {
		log.Printf("[deposit-scan] range [%d,%d]: %d transfers, %d credited", from, to, len(transfers), credited)
	}
	if failed > 0 {
		if override != nil {
			return nil
		}
		// Pin the cursor below the oldest failed transfer so the next tick
		// re-fetches it. Credits already applied in the re-scanned tail are
		// deduplicated by hash.
		log.Printf("[deposit-scan] %d transfers failed, holding cursor below block %d", failed, failedBlock)
		if failedBlock == 0 {
			return nil
		}
		to = failedBlock - 1
	}
	return s.finish(override, to)
}

func (s *DepositScanner) finish(override *ScanRange, to uint64) error {
	if override != nil {
		return nil
	}
	return s.cursors.Advance(depositCursorName, to)
}

// credit applies one transfer. Returns false when the hash was already
// credited; a duplicate is a no-op, not an error.
func (s *DepositScanner) credit(tr chain.Transfer, wallet *models.CustodialWallet) (bool, error) {
	txHash := tr.TxHash.Hex()
	seen, err := s.deposits.ExistsByTxHash(txHash)
	if err != nil {
		return false, err
	}
	if seen {
		return false, nil
	}

	gross := decimal.NewFromBigInt(tr.Value, -s.decimals)
	fee := gross.Mul(s.cfg.FeePercent)
	net := gross.Sub(fee)

	vaultID := s.cfg.DefaultVaultID
	if wallet.VaultID != nil {
		vaultID = *wallet.VaultID
	}
	rec := &models.DepositRecord{
		UserID:       *wallet.UserID,
		TxHash:       txHash,
		TokenAddress: s.token.Hex(),
		Amount:       gross,
		BlockNumber:  tr.BlockNumber,
	}
	entry := &models.LedgerEntry{
		UserID:    *wallet.UserID,
		VaultID:   vaultID,
		EntryType: domain.EntryTypeDeposit,
		Amount:    net,
		FeeAmount: fee,
		Status:    domain.StatusPendingSweep,
		TxHash:    &txHash,
	}
	pos := &models.Position{
		UserID:  *wallet.UserID,
		VaultID: vaultID,
		Status:  domain.PositionActive,
	}
	if err := s.deposits.Credit(rec, entry, pos); err != nil {
		if errors.Is(err, repository.ErrDuplicateDeposit) {
			return false, nil
		}
		return false, err
	}
	if err := s.pub.Publish(events.TypeDepositCredited, events.DepositCredited{
		UserID:      *wallet.UserID,
		TxHash:      txHash,
		Amount:      net,
		Fee:         fee,
		BlockNumber: tr.BlockNumber,
	}); err != nil {
		log.Printf("[deposit-scan] publish event: %v", err)
	}
	return true, nil
}
