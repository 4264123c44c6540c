package service

import (
	"context"
	"fmt"
	"log"
	"math/big"

	"poolvault/config"
	"poolvault/internal/chain"
	"poolvault/internal/domain"
	"poolvault/internal/keystore"
	"poolvault/internal/models"

	"github.com/ethereum/go-ethereum/common"
)

// SharedWalletStore resolves the shared operational wallets.
type SharedWalletStore interface {
	ByPurpose(purpose string) (*models.CustodialWallet, error)
}

// GasManager keeps wallets funded with enough native currency to pay for
// their next transfers, topping up from the hot wallet when short.
type GasManager struct {
	gw            chain.Gateway
	nonces        *chain.NonceManager
	ks            *keystore.Keystore
	wallets       SharedWalletStore
	cfg           config.GasConfig
	confirmations uint64
	topUpBuffer   *big.Int
}

func NewGasManager(
	gw chain.Gateway,
	nonces *chain.NonceManager,
	ks *keystore.Keystore,
	wallets SharedWalletStore,
	cfg config.GasConfig,
	confirmations uint64,
) *GasManager {
	buffer, ok := new(big.Int).SetString(cfg.TopUpBufferWei, 10)
	if !ok {
		buffer = big.NewInt(0)
	}
	return &GasManager{
		gw:            gw,
		nonces:        nonces,
		ks:            ks,
		wallets:       wallets,
		cfg:           cfg,
		confirmations: confirmations,
		topUpBuffer:   buffer,
	}
}

// EnsureCushion checks that addr holds at least required wei of native
// currency and, if short, sends a top-up from the hot wallet and waits for it
// to confirm. Blocks until funding confirms or the configured timeout.
func (g *GasManager) EnsureCushion(ctx context.Context, addr common.Address, required *big.Int) error {
	balance, err := g.gw.NativeBalance(ctx, addr)
	if err != nil {
		return fmt.Errorf("read native balance of %s: %w", addr.Hex(), err)
	}
	if balance.Cmp(required) >= 0 {
		return nil
	}

	hot, err := g.wallets.ByPurpose(domain.WalletPurposeHot)
	if err != nil {
		return fmt.Errorf("resolve hot wallet: %w", err)
	}
	key, err := g.ks.DecryptKey(hot.EncryptedKey)
	if err != nil {
		return fmt.Errorf("hot wallet key: %w", err)
	}
	hotAddr := common.HexToAddress(hot.Address)

	topUp := new(big.Int).Sub(required, balance)
	topUp.Add(topUp, g.topUpBuffer)

	nonce, err := g.nonces.Reserve(ctx, hotAddr, 1)
	if err != nil {
		return fmt.Errorf("reserve hot wallet nonce: %w", err)
	}
	h, err := g.gw.SendNativeTransfer(ctx, key, addr, topUp, nonce)
	if err != nil {
		g.nonces.Forget(hotAddr)
		return fmt.Errorf("broadcast top-up to %s: %w", addr.Hex(), err)
	}
	log.Printf("[gas] top-up %s wei -> %s tx=%s", topUp, addr.Hex(), h.Hash.Hex())

	waitCtx, cancel := context.WithTimeout(ctx, g.cfg.ConfirmTimeout)
	defer cancel()
	if err := g.gw.WaitConfirmations(waitCtx, h, g.confirmations); err != nil {
		return fmt.Errorf("top-up confirmation tx=%s: %w", h.Hash.Hex(), err)
	}
	return nil
}
