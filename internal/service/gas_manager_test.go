package service

import (
	"context"
	"math/big"
	"testing"
	"time"

	"poolvault/config"
	"poolvault/internal/chain"
	"poolvault/internal/domain"
	"poolvault/internal/keystore"
	"poolvault/internal/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	hotAddr    = common.HexToAddress("0x4444444444444444444444444444444444444444")
	cushionFor = common.HexToAddress("0x5555555555555555555555555555555555555555")
)

func newGasManagerUnderTest(t *testing.T, gw *fakeGateway) *GasManager {
	t.Helper()
	ks := keystore.New("gas-test-secret")
	wallets := &fakeWalletDir{byPurpose: map[string]*models.CustodialWallet{
		domain.WalletPurposeHot: {
			Address:      hotAddr.Hex(),
			EncryptedKey: encryptedTestKey(t, ks),
			Purpose:      domain.WalletPurposeHot,
		},
	}}
	return NewGasManager(
		gw, chain.NewNonceManager(gw), ks, wallets,
		config.GasConfig{
			TransferGasLimit: 65000,
			TopUpBufferWei:   "1000",
			ConfirmTimeout:   time.Second,
		},
		1,
	)
}

func TestEnsureCushionAlreadyFunded(t *testing.T) {
	gw := newFakeGateway()
	gw.balances[cushionFor] = big.NewInt(50_000)
	g := newGasManagerUnderTest(t, gw)

	require.NoError(t, g.EnsureCushion(context.Background(), cushionFor, big.NewInt(40_000)))
	require.Empty(t, gw.nativeSends)
}

func TestEnsureCushionTopsUpShortfallPlusBuffer(t *testing.T) {
	gw := newFakeGateway()
	gw.balances[cushionFor] = big.NewInt(10_000)
	gw.pending[hotAddr] = 3
	g := newGasManagerUnderTest(t, gw)

	require.NoError(t, g.EnsureCushion(context.Background(), cushionFor, big.NewInt(40_000)))

	require.Len(t, gw.nativeSends, 1)
	send := gw.nativeSends[0]
	require.Equal(t, cushionFor, send.to)
	require.Equal(t, big.NewInt(31_000), send.amount, "shortfall of 30000 plus the 1000 buffer")
	require.Equal(t, uint64(3), send.nonce)
}

func TestEnsureCushionRevertedTopUpFails(t *testing.T) {
	gw := newFakeGateway()
	gw.confirmErrs[hashN(1)] = chain.ErrTxReverted
	g := newGasManagerUnderTest(t, gw)

	err := g.EnsureCushion(context.Background(), cushionFor, big.NewInt(40_000))
	require.ErrorIs(t, err, chain.ErrTxReverted)
}
