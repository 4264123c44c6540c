package service

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"poolvault/config"
	"poolvault/internal/chain"
	"poolvault/internal/domain"
	"poolvault/internal/keystore"
	"poolvault/internal/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	tradingAddr = common.HexToAddress("0x1111111111111111111111111111111111111111")
	opsAddr     = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func testSweepConfig() config.SweepConfig {
	return config.SweepConfig{
		OpsShare:          decimal.RequireFromString("0.2"),
		TradingAddress:    tradingAddr.Hex(),
		OperationsAddress: opsAddr.Hex(),
	}
}

// encryptedTestKey seals a fresh secp256k1 key under ks and returns the blob.
func encryptedTestKey(t *testing.T, ks *keystore.Keystore) []byte {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	blob, err := ks.Encrypt(crypto.FromECDSA(key))
	require.NoError(t, err)
	return blob
}

func pendingPosition(amount string) models.Position {
	return models.Position{
		ID:      1,
		UserID:  7,
		VaultID: 1,
		EntryID: 11,
		Status:  domain.PositionActive,
		Entry: models.LedgerEntry{
			ID:        11,
			UserID:    7,
			VaultID:   1,
			EntryType: domain.EntryTypeDeposit,
			Amount:    decimal.RequireFromString(amount),
			Status:    domain.StatusPendingSweep,
		},
	}
}

func newEngineUnderTest(t *testing.T, gw *fakeGateway, positions *fakePositionStore, gas *fakeGasFunder, pub *fakePublisher) *SweepEngine {
	t.Helper()
	ks := keystore.New("sweep-test-secret")
	wallets := &fakeWalletDir{byUser: map[uint]*models.CustodialWallet{
		7: {
			Address:      common.HexToAddress("0xa1").Hex(),
			EncryptedKey: encryptedTestKey(t, ks),
			Purpose:      domain.WalletPurposeUser,
		},
	}}
	return NewSweepEngine(
		gw, chain.NewNonceManager(gw), ks,
		positions, wallets, gas, pub,
		testSweepConfig(), testChainConfig(),
		config.GasConfig{TransferGasLimit: 65000},
	)
}

func TestSweepSplitsLegsAndMarksSwept(t *testing.T) {
	gw := newFakeGateway()
	gw.pending[common.HexToAddress("0xa1")] = 5
	positions := newFakePositionStore(pendingPosition("80"))
	gas := &fakeGasFunder{}
	pub := &fakePublisher{}
	engine := newEngineUnderTest(t, gw, positions, gas, pub)

	require.NoError(t, engine.Run(context.Background()))

	require.Len(t, gw.tokenSends, 2)
	leg1, leg2 := gw.tokenSends[0], gw.tokenSends[1]
	require.Equal(t, tradingAddr, leg1.to)
	require.Equal(t, big.NewInt(64_000_000), leg1.amount, "80% of 80 tokens at 6 decimals")
	require.Equal(t, uint64(5), leg1.nonce)
	require.Equal(t, opsAddr, leg2.to)
	require.Equal(t, big.NewInt(16_000_000), leg2.amount)
	require.Equal(t, uint64(6), leg2.nonce, "both nonces come from one contiguous reservation")

	require.Equal(t, leg1.hash.Hex(), positions.leg1Stamps[1])
	require.Equal(t, leg2.hash.Hex(), positions.swept[1])
	require.Empty(t, positions.failed)
	require.Len(t, pub.byType("sweep_completed"), 1)
}

func TestSweepSizesGasCushionForBothLegs(t *testing.T) {
	gw := newFakeGateway()
	gw.gasPrice = big.NewInt(30)
	positions := newFakePositionStore(pendingPosition("10"))
	gas := &fakeGasFunder{}
	engine := newEngineUnderTest(t, gw, positions, gas, &fakePublisher{})

	require.NoError(t, engine.Run(context.Background()))

	require.Len(t, gas.calls, 1)
	require.Equal(t, big.NewInt(30*65000*2), gas.calls[0])
}

func TestSweepGasFundingFailureLeavesPositionActive(t *testing.T) {
	gw := newFakeGateway()
	positions := newFakePositionStore(pendingPosition("10"))
	gas := &fakeGasFunder{err: errors.New("hot wallet empty")}
	engine := newEngineUnderTest(t, gw, positions, gas, &fakePublisher{})

	// Run swallows per-position errors; the position must be retryable.
	require.NoError(t, engine.Run(context.Background()))

	require.Empty(t, gw.tokenSends)
	require.Empty(t, positions.failed, "funding failures are transient, not sweep failures")
	require.Empty(t, positions.swept)
}

func TestSweepLeg2FailureRetainsLeg1Hash(t *testing.T) {
	gw := newFakeGateway()
	gw.tokenSendErrs = []error{nil, errors.New("nonce too low")}
	positions := newFakePositionStore(pendingPosition("80"))
	pub := &fakePublisher{}
	engine := newEngineUnderTest(t, gw, positions, &fakeGasFunder{}, pub)

	require.NoError(t, engine.Run(context.Background()))

	require.Len(t, gw.tokenSends, 1, "only leg 1 was broadcast")
	leg1Hash := gw.tokenSends[0].hash.Hex()
	require.Equal(t, leg1Hash, positions.leg1Stamps[1])
	require.Contains(t, positions.failed[1], "leg 2 broadcast failed after leg 1 confirmed")
	require.Empty(t, positions.swept)

	failedEvents := pub.byType("sweep_failed")
	require.Len(t, failedEvents, 1)
}

func TestSweepLeg1RevertMarksFailed(t *testing.T) {
	gw := newFakeGateway()
	gw.confirmErrs[hashN(1)] = chain.ErrTxReverted
	positions := newFakePositionStore(pendingPosition("80"))
	engine := newEngineUnderTest(t, gw, positions, &fakeGasFunder{}, &fakePublisher{})

	require.NoError(t, engine.Run(context.Background()))

	require.Len(t, gw.tokenSends, 1)
	require.Contains(t, positions.failed[1], "leg 1 confirmation failed")
	require.Empty(t, positions.swept)
}

func TestSweepLeg1BroadcastFailureLeavesPositionActive(t *testing.T) {
	gw := newFakeGateway()
	gw.tokenSendErrs = []error{errors.New("provider hiccup")}
	positions := newFakePositionStore(pendingPosition("80"))
	pub := &fakePublisher{}
	engine := newEngineUnderTest(t, gw, positions, &fakeGasFunder{}, pub)

	require.NoError(t, engine.Run(context.Background()))

	// Nothing reached the chain, so the position stays retryable.
	require.Empty(t, gw.tokenSends)
	require.Empty(t, positions.leg1Stamps)
	require.Empty(t, positions.failed, "a rejected broadcast is transient, not a sweep failure")
	require.Empty(t, positions.swept)
	require.Empty(t, pub.byType("sweep_failed"))
}

func TestSweepIsolatesPositionFailures(t *testing.T) {
	gw := newFakeGateway()
	first := pendingPosition("80")
	second := pendingPosition("40")
	second.ID = 2
	second.EntryID = 12
	second.Entry.ID = 12
	// First position's leg 1 fails; the second position must still sweep.
	gw.tokenSendErrs = []error{errors.New("provider hiccup")}
	positions := newFakePositionStore(first, second)
	engine := newEngineUnderTest(t, gw, positions, &fakeGasFunder{}, &fakePublisher{})

	require.NoError(t, engine.Run(context.Background()))

	require.Empty(t, positions.failed, "first position stays retryable")
	require.Contains(t, positions.swept, uint(2))
}
