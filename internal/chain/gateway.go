package chain

import (
	"context"
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Transfer is one token transfer observed on chain.
type Transfer struct {
	TxHash      common.Hash
	From        common.Address
	To          common.Address
	Value       *big.Int
	BlockNumber uint64
	LogIndex    uint
}

// TxHandle identifies a broadcast transaction.
type TxHandle struct {
	Hash  common.Hash
	Nonce uint64
}

// Gateway abstracts the chain provider. The settlement engine only consumes
// this contract; the production implementation is Client in this package.
type Gateway interface {
	// HeadBlock returns the latest chain height.
	HeadBlock(ctx context.Context) (uint64, error)
	// Transfers returns all transfers of token to any of the given addresses
	// in [fromBlock, toBlock], ordered by block number then log index.
	Transfers(ctx context.Context, token common.Address, to []common.Address, fromBlock, toBlock uint64) ([]Transfer, error)
	NativeBalance(ctx context.Context, addr common.Address) (*big.Int, error)
	TokenBalance(ctx context.Context, token, owner common.Address) (*big.Int, error)
	GasPrice(ctx context.Context) (*big.Int, error)
	EstimateTransferGas(ctx context.Context, token, from, to common.Address, amount *big.Int) (uint64, error)
	PendingNonce(ctx context.Context, addr common.Address) (uint64, error)
	// SendTokenTransfer signs and broadcasts an ERC-20 transfer with an
	// explicit nonce. The key is used for the single signing call only.
	SendTokenTransfer(ctx context.Context, key *ecdsa.PrivateKey, token, to common.Address, amount *big.Int, nonce uint64) (TxHandle, error)
	SendNativeTransfer(ctx context.Context, key *ecdsa.PrivateKey, to common.Address, amount *big.Int, nonce uint64) (TxHandle, error)
	// WaitConfirmations blocks until h has n confirmations, the transaction
	// reverts, or ctx is done.
	WaitConfirmations(ctx context.Context, h TxHandle, n uint64) error
}
