package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

const receiptPollInterval = 3 * time.Second

// ErrTxReverted is returned by WaitConfirmations when the transaction was
// mined but reverted.
var ErrTxReverted = errors.New("transaction reverted")

// Client is the ethclient-backed Gateway implementation.
type Client struct {
	eth     *ethclient.Client
	chainID *big.Int
	signer  types.Signer
}

func Dial(ctx context.Context, rpcURL string) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial chain RPC: %w", err)
	}
	chainID, err := eth.ChainID(ctx)
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("fetch chain id: %w", err)
	}
	return &Client{
		eth:     eth,
		chainID: chainID,
		signer:  types.LatestSignerForChainID(chainID),
	}, nil
}

func (c *Client) Close() {
	c.eth.Close()
}

func (c *Client) HeadBlock(ctx context.Context) (uint64, error) {
	hdr, err := c.eth.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("fetch head: %w", err)
	}
	return hdr.Number.Uint64(), nil
}

func (c *Client) Transfers(ctx context.Context, token common.Address, to []common.Address, fromBlock, toBlock uint64) ([]Transfer, error) {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{token},
		Topics:    [][]common.Hash{{TransferTopic}, nil, AddressesToTopics(to)},
	}
	logs, err := c.eth.FilterLogs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("filter transfer logs [%d,%d]: %w", fromBlock, toBlock, err)
	}
	sort.Slice(logs, func(i, j int) bool {
		if logs[i].BlockNumber != logs[j].BlockNumber {
			return logs[i].BlockNumber < logs[j].BlockNumber
		}
		return logs[i].Index < logs[j].Index
	})
	out := make([]Transfer, 0, len(logs))
	for _, vLog := range logs {
		if vLog.Removed {
			continue
		}
		tr, err := DecodeTransferLog(vLog)
		if err != nil {
			continue
		}
		out = append(out, tr)
	}
	return out, nil
}

func (c *Client) NativeBalance(ctx context.Context, addr common.Address) (*big.Int, error) {
	return c.eth.BalanceAt(ctx, addr, nil)
}

func (c *Client) TokenBalance(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	out, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &token, Data: BalanceOfCalldata(owner)}, nil)
	if err != nil {
		return nil, fmt.Errorf("token balanceOf(%s): %w", owner.Hex(), err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("token balanceOf returned empty result")
	}
	return new(big.Int).SetBytes(out), nil
}

func (c *Client) GasPrice(ctx context.Context) (*big.Int, error) {
	return c.eth.SuggestGasPrice(ctx)
}

func (c *Client) EstimateTransferGas(ctx context.Context, token, from, to common.Address, amount *big.Int) (uint64, error) {
	return c.eth.EstimateGas(ctx, ethereum.CallMsg{
		From: from,
		To:   &token,
		Data: TransferCalldata(to, amount),
	})
}

func (c *Client) PendingNonce(ctx context.Context, addr common.Address) (uint64, error) {
	return c.eth.PendingNonceAt(ctx, addr)
}

func (c *Client) SendTokenTransfer(ctx context.Context, key *ecdsa.PrivateKey, token, to common.Address, amount *big.Int, nonce uint64) (TxHandle, error) {
	from := crypto.PubkeyToAddress(key.PublicKey)
	data := TransferCalldata(to, amount)
	return c.send(ctx, key, nonce, token, big.NewInt(0), data, from)
}

func (c *Client) SendNativeTransfer(ctx context.Context, key *ecdsa.PrivateKey, to common.Address, amount *big.Int, nonce uint64) (TxHandle, error) {
	from := crypto.PubkeyToAddress(key.PublicKey)
	return c.send(ctx, key, nonce, to, amount, nil, from)
}

func (c *Client) send(ctx context.Context, key *ecdsa.PrivateKey, nonce uint64, to common.Address, value *big.Int, data []byte, from common.Address) (TxHandle, error) {
	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return TxHandle{}, fmt.Errorf("suggest gas price: %w", err)
	}
	gasLimit, err := c.eth.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Value: value, Data: data})
	if err != nil {
		return TxHandle{}, fmt.Errorf("estimate gas: %w", err)
	}
	tx := types.NewTransaction(nonce, to, value, gasLimit, gasPrice, data)
	signed, err := types.SignTx(tx, c.signer, key)
	if err != nil {
		return TxHandle{}, fmt.Errorf("sign tx: %w", err)
	}
	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		return TxHandle{}, fmt.Errorf("broadcast tx nonce=%d: %w", nonce, err)
	}
	return TxHandle{Hash: signed.Hash(), Nonce: nonce}, nil
}

func (c *Client) WaitConfirmations(ctx context.Context, h TxHandle, n uint64) error {
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()
	for {
		receipt, err := c.eth.TransactionReceipt(ctx, h.Hash)
		if err == nil && receipt != nil {
			if receipt.Status != types.ReceiptStatusSuccessful {
				return fmt.Errorf("%w: %s", ErrTxReverted, h.Hash.Hex())
			}
			head, err := c.HeadBlock(ctx)
			if err == nil && receipt.BlockNumber != nil {
				mined := receipt.BlockNumber.Uint64()
				if head >= mined && head-mined+1 >= n {
					return nil
				}
			}
		} else if err != nil && !errors.Is(err, ethereum.NotFound) {
			return fmt.Errorf("fetch receipt %s: %w", h.Hash.Hex(), err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
