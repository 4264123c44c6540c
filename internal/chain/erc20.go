package chain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	// keccak256("Transfer(address,address,uint256)")
	TransferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

	erc20TransferSelector  = crypto.Keccak256([]byte("transfer(address,uint256)"))[:4]
	erc20BalanceOfSelector = crypto.Keccak256([]byte("balanceOf(address)"))[:4]
)

// TransferCalldata builds the calldata for transfer(to, amount).
func TransferCalldata(to common.Address, amount *big.Int) []byte {
	data := make([]byte, 0, 4+32+32)
	data = append(data, erc20TransferSelector...)
	data = append(data, common.LeftPadBytes(to.Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(amount.Bytes(), 32)...)
	return data
}

// BalanceOfCalldata builds the calldata for balanceOf(owner).
func BalanceOfCalldata(owner common.Address) []byte {
	data := make([]byte, 0, 4+32)
	data = append(data, erc20BalanceOfSelector...)
	data = append(data, common.LeftPadBytes(owner.Bytes(), 32)...)
	return data
}

// DecodeTransferLog decodes an ERC-20 Transfer event log.
//
// topics:
// 0: event sig
// 1: from (address indexed)
// 2: to (address indexed)
// data: value (uint256)
func DecodeTransferLog(vLog types.Log) (Transfer, error) {
	if len(vLog.Topics) < 3 {
		return Transfer{}, fmt.Errorf("unexpected topics len=%d", len(vLog.Topics))
	}
	if vLog.Topics[0] != TransferTopic {
		return Transfer{}, fmt.Errorf("not a Transfer log: topic0=%s", vLog.Topics[0].Hex())
	}
	if len(vLog.Data) < 32 {
		return Transfer{}, fmt.Errorf("unexpected data len=%d", len(vLog.Data))
	}
	return Transfer{
		TxHash:      vLog.TxHash,
		From:        common.BytesToAddress(vLog.Topics[1].Bytes()),
		To:          common.BytesToAddress(vLog.Topics[2].Bytes()),
		Value:       new(big.Int).SetBytes(vLog.Data[:32]),
		BlockNumber: vLog.BlockNumber,
		LogIndex:    vLog.Index,
	}, nil
}

// AddressesToTopics widens addresses to 32-byte topic hashes for log filters.
func AddressesToTopics(addrs []common.Address) []common.Hash {
	out := make([]common.Hash, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, common.BytesToHash(a.Bytes()))
	}
	return out
}
