package entity

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// TransferEvent is a decoded Transfer(address,address,uint256) log of the traced token.
type TransferEvent struct {
	From        common.Address
	To          common.Address
	RawAmount   *big.Int
	BlockNumber uint64
	TxHash      common.Hash
	LogIndex    uint
}

// TransferEdge is one reported transfer between two addresses at a given hop from the roots.
type TransferEdge struct {
	Depth            uint            `json:"depth"`
	From             common.Address  `json:"from"`
	To               common.Address  `json:"to"`
	Amount           decimal.Decimal `json:"amount"`
	Classification   Classification  `json:"classification"`
	Description      string          `json:"desc"`
	IsNewDestination bool            `json:"is_new"`
	TxHash           common.Hash     `json:"tx_hash"`
	BlockNumber      uint64          `json:"block_number"`
}

// NewTransferEdge builds an edge from a decoded event.
func NewTransferEdge(depth uint, ev TransferEvent, amount decimal.Decimal, cls Classification, isNew bool) TransferEdge {
	return TransferEdge{
		Depth:            depth,
		From:             ev.From,
		To:               ev.To,
		Amount:           amount,
		Classification:   cls,
		Description:      cls.Description(),
		IsNewDestination: isNew,
		TxHash:           ev.TxHash,
		BlockNumber:      ev.BlockNumber,
	}
}
