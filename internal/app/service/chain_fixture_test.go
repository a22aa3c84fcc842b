package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"fund_tracer/internal/app/port"
	"fund_tracer/internal/domain/entity"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	testToken   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	testFactory = common.HexToAddress("0x00000000000000000000000000000000000000fa")
	testWrapped = common.HexToAddress("0x00000000000000000000000000000000000000bb")

	testNetwork = entity.NetworkDefinition{
		ChainID:                   56,
		Identifier:                "bsc",
		Name:                      "BNB Smart Chain",
		PrimaryRPCURL:             "http://fixture.invalid",
		AMMFactoryAddress:         testFactory.Hex(),
		WrappedNativeTokenAddress: testWrapped.Hex(),
		BlocksPerDay:              28800,
	}

	contractCode = []byte{0x60, 0x80, 0x60, 0x40}
)

func testAddr(n int64) common.Address {
	return common.BigToAddress(big.NewInt(0x1000 + n))
}

// tokens returns n whole tokens with 18 decimals.
func tokens(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

type fixtureTransfer struct {
	from   common.Address
	to     common.Address
	amount *big.Int
	block  uint64
	index  uint
}

// fixtureChain is a deterministic in-memory port.ChainReader.
type fixtureChain struct {
	mu sync.Mutex

	head      uint64
	headErr   error
	code      map[common.Address][]byte
	codeErr   map[common.Address]error
	pair      common.Address
	pairErr   error
	transfers []fixtureTransfer
	extraLogs []types.Log
	// logsErr, when set, can reject a query.
	logsErr func(q ethereum.FilterQuery) error
	// afterLogs runs after every FilterLogs call.
	afterLogs func()

	codeCalls  map[common.Address]int
	pairCalls  int
	logQueries []ethereum.FilterQuery
}

func newFixtureChain() *fixtureChain {
	return &fixtureChain{
		head:      1_000_000,
		code:      make(map[common.Address][]byte),
		codeErr:   make(map[common.Address]error),
		codeCalls: make(map[common.Address]int),
	}
}

func (c *fixtureChain) transfer(from, to common.Address, amount *big.Int, block uint64, index uint) {
	c.transfers = append(c.transfers, fixtureTransfer{from: from, to: to, amount: amount, block: block, index: index})
}

func (c *fixtureChain) CodeAt(_ context.Context, account common.Address, _ *big.Int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.codeCalls[account]++
	if err := c.codeErr[account]; err != nil {
		return nil, err
	}
	return c.code[account], nil
}

func (c *fixtureChain) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pairCalls++
	if c.pairErr != nil {
		return nil, c.pairErr
	}
	if msg.To == nil || *msg.To != testFactory {
		return nil, errors.New("call to unexpected contract")
	}
	return common.LeftPadBytes(c.pair.Bytes(), 32), nil
}

func (c *fixtureChain) FilterLogs(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	c.mu.Lock()
	c.logQueries = append(c.logQueries, q)
	after := c.afterLogs
	c.mu.Unlock()
	if after != nil {
		defer after()
	}

	if c.logsErr != nil {
		if err := c.logsErr(q); err != nil {
			return nil, err
		}
	}

	senders := make(map[common.Hash]struct{})
	if len(q.Topics) > 1 {
		for _, t := range q.Topics[1] {
			senders[t] = struct{}{}
		}
	}
	from, to := q.FromBlock.Uint64(), q.ToBlock.Uint64()

	var out []types.Log
	for _, tr := range c.transfers {
		if tr.block < from || tr.block > to {
			continue
		}
		fromTopic := common.BytesToHash(common.LeftPadBytes(tr.from.Bytes(), 32))
		if _, ok := senders[fromTopic]; !ok {
			continue
		}
		out = append(out, types.Log{
			Address:     testToken,
			Topics:      []common.Hash{transferTopic, fromTopic, common.BytesToHash(common.LeftPadBytes(tr.to.Bytes(), 32))},
			Data:        common.LeftPadBytes(tr.amount.Bytes(), 32),
			BlockNumber: tr.block,
			Index:       tr.index,
			TxHash:      crypto.Keccak256Hash([]byte(fmt.Sprintf("%d-%d", tr.block, tr.index))),
		})
	}
	for _, lg := range c.extraLogs {
		if lg.BlockNumber >= from && lg.BlockNumber <= to {
			out = append(out, lg)
		}
	}
	return out, nil
}

func (c *fixtureChain) BlockNumber(context.Context) (uint64, error) {
	return c.head, c.headErr
}

func (c *fixtureChain) queriedSenders() [][]common.Hash {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]common.Hash, 0, len(c.logQueries))
	for _, q := range c.logQueries {
		out = append(out, q.Topics[1])
	}
	return out
}

// fixtureProvider hands out the same fixtureChain for every network.
type fixtureProvider struct {
	chain port.ChainReader
	err   error
	calls int
}

func (p *fixtureProvider) GetClient(context.Context, entity.NetworkDefinition) (port.ChainReader, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.chain, nil
}
