package service

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"
)

// Minimal Uniswap-V2 factory ABI for getPair
const ammFactoryABI = `[{"constant":true,"inputs":[{"internalType":"address","name":"","type":"address"},{"internalType":"address","name":"","type":"address"}],"name":"getPair","outputs":[{"internalType":"address","name":"","type":"address"}],"payable":false,"stateMutability":"view","type":"function"}]`

// transferTopic is keccak256("Transfer(address,address,uint256)").
var transferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

var (
	parsedFactoryABI  abi.ABI
	parsedFactoryOnce sync.Once
)

func factoryABI() abi.ABI {
	parsedFactoryOnce.Do(func() {
		var err error
		parsedFactoryABI, err = abi.JSON(strings.NewReader(ammFactoryABI))
		if err != nil {
			panic(fmt.Sprintf("failed to parse AMM factory ABI: %v", err))
		}
		if _, ok := parsedFactoryABI.Methods["getPair"]; !ok {
			panic("getPair method not found in parsed AMM factory ABI")
		}
	})
	return parsedFactoryABI
}
