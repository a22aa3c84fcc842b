package port

import "github.com/ethereum/go-ethereum/common"

// RootAddressProvider supplies seed addresses for a scan.
type RootAddressProvider interface {
	GetRootAddresses() ([]common.Address, error)
}
