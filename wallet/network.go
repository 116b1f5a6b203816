package wallet

import (
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/wippyai/citadel-abi/errors"
)

// Network selects the chain parameters of a wallet. Values cross the boundary.
type Network uint8

const (
	Mainnet Network = 0
	Testnet Network = 1
	Regtest Network = 2
	Signet  Network = 3
)

// ParseNetwork validates a network value received from a caller.
func ParseNetwork(v uint32) (Network, error) {
	if v > uint32(Signet) {
		return 0, errors.InvalidArgument(errors.PhaseDispatch, "unknown network %d", v)
	}
	return Network(v), nil
}

// NetworkByName resolves a configured network name.
func NetworkByName(name string) (Network, error) {
	switch name {
	case "mainnet", "bitcoin":
		return Mainnet, nil
	case "testnet", "testnet3":
		return Testnet, nil
	case "regtest":
		return Regtest, nil
	case "signet":
		return Signet, nil
	}
	return 0, errors.InvalidArgument(errors.PhaseConfig, "unknown network %q", name)
}

func (n Network) String() string {
	switch n {
	case Mainnet:
		return "mainnet"
	case Testnet:
		return "testnet"
	case Regtest:
		return "regtest"
	case Signet:
		return "signet"
	}
	return "unknown"
}

// Params returns the chain parameters for the network.
func (n Network) Params() *chaincfg.Params {
	switch n {
	case Testnet:
		return &chaincfg.TestNet3Params
	case Regtest:
		return &chaincfg.RegressionNetParams
	case Signet:
		return &chaincfg.SigNetParams
	}
	return &chaincfg.MainNetParams
}
