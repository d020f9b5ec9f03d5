package runner

import (
	"encoding/json"
	"fmt"
	"os"

	"swapcore/internal/custody"
)

// GenesisAccount seeds one custody account before the stream is applied.
type GenesisAccount struct {
	Address   string `json:"address"`
	Asset     string `json:"asset"`
	Authority string `json:"authority"`
	Balance   uint64 `json:"balance"`
}

// Genesis is the initial custody state of a run.
type Genesis struct {
	Accounts []GenesisAccount `json:"accounts"`
}

// LoadGenesis reads a genesis file and applies it to the ledger.
func LoadGenesis(path string, ledger *custody.Ledger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read genesis: %w", err)
	}
	var gen Genesis
	if err := json.Unmarshal(data, &gen); err != nil {
		return fmt.Errorf("parse genesis: %w", err)
	}

	for i, acct := range gen.Accounts {
		addr, err := parseAddr(acct.Address)
		if err != nil {
			return fmt.Errorf("genesis account %d: %w", i, err)
		}
		asset, err := parseAsset(acct.Asset)
		if err != nil {
			return fmt.Errorf("genesis account %d: %w", i, err)
		}
		authority, err := parseAddr(acct.Authority)
		if err != nil {
			return fmt.Errorf("genesis account %d: %w", i, err)
		}
		if err := ledger.CreateAccount(addr, asset, authority); err != nil {
			return fmt.Errorf("genesis account %d: %w", i, err)
		}
		if acct.Balance > 0 {
			if err := ledger.Mint(addr, asset, acct.Balance); err != nil {
				return fmt.Errorf("genesis account %d: %w", i, err)
			}
		}
	}
	return nil
}
