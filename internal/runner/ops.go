package runner

import (
	"encoding/hex"
	"fmt"

	"swapcore/internal/engine"
	"swapcore/internal/model"
	"swapcore/internal/wire"
)

// Op is one line of the operation stream: the encoded instruction plus
// the addresses it operates on.
type Op struct {
	Seq      uint64   `json:"seq"`
	Data     string   `json:"data"`
	Accounts Accounts `json:"accounts"`
}

// Accounts is the JSON form of an operation's account set. Addresses
// and asset identifiers are hex strings; fields an instruction does not
// use stay empty.
type Accounts struct {
	AssetA string `json:"asset_a,omitempty"`
	AssetB string `json:"asset_b,omitempty"`

	Authority    string `json:"authority,omitempty"`
	AccountA     string `json:"account_a,omitempty"`
	AccountB     string `json:"account_b,omitempty"`
	ShareAccount string `json:"share_account,omitempty"`

	Pool      string `json:"pool,omitempty"`
	VaultA    string `json:"vault_a,omitempty"`
	VaultB    string `json:"vault_b,omitempty"`
	ShareMint string `json:"share_mint,omitempty"`

	InputAccount string        `json:"input_account,omitempty"`
	Hops         []HopAccounts `json:"hops,omitempty"`

	Treasury         string `json:"treasury,omitempty"`
	TreasuryAccountA string `json:"treasury_account_a,omitempty"`
	TreasuryAccountB string `json:"treasury_account_b,omitempty"`
}

// HopAccounts names one routed pool in the JSON form.
type HopAccounts struct {
	AssetA    string `json:"asset_a"`
	AssetB    string `json:"asset_b"`
	Pool      string `json:"pool"`
	VaultA    string `json:"vault_a"`
	VaultB    string `json:"vault_b"`
	ShareMint string `json:"share_mint"`
	Output    string `json:"output"`
}

// Instruction decodes the hex-encoded instruction payload.
func (op Op) Instruction() (wire.Instruction, error) {
	data, err := hex.DecodeString(op.Data)
	if err != nil {
		return nil, fmt.Errorf("op %d: decode data: %w", op.Seq, err)
	}
	instr, err := wire.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("op %d: %w", op.Seq, err)
	}
	return instr, nil
}

// Meta parses the account set into the engine's form.
func (a Accounts) Meta() (engine.AccountMeta, error) {
	var (
		meta engine.AccountMeta
		err  error
	)
	if meta.AssetA, err = parseAsset(a.AssetA); err != nil {
		return meta, err
	}
	if meta.AssetB, err = parseAsset(a.AssetB); err != nil {
		return meta, err
	}

	fields := []struct {
		value string
		dst   *model.Address
	}{
		{a.Authority, &meta.Caller.Authority},
		{a.AccountA, &meta.Caller.AccountA},
		{a.AccountB, &meta.Caller.AccountB},
		{a.ShareAccount, &meta.Caller.ShareAccount},
		{a.Pool, &meta.Pool.Pool},
		{a.VaultA, &meta.Pool.VaultA},
		{a.VaultB, &meta.Pool.VaultB},
		{a.ShareMint, &meta.Pool.ShareMint},
		{a.InputAccount, &meta.Route.InputAccount},
		{a.Treasury, &meta.Treasury},
		{a.TreasuryAccountA, &meta.TreasuryAccountA},
		{a.TreasuryAccountB, &meta.TreasuryAccountB},
	}
	for _, f := range fields {
		if *f.dst, err = parseAddr(f.value); err != nil {
			return meta, err
		}
	}
	meta.Route.Authority = meta.Caller.Authority
	meta.Authority = meta.Caller.Authority

	for _, h := range a.Hops {
		hop := engine.Hop{}
		if hop.AssetA, err = parseAsset(h.AssetA); err != nil {
			return meta, err
		}
		if hop.AssetB, err = parseAsset(h.AssetB); err != nil {
			return meta, err
		}
		hopFields := []struct {
			value string
			dst   *model.Address
		}{
			{h.Pool, &hop.Accounts.Pool},
			{h.VaultA, &hop.Accounts.VaultA},
			{h.VaultB, &hop.Accounts.VaultB},
			{h.ShareMint, &hop.Accounts.ShareMint},
			{h.Output, &hop.Output},
		}
		for _, f := range hopFields {
			if *f.dst, err = parseAddr(f.value); err != nil {
				return meta, err
			}
		}
		meta.Hops = append(meta.Hops, hop)
	}
	return meta, nil
}

func parseAddr(s string) (model.Address, error) {
	if s == "" {
		return model.Address{}, nil
	}
	return model.ParseAddress(s)
}

func parseAsset(s string) (model.AssetID, error) {
	if s == "" {
		return model.AssetID{}, nil
	}
	if s == "native" {
		return model.NativeAssetID, nil
	}
	return model.ParseAssetID(s)
}
