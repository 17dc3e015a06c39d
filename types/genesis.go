package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cometbft/cometbft/crypto"
	cmtjson "github.com/cometbft/cometbft/libs/json"
	cmttypes "github.com/cometbft/cometbft/types"

	"github.com/calehh/rep-dao/governance"
)

type GenesisState map[string]json.RawMessage

type GenesisValidator struct {
	Address crypto.Address `json:"address"`
	PubKey  crypto.PubKey  `json:"pub_key"`
	Power   int64          `json:"power"`
	Name    string         `json:"name"`
}

// GenesisDoc defines the initial conditions for a CometBFT blockchain, in particular its validator set.
type GenesisDoc struct {
	GenesisTime     time.Time                 `json:"genesis_time"`
	ChainID         string                    `json:"chain_id"`
	InitialHeight   int64                     `json:"initial_height"`
	ConsensusParams *cmttypes.ConsensusParams `json:"consensus_params,omitempty"`
	Validators      []GenesisValidator        `json:"validators"`
	AppHash         []byte                    `json:"app_hash"`
	AppState        json.RawMessage           `json:"app_state"`
}

// SaveAs is a utility method for saving GenensisDoc as a JSON file.
func (genDoc *GenesisDoc) SaveAs(file string) error {
	genDocBytes, err := cmtjson.MarshalIndent(genDoc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(file, genDocBytes, 0o600)
}

func (ag *GenesisDoc) ValidateAndComplete() error {
	if ag.ChainID == "" {
		return errors.New("genesis doc must include non-empty chain_id")
	}

	if ag.InitialHeight < 0 {
		return fmt.Errorf("initial_height cannot be negative (got %v)", ag.InitialHeight)
	}

	if ag.InitialHeight == 0 {
		ag.InitialHeight = 1
	}

	if ag.GenesisTime.IsZero() {
		ag.GenesisTime = time.Now().Round(0).UTC()
	}

	return nil
}

func ExportGenesisFile(genesis *GenesisDoc, genFile string) error {
	if err := genesis.ValidateAndComplete(); err != nil {
		return err
	}
	return genesis.SaveAs(genFile)
}

const (
	FlagOverwrite = "overwrite"
	FlagChainID   = "chain-id"
	FlagHome      = "home"
	FlagAdmin     = "admin"
)

const DefaultPower = 1000

// GenesisAccount seeds the reputation ledger. Balance is a decimal string.
type GenesisAccount struct {
	PubKey  []byte `json:"pub_key"`
	Balance string `json:"balance"`
	Member  bool   `json:"member"`
}

// AppState is the application part of genesis.
type AppState struct {
	Params   governance.Params `json:"params"`
	Accounts []GenesisAccount  `json:"accounts"`
}

func (as *AppState) Validate() error {
	if err := as.Params.Validate(); err != nil {
		return err
	}
	seen := make(map[AccountHash]struct{}, len(as.Accounts))
	for i, a := range as.Accounts {
		if len(a.PubKey) == 0 {
			return fmt.Errorf("genesis account %d: empty pub_key", i)
		}
		addr := AccountFromPubKey(a.PubKey)
		if _, ok := seen[addr]; ok {
			return fmt.Errorf("genesis account %d: duplicate %v", i, addr)
		}
		seen[addr] = struct{}{}
		if a.Balance != "" {
			if _, err := ParseAmount(a.Balance); err != nil {
				return fmt.Errorf("genesis account %d: %w", i, err)
			}
		}
	}
	return nil
}
