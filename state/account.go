package state

import (
	"encoding/json"
	"math/big"

	"github.com/cometbft/cometbft/crypto/ed25519"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"github.com/calehh/rep-dao/types"
)

// Account is a reputation ledger entry. Committed is the part of Balance
// staked in votes that have not been settled yet.
type Account struct {
	Address   types.AccountHash
	PubKey    []byte
	Balance   uint256.Int
	Committed uint256.Int
	Member    bool
	Nonce     uint64
}

type accountRLP struct {
	Address   types.AccountHash
	PubKey    []byte
	Balance   *big.Int
	Committed *big.Int
	Member    bool
	Nonce     uint64
}

type accountSt struct {
	Address   string         `json:"address"`
	PubKey    ed25519.PubKey `json:"pubKey"`
	Balance   string         `json:"balance"`
	Committed string         `json:"committed"`
	Member    bool           `json:"member"`
	Nonce     uint64         `json:"nonce"`
}

func NewAccount(pubKey []byte) *Account {
	a := &Account{Address: types.AccountFromPubKey(pubKey)}
	a.SetPubKey(pubKey)
	return a
}

func (a *Account) MarshalJSON() (dat []byte, err error) {
	o := accountSt{
		Address:   a.Address.Hex(),
		PubKey:    a.PubKey,
		Balance:   a.Balance.Dec(),
		Committed: a.Committed.Dec(),
		Member:    a.Member,
		Nonce:     a.Nonce,
	}
	return json.Marshal(o)
}

func (a *Account) UnmarshalJSON(dat []byte) (err error) {
	var o accountSt
	err = json.Unmarshal(dat, &o)
	if err != nil {
		return
	}
	if a.Address, err = types.ParseAccountHash(o.Address); err != nil {
		return
	}
	if a.Balance, err = types.ParseAmount(o.Balance); err != nil {
		return
	}
	if a.Committed, err = types.ParseAmount(o.Committed); err != nil {
		return
	}
	a.PubKey = o.PubKey
	a.Member = o.Member
	a.Nonce = o.Nonce
	return
}

func (a *Account) encode() ([]byte, error) {
	return rlp.EncodeToBytes(&accountRLP{
		Address:   a.Address,
		PubKey:    a.PubKey,
		Balance:   a.Balance.ToBig(),
		Committed: a.Committed.ToBig(),
		Member:    a.Member,
		Nonce:     a.Nonce,
	})
}

func decodeAccount(dat []byte) (a *Account, err error) {
	var o accountRLP
	if err = rlp.DecodeBytes(dat, &o); err != nil {
		return
	}
	a = &Account{
		Address: o.Address,
		PubKey:  o.PubKey,
		Member:  o.Member,
		Nonce:   o.Nonce,
	}
	if a.Balance, err = types.AmountFromBig(o.Balance); err != nil {
		return nil, err
	}
	if a.Committed, err = types.AmountFromBig(o.Committed); err != nil {
		return nil, err
	}
	return
}

func (a *Account) Clone() *Account {
	n := *a
	if a.PubKey != nil {
		n.PubKey = append([]byte(nil), a.PubKey...)
	}
	return &n
}

func (a *Account) SetPubKey(pkey []byte) {
	a.PubKey = make([]byte, len(pkey))
	copy(a.PubKey, pkey)
}

// Free is the part of the balance not committed to open votes.
func (a *Account) Free() uint256.Int {
	var free uint256.Int
	if a.Committed.Gt(&a.Balance) {
		return free
	}
	free.Sub(&a.Balance, &a.Committed)
	return free
}

func (a *Account) Verify(msg []byte, sigs [][]byte) (succ bool) {
	if len(sigs) != 1 || len(a.PubKey) != ed25519.PubKeySize {
		return false
	}
	pk := ed25519.PubKey(a.PubKey[:])
	return pk.VerifySignature(msg, sigs[0])
}
