package state

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/calehh/rep-dao/types"
)

var (
	ErrNotAdmin              = errors.New("caller is not admin")
	ErrNotMember             = errors.New("account is not a member")
	ErrNotVotingEngine       = errors.New("caller is not the voting engine")
	ErrInsufficientBalance   = errors.New("insufficient reputation balance")
	ErrInsufficientCommitted = errors.New("insufficient committed reputation")
	ErrBalanceOverflow       = errors.New("reputation balance overflow")
	ErrReputationStillLocked = errors.New("reputation is committed to open votes")
)

func (s *State) GetAccount(addr types.AccountHash) (a *Account, err error) {
	if a, ok := s.acnts[addr]; ok {
		return a, nil
	}
	val, err := s.db.Get([]byte(fmt.Sprintf(KeyAccountBody, addr[:])))
	if err != nil || val == nil {
		return nil, err
	}
	a, err = decodeAccount(val)
	if err != nil {
		return nil, err
	}
	s.acnts[addr] = a
	return
}

func (s *State) putAccount(a *Account) {
	s.acnts[a.Address] = a
	s.modifiedAcnts[a.Address] = struct{}{}
}

// AddAccount registers a key without reputation or membership.
func (s *State) AddAccount(pubKey []byte) (a *Account, err error) {
	a = NewAccount(pubKey)
	exist, err := s.GetAccount(a.Address)
	if err != nil {
		return nil, err
	}
	if exist != nil {
		return nil, ErrAccountAlreadyExists
	}
	s.putAccount(a)
	return
}

// SetAccount stores a as is. It is used by genesis.
func (s *State) SetAccount(a *Account) {
	s.putAccount(a.Clone())
}

// account returns the stored account or an empty one for addr. The escrow
// account is created on first use this way.
func (s *State) account(addr types.AccountHash) (*Account, error) {
	a, err := s.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	if a == nil {
		a = &Account{Address: addr}
	}
	return a, nil
}

func (s *State) IsMember(addr types.AccountHash) bool {
	a, err := s.GetAccount(addr)
	if err != nil || a == nil {
		return false
	}
	return a.Member
}

func (s *State) BalanceOf(addr types.AccountHash) (b uint256.Int) {
	a, err := s.GetAccount(addr)
	if err != nil || a == nil {
		return
	}
	return a.Balance
}

func (s *State) CommittedOf(addr types.AccountHash) (c uint256.Int) {
	a, err := s.GetAccount(addr)
	if err != nil || a == nil {
		return
	}
	return a.Committed
}

func (s *State) isAdmin(caller types.AccountHash) bool {
	return s.params.IsAdmin(caller)
}

// Transfer moves free reputation from one account to another.
func (s *State) Transfer(from, to types.AccountHash, amount uint256.Int) error {
	src, err := s.account(from)
	if err != nil {
		return err
	}
	free := src.Free()
	if free.Lt(&amount) {
		return ErrInsufficientBalance
	}
	dst, err := s.account(to)
	if err != nil {
		return err
	}
	if from == to {
		return nil
	}
	if _, overflow := new(uint256.Int).AddOverflow(&dst.Balance, &amount); overflow {
		return ErrBalanceOverflow
	}
	src.Balance.Sub(&src.Balance, &amount)
	dst.Balance.Add(&dst.Balance, &amount)
	s.putAccount(src)
	s.putAccount(dst)
	return nil
}

// TransferFrom is the engine-only transfer used when settling votes.
func (s *State) TransferFrom(spender, from, to types.AccountHash, amount uint256.Int) error {
	if spender != s.params.VotingEngineAddress {
		return ErrNotVotingEngine
	}
	return s.Transfer(from, to, amount)
}

func (s *State) Lock(addr types.AccountHash, amount uint256.Int) error {
	a, err := s.account(addr)
	if err != nil {
		return err
	}
	free := a.Free()
	if free.Lt(&amount) {
		return ErrInsufficientBalance
	}
	a.Committed.Add(&a.Committed, &amount)
	s.putAccount(a)
	return nil
}

func (s *State) Unlock(addr types.AccountHash, amount uint256.Int) error {
	a, err := s.account(addr)
	if err != nil {
		return err
	}
	if a.Committed.Lt(&amount) {
		return ErrInsufficientCommitted
	}
	a.Committed.Sub(&a.Committed, &amount)
	s.putAccount(a)
	return nil
}

// Mint creates reputation. Admins and the voting engine may mint.
func (s *State) Mint(caller, to types.AccountHash, amount uint256.Int) error {
	if !s.isAdmin(caller) && caller != s.params.VotingEngineAddress {
		return ErrNotAdmin
	}
	a, err := s.account(to)
	if err != nil {
		return err
	}
	if _, overflow := new(uint256.Int).AddOverflow(&a.Balance, &amount); overflow {
		return ErrBalanceOverflow
	}
	a.Balance.Add(&a.Balance, &amount)
	s.putAccount(a)
	return nil
}

func (s *State) Burn(caller, from types.AccountHash, amount uint256.Int) error {
	if !s.isAdmin(caller) {
		return ErrNotAdmin
	}
	a, err := s.account(from)
	if err != nil {
		return err
	}
	free := a.Free()
	if free.Lt(&amount) {
		return ErrInsufficientBalance
	}
	a.Balance.Sub(&a.Balance, &amount)
	s.putAccount(a)
	return nil
}

func (s *State) AddMember(caller, addr types.AccountHash) error {
	if !s.isAdmin(caller) {
		return ErrNotAdmin
	}
	a, err := s.GetAccount(addr)
	if err != nil {
		return err
	}
	if a == nil {
		return ErrAccountNoexists
	}
	a.Member = true
	s.putAccount(a)
	return nil
}

func (s *State) RemoveMember(caller, addr types.AccountHash) error {
	if !s.isAdmin(caller) {
		return ErrNotAdmin
	}
	a, err := s.GetAccount(addr)
	if err != nil {
		return err
	}
	if a == nil || !a.Member {
		return ErrNotMember
	}
	if !a.Committed.IsZero() {
		return ErrReputationStillLocked
	}
	a.Member = false
	s.putAccount(a)
	return nil
}
