package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/calehh/rep-dao/governance"
	"github.com/calehh/rep-dao/project"
	"github.com/calehh/rep-dao/proposal"
	"github.com/calehh/rep-dao/tx"
	"github.com/calehh/rep-dao/types"
	"github.com/calehh/rep-dao/voting"
)

var (
	ErrNotFound = errors.New("not found")
)

var (
	KeyState          = "s"
	KeyParams         = "params"
	KeyAccountBody    = "a%x"
	KeyProposalBody   = "p%v"
	KeyGovernanceBody = "g%v"
	KeyVoteBody       = "v%v"
	KeyVoteLink       = "vl%v"
	KeyProjectBody    = "j%v"
)

var (
	ErrTxSenderNoexists     = errors.New("sender noexists")
	ErrTxNonceInvalid       = errors.New("nonce invalid")
	ErrTxSigInvalid         = errors.New("signature invalid")
	ErrAccountAlreadyExists = errors.New("account already exists")
	ErrAccountNoexists      = errors.New("account noexists")
	ErrProposalNoexists     = errors.New("proposal noexists")
	ErrGovernanceNoexists   = errors.New("governance proposal noexists")
	ErrVoteNoexists         = errors.New("vote noexists")
	ErrProjectNoexists      = errors.New("project noexists")
)

// StateHeader carries chain position and the next free entity indexes.
type StateHeader struct {
	Height        uint64
	ChainId       string
	Time          uint64
	Hash          []byte
	RootHash      []byte
	ProposalIdx   uint64
	GovernanceIdx uint64
	VoteIdx       uint64
	ProjectIdx    uint64
}

func (h *StateHeader) Clone() *StateHeader {
	n := *h
	n.Hash = common.CopyBytes(h.Hash)
	n.RootHash = common.CopyBytes(h.RootHash)
	return &n
}

func (h *StateHeader) GetHash() []byte {
	if h == nil {
		return nil
	}
	return h.Hash
}

// VoteLink records what a voting session decides on.
type VoteLink struct {
	Kind   proposal.ProposalType `json:"kind"`
	Target uint64                `json:"target"`
}

type State struct {
	logger cmtlog.Logger
	db     *iavl.MutableTree
	dbVer  int64

	header         *StateHeader
	params         governance.Params
	modifiedParams bool

	acnts         map[types.AccountHash]*Account
	modifiedAcnts map[types.AccountHash]struct{}
	blobs         map[string][]byte
}

func newState(db *iavl.MutableTree, logger cmtlog.Logger) *State {
	return &State{
		logger:        logger,
		db:            db,
		header:        new(StateHeader),
		params:        governance.DefaultParams(),
		acnts:         make(map[types.AccountHash]*Account),
		modifiedAcnts: make(map[types.AccountHash]struct{}),
		blobs:         make(map[string][]byte),
	}
}

func (s *State) nextState() *State {
	n := &State{
		logger:        s.logger,
		db:            s.db,
		dbVer:         s.dbVer,
		header:        s.header.Clone(),
		params:        s.params,
		acnts:         make(map[types.AccountHash]*Account),
		modifiedAcnts: make(map[types.AccountHash]struct{}),
		blobs:         make(map[string][]byte),
	}
	if s.header.GetHash() != nil {
		n.header.Height = s.header.Height + 1
	}
	return n
}

// Clone returns an independent copy of the pending changes. Transactions run
// on a clone and the clone replaces the original only when they succeed.
func (s *State) Clone() *State {
	n := &State{
		logger:         s.logger,
		db:             s.db,
		dbVer:          s.dbVer,
		header:         s.header.Clone(),
		params:         s.params,
		modifiedParams: s.modifiedParams,
		acnts:          make(map[types.AccountHash]*Account, len(s.acnts)),
		modifiedAcnts:  make(map[types.AccountHash]struct{}, len(s.modifiedAcnts)),
		blobs:          make(map[string][]byte, len(s.blobs)),
	}
	for k, v := range s.acnts {
		n.acnts[k] = v.Clone()
	}
	for k := range s.modifiedAcnts {
		n.modifiedAcnts[k] = struct{}{}
	}
	for k, v := range s.blobs {
		n.blobs[k] = v
	}
	return n
}

func (s *State) get(key string) ([]byte, error) {
	if v, ok := s.blobs[key]; ok {
		return v, nil
	}
	val, err := s.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return val, nil
}

func (s *State) set(key string, val []byte) {
	s.blobs[key] = val
}

func (s *State) load() (err error) {
	val, err := s.get(KeyParams)
	if err != nil {
		return
	}
	if val != nil {
		if err = json.Unmarshal(val, &s.params); err != nil {
			return
		}
	}
	val, err = s.get(KeyState)
	if err != nil || val == nil {
		return
	}
	if err = rlp.DecodeBytes(val, s.header); err != nil {
		return
	}
	h := s.db.Hash()
	if h != nil {
		s.calcHash(h, true)
	}
	return
}

func (s *State) calcHash(rootHash []byte, update bool) (h common.Hash) {
	h = crypto.Keccak256Hash(rootHash)
	if update {
		s.header.RootHash = common.CopyBytes(rootHash)
		s.header.Hash = common.CopyBytes(h[:])
	}
	return
}

// Update writes pending changes to the working tree in key order and returns
// the resulting app hash.
func (s *State) Update() (h common.Hash, err error) {
	var hash []byte
	defer func() {
		if hash == nil {
			s.db.Rollback()
		}
	}()
	val, err := rlp.EncodeToBytes(s.header)
	if err != nil {
		return
	}
	if _, err = s.db.Set([]byte(KeyState), val); err != nil {
		return
	}
	if s.modifiedParams {
		val, err = json.Marshal(s.params)
		if err != nil {
			return
		}
		if _, err = s.db.Set([]byte(KeyParams), val); err != nil {
			return
		}
	}

	addrs := make([]types.AccountHash, 0, len(s.modifiedAcnts))
	for addr := range s.modifiedAcnts {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return addrs[i].Cmp(addrs[j]) < 0
	})
	for _, addr := range addrs {
		val, err = s.acnts[addr].encode()
		if err != nil {
			return
		}
		if _, err = s.db.Set([]byte(fmt.Sprintf(KeyAccountBody, addr[:])), val); err != nil {
			return
		}
	}

	keys := make([]string, 0, len(s.blobs))
	for k := range s.blobs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err = s.db.Set([]byte(k), s.blobs[k]); err != nil {
			return
		}
	}

	hash = s.db.WorkingHash()
	h = s.calcHash(hash, false)
	s.modifiedAcnts = make(map[types.AccountHash]struct{})
	s.blobs = make(map[string][]byte)
	s.modifiedParams = false
	return
}

func (s *State) save() (h common.Hash, err error) {
	hash, ver, err := s.db.SaveVersion()
	if err != nil {
		return h, err
	}
	s.dbVer = ver
	h = s.calcHash(hash, true)
	return
}

func (s *State) Header() *StateHeader {
	return s.header
}

func (s *State) Hash() (h common.Hash) {
	if s.header.Hash != nil {
		copy(h[:], s.header.Hash)
	}
	return
}

func (s *State) SetChainId(chainId string) {
	s.header.ChainId = chainId
}

// SetTime records the block time, in unix seconds, that deadlines are
// compared against.
func (s *State) SetTime(now uint64) {
	s.header.Time = now
}

func (s *State) Now() uint64 {
	return s.header.Time
}

func (s *State) Params() governance.Params {
	return s.params
}

func (s *State) SetParams(p governance.Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.params = p
	s.modifiedParams = true
	return nil
}

func (s *State) Verify(btx *tx.DAOTx, allowNonceGap bool) (succ bool, err error) {
	a, err := s.GetAccount(btx.Sender)
	if err != nil {
		return succ, err
	}
	if a == nil {
		err = ErrTxSenderNoexists
		return
	}
	if !(a.Nonce == btx.Nonce || (allowNonceGap && a.Nonce < btx.Nonce)) {
		err = ErrTxNonceInvalid
		return
	}
	dat, err := btx.SigData([]byte(s.header.ChainId))
	if err != nil {
		return succ, err
	}
	succ = a.Verify(dat, btx.Sig)
	if !succ {
		err = ErrTxSigInvalid
	}
	return
}

func (s *State) IncNonce(addr types.AccountHash) error {
	a, err := s.GetAccount(addr)
	if err != nil {
		return err
	}
	if a == nil {
		return ErrAccountNoexists
	}
	a.Nonce += 1
	s.putAccount(a)
	return nil
}

// The next-index counters live in the header. Alloc* hands out the index a
// new entity is stored at.

func (s *State) AllocProposal() (idx uint64) {
	idx = s.header.ProposalIdx
	s.header.ProposalIdx++
	return
}

func (s *State) AllocGovernance() (idx uint64) {
	idx = s.header.GovernanceIdx
	s.header.GovernanceIdx++
	return
}

func (s *State) AllocVote() (idx uint64) {
	idx = s.header.VoteIdx
	s.header.VoteIdx++
	return
}

func (s *State) AllocProject() (idx uint64) {
	idx = s.header.ProjectIdx
	s.header.ProjectIdx++
	return
}

func (s *State) GetProposal(idx uint64) (*proposal.Proposal, error) {
	if idx >= s.header.ProposalIdx {
		return nil, ErrProposalNoexists
	}
	val, err := s.get(fmt.Sprintf(KeyProposalBody, idx))
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, ErrNotFound
	}
	return proposal.Deserialize(val)
}

func (s *State) SetProposal(idx uint64, p *proposal.Proposal) error {
	val, err := p.Serialize()
	if err != nil {
		return err
	}
	s.set(fmt.Sprintf(KeyProposalBody, idx), val)
	return nil
}

func (s *State) GetGovernanceProposal(idx uint64) (*proposal.GovernanceProposal, error) {
	if idx >= s.header.GovernanceIdx {
		return nil, ErrGovernanceNoexists
	}
	val, err := s.get(fmt.Sprintf(KeyGovernanceBody, idx))
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, ErrNotFound
	}
	return proposal.DeserializeGovernance(val)
}

func (s *State) SetGovernanceProposal(idx uint64, g *proposal.GovernanceProposal) error {
	val, err := g.Serialize()
	if err != nil {
		return err
	}
	s.set(fmt.Sprintf(KeyGovernanceBody, idx), val)
	return nil
}

func (s *State) GetVote(idx uint64) (*voting.Session, error) {
	if idx >= s.header.VoteIdx {
		return nil, ErrVoteNoexists
	}
	val, err := s.get(fmt.Sprintf(KeyVoteBody, idx))
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, ErrNotFound
	}
	return voting.Deserialize(val)
}

func (s *State) SetVote(idx uint64, v *voting.Session) error {
	val, err := v.Serialize()
	if err != nil {
		return err
	}
	s.set(fmt.Sprintf(KeyVoteBody, idx), val)
	return nil
}

func (s *State) GetVoteLink(idx uint64) (link VoteLink, err error) {
	val, err := s.get(fmt.Sprintf(KeyVoteLink, idx))
	if err != nil {
		return
	}
	if val == nil {
		err = ErrVoteNoexists
		return
	}
	err = rlp.DecodeBytes(val, &link)
	return
}

func (s *State) SetVoteLink(idx uint64, link VoteLink) error {
	val, err := rlp.EncodeToBytes(&link)
	if err != nil {
		return err
	}
	s.set(fmt.Sprintf(KeyVoteLink, idx), val)
	return nil
}

func (s *State) GetProject(idx uint64) (*project.Project, error) {
	if idx >= s.header.ProjectIdx {
		return nil, ErrProjectNoexists
	}
	val, err := s.get(fmt.Sprintf(KeyProjectBody, idx))
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, ErrNotFound
	}
	return project.Deserialize(val)
}

func (s *State) SetProject(idx uint64, p *project.Project) error {
	val, err := p.Serialize()
	if err != nil {
		return err
	}
	s.set(fmt.Sprintf(KeyProjectBody, idx), val)
	return nil
}

// Accounts lists committed accounts in key order.
func (s *State) Accounts() (acnts []*Account, err error) {
	start := []byte("a")
	end := PrefixEndBytes(start)
	it, err := s.db.Iterator(start, end, true)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	for ; it.Valid(); it.Next() {
		a, err := decodeAccount(it.Value())
		if err != nil {
			return nil, err
		}
		if cached, ok := s.acnts[a.Address]; ok {
			a = cached.Clone()
		}
		acnts = append(acnts, a)
	}
	return acnts, nil
}

func PrefixEndBytes(prefix []byte) []byte {
	if len(prefix) == 0 {
		return nil
	}

	end := make([]byte, len(prefix))
	copy(end, prefix)

	for {
		if end[len(end)-1] != byte(255) {
			end[len(end)-1]++
			break
		}

		end = end[:len(end)-1]

		if len(end) == 0 {
			end = nil
			break
		}
	}

	return end
}
