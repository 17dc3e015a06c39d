package app

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"

	"github.com/calehh/rep-dao/state"
	"github.com/calehh/rep-dao/types"
)

// Query routes on the path prefix; the rest of the path is the key, e.g.
// /proposals/3 or /accounts/0x12ab...
func (app *DAOApp) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	path := req.Path
	if !strings.HasPrefix(path, "/") {
		return &abcitypes.ResponseQuery{Code: 404}, nil
	}
	if strings.Count(path, "/") == 1 {
		path += "/"
	}
	i := strings.Index(path[1:], "/") + 1
	prefix, key := path[:i+1], path[i+1:]
	q, ok := app.queriers[prefix]
	if !ok {
		res = &abcitypes.ResponseQuery{}
		res.Code = 404
		return
	}
	res, err = q.Query(ctx, key, req)
	return
}

type Querier interface {
	Query(ctx context.Context, key string, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error)
}

type AccountQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewAccountQuerier(db *state.StateDB, logger cmtlog.Logger) (q *AccountQuerier) {
	q = &AccountQuerier{
		db:     db,
		logger: logger,
	}
	return
}

func (q *AccountQuerier) Query(ctx context.Context, key string, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	addr, err := types.ParseAccountHash(key)
	if err != nil {
		res.Code = 1
		res.Log = err.Error()
		return res, nil
	}
	a, height, err := q.db.GetAccount(addr)
	if err != nil {
		q.logger.Error("query account fail", "addr", addr, "err", err)
	}
	if a != nil {
		res.Value, _ = a.MarshalJSON()
		res.Height = int64(height)
	} else {
		res.Code = 1
	}
	return res, nil
}

type entityQuerier struct {
	db  *state.StateDB
	get func(st *state.State, idx uint64) (any, error)
}

func newEntityQuerier(db *state.StateDB, get func(st *state.State, idx uint64) (any, error)) *entityQuerier {
	return &entityQuerier{db: db, get: get}
}

func (q *entityQuerier) Query(ctx context.Context, key string, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	idx, err := strconv.ParseUint(key, 10, 64)
	if err != nil {
		res.Code = 1
		res.Log = err.Error()
		return res, nil
	}
	err = q.db.View(func(st *state.State) error {
		v, err := q.get(st, idx)
		if err != nil {
			return err
		}
		res.Value, err = json.Marshal(v)
		res.Height = int64(st.Header().Height)
		return err
	})
	if err != nil {
		res.Code = 1
		res.Log = err.Error()
	}
	return res, nil
}

type ParamsQuerier struct {
	db *state.StateDB
}

func (q *ParamsQuerier) Query(ctx context.Context, key string, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	err = q.db.View(func(st *state.State) error {
		res.Value, err = json.Marshal(st.Params())
		res.Height = int64(st.Header().Height)
		return err
	})
	if err != nil {
		res.Code = 1
		res.Log = err.Error()
	}
	return res, nil
}

type HeaderQuerier struct {
	db *state.StateDB
}

func (q *HeaderQuerier) Query(ctx context.Context, key string, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	header := q.db.Header()
	res.Value, err = json.Marshal(header)
	res.Height = int64(header.Height)
	if err != nil {
		res.Code = 1
		res.Log = err.Error()
	}
	return res, nil
}
