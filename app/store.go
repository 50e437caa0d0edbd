package app

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tendermint/tendermint/libs/log"

	"github.com/vaultswap/vaultswap"
	"github.com/vaultswap/vaultswap/errors"
)

// StoreApp contains a data store and all info needed to perform queries
// and genesis initialization.
//
// It should be embedded in another struct for CheckTx and DeliverTx
// dispatch.
type StoreApp struct {
	logger log.Logger

	// name of this engine instance, reported by Info
	name string

	// Database state (committed, check, deliver....)
	store *CommitStore

	// Code to initialize from a genesis file
	initializer vaultswap.Initializer

	// How to handle queries
	queryRouter vaultswap.QueryRouter

	// chainID is loaded from db in initialization
	// saved once in InitState
	chainID string

	// baseContext contains context info that is valid for
	// lifetime of this app (eg. chainID)
	baseContext vaultswap.Context

	// blockContext contains context info that is valid for the
	// current block (eg. height, time), reset on BeginBlock
	blockContext vaultswap.Context
}

// NewStoreApp initializes this app into a ready state with some
// defaults. It panics if unable to properly load the state from the
// given store.
func NewStoreApp(name string, store vaultswap.CommitKVStore,
	queryRouter vaultswap.QueryRouter, baseContext vaultswap.Context) *StoreApp {
	s := &StoreApp{
		name: name,
		// note: panics if trouble initializing from store
		store:       NewCommitStore(store),
		queryRouter: queryRouter,
		baseContext: baseContext,
	}
	s = s.WithLogger(log.NewNopLogger())

	// load the chainID from the db
	s.chainID = mustLoadChainID(s.DeliverStore())
	if s.chainID != "" {
		s.baseContext = vaultswap.WithChainID(s.baseContext, s.chainID)
	}

	// get the most recent height
	info := s.store.CommitInfo()
	s.blockContext = vaultswap.WithHeight(s.baseContext, info.Version)
	return s
}

// GetChainID returns the current chainID
func (s *StoreApp) GetChainID() string {
	return s.chainID
}

// WithInit is used to set the init function we call on InitState
func (s *StoreApp) WithInit(init vaultswap.Initializer) *StoreApp {
	s.initializer = init
	return s
}

// WithLogger sets the logger on the StoreApp and returns it, to make
// it easy to chain in initialization.
//
// also sets baseContext logger
func (s *StoreApp) WithLogger(logger log.Logger) *StoreApp {
	s.baseContext = vaultswap.WithLogger(s.baseContext, logger)
	s.logger = logger
	return s
}

// Logger returns the application base logger
func (s *StoreApp) Logger() log.Logger {
	return s.logger
}

// BlockContext returns the block context for public use
func (s *StoreApp) BlockContext() vaultswap.Context {
	return s.blockContext
}

// DeliverStore returns the current DeliverTx cache for methods
func (s *StoreApp) DeliverStore() vaultswap.CacheableKVStore {
	return s.store.DeliverStore()
}

// CheckStore returns the current CheckTx cache for methods
func (s *StoreApp) CheckStore() vaultswap.CacheableKVStore {
	return s.store.CheckStore()
}

// InitState is called exactly once, when the engine starts on an empty
// database. It parses the application state as the genesis Options and
// runs the registered initializer against the deliver store.
func (s *StoreApp) InitState(chainID string, appState []byte) error {
	if s.chainID != "" {
		return errors.Wrapf(errors.ErrState, "appState previously loaded for chain: %s", s.chainID)
	}
	if len(appState) == 0 {
		return errors.Wrap(errors.ErrEmpty, "app state not set, initialize the engine before launching it")
	}

	var opts vaultswap.Options
	if err := json.Unmarshal(appState, &opts); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}

	if err := saveChainID(s.DeliverStore(), chainID); err != nil {
		return err
	}
	s.chainID = chainID
	s.baseContext = vaultswap.WithChainID(s.baseContext, s.chainID)

	if s.initializer == nil {
		return nil
	}
	return s.initializer.FromGenesis(opts, s.DeliverStore())
}

// Info returns the instance name along with the last committed height
// and hash.
func (s *StoreApp) Info() (name string, height int64, hash []byte) {
	info := s.store.CommitInfo()

	s.logger.Info("Info synced",
		"height", info.Version,
		"hash", fmt.Sprintf("%X", info.Hash))

	return s.name, info.Version, info.Hash
}

/*
Query gets data from the app store.

Path may be "/<bucket>", or "/<bucket>/<index>".
It may be followed by "?prefix" to make a prefix query.
*/
func (s *StoreApp) Query(queryPath string, data []byte) ([]vaultswap.Model, error) {
	path, mod := splitPath(queryPath)
	qh := s.queryRouter.Handler(path)
	if qh == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "query path %q", queryPath)
	}

	// queries always run against the committed state, never against
	// the scratch pads of an open block
	db := s.store.committed.CacheWrap()
	defer db.Discard()

	return qh.Query(db, mod, data)
}

// splitPath splits out the real path along with the query
// modifier (everything after the ?)
func splitPath(path string) (string, string) {
	var mod string
	chunks := strings.SplitN(path, "?", 2)
	if len(chunks) == 2 {
		path = chunks[0]
		mod = chunks[1]
	}
	return path, mod
}

// Commit flushes the deliver cache to the underlying store and writes
// the next version to disk.
func (s *StoreApp) Commit() (vaultswap.CommitID, error) {
	commitID, err := s.store.Commit()
	if err != nil {
		return commitID, errors.Wrap(err, "commit")
	}

	s.logger.Debug("Commit synced",
		"height", commitID.Version,
		"hash", fmt.Sprintf("%X", commitID.Hash),
	)
	return commitID, nil
}

// BeginBlock starts a new block, setting up the block context with
// height and time that every operation of this block will observe.
func (s *StoreApp) BeginBlock(height int64, blockTime time.Time) {
	ctx := vaultswap.WithHeight(s.baseContext, height)
	ctx = vaultswap.WithBlockTime(ctx, blockTime)
	s.blockContext = ctx
}
