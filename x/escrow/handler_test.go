package escrow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultswap/vaultswap"
	"github.com/vaultswap/vaultswap/coin"
	"github.com/vaultswap/vaultswap/crypto"
	"github.com/vaultswap/vaultswap/errors"
	"github.com/vaultswap/vaultswap/orm"
	"github.com/vaultswap/vaultswap/store"
	"github.com/vaultswap/vaultswap/swaptest"
	"github.com/vaultswap/vaultswap/x/cash"
)

// recordingEmitter keeps all emitted events for inspection.
type recordingEmitter struct {
	inits     []InitializeEvent
	cancels   []CancelEvent
	exchanges []ExchangeEvent
}

func (e *recordingEmitter) Initialized(ev InitializeEvent) { e.inits = append(e.inits, ev) }
func (e *recordingEmitter) Canceled(ev CancelEvent)        { e.cancels = append(e.cancels, ev) }
func (e *recordingEmitter) Exchanged(ev ExchangeEvent)     { e.exchanges = append(e.exchanges, ev) }

type fixture struct {
	t       *testing.T
	db      vaultswap.CacheableKVStore
	auth    *swaptest.Auth
	bank    cash.CashController
	bucket  orm.ModelBucket
	fees    orm.ModelBucket
	signers orm.ModelBucket
	events  *recordingEmitter

	// the standard cast
	alice     vaultswap.Condition // initializer
	aliceFees vaultswap.Condition // initializer fee account
	aliceRecv vaultswap.Condition // initializer receive account
	bob       vaultswap.Condition // taker
	bobFees   vaultswap.Condition // taker fee account
	bobRecv   vaultswap.Condition // taker receive account
	collector vaultswap.Address
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		t:         t,
		db:        store.MemStore(),
		auth:      &swaptest.Auth{},
		bank:      cash.NewController(cash.NewBucket()),
		bucket:    NewBucket(),
		fees:      NewFeeConfigBucket(),
		signers:   NewSignerBucket(),
		events:    &recordingEmitter{},
		alice:     swaptest.NewCondition(),
		aliceFees: swaptest.NewCondition(),
		aliceRecv: swaptest.NewCondition(),
		bob:       swaptest.NewCondition(),
		bobFees:   swaptest.NewCondition(),
		bobRecv:   swaptest.NewCondition(),
		collector: swaptest.NewCondition().Address(),
	}
	f.auth.Signers = []vaultswap.Condition{
		f.alice, f.aliceFees, f.bob, f.bobFees,
	}
	return f
}

func (f *fixture) ctx() vaultswap.Context {
	return vaultswap.WithBlockTime(context.Background(), time.Unix(1600000000, 0))
}

func (f *fixture) fund(addr vaultswap.Address, coins ...coin.Coin) {
	f.t.Helper()
	for _, c := range coins {
		require.NoError(f.t, f.bank.IssueCoins(f.db, addr, c))
	}
}

// seedFeeConfig stores a fee config directly, bypassing the handler.
func (f *fixture) seedFeeConfig(ticker string) {
	f.t.Helper()
	cond := FeeCondition(ticker)
	cfg := &FeeConfig{
		Owner:             swaptest.NewCondition().Address(),
		FeeTicker:         ticker,
		Collector:         f.collector,
		FeeVault:          cond.Address(),
		FeeVaultAuthority: cond,
	}
	require.NoError(f.t, f.fees.Put(f.db, []byte(ticker), cfg))
}

func (f *fixture) createHandler() CreateEscrowHandler {
	return CreateEscrowHandler{auth: f.auth, bucket: f.bucket, fees: f.fees, ctrl: NewController(f.bank), emitter: f.events}
}

func (f *fixture) cancelHandler() CancelEscrowHandler {
	return CancelEscrowHandler{auth: f.auth, bucket: f.bucket, fees: f.fees, ctrl: NewController(f.bank), emitter: f.events}
}

func (f *fixture) exchangeHandler() ExchangeEscrowHandler {
	return ExchangeEscrowHandler{auth: f.auth, bucket: f.bucket, fees: f.fees, signers: f.signers, ctrl: NewController(f.bank), emitter: f.events}
}

// assertBalance checks the exact balance of an account.
func (f *fixture) assertBalance(addr vaultswap.Address, coins ...*coin.Coin) {
	f.t.Helper()
	got, err := f.bank.Balance(f.db, addr)
	require.NoError(f.t, err)
	assert.True(f.t, got.Equals(coin.Coins(coins)), "account %s holds %s", addr, got)
}

// assertNoAccount checks the wallet does not exist at all.
func (f *fixture) assertNoAccount(addr vaultswap.Address) {
	f.t.Helper()
	_, err := f.bank.Balance(f.db, addr)
	assert.True(f.t, errors.ErrNotFound.Is(err), "account %s exists", addr)
}

// createMsg is the scenario used throughout: alice locks 1000 IOV and
// wants 500 ETH, fees are 10 IOV from alice and 5 ETH from bob.
func (f *fixture) createMsg() *CreateMsg {
	return &CreateMsg{
		DepositAccount:  f.alice.Address(),
		ReceiveAccount:  f.aliceRecv.Address(),
		FeeAccount:      f.aliceFees.Address(),
		PrincipalTicker: "IOV",
		CounterTicker:   "ETH",
		FeeTicker:       "IOV",
		PrincipalAmount: 1000,
		CounterAmount:   500,
		FeeInitializer:  10,
		FeeTaker:        5,
		Memo:            "atomic swap",
	}
}

func (f *fixture) exchangeMsg(id []byte) *ExchangeMsg {
	return &ExchangeMsg{
		EscrowId:       id,
		DepositAccount: f.bob.Address(),
		ReceiveAccount: f.bobRecv.Address(),
		FeeAccount:     f.bobFees.Address(),
	}
}

// standardSetup funds both parties and seeds the fee config.
func (f *fixture) standardSetup() {
	f.seedFeeConfig("IOV")
	f.fund(f.alice.Address(), coin.NewCoin(1000, "IOV"))
	f.fund(f.aliceFees.Address(), coin.NewCoin(10, "IOV"))
	f.fund(f.bob.Address(), coin.NewCoin(500, "ETH"))
	f.fund(f.bobFees.Address(), coin.NewCoin(5, "ETH"))
}

// mustCreate runs the create handler and returns the escrow id.
func (f *fixture) mustCreate() []byte {
	f.t.Helper()
	res, err := f.createHandler().Deliver(f.ctx(), f.db, &swaptest.Tx{Msg: f.createMsg()})
	require.NoError(f.t, err)
	return res.Data
}

func TestCreateEscrow(t *testing.T) {
	f := newFixture(t)
	f.standardSetup()

	id := f.mustCreate()
	assert.Equal(t, EscrowID(f.alice.Address(), "IOV", "ETH"), id)

	// Vault holds exactly the principal, the fee vault the fee.
	f.assertBalance(Condition(id).Address(), coin.NewCoinp(1000, "IOV"))
	f.assertBalance(FeeCondition("IOV").Address(), coin.NewCoinp(10, "IOV"))
	f.assertBalance(f.alice.Address())
	f.assertBalance(f.aliceFees.Address())

	var escrow Escrow
	require.NoError(t, f.bucket.One(f.db, id, &escrow))
	assert.Equal(t, StateActive, escrow.State)
	assert.Equal(t, f.alice.Address(), escrow.Source)
	assert.True(t, Condition(id).Equals(escrow.VaultAuthority))
	assert.Equal(t, f.collector, escrow.FeeCollector)

	require.Len(t, f.events.inits, 1)
	assert.Equal(t, int64(1000), f.events.inits[0].PrincipalAmount)
}

func TestCreateEscrowRejections(t *testing.T) {
	cases := map[string]struct {
		mod     func(*fixture, *CreateMsg)
		wantErr *errors.Error
	}{
		"zero principal amount": {
			mod:     func(f *fixture, msg *CreateMsg) { msg.PrincipalAmount = 0 },
			wantErr: ErrInvalidInitializerAmount,
		},
		"zero counter amount": {
			mod:     func(f *fixture, msg *CreateMsg) { msg.CounterAmount = 0 },
			wantErr: ErrInvalidTakerAmount,
		},
		"negative principal amount": {
			mod:     func(f *fixture, msg *CreateMsg) { msg.PrincipalAmount = -4 },
			wantErr: ErrInvalidInitializerAmount,
		},
		"insufficient deposit": {
			mod:     func(f *fixture, msg *CreateMsg) { msg.PrincipalAmount = 1001 },
			wantErr: ErrInitializerFunds,
		},
		"insufficient fee": {
			mod:     func(f *fixture, msg *CreateMsg) { msg.FeeInitializer = 11 },
			wantErr: ErrInitializerFee,
		},
		"foreign deposit account": {
			mod: func(f *fixture, msg *CreateMsg) {
				msg.DepositAccount = swaptest.NewCondition().Address()
			},
			wantErr: errors.ErrUnauthorized,
		},
		"unknown fee config": {
			mod:     func(f *fixture, msg *CreateMsg) { msg.FeeTicker = "BTC" },
			wantErr: errors.ErrNotFound,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			f := newFixture(t)
			f.standardSetup()

			msg := f.createMsg()
			tc.mod(f, msg)
			_, err := f.createHandler().Deliver(f.ctx(), f.db, &swaptest.Tx{Msg: msg})
			assert.True(t, tc.wantErr.Is(err), "unexpected error: %+v", err)

			// No partial state: no record, no vault, untouched balances.
			id := EscrowID(f.alice.Address(), msg.PrincipalTicker, msg.CounterTicker)
			assert.True(t, errors.ErrNotFound.Is(f.bucket.Has(f.db, id)))
			f.assertNoAccount(Condition(id).Address())
			f.assertBalance(f.alice.Address(), coin.NewCoinp(1000, "IOV"))
			f.assertBalance(f.aliceFees.Address(), coin.NewCoinp(10, "IOV"))
		})
	}
}

func TestCreateEscrowDuplicate(t *testing.T) {
	f := newFixture(t)
	f.standardSetup()
	f.fund(f.alice.Address(), coin.NewCoin(1000, "IOV"))
	f.fund(f.aliceFees.Address(), coin.NewCoin(10, "IOV"))

	f.mustCreate()
	_, err := f.createHandler().Deliver(f.ctx(), f.db, &swaptest.Tx{Msg: f.createMsg()})
	assert.True(t, errors.ErrDuplicate.Is(err), "unexpected error: %+v", err)
}

func TestCancelEscrow(t *testing.T) {
	f := newFixture(t)
	f.standardSetup()
	id := f.mustCreate()

	res, err := f.cancelHandler().Deliver(f.ctx(), f.db, &swaptest.Tx{Msg: &CancelMsg{EscrowId: id}})
	require.NoError(t, err)
	assert.Equal(t, id, res.Data)

	// Net zero: both accounts are back at their initial balance and
	// the vault is gone.
	f.assertBalance(f.alice.Address(), coin.NewCoinp(1000, "IOV"))
	f.assertBalance(f.aliceFees.Address(), coin.NewCoinp(10, "IOV"))
	f.assertNoAccount(Condition(id).Address())
	f.assertBalance(FeeCondition("IOV").Address())

	var escrow Escrow
	require.NoError(t, f.bucket.One(f.db, id, &escrow))
	assert.Equal(t, StateClosed, escrow.State)
	assert.False(t, escrow.ClosedAt.IsZero())
	require.Len(t, f.events.cancels, 1)
}

func TestCancelEscrowUnauthorized(t *testing.T) {
	f := newFixture(t)
	f.standardSetup()
	id := f.mustCreate()

	f.auth.Signers = []vaultswap.Condition{f.bob}
	_, err := f.cancelHandler().Deliver(f.ctx(), f.db, &swaptest.Tx{Msg: &CancelMsg{EscrowId: id}})
	assert.True(t, errors.ErrUnauthorized.Is(err), "unexpected error: %+v", err)

	var escrow Escrow
	require.NoError(t, f.bucket.One(f.db, id, &escrow))
	assert.Equal(t, StateActive, escrow.State)
}

func TestExchangeEscrow(t *testing.T) {
	f := newFixture(t)
	f.standardSetup()
	id := f.mustCreate()

	res, err := f.exchangeHandler().Deliver(f.ctx(), f.db, &swaptest.Tx{Msg: f.exchangeMsg(id)})
	require.NoError(t, err)
	assert.Equal(t, id, res.Data)

	// The collector receives both fees, alice the counter asset, bob
	// the full principal. Vault and fee vault are emptied.
	f.assertBalance(f.collector, coin.NewCoinp(5, "ETH"), coin.NewCoinp(10, "IOV"))
	f.assertBalance(f.aliceRecv.Address(), coin.NewCoinp(500, "ETH"))
	f.assertBalance(f.bobRecv.Address(), coin.NewCoinp(1000, "IOV"))
	f.assertNoAccount(Condition(id).Address())
	f.assertBalance(FeeCondition("IOV").Address())
	f.assertBalance(f.bob.Address())
	f.assertBalance(f.bobFees.Address())

	var escrow Escrow
	require.NoError(t, f.bucket.One(f.db, id, &escrow))
	assert.Equal(t, StateClosed, escrow.State)
	require.Len(t, f.events.exchanges, 1)
	assert.Equal(t, f.bobRecv.Address(), f.events.exchanges[0].TakerReceive)
}

func TestTerminalTransitionsAreExclusive(t *testing.T) {
	f := newFixture(t)
	f.standardSetup()

	t.Run("cancel then exchange", func(t *testing.T) {
		id := f.mustCreate()
		_, err := f.cancelHandler().Deliver(f.ctx(), f.db, &swaptest.Tx{Msg: &CancelMsg{EscrowId: id}})
		require.NoError(t, err)

		_, err = f.exchangeHandler().Deliver(f.ctx(), f.db, &swaptest.Tx{Msg: f.exchangeMsg(id)})
		assert.True(t, errors.ErrState.Is(err), "unexpected error: %+v", err)

		// The loser moved no funds.
		f.assertBalance(f.bob.Address(), coin.NewCoinp(500, "ETH"))
		f.assertNoAccount(f.bobRecv.Address())
	})

	t.Run("exchange then cancel", func(t *testing.T) {
		// The closed record from the first run does not block a new
		// escrow for the same pair.
		f.fund(f.alice.Address(), coin.NewCoin(1000, "IOV"))
		f.fund(f.aliceFees.Address(), coin.NewCoin(10, "IOV"))
		id := f.mustCreate()

		_, err := f.exchangeHandler().Deliver(f.ctx(), f.db, &swaptest.Tx{Msg: f.exchangeMsg(id)})
		require.NoError(t, err)

		_, err = f.cancelHandler().Deliver(f.ctx(), f.db, &swaptest.Tx{Msg: &CancelMsg{EscrowId: id}})
		assert.True(t, errors.ErrState.Is(err), "unexpected error: %+v", err)
	})
}

func TestExchangeEscrowRejections(t *testing.T) {
	cases := map[string]struct {
		setup   func(*fixture)
		mod     func(*fixture, *ExchangeMsg)
		wantErr *errors.Error
	}{
		"insufficient taker deposit": {
			setup: func(f *fixture) {
				require.NoError(f.t, f.bank.MoveCoins(f.db, f.bob.Address(), swaptest.NewCondition().Address(), coin.NewCoin(1, "ETH")))
			},
			wantErr: ErrTakerFunds,
		},
		"insufficient taker fee": {
			setup: func(f *fixture) {
				require.NoError(f.t, f.bank.MoveCoins(f.db, f.bobFees.Address(), swaptest.NewCondition().Address(), coin.NewCoin(1, "ETH")))
			},
			wantErr: ErrTakerFee,
		},
		"foreign deposit account": {
			mod: func(f *fixture, msg *ExchangeMsg) {
				msg.DepositAccount = swaptest.NewCondition().Address()
			},
			wantErr: errors.ErrUnauthorized,
		},
		"missing fee account": {
			mod: func(f *fixture, msg *ExchangeMsg) {
				msg.FeeAccount = nil
			},
			wantErr: errors.ErrEmpty,
		},
		"unknown escrow": {
			mod: func(f *fixture, msg *ExchangeMsg) {
				msg.EscrowId = []byte{1, 2, 3, 4, 5, 6, 7, 8}
			},
			wantErr: errors.ErrNotFound,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			f := newFixture(t)
			f.standardSetup()
			id := f.mustCreate()
			if tc.setup != nil {
				tc.setup(f)
			}

			msg := f.exchangeMsg(id)
			if tc.mod != nil {
				tc.mod(f, msg)
			}
			_, err := f.exchangeHandler().Deliver(f.ctx(), f.db, &swaptest.Tx{Msg: msg})
			assert.True(t, tc.wantErr.Is(err), "unexpected error: %+v", err)

			// The escrow remains active with the vault untouched.
			var escrow Escrow
			require.NoError(t, f.bucket.One(f.db, id, &escrow))
			assert.Equal(t, StateActive, escrow.State)
			f.assertBalance(Condition(id).Address(), coin.NewCoinp(1000, "IOV"))
			f.assertNoAccount(f.aliceRecv.Address())
			f.assertNoAccount(f.bobRecv.Address())
		})
	}
}

func TestExchangeSignatureGate(t *testing.T) {
	key := crypto.PrivKeyEd25519FromSeed([]byte("dead beef dead beef dead beef 32"))

	signAuth := func(a *FeeAuthorization, priv *crypto.PrivateKey) *FeeAuthorization {
		sig, err := priv.Sign(authorizationBytes(a))
		if err != nil {
			panic(err)
		}
		a.Signature = sig
		return a
	}

	authorizedCollector := swaptest.NewCondition().Address()

	cases := map[string]struct {
		auth    func(f *fixture) *FeeAuthorization
		wantErr *errors.Error
	}{
		"valid authorization": {
			auth: func(f *fixture) *FeeAuthorization {
				return signAuth(&FeeAuthorization{
					InitializerCollector: authorizedCollector,
					TakerCollector:       authorizedCollector,
					FeeInitializer:       10,
					FeeTaker:             5,
				}, key)
			},
		},
		"missing authorization": {
			auth:    func(f *fixture) *FeeAuthorization { return nil },
			wantErr: ErrSignature,
		},
		"fee amount mismatch": {
			auth: func(f *fixture) *FeeAuthorization {
				return signAuth(&FeeAuthorization{
					InitializerCollector: authorizedCollector,
					TakerCollector:       authorizedCollector,
					FeeInitializer:       99,
					FeeTaker:             5,
				}, key)
			},
			wantErr: ErrSignature,
		},
		"wrong signing key": {
			auth: func(f *fixture) *FeeAuthorization {
				other := crypto.PrivKeyEd25519FromSeed([]byte("0123456789abcdef0123456789abcdef"))
				return signAuth(&FeeAuthorization{
					InitializerCollector: authorizedCollector,
					TakerCollector:       authorizedCollector,
					FeeInitializer:       10,
					FeeTaker:             5,
				}, other)
			},
			wantErr: ErrSignature,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			f := newFixture(t)
			f.standardSetup()
			id := f.mustCreate()

			signer := &Signer{
				Owner:   swaptest.NewCondition().Address(),
				Pubkey:  key.PublicKey(),
				Version: 1,
			}
			require.NoError(t, f.signers.Put(f.db, signerKey, signer))

			msg := f.exchangeMsg(id)
			msg.Authorization = tc.auth(f)
			_, err := f.exchangeHandler().Deliver(f.ctx(), f.db, &swaptest.Tx{Msg: msg})

			if tc.wantErr != nil {
				assert.True(t, tc.wantErr.Is(err), "unexpected error: %+v", err)
				// Rejected before any transfer.
				f.assertBalance(Condition(id).Address(), coin.NewCoinp(1000, "IOV"))
				f.assertBalance(f.bob.Address(), coin.NewCoinp(500, "ETH"))
				return
			}
			require.NoError(t, err)
			// Fees went to the authorized collector, not the default.
			f.assertBalance(authorizedCollector, coin.NewCoinp(5, "ETH"), coin.NewCoinp(10, "IOV"))
			f.assertNoAccount(f.collector)
		})
	}
}

func TestCreateFeeConfigHandler(t *testing.T) {
	f := newFixture(t)
	h := CreateFeeConfigHandler{auth: f.auth, fees: f.fees}
	f.auth.Signer = f.alice

	msg := &CreateFeeConfigMsg{FeeTicker: "IOV", Collector: f.collector}
	_, err := h.Deliver(f.ctx(), f.db, &swaptest.Tx{Msg: msg})
	require.NoError(t, err)

	var cfg FeeConfig
	require.NoError(t, f.fees.One(f.db, []byte("IOV"), &cfg))
	assert.Equal(t, f.alice.Address(), cfg.Owner)
	assert.Equal(t, FeeCondition("IOV").Address(), cfg.FeeVault)
	assert.True(t, FeeCondition("IOV").Equals(cfg.FeeVaultAuthority))

	// The config of a ticker is created at most once.
	_, err = h.Deliver(f.ctx(), f.db, &swaptest.Tx{Msg: msg})
	assert.True(t, errors.ErrDuplicate.Is(err), "unexpected error: %+v", err)

	// Another ticker is fine.
	_, err = h.Deliver(f.ctx(), f.db, &swaptest.Tx{Msg: &CreateFeeConfigMsg{FeeTicker: "ETH", Collector: f.collector}})
	require.NoError(t, err)
}

func TestUpdateSignerHandler(t *testing.T) {
	f := newFixture(t)
	h := UpdateSignerHandler{auth: f.auth, signers: f.signers}
	f.auth.Signers = nil
	f.auth.Signer = f.alice

	keyA := crypto.GenPrivKeyEd25519().PublicKey()
	keyB := crypto.GenPrivKeyEd25519().PublicKey()

	// The first update creates the record and binds the owner.
	_, err := h.Deliver(f.ctx(), f.db, &swaptest.Tx{Msg: &UpdateSignerMsg{Pubkey: keyA}})
	require.NoError(t, err)

	var signer Signer
	require.NoError(t, f.signers.One(f.db, signerKey, &signer))
	assert.Equal(t, f.alice.Address(), signer.Owner)
	assert.Equal(t, uint32(1), signer.Version)

	// The owner may rotate the key.
	_, err = h.Deliver(f.ctx(), f.db, &swaptest.Tx{Msg: &UpdateSignerMsg{Pubkey: keyB}})
	require.NoError(t, err)
	require.NoError(t, f.signers.One(f.db, signerKey, &signer))
	assert.Equal(t, uint32(2), signer.Version)
	assert.Equal(t, keyB.Ed25519, signer.Pubkey.Ed25519)

	// Nobody else may.
	f.auth.Signer = f.bob
	_, err = h.Deliver(f.ctx(), f.db, &swaptest.Tx{Msg: &UpdateSignerMsg{Pubkey: keyA}})
	assert.True(t, errors.ErrUnauthorized.Is(err), "unexpected error: %+v", err)
}

func TestExchangeWithoutFees(t *testing.T) {
	f := newFixture(t)
	f.fund(f.alice.Address(), coin.NewCoin(1000, "IOV"))
	f.fund(f.bob.Address(), coin.NewCoin(500, "ETH"))

	// Zero fee legs need no fee config and no fee accounts.
	msg := f.createMsg()
	msg.FeeInitializer = 0
	msg.FeeTaker = 0
	msg.FeeTicker = ""
	msg.FeeAccount = nil

	res, err := f.createHandler().Deliver(f.ctx(), f.db, &swaptest.Tx{Msg: msg})
	require.NoError(t, err)
	id := res.Data

	xmsg := f.exchangeMsg(id)
	xmsg.FeeAccount = nil
	_, err = f.exchangeHandler().Deliver(f.ctx(), f.db, &swaptest.Tx{Msg: xmsg})
	require.NoError(t, err)

	f.assertBalance(f.aliceRecv.Address(), coin.NewCoinp(500, "ETH"))
	f.assertBalance(f.bobRecv.Address(), coin.NewCoinp(1000, "IOV"))
	f.assertNoAccount(f.collector)
}
