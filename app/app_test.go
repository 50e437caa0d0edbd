package app_test

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultswap/vaultswap"
	"github.com/vaultswap/vaultswap/app"
	"github.com/vaultswap/vaultswap/coin"
	"github.com/vaultswap/vaultswap/errors"
	"github.com/vaultswap/vaultswap/store/iavl"
	"github.com/vaultswap/vaultswap/swaptest"
	"github.com/vaultswap/vaultswap/x/cash"
	"github.com/vaultswap/vaultswap/x/escrow"
	"github.com/vaultswap/vaultswap/x/utils"
)

// swapTx wraps a single message, using the message path as a framing
// prefix so the raw bytes are self describing.
type swapTx struct {
	msg vaultswap.Msg
}

var _ vaultswap.Tx = (*swapTx)(nil)

func (tx *swapTx) GetMsg() (vaultswap.Msg, error) {
	return tx.msg, nil
}

func (tx *swapTx) Marshal() ([]byte, error) {
	body, err := tx.msg.Marshal()
	if err != nil {
		return nil, err
	}
	return append(append([]byte(tx.msg.Path()), '\n'), body...), nil
}

func (tx *swapTx) Unmarshal(raw []byte) error {
	chunks := bytes.SplitN(raw, []byte{'\n'}, 2)
	if len(chunks) != 2 {
		return errors.Wrap(errors.ErrInput, "malformed transaction")
	}

	var msg vaultswap.Msg
	switch path := string(chunks[0]); path {
	case (&cash.SendMsg{}).Path():
		msg = &cash.SendMsg{}
	case (&escrow.CreateFeeConfigMsg{}).Path():
		msg = &escrow.CreateFeeConfigMsg{}
	case (&escrow.UpdateSignerMsg{}).Path():
		msg = &escrow.UpdateSignerMsg{}
	case (&escrow.CreateMsg{}).Path():
		msg = &escrow.CreateMsg{}
	case (&escrow.CancelMsg{}).Path():
		msg = &escrow.CancelMsg{}
	case (&escrow.ExchangeMsg{}).Path():
		msg = &escrow.ExchangeMsg{}
	default:
		return errors.Wrapf(errors.ErrInput, "unknown message path %q", path)
	}
	if err := msg.Unmarshal(chunks[1]); err != nil {
		return err
	}
	tx.msg = msg
	return nil
}

func decodeTx(raw []byte) (vaultswap.Tx, error) {
	tx := &swapTx{}
	err := tx.Unmarshal(raw)
	return tx, err
}

type engineFixture struct {
	t   *testing.T
	app app.BaseApp

	alice     vaultswap.Condition
	aliceFees vaultswap.Condition
	aliceRecv vaultswap.Condition
	bob       vaultswap.Condition
	bobFees   vaultswap.Condition
	bobRecv   vaultswap.Condition
	collector vaultswap.Address
}

func newEngineFixture(t *testing.T) *engineFixture {
	f := &engineFixture{
		t:         t,
		alice:     swaptest.NewCondition(),
		aliceFees: swaptest.NewCondition(),
		aliceRecv: swaptest.NewCondition(),
		bob:       swaptest.NewCondition(),
		bobFees:   swaptest.NewCondition(),
		bobRecv:   swaptest.NewCondition(),
		collector: swaptest.NewCondition().Address(),
	}

	// every party signs in this scenario, authorization of individual
	// accounts is covered by the handler tests
	auth := &swaptest.Auth{Signers: []vaultswap.Condition{
		f.alice, f.aliceFees, f.bob, f.bobFees,
	}}

	bank := cash.NewController(cash.NewBucket())
	router := app.NewRouter()
	cash.RegisterRoutes(router, auth, bank)
	escrow.RegisterRoutes(router, auth, bank, nil)

	qr := vaultswap.NewQueryRouter()
	cash.RegisterQuery(qr)
	escrow.RegisterQuery(qr)

	stack := app.ChainDecorators(
		utils.NewLogging(),
		utils.NewRecovery(),
		utils.NewSavepoint().OnCheck().OnDeliver(),
		utils.NewActionTagger(),
	).WithHandler(router)

	store := app.NewStoreApp("vaultswap-test", iavl.MockCommitStore(),
		qr, context.Background()).
		WithInit(app.ChainInitializers(cash.Initializer{}, escrow.Initializer{}))

	f.app = app.NewBaseApp(store, decodeTx, stack, escrow.NewSweeper(time.Hour))

	appState := fmt.Sprintf(`{
		"cash": [
			{"address": "%s", "coins": [{"ticker": "IOV", "amount": 1000}]},
			{"address": "%s", "coins": [{"ticker": "IOV", "amount": 10}]},
			{"address": "%s", "coins": [{"ticker": "ETH", "amount": 500}]},
			{"address": "%s", "coins": [{"ticker": "ETH", "amount": 5}]}
		],
		"escrow": {
			"fee_configs": [
				{"owner": "%s", "fee_ticker": "IOV", "collector": "%s"}
			]
		}
	}`, f.alice.Address(), f.aliceFees.Address(), f.bob.Address(), f.bobFees.Address(),
		f.collector, f.collector)
	require.NoError(t, f.app.InitState("test-chain-1", []byte(appState)))
	return f
}

func (f *engineFixture) deliver(msg vaultswap.Msg) (*vaultswap.DeliverResult, error) {
	f.t.Helper()
	raw, err := (&swapTx{msg: msg}).Marshal()
	require.NoError(f.t, err)
	return f.app.DeliverTx(raw)
}

func (f *engineFixture) balance(addr vaultswap.Address) coin.Coins {
	f.t.Helper()
	models, err := f.app.Query("/wallets", addr)
	require.NoError(f.t, err)
	if len(models) == 0 {
		return nil
	}
	var set cash.Set
	require.NoError(f.t, set.Unmarshal(models[0].Value))
	return set.Coins
}

func (f *engineFixture) createMsg() *escrow.CreateMsg {
	return &escrow.CreateMsg{
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
	}
}

func TestSwapLifecycle(t *testing.T) {
	f := newEngineFixture(t)
	blockTime := time.Unix(1600000000, 0)

	f.app.BeginBlock(1, blockTime)
	res, err := f.deliver(f.createMsg())
	require.NoError(t, err)
	id := res.Data
	require.Len(t, id, 8)
	// the action tag names the executed operation
	require.NotEmpty(t, res.Tags)
	assert.Equal(t, []byte("escrow/create"), res.Tags[len(res.Tags)-1].Value)

	_, err = f.app.Commit()
	require.NoError(t, err)

	// the committed state serves the escrow and the funded vault
	models, err := f.app.Query("/escrows", id)
	require.NoError(t, err)
	require.Len(t, models, 1)
	var esc escrow.Escrow
	require.NoError(t, esc.Unmarshal(models[0].Value))
	assert.Equal(t, escrow.StateActive, esc.State)
	assert.True(t, f.balance(esc.Vault).Equals(mustCoins(t, coin.NewCoin(1000, "IOV"))))

	f.app.BeginBlock(2, blockTime.Add(5*time.Second))
	_, err = f.deliver(&escrow.ExchangeMsg{
		EscrowId:       id,
		DepositAccount: f.bob.Address(),
		ReceiveAccount: f.bobRecv.Address(),
		FeeAccount:     f.bobFees.Address(),
	})
	require.NoError(t, err)
	_, err = f.app.Commit()
	require.NoError(t, err)

	assert.True(t, f.balance(f.bobRecv.Address()).Equals(mustCoins(t, coin.NewCoin(1000, "IOV"))))
	assert.True(t, f.balance(f.aliceRecv.Address()).Equals(mustCoins(t, coin.NewCoin(500, "ETH"))))
	assert.True(t, f.balance(f.collector).Equals(mustCoins(t,
		coin.NewCoin(5, "ETH"), coin.NewCoin(10, "IOV"))))

	// the settled swap cannot be canceled, and the failed operation
	// leaves no trace behind
	f.app.BeginBlock(3, blockTime.Add(10*time.Second))
	_, err = f.deliver(&escrow.CancelMsg{EscrowId: id})
	assert.True(t, errors.ErrState.Is(err), "unexpected error: %+v", err)
	_, err = f.app.Commit()
	require.NoError(t, err)
	assert.True(t, f.balance(f.bobRecv.Address()).Equals(mustCoins(t, coin.NewCoin(1000, "IOV"))))

	// once the retention period is over, the sweeper drops the record
	f.app.BeginBlock(4, blockTime.Add(2*time.Hour))
	_, err = f.app.Commit()
	require.NoError(t, err)
	models, err = f.app.Query("/escrows", id)
	require.NoError(t, err)
	assert.Len(t, models, 0)
}

func TestSwapCancelRefunds(t *testing.T) {
	f := newEngineFixture(t)
	blockTime := time.Unix(1600000000, 0)

	f.app.BeginBlock(1, blockTime)
	res, err := f.deliver(f.createMsg())
	require.NoError(t, err)
	id := res.Data

	_, err = f.deliver(&escrow.CancelMsg{EscrowId: id})
	require.NoError(t, err)
	_, err = f.app.Commit()
	require.NoError(t, err)

	// everything is back where it started
	assert.True(t, f.balance(f.alice.Address()).Equals(mustCoins(t, coin.NewCoin(1000, "IOV"))))
	assert.True(t, f.balance(f.aliceFees.Address()).Equals(mustCoins(t, coin.NewCoin(10, "IOV"))))
	assert.Nil(t, f.balance(f.collector))
}

func TestCheckTxDoesNotChangeState(t *testing.T) {
	f := newEngineFixture(t)
	f.app.BeginBlock(1, time.Unix(1600000000, 0))

	raw, err := (&swapTx{msg: f.createMsg()}).Marshal()
	require.NoError(t, err)
	cres, err := f.app.CheckTx(raw)
	require.NoError(t, err)
	assert.True(t, cres.GasAllocated > 0)

	_, err = f.app.Commit()
	require.NoError(t, err)

	// check ran on its own scratch pad, nothing was committed
	id := escrow.EscrowID(f.alice.Address(), "IOV", "ETH")
	models, err := f.app.Query("/escrows", id)
	require.NoError(t, err)
	assert.Len(t, models, 0)
}

func TestDeliverTxRejectsGarbage(t *testing.T) {
	f := newEngineFixture(t)
	f.app.BeginBlock(1, time.Unix(1600000000, 0))

	_, err := f.app.DeliverTx([]byte("not a transaction"))
	assert.True(t, errors.ErrInput.Is(err), "unexpected error: %+v", err)
}

func mustCoins(t *testing.T, cs ...coin.Coin) coin.Coins {
	t.Helper()
	coins, err := coin.NewCoins(cs...)
	require.NoError(t, err)
	return coins
}
