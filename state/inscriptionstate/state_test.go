package inscriptionstate

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"inscribechain/native/custody"
	"inscribechain/native/inscriptions"
	"inscribechain/native/orderbook"
	"inscribechain/storage"
)

func newTestState(t *testing.T) *State {
	t.Helper()
	return New(storage.NewMemDB())
}

func TestInscriptionRoundTrip(t *testing.T) {
	state := newTestState(t)
	ins := &inscriptions.Inscription{
		ID:                [32]byte{0xAA},
		Borrower:          [20]byte{0x0B},
		Lender:            [20]byte{0x0C},
		CreatorIsBorrower: true,
		Duration:          86_400,
		Deadline:          1_700_000_000,
		CreatedAt:         1_699_000_000,
		SignedAt:          1_699_500_000,
		IssuedBps:         7_500,
		MultiLender:       true,
		Debt: []inscriptions.AssetDescriptor{
			{Resource: "gold", Kind: inscriptions.AssetFungible, Amount: big.NewInt(1_000)},
		},
		Interest: []inscriptions.AssetDescriptor{
			{Resource: "gold", Kind: inscriptions.AssetVaultShare, Amount: big.NewInt(50)},
		},
		Collateral: []inscriptions.AssetDescriptor{
			{Resource: "deed", Kind: inscriptions.AssetNonFungible, Amount: big.NewInt(0), ID: 42},
		},
	}
	require.NoError(t, state.InscriptionPut(ins))

	loaded, ok := state.InscriptionGet(ins.ID)
	require.True(t, ok)
	require.Equal(t, ins, loaded)

	require.NoError(t, state.InscriptionDelete(ins.ID))
	_, ok = state.InscriptionGet(ins.ID)
	require.False(t, ok)
}

func TestInscriptionGetMissing(t *testing.T) {
	state := newTestState(t)
	_, ok := state.InscriptionGet([32]byte{0x01})
	require.False(t, ok)
}

func TestShareStateRoundTrip(t *testing.T) {
	state := newTestState(t)
	id := [32]byte{0xAA}
	holder := [20]byte{0x0C}

	balance, err := state.ShareBalance(id, holder)
	require.NoError(t, err)
	require.Zero(t, balance.Sign())

	want, ok := new(big.Int).SetString("1000000000000000000000", 10)
	require.True(t, ok)
	require.NoError(t, state.SetShareBalance(id, holder, want))
	balance, err = state.ShareBalance(id, holder)
	require.NoError(t, err)
	require.Zero(t, balance.Cmp(want))

	require.NoError(t, state.SetShareTotalSupply(id, want))
	supply, err := state.ShareTotalSupply(id)
	require.NoError(t, err)
	require.Zero(t, supply.Cmp(want))

	// A different holder under the same inscription is untouched.
	other, err := state.ShareBalance(id, [20]byte{0x0D})
	require.NoError(t, err)
	require.Zero(t, other.Sign())
}

func TestTrackedBalanceKeying(t *testing.T) {
	state := newTestState(t)
	id := [32]byte{0xAA}

	require.NoError(t, state.SetTrackedBalance(id, inscriptions.CategoryDebt, 0, big.NewInt(900)))
	require.NoError(t, state.SetTrackedBalance(id, inscriptions.CategoryCollateral, 0, big.NewInt(77)))
	require.NoError(t, state.SetTrackedBalance(id, inscriptions.CategoryDebt, 1, big.NewInt(5)))

	debt, err := state.TrackedBalance(id, inscriptions.CategoryDebt, 0)
	require.NoError(t, err)
	require.Zero(t, debt.Cmp(big.NewInt(900)))
	collateral, err := state.TrackedBalance(id, inscriptions.CategoryCollateral, 0)
	require.NoError(t, err)
	require.Zero(t, collateral.Cmp(big.NewInt(77)))
	slotOne, err := state.TrackedBalance(id, inscriptions.CategoryDebt, 1)
	require.NoError(t, err)
	require.Zero(t, slotOne.Cmp(big.NewInt(5)))
}

func TestEscrowUnitRoundTrip(t *testing.T) {
	state := newTestState(t)
	rec := &custody.UnitRecord{
		Address:     [20]byte{0x0E},
		Inscription: [32]byte{0xAA},
		Owner:       [20]byte{0x01},
		Locked:      true,
		Allowed:     []string{custody.OpTransferFungible, custody.OpTransferNonFungible},
	}
	require.NoError(t, state.EscrowUnitPut(rec))

	loaded, ok := state.EscrowUnitGet(rec.Inscription)
	require.True(t, ok)
	require.Equal(t, rec, loaded)

	_, ok = state.EscrowUnitGet([32]byte{0xBB})
	require.False(t, ok)
}

func TestOrderRecordRoundTrip(t *testing.T) {
	state := newTestState(t)
	hash := [32]byte{0xAA}

	_, ok := state.OrderRecordGet(hash)
	require.False(t, ok)

	rec := &orderbook.OrderRecord{Registered: true, FilledBps: 4_000}
	require.NoError(t, state.OrderRecordPut(hash, rec))
	loaded, ok := state.OrderRecordGet(hash)
	require.True(t, ok)
	require.Equal(t, rec, loaded)
}

func TestMakerNonceRoundTrip(t *testing.T) {
	state := newTestState(t)
	maker := [20]byte{0x0C}

	nonce, err := state.MakerMinNonce(maker)
	require.NoError(t, err)
	require.Zero(t, nonce)

	require.NoError(t, state.SetMakerMinNonce(maker, 42))
	nonce, err = state.MakerMinNonce(maker)
	require.NoError(t, err)
	require.EqualValues(t, 42, nonce)
}

func TestAccountRoundTrip(t *testing.T) {
	state := newTestState(t)
	addr := [20]byte{0x0A}

	acc, err := state.GetAccount(addr)
	require.NoError(t, err)
	require.NotNil(t, acc.Fungible)
	require.Zero(t, acc.Nonce)

	acc.Nonce = 3
	acc.Fungible["gold"] = big.NewInt(1_000)
	acc.NonFungible["deed"] = []uint64{7, 9}
	acc.SemiFungible["shards/3"] = big.NewInt(12)
	acc.OwnershipTokens = append(acc.OwnershipTokens, []byte{0xAA, 0xBB})
	require.NoError(t, state.PutAccount(addr, acc))

	loaded, err := state.GetAccount(addr)
	require.NoError(t, err)
	require.Equal(t, acc, loaded)
}

func TestTransactionOverlay(t *testing.T) {
	state := newTestState(t)
	before := &inscriptions.Inscription{ID: [32]byte{0x01}, IssuedBps: 1_000}
	require.NoError(t, state.InscriptionPut(before))

	// Buffered writes are visible to reads but discarded without a commit.
	state.Begin()
	mutated := &inscriptions.Inscription{ID: [32]byte{0x01}, IssuedBps: 2_000}
	require.NoError(t, state.InscriptionPut(mutated))
	seen, ok := state.InscriptionGet(before.ID)
	require.True(t, ok)
	require.EqualValues(t, 2_000, seen.IssuedBps)
	state.Discard()

	kept, ok := state.InscriptionGet(before.ID)
	require.True(t, ok)
	require.EqualValues(t, 1_000, kept.IssuedBps)

	// A committed buffer lands, including buffered deletes.
	state.Begin()
	require.NoError(t, state.InscriptionPut(mutated))
	require.NoError(t, state.InscriptionDelete([32]byte{0x02}))
	require.NoError(t, state.Commit())

	committed, ok := state.InscriptionGet(before.ID)
	require.True(t, ok)
	require.EqualValues(t, 2_000, committed.IssuedBps)
}
