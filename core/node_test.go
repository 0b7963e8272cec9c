package core

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"deedshare/native/dividends"
	"deedshare/native/marketplace"
	"deedshare/native/shares"
	"deedshare/storage"
)

func testAddr(fill byte) [20]byte {
	var addr [20]byte
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

var (
	admin    = testAddr(0xAA)
	treasury = testAddr(0xBB)
	alice    = testAddr(0x01)
	bob      = testAddr(0x02)
)

func newTestNode(t *testing.T, feeBps uint32) *Node {
	t.Helper()
	node, err := NewNode(storage.NewMemDB(), Params{
		Admin:    admin,
		Treasury: treasury,
		FeeBps:   feeBps,
	}, &Genesis{Allocations: []GenesisAlloc{
		{Address: admin, Balance: big.NewInt(1_000_000)},
		{Address: alice, Balance: big.NewInt(100_000)},
		{Address: bob, Balance: big.NewInt(100_000)},
	}})
	require.NoError(t, err)
	return node
}

func fundsOf(t *testing.T, node *Node, addr [20]byte) *big.Int {
	t.Helper()
	acc, err := node.GetAccount(addr)
	require.NoError(t, err)
	return acc.Balance
}

func TestGenesisWiring(t *testing.T) {
	node := newTestNode(t, 100)

	registryOwner, marketplaceOwner, err := node.Owners()
	require.NoError(t, err)
	require.Equal(t, admin, marketplaceOwner)
	require.Equal(t, InventoryAddress, registryOwner)
	require.Equal(t, int64(100_000), fundsOf(t, node, alice).Int64())
}

func TestGenesisAppliesOnce(t *testing.T) {
	db := storage.NewMemDB()
	genesis := &Genesis{Allocations: []GenesisAlloc{{Address: alice, Balance: big.NewInt(500)}}}
	params := Params{Admin: admin, Treasury: treasury, FeeBps: 100}

	node, err := NewNode(db, params, genesis)
	require.NoError(t, err)
	require.Equal(t, int64(500), fundsOf(t, node, alice).Int64())

	// Reopening over the same database must not double the allocation.
	reopened, err := NewNode(db, params, genesis)
	require.NoError(t, err)
	require.Equal(t, int64(500), fundsOf(t, reopened, alice).Int64())
}

func TestPrimarySaleScenario(t *testing.T) {
	node := newTestNode(t, 100)

	prop, err := node.CreateProperty("Dockside Lofts", "ipfs://dockside", 1000, big.NewInt(50), admin)
	require.NoError(t, err)
	require.Equal(t, uint64(1), prop.ID)

	supply, err := node.TotalShares(prop.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(1000), supply)

	inventory, err := node.BalanceOf(prop.ID, InventoryAddress)
	require.NoError(t, err)
	require.Equal(t, uint64(1000), inventory)

	refund, err := node.BuyShares(prop.ID, 100, big.NewInt(5_000), alice)
	require.NoError(t, err)
	require.Zero(t, refund.Sign())

	refund, err = node.BuyShares(prop.ID, 900, big.NewInt(46_000), bob)
	require.NoError(t, err)
	require.Equal(t, int64(1_000), refund.Int64())

	aliceShares, err := node.BalanceOf(prop.ID, alice)
	require.NoError(t, err)
	require.Equal(t, uint64(100), aliceShares)
	bobShares, err := node.BalanceOf(prop.ID, bob)
	require.NoError(t, err)
	require.Equal(t, uint64(900), bobShares)

	// Inventory is exhausted; the next purchase fails whole.
	_, err = node.BuyShares(prop.ID, 1, big.NewInt(50), alice)
	require.ErrorIs(t, err, marketplace.ErrInsufficientInventory)

	// 100*50 + 900*50 = 50_000 in the treasury.
	require.Equal(t, int64(50_000), fundsOf(t, node, treasury).Int64())
	require.Equal(t, int64(95_000), fundsOf(t, node, alice).Int64())
	require.Equal(t, int64(55_000), fundsOf(t, node, bob).Int64())
}

func TestDividendScenario(t *testing.T) {
	node := newTestNode(t, 100)
	prop, err := node.CreateProperty("Dockside Lofts", "", 1000, big.NewInt(50), admin)
	require.NoError(t, err)
	_, err = node.BuyShares(prop.ID, 100, big.NewInt(5_000), alice)
	require.NoError(t, err)
	_, err = node.BuyShares(prop.ID, 900, big.NewInt(45_000), bob)
	require.NoError(t, err)

	require.NoError(t, node.DepositDividends(prop.ID, big.NewInt(4_000), admin))

	claimable, err := node.ClaimablePreview(prop.ID, alice)
	require.NoError(t, err)
	require.Equal(t, int64(400), claimable.Int64())

	payout, err := node.ClaimDividends(prop.ID, alice)
	require.NoError(t, err)
	require.Equal(t, int64(400), payout.Int64())

	// A second claim with no new deposits fails and pays nothing.
	_, err = node.ClaimDividends(prop.ID, alice)
	require.ErrorIs(t, err, dividends.ErrNothingToClaim)

	payout, err = node.ClaimDividends(prop.ID, bob)
	require.NoError(t, err)
	require.Equal(t, int64(3_600), payout.Int64())

	// The pool is fully drained, nothing stranded.
	require.Zero(t, fundsOf(t, node, DividendPoolAddress).Sign())

	total, err := node.TotalDividendsDeposited(prop.ID)
	require.NoError(t, err)
	require.Equal(t, int64(4_000), total.Int64())
}

func TestTransferCheckpointsEntitlements(t *testing.T) {
	node := newTestNode(t, 100)
	prop, err := node.CreateProperty("Dockside Lofts", "", 1000, big.NewInt(50), admin)
	require.NoError(t, err)
	_, err = node.BuyShares(prop.ID, 1000, big.NewInt(50_000), alice)
	require.NoError(t, err)

	require.NoError(t, node.DepositDividends(prop.ID, big.NewInt(1_000), admin))
	require.NoError(t, node.TransferShares(prop.ID, alice, bob, 1000))
	require.NoError(t, node.DepositDividends(prop.ID, big.NewInt(2_000), admin))

	payout, err := node.ClaimDividends(prop.ID, alice)
	require.NoError(t, err)
	require.Equal(t, int64(1_000), payout.Int64(), "seller keeps what accrued before the transfer")

	payout, err = node.ClaimDividends(prop.ID, bob)
	require.NoError(t, err)
	require.Equal(t, int64(2_000), payout.Int64(), "buyer accrues only from the post-transfer balance")
}

func TestListingLifecycleThroughNode(t *testing.T) {
	node := newTestNode(t, 250)
	prop, err := node.CreateProperty("Dockside Lofts", "", 1000, big.NewInt(50), admin)
	require.NoError(t, err)
	_, err = node.BuyShares(prop.ID, 100, big.NewInt(5_000), alice)
	require.NoError(t, err)

	listing, err := node.CreateListing(prop.ID, 40, big.NewInt(60), alice)
	require.NoError(t, err)
	require.Equal(t, marketplace.ListingOpen, listing.Status)

	aliceShares, err := node.BalanceOf(prop.ID, alice)
	require.NoError(t, err)
	require.Equal(t, uint64(60), aliceShares)

	refund, err := node.FillListing(listing.ID, big.NewInt(2_400), bob)
	require.NoError(t, err)
	require.Zero(t, refund.Sign())

	bobShares, err := node.BalanceOf(prop.ID, bob)
	require.NoError(t, err)
	require.Equal(t, uint64(40), bobShares)

	// total 2400, fee 2.5% = 60.
	require.Equal(t, int64(100_000-5_000+2_340), fundsOf(t, node, alice).Int64())

	listings, err := node.ListingsFor(prop.ID)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	require.Equal(t, marketplace.ListingFilled, listings[0].Status)
}

func TestFailedOperationLeavesNoTrace(t *testing.T) {
	node := newTestNode(t, 100)
	prop, err := node.CreateProperty("Dockside Lofts", "", 1000, big.NewInt(50), admin)
	require.NoError(t, err)
	_, err = node.BuyShares(prop.ID, 100, big.NewInt(5_000), alice)
	require.NoError(t, err)
	listing, err := node.CreateListing(prop.ID, 40, big.NewInt(60), alice)
	require.NoError(t, err)

	eventsBefore := node.EventLog().Len()
	fundsBefore := fundsOf(t, node, bob)

	// Bob tenders enough to pass the payment check but holds too little to
	// settle, so the fill aborts midway through its money movements.
	broke := testAddr(0x99)
	_, err = node.FillListing(listing.ID, big.NewInt(2_400), broke)
	require.Error(t, err)

	// Listing still open, escrow still holds the lot, no events leaked.
	got, err := node.GetListing(listing.ID)
	require.NoError(t, err)
	require.Equal(t, marketplace.ListingOpen, got.Status)
	escrowShares, err := node.BalanceOf(prop.ID, got.Escrow)
	require.NoError(t, err)
	require.Equal(t, uint64(40), escrowShares)
	require.Equal(t, eventsBefore, node.EventLog().Len())
	require.Equal(t, fundsBefore, fundsOf(t, node, bob))

	// The same listing still fills cleanly afterwards.
	_, err = node.FillListing(listing.ID, big.NewInt(2_400), bob)
	require.NoError(t, err)
}

func TestEventLogSequencesDensely(t *testing.T) {
	node := newTestNode(t, 100)
	prop, err := node.CreateProperty("Dockside Lofts", "", 1000, big.NewInt(50), admin)
	require.NoError(t, err)
	_, err = node.BuyShares(prop.ID, 10, big.NewInt(500), alice)
	require.NoError(t, err)

	records := node.Events(0, 0)
	require.NotEmpty(t, records)
	for i, rec := range records {
		require.Equal(t, uint64(i+1), rec.Sequence)
		require.NotNil(t, rec.Event)
		require.NotEmpty(t, rec.Event.Type)
	}

	// Paging picks up strictly after the cursor.
	tail := node.Events(records[0].Sequence, 0)
	require.Len(t, tail, len(records)-1)
}

func TestMintFundsGate(t *testing.T) {
	node := newTestNode(t, 100)

	require.ErrorIs(t, node.MintFunds(alice, big.NewInt(100), alice), marketplace.ErrNotOwner)
	require.NoError(t, node.MintFunds(alice, big.NewInt(100), admin))
	require.Equal(t, int64(100_100), fundsOf(t, node, alice).Int64())
}

func TestDirectTransferValidation(t *testing.T) {
	node := newTestNode(t, 100)
	prop, err := node.CreateProperty("Dockside Lofts", "", 1000, big.NewInt(50), admin)
	require.NoError(t, err)
	_, err = node.BuyShares(prop.ID, 10, big.NewInt(500), alice)
	require.NoError(t, err)

	require.ErrorIs(t, node.TransferShares(prop.ID, alice, bob, 0), shares.ErrZeroAmount)
	require.ErrorIs(t, node.TransferShares(prop.ID, alice, bob, 11), shares.ErrInsufficientBalance)
	require.NoError(t, node.TransferShares(prop.ID, alice, bob, 5))

	aliceShares, err := node.BalanceOf(prop.ID, alice)
	require.NoError(t, err)
	require.Equal(t, uint64(5), aliceShares)
}
