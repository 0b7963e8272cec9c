package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"deedshare/native/dividends"
	"deedshare/native/marketplace"
	"deedshare/native/registry"
	"deedshare/storage"
)

func testAddr(fill byte) [20]byte {
	var addr [20]byte
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(storage.NewMemDB())
}

func TestAccountRoundTrip(t *testing.T) {
	mgr := newTestManager(t)
	addr := testAddr(0x01)

	// Unknown accounts resolve to a zero balance, never an error.
	acc, err := mgr.GetAccount(addr)
	require.NoError(t, err)
	require.Equal(t, int64(0), acc.Balance.Int64())
	require.Equal(t, uint64(0), acc.Nonce)

	acc.Balance = big.NewInt(12345)
	acc.Nonce = 7
	require.NoError(t, mgr.PutAccount(addr, acc))

	loaded, err := mgr.GetAccount(addr)
	require.NoError(t, err)
	require.Equal(t, int64(12345), loaded.Balance.Int64())
	require.Equal(t, uint64(7), loaded.Nonce)
}

func TestPropertyRoundTripAndPagination(t *testing.T) {
	mgr := newTestManager(t)
	for i := 1; i <= 5; i++ {
		id, err := mgr.NextPropertyID()
		require.NoError(t, err)
		require.Equal(t, uint64(i), id)
		require.NoError(t, mgr.PropertyPut(&registry.Property{
			ID:                id,
			Title:             "Property",
			TotalShares:       100,
			InitialSharePrice: big.NewInt(10),
			CreatedBy:         testAddr(0xAA),
			CreatedAt:         1700000000,
			Active:            true,
		}))
	}

	count, err := mgr.PropertyCount()
	require.NoError(t, err)
	require.Equal(t, uint64(5), count)

	page, err := mgr.ListProperties(1, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, uint64(2), page[0].ID)
	require.Equal(t, uint64(3), page[1].ID)

	rest, err := mgr.ListProperties(3, 0)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	require.Equal(t, uint64(4), rest[0].ID)

	none, err := mgr.ListProperties(10, 5)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestPropertyPutRejectsInvalid(t *testing.T) {
	mgr := newTestManager(t)
	err := mgr.PropertyPut(&registry.Property{ID: 1, Title: "", TotalShares: 100, InitialSharePrice: big.NewInt(1)})
	require.Error(t, err)
}

func TestShareStateRoundTrip(t *testing.T) {
	mgr := newTestManager(t)
	addr := testAddr(0x01)

	_, exists, err := mgr.ShareSupply(1)
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, mgr.SetShareSupply(1, 1000))
	supply, exists, err := mgr.ShareSupply(1)
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, uint64(1000), supply)

	bal, err := mgr.ShareBalance(1, addr)
	require.NoError(t, err)
	require.Equal(t, uint64(0), bal)

	require.NoError(t, mgr.SetShareBalance(1, addr, 250))
	bal, err = mgr.ShareBalance(1, addr)
	require.NoError(t, err)
	require.Equal(t, uint64(250), bal)

	// Balances of different properties never collide.
	other, err := mgr.ShareBalance(2, addr)
	require.NoError(t, err)
	require.Equal(t, uint64(0), other)
}

func TestAccrualRoundTrip(t *testing.T) {
	mgr := newTestManager(t)

	_, ok, err := mgr.AccrualGet(1)
	require.NoError(t, err)
	require.False(t, ok)

	acc := &dividends.Accrual{
		CumulativePerShare: big.NewInt(123456789),
		TotalDeposited:     big.NewInt(5000),
		Residue:            big.NewInt(17),
	}
	require.NoError(t, mgr.AccrualPut(1, acc))

	loaded, ok, err := mgr.AccrualGet(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Zero(t, loaded.CumulativePerShare.Cmp(acc.CumulativePerShare))
	require.Zero(t, loaded.TotalDeposited.Cmp(acc.TotalDeposited))
	require.Zero(t, loaded.Residue.Cmp(acc.Residue))
}

func TestCheckpointRoundTrip(t *testing.T) {
	mgr := newTestManager(t)
	addr := testAddr(0x01)

	_, ok, err := mgr.CheckpointGet(1, addr)
	require.NoError(t, err)
	require.False(t, ok)

	cp := &dividends.HolderCheckpoint{
		LastCumulative: big.NewInt(999),
		Unclaimed:      big.NewInt(42),
	}
	require.NoError(t, mgr.CheckpointPut(1, addr, cp))

	loaded, ok, err := mgr.CheckpointGet(1, addr)
	require.NoError(t, err)
	require.True(t, ok)
	require.Zero(t, loaded.LastCumulative.Cmp(cp.LastCumulative))
	require.Zero(t, loaded.Unclaimed.Cmp(cp.Unclaimed))
}

func TestListingRoundTripAndIndex(t *testing.T) {
	mgr := newTestManager(t)

	id, err := mgr.NextListingID()
	require.NoError(t, err)
	require.Equal(t, uint64(1), id)

	listing := &marketplace.Listing{
		ID:            id,
		Seller:        testAddr(0x01),
		PropertyID:    7,
		Amount:        40,
		PricePerShare: big.NewInt(60),
		Escrow:        testAddr(0xEE),
		Status:        marketplace.ListingOpen,
		CreatedAt:     1700000000,
	}
	require.NoError(t, mgr.ListingPut(listing))
	require.NoError(t, mgr.ListingIndexProperty(7, id))

	loaded, ok, err := mgr.ListingGet(id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, listing.Seller, loaded.Seller)
	require.Equal(t, marketplace.ListingOpen, loaded.Status)
	require.Equal(t, int64(1700000000), loaded.CreatedAt)

	byProperty, err := mgr.ListingsByProperty(7)
	require.NoError(t, err)
	require.Len(t, byProperty, 1)
	require.Equal(t, id, byProperty[0].ID)

	empty, err := mgr.ListingsByProperty(8)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestOwnerRoundTrip(t *testing.T) {
	mgr := newTestManager(t)
	admin := testAddr(0xAA)
	inventory := testAddr(0xBB)

	require.NoError(t, mgr.SetMarketplaceOwner(admin))
	require.NoError(t, mgr.SetRegistryOwner(inventory))

	marketOwner, err := mgr.MarketplaceOwner()
	require.NoError(t, err)
	require.Equal(t, admin, marketOwner)

	registryOwner, err := mgr.RegistryOwner()
	require.NoError(t, err)
	require.Equal(t, inventory, registryOwner)
}

func TestGenesisFlag(t *testing.T) {
	mgr := newTestManager(t)
	applied, err := mgr.GenesisApplied()
	require.NoError(t, err)
	require.False(t, applied)

	require.NoError(t, mgr.SetGenesisApplied())
	applied, err = mgr.GenesisApplied()
	require.NoError(t, err)
	require.True(t, applied)
}
