package state

var (
	accountPrefix       = []byte("accounts/")
	propertyPrefix      = []byte("registry/property/")
	propertyNextIDKey   = []byte("registry/next-id")
	registryOwnerKey    = []byte("registry/owner")
	marketplaceOwnerKey = []byte("marketplace/owner")
	shareSupplyPrefix   = []byte("shares/supply/")
	shareBalancePrefix  = []byte("shares/balance/")
	accrualPrefix       = []byte("dividends/accrual/")
	checkpointPrefix    = []byte("dividends/checkpoint/")
	listingPrefix       = []byte("marketplace/listing/")
	listingNextIDKey    = []byte("marketplace/next-listing-id")
	listingIndexPrefix  = []byte("marketplace/listings-by-property/")
	genesisAppliedKey   = []byte("genesis/applied")
)
