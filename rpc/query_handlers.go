package rpc

import (
	"net/http"
)

type propertyIDParams struct {
	PropertyID uint64 `json:"propertyId"`
}

type listPropertiesParams struct {
	Offset uint64 `json:"offset,omitempty"`
	Limit  uint64 `json:"limit,omitempty"`
}

type listingIDParams struct {
	ListingID uint64 `json:"listingId"`
}

type shareBalanceParams struct {
	PropertyID uint64 `json:"propertyId"`
	Address    string `json:"address"`
}

type addressParams struct {
	Address string `json:"address"`
}

type listEventsParams struct {
	After uint64 `json:"after,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

type shareBalanceResult struct {
	PropertyID  uint64 `json:"propertyId"`
	Address     string `json:"address"`
	Balance     uint64 `json:"balance"`
	TotalShares uint64 `json:"totalShares"`
}

type accountResult struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
	Nonce   uint64 `json:"nonce"`
}

type claimableResult struct {
	PropertyID uint64 `json:"propertyId"`
	Address    string `json:"address"`
	Claimable  string `json:"claimable"`
}

type dividendTotalsResult struct {
	PropertyID     uint64 `json:"propertyId"`
	TotalDeposited string `json:"totalDeposited"`
}

type ownersResult struct {
	RegistryOwner    string `json:"registryOwner"`
	MarketplaceOwner string `json:"marketplaceOwner"`
}

func (s *Server) handleGetProperty(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params propertyIDParams
	if !decodeParams(w, req, &params) {
		return
	}
	prop, err := s.node.GetProperty(params.PropertyID)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatProperty(prop))
}

func (s *Server) handleListProperties(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	params := listPropertiesParams{}
	if len(req.Params) > 0 && !decodeParams(w, req, &params) {
		return
	}
	props, err := s.node.ListProperties(params.Offset, params.Limit)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	out := make([]*propertyJSON, 0, len(props))
	for _, prop := range props {
		out = append(out, formatProperty(prop))
	}
	writeResult(w, req.ID, out)
}

func (s *Server) handleGetListing(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params listingIDParams
	if !decodeParams(w, req, &params) {
		return
	}
	listing, err := s.node.GetListing(params.ListingID)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatListing(listing))
}

func (s *Server) handleListListings(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params propertyIDParams
	if !decodeParams(w, req, &params) {
		return
	}
	listings, err := s.node.ListingsFor(params.PropertyID)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	out := make([]*listingJSON, 0, len(listings))
	for _, listing := range listings {
		out = append(out, formatListing(listing))
	}
	writeResult(w, req.ID, out)
}

func (s *Server) handleGetShareBalance(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params shareBalanceParams
	if !decodeParams(w, req, &params) {
		return
	}
	addr, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	balance, err := s.node.BalanceOf(params.PropertyID, addr)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	supply, err := s.node.TotalShares(params.PropertyID)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, shareBalanceResult{
		PropertyID:  params.PropertyID,
		Address:     formatAddress(addr),
		Balance:     balance,
		TotalShares: supply,
	})
}

func (s *Server) handleGetAccount(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params addressParams
	if !decodeParams(w, req, &params) {
		return
	}
	addr, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	account, err := s.node.GetAccount(addr)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, accountResult{
		Address: formatAddress(addr),
		Balance: formatBig(account.Balance),
		Nonce:   account.Nonce,
	})
}

func (s *Server) handleGetClaimable(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params shareBalanceParams
	if !decodeParams(w, req, &params) {
		return
	}
	addr, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	claimable, err := s.node.ClaimablePreview(params.PropertyID, addr)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, claimableResult{
		PropertyID: params.PropertyID,
		Address:    formatAddress(addr),
		Claimable:  formatBig(claimable),
	})
}

func (s *Server) handleGetDividendTotals(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params propertyIDParams
	if !decodeParams(w, req, &params) {
		return
	}
	total, err := s.node.TotalDividendsDeposited(params.PropertyID)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, dividendTotalsResult{
		PropertyID:     params.PropertyID,
		TotalDeposited: formatBig(total),
	})
}

func (s *Server) handleGetOwners(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	registryOwner, marketplaceOwner, err := s.node.Owners()
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, ownersResult{
		RegistryOwner:    formatAddress(registryOwner),
		MarketplaceOwner: formatAddress(marketplaceOwner),
	})
}

func (s *Server) handleListEvents(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	params := listEventsParams{}
	if len(req.Params) > 0 && !decodeParams(w, req, &params) {
		return
	}
	records := s.node.Events(params.After, params.Limit)
	writeResult(w, req.ID, formatRecords(records))
}
