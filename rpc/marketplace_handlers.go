package rpc

import (
	"encoding/json"
	"net/http"
)

type createPropertyParams struct {
	Title             string `json:"title"`
	MetadataRef       string `json:"metadataRef,omitempty"`
	TotalShares       uint64 `json:"totalShares"`
	InitialSharePrice string `json:"initialSharePrice"`
	Caller            string `json:"caller"`
}

type setPropertyActiveParams struct {
	PropertyID uint64 `json:"propertyId"`
	Active     bool   `json:"active"`
	Caller     string `json:"caller"`
}

type transferOwnershipParams struct {
	NewOwner string `json:"newOwner"`
	Caller   string `json:"caller"`
}

type buySharesParams struct {
	PropertyID uint64 `json:"propertyId"`
	Amount     uint64 `json:"amount"`
	Payment    string `json:"payment"`
	Buyer      string `json:"buyer"`
}

type transferSharesParams struct {
	PropertyID uint64 `json:"propertyId"`
	From       string `json:"from"`
	To         string `json:"to"`
	Amount     uint64 `json:"amount"`
}

type createListingParams struct {
	PropertyID    uint64 `json:"propertyId"`
	Amount        uint64 `json:"amount"`
	PricePerShare string `json:"pricePerShare"`
	Caller        string `json:"caller"`
}

type listingActionParams struct {
	ListingID uint64 `json:"listingId"`
	Caller    string `json:"caller"`
}

type fillListingParams struct {
	ListingID uint64 `json:"listingId"`
	Payment   string `json:"payment"`
	Caller    string `json:"caller"`
}

type dividendDepositParams struct {
	PropertyID uint64 `json:"propertyId"`
	Amount     string `json:"amount"`
	Caller     string `json:"caller"`
}

type dividendClaimParams struct {
	PropertyID uint64 `json:"propertyId"`
	Caller     string `json:"caller"`
}

type mintFundsParams struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
	Caller string `json:"caller"`
}

type refundResult struct {
	Refund string `json:"refund"`
}

type payoutResult struct {
	Payout string `json:"payout"`
}

// decodeParams unmarshals the single parameter object every ds_ method takes.
func decodeParams(w http.ResponseWriter, req *RPCRequest, out interface{}) bool {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", "exactly one parameter object expected")
		return false
	}
	if err := json.Unmarshal(req.Params[0], out); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return false
	}
	return true
}

func (s *Server) handleCreateProperty(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params createPropertyParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	price, err := parsePositiveBigInt(params.InitialSharePrice)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	prop, err := s.node.CreateProperty(params.Title, params.MetadataRef, params.TotalShares, price, caller)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatProperty(prop))
}

func (s *Server) handleSetPropertyActive(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params setPropertyActiveParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	if err := s.node.SetPropertyActive(params.PropertyID, params.Active, caller); err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleTransferOwnership(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params transferOwnershipParams
	if !decodeParams(w, req, &params) {
		return
	}
	newOwner, err := parseAddress(params.NewOwner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	if err := s.node.TransferMarketplaceOwnership(newOwner, caller); err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleBuyShares(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params buySharesParams
	if !decodeParams(w, req, &params) {
		return
	}
	buyer, err := parseAddress(params.Buyer)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	payment, err := parsePositiveBigInt(params.Payment)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	refund, err := s.node.BuyShares(params.PropertyID, params.Amount, payment, buyer)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, refundResult{Refund: formatBig(refund)})
}

func (s *Server) handleTransferShares(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params transferSharesParams
	if !decodeParams(w, req, &params) {
		return
	}
	from, err := parseAddress(params.From)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	to, err := parseAddress(params.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	if err := s.node.TransferShares(params.PropertyID, from, to, params.Amount); err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleCreateListing(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params createListingParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	price, err := parsePositiveBigInt(params.PricePerShare)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	listing, err := s.node.CreateListing(params.PropertyID, params.Amount, price, caller)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatListing(listing))
}

func (s *Server) handleCancelListing(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params listingActionParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	if err := s.node.CancelListing(params.ListingID, caller); err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleFillListing(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params fillListingParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	payment, err := parsePositiveBigInt(params.Payment)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	refund, err := s.node.FillListing(params.ListingID, payment, caller)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, refundResult{Refund: formatBig(refund)})
}

func (s *Server) handleDepositDividends(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params dividendDepositParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	amount, err := parsePositiveBigInt(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	if err := s.node.DepositDividends(params.PropertyID, amount, caller); err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleClaimDividends(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params dividendClaimParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	payout, err := s.node.ClaimDividends(params.PropertyID, caller)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, payoutResult{Payout: formatBig(payout)})
}

func (s *Server) handleMintFunds(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params mintFundsParams
	if !decodeParams(w, req, &params) {
		return
	}
	to, err := parseAddress(params.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	amount, err := parsePositiveBigInt(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	if err := s.node.MintFunds(to, amount, caller); err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}
