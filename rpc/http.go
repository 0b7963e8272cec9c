package rpc

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"deedshare/core"
	"deedshare/observability"
	"deedshare/observability/logging"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
	codeNotFound       = -32002
	codeForbidden      = -32003
	codeConflict       = -32004
)

type Server struct {
	node      *core.Node
	authToken string
}

// NewServer wires the RPC surface over a node. Mutating methods require the
// bearer token from DEEDSHARE_RPC_TOKEN; when it is unset they are rejected.
func NewServer(node *core.Node) *Server {
	token := strings.TrimSpace(os.Getenv("DEEDSHARE_RPC_TOKEN"))
	return &Server{node: node, authToken: token}
}

func (s *Server) Start(addr string) error {
	slog.Info("starting JSON-RPC server", "addr", addr)
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	return http.ListenAndServe(addr, mux)
}

// Handler exposes the RPC entry point for embedding in a custom mux.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.handle)
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

// handle is the main request handler that routes to specific handlers.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	w = recorder

	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	defer func() {
		observability.ModuleMetrics().Observe(req.Method, recorder.status, time.Since(start))
	}()

	switch req.Method {
	case "ds_createProperty":
		if !s.authorize(w, r, req) {
			return
		}
		s.handleCreateProperty(w, r, req)
	case "ds_setPropertyActive":
		if !s.authorize(w, r, req) {
			return
		}
		s.handleSetPropertyActive(w, r, req)
	case "ds_transferOwnership":
		if !s.authorize(w, r, req) {
			return
		}
		s.handleTransferOwnership(w, r, req)
	case "ds_buyShares":
		if !s.authorize(w, r, req) {
			return
		}
		s.handleBuyShares(w, r, req)
	case "ds_transferShares":
		if !s.authorize(w, r, req) {
			return
		}
		s.handleTransferShares(w, r, req)
	case "ds_createListing":
		if !s.authorize(w, r, req) {
			return
		}
		s.handleCreateListing(w, r, req)
	case "ds_cancelListing":
		if !s.authorize(w, r, req) {
			return
		}
		s.handleCancelListing(w, r, req)
	case "ds_fillListing":
		if !s.authorize(w, r, req) {
			return
		}
		s.handleFillListing(w, r, req)
	case "ds_depositDividends":
		if !s.authorize(w, r, req) {
			return
		}
		s.handleDepositDividends(w, r, req)
	case "ds_claimDividends":
		if !s.authorize(w, r, req) {
			return
		}
		s.handleClaimDividends(w, r, req)
	case "ds_mintFunds":
		if !s.authorize(w, r, req) {
			return
		}
		s.handleMintFunds(w, r, req)
	case "ds_getProperty":
		s.handleGetProperty(w, r, req)
	case "ds_listProperties":
		s.handleListProperties(w, r, req)
	case "ds_getListing":
		s.handleGetListing(w, r, req)
	case "ds_listListings":
		s.handleListListings(w, r, req)
	case "ds_getShareBalance":
		s.handleGetShareBalance(w, r, req)
	case "ds_getAccount":
		s.handleGetAccount(w, r, req)
	case "ds_getClaimable":
		s.handleGetClaimable(w, r, req)
	case "ds_getDividendTotals":
		s.handleGetDividendTotals(w, r, req)
	case "ds_getOwners":
		s.handleGetOwners(w, r, req)
	case "ds_listEvents":
		s.handleListEvents(w, r, req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("method %q not found", req.Method), nil)
	}
}

func (s *Server) authorize(w http.ResponseWriter, r *http.Request, req *RPCRequest) bool {
	if authErr := s.requireAuth(r); authErr != nil {
		slog.Warn("rpc auth failed",
			slog.String("method", req.Method),
			logging.MaskField("authorization", r.Header.Get("Authorization")),
		)
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return false
	}
	return true
}

func (s *Server) requireAuth(r *http.Request) *RPCError {
	if s.authToken == "" {
		return &RPCError{Code: codeUnauthorized, Message: "RPC authentication token not configured"}
	}
	header := r.Header.Get("Authorization")
	if header == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing Authorization header"}
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return &RPCError{Code: codeUnauthorized, Message: "Authorization header must use Bearer scheme"}
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing bearer token"}
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
		return &RPCError{Code: codeUnauthorized, Message: "invalid RPC credentials"}
	}
	return nil
}
