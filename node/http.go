package node

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/ringcoin/node/blockchain"
	"github.com/ringcoin/node/common"
	"github.com/ringcoin/node/log"
)

// Server is the node's HTTP transport: every endpoint in spec.md §6 plus
// /metrics and /healthz, routed with httprouter and wrapped in
// permissive CORS the way a wallet running from a browser needs.
type Server struct {
	node *Node
	mux  http.Handler
}

// NewServer builds the routed handler for n. bootstrapIP authorizes
// /ring pushes: only a request whose remote address matches it is
// accepted, the way node.py checks request.remote_addr against the
// configured bootstrap.
func NewServer(n *Node, bootstrapIP string) *Server {
	r := httprouter.New()
	s := &Server{node: n}

	r.GET("/info", s.handleInfo)
	r.POST("/candidate-transaction", s.handleCandidateTransaction)
	r.POST("/transaction", s.handleTransaction)
	r.GET("/view", s.handleView)
	r.POST("/balance", s.handleBalance)
	r.POST("/block", s.handleBlock)
	r.POST("/registration", s.handleRegistration)
	r.GET("/distribute", s.handleDistribute)
	r.POST("/ring", s.handleSetRing(bootstrapIP))
	r.POST("/make-genesis", s.handleMakeGenesis)
	r.GET("/healthz", s.handleHealthz)
	r.Handler(http.MethodGet, "/metrics", promhttp.Handler())

	s.mux = cors.AllowAll().Handler(r)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	s.mux.ServeHTTP(w, req)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	log.Warnw("request failed", "status", status, "error", err)
	http.Error(w, err.Error(), status)
}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, s.node.Info())
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type candidateTransactionRequest struct {
	SenderAddress    common.Address `json:"sender_address"`
	RecipientAddress common.Address `json:"recipient_address"`
	Amount           uint64         `json:"amount"`
}

func (s *Server) handleCandidateTransaction(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	var body candidateTransactionRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	tx, err := s.node.CreateTransaction(
		body.SenderAddress.Normalize(),
		body.RecipientAddress.Normalize(),
		body.Amount,
	)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleTransaction(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	var env TransactionEnvelope
	if err := json.NewDecoder(req.Body).Decode(&env); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	tx, err := env.Transaction()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.node.CommitTransaction(req.Context(), tx, env.IsLocal); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	transactionsReceived.Inc()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Transaction received"})
}

func (s *Server) handleView(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, s.node.ViewTransactions())
}

type balanceRequest struct {
	UserAddress common.Address `json:"user_address"`
}

func (s *Server) handleBalance(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	var body balanceRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	balance := s.node.Balance(body.UserAddress.Normalize())
	writeJSON(w, http.StatusOK, map[string]uint64{"balance": balance})
}

func (s *Server) handleBlock(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	var b blockchain.Block
	if err := json.NewDecoder(req.Body).Decode(&b); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.node.GetBlock(&b); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	blocksReceived.Inc()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Block accepted"})
}

type registrationRequest struct {
	Port string `json:"port"`
}

func (s *Server) handleRegistration(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	if !s.node.IsBootstrap() {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("not the bootstrap node"))
		return
	}
	var body registrationRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ip := remoteIP(req)
	id, err := s.node.StoreNode(ip, body.Port)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"node_id": id})
}

func (s *Server) handleDistribute(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	if !s.node.IsBootstrap() {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("not the bootstrap node"))
		return
	}
	ring, err := s.node.Distribute()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}

	ctx := context.Background()
	for id, peer := range ring {
		peer := peer
		go func(id string, p PeerInfo) {
			if _, err := Post(ctx, http.DefaultClient, p.baseURL()+"/ring", ring, nil); err != nil {
				log.Warnw("ring push failed", "peer", id, "error", err)
			}
		}(id, peer)
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Startup finished"})
}

func (s *Server) handleSetRing(bootstrapIP string) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
		if bootstrapIP != "" && remoteIP(req) != bootstrapIP {
			writeError(w, http.StatusForbidden, fmt.Errorf("ring push must originate from the bootstrap"))
			return
		}
		var ring map[string]PeerInfo
		if err := json.NewDecoder(req.Body).Decode(&ring); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		s.node.SetRing(ring)
		writeJSON(w, http.StatusOK, map[string]string{"message": "Ring installed"})
	}
}

type makeGenesisRequest struct {
	OriginalPublicKey common.Address `json:"original_public_key"`
}

func (s *Server) handleMakeGenesis(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	if !s.node.IsBootstrap() {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("not the bootstrap node"))
		return
	}
	var body makeGenesisRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.node.MakeGenesisBlock(req.Context(), body.OriginalPublicKey.Normalize()); err != nil {
		writeError(w, http.StatusMethodNotAllowed, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Genesis block broadcasted"})
}

func remoteIP(req *http.Request) string {
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}
