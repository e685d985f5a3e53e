// Package node wires the blockchain, state and miner packages into a
// running ring peer: mempool ingestion, the mining loop, gossip fan-out
// and the HTTP transport.
//
// Grounded on original_source/node.py and original_source/broadcaster.py,
// styled after the teacher's networks/p2p client dial/send shape and
// work/worker.go's dedicated-goroutine mining loop.
package node

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ringcoin/node/log"
)

// PeerInfo locates one ring member.
type PeerInfo struct {
	IP   string `json:"ip"`
	Port string `json:"port"`
}

func (p PeerInfo) baseURL() string {
	return fmt.Sprintf("http://%s:%s", p.IP, p.Port)
}

// Gossip fans messages out to every other member of a fixed ring over
// HTTP POST, one goroutine per peer, best-effort (broadcaster.py logs and
// swallows individual peer failures rather than aborting the round).
type Gossip struct {
	selfID string
	client *http.Client

	mu    sync.RWMutex
	peers map[string]PeerInfo
}

// NewGossip returns a Gossip fanning out on behalf of selfID, which is
// never included in its own broadcasts.
func NewGossip(selfID string) *Gossip {
	return &Gossip{
		selfID: selfID,
		client: &http.Client{Timeout: 5 * time.Second},
		peers:  make(map[string]PeerInfo),
	}
}

// SetRing replaces the full peer set, e.g. on receipt of a bootstrap's
// /ring push.
func (g *Gossip) SetRing(peers map[string]PeerInfo) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.peers = make(map[string]PeerInfo, len(peers))
	for id, p := range peers {
		g.peers[id] = p
	}
}

// AddPeer installs or replaces a single ring member.
func (g *Gossip) AddPeer(id string, p PeerInfo) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.peers[id] = p
}

// Snapshot returns a copy of the current peer set, suitable for
// embedding in a /ring push or a /distribute response.
func (g *Gossip) Snapshot() map[string]PeerInfo {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make(map[string]PeerInfo, len(g.peers))
	for id, p := range g.peers {
		out[id] = p
	}
	return out
}

// Count returns the number of known ring members, including self when
// self has been added (the bootstrap adds itself at construction).
func (g *Gossip) Count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.peers)
}

// Broadcast posts payload as JSON to endpoint on every known peer
// concurrently. Each peer gets its own goroutine and a bounded timeout;
// a single peer's failure is logged and does not affect the others, the
// way broadcaster.py's thread pool treats each post independently.
func (g *Gossip) Broadcast(ctx context.Context, endpoint string, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Errorw("gossip marshal failed", "endpoint", endpoint, "error", err)
		return
	}

	g.mu.RLock()
	targets := make([]PeerInfo, 0, len(g.peers))
	for id, p := range g.peers {
		if id == g.selfID {
			continue
		}
		targets = append(targets, p)
	}
	g.mu.RUnlock()

	var wg sync.WaitGroup
	for _, peer := range targets {
		wg.Add(1)
		go func(p PeerInfo) {
			defer wg.Done()
			g.post(ctx, p, endpoint, body)
		}(peer)
	}
	wg.Wait()
}

func (g *Gossip) post(ctx context.Context, p PeerInfo, endpoint string, body []byte) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL()+endpoint, bytes.NewReader(body))
	if err != nil {
		log.Warnw("gossip request build failed", "peer", p.baseURL(), "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		log.Warnw("gossip post failed", "peer", p.baseURL(), "endpoint", endpoint, "error", err)
		return
	}
	defer resp.Body.Close()
}

// Get issues a GET to url and decodes the JSON response into out.
func Get(ctx context.Context, client *http.Client, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(out)
}

// Post issues a POST of payload as JSON to url and decodes the JSON
// response into out, if out is non-nil.
func Post(ctx context.Context, client *http.Client, url string, payload, out interface{}) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if out != nil {
		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp, err
		}
	}
	return resp, nil
}
