package node

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGossipBroadcastReachesEveryPeer(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	u, err := urlHostPort(srv.URL)
	require.NoError(t, err)

	g := NewGossip("0")
	g.AddPeer("1", PeerInfo{IP: u.host, Port: u.port})
	g.AddPeer("2", PeerInfo{IP: u.host, Port: u.port})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	g.Broadcast(ctx, "/block", map[string]string{"hello": "world"})

	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))
}

func TestGossipSnapshotIsACopy(t *testing.T) {
	g := NewGossip("0")
	g.AddPeer("1", PeerInfo{IP: "127.0.0.1", Port: "6000"})

	snap := g.Snapshot()
	snap["2"] = PeerInfo{IP: "127.0.0.1", Port: "6001"}

	assert.Equal(t, 1, g.Count())
}

func TestPostDecodesJSONResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"node_id": "3"})
	}))
	defer srv.Close()

	var out struct {
		NodeID string `json:"node_id"`
	}
	_, err := Post(context.Background(), http.DefaultClient, srv.URL, map[string]string{"port": "7000"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "3", out.NodeID)
}

type hostPort struct{ host, port string }

func urlHostPort(rawURL string) (hostPort, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return hostPort{}, err
	}
	host, port, err := net.SplitHostPort(parsed.Host)
	if err != nil {
		return hostPort{}, err
	}
	return hostPort{host: host, port: port}, nil
}
