// Command ringnode runs a single peer of a ring-topology proof-of-work
// ledger: either the bootstrap (no --node-port) or a regular peer that
// dials the bootstrap to join.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli"

	"github.com/ringcoin/node/log"
	"github.com/ringcoin/node/node"
)

var (
	numberOfNodesFlag = cli.IntFlag{Name: "number-of-nodes", EnvVar: "NUMBER_OF_NODES", Value: 5, Usage: "expected ring size, bootstrap included"}
	difficultyFlag    = cli.IntFlag{Name: "difficulty", EnvVar: "DIFFICULTY", Value: 4, Usage: "required leading-zero hex digits of a valid block hash"}
	bootstrapIPFlag   = cli.StringFlag{Name: "bootstrap-ip", EnvVar: "BOOTSTRAP_IP", Value: "127.0.0.1", Usage: "bootstrap node's address"}
	bootstrapPortFlag = cli.StringFlag{Name: "bootstrap-port", EnvVar: "BOOTSTRAP_PORT", Value: "5000", Usage: "bootstrap node's listening port"}
	nodePortFlag      = cli.StringFlag{Name: "node-port", EnvVar: "NODE_PORT", Usage: "this node's listening port; omit to run as the bootstrap"}
	capacityFlag      = cli.IntFlag{Name: "capacity", EnvVar: "CAPACITY", Value: 5, Usage: "transactions per mined block"}
	totalCoinsFlag    = cli.Uint64Flag{Name: "total-coins", EnvVar: "TOTAL_COINS", Value: 1000, Usage: "genesis inflation amount"}
	devFlag           = cli.BoolFlag{Name: "dev", Usage: "human-readable development logging"}
)

func main() {
	app := cli.NewApp()
	app.Name = "ringnode"
	app.Usage = "a ring-topology proof-of-work ledger peer"
	app.Flags = []cli.Flag{
		numberOfNodesFlag,
		difficultyFlag,
		bootstrapIPFlag,
		bootstrapPortFlag,
		nodePortFlag,
		capacityFlag,
		totalCoinsFlag,
		devFlag,
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.Bool("dev") {
		log.SetDevelopment()
	}
	defer log.Sync()

	cfg := node.Config{
		NumberOfNodes: c.Int("number-of-nodes"),
		Difficulty:    c.Int("difficulty"),
		BootstrapIP:   c.String("bootstrap-ip"),
		BootstrapPort: c.String("bootstrap-port"),
		NodePort:      c.String("node-port"),
		Capacity:      c.Int("capacity"),
		TotalCoins:    c.Uint64("total-coins"),
	}

	selfID := "0"
	if !cfg.IsBootstrap() {
		id, err := registerWithBootstrap(cfg)
		if err != nil {
			return err
		}
		selfID = id
	}

	n, err := node.New(cfg, selfID)
	if err != nil {
		return err
	}
	node.RegisterNodeGauges(n)

	server := node.NewServer(n, cfg.BootstrapIP)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go n.Run(ctx)

	addr := ":" + cfg.ListenPort()
	log.Infow("listening", "addr", addr, "bootstrap", cfg.IsBootstrap())
	return http.ListenAndServe(addr, server)
}

// registerWithBootstrap performs the one-time POST /registration
// handshake a peer runs on startup to join an existing bootstrap's ring,
// and returns the id the bootstrap assigned it.
func registerWithBootstrap(cfg node.Config) (string, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	url := fmt.Sprintf("http://%s:%s/registration", cfg.BootstrapIP, cfg.BootstrapPort)

	var resp struct {
		NodeID string `json:"node_id"`
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := node.Post(ctx, client, url, map[string]string{"port": cfg.NodePort}, &resp)
	if err != nil {
		return "", fmt.Errorf("registering with bootstrap: %w", err)
	}
	log.Infow("registered with bootstrap", "assigned_id", resp.NodeID)
	return resp.NodeID, nil
}
