package node

// Config is the process-wide configuration read once at startup, from
// either CLI flags or the environment variables spec'd in spec.md §6
// (cmd/ringnode wires both through github.com/urfave/cli).
type Config struct {
	// NumberOfNodes is the expected ring size (NUMBER_OF_NODES).
	NumberOfNodes int
	// Difficulty is the required leading-zero hex-char count (DIFFICULTY).
	Difficulty int
	// BootstrapIP/BootstrapPort locate the bootstrap node.
	BootstrapIP   string
	BootstrapPort string
	// NodePort is this process's own listening port. Empty means this
	// process IS the bootstrap (NODE_PORT absent).
	NodePort string
	// Capacity is the maximum transactions per block (CAPACITY).
	Capacity int
	// TotalCoins is the genesis inflation amount (TOTAL_COINS).
	TotalCoins uint64
}

// IsBootstrap reports whether this config describes the bootstrap node.
func (c Config) IsBootstrap() bool { return c.NodePort == "" }

// ListenPort returns the port this process should bind to.
func (c Config) ListenPort() string {
	if c.IsBootstrap() {
		return c.BootstrapPort
	}
	return c.NodePort
}
