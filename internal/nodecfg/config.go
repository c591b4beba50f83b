// Package nodecfg holds the immutable configuration a running node is
// wired from, per spec §4.9: CLI flags are parsed once into a Config and
// passed by value (or pointer-to-immutable) into every top-level task.
package nodecfg

// Config is every flag cmd/execution-core accepts, already validated and
// defaulted. Nothing downstream re-reads flags or environment variables —
// everything it needs to run comes from this struct.
type Config struct {
	// DataDir selects the storage engine: empty uses the in-memory engine,
	// non-empty opens an MDBX environment rooted at this path.
	DataDir string

	// MDBXMapSize bounds the MDBX environment's maximum size in bytes. Only
	// consulted when DataDir is non-empty; 0 accepts libmdbx's own default.
	MDBXMapSize uint64

	// GenesisPath points at the genesis JSON file to load at startup.
	GenesisPath string

	// ImportPath, if non-empty, is an RLP block file to import at startup
	// before serving any RPC traffic.
	ImportPath string

	HTTPAddr string
	HTTPPort int

	AuthRPCAddr      string
	AuthRPCPort      int
	AuthRPCJWTSecret string

	P2PAddr string
	P2PPort int

	DiscoveryAddr string
	DiscoveryPort int

	Network   string
	Bootnodes []string

	MetricsAddr string
	MetricsPort int

	LogLevel string
}
