// Command execution-core runs the node: import pipeline, public and engine
// JSON-RPC servers, metrics endpoint, and peer session supervisor, wired
// together from a single CLI-parsed nodecfg.Config.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/c2h5oh/datasize"
	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/latticelayer/execution-core/internal/chainconfig"
	"github.com/latticelayer/execution-core/internal/engineapi"
	"github.com/latticelayer/execution-core/internal/kvstore"
	"github.com/latticelayer/execution-core/internal/nodecfg"
	"github.com/latticelayer/execution-core/internal/p2p"
	"github.com/latticelayer/execution-core/internal/rpcapi"
)

func main() {
	app := &cli.App{
		Name:  "execution-core",
		Usage: "an Ethereum execution-layer node core",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "datadir", Value: "", Usage: "data directory; empty selects the in-memory storage engine"},
			&cli.StringFlag{Name: "datadir.mdbx.mapsize", Value: "0B", Usage: "MDBX environment map size, e.g. \"8GB\"; 0B accepts the backend default"},
			&cli.StringFlag{Name: "network", Value: "", Usage: "path to the genesis JSON file", Aliases: []string{"genesis"}},
			&cli.StringFlag{Name: "import", Value: "", Usage: "RLP block file to import at startup"},

			&cli.StringFlag{Name: "http.addr", Value: "127.0.0.1"},
			&cli.IntFlag{Name: "http.port", Value: 8545},

			&cli.StringFlag{Name: "authrpc.addr", Value: "127.0.0.1"},
			&cli.IntFlag{Name: "authrpc.port", Value: 8551},
			&cli.StringFlag{Name: "authrpc.jwtsecret", Value: ""},

			&cli.StringFlag{Name: "p2p.addr", Value: "0.0.0.0"},
			&cli.IntFlag{Name: "p2p.port", Value: 30303},
			&cli.StringFlag{Name: "discovery.addr", Value: "0.0.0.0"},
			&cli.IntFlag{Name: "discovery.port", Value: 30303},
			&cli.StringSliceFlag{Name: "bootnodes"},

			&cli.StringFlag{Name: "metrics.addr", Value: "127.0.0.1"},
			&cli.IntFlag{Name: "metrics.port", Value: 6060},

			&cli.StringFlag{Name: "log.level", Value: "info"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Crit("execution-core exited", "err", err)
	}
}

func configFromFlags(c *cli.Context) (nodecfg.Config, error) {
	jwtSecretPath := c.String("authrpc.jwtsecret")
	if jwtSecretPath == "" {
		if c.String("datadir") != "" {
			jwtSecretPath = filepath.Join(c.String("datadir"), "jwt.hex")
		} else {
			jwtSecretPath = "jwt.hex"
		}
	}

	var mapSize datasize.ByteSize
	if err := mapSize.UnmarshalText([]byte(c.String("datadir.mdbx.mapsize"))); err != nil {
		return nodecfg.Config{}, fmt.Errorf("parsing --datadir.mdbx.mapsize: %w", err)
	}

	return nodecfg.Config{
		DataDir:     c.String("datadir"),
		MDBXMapSize: mapSize.Bytes(),
		GenesisPath: c.String("network"),
		ImportPath:  c.String("import"),

		HTTPAddr: c.String("http.addr"),
		HTTPPort: c.Int("http.port"),

		AuthRPCAddr:      c.String("authrpc.addr"),
		AuthRPCPort:      c.Int("authrpc.port"),
		AuthRPCJWTSecret: jwtSecretPath,

		P2PAddr:       c.String("p2p.addr"),
		P2PPort:       c.Int("p2p.port"),
		DiscoveryAddr: c.String("discovery.addr"),
		DiscoveryPort: c.Int("discovery.port"),
		Network:       c.String("network"),
		Bootnodes:     c.StringSlice("bootnodes"),

		MetricsAddr: c.String("metrics.addr"),
		MetricsPort: c.Int("metrics.port"),

		LogLevel: c.String("log.level"),
	}, nil
}

func run(c *cli.Context) error {
	cfg, err := configFromFlags(c)
	if err != nil {
		return err
	}

	store, chainCfg, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Engine().Close()

	if cfg.ImportPath != "" {
		if err := importBlockFile(store, chainCfg, cfg.ImportPath); err != nil {
			return fmt.Errorf("importing %s: %w", cfg.ImportPath, err)
		}
	}

	jwtSecret, err := engineapi.LoadJWTSecret(cfg.AuthRPCJWTSecret)
	if err != nil {
		return fmt.Errorf("loading jwt secret: %w", err)
	}
	driver := engineapi.NewDriver(store, chainCfg, noEVM{})
	engineServer, err := engineapi.NewServer(driver, jwtSecret)
	if err != nil {
		return fmt.Errorf("building engine API server: %w", err)
	}

	publicRouter, err := rpcapi.NewRouter(store)
	if err != nil {
		return fmt.Errorf("building public RPC router: %w", err)
	}

	supervisor, err := p2p.NewSupervisor(fmt.Sprintf("%s:%d", cfg.P2PAddr, cfg.P2PPort))
	if err != nil {
		return fmt.Errorf("starting peer supervisor: %w", err)
	}
	defer supervisor.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	group, groupCtx := errgroup.WithContext(ctx)

	// Public JSON-RPC task.
	group.Go(func() error {
		return serveHTTP(groupCtx, fmt.Sprintf("%s:%d", cfg.HTTPAddr, cfg.HTTPPort), publicRouter)
	})

	// Engine API task.
	group.Go(func() error {
		return engineServer.ListenAndServe(groupCtx, fmt.Sprintf("%s:%d", cfg.AuthRPCAddr, cfg.AuthRPCPort))
	})

	// Metrics task.
	group.Go(func() error {
		return serveHTTP(groupCtx, fmt.Sprintf("%s:%d", cfg.MetricsAddr, cfg.MetricsPort), promhttp.Handler())
	})

	// Peer session supervisor: accepts inbound connections whose secrets a
	// handshake component upstream of this boundary has already derived.
	// With no handshake wired in yet, this task only waits for shutdown.
	group.Go(func() error {
		<-groupCtx.Done()
		return nil
	})

	log.Info("execution-core started",
		"http", fmt.Sprintf("%s:%d", cfg.HTTPAddr, cfg.HTTPPort),
		"authrpc", fmt.Sprintf("%s:%d", cfg.AuthRPCAddr, cfg.AuthRPCPort),
		"p2p", supervisor.Addr())

	return group.Wait()
}

func serveHTTP(ctx context.Context, addr string, handler http.Handler) error {
	server := &http.Server{Addr: addr, Handler: handler}
	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()

	select {
	case <-ctx.Done():
		return server.Shutdown(context.Background())
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func openStore(cfg nodecfg.Config) (*kvstore.Store, *chainconfig.ChainConfig, error) {
	var engine kvstore.StoreEngine
	var err error
	if cfg.DataDir == "" {
		engine = kvstore.NewMemoryEngine()
	} else {
		engine, err = kvstore.OpenMDBXEngine(cfg.DataDir, cfg.MDBXMapSize)
		if err != nil {
			return nil, nil, err
		}
	}

	store := kvstore.NewStore(engine)

	if chainCfg, ok, err := engine.GetChainConfig(); err != nil {
		return nil, nil, err
	} else if ok {
		return store, chainCfg, nil
	}

	if cfg.GenesisPath == "" {
		return nil, nil, fmt.Errorf("no chain config stored and no --network genesis file given")
	}
	genesis, err := chainconfig.LoadGenesisFile(cfg.GenesisPath)
	if err != nil {
		return nil, nil, err
	}
	if err := store.AddInitialState(genesis); err != nil {
		return nil, nil, err
	}
	if err := engine.SetChainConfig(genesis.Config); err != nil {
		return nil, nil, err
	}
	return store, genesis.Config, nil
}
