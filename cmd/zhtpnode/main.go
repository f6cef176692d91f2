// Command zhtpnode runs a single ledger node: genesis construction, block
// mining, mempool admission and (optionally) disk persistence of every
// committed block. It replaces the teacher's hand-rolled flag.FlagSet
// parsing (cmd/rubin-node) with cobra subcommands.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"zhtp.dev/ledger/chain"
	"zhtp.dev/ledger/consensus"
	"zhtp.dev/ledger/contractadapter"
	"zhtp.dev/ledger/crypto"
	"zhtp.dev/ledger/node"
	"zhtp.dev/ledger/node/store"
)

// systemKeys recognizes the single well-known signer allowed to submit
// UbiDistribution transactions in a local/dev deployment. A production
// deployment wires this to a real registry of system keys.
type systemKeys struct{ key string }

func (s systemKeys) IsSystemKey(pk consensus.PublicKey) bool { return string(pk) == s.key }

type wallClock struct{}

func (wallClock) NowSeconds() consensus.Timestamp { return consensus.Timestamp(time.Now().Unix()) }

// engineCollector adapts *chain.Engine to node.Collector, whose signature
// stays free of consensus types so the ambient node package never has to
// import the domain.
type engineCollector struct{ e *chain.Engine }

func (c engineCollector) Height() uint64    { return uint64(c.e.Height()) }
func (c engineCollector) PendingCount() int { return c.e.PendingCount() }

func main() {
	os.Exit(runRoot(os.Args[1:]))
}

func runRoot(args []string) int {
	var configPath, envPath string

	root := &cobra.Command{
		Use:   "zhtpnode",
		Short: "Run a ledger node: genesis, mining, mempool admission",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&envPath, "env", "", "path to a .env file for local overrides")

	root.AddCommand(
		newRunCmd(&configPath, &envPath),
		newMineCmd(&configPath, &envPath),
		newChainCmd(&configPath, &envPath),
		newMempoolCmd(&configPath, &envPath),
		newGenesisCmd(&configPath, &envPath),
	)
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func openEngineAndDB(configPath, envPath string) (*chain.Engine, *store.DB, node.Config, error) {
	cfg, err := node.LoadConfig(configPath, envPath)
	if err != nil {
		return nil, nil, node.Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := node.ValidateConfig(cfg); err != nil {
		return nil, nil, node.Config{}, fmt.Errorf("invalid config: %w", err)
	}

	e, err := chain.NewWithGenesis(chain.Config{
		Adapter:        crypto.DevCryptoProvider{},
		SystemKeys:     systemKeys{key: "system"},
		ContractEngine: contractadapter.ReferenceEngine{},
		Clock:          wallClock{},
		MempoolCap:     consensus.MempoolCapacity,
	})
	if err != nil {
		return nil, nil, node.Config{}, fmt.Errorf("genesis construction: %w", err)
	}

	db, err := store.Open(cfg.DataDir, cfg.Network)
	if err != nil {
		return nil, nil, node.Config{}, fmt.Errorf("open store: %w", err)
	}

	if m := db.Manifest(); m != nil {
		for h := uint64(1); h <= m.TipHeight; h++ {
			header, txs, ok, err := db.GetBlock(h)
			if err != nil {
				return nil, nil, node.Config{}, fmt.Errorf("replay height %d: %w", h, err)
			}
			if !ok {
				return nil, nil, node.Config{}, fmt.Errorf("replay height %d: missing persisted block", h)
			}
			if err := e.AddBlock(consensus.Block{Header: header, Transactions: txs}); err != nil {
				return nil, nil, node.Config{}, fmt.Errorf("replay height %d: %w", h, err)
			}
		}
	}

	return e, db, cfg, nil
}

// persistMinedBlock records a freshly mined block's header/body, the
// outputs it created and the nullifiers it spent. It intentionally does not
// populate SpentOutputs (the prior value of each consumed output), since
// reconstructing that would require re-deriving pre-block state outside the
// engine; Rollback of a CLI-persisted block therefore cannot restore spent
// outputs. This is a deliberate, scoped limitation of the CLI wiring, not of
// node/store itself (see DESIGN.md).
func persistMinedBlock(db *store.DB, block *consensus.Block) error {
	created := make(map[consensus.OutputRef]consensus.TxOutput)
	var nullifiers []consensus.Hash
	for _, tx := range block.Transactions {
		txHash := consensus.TxHash(&tx)
		for i, out := range tx.Outputs {
			created[consensus.OutputRef{PreviousTxHash: txHash, OutputIndex: uint32(i)}] = out
		}
		for _, in := range tx.Inputs {
			nullifiers = append(nullifiers, in.Nullifier)
		}
	}
	return db.CommitBlock(store.CommitResult{
		Header:            block.Header,
		Txs:               block.Transactions,
		CreatedOutputs:    created,
		NullifiersUsed:    nullifiers,
		CumulativeWorkDec: fmt.Sprintf("%d", block.Header.CumulativeDifficulty),
	})
}

func newRunCmd(configPath, envPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the node and serve metrics until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, db, cfg, err := openEngineAndDB(*configPath, *envPath)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			log := node.NewLogger(cfg.LogLevel)
			metrics := node.NewMetrics()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := metrics.StartServer(cfg.BindAddr, log)
			defer func() { _ = srv.Close() }()

			log.Info().Uint64("height", uint64(e.Height())).Str("network", cfg.Network).Msg("node started")
			go metrics.Run(ctx, engineCollector{e: e}, 5*time.Second, log)

			<-ctx.Done()
			log.Info().Msg("node stopped")
			return nil
		},
	}
}

func newMineCmd(configPath, envPath *string) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "mine",
		Short: "Mine pending transactions into new blocks",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, db, _, err := openEngineAndDB(*configPath, *envPath)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			for i := 0; i < count; i++ {
				block, err := e.MinePendingBlock(context.Background(), consensus.MaxTransactionsPerBlock, consensus.MaxBlockSize)
				if err != nil {
					return fmt.Errorf("mine: %w", err)
				}
				if block == nil {
					break
				}
				if err := persistMinedBlock(db, block); err != nil {
					return fmt.Errorf("persist mined block: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "mined height=%d hash=%x tx_count=%d\n",
					block.Header.Height, consensus.BlockHash(block.Header), len(block.Transactions))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 1, "number of blocks to mine")
	return cmd
}

func newChainCmd(configPath, envPath *string) *cobra.Command {
	chainCmd := &cobra.Command{Use: "chain", Short: "Inspect the local chain"}

	chainCmd.AddCommand(&cobra.Command{
		Use:   "height",
		Short: "Print the current tip height",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, db, _, err := openEngineAndDB(*configPath, *envPath)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()
			fmt.Fprintln(cmd.OutOrStdout(), uint64(e.Height()))
			return nil
		},
	})

	chainCmd.AddCommand(&cobra.Command{
		Use:   "tip",
		Short: "Print the current tip header",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, db, _, err := openEngineAndDB(*configPath, *envPath)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()
			tip := e.Tip()
			fmt.Fprintf(cmd.OutOrStdout(), "height=%d hash=%x timestamp=%d difficulty=%d\n",
				tip.Height, consensus.BlockHash(tip), tip.Timestamp, tip.Difficulty)
			return nil
		},
	})

	return chainCmd
}

func newMempoolCmd(configPath, envPath *string) *cobra.Command {
	mempoolCmd := &cobra.Command{Use: "mempool", Short: "Inspect the local mempool"}

	mempoolCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the number of pending transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, db, _, err := openEngineAndDB(*configPath, *envPath)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()
			fmt.Fprintln(cmd.OutOrStdout(), e.PendingCount())
			return nil
		},
	})

	return mempoolCmd
}

func newGenesisCmd(configPath, envPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "genesis",
		Short: "Print the deterministic genesis block header",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, db, _, err := openEngineAndDB(*configPath, *envPath)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()
			header, _, ok := e.BlockAt(0)
			if !ok {
				return fmt.Errorf("genesis missing")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "hash=%x timestamp=%d difficulty=%d\n",
				consensus.BlockHash(header), header.Timestamp, header.Difficulty)
			return nil
		},
	}
}
