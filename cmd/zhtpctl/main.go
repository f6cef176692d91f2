// Command zhtpctl is a read-only inspector over a node's persisted chain
// data: it never mines or admits transactions, only opens node/store and
// reports what has already been committed to disk.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"zhtp.dev/ledger/consensus"
	"zhtp.dev/ledger/node"
	"zhtp.dev/ledger/node/store"
)

func main() {
	os.Exit(runRoot(os.Args[1:]))
}

func runRoot(args []string) int {
	var configPath, envPath string

	root := &cobra.Command{
		Use:   "zhtpctl",
		Short: "Inspect a node's persisted chain data",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&envPath, "env", "", "path to a .env file for local overrides")

	root.AddCommand(newChainCmd(&configPath, &envPath), newBlockCmd(&configPath, &envPath))
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func openStore(configPath, envPath string) (*store.DB, error) {
	cfg, err := node.LoadConfig(configPath, envPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return store.Open(cfg.DataDir, cfg.Network)
}

func newChainCmd(configPath, envPath *string) *cobra.Command {
	chainCmd := &cobra.Command{Use: "chain", Short: "Inspect the persisted chain"}

	chainCmd.AddCommand(&cobra.Command{
		Use:   "height",
		Short: "Print the persisted tip height",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore(*configPath, *envPath)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()
			m := db.Manifest()
			if m == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "0 (no blocks persisted yet)")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), m.TipHeight)
			return nil
		},
	})

	chainCmd.AddCommand(&cobra.Command{
		Use:   "tip",
		Short: "Print the persisted tip hash and height",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore(*configPath, *envPath)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()
			m := db.Manifest()
			if m == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "no blocks persisted yet")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "height=%d hash=%s\n", m.TipHeight, m.TipHashHex)
			return nil
		},
	})

	return chainCmd
}

func newBlockCmd(configPath, envPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "block [height]",
		Short: "Print a persisted block's header and transaction count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			height, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid height %q: %w", args[0], err)
			}
			db, err := openStore(*configPath, *envPath)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			header, txs, ok, err := db.GetBlock(height)
			if err != nil {
				return fmt.Errorf("read block: %w", err)
			}
			if !ok {
				return fmt.Errorf("no block persisted at height %d", height)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "height=%d hash=%x tx_count=%d difficulty=%d\n",
				header.Height, consensus.BlockHash(header), len(txs), header.Difficulty)
			return nil
		},
	}
}
