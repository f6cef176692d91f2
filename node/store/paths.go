// Package store is the disk persistence boundary for a running node: a
// bbolt-backed key/value database plus a small atomically-written manifest
// file recording the tip. Nothing in consensus, state, mempool or chain
// depends on this package; it is wired in only by the cmd/zhtpnode and
// cmd/zhtpctl binaries to survive process restarts.
package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// ChainDir returns the on-disk directory for a given chain under datadir:
//
//	datadir/chains/<chain_id_hex>/
func ChainDir(datadir string, chainIDHex string) string {
	return filepath.Join(datadir, "chains", chainIDHex)
}

func ensureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}
	return nil
}
