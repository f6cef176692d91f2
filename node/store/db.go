package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"zhtp.dev/ledger/consensus"
)

var (
	bucketHeaders    = []byte("headers_by_height")
	bucketBlocks     = []byte("blocks_by_height")
	bucketUTXO       = []byte("utxo_by_outputref")
	bucketNullifiers = []byte("nullifiers_seen")
	bucketIdentities = []byte("identities_by_did")
	bucketUndo       = []byte("undo_by_height")
)

// DB is the bbolt-backed persistence layer for one chain. It holds every
// committed block plus the live UTXO/nullifier/identity projections those
// blocks produced, generalizing the
// teacher's headers/blocks/utxo/undo bucket layout to this spec's wider
// state (nullifier set, identity registry, contract root).
type DB struct {
	chainDir   string
	chainIDHex string
	db         *bolt.DB
	manifest   *Manifest
}

// Open opens (creating if necessary) the on-disk database for chainIDHex
// under datadir. If no manifest exists yet the chain is uninitialized; the
// caller must persist a genesis block before relying on Manifest().
func Open(datadir string, chainIDHex string) (*DB, error) {
	if datadir == "" {
		return nil, fmt.Errorf("store: datadir required")
	}
	if chainIDHex == "" {
		return nil, fmt.Errorf("store: chain_id_hex required")
	}

	chainDir := ChainDir(datadir, chainIDHex)
	if err := ensureDir(chainDir); err != nil {
		return nil, err
	}
	if err := ensureDir(filepath.Join(chainDir, "db")); err != nil {
		return nil, err
	}

	path := filepath.Join(chainDir, "db", "kv.db")
	bdb, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open bbolt: %w", err)
	}

	d := &DB{chainDir: chainDir, chainIDHex: chainIDHex, db: bdb}

	if err := d.db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketHeaders, bucketBlocks, bucketUTXO, bucketNullifiers, bucketIdentities, bucketUndo} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", string(b), err)
			}
		}
		return nil
	}); err != nil {
		_ = bdb.Close()
		return nil, err
	}

	m, err := readManifest(chainDir)
	if err != nil {
		if os.IsNotExist(err) {
			return d, nil
		}
		_ = bdb.Close()
		return nil, fmt.Errorf("store: read manifest: %w", err)
	}
	if m.SchemaVersion > SchemaVersionV1 {
		_ = bdb.Close()
		return nil, fmt.Errorf("store: manifest schema_version %d > supported %d", m.SchemaVersion, SchemaVersionV1)
	}
	d.manifest = m
	return d, nil
}

func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

func (d *DB) ChainDir() string { return d.chainDir }

func (d *DB) Manifest() *Manifest {
	if d == nil {
		return nil
	}
	return d.manifest
}

func (d *DB) GetHeader(height uint64) (consensus.BlockHeader, bool, error) {
	var out consensus.BlockHeader
	var ok bool
	err := d.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketHeaders).Get(heightKey(height))
		if v == nil {
			return nil
		}
		h, err := decodeHeader(v)
		if err != nil {
			return err
		}
		out, ok = h, true
		return nil
	})
	return out, ok, err
}

func (d *DB) GetBlock(height uint64) (consensus.BlockHeader, []consensus.Transaction, bool, error) {
	var header consensus.BlockHeader
	var txs []consensus.Transaction
	var ok bool
	err := d.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketBlocks).Get(heightKey(height))
		if v == nil {
			return nil
		}
		h, t, err := decodeBlock(v)
		if err != nil {
			return err
		}
		header, txs, ok = h, t, true
		return nil
	})
	return header, txs, ok, err
}

func (d *DB) GetUTXO(ref consensus.OutputRef) (consensus.TxOutput, bool, error) {
	var out consensus.TxOutput
	var ok bool
	err := d.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketUTXO).Get(encodeOutputRefKey(ref))
		if v == nil {
			return nil
		}
		o, err := decodeOutput(v)
		if err != nil {
			return err
		}
		out, ok = o, true
		return nil
	})
	return out, ok, err
}

func (d *DB) HasNullifier(h consensus.Hash) (bool, error) {
	var seen bool
	err := d.db.View(func(tx *bolt.Tx) error {
		seen = tx.Bucket(bucketNullifiers).Get(h[:]) != nil
		return nil
	})
	return seen, err
}

func (d *DB) GetIdentity(did string) (consensus.IdentityData, bool, error) {
	var out consensus.IdentityData
	var ok bool
	err := d.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketIdentities).Get([]byte(did))
		if v == nil {
			return nil
		}
		id, err := decodeIdentity(v)
		if err != nil {
			return err
		}
		out, ok = id, true
		return nil
	})
	return out, ok, err
}

func (d *DB) GetUndo(height uint64) (UndoRecord, bool, error) {
	var out UndoRecord
	var ok bool
	err := d.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketUndo).Get(heightKey(height))
		if v == nil {
			return nil
		}
		u, err := decodeUndoRecord(v)
		if err != nil {
			return err
		}
		out, ok = u, true
		return nil
	})
	return out, ok, err
}

// CommitResult is the full set of effects one committed block has on
// persisted state, handed to CommitBlock in a single atomic transaction.
type CommitResult struct {
	Header consensus.BlockHeader
	Txs    []consensus.Transaction

	SpentOutputs   []UndoSpentOutput
	CreatedOutputs map[consensus.OutputRef]consensus.TxOutput
	NullifiersUsed []consensus.Hash

	// IdentitiesBefore records the pre-block value of every DID this block
	// touched (nil entry means the DID did not exist before), so Rollback
	// can restore it; IdentitiesAfter is what gets written.
	IdentitiesBefore map[string]*consensus.IdentityData
	IdentitiesAfter  map[string]consensus.IdentityData

	ContractRootBefore consensus.Hash
	ContractRootAfter  consensus.Hash

	CumulativeWorkDec string
}

// CommitBlock persists a single committed block and every state effect it
// had, plus an UndoRecord, as one bbolt transaction: either all of it lands
// or none of it does, matching the atomicity the in-memory chain.Engine
// already enforces in state.Store. The manifest is rewritten atomically
// after that transaction commits.
func (d *DB) CommitBlock(res CommitResult) error {
	headerHash := consensus.BlockHash(res.Header)
	headerBytes, err := encodeHeader(res.Header)
	if err != nil {
		return err
	}
	blockBytes, err := encodeBlock(res.Header, res.Txs)
	if err != nil {
		return err
	}

	undo := UndoRecord{
		SpentOutputs:       res.SpentOutputs,
		NullifiersUsed:     res.NullifiersUsed,
		IdentitiesSet:      res.IdentitiesBefore,
		ContractRootBefore: res.ContractRootBefore,
	}
	for ref := range res.CreatedOutputs {
		undo.CreatedOutputs = append(undo.CreatedOutputs, ref)
	}
	undoBytes, err := encodeUndoRecord(undo)
	if err != nil {
		return err
	}

	manifest := &Manifest{
		SchemaVersion:        SchemaVersionV1,
		ChainIDHex:           d.chainIDHex,
		TipHashHex:           fmt.Sprintf("%x", headerHash),
		TipHeight:            uint64(res.Header.Height),
		TipCumulativeWorkDec: res.CumulativeWorkDec,
		ContractRootHex:      fmt.Sprintf("%x", res.ContractRootAfter),
	}

	err = d.db.Update(func(tx *bolt.Tx) error {
		hk := heightKey(uint64(res.Header.Height))
		if err := tx.Bucket(bucketHeaders).Put(hk, headerBytes); err != nil {
			return err
		}
		if err := tx.Bucket(bucketBlocks).Put(hk, blockBytes); err != nil {
			return err
		}
		for _, spent := range res.SpentOutputs {
			if err := tx.Bucket(bucketUTXO).Delete(encodeOutputRefKey(spent.Ref)); err != nil {
				return err
			}
		}
		for ref, out := range res.CreatedOutputs {
			v, err := encodeOutput(out)
			if err != nil {
				return err
			}
			if err := tx.Bucket(bucketUTXO).Put(encodeOutputRefKey(ref), v); err != nil {
				return err
			}
		}
		for _, n := range res.NullifiersUsed {
			if err := tx.Bucket(bucketNullifiers).Put(n[:], []byte{1}); err != nil {
				return err
			}
		}
		for did, id := range res.IdentitiesAfter {
			v, err := encodeIdentity(id)
			if err != nil {
				return err
			}
			if err := tx.Bucket(bucketIdentities).Put([]byte(did), v); err != nil {
				return err
			}
		}
		return tx.Bucket(bucketUndo).Put(hk, undoBytes)
	})
	if err != nil {
		return fmt.Errorf("store: commit block: %w", err)
	}

	if err := writeManifestAtomic(d.chainDir, manifest); err != nil {
		return fmt.Errorf("store: commit manifest: %w", err)
	}
	d.manifest = manifest
	return nil
}

// Rollback undoes the effects CommitBlock recorded for height, restoring
// spent outputs, removing outputs it created, forgetting its nullifiers and
// restoring every identity it touched to its pre-block value. It does not
// rewrite the manifest; callers roll back to a specific height and then
// commit a new tip, mirroring the teacher's reorg handling of "undo then
// replay forward along the winning fork."
func (d *DB) Rollback(height uint64) (UndoRecord, error) {
	hk := heightKey(height)
	var undo UndoRecord
	err := d.db.Update(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketUndo).Get(hk)
		if v == nil {
			return fmt.Errorf("store: no undo record at height %d", height)
		}
		u, err := decodeUndoRecord(v)
		if err != nil {
			return err
		}
		undo = u

		for _, spent := range u.SpentOutputs {
			val, err := encodeOutput(spent.Output)
			if err != nil {
				return err
			}
			if err := tx.Bucket(bucketUTXO).Put(encodeOutputRefKey(spent.Ref), val); err != nil {
				return err
			}
		}
		for _, ref := range u.CreatedOutputs {
			if err := tx.Bucket(bucketUTXO).Delete(encodeOutputRefKey(ref)); err != nil {
				return err
			}
		}
		for _, n := range u.NullifiersUsed {
			if err := tx.Bucket(bucketNullifiers).Delete(n[:]); err != nil {
				return err
			}
		}
		for did, before := range u.IdentitiesSet {
			if before == nil {
				if err := tx.Bucket(bucketIdentities).Delete([]byte(did)); err != nil {
					return err
				}
				continue
			}
			val, err := encodeIdentity(*before)
			if err != nil {
				return err
			}
			if err := tx.Bucket(bucketIdentities).Put([]byte(did), val); err != nil {
				return err
			}
		}
		if err := tx.Bucket(bucketHeaders).Delete(hk); err != nil {
			return err
		}
		if err := tx.Bucket(bucketBlocks).Delete(hk); err != nil {
			return err
		}
		return tx.Bucket(bucketUndo).Delete(hk)
	})
	if err != nil {
		return UndoRecord{}, fmt.Errorf("store: rollback height %d: %w", height, err)
	}
	return undo, nil
}
