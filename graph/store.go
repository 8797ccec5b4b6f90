package graph

import (
	"encoding/binary"
	"fmt"

	"go.etcd.io/bbolt"
)

// Bucket names, adapted from _examples/backend-engineer1-land/channeldb/graph.go's
// top-level bucket scheme. The edge-policy and broadcast-log buckets are new:
// the teacher kept policies inline with the edge-index entry, but the
// engine's recovery path (rebuilding broadcast state after a restart) needs
// policies addressable on their own.
var (
	nodeBucket      = []byte("graph-node")
	edgeBucket      = []byte("graph-edge")
	edgeIndexBucket = []byte("edge-index")
	policyBucket    = []byte("edge-policy")
	graphMetaBucket = []byte("graph-meta")
	broadcastBucket = []byte("broadcast-log")

	broadcastNextKey = []byte("next-index")
)

// store is the bbolt-backed durable half of a ChannelGraph. All of its
// methods assume the in-memory indices in ChannelGraph are kept consistent
// by the caller; store never reads back what it just wrote.
type store struct {
	db *bbolt.DB
}

func newStore(db *bbolt.DB) (*store, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{
			nodeBucket, edgeBucket, edgeIndexBucket, policyBucket,
			graphMetaBucket, broadcastBucket,
		} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to initialize graph buckets: %w", err)
	}
	return &store{db: db}, nil
}

func scidKey(id ShortChanID) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], id.ToUint64())
	return k[:]
}

func policyKey(id ShortChanID, direction uint8) []byte {
	k := make([]byte, 9)
	copy(k, scidKey(id))
	k[8] = direction
	return k
}

func (s *store) putNode(n *LightningNode) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(nodeBucket)
		enc, err := serializeNode(n)
		if err != nil {
			return err
		}
		return b.Put(n.PubKeyBytes[:], enc)
	})
}

func (s *store) putEdge(e *ChannelEdgeInfo) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(edgeIndexBucket)
		enc, err := serializeEdge(e)
		if err != nil {
			return err
		}
		return b.Put(scidKey(e.ChannelID), enc)
	})
}

func (s *store) deleteEdge(id ShortChanID) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(edgeIndexBucket).Delete(scidKey(id)); err != nil {
			return err
		}
		b := tx.Bucket(policyBucket)
		if err := b.Delete(policyKey(id, 0)); err != nil {
			return err
		}
		return b.Delete(policyKey(id, 1))
	})
}

func (s *store) putPolicy(p *ChannelEdgePolicy) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		enc, err := serializePolicy(p)
		if err != nil {
			return err
		}
		return tx.Bucket(policyBucket).Put(
			policyKey(p.ChannelID, p.Direction()), enc,
		)
	})
}

// appendBroadcast persists the next broadcast-log entry and returns its
// assigned index. The index space is append-only and monotonic for the
// lifetime of the store, matching spec.md §3's broadcast log semantics.
func (s *store) appendBroadcast(e *BroadcastEntry) (uint64, error) {
	var idx uint64
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(broadcastBucket)

		next := uint64(1)
		if raw := b.Get(broadcastNextKey); raw != nil {
			next = binary.BigEndian.Uint64(raw)
		}

		e.Index = next

		enc := serializeBroadcastEntry(e)
		var key [8]byte
		binary.BigEndian.PutUint64(key[:], next)
		if err := b.Put(key[:], enc); err != nil {
			return err
		}

		var nextBuf [8]byte
		binary.BigEndian.PutUint64(nextBuf[:], next+1)
		idx = next
		return b.Put(broadcastNextKey, nextBuf[:])
	})
	return idx, err
}

// rewriteBroadcastLog replaces the persisted broadcast log wholesale with
// entries, keeping their original indices (so outstanding peer cursors
// remain meaningful) but dropping everything CompactBroadcastLog decided
// was superseded. The next-index counter is left untouched: compaction
// never reuses an index.
func (s *store) rewriteBroadcastLog(entries []*BroadcastEntry) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(broadcastBucket)
		nextRaw := b.Get(broadcastNextKey)

		if err := tx.DeleteBucket(broadcastBucket); err != nil {
			return err
		}
		b, err := tx.CreateBucket(broadcastBucket)
		if err != nil {
			return err
		}

		for _, e := range entries {
			var key [8]byte
			binary.BigEndian.PutUint64(key[:], e.Index)
			if err := b.Put(key[:], serializeBroadcastEntry(e)); err != nil {
				return err
			}
		}

		if nextRaw != nil {
			if err := b.Put(broadcastNextKey, nextRaw); err != nil {
				return err
			}
		}
		return nil
	})
}

// loadAll reconstructs the in-memory indices from the bucket contents,
// called once at startup.
func (s *store) loadAll() (nodes map[NodeID]*LightningNode,
	edges map[uint64]*ChannelEdgeInfo,
	policies map[uint64][2]*ChannelEdgePolicy,
	broadcasts []*BroadcastEntry, err error) {

	nodes = make(map[NodeID]*LightningNode)
	edges = make(map[uint64]*ChannelEdgeInfo)
	policies = make(map[uint64][2]*ChannelEdgePolicy)

	err = s.db.View(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(nodeBucket).ForEach(func(k, v []byte) error {
			n, err := deserializeNode(v)
			if err != nil {
				return err
			}
			nodes[n.PubKeyBytes] = n
			return nil
		}); err != nil {
			return err
		}

		if err := tx.Bucket(edgeIndexBucket).ForEach(func(k, v []byte) error {
			e, err := deserializeEdge(k, v)
			if err != nil {
				return err
			}
			edges[e.ChannelID.ToUint64()] = e
			return nil
		}); err != nil {
			return err
		}

		return tx.Bucket(policyBucket).ForEach(func(k, v []byte) error {
			if len(k) != 9 {
				return nil
			}
			p, err := deserializePolicy(v)
			if err != nil {
				return err
			}
			scid := p.ChannelID.ToUint64()
			pair := policies[scid]
			pair[p.Direction()] = p
			policies[scid] = pair
			return nil
		})
	})
	if err != nil {
		return nil, nil, nil, nil, err
	}

	err = s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(broadcastBucket).ForEach(func(k, v []byte) error {
			if len(k) != 8 {
				return nil
			}
			broadcasts = append(broadcasts,
				deserializeBroadcastEntry(binary.BigEndian.Uint64(k), v))
			return nil
		})
	})
	return nodes, edges, policies, broadcasts, err
}
