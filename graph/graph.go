package graph

import (
	"fmt"
	"sync"

	"go.etcd.io/bbolt"
)

// ChannelGraph is the in-memory channel graph backed by a bbolt store. All
// exported methods are safe for concurrent use, though spec.md §5 expects
// the gossip engine to be the graph's only writer; the mutex exists so the
// package remains safe to use from tooling (a CLI inspecting the graph
// file) without coordinating with the engine.
type ChannelGraph struct {
	store *store

	mu sync.RWMutex

	nodes    map[NodeID]*LightningNode
	edges    map[uint64]*ChannelEdgeInfo
	policies map[uint64][2]*ChannelEdgePolicy

	broadcastLog []*BroadcastEntry
}

// NewChannelGraph opens (creating if necessary) the bbolt file at path and
// loads its contents into memory.
func NewChannelGraph(path string) (*ChannelGraph, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to open graph database: %w", err)
	}

	s, err := newStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	nodes, edges, policies, broadcasts, err := s.loadAll()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to load graph contents: %w", err)
	}

	return &ChannelGraph{
		store:        s,
		nodes:        nodes,
		edges:        edges,
		policies:     policies,
		broadcastLog: broadcasts,
	}, nil
}

// Close releases the underlying database file.
func (g *ChannelGraph) Close() error {
	return g.store.db.Close()
}

// Node returns the node known under id, if any.
func (g *ChannelGraph) Node(id NodeID) (*LightningNode, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	return n, ok
}

// Edge returns the channel known under scid, if any, along with both
// directional policies (either may be nil if no update has been seen yet).
func (g *ChannelGraph) Edge(scid ShortChanID) (*ChannelEdgeInfo, [2]*ChannelEdgePolicy, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.edges[scid.ToUint64()]
	if !ok {
		return nil, [2]*ChannelEdgePolicy{}, false
	}
	return e, g.policies[scid.ToUint64()], true
}

// HasEdge reports whether scid is present in the graph, regardless of
// whether either direction has a policy yet.
func (g *ChannelGraph) HasEdge(scid ShortChanID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.edges[scid.ToUint64()]
	return ok
}

// AddNode inserts or replaces a node's announcement data.
func (g *ChannelGraph) AddNode(n *LightningNode) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.store.putNode(n); err != nil {
		return err
	}
	g.nodes[n.PubKeyBytes] = n
	return nil
}

// AddEdge inserts a new channel into the graph. It is an error to add an
// edge whose short channel id already exists; callers must check HasEdge
// first (spec.md §4.E: duplicate announcements are ignored, not errors, so
// the engine is expected to guard this itself).
func (g *ChannelGraph) AddEdge(e *ChannelEdgeInfo) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.edges[e.ChannelID.ToUint64()]; ok {
		return fmt.Errorf("channel %v already exists", e.ChannelID)
	}

	if err := g.store.putEdge(e); err != nil {
		return err
	}
	g.edges[e.ChannelID.ToUint64()] = e

	for _, key := range [2]NodeID{e.NodeKey1Bytes, e.NodeKey2Bytes} {
		if _, ok := g.nodes[key]; !ok {
			g.nodes[key] = &LightningNode{PubKeyBytes: key}
			if err := g.store.putNode(g.nodes[key]); err != nil {
				return err
			}
		}
	}

	return nil
}

// RemoveEdge deletes a channel and both of its policies, used when its
// funding outpoint is spent (spec.md §4.E). Timestamp-horizon pruning in
// PruneChannelsOlderThan deletes through the store directly instead.
func (g *ChannelGraph) RemoveEdge(scid ShortChanID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.store.deleteEdge(scid); err != nil {
		return err
	}
	delete(g.edges, scid.ToUint64())
	delete(g.policies, scid.ToUint64())
	return nil
}

// UpdatePolicy records a new directional policy for an existing channel.
// The caller is responsible for the timestamp/staleness checks spec.md
// §4.E requires before calling this.
func (g *ChannelGraph) UpdatePolicy(p *ChannelEdgePolicy) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.edges[p.ChannelID.ToUint64()]; !ok {
		return fmt.Errorf("no known channel %v for policy update", p.ChannelID)
	}

	if err := g.store.putPolicy(p); err != nil {
		return err
	}

	pair := g.policies[p.ChannelID.ToUint64()]
	pair[p.Direction()] = p
	g.policies[p.ChannelID.ToUint64()] = pair
	return nil
}

// SetLocalDisabled flips the engine-owned local_disabled bit on one
// direction of a channel we're an endpoint of, without touching the
// graph-level advertised Flags (spec.md §4.E and §3: "this engine never
// mutates graph fields directly except the local_disabled boolean").
func (g *ChannelGraph) SetLocalDisabled(scid ShortChanID, direction uint8, disabled bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	pair := g.policies[scid.ToUint64()]
	p := pair[direction]
	if p == nil {
		return fmt.Errorf("no policy for channel %v direction %d", scid, direction)
	}

	p.LocalDisabled = disabled
	return g.store.putPolicy(p)
}

// ForEachChannel invokes cb for every channel currently in the graph. cb
// must not call back into the graph.
func (g *ChannelGraph) ForEachChannel(cb func(*ChannelEdgeInfo, [2]*ChannelEdgePolicy) error) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for scid, e := range g.edges {
		if err := cb(e, g.policies[scid]); err != nil {
			return err
		}
	}
	return nil
}

// ForEachNode invokes cb for every node currently in the graph.
func (g *ChannelGraph) ForEachNode(cb func(*LightningNode) error) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, n := range g.nodes {
		if err := cb(n); err != nil {
			return err
		}
	}
	return nil
}
