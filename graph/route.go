package graph

import (
	"container/heap"
	"fmt"
)

// Hop is one leg of a computed payment route: the channel to traverse and
// the node it leads to.
type Hop struct {
	ChannelID ShortChanID
	NodeID    NodeID

	FeeBaseMsat               uint32
	FeeProportionalMillionths uint32
	TimeLockDelta             uint16
}

// GetRoute computes a path from src to dst for amountMsat, weighting edges
// by fee plus riskFactor-scaled time-value of the locked funds (fee +
// amt*timelock*riskFactor); channel capacity and HTLC limits are not
// checked. This is a simplified form of lnd's cost function, sized to what the control
// dispatcher's getroute contract in spec.md §4.F needs. It does not
// fuzz, cache, or bimodally probe liquidity; route-finding quality is
// explicitly out of scope (spec.md §1 Non-goals).
//
// finalCltvDelta is added to the last hop's lock time requirement; fuzz and
// seed exist only to satisfy the control command's signature (spec.md §4.F)
// and are unused by this minimal implementation, matching the "not tuned,
// fuzzed, or benchmarked" scope called out in SPEC_FULL.md §8.
func (g *ChannelGraph) GetRoute(src, dst NodeID, amountMsat int64,
	riskFactor float64, finalCltvDelta uint16, fuzz float64,
	seed int64) ([]Hop, error) {

	g.mu.RLock()
	defer g.mu.RUnlock()

	if src == dst {
		return nil, fmt.Errorf("source and destination are the same node")
	}

	dist := map[NodeID]float64{src: 0}
	prevHop := map[NodeID]Hop{}
	prevNode := map[NodeID]NodeID{}
	visited := map[NodeID]bool{}

	pq := &nodeHeap{{node: src, dist: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(nodeDist)
		if visited[cur.node] {
			continue
		}
		visited[cur.node] = true

		if cur.node == dst {
			break
		}

		for scid, edge := range g.edges {
			var (
				neighbor NodeID
				pol      *ChannelEdgePolicy
			)
			switch cur.node {
			case edge.NodeKey1Bytes:
				neighbor = edge.NodeKey2Bytes
				pol = g.policies[scid][0]
			case edge.NodeKey2Bytes:
				neighbor = edge.NodeKey1Bytes
				pol = g.policies[scid][1]
			default:
				continue
			}
			if pol == nil || pol.Disabled() || pol.LocalDisabled {
				continue
			}

			fee := float64(pol.FeeBaseMsat) +
				float64(amountMsat)*float64(pol.FeeProportionalMillionths)/1e6
			risk := float64(amountMsat) * float64(pol.TimeLockDelta) * riskFactor
			cost := cur.dist + fee + risk

			if existing, ok := dist[neighbor]; !ok || cost < existing {
				dist[neighbor] = cost
				prevNode[neighbor] = cur.node
				prevHop[neighbor] = Hop{
					ChannelID:                 edge.ChannelID,
					NodeID:                    neighbor,
					FeeBaseMsat:               pol.FeeBaseMsat,
					FeeProportionalMillionths: pol.FeeProportionalMillionths,
					TimeLockDelta:             pol.TimeLockDelta,
				}
				heap.Push(pq, nodeDist{node: neighbor, dist: cost})
			}
		}
	}

	if _, ok := prevNode[dst]; !ok {
		return nil, fmt.Errorf("no path found to destination")
	}

	var hops []Hop
	for n := dst; n != src; n = prevNode[n] {
		hops = append([]Hop{prevHop[n]}, hops...)
	}
	hops[len(hops)-1].TimeLockDelta += finalCltvDelta

	return hops, nil
}

type nodeDist struct {
	node NodeID
	dist float64
}

type nodeHeap []nodeDist

func (h nodeHeap) Len() int            { return len(h) }
func (h nodeHeap) Less(i, j int) bool  { return h[i].dist < h[j].dist }
func (h nodeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x interface{}) { *h = append(*h, x.(nodeDist)) }
func (h *nodeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// RoutingFailure records that a hop along a previously returned route failed
// at runtime, forwarded here from the control dispatcher (spec.md §4.F).
// The minimal router doesn't maintain per-attempt state to adjust future
// routes around it; the only actionable consequence is MarkChannelUnroutable.
func (g *ChannelGraph) RoutingFailure(scid ShortChanID, reason string) {
	log.Debugf("routing failure reported for channel %v: %v", scid, reason)
}

// MarkChannelUnroutable temporarily excludes scid from GetRoute by disabling
// both of its local-view policies, mirroring the local_disabled mechanism
// §4.E already uses for our own channels, reused here for the control
// dispatcher's mark_channel_unroutable command.
func (g *ChannelGraph) MarkChannelUnroutable(scid ShortChanID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	pair := g.policies[scid.ToUint64()]
	for _, p := range pair {
		if p != nil {
			p.LocalDisabled = true
		}
	}
}

// PruneChannelsOlderThan deletes every channel whose most recent policy
// update (on either side) is older than the given timestamp horizon. Only
// channels with at least one policy are examined; a channel that has never
// had a policy update is not pruned. This implements the pruning policy spec.md §3 attributes
// to the routing core ("dropping channels whose updates have fallen below a
// timestamp horizon").
func (g *ChannelGraph) PruneChannelsOlderThan(horizon uint32) ([]ShortChanID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var pruned []ShortChanID
	for scid, pair := range g.policies {
		newest := uint32(0)
		for _, p := range pair {
			if p != nil && p.LastUpdate > newest {
				newest = p.LastUpdate
			}
		}
		if newest != 0 && newest >= horizon {
			continue
		}

		id := g.edges[scid].ChannelID
		if err := g.store.deleteEdge(id); err != nil {
			return nil, err
		}
		delete(g.edges, scid)
		delete(g.policies, scid)
		pruned = append(pruned, id)
	}

	return pruned, nil
}
