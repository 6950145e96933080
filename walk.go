// PureSNMP-Go - SNMP client library for Go
// License: MIT
package puresnmp

import (
	"context"
	"errors"
)

// ErrorPolicy selects how a walk reacts to an agent that violates the
// GetNext ordering contract.
type ErrorPolicy int

const (
	// PolicyStrict aborts the walk with FaultySNMPImplementation.
	PolicyStrict ErrorPolicy = iota
	// PolicyWarn logs the violation and truncates the affected subtree,
	// keeping the varbinds collected so far.
	PolicyWarn
)

// WalkItem is one element of a streamed walk: either a varbind or the
// error that ended the stream. After an item with a non-nil Err the
// channel is closed.
type WalkItem struct {
	VarBind VarBind
	Err     error
}

// fetchFunc retrieves the continuation batch for the given cursors:
// MultiGetNext for plain walks, BulkGet for bulk walks.
type fetchFunc func(ctx context.Context, oids []Oid) ([]VarBind, error)

// groupVarbinds distributes response varbinds onto the walk roots by
// subtree containment. Varbinds outside every root land in unmatched;
// they mark the end of their interleaved column in a bulk response.
func groupVarbinds(varbinds []VarBind, roots []Oid) ([][]VarBind, []VarBind) {
	groups := make([][]VarBind, len(roots))
	var unmatched []VarBind
	for _, vb := range varbinds {
		placed := false
		for i, root := range roots {
			if root.Contains(vb.Oid) {
				groups[i] = append(groups[i], vb)
				placed = true
				break
			}
		}
		if !placed {
			unmatched = append(unmatched, vb)
		}
	}
	return groups, unmatched
}

// multiWalk drives the continuation rounds for a set of subtrees and
// streams the results to out, closing it when every subtree is
// exhausted or the walk dies. Duplicate OIDs across rounds are
// suppressed; each subtree ends on leaving its root, on endOfMibView,
// or on a detected ordering violation.
func (c *Client) multiWalk(ctx context.Context, roots []Oid, fetch fetchFunc, policy ErrorPolicy, out chan<- WalkItem) {
	defer close(out)

	cursors := make([]Oid, len(roots))
	active := make([]bool, len(roots))
	for i, root := range roots {
		cursors[i] = root.clone()
		active[i] = true
	}
	seen := make(map[string]struct{})

	for round := 0; round < MaxWalkRounds; round++ {
		var reqOids []Oid
		var reqIdx []int
		for i, ok := range active {
			if ok {
				reqOids = append(reqOids, cursors[i])
				reqIdx = append(reqIdx, i)
			}
		}
		if len(reqOids) == 0 {
			return
		}

		vbs, err := fetch(ctx, reqOids)
		if err != nil {
			var errResp ErrorResponse
			var noSuch NoSuchOID
			if errors.As(err, &errResp) && errResp.Status == StatusNoSuchName {
				// v1 has no endOfMibView; noSuchName is the end of the tree
				return
			}
			if errors.As(err, &noSuch) {
				return
			}
			out <- WalkItem{Err: err}
			return
		}

		activeRoots := make([]Oid, len(reqIdx))
		for n, i := range reqIdx {
			activeRoots[n] = roots[i]
		}
		groups, unmatched := groupVarbinds(vbs, activeRoots)
		if len(unmatched) > 0 {
			logDebugf("walk: %d varbinds outside all roots dropped", len(unmatched))
		}

		for n, i := range reqIdx {
			group := groups[n]
			if len(group) == 0 {
				active[i] = false
				continue
			}
			prev := cursors[i]
			for _, vb := range group {
				if vb.Value.Kind == KindEndOfMibView {
					active[i] = false
					break
				}
				if vb.Oid.Compare(prev) <= 0 {
					fault := FaultySNMPImplementation{Requested: prev, Received: vb.Oid}
					if policy == PolicyStrict {
						out <- WalkItem{Err: fault}
						return
					}
					logWarnf("walk truncated at %s: %v", roots[i], fault)
					active[i] = false
					break
				}
				prev = vb.Oid
				if _, dup := seen[vb.Oid.String()]; dup {
					logWarnf("walk: duplicate varbind %s dropped", vb.Oid)
					continue
				}
				seen[vb.Oid.String()] = struct{}{}
				out <- WalkItem{VarBind: vb}
			}
			cursors[i] = prev
		}
	}
	logWarnf("walk stopped after %d rounds", MaxWalkRounds)
}

func (c *Client) getNextFetch(ctx context.Context, oids []Oid) ([]VarBind, error) {
	return c.MultiGetNext(ctx, oids)
}

func (c *Client) bulkFetch(ctx context.Context, oids []Oid) ([]VarBind, error) {
	res, err := c.BulkGet(ctx, nil, oids, c.cfg.MaxRepetitions)
	if err != nil {
		return nil, err
	}
	return res.Listing, nil
}

func collectWalk(ch <-chan WalkItem) ([]VarBind, error) {
	var out []VarBind
	for item := range ch {
		if item.Err != nil {
			return out, item.Err
		}
		out = append(out, item.VarBind)
	}
	return out, nil
}

// Walk traverses the subtree under root with GetNext requests. A
// nonexistent subtree yields an empty result, not an error.
func (c *Client) Walk(ctx context.Context, root Oid) ([]VarBind, error) {
	return c.MultiWalk(ctx, []Oid{root})
}

// MultiWalk traverses several subtrees in parallel within shared
// request rounds, yielding their varbinds interleaved.
func (c *Client) MultiWalk(ctx context.Context, roots []Oid) ([]VarBind, error) {
	ch := make(chan WalkItem)
	go c.multiWalk(ctx, roots, c.getNextFetch, c.cfg.OnFaultyAgent, ch)
	return collectWalk(ch)
}

// BulkWalk traverses the subtree under root with GetBulk requests.
func (c *Client) BulkWalk(ctx context.Context, root Oid) ([]VarBind, error) {
	return c.MultiBulkWalk(ctx, []Oid{root})
}

// MultiBulkWalk traverses several subtrees with GetBulk requests.
func (c *Client) MultiBulkWalk(ctx context.Context, roots []Oid) ([]VarBind, error) {
	ch := make(chan WalkItem)
	go c.multiWalk(ctx, roots, c.bulkFetch, c.cfg.OnFaultyAgent, ch)
	return collectWalk(ch)
}

// WalkChan streams a GetNext walk. The channel closes when the subtree
// is exhausted or after one item carrying the terminal error.
func (c *Client) WalkChan(ctx context.Context, root Oid) <-chan WalkItem {
	ch := make(chan WalkItem)
	go c.multiWalk(ctx, []Oid{root}, c.getNextFetch, c.cfg.OnFaultyAgent, ch)
	return ch
}

// BulkWalkChan streams a GetBulk walk.
func (c *Client) BulkWalkChan(ctx context.Context, root Oid) <-chan WalkItem {
	ch := make(chan WalkItem)
	go c.multiWalk(ctx, []Oid{root}, c.bulkFetch, c.cfg.OnFaultyAgent, ch)
	return ch
}
