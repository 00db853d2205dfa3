// Package enumerate performs constrained depth-first search over an
// expanded feature tree, producing the valid configurations.
package enumerate

import (
	"context"
	"errors"
	"sync"

	"github.com/jmhorcas/recursive-configuration/pkg/feature"
	"github.com/jmhorcas/recursive-configuration/pkg/feature/constraint"
)

// errStop halts the search without signalling a failure: the limit
// was reached or the caller went away.
var errStop = errors.New("enumeration stopped")

type options struct {
	limit   int
	workers int
}

// Option configures a single enumeration or count call.
type Option func(*options)

// WithLimit stops the search after n configurations. Zero means
// unbounded.
func WithLimit(n int) Option {
	return func(o *options) { o.limit = n }
}

// WithWorkers explores the branches of the root's first choice point
// on up to n goroutines, each with its own copied partial
// configuration. Ordering across branches is unspecified.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// Enumerate returns a lazy sequence of every valid configuration of
// the expanded tree, in pre-order branch order (unless workers > 1).
// The channel is closed when the space is exhausted, the limit is
// reached, or ctx is cancelled; each received Configuration is an
// independent copy. Every call opens a fresh search.
func Enumerate(ctx context.Context, t *feature.ExpandedTree, set constraint.Set, opts ...Option) <-chan feature.Configuration {
	o := apply(opts)
	out := make(chan feature.Configuration)
	go func() {
		defer close(out)
		searchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		e := &emitter{ctx: searchCtx, ch: out, limit: o.limit}
		newSearcher(searchCtx, t, set, e).run(o.workers)
	}()
	return out
}

// Count performs the same search as Enumerate without materializing
// configurations and returns the cardinality of the valid space. A
// limit, if given, caps the count.
func Count(ctx context.Context, t *feature.ExpandedTree, set constraint.Set, opts ...Option) (int, error) {
	o := apply(opts)
	searchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	e := &emitter{ctx: searchCtx, limit: o.limit}
	newSearcher(searchCtx, t, set, e).run(o.workers)
	if err := ctx.Err(); err != nil {
		return e.count, err
	}
	return e.count, nil
}

func apply(opts []Option) options {
	o := options{workers: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		o.workers = 1
	}
	return o
}

// emitter serializes results across branch workers and enforces the
// limit.
type emitter struct {
	ctx   context.Context
	ch    chan<- feature.Configuration
	limit int

	mu    sync.Mutex
	count int
}

func (e *emitter) emit(cfg feature.Configuration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.limit > 0 && e.count >= e.limit {
		return errStop
	}
	if e.ch != nil {
		select {
		case e.ch <- cfg.Clone():
		case <-e.ctx.Done():
			return errStop
		}
	}
	e.count++
	if e.limit > 0 && e.count >= e.limit {
		return errStop
	}
	return nil
}

// searcher holds the immutable search inputs: the tree, the compiled
// constraints, and the atom-to-constraint watch index used for
// incremental propagation.
type searcher struct {
	ctx    context.Context
	tree   *feature.ExpandedTree
	cons   constraint.Set
	byAtom map[feature.Identifier][]int
	need   []int
	out    *emitter
}

func newSearcher(ctx context.Context, t *feature.ExpandedTree, set constraint.Set, out *emitter) *searcher {
	s := &searcher{
		ctx:    ctx,
		tree:   t,
		cons:   set,
		byAtom: map[feature.Identifier][]int{},
		need:   make([]int, len(set)),
		out:    out,
	}
	for ci, c := range set {
		seen := map[feature.Identifier]struct{}{}
		for _, a := range c.Atoms() {
			if _, dup := seen[a]; dup {
				continue
			}
			seen[a] = struct{}{}
			s.byAtom[a] = append(s.byAtom[a], ci)
			s.need[ci]++
		}
	}
	return s
}

// frame is one branch's mutable search state: the partial
// configuration and, per constraint, how many of its atoms are bound.
type frame struct {
	cfg   feature.Configuration
	bound []int
}

func (s *searcher) newFrame() *frame {
	return &frame{
		cfg:   make(feature.Configuration, s.tree.Len()),
		bound: make([]int, len(s.cons)),
	}
}

func (f *frame) clone() *frame {
	out := &frame{cfg: f.cfg.Clone(), bound: make([]int, len(f.bound))}
	copy(out.bound, f.bound)
	return out
}

// cont is the remainder of the search after the current decision.
type cont func(f *frame) error

func (s *searcher) run(workers int) {
	root := s.tree.Root
	f := s.newFrame()

	finish := func(f *frame) error {
		return s.out.emit(f.cfg)
	}

	if workers <= 1 || len(root.Groups) == 0 {
		_ = s.decide(f, root, true, func(f *frame) error {
			return s.expand(f, root, finish)
		})
		return
	}

	// Parallel mode: the combinations of the root's first group are
	// the branch points. Each combination continues on its own
	// goroutine with a copied frame; results merge by concatenation.
	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	spawn := func(f *frame) error {
		if s.ctx.Err() != nil {
			return errStop
		}
		branch := f.clone()
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			_ = s.group(branch, root, 1, finish)
		}()
		return nil
	}
	_ = s.decide(f, root, true, func(f *frame) error {
		return s.combos(f, root.Groups[0], spawn)
	})
	wg.Wait()
}

// decide binds inst to val, re-checks exactly the constraints whose
// atoms are now fully bound, runs k, and undoes the binding. A
// violated constraint or a forbidden selection prunes the branch.
func (s *searcher) decide(f *frame, inst *feature.Instance, val bool, k cont) error {
	if err := s.ctx.Err(); err != nil {
		return errStop
	}
	if inst.Forbidden && val {
		return nil
	}

	f.cfg[inst.ID] = val
	ok := true
	watched := s.byAtom[inst.ID]
	for _, ci := range watched {
		f.bound[ci]++
		if ok && f.bound[ci] == s.need[ci] && !s.cons[ci].Evaluate(f.cfg) {
			ok = false
		}
	}

	var err error
	if ok {
		err = k(f)
	}

	for _, ci := range watched {
		f.bound[ci]--
	}
	delete(f.cfg, inst.ID)
	return err
}

// expand walks inst's subtree given inst's already-bound value: an
// unselected instance forces its whole subtree off, a selected one
// branches group by group.
func (s *searcher) expand(f *frame, inst *feature.Instance, k cont) error {
	if !f.cfg[inst.ID] {
		return s.pattern(f, inst.Children(), 0, func(int) bool { return false }, func(f *frame) error {
			return s.descend(f, inst.Children(), 0, k)
		})
	}
	return s.group(f, inst, 0, k)
}

// group enumerates the group-consistent value assignments of the
// groups of inst from gi on, descending into the subtrees once every
// group is decided.
func (s *searcher) group(f *frame, inst *feature.Instance, gi int, k cont) error {
	if gi == len(inst.Groups) {
		return s.descend(f, inst.Children(), 0, k)
	}
	next := func(f *frame) error { return s.group(f, inst, gi+1, k) }
	return s.combos(f, inst.Groups[gi], next)
}

// combos tries each value assignment of one group's children that is
// consistent with the group kind (the parent is already selected),
// running k for each.
func (s *searcher) combos(f *frame, g feature.InstanceGroup, next cont) error {
	switch g.Kind {
	case feature.MandatoryChildren:
		return s.pattern(f, g.Children, 0, func(int) bool { return true }, next)
	case feature.OptionalChild:
		return s.optional(f, g.Children, 0, next)
	case feature.Alternative:
		for pick := range g.Children {
			if g.Children[pick].Forbidden {
				continue
			}
			chosen := pick
			err := s.pattern(f, g.Children, 0, func(i int) bool { return i == chosen }, next)
			if err != nil {
				return err
			}
		}
		return nil
	case feature.Or:
		return s.orGroup(f, g.Children, 0, false, next)
	}
	return nil
}

// pattern binds each child to a fixed value, then k.
func (s *searcher) pattern(f *frame, children []*feature.Instance, i int, val func(int) bool, k cont) error {
	if i == len(children) {
		return k(f)
	}
	return s.decide(f, children[i], val(i), func(f *frame) error {
		return s.pattern(f, children, i+1, val, k)
	})
}

// optional tries each child unselected then selected, independently.
func (s *searcher) optional(f *frame, children []*feature.Instance, i int, k cont) error {
	if i == len(children) {
		return k(f)
	}
	rest := func(f *frame) error { return s.optional(f, children, i+1, k) }
	if err := s.decide(f, children[i], false, rest); err != nil {
		return err
	}
	if children[i].Forbidden {
		return nil
	}
	return s.decide(f, children[i], true, rest)
}

// orGroup tries every non-empty subset of the children.
func (s *searcher) orGroup(f *frame, children []*feature.Instance, i int, any bool, k cont) error {
	if i == len(children) {
		if !any {
			return nil
		}
		return k(f)
	}
	rest := func(sel bool) cont {
		return func(f *frame) error { return s.orGroup(f, children, i+1, any || sel, k) }
	}
	if err := s.decide(f, children[i], false, rest(false)); err != nil {
		return err
	}
	if children[i].Forbidden {
		return nil
	}
	return s.decide(f, children[i], true, rest(true))
}

// descend expands each child's subtree in declared order.
func (s *searcher) descend(f *frame, children []*feature.Instance, i int, k cont) error {
	if i == len(children) {
		return k(f)
	}
	return s.expand(f, children[i], func(f *frame) error {
		return s.descend(f, children, i+1, k)
	})
}
