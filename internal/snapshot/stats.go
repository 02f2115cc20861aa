package snapshot

import (
	"context"
	"sort"

	"github.com/mem-analysis/pkg/collections"
	"github.com/mem-analysis/pkg/filter"
	"github.com/mem-analysis/pkg/model"
	"github.com/mem-analysis/pkg/parallel"
)

// TypeStats aggregates block counts and bytes per type name. The fold
// fans out across worker-local maps; workers <= 0 uses the pool
// default.
func (s *Snapshot) TypeStats(ctx context.Context, workers int) map[string]*model.TypeStat {
	if s.ObjectCount() == 0 {
		return make(map[string]*model.TypeStat)
	}

	cfg := parallel.DefaultPoolConfig()
	if workers > 0 {
		cfg = cfg.WithWorkers(workers)
	}

	merged := parallel.ParallelAggregate(ctx, s.Nodes[1:], cfg,
		func(n Node) (string, model.TypeStat) {
			return n.TypeName, model.TypeStat{Count: 1, Bytes: n.Size}
		},
		func(existing, incoming model.TypeStat) model.TypeStat {
			existing.Merge(incoming)
			return existing
		},
	)

	stats := make(map[string]*model.TypeStat, len(merged))
	for name, stat := range merged {
		st := stat
		stats[name] = &st
	}
	return stats
}

// TopNodes returns the n heaviest blocks by retained size, heaviest
// first. A non-nil filter drops types too generic to headline, so raw
// buffers and boxed scalars do not crowd out the structures that own
// them. Triggers the dominator computation if it has not run yet.
func (s *Snapshot) TopNodes(n int, tf *filter.TypeFilter) []model.NodeInfo {
	if n <= 0 || s.ObjectCount() == 0 {
		return nil
	}
	s.ComputeRetained()

	scratch := collections.GetInt32Slice()
	ids := (*scratch)[:0]
	for id := int32(1); int(id) < len(s.Nodes); id++ {
		if tf != nil && tf.ShouldFilterTopLevel(s.Nodes[id].TypeName) {
			continue
		}
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool {
		ri, rj := s.retained[ids[i]], s.retained[ids[j]]
		if ri != rj {
			return ri > rj
		}
		return ids[i] < ids[j]
	})
	if len(ids) > n {
		ids = ids[:n]
	}

	infos := make([]model.NodeInfo, 0, len(ids))
	for _, id := range ids {
		node := &s.Nodes[id]
		infos = append(infos, model.NodeInfo{
			ID:       int(id),
			TypeName: node.TypeName,
			Kind:     node.Kind,
			Size:     node.Size,
			Retained: s.retained[id],
			Refs:     len(node.Refs),
			Level:    int(node.Level),
		})
	}

	*scratch = ids[:0]
	collections.PutInt32Slice(scratch)
	return infos
}

// CategoryBytes rolls shallow sizes up into coarse type categories:
// primitive, stdlib, container, application, business. A nil filter
// uses the package default.
func (s *Snapshot) CategoryBytes(tf *filter.TypeFilter) map[string]uint64 {
	if tf == nil {
		tf = filter.DefaultFilter
	}
	out := make(map[string]uint64)
	for i := 1; i < len(s.Nodes); i++ {
		out[tf.Classify(s.Nodes[i].TypeName).String()] += s.Nodes[i].Size
	}
	return out
}
