package objsize

import (
	"github.com/mem-analysis/pkg/utils"
)

// Settings bundles the four traversal strategies and the per-call
// knobs. It is a value type: the With* methods return modified copies
// and never touch the receiver, so a configured Settings can be stored
// once and shared between goroutines.
//
// The zero value uses the defaults: SkipSharedObjects, AppendReferents,
// ShallowSize and the GlobalRoots registry.
type Settings struct {
	filter    FilterFunc
	referents ReferentsFunc
	size      SizeFunc
	anchors   RootEnumerator
	visited   *IdentitySet
	exclude   []interface{}
	log       utils.Logger
}

// NewSettings returns default settings.
func NewSettings() Settings {
	return Settings{}
}

// WithFilter replaces the counting filter. Nil restores the default.
func (s Settings) WithFilter(f FilterFunc) Settings {
	s.filter = f
	return s
}

// WithReferents replaces the referents enumerator. Nil restores the
// default.
func (s Settings) WithReferents(f ReferentsFunc) Settings {
	s.referents = f
	return s
}

// WithSizeFunc replaces the block size function. Nil restores the
// default.
func (s Settings) WithSizeFunc(f SizeFunc) Settings {
	s.size = f
	return s
}

// WithRootEnumerator replaces the external anchor source used by
// exclusive traversal. Nil restores GlobalRoots.
func (s Settings) WithRootEnumerator(e RootEnumerator) Settings {
	s.anchors = e
	return s
}

// WithVisited injects a shared marked set. Traversals then skip blocks
// already in the set and add what they visit, letting callers measure
// several graphs without counting common parts twice. Nil restores the
// default of one fresh set per traversal.
func (s Settings) WithVisited(set *IdentitySet) Settings {
	s.visited = set
	return s
}

// WithExclude adds objects whose entire reachable subgraphs are
// excluded from traversal. The subgraphs are re-resolved at each
// traversal, against the graph as it then stands.
func (s Settings) WithExclude(objs ...interface{}) Settings {
	merged := make([]interface{}, 0, len(s.exclude)+len(objs))
	merged = append(merged, s.exclude...)
	merged = append(merged, objs...)
	s.exclude = merged
	return s
}

// WithLogger attaches a logger for traversal diagnostics: per-level
// expansion counts and the external-set size of exclusive walks, all
// at debug level. Nil keeps traversal silent, which is the default.
func (s Settings) WithLogger(l utils.Logger) Settings {
	s.log = l
	return s
}

// Filter returns the effective counting filter, defaults applied.
// External traversal drivers use these getters to reproduce the
// engine's admission rule.
func (s Settings) Filter() FilterFunc {
	return s.filterOrDefault()
}

// Referents returns the effective referents enumerator.
func (s Settings) Referents() ReferentsFunc {
	return s.referentsOrDefault()
}

// Size returns the effective block size function.
func (s Settings) Size() SizeFunc {
	return s.sizeOrDefault()
}

func (s Settings) filterOrDefault() FilterFunc {
	if s.filter != nil {
		return s.filter
	}
	return SkipSharedObjects
}

func (s Settings) referentsOrDefault() ReferentsFunc {
	if s.referents != nil {
		return s.referents
	}
	return AppendReferents
}

func (s Settings) sizeOrDefault() SizeFunc {
	if s.size != nil {
		return s.size
	}
	return ShallowSize
}

func (s Settings) anchorsOrDefault() RootEnumerator {
	if s.anchors != nil {
		return s.anchors
	}
	return GlobalRoots
}
