package objsize

// DeepSize returns the total bytes of every block reachable from the
// roots, each block counted once. The result is 0 when no root
// survives the filter.
func (s Settings) DeepSize(objs ...interface{}) uint64 {
	return s.sumOver(s.Traverse(objs...))
}

// ExclusiveDeepSize returns the total bytes of the blocks only the
// roots keep alive: the deep size minus everything also reachable from
// the external anchors. It never exceeds DeepSize over the same roots.
func (s Settings) ExclusiveDeepSize(objs ...interface{}) uint64 {
	return s.sumOver(s.TraverseExclusive(objs...))
}

// ExcludeSet returns the identities of every block reachable from the
// given objects, the objects themselves included. The walk is raw:
// exclusion is physical reachability, so the counting filter does not
// apply.
func (s Settings) ExcludeSet(objs ...interface{}) *IdentitySet {
	set := NewIdentitySet()
	markReachable(set, objectsOf(objs), s.referentsOrDefault())
	return set
}

func (s Settings) sumOver(it *Iterator) uint64 {
	defer it.Close()
	size := s.sizeOrDefault()
	var total uint64
	for it.Next() {
		total += size(it.Object())
	}
	return total
}

// DeepSize measures with default settings.
func DeepSize(objs ...interface{}) uint64 {
	return NewSettings().DeepSize(objs...)
}

// ExclusiveDeepSize measures exclusively with default settings.
func ExclusiveDeepSize(objs ...interface{}) uint64 {
	return NewSettings().ExclusiveDeepSize(objs...)
}

// ExcludeSet resolves an exclusion set with default settings.
func ExcludeSet(objs ...interface{}) *IdentitySet {
	return NewSettings().ExcludeSet(objs...)
}
