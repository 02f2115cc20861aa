package objsize

// IdentitySet is a hash set of block identities. The traversal engine
// uses one as its visited set; callers can allocate their own to share
// marked state across traversals or to pre-exclude subgraphs.
//
// An IdentitySet is not safe for concurrent mutation.
type IdentitySet struct {
	members map[identity]struct{}
}

// NewIdentitySet creates an empty set.
func NewIdentitySet() *IdentitySet {
	return &IdentitySet{members: make(map[identity]struct{})}
}

// Add inserts the object's identity. It reports true when the identity
// was newly added and false when it was already present or the object
// carries no identity.
func (s *IdentitySet) Add(o Object) bool {
	key, ok := o.id()
	if !ok {
		return false
	}
	return s.addKey(key)
}

// Has reports whether the object's identity is in the set.
// Identity-less objects are never members.
func (s *IdentitySet) Has(o Object) bool {
	key, ok := o.id()
	if !ok {
		return false
	}
	return s.hasKey(key)
}

// Remove deletes the object's identity from the set.
func (s *IdentitySet) Remove(o Object) {
	if key, ok := o.id(); ok {
		delete(s.members, key)
	}
}

// Merge inserts every identity from other.
func (s *IdentitySet) Merge(other *IdentitySet) {
	if other == nil {
		return
	}
	for key := range other.members {
		s.members[key] = struct{}{}
	}
}

// Len returns the number of identities in the set.
func (s *IdentitySet) Len() int {
	return len(s.members)
}

// Clone returns an independent copy.
func (s *IdentitySet) Clone() *IdentitySet {
	c := &IdentitySet{members: make(map[identity]struct{}, len(s.members))}
	for key := range s.members {
		c.members[key] = struct{}{}
	}
	return c
}

func (s *IdentitySet) addKey(key identity) bool {
	if _, ok := s.members[key]; ok {
		return false
	}
	s.members[key] = struct{}{}
	return true
}

func (s *IdentitySet) hasKey(key identity) bool {
	_, ok := s.members[key]
	return ok
}
