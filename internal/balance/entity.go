package balance

import "fmt"

// EntityKind identifies which kind of balance-bearing entity a key refers to.
type EntityKind string

const (
	KindMember   EntityKind = "member"
	KindResource EntityKind = "resource"
)

// EntityKey addresses a balance-bearing entity (a member or a resource)
// uniformly. Keys are stable and collision-free across the two kinds.
type EntityKey struct {
	Kind EntityKind `json:"kind"`
	ID   int64      `json:"id"`
}

// MemberKey builds the entity key for a member.
func MemberKey(id int64) EntityKey {
	return EntityKey{Kind: KindMember, ID: id}
}

// ResourceKey builds the entity key for a resource.
func ResourceKey(id int64) EntityKey {
	return EntityKey{Kind: KindResource, ID: id}
}

// String renders the key as "member_<id>" or "resource_<id>".
func (k EntityKey) String() string {
	return fmt.Sprintf("%s_%d", k.Kind, k.ID)
}

// Less orders keys by kind, then by id. Used for deterministic iteration
// wherever ordered output matters.
func (k EntityKey) Less(other EntityKey) bool {
	if k.Kind != other.Kind {
		return k.Kind < other.Kind
	}
	return k.ID < other.ID
}
