package ecs

// Filter matches entities that hold every required component type. An empty
// filter matches every entity.
type Filter struct {
	required mask
}

func NewFilter(ids ...ComponentID) Filter {
	var f Filter
	for _, id := range ids {
		f.required.set(id)
	}
	return f
}

// Check tests e's committed component set.
func (f Filter) Check(e *Entity) bool {
	return e.committedMask().contains(f.required)
}

func (f Filter) Empty() bool { return f.required.empty() }

// Requires reports whether id is one of the required types.
func (f Filter) Requires(id ComponentID) bool { return f.required.has(id) }

// Required lists the required ids in ascending order.
func (f Filter) Required() []ComponentID { return f.required.ids() }

// interested reports whether a modification of the components in modified is
// relevant to this filter.
func (f Filter) interested(modified mask) bool {
	return f.required.empty() || f.required.intersects(modified)
}
