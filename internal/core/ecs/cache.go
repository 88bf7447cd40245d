package ecs

import "github.com/forgeecs/forge/internal/core/collection"

// cache pairs a trigger with its filter and the entities that currently pass it.
type cache struct {
	id      TriggerID
	trigger Trigger
	filter  Filter
	list    *collection.UnorderedList[*Entity]
	d       dispatch
}

func newCache(id TriggerID, t Trigger, f Filter, key collection.MetadataKey) *cache {
	return &cache{
		id:      id,
		trigger: t,
		filter:  f,
		list:    collection.NewUnorderedList[*Entity](key),
		d:       newDispatch(t),
	}
}

// updateCache re-evaluates e against the filter and fires the cache
// transition, if any.
func (c *cache) updateCache(e *Entity) {
	passed := c.filter.Check(e)
	contains := c.list.Contains(e)

	switch {
	case passed && !contains:
		c.list.Add(e)
		if c.d.added != nil {
			c.d.added(e)
		}
	case !passed && contains:
		c.list.Remove(e)
		if c.d.removed != nil {
			c.d.removed(e)
		}
	}
}

// forceRemove evicts e regardless of the filter.
func (c *cache) forceRemove(e *Entity) bool {
	if !c.list.Remove(e) {
		return false
	}
	if c.d.removed != nil {
		c.d.removed(e)
	}
	return true
}

func (c *cache) contains(e *Entity) bool {
	return c.list.Contains(e)
}
