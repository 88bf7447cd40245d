package ecs

import "github.com/rotisserie/eris"

// Get returns the current value of component T on e.
func Get[T Data](e *Entity) (T, error) {
	var zero T
	id, err := IDOf[T](e.reg)
	if err != nil {
		return zero, err
	}
	d, err := e.Current(id)
	if err != nil {
		return zero, err
	}
	return d.(T), nil
}

// Prev returns the previous value of versioned component T on e.
func Prev[T Data](e *Entity) (T, error) {
	var zero T
	id, err := IDOf[T](e.reg)
	if err != nil {
		return zero, err
	}
	d, err := e.Previous(id)
	if err != nil {
		return zero, err
	}
	return d.(T), nil
}

// Modify returns the writable instance of component T on e.
func Modify[T Data](e *Entity) (T, error) {
	var zero T
	id, err := IDOf[T](e.reg)
	if err != nil {
		return zero, err
	}
	d, err := e.Modify(id)
	if err != nil {
		return zero, err
	}
	return d.(T), nil
}

func Has[T Data](e *Entity) bool {
	id, err := IDOf[T](e.reg)
	return err == nil && e.Has(id)
}

func Remove[T Data](e *Entity) error {
	id, err := IDOf[T](e.reg)
	if err != nil {
		return err
	}
	return e.RemoveComponent(id)
}

// Each1 visits every entity cached for trigger id together with its current A.
func Each1[A Data](m *EntityManager, id TriggerID, fn func(*Entity, A)) error {
	entities, err := m.CachedEntities(id)
	if err != nil {
		return err
	}
	for _, e := range entities {
		a, err := Get[A](e)
		if err != nil {
			return eris.Wrapf(err, "each1 over trigger %d", id)
		}
		fn(e, a)
	}
	return nil
}

// Each2 visits every entity cached for trigger id together with its current A
// and B. The trigger's filter should require both types.
func Each2[A, B Data](m *EntityManager, id TriggerID, fn func(*Entity, A, B)) error {
	entities, err := m.CachedEntities(id)
	if err != nil {
		return err
	}
	for _, e := range entities {
		a, err := Get[A](e)
		if err != nil {
			return eris.Wrapf(err, "each2 over trigger %d", id)
		}
		b, err := Get[B](e)
		if err != nil {
			return eris.Wrapf(err, "each2 over trigger %d", id)
		}
		fn(e, a, b)
	}
	return nil
}
