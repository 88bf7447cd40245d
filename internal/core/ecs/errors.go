package ecs

import "errors"

var (
	ErrUnregisteredComponent = errors.New("component type is not registered")
	ErrComponentRegistered   = errors.New("component type already registered")
	ErrTooManyComponentTypes = errors.New("too many component types")
	ErrNilComponent          = errors.New("nil component")

	ErrNoSuchComponent = errors.New("entity does not hold component")
	ErrComponentExists = errors.New("entity already holds component")
	ErrNotVersioned    = errors.New("component type is not versioned")

	ErrEntityAlreadyAdded   = errors.New("entity already added")
	ErrEntityNotAdded       = errors.New("entity was never added")
	ErrEntityAlreadyRemoved = errors.New("entity already removed")
	ErrEntityRemoved        = errors.New("entity has been removed")
	ErrForeignRegistry      = errors.New("entity was built against another registry")

	ErrNilTrigger      = errors.New("nil trigger")
	ErrUnknownTrigger  = errors.New("unknown trigger")
	ErrReentrantUpdate = errors.New("UpdateWorld called from inside a frame")
)
