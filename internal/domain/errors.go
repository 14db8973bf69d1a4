package domain

import "errors"

var (
	// ErrNotFound signals a record absent from the store or snapshot.
	ErrNotFound = errors.New("not found")
	// ErrMalformedGeometry signals unparsable WKT text.
	ErrMalformedGeometry = errors.New("malformed geometry")
	// ErrUpstreamUnavailable signals a failed batch retrieval from the entity store.
	ErrUpstreamUnavailable = errors.New("entity store unavailable")
	// ErrParameterParse signals an unusable query parameter value.
	ErrParameterParse = errors.New("parameter parse error")
	// ErrUnknownKind signals an entity kind outside the catalog schema.
	ErrUnknownKind = errors.New("unknown entity kind")
)
