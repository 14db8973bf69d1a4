package entity

import (
	"fmt"

	"github.com/metadex-cloud/metadex/internal/domain"
)

// Kind identifies a catalog entity type.
type Kind string

// Catalog entity kinds.
const (
	DataProduct  Kind = "dataproduct"
	Distribution Kind = "distribution"
	WebService   Kind = "webservice"
	Organization Kind = "organization"
	Category     Kind = "category"
	Location     Kind = "location"
	Identifier   Kind = "identifier"
	Temporal     Kind = "temporal"
	Operation    Kind = "operation"
	Mapping      Kind = "mapping"
	Address      Kind = "address"
	Facility     Kind = "facility"
	Software     Kind = "softwareapplication"
	SourceCode   Kind = "softwaresourcecode"
	Plugin       Kind = "plugin"
)

// Kinds lists every known entity kind.
func Kinds() []Kind {
	return []Kind{
		DataProduct, Distribution, WebService, Organization, Category, Location,
		Identifier, Temporal, Operation, Mapping, Address, Facility,
		Software, SourceCode, Plugin,
	}
}

// ParseKind validates a kind string.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnknownKind, s)
}
