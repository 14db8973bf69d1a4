package entity

import "strings"

// Relation names used across the catalog schema.
const (
	RelDistribution       = "distribution"
	RelCategory           = "category"
	RelIdentifier         = "identifier"
	RelPublisher          = "publisher"
	RelSpatialExtent      = "spatialExtent"
	RelTemporalExtent     = "temporalExtent"
	RelAccessService      = "accessService"
	RelSupportedOperation = "supportedOperation"
	RelDataProduct        = "dataProduct"
	RelProvider           = "provider"
	RelMapping            = "mapping"
	RelAddress            = "address"
	RelMemberOf           = "memberOf"
	RelMember             = "member"
	RelOwns               = "owns"
	RelOwner              = "owner"
	RelNarrower           = "narrower"
	RelBroader            = "broader"
)

// Schema declares the outgoing relations of each kind and their target kinds.
// The prefetch collector walks it generically instead of hardcoding one
// traversal per entity kind.
type Schema map[Kind]map[string]Kind

// CatalogSchema returns the relation schema of the metadata catalog.
func CatalogSchema() Schema {
	return Schema{
		DataProduct: {
			RelDistribution:   Distribution,
			RelCategory:       Category,
			RelIdentifier:     Identifier,
			RelPublisher:      Organization,
			RelSpatialExtent:  Location,
			RelTemporalExtent: Temporal,
		},
		Distribution: {
			RelAccessService:      WebService,
			RelSupportedOperation: Operation,
			RelDataProduct:        DataProduct,
		},
		WebService: {
			RelSpatialExtent: Location,
			RelProvider:      Organization,
			RelCategory:      Category,
		},
		Operation: {
			RelMapping: Mapping,
		},
		Organization: {
			RelIdentifier: Identifier,
			RelAddress:    Address,
			RelMemberOf:   Organization,
			RelMember:     Organization,
			RelOwns:       Facility,
		},
		Category: {
			RelNarrower: Category,
			RelBroader:  Category,
		},
		Facility: {
			RelSpatialExtent: Location,
			RelCategory:      Category,
			RelOwner:         Organization,
		},
		Software: {
			RelCategory:   Category,
			RelIdentifier: Identifier,
		},
		SourceCode: {
			RelCategory:   Category,
			RelIdentifier: Identifier,
		},
	}
}

// Targets returns the declared relations of a kind. Kinds without outgoing
// relations return nil.
func (s Schema) Targets(k Kind) map[string]Kind {
	return s[k]
}

// SplitKeywords turns a comma-separated keyword string into a lower-cased,
// trimmed set.
func SplitKeywords(raw string) map[string]struct{} {
	if raw == "" {
		return nil
	}
	out := make(map[string]struct{})
	for _, kw := range strings.Split(raw, ",") {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			out[kw] = struct{}{}
		}
	}
	return out
}
