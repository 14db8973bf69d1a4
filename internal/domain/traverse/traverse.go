// Package traverse walks the catalog relation graph through a frozen
// snapshot. Every helper is a pure read; absent references simply resolve to
// nothing.
package traverse

import (
	"github.com/metadex-cloud/metadex/internal/domain/entity"
	"github.com/metadex-cloud/metadex/internal/domain/snapshot"
)

// Distributions resolves a dataproduct's distributions.
func Distributions(rec entity.Record, snap *snapshot.Snapshot) []entity.Record {
	return snap.Resolve(rec.Refs(entity.RelDistribution))
}

// WebServices resolves the webservices behind a dataproduct's distributions,
// deduplicated in traversal order.
func WebServices(rec entity.Record, snap *snapshot.Snapshot) []entity.Record {
	var out []entity.Record
	seen := map[string]struct{}{}
	for _, dist := range Distributions(rec, snap) {
		for _, ws := range snap.Resolve(dist.Refs(entity.RelAccessService)) {
			if _, ok := seen[ws.InstanceID]; ok {
				continue
			}
			seen[ws.InstanceID] = struct{}{}
			out = append(out, ws)
		}
	}
	return out
}

// Locations resolves every spatial extent reachable from a dataproduct: its
// own plus those of the webservices serving it.
func Locations(rec entity.Record, snap *snapshot.Snapshot) []entity.Record {
	out := snap.Resolve(rec.Refs(entity.RelSpatialExtent))
	for _, ws := range WebServices(rec, snap) {
		out = append(out, snap.Resolve(ws.Refs(entity.RelSpatialExtent))...)
	}
	return out
}

// ProviderOrgIDs collects the organizations behind a dataproduct: its
// publishers and the providers of the webservices serving it.
func ProviderOrgIDs(rec entity.Record, snap *snapshot.Snapshot) []string {
	var out []string
	for _, ref := range rec.Refs(entity.RelPublisher) {
		out = append(out, ref.InstanceID)
	}
	for _, ws := range WebServices(rec, snap) {
		for _, ref := range ws.Refs(entity.RelProvider) {
			out = append(out, ref.InstanceID)
		}
	}
	return out
}
