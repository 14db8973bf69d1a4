package search

import (
	"strings"

	"github.com/metadex-cloud/metadex/internal/domain/entity"
	"github.com/metadex-cloud/metadex/internal/domain/snapshot"
	"github.com/metadex-cloud/metadex/internal/domain/traverse"
)

// FullTextStage matches every query term (AND) against any searchable field
// (OR): the product's own keywords, uid, title and description, its
// identifiers, distribution titles, uids and descriptions, and the webservices
// behind them. Terms are already lower-cased by the criteria parser.
func FullTextStage(terms []string) Stage {
	return Stage{
		Name: "fulltext",
		Match: func(rec entity.Record, snap *snapshot.Snapshot) bool {
			for _, term := range terms {
				if !matchTerm(term, rec, snap) {
					return false
				}
			}
			return true
		},
	}
}

func matchTerm(term string, rec entity.Record, snap *snapshot.Snapshot) bool {
	if _, ok := rec.KeywordSet()[term]; ok {
		return true
	}
	if containsFold(rec.UID, term) {
		return true
	}
	if anyContainsFold(rec.Title, term) || anyContainsFold(rec.Description, term) {
		return true
	}

	for _, ident := range snap.Resolve(rec.Refs(entity.RelIdentifier)) {
		if containsFold(ident.Identifier, term) ||
			containsFold(ident.IdentifierType, term) ||
			containsFold(ident.IdentifierType+ident.Identifier, term) {
			return true
		}
	}

	for _, dist := range traverse.Distributions(rec, snap) {
		if anyContainsFold(dist.Title, term) ||
			containsFold(dist.UID, term) ||
			anyContainsFold(dist.Description, term) {
			return true
		}
	}

	for _, ws := range traverse.WebServices(rec, snap) {
		if containsFold(ws.UID, term) ||
			containsFold(ws.Name, term) ||
			anyContainsFold(ws.Description, term) {
			return true
		}
		if _, ok := ws.KeywordSet()[term]; ok {
			return true
		}
	}
	return false
}

func containsFold(s, term string) bool {
	return s != "" && strings.Contains(strings.ToLower(s), term)
}

func anyContainsFold(ss []string, term string) bool {
	for _, s := range ss {
		if containsFold(s, term) {
			return true
		}
	}
	return false
}
