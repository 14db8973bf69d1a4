package search

import (
	"strings"

	"github.com/metadex-cloud/metadex/internal/domain/entity"
	"github.com/metadex-cloud/metadex/internal/domain/snapshot"
)

// KeywordStage keeps records whose own keyword set shares at least one entry
// with the requested keywords. Comparison is lower-cased and trimmed.
func KeywordStage(requested []string) Stage {
	want := make(map[string]struct{}, len(requested))
	for _, kw := range requested {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			want[kw] = struct{}{}
		}
	}
	return Stage{
		Name: "keywords",
		Match: func(rec entity.Record, _ *snapshot.Snapshot) bool {
			for kw := range rec.KeywordSet() {
				if _, ok := want[kw]; ok {
					return true
				}
			}
			return false
		},
	}
}
