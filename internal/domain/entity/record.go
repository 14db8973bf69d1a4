package entity

import "time"

// Reference is a weak pointer to another record. It carries no ownership and
// resolves only through a snapshot.
type Reference struct {
	Kind       Kind   `json:"kind"`
	InstanceID string `json:"instanceId"`
}

// Record is a catalog entity. InstanceID is unique within a kind; UID is the
// external identifier. Scalar fields are a union across kinds: a record
// populates only the fields its kind defines. Relation slices keep their
// declared order (the first supported operation of a distribution is
// meaningful).
type Record struct {
	InstanceID string `json:"instanceId"`
	MetaID     string `json:"metaId,omitempty"`
	UID        string `json:"uid,omitempty"`
	Kind       Kind   `json:"kind"`

	Title       []string `json:"title,omitempty"`
	Description []string `json:"description,omitempty"`
	// Keywords is a comma-separated list, as delivered by the harvesters.
	Keywords  string   `json:"keywords,omitempty"`
	Name      string   `json:"name,omitempty"`
	LegalName []string `json:"legalName,omitempty"`
	Country   string   `json:"country,omitempty"`
	Logo      string   `json:"logo,omitempty"`
	URL       string   `json:"url,omitempty"`

	// WKT holds the geometry of a location record.
	WKT string `json:"wkt,omitempty"`

	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`

	Identifier     string `json:"identifier,omitempty"`
	IdentifierType string `json:"identifierType,omitempty"`

	Format      string   `json:"format,omitempty"`
	DownloadURL []string `json:"downloadUrl,omitempty"`
	Template    string   `json:"template,omitempty"`
	Returns     []string `json:"returns,omitempty"`

	// Software record fields. MainEntityOfPage and CodeRepository serve as
	// download fallbacks for applications and source code respectively.
	SoftwareVersion     string `json:"softwareVersion,omitempty"`
	LicenseURL          string `json:"licenseUrl,omitempty"`
	Requirements        string `json:"requirements,omitempty"`
	InstallURL          string `json:"installUrl,omitempty"`
	MainEntityOfPage    string `json:"mainEntityOfPage,omitempty"`
	CodeRepository      string `json:"codeRepository,omitempty"`
	ProgrammingLanguage string `json:"programmingLanguage,omitempty"`
	RuntimePlatform     string `json:"runtimePlatform,omitempty"`

	Property     string   `json:"property,omitempty"`
	Variable     string   `json:"variable,omitempty"`
	DefaultValue string   `json:"defaultValue,omitempty"`
	ParamValue   []string `json:"paramValue,omitempty"`

	Status          string     `json:"status,omitempty"`
	EditorID        string     `json:"editorId,omitempty"`
	ChangeTimestamp *time.Time `json:"changeTimestamp,omitempty"`

	Relations map[string][]Reference `json:"relations,omitempty"`
}

// Refs returns the references of a named relation, in declared order.
func (r Record) Refs(relation string) []Reference {
	if r.Relations == nil {
		return nil
	}
	return r.Relations[relation]
}

// FirstRef returns the first reference of a relation, if any.
func (r Record) FirstRef(relation string) (Reference, bool) {
	refs := r.Refs(relation)
	if len(refs) == 0 {
		return Reference{}, false
	}
	return refs[0], true
}

// Ref returns a reference pointing at this record.
func (r Record) Ref() Reference {
	return Reference{Kind: r.Kind, InstanceID: r.InstanceID}
}

// KeywordSet splits the comma-separated keyword field into a lower-cased,
// trimmed set. Empty entries are dropped.
func (r Record) KeywordSet() map[string]struct{} {
	return SplitKeywords(r.Keywords)
}
