package importer

import (
	"github.com/google/uuid"
)

// Record is a canonical guest as produced from one accepted source row.
// ID is transient: it dedups within a batch and is never the storage id.
type Record struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	Organization string `json:"organization"`
	Tag          string `json:"tag"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
}

// Fields returns the canonical field set as a map.
func (r Record) Fields() map[string]string {
	return map[string]string{
		FieldTitle:        r.Title,
		FieldName:         r.Name,
		FieldRole:         r.Role,
		FieldOrganization: r.Organization,
		FieldTag:          r.Tag,
		FieldEmail:        r.Email,
		FieldPhone:        r.Phone,
	}
}

// Rejection explains why a source row was dropped. Row is 1-based over data rows.
type Rejection struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Result is the outcome of normalizing a batch.
type Result struct {
	Records  []Record    `json:"records"`
	Rejected []Rejection `json:"rejected"`
}

const (
	reasonMissingName = "missing name"
	reasonDuplicateID = "duplicate id"
)

// Normalizer maps arbitrary source rows onto the canonical guest schema.
type Normalizer struct {
	Aliases []FieldAlias
	// NewID mints transient ids for rows that carry none. Defaults to UUIDv4.
	NewID func() string
}

// NewNormalizer returns a Normalizer using DefaultAliases.
func NewNormalizer() *Normalizer {
	return &Normalizer{Aliases: DefaultAliases}
}

// Normalize resolves every row independently. Rows without a name, and rows repeating
// an id already accepted in the batch, are rejected; nothing else aborts the batch.
func (n *Normalizer) Normalize(rows []Row) Result {
	res := Result{Records: make([]Record, 0, len(rows)), Rejected: []Rejection{}}
	seen := make(map[string]bool, len(rows))
	for i, row := range rows {
		rec, ok := n.NormalizeRow(row)
		if !ok {
			res.Rejected = append(res.Rejected, Rejection{Row: i + 1, Reason: reasonMissingName})
			continue
		}
		if seen[rec.ID] {
			res.Rejected = append(res.Rejected, Rejection{Row: i + 1, Reason: reasonDuplicateID})
			continue
		}
		seen[rec.ID] = true
		res.Records = append(res.Records, rec)
	}
	return res
}

// NormalizeRow resolves a single row; ok is false when the name is empty.
func (n *Normalizer) NormalizeRow(row Row) (Record, bool) {
	aliases := n.Aliases
	if aliases == nil {
		aliases = DefaultAliases
	}
	vals := make(map[string]string, len(aliases))
	for _, fa := range aliases {
		vals[fa.Field] = row.value(fa.Aliases)
	}
	if vals[FieldName] == "" {
		return Record{}, false
	}
	rec := Record{
		ID:           cellString(row["id"]),
		Title:        vals[FieldTitle],
		Name:         vals[FieldName],
		Role:         vals[FieldRole],
		Organization: vals[FieldOrganization],
		Tag:          vals[FieldTag],
		Email:        vals[FieldEmail],
		Phone:        vals[FieldPhone],
	}
	if rec.ID == "" {
		rec.ID = n.newID()
	}
	return rec, true
}

func (n *Normalizer) newID() string {
	if n.NewID != nil {
		return n.NewID()
	}
	return uuid.NewString()
}
