package importer

import (
	"fmt"
	"strings"

	"guestpass-backend/internal/pkg/textnorm"
)

// Canonical guest fields produced by Normalize.
const (
	FieldTitle        = "title"
	FieldName         = "name"
	FieldRole         = "role"
	FieldOrganization = "organization"
	FieldTag          = "tag"
	FieldEmail        = "email"
	FieldPhone        = "phone"
)

// FieldAlias lists, in priority order, the source keys accepted for one canonical field.
type FieldAlias struct {
	Field   string
	Aliases []string
}

// DefaultAliases is the canonical field -> source key table. Order matters twice:
// fields are resolved top to bottom and, within a field, the first alias holding a
// non-empty value wins.
var DefaultAliases = []FieldAlias{
	{FieldTitle, []string{"title", "danh_xung", "danh_xưng"}},
	{FieldName, []string{"name", "ten", "ho_ten", "full_name"}},
	{FieldRole, []string{"role", "chuc_vu", "position", "vai_tro"}},
	{FieldOrganization, []string{"organization", "to_chuc", "cong_ty", "company"}},
	{FieldTag, []string{"tag", "nhan", "label", "group"}},
	{FieldEmail, []string{"email", "thu_dien_tu"}},
	{FieldPhone, []string{"phone", "dien_thoai", "sdt", "phone_number"}},
}

// Row is one raw record from a parsed source, keyed by its original column names.
type Row map[string]any

// value returns the first non-empty trimmed value among aliases. Exact keys are
// tried before folded ones so an explicit "name" column beats a "Name " header.
func (r Row) value(aliases []string) string {
	for _, a := range aliases {
		if v := cellString(r[a]); v != "" {
			return v
		}
	}
	if len(r) == 0 {
		return ""
	}
	folded := make(map[string]any, len(r))
	for k, v := range r {
		fk := textnorm.Key(k)
		if _, seen := folded[fk]; !seen || cellString(folded[fk]) == "" {
			folded[fk] = v
		}
	}
	for _, a := range aliases {
		if v := cellString(folded[textnorm.Key(a)]); v != "" {
			return v
		}
	}
	return ""
}

func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		// JSON numbers: phone numbers and ids arrive as floats
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return strings.TrimSpace(fmt.Sprint(t))
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
