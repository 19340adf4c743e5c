package importer

import "strings"

var templates = map[Kind][][]string{
	KindCategories: {
		{"name", "subcategory", "brand"},
		{"Electronics", "Phones", "Acme"},
	},
	KindItems: {
		{"name", "code", "barcode", "category_name", "subcategory", "cost", "price", "mrp", "stock"},
		{"USB Cable", "USB-001", "8901234567890", "Electronics", "Accessories", "45.00", "99.00", "120.00", "25"},
	},
}

// Columns returns the header of the template for kind.
func Columns(kind Kind) []string {
	rows, ok := templates[kind]
	if !ok {
		return nil
	}
	return append([]string(nil), rows[0]...)
}

// Template renders a CSV template with a header and one example row.
func Template(kind Kind) string {
	rows, ok := templates[kind]
	if !ok {
		return ""
	}
	var b strings.Builder
	for _, row := range rows {
		b.WriteString(strings.Join(row, ","))
		b.WriteByte('\n')
	}
	return b.String()
}
