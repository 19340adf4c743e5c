package importer

// CategoryRef is one entry of the category snapshot used for name resolution.
type CategoryRef struct {
	ID          string
	Name        string
	Subcategory string
	Brand       string
}

// ResolveCategoryID finds the category a (name, subcategory) pair refers to.
// Categories are stored one row per name and subcategory, so the lookup tries an
// exact match, then the main category with no subcategory, then any row with the
// name.
func ResolveCategoryID(name, subcategory string, known []CategoryRef) (string, bool) {
	if subcategory != "" {
		for _, c := range known {
			if c.Name == name && c.Subcategory == subcategory {
				return c.ID, true
			}
		}
	}
	for _, c := range known {
		if c.Name == name && c.Subcategory == "" {
			return c.ID, true
		}
	}
	for _, c := range known {
		if c.Name == name {
			return c.ID, true
		}
	}
	return "", false
}
