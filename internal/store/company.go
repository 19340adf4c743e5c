package store

import "context"

const companyColumns = `owner_id, name, address, city, state, pincode, phone, email, gstin, website, logo_url, updated_at`

const getCompanySettings = `SELECT ` + companyColumns + ` FROM company_settings WHERE owner_id = $1`

// GetCompanySettings returns the owner's settings or ErrNotFound when none were saved.
func (q *Queries) GetCompanySettings(ctx context.Context, ownerID string) (CompanySettings, error) {
	var c CompanySettings
	err := q.db.QueryRow(ctx, getCompanySettings, ownerID).Scan(&c.OwnerID, &c.Name, &c.Address, &c.City, &c.State,
		&c.Pincode, &c.Phone, &c.Email, &c.GSTIN, &c.Website, &c.LogoURL, &c.UpdatedAt)
	return c, mapErr(err)
}

const upsertCompanySettings = `INSERT INTO company_settings (owner_id, name, address, city, state, pincode, phone, email, gstin, website, logo_url)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (owner_id) DO UPDATE SET
    name = EXCLUDED.name, address = EXCLUDED.address, city = EXCLUDED.city, state = EXCLUDED.state,
    pincode = EXCLUDED.pincode, phone = EXCLUDED.phone, email = EXCLUDED.email, gstin = EXCLUDED.gstin,
    website = EXCLUDED.website, logo_url = EXCLUDED.logo_url, updated_at = now()
RETURNING ` + companyColumns

// UpsertCompanySettings writes the owner's settings.
func (q *Queries) UpsertCompanySettings(ctx context.Context, s CompanySettings) (CompanySettings, error) {
	var c CompanySettings
	err := q.db.QueryRow(ctx, upsertCompanySettings, s.OwnerID, s.Name, s.Address, s.City, s.State, s.Pincode,
		s.Phone, s.Email, s.GSTIN, s.Website, s.LogoURL).Scan(&c.OwnerID, &c.Name, &c.Address, &c.City, &c.State,
		&c.Pincode, &c.Phone, &c.Email, &c.GSTIN, &c.Website, &c.LogoURL, &c.UpdatedAt)
	return c, mapErr(err)
}
