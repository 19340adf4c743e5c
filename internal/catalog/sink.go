package catalog

import (
	"context"

	"github.com/noah-isme/backend-pos/internal/importer"
	"github.com/noah-isme/backend-pos/internal/store"
)

// importSink adapts the service to the bulk importer for a single owner.
type importSink struct {
	svc     *Service
	ownerID string
}

// Importer returns the import sink writing into ownerID's catalog.
func (s *Service) Importer(ownerID string) importer.Sink {
	return importSink{svc: s, ownerID: ownerID}
}

// Snapshot lists the owner's categories in the shape the importer resolves against.
func (s *Service) Snapshot(ctx context.Context, ownerID string) ([]importer.CategoryRef, error) {
	cats, err := s.ListCategories(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	refs := make([]importer.CategoryRef, 0, len(cats))
	for _, c := range cats {
		ref := importer.CategoryRef{ID: c.ID, Name: c.Name}
		if c.Subcategory != nil {
			ref.Subcategory = *c.Subcategory
		}
		if c.Brand != nil {
			ref.Brand = *c.Brand
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// CreateCategory implements importer.Sink.
func (k importSink) CreateCategory(ctx context.Context, in importer.NewCategory) error {
	_, err := k.svc.CreateCategory(ctx, k.ownerID, CategoryInput{
		Name:        in.Name,
		Subcategory: in.Subcategory,
		Brand:       in.Brand,
	})
	return err
}

// CreateItem implements importer.Sink. Imported rows bypass request validation
// because the importer has already checked them.
func (k importSink) CreateItem(ctx context.Context, in importer.NewItem) error {
	arg := store.ItemParams{
		OwnerID:     k.ownerID,
		Name:        in.Name,
		Code:        in.Code,
		Barcode:     in.Barcode,
		CategoryID:  in.CategoryID,
		Subcategory: in.Subcategory,
		Cost:        in.Cost,
		Price:       in.Price,
		MRP:         in.MRP,
		Stock:       in.Stock,
	}
	if _, err := k.svc.queries.CreateItem(ctx, arg); err != nil {
		return translate(err, "item", in.Code)
	}
	k.svc.changed(ctx, k.ownerID)
	return nil
}

