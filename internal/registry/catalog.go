package registry

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/caioevelyn/giftregistry/internal/domain"
	"github.com/caioevelyn/giftregistry/internal/observability"
)

// CatalogInput is the admin-editable shape of a catalog item. The
// reservation fields are absent on purpose: nothing in the admin surface
// can set purchase_count, reserved or the last-reserver pointer.
type CatalogInput struct {
	Name          string
	Description   string
	Image         string
	ExternalLink  string
	Category      string
	AllowMultiple bool
	MaxQuantity   int
}

func (in CatalogInput) validate() error {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Description) == "" {
		return domain.ErrInvalidInput
	}
	if in.AllowMultiple && in.MaxQuantity < 1 {
		return domain.ErrInvalidInput
	}
	return nil
}

// Catalog is the admin-facing item manager. Authorization happens upstream
// in the HTTP middleware; by the time these methods run the caller is
// trusted.
type Catalog struct {
	store  Store
	audit  Auditor
	logger observability.Logger
}

func NewCatalog(store Store, audit Auditor, logger observability.Logger) *Catalog {
	return &Catalog{store: store, audit: audit, logger: logger}
}

func (c *Catalog) Create(ctx context.Context, in CatalogInput) (*domain.CatalogItem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	item := domain.NewCatalogItem(in.Name, in.Description, in.Image, in.ExternalLink,
		domain.ParseCategory(in.Category), in.AllowMultiple, in.MaxQuantity)

	if err := c.store.CreateItem(ctx, item); err != nil {
		return nil, classifyStoreErr(err)
	}
	c.stageEvent(ctx, item, "catalog.item.created")
	c.auditChange(ctx, item, "catalog.item.created")
	return &item, nil
}

// Update rewrites the editable fields of an existing item. Toggling
// allowMultiple off coerces maxQuantity back to 1 on save.
func (c *Catalog) Update(ctx context.Context, id uuid.UUID, in CatalogInput) (*domain.CatalogItem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	item, err := c.store.GetItem(ctx, id)
	if err != nil {
		return nil, classifyStoreErr(err)
	}

	item.Name = in.Name
	item.Description = in.Description
	item.Image = in.Image
	item.ExternalLink = in.ExternalLink
	item.Category = domain.ParseCategory(in.Category)
	item.AllowMultiple = in.AllowMultiple
	item.MaxQuantity = in.MaxQuantity
	if !item.AllowMultiple {
		item.MaxQuantity = 1
	}
	item.UpdatedAt = time.Now()

	if err := c.store.UpdateItem(ctx, *item); err != nil {
		return nil, classifyStoreErr(err)
	}
	c.stageEvent(ctx, *item, "catalog.item.updated")
	c.auditChange(ctx, *item, "catalog.item.updated")
	return item, nil
}

// Delete removes the item outright. Guest and pledge records keep their
// denormalized gift_name, so reports survive the dangling id.
func (c *Catalog) Delete(ctx context.Context, id uuid.UUID) error {
	item, err := c.store.GetItem(ctx, id)
	if err != nil {
		return classifyStoreErr(err)
	}
	if err := c.store.DeleteItem(ctx, id); err != nil {
		return classifyStoreErr(err)
	}
	c.stageEvent(ctx, *item, "catalog.item.deleted")
	c.auditChange(ctx, *item, "catalog.item.deleted")
	return nil
}

func (c *Catalog) Get(ctx context.Context, id uuid.UUID) (*domain.CatalogItem, error) {
	item, err := c.store.GetItem(ctx, id)
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	return item, nil
}

func (c *Catalog) List(ctx context.Context) ([]domain.CatalogItem, error) {
	items, err := c.store.ListItems(ctx)
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	return items, nil
}

func (c *Catalog) stageEvent(ctx context.Context, item domain.CatalogItem, eventType string) {
	payload, _ := json.Marshal(map[string]interface{}{
		"item_id": item.ID,
		"name":    item.Name,
	})
	if err := c.store.StageEvent(ctx, domain.NewEvent("catalog", item.ID, eventType, payload)); err != nil {
		c.logger.WithField("item_id", item.ID.String()).Warn("outbox stage failed: ", err)
	}
}

func (c *Catalog) auditChange(ctx context.Context, item domain.CatalogItem, action string) {
	if c.audit == nil {
		return
	}
	data := map[string]interface{}{
		"name":         item.Name,
		"category":     string(item.Category),
		"max_quantity": item.MaxQuantity,
	}
	if err := c.audit.Record(ctx, action, item.ID, data); err != nil {
		c.logger.WithField("item_id", item.ID.String()).Warn("audit write failed: ", err)
	}
}
