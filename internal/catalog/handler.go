package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"porkorder/internal/audit"
	"porkorder/internal/auth"
	"porkorder/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type ProductResponse struct {
	ID    uint            `json:"id"`
	Name  string          `json:"name"`
	Unit  string          `json:"unit"`
	Price decimal.Decimal `json:"price"`
}

type CreateProductRequest struct {
	Name  string          `json:"name"`
	Unit  string          `json:"unit"`
	Price json.RawMessage `json:"price"`
}

// UpdateProductRequest fields are applied only when present in the body.
// ID is read by the legacy POST /api/products/update route.
type UpdateProductRequest struct {
	ID    json.RawMessage `json:"id"`
	Name  *string         `json:"name"`
	Unit  *string         `json:"unit"`
	Price json.RawMessage `json:"price"`
}

func toResponse(p models.Product) ProductResponse {
	return ProductResponse{ID: p.ID, Name: p.Name, Unit: p.Unit, Price: p.Price}
}

// GET /api/products?query=
func ListProductsHandler(store *Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		products, err := store.Search(c.UserContext(), c.Query("query"))
		if err != nil {
			return err
		}

		res := make([]ProductResponse, 0, len(products))
		for _, p := range products {
			res = append(res, toResponse(p))
		}
		return c.JSON(res)
	}
}

// POST /api/products (admin)
func CreateProductHandler(store *Store, auditor *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		name := strings.TrimSpace(body.Name)
		if name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name required")
		}
		price, ok := rawPrice(body.Price)
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "bad price")
		}

		p := models.Product{Name: name, Unit: strings.TrimSpace(body.Unit), Price: price}
		if err := store.Create(c.UserContext(), &p); err != nil {
			return err
		}

		writeAudit(c, auditor, audit.LogOptions{
			EntityID:    p.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("product %s created", p.Name),
			After:       p,
		})
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "id": p.ID, "product": toResponse(p)})
	}
}

// PUT /api/products/:id, POST /api/products/update (admin)
func UpdateProductHandler(store *Store, auditor *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body UpdateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		id, ok := productID(c, body.ID)
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "id required")
		}

		var patch Patch
		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "name required")
			}
			patch.Name = &name
		}
		if body.Unit != nil {
			unit := strings.TrimSpace(*body.Unit)
			patch.Unit = &unit
		}
		if len(body.Price) > 0 {
			price, ok := rawPrice(body.Price)
			if !ok {
				return fiber.NewError(fiber.StatusBadRequest, "bad price")
			}
			patch.Price = &price
		}

		before, after, err := store.Update(c.UserContext(), id, patch)
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "not found")
		}
		if err != nil {
			return err
		}

		writeAudit(c, auditor, audit.LogOptions{
			EntityID:    id,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("product %s updated", after.Name),
			Before:      before,
			After:       after,
		})
		return c.JSON(fiber.Map{"ok": true, "product": toResponse(*after)})
	}
}

// DELETE /api/products/:id, POST /api/products/delete (admin)
func DeleteProductHandler(store *Store, auditor *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			ID json.RawMessage `json:"id"`
		}
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&body); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
			}
		}
		id, ok := productID(c, body.ID)
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "id required")
		}

		deleted, err := store.Delete(c.UserContext(), id)
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "not found")
		}
		if err != nil {
			return err
		}

		writeAudit(c, auditor, audit.LogOptions{
			EntityID:    id,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("product %s deleted", deleted.Name),
			Before:      deleted,
		})
		return c.JSON(fiber.Map{"ok": true})
	}
}

// POST /api/products/import (admin, multipart "file")
func ImportProductsHandler(store *Store, auditor *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "file required")
		}
		if !strings.HasSuffix(strings.ToLower(fh.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, "only .xlsx files can be imported")
		}

		f, err := fh.Open()
		if err != nil {
			return fmt.Errorf("open upload: %w", err)
		}
		defer f.Close()

		res, err := store.ImportXLSX(c.UserContext(), f)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		writeAudit(c, auditor, audit.LogOptions{
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("workbook %s imported: %d created, %d updated", fh.Filename, res.Created, res.Updated),
			After:       res,
		})
		return c.JSON(fiber.Map{"ok": true, "result": res})
	}
}

// The route id wins over a body id.
func productID(c *fiber.Ctx, raw json.RawMessage) (uint, bool) {
	if p := c.Params("id"); p != "" {
		return ParseID(p)
	}
	s := strings.Trim(string(bytes.TrimSpace(raw)), `"`)
	return ParseID(strings.TrimSpace(s))
}

// rawPrice accepts a JSON number, a numeric string, null or nothing (zero).
func rawPrice(raw json.RawMessage) (decimal.Decimal, bool) {
	s := string(bytes.TrimSpace(raw))
	if s == "" || s == "null" {
		return decimal.Zero, true
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return decimal.Zero, false
		}
		s = str
	}
	return ParsePrice(s)
}

func writeAudit(c *fiber.Ctx, auditor *audit.Service, opts audit.LogOptions) {
	if auditor == nil {
		return
	}
	opts.Actor = auth.Actor(c)
	opts.EntityType = audit.EntityProduct
	if err := auditor.WriteLog(c.UserContext(), opts); err != nil {
		log.Warn().Err(err).Uint("entity_id", opts.EntityID).Msg("audit log not written")
	}
}
