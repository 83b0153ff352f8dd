// Package server wires the HTTP routes of the order app.
package server

import (
	"errors"
	"strings"

	"porkorder/internal/audit"
	"porkorder/internal/auth"
	"porkorder/internal/catalog"
	"porkorder/internal/config"
	"porkorder/internal/logging"
	"porkorder/internal/metrics"
	"porkorder/internal/orders"
	"porkorder/internal/pricing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// New builds the app. reg may be nil, in which case /metrics is not served.
func New(cfg *config.Config, db *gorm.DB, reg *metrics.Registry) *fiber.App {
	store := catalog.NewStore(db)
	auditor := audit.NewService(db)

	var obs pricing.Observer
	var reqObs logging.RequestObserver
	if reg != nil {
		obs, reqObs = reg, reg
	}
	pricer := pricing.NewPricer(store, obs)
	sheets := orders.NewService(db, pricer)

	app := fiber.New(fiber.Config{
		AppName:      "porkorder",
		ErrorHandler: ErrorHandler,
	})

	app.Use(logging.RequestLogger(reqObs))

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(corsOrigins, ","),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowCredentials: cfg.CORSOrigins != "*",
	}))

	adminOnly := auth.AdminOnly(cfg)
	api := app.Group("/api")

	// Auth
	api.Post("/auth/login", auth.LoginHandler(cfg))
	api.Post("/auth/logout", auth.LogoutHandler())
	api.Get("/auth/status", auth.StatusHandler(cfg))

	// Products
	api.Get("/products", catalog.ListProductsHandler(store))
	api.Post("/products", adminOnly, catalog.CreateProductHandler(store, auditor))
	api.Post("/products/add", adminOnly, catalog.CreateProductHandler(store, auditor))
	api.Post("/products/update", adminOnly, catalog.UpdateProductHandler(store, auditor))
	api.Post("/products/delete", adminOnly, catalog.DeleteProductHandler(store, auditor))
	api.Post("/products/import", adminOnly, catalog.ImportProductsHandler(store, auditor))
	api.Put("/products/:id", adminOnly, catalog.UpdateProductHandler(store, auditor))
	api.Delete("/products/:id", adminOnly, catalog.DeleteProductHandler(store, auditor))

	// Audit
	api.Get("/audit-logs", adminOnly, audit.ListAuditLogsHandler(auditor))
	api.Post("/audit-logs/:id/undo", adminOnly, audit.UndoAuditLogHandler(auditor))

	// Order sheets
	api.Get("/orders", orders.GetSheetHandler(sheets))
	api.Get("/orders/list", orders.ListSheetsHandler(sheets))
	api.Post("/orders/new", orders.NewSheetHandler(sheets))
	api.Post("/orders/rename", orders.RenameHandler(sheets))
	api.Post("/orders/reprice", orders.RepriceHandler(sheets))
	api.Get("/orders/export.csv", orders.ExportCSVHandler(sheets))
	api.Get("/orders/export.xlsx", orders.ExportXLSXHandler(sheets, cfg.CompanyName))
	api.Get("/quote", orders.QuoteHandler(pricer))

	// Row edits keep the paths the order page already posts to.
	app.Post("/api_add_row", orders.AddRowHandler(sheets))
	app.Post("/api_update_cell", orders.UpdateCellHandler(sheets))
	app.Post("/api_delete_row", orders.DeleteRowHandler(sheets))

	app.Get("/print", orders.PrintHandler(sheets, cfg.CompanyName))

	if reg != nil {
		app.Get("/metrics", adaptor.HTTPHandler(reg.Handler()))
	}
	return app
}

// ErrorHandler renders every error as {ok:false,error}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, orders.ErrSheetNotFound):
		fe = fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, orders.ErrBadIndex), errors.Is(err, orders.ErrMissingArgs):
		fe = fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, orders.ErrSheetExists):
		fe = fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		log.Error().Err(err).Str("path", c.Path()).Msg("unexpected error")
		fe = fiber.NewError(fiber.StatusInternalServerError, "internal server error")
	}
	return c.Status(fe.Code).JSON(fiber.Map{"ok": false, "error": fe.Message})
}
