package integrity

import (
	"bitrot-detector/core/reconcile"
	"bitrot-detector/feature/report"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates the integrity feature for the volume at root.
func NewFeature(root string, db *gorm.DB, cfg reconcile.Config, archiver *report.Archiver, logger *zap.Logger) *Feature {
	svc := NewService(root, db, cfg, archiver, logger)
	return &Feature{service: svc, handler: NewHandler(svc)}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "integrity"
}

// IsEnabled reports whether the feature has a database to serve.
func (f *Feature) IsEnabled() bool {
	return f.service.db != nil
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
