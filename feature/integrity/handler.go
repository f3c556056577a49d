package integrity

import (
	"errors"

	"bitrot-detector/core/fileid"
	"bitrot-detector/core/logger"
	"bitrot-detector/core/paths"
	"bitrot-detector/core/records"
	"bitrot-detector/core/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the record store of a volume.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the integrity routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/integrity")
	group.Get("/status", h.HandleStatus)
	group.Get("/corrupted", h.HandleCorrupted)
	group.Post("/scan", h.HandleScan)
	group.Post("/records/:key/clear", h.HandleClear)
	group.Get("/reports", h.HandleReports)
	group.Get("/reports/:id", h.HandleReport)
}

// HandleStatus returns the state of the record store.
// @Summary Record Store Status
// @Description Returns the last scan metadata and the number of tracked and corrupted files.
// @Tags integrity
// @Produce json
// @Success 200 {object} integrity.Status
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/status [get]
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	status, err := h.service.Status(c.UserContext())
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Status failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(status)
}

// HandleCorrupted lists corrupted files.
// @Summary List Corrupted Files
// @Description Lists every file whose content changed while its modification time did not.
// @Tags integrity
// @Produce json
// @Success 200 {object} map[string]interface{} "Corrupted records"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/corrupted [get]
func (h *Handler) HandleCorrupted(c *fiber.Ctx) error {
	recs, err := h.service.Corrupted(c.UserContext())
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Listing corrupted records failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{
		"count":   len(recs),
		"records": recs,
	})
}

// HandleScan runs a scan of the volume and returns its summary.
// @Summary Scan Volume
// @Description Reconciles the volume against the record store. Concurrent requests share one scan.
// @Tags integrity
// @Produce json
// @Param verify query boolean false "Rehash files whose timestamp is unchanged"
// @Success 200 {object} map[string]interface{} "Scan summary"
// @Failure 400 {object} map[string]string "Invalid volume root"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/scan [post]
func (h *Handler) HandleScan(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	verify := utils.ToBool(c.Query("verify"))
	l.Info("Triggering scan", zap.Bool("verify", verify))

	summary, shared, err := h.service.Scan(c.UserContext(), verify)
	if err != nil {
		l.Error("Scan failed", zap.Error(err))
		status := fiber.StatusInternalServerError
		if errors.Is(err, paths.ErrInvalidVolumeRoot) {
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"shared":  shared,
		"summary": summary,
	})
}

// HandleClear resets the corruption flag of a record.
// @Summary Clear Corruption Flag
// @Description Clears the sticky corruption flag of the record with the given identity key (volume:file id, hex).
// @Tags integrity
// @Produce json
// @Param key path string true "Identity key"
// @Success 200 {object} records.Record
// @Failure 400 {object} map[string]string "Invalid key"
// @Failure 404 {object} map[string]string "Record not found"
// @Failure 409 {object} map[string]string "Scan in progress"
// @Router /integrity/records/{key}/clear [post]
func (h *Handler) HandleClear(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	key, err := fileid.ParseKey(c.Params("key"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	rec, err := h.service.Clear(c.UserContext(), key)
	switch {
	case errors.Is(err, records.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrScanInProgress):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		l.Error("Clearing corruption flag failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(rec)
}

// HandleReports lists archived scan reports.
// @Summary List Scan Reports
// @Description Lists the scan reports archived in object storage, newest first.
// @Tags reports
// @Produce json
// @Success 200 {object} map[string]interface{} "Archived reports"
// @Failure 503 {object} map[string]string "Archive disabled"
// @Router /integrity/reports [get]
func (h *Handler) HandleReports(c *fiber.Ctx) error {
	objects, err := h.service.Reports(c.UserContext())
	if err != nil {
		return h.reportError(c, err)
	}

	items := make([]fiber.Map, 0, len(objects))
	for _, obj := range objects {
		items = append(items, fiber.Map{
			"key":           obj.Key,
			"size":          obj.Size,
			"last_modified": obj.LastModified,
		})
	}
	return c.JSON(fiber.Map{"reports": items})
}

// HandleReport returns one archived scan report.
// @Summary Get Scan Report
// @Description Downloads the archived report of a scan.
// @Tags reports
// @Produce json
// @Param id path string true "Scan id"
// @Success 200 {object} report.Report
// @Failure 503 {object} map[string]string "Archive disabled"
// @Router /integrity/reports/{id} [get]
func (h *Handler) HandleReport(c *fiber.Ctx) error {
	r, err := h.service.Report(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.reportError(c, err)
	}
	return c.JSON(r)
}

func (h *Handler) reportError(c *fiber.Ctx, err error) error {
	if errors.Is(err, ErrArchiveDisabled) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	}
	logger.WithRayID(h.service.logger, c).Error("Report request failed", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}
