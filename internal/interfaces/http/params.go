package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/retail-api/internal/application/dto"
	"github.com/jhoicas/retail-api/internal/domain"
)

const dateLayout = "2006-01-02"

// parseDateParam lee un query param de fecha (YYYY-MM-DD o RFC 3339).
// Con endOfDay, una fecha sin hora se toma inclusiva hasta el final de ese día.
func parseDateParam(c *fiber.Ctx, name string, endOfDay bool) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		return nil, domain.NewValidationError(name, "fecha inválida, use YYYY-MM-DD o RFC 3339")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// parseDateRange lee start_date y end_date.
func parseDateRange(c *fiber.Ctx) (from, to *time.Time, err error) {
	if from, err = parseDateParam(c, "start_date", false); err != nil {
		return nil, nil, err
	}
	if to, err = parseDateParam(c, "end_date", true); err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

// parsePage lee page y limit; los valores por defecto los aplica el caso de uso.
func parsePage(c *fiber.Ctx) (dto.PageRequest, error) {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return page, domain.NewValidationError("page", "page y limit deben ser enteros")
	}
	return page, nil
}

// parseIntQuery lee un entero opcional del query string.
func parseIntQuery(c *fiber.Ctx, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError(name, "debe ser un entero")
	}
	return n, nil
}
