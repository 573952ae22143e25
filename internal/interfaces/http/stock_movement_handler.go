package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/retail-api/internal/application/dto"
	"github.com/jhoicas/retail-api/internal/application/inventory"
	"github.com/jhoicas/retail-api/internal/domain/entity"
)

// StockMovementHandler expone el libro de stock.
type StockMovementHandler struct {
	ledger *inventory.StockLedger
}

// NewStockMovementHandler construye el handler.
func NewStockMovementHandler(ledger *inventory.StockLedger) *StockMovementHandler {
	return &StockMovementHandler{ledger: ledger}
}

// Record godoc
// @Summary      Registrar movimiento de stock
// @Description  Entrada (in), salida (out), ajuste con signo (adjustment) o devolución (return). Actualiza el stock del producto y agrega el movimiento al libro en una sola transacción.
// @Tags         stock-movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RecordMovementRequest  true  "product_id, movement_type, quantity"
// @Success      201   {object}  dto.StockMovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse  "INSUFFICIENT_STOCK"
// @Router       /api/stock-movements [post]
func (h *StockMovementHandler) Record(c *fiber.Ctx) error {
	var in dto.RecordMovementRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	out, err := h.ledger.RecordMovementFromRequest(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar movimientos
// @Tags         stock-movements
// @Security     Bearer
// @Produce      json
// @Param        product_id     query  string  false  "Filtrar por producto"
// @Param        movement_type  query  string  false  "in | out | adjustment | return"
// @Param        start_date     query  string  false  "YYYY-MM-DD o RFC 3339"
// @Param        end_date       query  string  false  "YYYY-MM-DD (inclusivo) o RFC 3339"
// @Param        page           query  int     false  "Página (default 1)"
// @Param        limit          query  int     false  "Tamaño de página (default 20, máx 100)"
// @Success      200  {object}  dto.StockMovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock-movements [get]
func (h *StockMovementHandler) List(c *fiber.Ctx) error {
	from, to, err := parseDateRange(c)
	if err != nil {
		return writeError(c, err)
	}
	page, err := parsePage(c)
	if err != nil {
		return writeError(c, err)
	}
	filter := entity.StockMovementFilter{
		ProductID: c.Query("product_id"),
		Type:      c.Query("movement_type"),
		From:      from,
		To:        to,
	}
	out, err := h.ledger.ListMovements(c.UserContext(), filter, page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ProductHistory godoc
// @Summary      Historial de movimientos de un producto
// @Tags         stock-movements
// @Security     Bearer
// @Produce      json
// @Param        id     path   string  true   "ID del producto"
// @Param        limit  query  int     false  "Máximo de movimientos (default 50)"
// @Success      200  {array}   dto.StockMovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock-movements/product/{id} [get]
func (h *StockMovementHandler) ProductHistory(c *fiber.Ctx) error {
	limit, err := parseIntQuery(c, "limit")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.ledger.ProductHistory(c.UserContext(), c.Params("id"), limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Summary godoc
// @Summary      Resumen de movimientos por tipo
// @Tags         stock-movements
// @Security     Bearer
// @Produce      json
// @Param        start_date  query  string  false  "YYYY-MM-DD o RFC 3339"
// @Param        end_date    query  string  false  "YYYY-MM-DD (inclusivo) o RFC 3339"
// @Success      200  {object}  dto.MovementSummaryResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock-movements/summary [get]
func (h *StockMovementHandler) Summary(c *fiber.Ctx) error {
	from, to, err := parseDateRange(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.ledger.SummarizeByType(c.UserContext(), from, to)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Value godoc
// @Summary      Valor actual del inventario
// @Tags         stock-movements
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.StockValueResponse
// @Router       /api/stock-movements/value [get]
func (h *StockMovementHandler) Value(c *fiber.Ctx) error {
	out, err := h.ledger.CurrentStockValue(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
