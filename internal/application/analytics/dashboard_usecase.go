// Package analytics contiene los reportes de ventas del dashboard.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/retail-api/internal/application/dto"
	"github.com/jhoicas/retail-api/internal/domain/entity"
	"github.com/jhoicas/retail-api/internal/domain/repository"
)

const dashboardTopProducts = 5 // productos en el widget del dashboard

// DashboardUseCase genera el resumen de ventas del día y del mes en curso.
//
// Fuente de datos: AnalyticsRepository (consultas read-only) y el catálogo para el stock bajo.
type DashboardUseCase struct {
	analyticsRepo repository.AnalyticsRepository
	products      repository.ProductRepository
	now           func() time.Time
}

// NewDashboardUseCase construye el caso de uso.
func NewDashboardUseCase(analyticsRepo repository.AnalyticsRepository, products repository.ProductRepository) *DashboardUseCase {
	return &DashboardUseCase{analyticsRepo: analyticsRepo, products: products, now: func() time.Time { return time.Now().UTC() }}
}

// GetSummary construye el resumen. Cuatro consultas en paralelo:
//  1. SalesMetrics(hoy)
//  2. SalesMetrics(mes)
//  3. TopProducts(mes, top 5)
//  4. productos con stock bajo
func (uc *DashboardUseCase) GetSummary(ctx context.Context) (*dto.DashboardSummaryResponse, error) {
	now := uc.now()

	// Hoy: 00:00:00.000 – 23:59:59.999
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	todayEnd := todayStart.Add(24*time.Hour - time.Nanosecond)
	// Mes en curso: día 1 a las 00:00 – hoy a las 23:59:59
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	type metricsResult struct {
		m   *entity.SalesMetrics
		err error
	}
	type topResult struct {
		items []entity.TopProduct
		err   error
	}
	type lowStockResult struct {
		count int
		err   error
	}

	todayCh := make(chan metricsResult, 1)
	monthCh := make(chan metricsResult, 1)
	topCh := make(chan topResult, 1)
	lowCh := make(chan lowStockResult, 1)

	go func() {
		m, err := uc.analyticsRepo.SalesMetrics(ctx, todayStart, todayEnd)
		todayCh <- metricsResult{m, err}
	}()
	go func() {
		m, err := uc.analyticsRepo.SalesMetrics(ctx, monthStart, todayEnd)
		monthCh <- metricsResult{m, err}
	}()
	go func() {
		items, err := uc.analyticsRepo.TopProducts(ctx, monthStart, todayEnd, dashboardTopProducts)
		topCh <- topResult{items, err}
	}()
	go func() {
		_, total, err := uc.products.List(ctx, repository.ProductFilter{LowStock: true}, 1, 0)
		lowCh <- lowStockResult{total, err}
	}()

	today := <-todayCh
	month := <-monthCh
	top := <-topCh
	low := <-lowCh

	if today.err != nil {
		return nil, fmt.Errorf("dashboard: métricas de hoy: %w", today.err)
	}
	if month.err != nil {
		return nil, fmt.Errorf("dashboard: métricas del mes: %w", month.err)
	}
	if top.err != nil {
		return nil, fmt.Errorf("dashboard: top productos: %w", top.err)
	}
	if low.err != nil {
		return nil, fmt.Errorf("dashboard: stock bajo: %w", low.err)
	}

	topProducts := make([]dto.TopProductResponse, 0, len(top.items))
	for _, p := range top.items {
		topProducts = append(topProducts, dto.TopProductResponse{
			ProductID:        p.ProductID,
			SKU:              p.SKU,
			Name:             p.Name,
			QuantitySold:     p.QuantitySold,
			Revenue:          p.Revenue.Round(2),
			MarginPercentage: p.MarginPercentage,
		})
	}

	return &dto.DashboardSummaryResponse{
		TodaySales:    today.m.Revenue.Round(2),
		TodayMargin:   today.m.Revenue.Sub(today.m.Cost).Round(2),
		TodayCount:    today.m.SaleCount,
		MonthlySales:  month.m.Revenue.Round(2),
		MonthlyMargin: month.m.Revenue.Sub(month.m.Cost).Round(2),
		MonthlyCount:  month.m.SaleCount,
		TopProducts:   topProducts,
		LowStockCount: low.count,
		DateLabel:     monthLabel(now),
	}, nil
}

// monthLabel devuelve una etiqueta legible del mes, ej: "Febrero 2026".
func monthLabel(t time.Time) string {
	months := [...]string{
		"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
		"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
	}
	return fmt.Sprintf("%s %d", months[t.Month()-1], t.Year())
}
