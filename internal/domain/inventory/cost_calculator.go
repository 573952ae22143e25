package inventory

import "github.com/shopspring/decimal"

// CostCalculator implementa la lógica de costo promedio ponderado (servicio de dominio).
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
// Con stock previo no positivo el costo de entrada reemplaza al actual.
func CostCalculator(stockActual int64, costoActual decimal.Decimal, cantEntrada int64, costoEntrada decimal.Decimal) decimal.Decimal {
	if cantEntrada <= 0 {
		return costoActual
	}
	if stockActual <= 0 {
		return costoEntrada
	}
	sa := decimal.NewFromInt(stockActual)
	ce := decimal.NewFromInt(cantEntrada)
	num := sa.Mul(costoActual).Add(ce.Mul(costoEntrada))
	return num.Div(sa.Add(ce)).Round(4)
}
