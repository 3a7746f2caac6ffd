package ports

// Metrics contadores de negocio. El adaptador Prometheus vive en infrastructure/metrics.
type Metrics interface {
	ObserveAllocation(complete bool)
	ShipmentConfirmed(lines int)
	CountFinalized(discrepancies int)
	CountApplied(updated, created, skipped int)
}

// NopMetrics descarta todas las observaciones (tests y herramientas de línea de comandos).
type NopMetrics struct{}

func (NopMetrics) ObserveAllocation(bool)     {}
func (NopMetrics) ShipmentConfirmed(int)      {}
func (NopMetrics) CountFinalized(int)         {}
func (NopMetrics) CountApplied(int, int, int) {}
