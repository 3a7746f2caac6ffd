package dto

// ImportResult resumen de una importación desde hoja de cálculo.
// Las filas con problemas se omiten y quedan en Warnings.
type ImportResult struct {
	Processed int      `json:"processed"`
	Created   int      `json:"created"`
	Updated   int      `json:"updated"`
	Skipped   int      `json:"skipped"`
	Warnings  []string `json:"warnings"`
}
