package http

import (
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/lotes-remision/internal/domain"
)

// readUpload lee el archivo multipart del campo dado, hasta max bytes.
func readUpload(c *fiber.Ctx, field string, max int64) ([]byte, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, domain.Invalid(field, "archivo requerido (multipart/form-data)")
	}
	if fh.Size > max {
		return nil, domain.Invalid(field, fmt.Sprintf("el archivo supera %d MB", max>>20))
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("abrir archivo subido: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, max+1))
	if err != nil {
		return nil, fmt.Errorf("leer archivo subido: %w", err)
	}
	if int64(len(data)) > max {
		return nil, domain.Invalid(field, fmt.Sprintf("el archivo supera %d MB", max>>20))
	}
	return data, nil
}
