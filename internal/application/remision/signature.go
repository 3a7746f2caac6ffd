package remision

import (
	"bytes"
	"encoding/base64"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/jhoicas/lotes-remision/internal/domain"
)

// maxSignatureBytes límite para la imagen de firma ya decodificada.
const maxSignatureBytes = 2 << 20

// DecodeSignature decodifica una firma en base64 (con o sin prefijo data:image/...;base64,)
// y verifica que sea una imagen PNG o JPEG.
func DecodeSignature(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, domain.Invalid("signature", "es obligatoria")
	}
	if strings.HasPrefix(raw, "data:") {
		i := strings.Index(raw, ",")
		if i < 0 {
			return nil, domain.Invalid("signature", "data URL sin contenido")
		}
		raw = raw[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, domain.Invalid("signature", "base64 inválido")
	}
	if len(data) > maxSignatureBytes {
		return nil, domain.Invalid("signature", "la imagen supera 2 MB")
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || (format != "png" && format != "jpeg") {
		return nil, domain.Invalid("signature", "debe ser una imagen PNG o JPEG")
	}
	return data, nil
}
