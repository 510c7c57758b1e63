package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/pribylovaa/duta-client/internal/models"
)

// ProgressFunc получает процент отправленного тела запроса (0..100).
// Вызывается только при изменении значения.
type ProgressFunc func(percent int)

// Upload отправляет multipart-форму (поля + фото подтверждения) авторизованным
// POST-запросом на path и декодирует data ответа в out.
// Фото уходят полями proof_of_transfer_<i> в порядке proofs.
func (c *Client) Upload(ctx context.Context, path string, fields []models.FormField, proofs []models.Proof, progress ProgressFunc, out any) error {
	const op = "client.upload.Upload"

	token, err := c.token(ctx, true, "")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	body, contentType, err := buildForm(fields, proofs)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	total := int64(body.Len())
	if err := c.send(ctx, call{
		method:        http.MethodPost,
		path:          path,
		body:          &progressReader{r: body, total: total, last: -1, fn: progress},
		contentType:   contentType,
		contentLength: total,
		token:         token,
	}, out); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// buildForm собирает форму целиком в память: общий размер нужен для процента прогресса.
func buildForm(fields []models.FormField, proofs []models.Proof) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range fields {
		if err := w.WriteField(f.Name, f.Value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f.Name, err)
		}
	}

	for i, p := range proofs {
		if p.Body == nil {
			return nil, "", fmt.Errorf("proof %d: empty body", i)
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			models.ProofField(i), quoteEscaper.Replace(p.Filename)))
		h.Set("Content-Type", p.MIMEType())

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("proof %d: %w", i, err)
		}
		if _, err := io.Copy(part, p.Body); err != nil {
			return nil, "", fmt.Errorf("proof %d: read: %w", i, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}

type progressReader struct {
	r      io.Reader
	total  int64
	loaded int64
	last   int
	fn     ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.loaded += int64(n)

	if p.fn != nil && p.total > 0 {
		pct := int(p.loaded * 100 / p.total)
		if pct != p.last {
			p.last = pct
			p.fn(pct)
		}
	}

	return n, err
}
