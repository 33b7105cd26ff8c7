// Package report renders quotation documents to PDF through a Gotenberg
// service.
package report

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/cotizo-erp/cotizo/internal/quotes"
)

//go:embed templates/*.html
var templates embed.FS

// Exporter converts a quotation into a PDF by rendering the HTML
// template and posting it to Gotenberg's Chromium route.
type Exporter struct {
	endpoint string
	client   *http.Client
	tpl      *template.Template
	printer  *message.Printer
}

func NewExporter(endpoint string, client *http.Client) (*Exporter, error) {
	printer := message.NewPrinter(language.English)
	funcMap := template.FuncMap{
		"money": func(currency string, d decimal.Decimal) string {
			f, _ := d.Round(2).Float64()
			return printer.Sprintf("%s %.2f", currency, f)
		},
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("January 2, 2006")
		},
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"upper": strings.ToUpper,
		"now": func() string {
			return time.Now().Format("January 2, 2006 at 15:04")
		},
	}

	tpl, err := template.New("quotation.html").Funcs(funcMap).ParseFS(templates, "templates/quotation.html")
	if err != nil {
		return nil, fmt.Errorf("parse quotation template: %w", err)
	}

	return &Exporter{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   client,
		tpl:      tpl,
		printer:  printer,
	}, nil
}

// Ping verifies the Gotenberg service is reachable.
func (e *Exporter) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.endpoint+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := e.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("gotenberg unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gotenberg health returned %d", resp.StatusCode)
	}
	return nil
}

// Render implements quotes.PDFRenderer.
func (e *Exporter) Render(ctx context.Context, q *quotes.Quotation) ([]byte, error) {
	if e.endpoint == "" {
		return nil, fmt.Errorf("gotenberg endpoint required")
	}

	html, err := e.buildHTML(q)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("files", "quotation.html")
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(part, html); err != nil {
		return nil, err
	}

	fields := map[string]string{
		"paperWidth":   "8.27",
		"paperHeight":  "11.69",
		"marginTop":    "0.5",
		"marginBottom": "0.5",
		"marginLeft":   "0.5",
		"marginRight":  "0.5",
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint+"/forms/chromium/convert/html", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := e.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("gotenberg response %d: %s", resp.StatusCode, string(data))
	}

	return io.ReadAll(resp.Body)
}

func (e *Exporter) buildHTML(q *quotes.Quotation) (string, error) {
	buf := &bytes.Buffer{}
	if err := e.tpl.ExecuteTemplate(buf, "quotation.html", q); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (e *Exporter) httpClient() *http.Client {
	if e.client != nil {
		return e.client
	}
	return http.DefaultClient
}
