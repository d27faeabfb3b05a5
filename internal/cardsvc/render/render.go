package render

import (
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/avvvet/qrcard-services/internal/cardsvc/metrics"
	"github.com/avvvet/qrcard-services/internal/cardsvc/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// QREncoder turns text into PNG image data.
type QREncoder interface {
	Encode(text string) ([]byte, error)
}

// Document holds the named slots of a rendered card page.
type Document struct {
	Code     string
	Name     string
	Email    string
	Phone    string
	Github   string
	Linkedin string
	SelfURL  string

	QRDataURL  template.URL
	QRFileName string
}

// IndexPage feeds the submission form. Form and Code refill the inputs after
// a rejected submission.
type IndexPage struct {
	Error   string
	Success string
	Form    models.CardFields
	Code    string
}

type Renderer struct {
	qr    QREncoder
	card  *template.Template
	index *template.Template
}

func New(qr QREncoder) (*Renderer, error) {
	funcs := template.FuncMap{"href": href}

	card, err := template.New("card.html").Funcs(funcs).ParseFS(templateFS, "templates/card.html")
	if err != nil {
		return nil, fmt.Errorf("parse card template: %w", err)
	}
	index, err := template.New("index.html").Funcs(funcs).ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse index template: %w", err)
	}

	return &Renderer{qr: qr, card: card, index: index}, nil
}

// Render builds the document for card. It touches no storage.
func (r *Renderer) Render(card models.Card, selfURL string) (*Document, error) {
	defer metrics.RecordRenderDuration(time.Now())

	png, err := r.qr.Encode(selfURL)
	if err != nil {
		return nil, fmt.Errorf("encode qr for %s: %w", card.Code, err)
	}

	return &Document{
		Code:       card.Code,
		Name:       card.Name,
		Email:      card.Email,
		Phone:      card.Phone,
		Github:     card.Github,
		Linkedin:   card.Linkedin,
		SelfURL:    selfURL,
		QRDataURL:  template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)),
		QRFileName: card.Code + ".png",
	}, nil
}

// QRCode returns the raw PNG for selfURL.
func (r *Renderer) QRCode(selfURL string) ([]byte, error) {
	png, err := r.qr.Encode(selfURL)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

func (r *Renderer) WriteCard(w io.Writer, doc *Document) error {
	return r.card.Execute(w, doc)
}

func (r *Renderer) WriteIndex(w io.Writer, page IndexPage) error {
	return r.index.Execute(w, page)
}

// href adds https:// to profile links typed without a scheme.
func href(link string) string {
	lower := strings.ToLower(link)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return link
	}
	return "https://" + strings.TrimPrefix(link, "//")
}
