// Package render produces the printable invoice and design brief pages.
package render

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"grledger/internal/cache"
	"grledger/internal/core"
	"grledger/internal/log"
	"grledger/internal/report"
	"grledger/web"
)

const (
	invoicePage = "invoice.html"
	briefPage   = "brief.html"

	// MaxReferences is how many reference cells the brief sheet has.
	MaxReferences = 4
)

// Renderer executes the embedded templates. Output depends on the record
// alone, so pages are cached by a hash of the record's JSON.
type Renderer struct {
	tmpl   *template.Template
	cache  cache.Cache[[]byte]
	logger *log.Logger
}

// New parses the embedded templates. pages may be nil to disable caching.
func New(pages cache.Cache[[]byte], logger *log.Logger) (*Renderer, error) {
	if logger == nil {
		logger = log.Discard()
	}
	tmpl, err := template.New("print").Funcs(Funcs()).ParseFS(web.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl, cache: pages, logger: logger.WithComponent(log.ComponentRender)}, nil
}

// Funcs are the helpers available to the print templates.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"rupiah":    Rupiah,
		"tanggal":   report.LongDate,
		"shortDate": ShortDate,
		"percent":   Percent,
		"sliderPct": SliderPercent,
		"upper":     strings.ToUpper,
		"detail": func(label, value string) detailRow {
			return detailRow{Label: label, Value: value}
		},
	}
}

// Rupiah formats an amount the way the printed invoice shows it: "Rp. 1.500.000".
func Rupiah(n int64) string {
	return "Rp. " + core.FormatNumber(n)
}

// ShortDate renders dd-mm-yy.
func ShortDate(d core.Date) string {
	if d.IsZero() {
		return "-"
	}
	return d.Format("02-01-06")
}

// Percent renders a rate with two decimals and a decimal comma: "11,00".
func Percent(p float64) string {
	return strings.Replace(strconv.FormatFloat(p, 'f', 2, 64), ".", ",", 1)
}

// SliderPercent maps a dial value in [0,10] to a track position.
func SliderPercent(v int) int {
	return min(max(v, core.SliderMin), core.SliderMax) * 100 / core.SliderMax
}

type detailRow struct {
	Label string
	Value string
}

type option struct {
	Label string
	On    bool
}

type sliderRow struct {
	Low   string
	High  string
	Value int
}

type briefView struct {
	Brief      core.DesignBrief
	Status     []option
	Packages   []option
	Needs      []option
	Sliders    []sliderRow
	References []template.URL
	EmptySlots []struct{}
}

var statusLabels = map[core.StatusFlag]string{
	core.StatusProsesDesign: "proses Design",
	core.StatusPreview:      "preview",
	core.StatusRevisi:       "revisi",
	core.StatusFinish:       "finish",
	core.StatusBonus:        "bonus",
}

func newBriefView(b core.DesignBrief) briefView {
	v := briefView{Brief: b}
	for _, f := range core.StatusFlags {
		v.Status = append(v.Status, option{Label: statusLabels[f], On: b.Status.Get(f)})
	}
	for _, p := range core.Packages {
		v.Packages = append(v.Packages, option{Label: string(p), On: b.PemilihanPaket == p})
	}
	for _, tag := range core.LogoNeeds {
		v.Needs = append(v.Needs, option{Label: tag, On: b.HasNeed(tag)})
	}
	for _, a := range core.SliderAxes {
		low, high := a.Poles()
		v.Sliders = append(v.Sliders, sliderRow{Low: low, High: high, Value: b.Sliders.Get(a)})
	}
	for _, ref := range b.Referensi {
		if len(v.References) == MaxReferences {
			break
		}
		// Only image data URLs reach the store; see media.Normalize.
		if strings.HasPrefix(ref, "data:image/") {
			v.References = append(v.References, template.URL(ref))
		}
	}
	v.EmptySlots = make([]struct{}, MaxReferences-len(v.References))
	return v
}

// Invoice renders the printable invoice.
func (r *Renderer) Invoice(inv core.Invoice) ([]byte, error) {
	return r.render("invoice", invoicePage, inv, inv)
}

// Brief renders the printable design brief.
func (r *Renderer) Brief(b core.DesignBrief) ([]byte, error) {
	return r.render("brief", briefPage, b, newBriefView(b))
}

func (r *Renderer) render(kind, page string, record, data any) ([]byte, error) {
	key, err := cacheKey(kind, record)
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		if out, ok := r.cache.Get(key); ok {
			return out, nil
		}
	}

	start := time.Now()
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, page, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", kind, err)
	}
	out := buf.Bytes()
	r.logger.Debug("Page rendered", log.FieldKind, kind, "bytes", len(out), log.FieldDuration, time.Since(start).Milliseconds())

	if r.cache != nil {
		r.cache.Set(key, out)
	}
	return out, nil
}

func cacheKey(kind string, record any) (string, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", kind, err)
	}
	sum := sha256.Sum256(raw)
	return kind + ":" + hex.EncodeToString(sum[:]), nil
}
