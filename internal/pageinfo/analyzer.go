// internal/pageinfo/analyzer.go
package pageinfo

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/aiqa-cli/internal/network"
)

const (
	// MaxElements caps the number of interactive elements in a summary.
	MaxElements = 30
	// MaxTextLen caps the visible text kept per element, in runes.
	MaxTextLen = 50

	interactiveSelector = "input, button, a, select, textarea"
)

// Analyzer summarizes a page for plan generation. Failures are returned as an
// inline "Error analyzing page: ..." string, never as an error.
type Analyzer interface {
	Analyze(ctx context.Context, url string) string
}

// Element describes one interactive element.
type Element struct {
	Tag         string `json:"tag"`
	ID          string `json:"id,omitempty"`
	Name        string `json:"name,omitempty"`
	Type        string `json:"type,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Class       string `json:"class,omitempty"`
	Text        string `json:"text,omitempty"`
}

// Form describes one form element.
type Form struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name,omitempty"`
	Action string `json:"action,omitempty"`
	Method string `json:"method,omitempty"`
}

// Summary is the serialized result of a page analysis.
type Summary struct {
	URL      string    `json:"url"`
	Title    string    `json:"title,omitempty"`
	Elements []Element `json:"elements"`
	Forms    []Form    `json:"forms"`
}

// HTMLAnalyzer fetches pages over HTTP and extracts elements with goquery.
type HTMLAnalyzer struct {
	client *network.Client
	logger *zap.Logger
}

var _ Analyzer = (*HTMLAnalyzer)(nil)

// NewHTMLAnalyzer creates an analyzer. A nil client gets the network defaults.
func NewHTMLAnalyzer(client *network.Client, logger *zap.Logger) *HTMLAnalyzer {
	if client == nil {
		cfg := network.NewDefaultClientConfig()
		cfg.Logger = logger.Named("httpclient")
		client = network.NewClient(cfg)
	}
	return &HTMLAnalyzer{client: client, logger: logger.Named("pageinfo")}
}

// Analyze returns the JSON summary of url, or the inline error string.
func (a *HTMLAnalyzer) Analyze(ctx context.Context, url string) string {
	summary, err := a.Inspect(ctx, url)
	if err != nil {
		a.logger.Warn("Page analysis failed.", zap.String("url", url), zap.Error(err))
		return "Error analyzing page: " + err.Error()
	}
	data, err := json.ConfigCompatibleWithStandardLibrary.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "Error analyzing page: " + err.Error()
	}
	return string(data)
}

// Inspect fetches url and extracts its interactive elements and forms.
func (a *HTMLAnalyzer) Inspect(ctx context.Context, url string) (*Summary, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	summary := Extract(doc)
	summary.URL = url
	a.logger.Debug("Page analyzed.", zap.String("url", url),
		zap.Int("elements", len(summary.Elements)), zap.Int("forms", len(summary.Forms)))
	return summary, nil
}

// Extract builds a summary from a parsed document.
func Extract(doc *goquery.Document) *Summary {
	s := &Summary{
		Title:    strings.TrimSpace(doc.Find("title").First().Text()),
		Elements: []Element{},
		Forms:    []Form{},
	}

	doc.Find(interactiveSelector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		s.Elements = append(s.Elements, describe(sel))
		return len(s.Elements) < MaxElements
	})

	doc.Find("form").Each(func(_ int, sel *goquery.Selection) {
		s.Forms = append(s.Forms, Form{
			ID:     attr(sel, "id"),
			Name:   attr(sel, "name"),
			Action: attr(sel, "action"),
			Method: strings.ToUpper(attr(sel, "method")),
		})
	})
	return s
}

func describe(sel *goquery.Selection) Element {
	text := strings.Join(strings.Fields(sel.Text()), " ")
	if text == "" {
		// Buttons rendered from <input type="submit"> carry their label in value.
		text = attr(sel, "value")
	}
	return Element{
		Tag:         goquery.NodeName(sel),
		ID:          attr(sel, "id"),
		Name:        attr(sel, "name"),
		Type:        attr(sel, "type"),
		Placeholder: attr(sel, "placeholder"),
		Class:       attr(sel, "class"),
		Text:        truncateRunes(text, MaxTextLen),
	}
}

func attr(sel *goquery.Selection, name string) string {
	return strings.TrimSpace(sel.AttrOr(name, ""))
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
