// internal/browser/locator.go
package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/aiqa-cli/api/schemas"
)

// Locator pairs a selector string with the strategy used to interpret it.
type Locator struct {
	Selector string
	Type     schemas.SelectorType
}

func (l Locator) String() string {
	return fmt.Sprintf("%s=%s", l.Type, l.Selector)
}

// query translates a locator into a chromedp selector and its query options.
// Attribute-based strategies use quoted attribute selectors so ids and names
// containing CSS metacharacters still match.
func (l Locator) query() (string, []chromedp.QueryOption) {
	sel := l.Selector
	switch l.Type.Normalize() {
	case schemas.SelectorName:
		return fmt.Sprintf(`[name="%s"]`, cssString(sel)), []chromedp.QueryOption{chromedp.ByQuery}
	case schemas.SelectorCSS:
		return sel, []chromedp.QueryOption{chromedp.ByQuery}
	case schemas.SelectorClass:
		return fmt.Sprintf(`[class~="%s"]`, cssString(sel)), []chromedp.QueryOption{chromedp.ByQuery}
	case schemas.SelectorTag:
		return sel, []chromedp.QueryOption{chromedp.ByQuery}
	case schemas.SelectorXPath:
		return sel, []chromedp.QueryOption{byXPath(sel)}
	case schemas.SelectorLinkText:
		expr := fmt.Sprintf(`//a[normalize-space(.)=%s]`, xpathLiteral(strings.TrimSpace(sel)))
		return expr, []chromedp.QueryOption{byXPath(expr)}
	case schemas.SelectorPartialLinkText:
		expr := fmt.Sprintf(`//a[contains(., %s)]`, xpathLiteral(sel))
		return expr, []chromedp.QueryOption{byXPath(expr)}
	default:
		return fmt.Sprintf(`[id="%s"]`, cssString(sel)), []chromedp.QueryOption{chromedp.ByQuery}
	}
}

// xpathFirstElementJS evaluates expr with document.evaluate and yields the
// first element node in document order, or null.
const xpathFirstElementJS = `(() => {
  const r = document.evaluate(%s, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
  for (let i = 0; i < r.snapshotLength; i++) {
    const n = r.snapshotItem(i);
    if (n.nodeType === Node.ELEMENT_NODE) return n;
  }
  return null;
})()`

// xpathScript builds the lookup script for expr.
func xpathScript(expr string) string {
	quoted, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalToString(expr)
	if err != nil {
		quoted = `""`
	}
	return fmt.Sprintf(xpathFirstElementJS, quoted)
}

// byXPath evaluates expr as a strict XPath query. DOM.performSearch (BySearch)
// also matches plain text and returns text nodes, so it is not used here.
// A malformed expression surfaces as an error, which callers treat as a miss.
func byXPath(expr string) chromedp.QueryOption {
	script := xpathScript(expr)
	return chromedp.ByFunc(func(ctx context.Context, _ *cdp.Node) ([]cdp.NodeID, error) {
		obj, exp, err := runtime.Evaluate(script).Do(ctx)
		if err != nil {
			return nil, err
		}
		if exp != nil {
			return nil, exp
		}
		if obj == nil || obj.ObjectID == "" {
			return []cdp.NodeID{}, nil
		}
		id, err := dom.RequestNode(obj.ObjectID).Do(ctx)
		if err != nil {
			return nil, err
		}
		if id == cdp.EmptyNodeID {
			return []cdp.NodeID{}, nil
		}
		return []cdp.NodeID{id}, nil
	})
}

// cssString escapes s for use inside a double-quoted CSS string.
func cssString(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\a `).Replace(s)
}

// xpathLiteral quotes s as an XPath 1.0 string literal. XPath has no escape
// sequences, so strings holding both quote kinds are built with concat().
func xpathLiteral(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, `'`) {
		return `'` + s + `'`
	}
	parts := strings.Split(s, `"`)
	var b strings.Builder
	b.WriteString("concat(")
	for i, p := range parts {
		if i > 0 {
			b.WriteString(`, '"', `)
		}
		b.WriteString(`"` + p + `"`)
	}
	b.WriteString(")")
	return b.String()
}
