// internal/browser/locator_test.go
package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/aiqa-cli/api/schemas"
)

func TestLocatorQuery(t *testing.T) {
	testCases := []struct {
		name     string
		loc      Locator
		expected string
	}{
		{"id", Locator{"username", schemas.SelectorID}, `[id="username"]`},
		{"empty type is id", Locator{"message", ""}, `[id="message"]`},
		{"unknown type is id", Locator{"message", "shadow"}, `[id="message"]`},
		{"id with metacharacters", Locator{`a.b"c`, schemas.SelectorID}, `[id="a.b\"c"]`},
		{"name", Locator{"password", schemas.SelectorName}, `[name="password"]`},
		{"css passthrough", Locator{"form > button.primary", schemas.SelectorCSS}, `form > button.primary`},
		{"class", Locator{"btn", schemas.SelectorClass}, `[class~="btn"]`},
		{"tag", Locator{"button", schemas.SelectorTag}, `button`},
		{"xpath", Locator{"//button[@type='submit']", schemas.SelectorXPath}, `//button[@type='submit']`},
		{"link text", Locator{" Sign up ", schemas.SelectorLinkText}, `//a[normalize-space(.)="Sign up"]`},
		{"partial link text", Locator{"Sign", schemas.SelectorPartialLinkText}, `//a[contains(., "Sign")]`},
		{"case-insensitive type", Locator{"q", "NAME"}, `[name="q"]`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sel, opts := tc.loc.query()
			assert.Equal(t, tc.expected, sel)
			assert.Len(t, opts, 1)
		})
	}
}

func TestXPathLiteral(t *testing.T) {
	assert.Equal(t, `"plain"`, xpathLiteral("plain"))
	assert.Equal(t, `'say "hi"'`, xpathLiteral(`say "hi"`))
	assert.Equal(t, `concat("it's ", '"', "quoted", '"', "")`, xpathLiteral(`it's "quoted"`))
}

func TestLocatorString(t *testing.T) {
	assert.Equal(t, "css=#login", Locator{"#login", schemas.SelectorCSS}.String())
}

func TestXPathScript(t *testing.T) {
	script := xpathScript(`//a[contains(., "it's")]`)
	assert.Contains(t, script, `document.evaluate("//a[contains(., \"it's\")]", document`)
	assert.Contains(t, script, "Node.ELEMENT_NODE")
	assert.NotContains(t, script, "%s")
}
