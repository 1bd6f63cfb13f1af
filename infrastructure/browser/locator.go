package browser

import (
	"codeexpert_e2e/domain/entities"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	upperASCII = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerASCII = "abcdefghijklmnopqrstuvwxyz"
)

// query is a locator resolved to exactly one of a CSS selector or an XPath expression
type query struct {
	CSS   string `json:"css,omitempty"`
	XPath string `json:"xpath,omitempty"`
}

// implicitRoles - XPath predicates for elements carrying an ARIA role without a role attribute
var implicitRoles = map[string]string{
	"button":  `self::button or (self::input and (@type="button" or @type="submit" or @type="reset"))`,
	"link":    `(self::a or self::area) and @href`,
	"textbox": `self::textarea or (self::input and (not(@type) or @type="text" or @type="search" or @type="email" or @type="url"))`,
	"heading": `self::h1 or self::h2 or self::h3 or self::h4 or self::h5 or self::h6`,
}

// toQuery - translates a locator for engines without native role and text locators.
// Name and text matching is a case-insensitive substring match.
func toQuery(loc entities.Locator) (query, error) {
	if err := loc.Validate(); err != nil {
		return query{}, err
	}
	switch loc.Kind {
	case entities.LocatorCSS:
		return query{CSS: loc.Value}, nil

	case entities.LocatorRole:
		role := fmt.Sprintf(`@role=%s`, xpathLiteral(loc.Value))
		if implicit, ok := implicitRoles[loc.Value]; ok {
			role = role + " or " + implicit
		}
		name := xpathLiteral(strings.ToLower(loc.Name))
		return query{XPath: fmt.Sprintf(
			`//*[(%s) and (contains(%s, %s) or contains(%s, %s) or contains(%s, %s))]`,
			role,
			lowered("normalize-space(.)"), name,
			lowered("@aria-label"), name,
			lowered("@value"), name,
		)}, nil

	case entities.LocatorText:
		return query{XPath: fmt.Sprintf(
			`//*[not(self::script or self::style or self::head or self::title) and text()[contains(%s, %s)]]`,
			lowered("normalize-space(.)"), xpathLiteral(strings.ToLower(loc.Value)),
		)}, nil
	}
	return query{}, fmt.Errorf("unknown locator kind: %q", loc.Kind)
}

func lowered(expr string) string {
	return fmt.Sprintf(`translate(%s, "%s", "%s")`, expr, upperASCII, lowerASCII)
}

// xpathLiteral - quotes s as an XPath 1.0 string literal
func xpathLiteral(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, `'`) {
		return `'` + s + `'`
	}
	parts := strings.Split(s, `"`)
	quoted := make([]string, 0, 2*len(parts))
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `'"'`)
		}
		if p != "" {
			quoted = append(quoted, `"`+p+`"`)
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

// findScript - JS expression evaluating to the array of elements matching q
func findScript(q query) string {
	encoded, _ := json.Marshal(q)
	return fmt.Sprintf(`((q) => {
		if (q.css) return Array.from(document.querySelectorAll(q.css));
		const r = document.evaluate(q.xpath, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
		const els = [];
		for (let i = 0; i < r.snapshotLength; i++) els.push(r.snapshotItem(i));
		return els;
	})(%s)`, encoded)
}

// stateScript - JS expression describing the first match of q
func stateScript(q query) string {
	return fmt.Sprintf(`((els) => {
		const el = els[0];
		if (!el) return {count: 0, visible: false, value: ""};
		const rect = el.getBoundingClientRect();
		const style = window.getComputedStyle(el);
		return {
			count: els.length,
			visible: rect.width > 0 && rect.height > 0 && style.visibility !== 'hidden',
			value: typeof el.value === 'string' ? el.value : ""
		};
	})(%s)`, findScript(q))
}

// elementState is the result of stateScript
type elementState struct {
	Count   int    `json:"count"`
	Visible bool   `json:"visible"`
	Value   string `json:"value"`
}

// strict - rejects ambiguous matches unless the locator asks for the first one
func (s elementState) strict(loc entities.Locator) error {
	if s.Count > 1 && !loc.First {
		return fmt.Errorf("strict mode violation: %s resolved to %d elements", loc, s.Count)
	}
	return nil
}

// notFound - wraps the element-not-found sentinel
func notFound(loc entities.Locator, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %s: %v", entities.ErrElementNotFound, loc, err)
	}
	return fmt.Errorf("%w: %s", entities.ErrElementNotFound, loc)
}
