package entities

import "fmt"

// LocatorKind represents the strategy used to find an element
type LocatorKind string

const (
	LocatorCSS  LocatorKind = "css"
	LocatorRole LocatorKind = "role"
	LocatorText LocatorKind = "text"
)

// Locator describes how a page element is found
type Locator struct {
	Kind  LocatorKind `json:"kind" yaml:"kind"`
	Value string      `json:"value" yaml:"value"`           // CSS selector, ARIA role or text
	Name  string      `json:"name,omitempty" yaml:"name"`   // accessible name for role locators
	First bool        `json:"first,omitempty" yaml:"first"` // use the first match instead of a unique one
}

// ByCSS - locates elements by CSS selector
func ByCSS(selector string) Locator {
	return Locator{Kind: LocatorCSS, Value: selector}
}

// ByRole - locates elements by ARIA role and accessible name
func ByRole(role, name string) Locator {
	return Locator{Kind: LocatorRole, Value: role, Name: name}
}

// ByText - locates elements containing the given text
func ByText(text string) Locator {
	return Locator{Kind: LocatorText, Value: text}
}

// FirstMatch returns a copy of the locator resolving to its first match.
func (l Locator) FirstMatch() Locator {
	l.First = true
	return l
}

func (l Locator) String() string {
	switch l.Kind {
	case LocatorRole:
		return fmt.Sprintf("role=%s[name=%q]", l.Value, l.Name)
	case LocatorText:
		return fmt.Sprintf("text=%q", l.Value)
	default:
		return l.Value
	}
}

// Validate checks that the locator can be resolved by a browser engine
func (l Locator) Validate() error {
	if l.Value == "" {
		return fmt.Errorf("locator value is required")
	}
	switch l.Kind {
	case LocatorCSS, LocatorText:
		return nil
	case LocatorRole:
		if l.Name == "" {
			return fmt.Errorf("role locator %q requires a name", l.Value)
		}
		return nil
	default:
		return fmt.Errorf("unknown locator kind: %q", l.Kind)
	}
}
