package interfaces

// NavigationGuard defines the checks applied before the browser is pointed somewhere
type NavigationGuard interface {
	// CheckTarget validates the base address a run is configured against
	CheckTarget(target string) error

	// CheckNavigation validates that a URL stays on the target origin
	CheckNavigation(target, next string) error
}
