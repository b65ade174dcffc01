package analytics

import "context"

type contextKey string

const navigationKey contextKey = "model-directory/analytics-navigation"

// Navigation describes where the visitor is when an event fires.
type Navigation struct {
	URL        string
	Referrer   string
	DistinctID string
}

// WithNavigation attaches the visitor's location to ctx.
func WithNavigation(parent context.Context, nav Navigation) context.Context {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithValue(parent, navigationKey, nav)
}

// NavigationFromContext returns the navigation attached to ctx, if any.
func NavigationFromContext(ctx context.Context) (Navigation, bool) {
	if ctx == nil {
		return Navigation{}, false
	}
	nav, ok := ctx.Value(navigationKey).(Navigation)
	return nav, ok
}
