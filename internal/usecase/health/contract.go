package health

import "context"

// StorePinger checks entity store availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// PluginTableChecker reports whether the plugin table refresh is keeping up.
type PluginTableChecker interface {
	Healthy() bool
}
