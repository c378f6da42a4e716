package packaging

// SystemdController abstracts systemd unit management for testability.
// Each method maps onto one systemctl invocation whose only contract is its exit status.
type SystemdController interface {
	// IsAvailable returns true if systemd (systemctl) is available on the system.
	IsAvailable() bool

	// DaemonReload executes systemctl daemon-reload to reload unit file changes.
	DaemonReload() error

	// EnableNow enables the named unit and starts it immediately.
	EnableNow(unit string) error

	// Disable disables the named unit and stops it. Fails if the unit is unknown.
	Disable(unit string) error

	// IsEnabled returns true if the named unit is enabled.
	IsEnabled(unit string) bool

	// IsActive returns true if the named unit is currently active.
	IsActive(unit string) bool
}

// RootChecker abstracts privilege checking for testability.
type RootChecker interface {
	// IsRoot returns true if the current process has root privileges.
	IsRoot() bool
}

// HostChecker decides whether this host may be modified at all.
type HostChecker interface {
	// CheckHost returns an error when the host is not compatible with this deployment.
	CheckHost() error
}
