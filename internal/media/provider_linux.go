//go:build linux

package media

// NewProvider returns the media provider for the current platform.
func NewProvider() (Provider, error) {
	return NewPlayerctlProvider(), nil
}
