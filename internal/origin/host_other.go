//go:build !windows

package origin

import "context"

// DialOLE is only available on Windows.
func DialOLE(ctx context.Context, opts DialOptions) (Host, error) {
	return nil, ErrUnsupportedPlatform
}
