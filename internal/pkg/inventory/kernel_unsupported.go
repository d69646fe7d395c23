//go:build !linux

package inventory

// ReadKernelRoutes returns an error on unsupported platforms.
func ReadKernelRoutes(opts KernelOptions) ([]KernelRoute, error) {
	return nil, ErrKernelUnsupported
}
