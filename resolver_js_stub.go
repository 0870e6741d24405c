//go:build !js_eval

package translatable

// NewJSResolver is unavailable without the js_eval build tag.
func NewJSResolver(opts ...JSResolverOption) Resolver {
	_ = applyJSResolverOptions(opts)
	return nil
}

func jsResolverAvailable() bool {
	return false
}
