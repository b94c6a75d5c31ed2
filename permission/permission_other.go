//go:build !darwin

package permission

// IsTrusted always reports false on this platform.
func IsTrusted(prompt bool) bool {
	return false
}
