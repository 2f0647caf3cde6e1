package utils

// ToStrings converts a slice of string-backed values, e.g. []oauth2.GrantType, for storage.
func ToStrings[T ~string](in []T) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		out = append(out, string(v))
	}
	return out
}

// FromStrings is the inverse of ToStrings.
func FromStrings[T ~string](in []string) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		out = append(out, T(v))
	}
	return out
}
