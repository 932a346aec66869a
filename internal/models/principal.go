// Package models contains data structures for the gallery's domain models.
package models

// Principal is the opaque identifier of an authenticated user.
type Principal string

// NoPrincipal is the anonymous principal.
const NoPrincipal Principal = ""

// Anonymous reports whether p identifies nobody.
func (p Principal) Anonymous() bool {
	return p == NoPrincipal
}

func (p Principal) String() string {
	if p.Anonymous() {
		return "anonymous"
	}
	return string(p)
}
