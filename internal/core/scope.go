package core

// Scope is the caller's effective visibility, derived by the auth layer and
// threaded explicitly into every operation. Non-super-admin callers always
// arrive with their own LocationID set; a super admin impersonating a location
// (X-Location-Id header) carries that location instead.
type Scope struct {
	LocationID *int
	Year       *int
	SuperAdmin bool
}

// LocationScope builds a scope pinned to one location.
func LocationScope(locationID int) Scope {
	return Scope{LocationID: &locationID}
}

// AdminScope builds an unrestricted super-admin scope.
func AdminScope() Scope {
	return Scope{SuperAdmin: true}
}

// WithYear returns a copy of s restricted to the given fiscal year.
func (s Scope) WithYear(year int) Scope {
	s.Year = &year
	return s
}
