package api

// AccessRestriction limits what callers outside the flow may do with a
// property
type AccessRestriction string

const (
	AccessNoRestrictions AccessRestriction = "noRestrictions"
	AccessReadOnly       AccessRestriction = "readonly"
	AccessWriteOnly      AccessRestriction = "writeonly"
	AccessNoAccess       AccessRestriction = "noAccess"
)

// DefaultAccess derives the restriction implied by a usage
func DefaultAccess(u Usage) AccessRestriction {
	out := u.IsOutput()
	settable := u.IsExternallySettable()
	switch {
	case !out && !settable:
		return AccessNoAccess
	case !settable:
		return AccessReadOnly
	case !out:
		return AccessWriteOnly
	default:
		return AccessNoRestrictions
	}
}

// CanRead reports whether external callers may read the value
func (a AccessRestriction) CanRead() bool {
	return a == AccessNoRestrictions || a == AccessReadOnly || a == ""
}

// CanWrite reports whether external callers may set the value
func (a AccessRestriction) CanWrite() bool {
	return a == AccessNoRestrictions || a == AccessWriteOnly || a == ""
}
