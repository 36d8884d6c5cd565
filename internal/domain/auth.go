package domain

// Identity is the authenticated caller attached by the upstream auth service.
type Identity struct {
	UserID string
	Name   string
	Role   string
}

// SystemIdentity is used when a request carries no identity.
var SystemIdentity = Identity{
	UserID: "system",
	Name:   "System",
	Role:   "system",
}
