package common

// Credential material sizes and the reference work factor.
const (
	SaltSize          = 16
	DerivedKeySize    = 64
	DefaultIterations = 200_000
)

// DefaultAuditViewLimit is how many audit entries the admin view shows.
const DefaultAuditViewLimit = 50
