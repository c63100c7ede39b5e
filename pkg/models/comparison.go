package models

// Decision is the outcome of classifying a source file against the replica
type Decision string

const (
	// DecisionCreate means the file is missing from the replica
	DecisionCreate Decision = "create"
	// DecisionUpdate means the replica copy is out of date
	DecisionUpdate Decision = "update"
	// DecisionUnchanged means the replica copy is current
	DecisionUnchanged Decision = "unchanged"
)

// Action maps a copy decision to the tag used when logging it.
// Unchanged has no action and returns an empty string.
func (d Decision) Action() Action {
	switch d {
	case DecisionCreate:
		return ActionNew
	case DecisionUpdate:
		return ActionUpdate
	default:
		return ""
	}
}

// HashAlgorithm selects the content checksum used by hash comparison
type HashAlgorithm string

const (
	// HashXXH64 is the non-cryptographic xxHash64 checksum (default)
	HashXXH64 HashAlgorithm = "xxhash"
	// HashMD5 is the MD5 digest
	HashMD5 HashAlgorithm = "md5"
	// HashSHA256 is the SHA-256 digest
	HashSHA256 HashAlgorithm = "sha256"
)

// Valid reports whether the algorithm is supported
func (h HashAlgorithm) Valid() bool {
	switch h {
	case HashXXH64, HashMD5, HashSHA256:
		return true
	}
	return false
}
