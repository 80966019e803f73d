package domain

// Hasher fingerprints uploaded audio so temp files and logs can refer to it.
type Hasher interface {
	Hash(data []byte) string
}
