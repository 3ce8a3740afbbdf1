package containers

// Container is a named collection of stored objects within a tenant.
// The counts mirror what the account listing reported at lookup time.
type Container struct {
	Name        string `json:"name"`
	ObjectCount int64  `json:"count"`
	BytesUsed   int64  `json:"bytes"`
}
