package tenants

// Tenant is an isolated namespace within the object-storage service
// (an OpenStack project). All operations except listing tenants require
// the account to be bound to one.
type Tenant struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Enabled     bool   `json:"enabled"`
}
