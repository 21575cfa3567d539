package model

type Role string

const (
	RoleClient Role = "client"
	RoleVendor Role = "vendor"
	RoleAgent  Role = "agent"
	RoleAdmin  Role = "admin"
)

// Actor is the authenticated party behind a call. Vendors are identified by
// their vendor name. Verified only matters for administrators.
type Actor struct {
	ID       string `json:"id"`
	Role     Role   `json:"role"`
	Verified bool   `json:"verified"`
}

func ClientActor(id string) Actor { return Actor{ID: id, Role: RoleClient} }

func VendorActor(name string) Actor { return Actor{ID: name, Role: RoleVendor} }

func AgentActor(id string) Actor { return Actor{ID: id, Role: RoleAgent} }

func AdminActor(id string, verified bool) Actor {
	return Actor{ID: id, Role: RoleAdmin, Verified: verified}
}
