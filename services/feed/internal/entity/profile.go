package entity

const UnknownSellerName = "Unknown Seller"

type Role string

const (
	RoleViewer Role = "viewer"
	RoleSeller Role = "seller"
)

// Profile is the slice of a user's directory record the feed reads.
type Profile struct {
	UserID      string
	DisplayName string
	Role        Role
	Verified    bool
}

// CanSell is the role claim that replaces any identity-based seller check.
func (p *Profile) CanSell() bool {
	return p != nil && p.Role == RoleSeller
}
