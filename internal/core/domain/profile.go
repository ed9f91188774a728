package domain

// VendorProfile is the vendor block embedded in a Profile.
type VendorProfile struct {
	ID              string `json:"id"`
	ShopName        string `json:"shopName"`
	BusinessAddress string `json:"businessAddress"`
	PhoneNumber     string `json:"phoneNumber"`
}

// Profile is the externally visible projection of a User and, for vendors,
// its Vendor record.
type Profile struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Email  string         `json:"email"`
	Role   Role           `json:"role"`
	Vendor *VendorProfile `json:"vendor,omitempty"`
}

// TokenPair holds a freshly issued access and refresh token.
type TokenPair struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// AuthPayload is returned by register, login and refresh.
type AuthPayload struct {
	TokenPair
	User Profile `json:"user"`
}

// NewProfile copies the public fields of u. The vendor block is attached
// separately because it lives in another record.
func NewProfile(u *User) Profile {
	return Profile{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}

// NewVendorProfile copies the public fields of v.
func NewVendorProfile(v *Vendor) *VendorProfile {
	return &VendorProfile{
		ID:              v.ID,
		ShopName:        v.ShopName,
		BusinessAddress: v.BusinessAddress,
		PhoneNumber:     v.PhoneNumber,
	}
}
