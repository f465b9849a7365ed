package gateway

import (
	"encoding/json"
	"time"
)

// SystemRole is the account-level role assigned by the backend.
//
// System roles are independent from profile roles: a super_admin does not
// need a customer or service_provider profile to pass admin checks.
type SystemRole string

const (
	SystemRoleUser       SystemRole = "user"
	SystemRoleAdmin      SystemRole = "admin"
	SystemRoleSuperAdmin SystemRole = "super_admin"
)

// Provider identifies how the account authenticates.
type Provider string

const (
	ProviderCredentials Provider = "credentials"
	ProviderGoogle      Provider = "google"
	ProviderApple       Provider = "apple"
)

// ProfileRole is the marketplace role chosen during profile setup.
type ProfileRole string

const (
	ProfileRoleCustomer ProfileRole = "customer"
	ProfileRoleProvider ProfileRole = "service_provider"
)

// IDType enumerates accepted identity documents for verification.
type IDType string

const (
	IDTypeNationalID     IDType = "national_id"
	IDTypePassport       IDType = "passport"
	IDTypeVotersID       IDType = "voters_id"
	IDTypeDriversLicense IDType = "drivers_license"
	IDTypeOther          IDType = "other"
)

// Avatar is a stored profile picture. The backend historically returned
// either a bare URL string or a {url, fileName} object, so unmarshalling
// accepts both.
type Avatar struct {
	URL      string `json:"url" yaml:"url"`
	FileName string `json:"fileName,omitempty" yaml:"fileName,omitempty"`
}

// UnmarshalJSON accepts both the object form and the legacy string form.
func (a *Avatar) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		a.URL = s
		a.FileName = ""
		return nil
	}
	type plain Avatar
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*a = Avatar(p)
	return nil
}

// User is the identity record established by a session.
type User struct {
	ID              string     `json:"_id" yaml:"id"`
	Name            string     `json:"name" yaml:"name"`
	Email           string     `json:"email" yaml:"email"`
	LastLogin       time.Time  `json:"lastLogin,omitempty" yaml:"lastLogin,omitempty"`
	IsVerified      bool       `json:"isVerified" yaml:"isVerified"`
	Role            SystemRole `json:"userRole" yaml:"userRole"`
	Provider        Provider   `json:"provider" yaml:"provider"`
	ProviderID      string     `json:"providerId,omitempty" yaml:"providerId,omitempty"`
	Avatar          *Avatar    `json:"avatar,omitempty" yaml:"avatar,omitempty"`
	SystemAdminName string     `json:"systemAdminName,omitempty" yaml:"systemAdminName,omitempty"`
	IsAdmin         bool       `json:"isAdmin" yaml:"isAdmin"`
	IsSuperAdmin    bool       `json:"isSuperAdmin" yaml:"isSuperAdmin"`
	ProfileID       string     `json:"profileId,omitempty" yaml:"profileId,omitempty"`
	CreatedAt       time.Time  `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	UpdatedAt       time.Time  `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

// GPSCoordinates is an optional precise position inside a Location.
type GPSCoordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Location describes where a user operates. GhanaPostGPS is the only
// required field; everything else refines it.
type Location struct {
	GhanaPostGPS   string          `json:"ghanaPostGPS"`
	NearbyLandmark string          `json:"nearbyLandmark,omitempty"`
	Region         string          `json:"region,omitempty"`
	City           string          `json:"city,omitempty"`
	District       string          `json:"district,omitempty"`
	Locality       string          `json:"locality,omitempty"`
	Other          string          `json:"other,omitempty"`
	GPSCoordinates *GPSCoordinates `json:"gpsCoordinates,omitempty"`
}

// ContactDetails holds the phone numbers shown to matched parties.
type ContactDetails struct {
	PrimaryContact   string `json:"primaryContact"`
	SecondaryContact string `json:"secondaryContact,omitempty"`
}

// IDFile is the uploaded scan of an identity document.
type IDFile struct {
	URL      string `json:"url"`
	FileName string `json:"fileName"`
}

// IDDetails is the identity-verification record on a profile.
type IDDetails struct {
	Type   IDType `json:"idType"`
	Number string `json:"idNumber"`
	File   IDFile `json:"idFile"`
}

// SocialMediaHandle links a profile to an external social account.
type SocialMediaHandle struct {
	Network  string `json:"nameOfSocial"`
	Username string `json:"userName"`
}

// PrivacySettings controls what a profile exposes to other users.
type PrivacySettings struct {
	ShareProfile        *bool `json:"shareProfile,omitempty"`
	ShareLocation       *bool `json:"shareLocation,omitempty"`
	ShareContactDetails *bool `json:"shareContactDetails,omitempty"`
}

// Preferences are per-user display and notification settings.
type Preferences struct {
	Theme           string           `json:"theme,omitempty"`
	Notifications   *bool            `json:"notifications,omitempty"`
	Language        string           `json:"language,omitempty"`
	PrivacySettings *PrivacySettings `json:"privacySettings,omitempty"`
}

// Profile is the optional marketplace extension of a User. Its lifecycle is
// independent from the user record: a user can exist with no profile.
type Profile struct {
	ID                 string              `json:"_id"`
	UserID             string              `json:"userId"`
	Role               ProfileRole         `json:"role,omitempty"`
	Bio                string              `json:"bio,omitempty"`
	Location           *Location           `json:"location,omitempty"`
	Preferences        *Preferences        `json:"preferences,omitempty"`
	SocialMediaHandles []SocialMediaHandle `json:"socialMediaHandles,omitempty"`
	ContactDetails     *ContactDetails     `json:"contactDetails,omitempty"`
	IDDetails          *IDDetails          `json:"idDetails,omitempty"`
	IsActive           bool                `json:"isActive"`
	Completeness       int                 `json:"completeness,omitempty"`
	LastModified       time.Time           `json:"lastModified,omitempty"`
	CreatedAt          time.Time           `json:"createdAt,omitempty"`
	UpdatedAt          time.Time           `json:"updatedAt,omitempty"`
}

// UserPatch is a partial user update applied optimistically before the
// backend confirms it. Nil fields are left untouched.
type UserPatch struct {
	Name   *string `json:"name,omitempty"`
	Avatar *Avatar `json:"avatar,omitempty"`
}

// Apply shallow-merges the patch into u.
func (p UserPatch) Apply(u *User) {
	if u == nil {
		return
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Avatar != nil {
		u.Avatar = p.Avatar
	}
}

// ProfilePatch is a partial profile update applied optimistically.
// Nil fields are left untouched.
type ProfilePatch struct {
	Bio                *string             `json:"bio,omitempty"`
	Location           *Location           `json:"location,omitempty"`
	Preferences        *Preferences        `json:"preferences,omitempty"`
	SocialMediaHandles []SocialMediaHandle `json:"socialMediaHandles,omitempty"`
	ContactDetails     *ContactDetails     `json:"contactDetails,omitempty"`
	IDDetails          *IDDetails          `json:"idDetails,omitempty"`
}

// Apply shallow-merges the patch into pr.
func (p ProfilePatch) Apply(pr *Profile) {
	if pr == nil {
		return
	}
	if p.Bio != nil {
		pr.Bio = *p.Bio
	}
	if p.Location != nil {
		pr.Location = p.Location
	}
	if p.Preferences != nil {
		pr.Preferences = p.Preferences
	}
	if p.SocialMediaHandles != nil {
		pr.SocialMediaHandles = p.SocialMediaHandles
	}
	if p.ContactDetails != nil {
		pr.ContactDetails = p.ContactDetails
	}
	if p.IDDetails != nil {
		pr.IDDetails = p.IDDetails
	}
}

// Request bodies

// SignupRequest creates a new credentials account.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest authenticates a credentials account.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest carries a combined user/profile update.
type UpdateProfileRequest struct {
	Name    *string       `json:"name,omitempty"`
	Avatar  *Avatar       `json:"avatar,omitempty"`
	Profile *ProfilePatch `json:"profile,omitempty"`
}

// AppleName is the one-time name payload Apple includes on first sign-in.
type AppleName struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// AppleUser wraps the optional user details of an Apple sign-in.
type AppleUser struct {
	Name *AppleName `json:"name,omitempty"`
}

// Envelope is the common response shape of the backend. Which fields are
// populated depends on the endpoint; absence of User combined with
// RequiresVerification means "verify your email", not a failure.
type Envelope struct {
	Message              string          `json:"message"`
	User                 *User           `json:"user,omitempty"`
	Profile              *Profile        `json:"profile,omitempty"`
	RequiresVerification bool            `json:"requiresVerification,omitempty"`
	Email                string          `json:"email,omitempty"`
	Completeness         *int            `json:"completeness,omitempty"`
	HasProfile           *bool           `json:"hasProfile,omitempty"`
	ProfileRole          *string         `json:"profileRole,omitempty"`
	Data                 json.RawMessage `json:"data,omitempty"`
}

// CompletenessValue extracts the completeness score, tolerating both the
// top-level and the data-wrapped payload shapes the backend has shipped.
func (e *Envelope) CompletenessValue() (int, bool) {
	if e.Completeness != nil {
		return *e.Completeness, true
	}
	if len(e.Data) > 0 {
		var inner struct {
			Completeness *int `json:"completeness"`
		}
		if err := json.Unmarshal(e.Data, &inner); err == nil && inner.Completeness != nil {
			return *inner.Completeness, true
		}
	}
	return 0, false
}
