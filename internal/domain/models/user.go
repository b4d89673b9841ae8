// internal/domain/models/user.go
package models

import (
	"encoding/json"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account on the email whitelist. Presence in the users
// collection is what allows an email to log in.
//
// NOTE:
//   - Profile is the one canonical home for personal fields.
//   - Notes is only populated on records written before profiles were
//     typed. Startup migrates it into Profile and clears it.
type User struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Email          string              `bson:"email" json:"email"` // folded lower-case
	Role           string              `bson:"role" json:"role"`   // super_admin | nonprofit_admin | volunteer
	OrganizationID *primitive.ObjectID `bson:"organization_id,omitempty" json:"organization_id,omitempty"`

	PasswordHash string `bson:"password_hash,omitempty" json:"-"`

	Profile    UserProfile `bson:"profile" json:"profile"`
	AdminNotes string      `bson:"admin_notes,omitempty" json:"admin_notes,omitempty"`
	Notes      string      `bson:"notes,omitempty" json:"-"`

	LastLoginAt *time.Time `bson:"last_login_at,omitempty" json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
}

// UserProfile holds the personal fields a user or an admin can edit.
type UserProfile struct {
	FirstName        string `bson:"first_name,omitempty" json:"first_name,omitempty"`
	LastName         string `bson:"last_name,omitempty" json:"last_name,omitempty"`
	Phone            string `bson:"phone,omitempty" json:"phone,omitempty"`
	Address          string `bson:"address,omitempty" json:"address,omitempty"`
	Birthday         string `bson:"birthday,omitempty" json:"birthday,omitempty"` // YYYY-MM-DD
	EmergencyContact string `bson:"emergency_contact,omitempty" json:"emergency_contact,omitempty"`
	Skills           string `bson:"skills,omitempty" json:"skills,omitempty"`
	Availability     string `bson:"availability,omitempty" json:"availability,omitempty"`
}

// NameNotProvided is shown when nothing better identifies a user.
const NameNotProvided = "Name not provided"

// LegacyNotes is the JSON object older records packed into the notes field.
type LegacyNotes struct {
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	VolunteerName    string `json:"volunteerName"`
	AdminNotes       string `json:"adminNotes"`
	Phone            string `json:"phone"`
	Address          string `json:"address"`
	Birthday         string `json:"birthday"`
	EmergencyContact string `json:"emergencyContact"`
	Skills           string `json:"skills"`
	Availability     string `json:"availability"`
}

// ParseLegacyNotes decodes a notes value. Anything that is not a JSON
// object is kept verbatim as admin notes; it never fails.
func ParseLegacyNotes(raw string) LegacyNotes {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return LegacyNotes{}
	}
	var n LegacyNotes
	if !strings.HasPrefix(raw, "{") || json.Unmarshal([]byte(raw), &n) != nil {
		return LegacyNotes{AdminNotes: raw}
	}
	return n
}

// DisplayName resolves the name to show for u. Precedence:
// legacy notes first/last name, profile first/last name, legacy notes
// volunteerName, email, then NameNotProvided.
func DisplayName(u User) string {
	notes := ParseLegacyNotes(u.Notes)
	if n := joinName(notes.FirstName, notes.LastName); n != "" {
		return n
	}
	if n := joinName(u.Profile.FirstName, u.Profile.LastName); n != "" {
		return n
	}
	if n := strings.TrimSpace(notes.VolunteerName); n != "" {
		return n
	}
	if e := strings.TrimSpace(u.Email); e != "" {
		return e
	}
	return NameNotProvided
}

func joinName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

// MigrateLegacyNotes folds u.Notes into the typed profile. Fields already
// set on the profile win. Reports whether u changed.
func MigrateLegacyNotes(u *User) bool {
	if strings.TrimSpace(u.Notes) == "" {
		return false
	}
	n := ParseLegacyNotes(u.Notes)
	p := &u.Profile
	fill := func(dst *string, v string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = strings.TrimSpace(v)
		}
	}
	fill(&p.FirstName, n.FirstName)
	fill(&p.LastName, n.LastName)
	if p.FirstName == "" && p.LastName == "" && n.VolunteerName != "" {
		first, last, _ := strings.Cut(strings.TrimSpace(n.VolunteerName), " ")
		p.FirstName = first
		p.LastName = strings.TrimSpace(last)
	}
	fill(&p.Phone, n.Phone)
	fill(&p.Address, n.Address)
	fill(&p.Birthday, n.Birthday)
	fill(&p.EmergencyContact, n.EmergencyContact)
	fill(&p.Skills, n.Skills)
	fill(&p.Availability, n.Availability)
	fill(&u.AdminNotes, n.AdminNotes)
	u.Notes = ""
	return true
}

// ProfilePatch is a partial profile update. Nil fields are left alone.
type ProfilePatch struct {
	FirstName        *string `json:"first_name,omitempty"`
	LastName         *string `json:"last_name,omitempty"`
	Phone            *string `json:"phone,omitempty"`
	Address          *string `json:"address,omitempty"`
	Birthday         *string `json:"birthday,omitempty"`
	EmergencyContact *string `json:"emergency_contact,omitempty"`
	Skills           *string `json:"skills,omitempty"`
	Availability     *string `json:"availability,omitempty"`
}

// Apply merges the patch into p.
func (pp ProfilePatch) Apply(p *UserProfile) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&p.FirstName, pp.FirstName)
	set(&p.LastName, pp.LastName)
	set(&p.Phone, pp.Phone)
	set(&p.Address, pp.Address)
	set(&p.Birthday, pp.Birthday)
	set(&p.EmergencyContact, pp.EmergencyContact)
	set(&p.Skills, pp.Skills)
	set(&p.Availability, pp.Availability)
}

// Empty reports whether the patch sets nothing.
func (pp ProfilePatch) Empty() bool {
	return pp == ProfilePatch{}
}
