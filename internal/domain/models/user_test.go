package models

import "testing"

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		user User
		want string
	}{
		{
			name: "notes names win over profile",
			user: User{
				Email:   "a@x.org",
				Notes:   `{"firstName":"Ann","lastName":"Lee"}`,
				Profile: UserProfile{FirstName: "Other", LastName: "Name"},
			},
			want: "Ann Lee",
		},
		{
			name: "profile names",
			user: User{Email: "a@x.org", Profile: UserProfile{FirstName: "Bo", LastName: "Diaz"}},
			want: "Bo Diaz",
		},
		{
			name: "first name only",
			user: User{Email: "a@x.org", Profile: UserProfile{FirstName: "Cy"}},
			want: "Cy",
		},
		{
			name: "volunteer name from notes",
			user: User{Email: "a@x.org", Notes: `{"volunteerName":"Dee Vee"}`},
			want: "Dee Vee",
		},
		{
			name: "malformed notes fall through to email",
			user: User{Email: "e@x.org", Notes: `{"firstName":`},
			want: "e@x.org",
		},
		{
			name: "plain text notes fall through to profile",
			user: User{Email: "e@x.org", Notes: "call after 5pm", Profile: UserProfile{LastName: "Fox"}},
			want: "Fox",
		},
		{
			name: "nothing known",
			user: User{},
			want: NameNotProvided,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayName(tt.user); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseLegacyNotes_Malformed(t *testing.T) {
	n := ParseLegacyNotes("not json at all")
	if n.AdminNotes != "not json at all" {
		t.Errorf("AdminNotes = %q, want raw notes", n.AdminNotes)
	}
	if n.FirstName != "" {
		t.Errorf("FirstName = %q, want empty", n.FirstName)
	}
}

func TestMigrateLegacyNotes(t *testing.T) {
	u := User{
		Email:   "a@x.org",
		Notes:   `{"firstName":"Ann","lastName":"Lee","phone":"555","adminNotes":"reliable"}`,
		Profile: UserProfile{Phone: "111"},
	}
	if !MigrateLegacyNotes(&u) {
		t.Fatal("MigrateLegacyNotes() = false, want true")
	}
	if u.Notes != "" {
		t.Errorf("Notes = %q, want cleared", u.Notes)
	}
	if u.Profile.FirstName != "Ann" || u.Profile.LastName != "Lee" {
		t.Errorf("name = %q %q, want Ann Lee", u.Profile.FirstName, u.Profile.LastName)
	}
	if u.Profile.Phone != "111" {
		t.Errorf("Phone = %q, existing profile value should win", u.Profile.Phone)
	}
	if u.AdminNotes != "reliable" {
		t.Errorf("AdminNotes = %q, want reliable", u.AdminNotes)
	}
	if MigrateLegacyNotes(&u) {
		t.Error("second migration should be a no-op")
	}
}

func TestMigrateLegacyNotes_VolunteerNameSplit(t *testing.T) {
	u := User{Notes: `{"volunteerName":"Dee Van Vee"}`}
	MigrateLegacyNotes(&u)
	if u.Profile.FirstName != "Dee" || u.Profile.LastName != "Van Vee" {
		t.Errorf("name = %q/%q, want Dee/Van Vee", u.Profile.FirstName, u.Profile.LastName)
	}
}

func TestProfilePatch_Apply(t *testing.T) {
	p := UserProfile{FirstName: "Ann", Phone: "1"}
	first := "  Anna "
	empty := ""
	ProfilePatch{FirstName: &first, Phone: &empty}.Apply(&p)
	if p.FirstName != "Anna" {
		t.Errorf("FirstName = %q, want Anna", p.FirstName)
	}
	if p.Phone != "" {
		t.Errorf("Phone = %q, want cleared", p.Phone)
	}
	if !(ProfilePatch{}).Empty() {
		t.Error("zero patch should be empty")
	}
}

func TestIsValidRole(t *testing.T) {
	for _, r := range []string{"super_admin", "NONPROFIT_ADMIN", " volunteer "} {
		if !IsValidRole(r) {
			t.Errorf("IsValidRole(%q) = false", r)
		}
	}
	for _, r := range []string{"", "admin", "member"} {
		if IsValidRole(r) {
			t.Errorf("IsValidRole(%q) = true", r)
		}
	}
}
