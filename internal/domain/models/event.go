// internal/domain/models/event.go
package models

import (
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event types.
const (
	EventTypeVolunteer  = "volunteer_event"
	EventTypeMeeting    = "meeting"
	EventTypeTraining   = "training"
	EventTypeFundraiser = "fundraiser"
	EventTypeOther      = "other"
)

// AllEventTypes lists every event type.
var AllEventTypes = []string{EventTypeVolunteer, EventTypeMeeting, EventTypeTraining, EventTypeFundraiser, EventTypeOther}

// RSVP statuses.
const (
	RSVPSignedUp  = "signed_up"
	RSVPCancelled = "cancelled"
)

// CalendarEvent is something on an organization's calendar that
// volunteers can sign up for.
type CalendarEvent struct {
	ID             primitive.ObjectID `bson:"_id" json:"id"`
	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organization_id"`
	Title          string             `bson:"title" json:"title"`
	Description    string             `bson:"description,omitempty" json:"description,omitempty"`
	Location       string             `bson:"location,omitempty" json:"location,omitempty"`
	StartAt        time.Time          `bson:"start_at" json:"start_at"`
	EndAt          time.Time          `bson:"end_at" json:"end_at"`
	AllDay         bool               `bson:"all_day" json:"all_day"`
	EventType      string             `bson:"event_type" json:"event_type"`
	MaxVolunteers  *int               `bson:"max_volunteers,omitempty" json:"max_volunteers"` // nil = unlimited

	VideoLink       string `bson:"video_link,omitempty" json:"video_link,omitempty"`
	MeetingID       string `bson:"meeting_id,omitempty" json:"meeting_id,omitempty"`
	MeetingPasscode string `bson:"meeting_passcode,omitempty" json:"meeting_passcode,omitempty"`

	CreatedBy primitive.ObjectID `bson:"created_by" json:"created_by"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// RSVP records one user's answer for one event.
type RSVP struct {
	ID             primitive.ObjectID `bson:"_id" json:"id"`
	EventID        primitive.ObjectID `bson:"event_id" json:"event_id"`
	UserID         primitive.ObjectID `bson:"user_id" json:"user_id"`
	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organization_id"`
	Status         string             `bson:"status" json:"status"`
	Notes          string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}

// CanSignup reports whether an event with the given capacity has room.
func CanSignup(maxVolunteers *int, confirmed int64) bool {
	return maxVolunteers == nil || confirmed < int64(*maxVolunteers)
}

// MeetingInfo is the video-meeting metadata of an event.
type MeetingInfo struct {
	VideoLink string
	MeetingID string
	Passcode  string
}

// Empty reports whether no meeting field is set.
func (m MeetingInfo) Empty() bool {
	return m == MeetingInfo{}
}

var (
	joinMeetingRe = regexp.MustCompile(`(?im)^[^\S\n]*(?:📹\s*)?Join Meeting:\s*(\S+)[^\S\n]*$`)
	meetingIDRe   = regexp.MustCompile(`(?im)^[^\S\n]*Meeting ID:\s*(.+?)[^\S\n]*$`)
	passcodeRe    = regexp.MustCompile(`(?im)^[^\S\n]*Passcode:\s*(.+?)[^\S\n]*$`)
	blankRunRe    = regexp.MustCompile(`\n{3,}`)
)

// ExtractMeetingInfo pulls the "Join Meeting:", "Meeting ID:" and
// "Passcode:" marker lines older events carried in their description.
// The first line of each marker is taken and removed; repeated markers
// stay in the returned description.
func ExtractMeetingInfo(description string) (string, MeetingInfo) {
	var info MeetingInfo
	take := func(re *regexp.Regexp, dst *string) {
		if m := re.FindStringSubmatchIndex(description); m != nil {
			*dst = strings.TrimSpace(description[m[2]:m[3]])
			description = description[:m[0]] + description[m[1]:]
		}
	}
	take(joinMeetingRe, &info.VideoLink)
	take(meetingIDRe, &info.MeetingID)
	take(passcodeRe, &info.Passcode)
	if info.Empty() {
		return description, info
	}
	description = blankRunRe.ReplaceAllString(description, "\n\n")
	return strings.TrimSpace(description), info
}
