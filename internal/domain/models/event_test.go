package models

import "testing"

func TestCanSignup(t *testing.T) {
	two := 2
	tests := []struct {
		name      string
		max       *int
		confirmed int64
		want      bool
	}{
		{"unlimited", nil, 500, true},
		{"room left", &two, 1, true},
		{"full", &two, 2, false},
		{"over full", &two, 3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanSignup(tt.max, tt.confirmed); got != tt.want {
				t.Errorf("CanSignup() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractMeetingInfo(t *testing.T) {
	desc := "Monthly planning call.\n\nJoin Meeting: https://zoom.us/j/123\nMeeting ID: 123 456 789\nPasscode: abc123\n"
	clean, info := ExtractMeetingInfo(desc)

	if clean != "Monthly planning call." {
		t.Errorf("clean = %q", clean)
	}
	if info.VideoLink != "https://zoom.us/j/123" {
		t.Errorf("VideoLink = %q", info.VideoLink)
	}
	if info.MeetingID != "123 456 789" {
		t.Errorf("MeetingID = %q", info.MeetingID)
	}
	if info.Passcode != "abc123" {
		t.Errorf("Passcode = %q", info.Passcode)
	}
}

func TestExtractMeetingInfo_NoMarkers(t *testing.T) {
	desc := "Bring gloves.\nMeet at the north lot."
	clean, info := ExtractMeetingInfo(desc)
	if clean != desc {
		t.Errorf("clean = %q, want unchanged", clean)
	}
	if !info.Empty() {
		t.Errorf("info = %+v, want empty", info)
	}
}

func TestExtractMeetingInfo_LinkOnly(t *testing.T) {
	clean, info := ExtractMeetingInfo("Join Meeting: https://meet.example.org/x")
	if clean != "" {
		t.Errorf("clean = %q, want empty", clean)
	}
	if info.VideoLink != "https://meet.example.org/x" || info.MeetingID != "" {
		t.Errorf("info = %+v", info)
	}
}

func TestExtractMeetingInfo_RepeatedMarkerKept(t *testing.T) {
	clean, info := ExtractMeetingInfo("Meeting ID: 1\nMeeting ID: 2")
	if info.MeetingID != "1" {
		t.Errorf("MeetingID = %q, want first marker", info.MeetingID)
	}
	if clean != "Meeting ID: 2" {
		t.Errorf("clean = %q, want the repeated marker kept", clean)
	}
}
