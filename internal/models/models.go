package models

import (
	"time"
)

// User is a registered student.
//
// Password holds the bcrypt hash. It is tagged json:"-" so a User can never
// leak it through c.JSON, but handlers still return PublicUser to make the
// stripping explicit at every read path.
type User struct {
	ID                 string    `json:"id"`
	Username           string    `json:"username"`
	Email              string    `json:"email"`
	Password           string    `json:"-"`
	FullName           string    `json:"fullName"`
	RegistrationNumber string    `json:"registrationNumber"`
	Program            string    `json:"program"`
	Year               int       `json:"year"`
	PreferredLocation  string    `json:"preferredLocation"`
	Subjects           []string  `json:"subjects"`
	StudyTopics        string    `json:"studyTopics"`
	ProfileImage       string    `json:"profileImage"`
	CreatedAt          time.Time `json:"createdAt"`
}

// PublicUser is the client-facing view of a User.
type PublicUser struct {
	ID                 string    `json:"id"`
	Username           string    `json:"username"`
	Email              string    `json:"email"`
	FullName           string    `json:"fullName"`
	RegistrationNumber string    `json:"registrationNumber"`
	Program            string    `json:"program"`
	Year               int       `json:"year"`
	PreferredLocation  string    `json:"preferredLocation"`
	Subjects           []string  `json:"subjects"`
	StudyTopics        string    `json:"studyTopics"`
	ProfileImage       string    `json:"profileImage"`
	CreatedAt          time.Time `json:"createdAt"`
}

// Public strips the password hash.
func (u *User) Public() *PublicUser {
	if u == nil {
		return nil
	}
	subjects := u.Subjects
	if subjects == nil {
		subjects = []string{}
	}
	return &PublicUser{
		ID:                 u.ID,
		Username:           u.Username,
		Email:              u.Email,
		FullName:           u.FullName,
		RegistrationNumber: u.RegistrationNumber,
		Program:            u.Program,
		Year:               u.Year,
		PreferredLocation:  u.PreferredLocation,
		Subjects:           subjects,
		StudyTopics:        u.StudyTopics,
		ProfileImage:       u.ProfileImage,
		CreatedAt:          u.CreatedAt,
	}
}

// UserPatch is a partial update. A nil field is left untouched; a non-nil
// pointer to an empty value overwrites.
type UserPatch struct {
	Username           *string
	Email              *string
	Password           *string
	FullName           *string
	RegistrationNumber *string
	Program            *string
	Year               *int
	PreferredLocation  *string
	Subjects           *[]string
	StudyTopics        *string
	ProfileImage       *string
}

// StudyBuddyRequest is a "looking for a study partner" post.
type StudyBuddyRequest struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Subject     string    `json:"subject"`
	Topic       string    `json:"topic"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

// StudyBuddyFilter matches by case-insensitive substring. Empty fields are
// not applied.
type StudyBuddyFilter struct {
	Subject  string
	Topic    string
	Location string

	// IncludeInactive lifts the default "active only" rule.
	IncludeInactive bool
}

type StudyBuddyPatch struct {
	Subject     *string
	Topic       *string
	Location    *string
	Description *string
	IsActive    *bool
}

// Note is an uploaded study file.
type Note struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Subject     string    `json:"subject"`
	Description string    `json:"description"`
	FileName    string    `json:"fileName"`
	FileType    string    `json:"fileType"`
	FileSize    int64     `json:"fileSize"`
	FilePath    string    `json:"filePath"`
	UploadedBy  string    `json:"uploadedBy"`
	Downloads   int       `json:"downloads"`
	Likes       int       `json:"likes"`
	CreatedAt   time.Time `json:"createdAt"`
}

type NoteFilter struct {
	Subject string
	Title   string
}

// NoteStat selects which Note counter UpdateStats bumps.
type NoteStat string

const (
	NoteStatDownload NoteStat = "download"
	NoteStatLike     NoteStat = "like"
)

func (s NoteStat) Valid() bool {
	return s == NoteStatDownload || s == NoteStatLike
}

// Slot is one entry in a timetable.
type Slot struct {
	Subject string `json:"subject"`
	Room    string `json:"room,omitempty"`
	Type    string `json:"type,omitempty"`
}

// Schedule maps a day name ("Monday") to slot labels ("9:00 AM") to a Slot.
type Schedule map[string]map[string]Slot

// Clone returns a deep copy so callers never share maps with the store.
func (s Schedule) Clone() Schedule {
	if s == nil {
		return Schedule{}
	}
	out := make(Schedule, len(s))
	for day, slots := range s {
		cp := make(map[string]Slot, len(slots))
		for label, slot := range slots {
			cp[label] = slot
		}
		out[day] = cp
	}
	return out
}

type Timetable struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Schedule  Schedule  `json:"schedule"`
	IsPublic  bool      `json:"isPublic"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TimetablePatch changes a timetable in one step. A nil Schedule or IsPublic
// is left untouched.
type TimetablePatch struct {
	Schedule Schedule
	IsPublic *bool
}

// ConnectionStatus is a plain string set; transitions are not validated here.
type ConnectionStatus string

const (
	ConnectionPending  ConnectionStatus = "pending"
	ConnectionAccepted ConnectionStatus = "accepted"
	ConnectionRejected ConnectionStatus = "rejected"
)

func (s ConnectionStatus) Valid() bool {
	switch s {
	case ConnectionPending, ConnectionAccepted, ConnectionRejected:
		return true
	}
	return false
}

type Connection struct {
	ID          string           `json:"id"`
	RequesterID string           `json:"requesterId"`
	ReceiverID  string           `json:"receiverId"`
	Status      ConnectionStatus `json:"status"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// Message is a direct message between two users. Immutable once stored.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}
