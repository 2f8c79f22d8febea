package genesys

import (
	"time"

	"github.com/goccy/go-json"
)

// DomainEntityRef points at another entity.
type DomainEntityRef struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	SelfURI  string `json:"selfUri,omitempty"`
	Username string `json:"username,omitempty"`
}

// User is an organization member.
type User struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Email      string           `json:"email"`
	Username   string           `json:"username"`
	State      string           `json:"state"`
	Department string           `json:"department"`
	Title      string           `json:"title"`
	Version    int              `json:"version"`
	Division   *DomainEntityRef `json:"division"`
	Manager    *DomainEntityRef `json:"manager"`
	Chat       *ChatAddress     `json:"chat"`
	Locations  []UserLocation   `json:"locations"`
}

// ChatAddress is a user's chat handle.
type ChatAddress struct {
	JabberID string `json:"jabberId"`
}

// UserLocation is returned when users are expanded with locations.
type UserLocation struct {
	ID                 string           `json:"id"`
	Notes              string           `json:"notes"`
	FloorplanID        string           `json:"floorplanId"`
	LocationDefinition *DomainEntityRef `json:"locationDefinition"`
}

// Group is a user group.
type Group struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	State        string     `json:"state"`
	Type         string     `json:"type"`
	Visibility   string     `json:"visibility"`
	MemberCount  int        `json:"memberCount"`
	RulesVisible bool       `json:"rulesVisible"`
	DateModified *time.Time `json:"dateModified"`
}

// Location is a physical site.
type Location struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	State       string           `json:"state"`
	Path        []string         `json:"path"`
	Address     *LocationAddress `json:"address"`
	Notes       string           `json:"notes"`
	Version     int              `json:"version"`
	ContactUser *DomainEntityRef `json:"contactUser"`
}

// LocationAddress is a postal address.
type LocationAddress struct {
	City    string `json:"city"`
	Country string `json:"country"`
	State   string `json:"state"`
	Street1 string `json:"street1"`
	Street2 string `json:"street2"`
	Zipcode string `json:"zipcode"`
}

// PresenceDefinition is an organization presence.
type PresenceDefinition struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	SystemPresence string            `json:"systemPresence"`
	Primary        bool              `json:"primary"`
	Deactivated    bool              `json:"deactivated"`
	LanguageLabels map[string]string `json:"languageLabels"`
	DateModified   *time.Time        `json:"modifiedDate"`
}

// Queue is a routing queue.
type Queue struct {
	ID                     string           `json:"id"`
	Name                   string           `json:"name"`
	Description            string           `json:"description"`
	MemberCount            int              `json:"memberCount"`
	SkillEvaluationMethod  string           `json:"skillEvaluationMethod"`
	EnableTranscription    bool             `json:"enableTranscription"`
	EnableManualAssignment bool             `json:"enableManualAssignment"`
	CallingPartyName       string           `json:"callingPartyName"`
	CallingPartyNumber     string           `json:"callingPartyNumber"`
	DateCreated            *time.Time       `json:"dateCreated"`
	DateModified           *time.Time       `json:"dateModified"`
	Division               *DomainEntityRef `json:"division"`
}

// QueueMember is one user's membership in a queue.
type QueueMember struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	User       *DomainEntityRef `json:"user"`
	RingNumber int              `json:"ringNumber"`
	Joined     bool             `json:"joined"`
	MemberBy   string           `json:"memberBy"`
}

// WrapupCode is a disposition code assigned to a queue.
type WrapupCode struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	DateCreated *time.Time `json:"dateCreated"`
	CreatedBy   string     `json:"createdBy"`
}

// ManagementUnit is a workforce-management unit.
type ManagementUnit struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	StartDayOfWeek string           `json:"startDayOfWeek"`
	TimeZone       string           `json:"timeZone"`
	Version        int              `json:"version"`
	Division       *DomainEntityRef `json:"division"`
	BusinessUnit   *DomainEntityRef `json:"businessUnit"`
}

// ActivityCode is a workforce-management activity. The endpoint returns
// codes keyed by id, so ID may arrive only as the collection key.
type ActivityCode struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Category         string `json:"category"`
	IsActive         bool   `json:"isActive"`
	IsDefault        bool   `json:"isDefault"`
	LengthInMinutes  int    `json:"lengthInMinutes"`
	CountsAsPaidTime bool   `json:"countsAsPaidTime"`
	CountsAsWorkTime bool   `json:"countsAsWorkTime"`
}

// SetCollectionKey implements pipeline.Keyed.
func (a *ActivityCode) SetCollectionKey(key string) {
	if a.ID == "" {
		a.ID = key
	}
}

// ManagementUnitUser is a user belonging to a management unit.
type ManagementUnitUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// UserSchedule is one user's shifts in a schedule search. The endpoint
// returns schedules keyed by user id.
type UserSchedule struct {
	UserID                string            `json:"userId"`
	Shifts                []ScheduleShift   `json:"shifts"`
	FullDayTimeOffMarkers []json.RawMessage `json:"fullDayTimeOffMarkers"`
	Delete                bool              `json:"delete"`
	Version               int               `json:"version"`
}

// SetCollectionKey implements pipeline.Keyed.
func (u *UserSchedule) SetCollectionKey(key string) {
	if u.UserID == "" {
		u.UserID = key
	}
}

// ScheduleShift is one scheduled shift.
type ScheduleShift struct {
	ID              string             `json:"id"`
	StartDate       *time.Time         `json:"startDate"`
	LengthInMinutes int                `json:"lengthInMinutes"`
	Activities      []ScheduleActivity `json:"activities"`
	Delete          bool               `json:"delete"`
	ManuallyEdited  bool               `json:"manuallyEdited"`
}

// ScheduleActivity is one block of a shift.
type ScheduleActivity struct {
	StartDate        *time.Time `json:"startDate"`
	LengthInMinutes  int        `json:"lengthInMinutes"`
	Description      string     `json:"description"`
	ActivityCodeID   string     `json:"activityCodeId"`
	Paid             bool       `json:"paid"`
	CountsAsPaidTime bool       `json:"countsAsPaidTime"`
	IsDstFallback    bool       `json:"isDstFallback"`
}

// Conversation is an analytics conversation detail.
type Conversation struct {
	ConversationID       string        `json:"conversationId"`
	ConversationStart    *time.Time    `json:"conversationStart"`
	ConversationEnd      *time.Time    `json:"conversationEnd"`
	OriginatingDirection string        `json:"originatingDirection"`
	DivisionIDs          []string      `json:"divisionIds"`
	Participants         []Participant `json:"participants"`
}

// Participant is one party in a conversation.
type Participant struct {
	ParticipantID   string    `json:"participantId"`
	ParticipantName string    `json:"participantName"`
	Purpose         string    `json:"purpose"`
	UserID          string    `json:"userId"`
	ExternalContact string    `json:"externalContactId"`
	Sessions        []Session `json:"sessions"`
}

// Session is one media session of a participant.
type Session struct {
	SessionID string    `json:"sessionId"`
	MediaType string    `json:"mediaType"`
	Direction string    `json:"direction"`
	ANI       string    `json:"ani"`
	DNIS      string    `json:"dnis"`
	Segments  []Segment `json:"segments"`
}

// Segment is one state interval of a session.
type Segment struct {
	SegmentStart   *time.Time `json:"segmentStart"`
	SegmentEnd     *time.Time `json:"segmentEnd"`
	SegmentType    string     `json:"segmentType"`
	QueueID        string     `json:"queueId"`
	WrapUpCode     string     `json:"wrapUpCode"`
	WrapUpNote     string     `json:"wrapUpNote"`
	DisconnectType string     `json:"disconnectType"`
	Conference     bool       `json:"conference"`
}

// UserDetail is an analytics user detail: presence and routing intervals.
type UserDetail struct {
	UserID          string           `json:"userId"`
	PrimaryPresence []PresenceStatus `json:"primaryPresence"`
	RoutingStatus   []RoutingStatus  `json:"routingStatus"`
}

// PresenceStatus is one primary-presence interval.
type PresenceStatus struct {
	StartTime              *time.Time `json:"startTime"`
	EndTime                *time.Time `json:"endTime"`
	SystemPresence         string     `json:"systemPresence"`
	OrganizationPresenceID string     `json:"organizationPresenceId"`
}

// RoutingStatus is one routing-status interval.
type RoutingStatus struct {
	StartTime     *time.Time `json:"startTime"`
	EndTime       *time.Time `json:"endTime"`
	RoutingStatus string     `json:"routingStatus"`
}

// AdherenceRecord is one user's row of a historical adherence result,
// kept as decoded so unknown fields pass through.
type AdherenceRecord map[string]any

// UserID returns the record's userId, or "".
func (a AdherenceRecord) UserID() string {
	id, _ := a["userId"].(string)
	return id
}
