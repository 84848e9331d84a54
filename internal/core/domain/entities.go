package domain

import (
	"time"
)

// PointOfInterest is a fixed place residents can turn to (clinic, police post, fire station).
type PointOfInterest struct {
	ID       int64      `json:"id"`
	MapID    int64      `json:"map_id,omitempty"`
	Name     string     `json:"name"`
	Category Category   `json:"category"`
	Location Coordinate `json:"location"`
	Contact  string     `json:"contact"`
	Distance string     `json:"distance,omitempty"` // km, computed
}

// Alert is an emergency report emitted by a resident.
type Alert struct {
	ID       int64      `json:"id"`
	Category Category   `json:"category"`
	Location Coordinate `json:"location"`
	IssuedAt time.Time  `json:"issued_at"`
	Active   bool       `json:"active"`
	AuthorID int64      `json:"author_id,omitempty"`
}

// Comment belongs to the thread of a single alert.
type Comment struct {
	ID       int64     `json:"id"`
	AlertID  int64     `json:"alert_id"`
	Content  string    `json:"content"`
	IssuedAt time.Time `json:"issued_at"`
}

// SuggestedReplies are the quick answers offered under an alert.
var SuggestedReplies = []string{"On my way", "Attended", "I'm at the location"}

// Announcement is a neighborhood bulletin entry.
type Announcement struct {
	ID          int64  `json:"id"`
	AuthorID    int64  `json:"author_id,omitempty"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	RelatedDate string `json:"related_date,omitempty"`
	Address     string `json:"address,omitempty"`
	IssuedAt    string `json:"issued_at"` // YYYY-MM-DD
}

// User is a registered neighbor.
type User struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	RUT         string `json:"rut"`
	IsPresident bool   `json:"is_president"`
	Available   bool   `json:"available"`
	Address     string `json:"address"`
}

// Permission grants a neighbor access to an administrative area.
type Permission struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Known permission names.
const (
	PermManageUsers         = "gestionar_usuarios"
	PermManageAnnouncements = "gestionar_anuncios"
	PermManagePoints        = "gestionar_puntos"
	PermManagePermissions   = "gestionar_permisos"
)

// Notification is a user-facing record of the outcome of a write action.
type Notification struct {
	ID        int64     `json:"id"`
	Action    string    `json:"action"`
	Message   string    `json:"message"`
	Failed    bool      `json:"failed"`
	Dismissed bool      `json:"dismissed"`
	CreatedAt time.Time `json:"created_at"`
}

// AlertEvent is broadcast when an alert is emitted or removed.
type AlertEvent struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"` // "created" | "deleted"
	Alert      Alert     `json:"alert"`
	OccurredAt time.Time `json:"occurred_at"`
}

// LocationFix is a position report pushed by the device.
type LocationFix struct {
	Location          Coordinate `json:"location"`
	PermissionGranted bool       `json:"permission_granted"`
	Time              time.Time  `json:"time"`
}
