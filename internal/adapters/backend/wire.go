package backend

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/encinapp/encinapp/internal/core/domain"
)

// flexBool accepts true/false, 0/1 and their string forms.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.ToLower(string(bytes.TrimSpace(data))), `"`)
	switch s {
	case "true", "1", "t", "yes":
		*b = true
	case "false", "0", "f", "no", "", "null":
		*b = false
	default:
		return fmt.Errorf("invalid boolean %q", s)
	}
	return nil
}

// flexInt accepts a number or a numeric string.
type flexInt int64

func (n *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid integer %q", s)
	}
	*n = flexInt(v)
	return nil
}

// flexFloat accepts a number or a numeric string, as numeric columns often
// serialize to strings.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q", s)
	}
	*f = flexFloat(v)
	return nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// envelope picks the first present, non-null key of an object response.
// Newer key names come first. A bare array is returned as is.
func envelope(body []byte, keys ...string) (jsoniter.RawMessage, bool) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, false
	}
	if body[0] == '[' {
		return body, true
	}

	var obj map[string]jsoniter.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, false
	}
	for _, k := range keys {
		if raw, ok := obj[k]; ok && string(raw) != "null" {
			return raw, true
		}
	}
	return nil, false
}

type pointDTO struct {
	ID      flexInt   `json:"id_punto_interes"`
	MapID   flexInt   `json:"id_punto_mapa"`
	Name    string    `json:"nombre"`
	Kind    string    `json:"tipo"`
	Lat     flexFloat `json:"latitud"`
	Lon     flexFloat `json:"longitud"`
	Contact string    `json:"contacto"`
}

func (d pointDTO) toDomain() (domain.PointOfInterest, error) {
	cat, err := domain.ParseCategory(d.Kind)
	if err != nil {
		return domain.PointOfInterest{}, err
	}
	id := int64(d.ID)
	if id == 0 {
		id = int64(d.MapID)
	}
	return domain.PointOfInterest{
		ID:       id,
		MapID:    int64(d.MapID),
		Name:     d.Name,
		Category: cat,
		Location: domain.Coordinate{Latitude: float64(d.Lat), Longitude: float64(d.Lon)},
		Contact:  d.Contact,
	}, nil
}

type newPointDTO struct {
	Kind    string  `json:"tipo"`
	Name    string  `json:"nombre"`
	Lat     float64 `json:"latitud"`
	Lon     float64 `json:"longitud"`
	Contact string  `json:"contacto"`
}

type alertDTO struct {
	ID       flexInt   `json:"id_alerta"`
	MapID    flexInt   `json:"id_punto_mapa"`
	Kind     string    `json:"tipo"`
	Lat      flexFloat `json:"latitud"`
	Lon      flexFloat `json:"longitud"`
	IssuedAt string    `json:"fecha_emision"`
	Active   flexBool  `json:"estado_actividad"`
	AuthorID flexInt   `json:"id_usuario"`
}

func (d alertDTO) toDomain() (domain.Alert, error) {
	cat, err := domain.ParseCategory(d.Kind)
	if err != nil {
		return domain.Alert{}, err
	}
	id := int64(d.ID)
	if id == 0 {
		id = int64(d.MapID)
	}
	return domain.Alert{
		ID:       id,
		Category: cat,
		Location: domain.Coordinate{Latitude: float64(d.Lat), Longitude: float64(d.Lon)},
		IssuedAt: parseTime(d.IssuedAt),
		Active:   bool(d.Active),
		AuthorID: int64(d.AuthorID),
	}, nil
}

type newAlertDTO struct {
	Kind string  `json:"tipo"`
	Lat  float64 `json:"latitud"`
	Lon  float64 `json:"longitud"`
}

type commentDTO struct {
	ID       flexInt `json:"id_comentario"`
	AlertID  flexInt `json:"id_alerta"`
	Content  string  `json:"contenido"`
	IssuedAt string  `json:"fecha_emision"`
}

func (d commentDTO) toDomain(alertID int64) domain.Comment {
	c := domain.Comment{
		ID:       int64(d.ID),
		AlertID:  int64(d.AlertID),
		Content:  d.Content,
		IssuedAt: parseTime(d.IssuedAt),
	}
	if c.AlertID == 0 {
		c.AlertID = alertID
	}
	return c
}

type userDTO struct {
	ID          flexInt  `json:"id_usuario"`
	Name        string   `json:"nombre"`
	RUT         string   `json:"rut"`
	IsPresident flexBool `json:"es_presidente"`
	Available   flexBool `json:"disponibilidad"`
	Address     string   `json:"direccion"`
}

func (d userDTO) toDomain() domain.User {
	return domain.User{
		ID:          int64(d.ID),
		Name:        d.Name,
		RUT:         d.RUT,
		IsPresident: bool(d.IsPresident),
		Available:   bool(d.Available),
		Address:     d.Address,
	}
}

type newUserDTO struct {
	Name        string `json:"nombre"`
	RUT         string `json:"rut"`
	PIN         string `json:"pin"`
	IsPresident bool   `json:"es_presidente"`
	Available   bool   `json:"disponibilidad"`
	Address     string `json:"direccion"`
}

type permissionDTO struct {
	ID   flexInt `json:"id_permiso"`
	Name string  `json:"nombre"`
}

type announcementDTO struct {
	ID           flexInt `json:"id_anuncio"`
	AuthorID     flexInt `json:"id_usuario"`
	Title        string  `json:"titulo"`
	Body         string  `json:"cuerpo"`
	RelatedDate  string  `json:"fecha_relacionada"`
	RelatedAlt   string  `json:"fechaAsociada"`
	Address      string  `json:"direccion"`
	AddressAlt   string  `json:"direccionAnuncio"`
	IssuedAt     string  `json:"fecha_emision"`
	PublishedAlt string  `json:"fechaPublicacion"`
}

func (d announcementDTO) toDomain() domain.Announcement {
	return domain.Announcement{
		ID:          int64(d.ID),
		AuthorID:    int64(d.AuthorID),
		Title:       d.Title,
		Body:        d.Body,
		RelatedDate: firstNonEmpty(d.RelatedDate, d.RelatedAlt),
		Address:     firstNonEmpty(d.Address, d.AddressAlt),
		IssuedAt:    firstNonEmpty(d.IssuedAt, d.PublishedAlt),
	}
}

type newAnnouncementDTO struct {
	Title       string `json:"titulo"`
	Body        string `json:"cuerpo"`
	RelatedDate string `json:"fecha_relacionada"`
	Address     string `json:"direccion"`
	IssuedAt    string `json:"fecha_emision"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
