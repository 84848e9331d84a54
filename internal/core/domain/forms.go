package domain

// Input shapes for write actions. The validate tags are checked locally
// before anything is sent to the backend.

type Credentials struct {
	RUT string `json:"rut" validate:"required"`
	PIN string `json:"pin" validate:"required"`
}

type NewAlert struct {
	Category Category   `json:"category" validate:"required"`
	Location Coordinate `json:"location"`
}

type NewPoint struct {
	Category Category   `json:"category" validate:"required"`
	Name     string     `json:"name" validate:"required"`
	Location Coordinate `json:"location"`
	Contact  string     `json:"contact" validate:"required"`
}

type NewComment struct {
	Content string `json:"content" validate:"required,max=500"`
}

type NewUser struct {
	Name       string `json:"name" validate:"required"`
	RUT        string `json:"rut" validate:"required"`
	PIN        string `json:"pin" validate:"required,min=4,numeric"`
	ConfirmPIN string `json:"confirm_pin" validate:"required,eqfield=PIN"`
	Address    string `json:"address"`
}

type PINChange struct {
	PIN        string `json:"pin" validate:"required,min=4,numeric"`
	ConfirmPIN string `json:"confirm_pin" validate:"required,eqfield=PIN"`
}

type NewAnnouncement struct {
	Title       string `json:"title" validate:"required"`
	Body        string `json:"body" validate:"required"`
	RelatedDate string `json:"related_date" validate:"required"`
	Address     string `json:"address" validate:"required"`
}
