package course

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/kozi/core"
	"github.com/trezcool/kozi/core/curriculum"
)

type Course struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	MaxStudents    int    `json:"max_students"`
	CourseDesignID int    `json:"course_design_id"`
	Version        int    `json:"version"`

	// only set by tree fetches
	CourseDesign *curriculum.CourseDesign `json:"course_design,omitempty"`
	Dates        []CourseDate             `json:"dates,omitempty"`
}

type CourseDate struct {
	ID              int        `json:"id"`
	CourseID        int        `json:"course_id"`
	VenueID         int        `json:"venue_id"`
	Date            time.Time  `json:"date"`               // UTC
	EndTime         *time.Time `json:"end_time,omitempty"` // UTC
	ReservationInfo string     `json:"reservation_info"`
	Rider           string     `json:"rider"`
	Version         int        `json:"version"`

	Venue *Venue `json:"venue,omitempty"`
}

type Venue struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Info       string `json:"info"`
	Email1     string `json:"email1"`
	Email2     string `json:"email2"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	MapsURL    string `json:"maps_url"`
	Contact1ID *int   `json:"contact1_id"`
	Contact2ID *int   `json:"contact2_id"`
	Version    int    `json:"version"`

	Contact1 *Contact `json:"contact1,omitempty"`
	Contact2 *Contact `json:"contact2,omitempty"`
}

// ContactIDs returns the ids of the contacts set on the venue.
func (v Venue) ContactIDs() []int {
	ids := make([]int, 0, 2)
	for _, id := range []*int{v.Contact1ID, v.Contact2ID} {
		if id != nil {
			ids = append(ids, *id)
		}
	}
	return core.UniqueInts(ids)
}

type Contact struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Version int    `json:"version"`
}

// NewCourse contains information needed to create a new Course from a template CourseDesign.
type NewCourse struct {
	Name           string `json:"name" validate:"required,min=4,max=100,plainname"`
	Description    string `json:"description"`
	MaxStudents    int    `json:"max_students" validate:"gte=0"`
	CourseDesignID int    `json:"course_design_id" validate:"required"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	return validate.Struct(nc)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
// The design of a course is fixed at creation.
type UpdateCourse struct {
	Name        string `json:"name" validate:"required,min=4,max=100,plainname"`
	Description string `json:"description"`
	MaxStudents int    `json:"max_students" validate:"gte=0"`
	Version     int    `json:"version"`
}

func (uc *UpdateCourse) Validate(validate *validator.Validate) error {
	uc.Name = core.CleanString(uc.Name)
	return validate.Struct(uc)
}

// NewCourseDate contains information needed to schedule a Course at a Venue.
type NewCourseDate struct {
	VenueID         int        `json:"venue_id" validate:"required"`
	Date            time.Time  `json:"date" validate:"required"`
	EndTime         *time.Time `json:"end_time" validate:"omitempty,gtfield=Date"`
	ReservationInfo string     `json:"reservation_info"`
	Rider           string     `json:"rider"`
}

func (nd *NewCourseDate) Validate(validate *validator.Validate) error {
	nd.Date = nd.Date.UTC()
	if nd.EndTime != nil {
		end := nd.EndTime.UTC()
		nd.EndTime = &end
	}
	return validate.Struct(nd)
}

type UpdateCourseDate struct {
	NewCourseDate
	Version int `json:"version"`
}

// NewVenue contains information needed to create a new Venue.
type NewVenue struct {
	Name       string `json:"name" validate:"required,min=4,max=100"`
	Info       string `json:"info"`
	Email1     string `json:"email1" validate:"omitempty,email"`
	Email2     string `json:"email2" validate:"omitempty,email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	MapsURL    string `json:"maps_url" validate:"omitempty,url"`
	Contact1ID *int   `json:"contact1_id"`
	Contact2ID *int   `json:"contact2_id"`
}

func (nv *NewVenue) Validate(validate *validator.Validate) error {
	nv.Name = core.CleanString(nv.Name)
	nv.Email1 = core.CleanString(nv.Email1, true /* lower */)
	nv.Email2 = core.CleanString(nv.Email2, true /* lower */)
	return validate.Struct(nv)
}

type UpdateVenue struct {
	NewVenue
	Version int `json:"version"`
}

// NewContact contains information needed to create a new Contact.
type NewContact struct {
	Name    string `json:"name" validate:"required,min=4,max=100"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (nc *NewContact) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Email = core.CleanString(nc.Email, true /* lower */)
	return validate.Struct(nc)
}

type UpdateContact struct {
	NewContact
	Version int `json:"version"`
}

// QueryFilter is shared by courses, venues and contacts.
// Search matches the name, case-insensitively.
type QueryFilter struct {
	Search    string `query:"search"`
	IDs       []int  `query:"-"`
	ContactID int    `query:"-"` // venues only: venues referencing the contact
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

type DateFilter struct {
	CourseIDs []int
	VenueIDs  []int
}
