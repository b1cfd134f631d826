package curriculum

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/kozi/core"
)

type Subject struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	RequiredReading string `json:"required_reading"`
	Version         int    `json:"version"`
}

type Day struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Version     int       `json:"version"`
	Subjects    []Subject `json:"subjects,omitempty"` // only set by tree fetches
}

type Seminar struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     int    `json:"version"`
	Days        []Day  `json:"days,omitempty"` // only set by tree fetches
}

type CourseDesign struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Version     int       `json:"version"`
	Seminars    []Seminar `json:"seminars,omitempty"` // only set by tree fetches
}

// IsTemplate reports whether the design is a reusable template rather than a course-private copy.
func (cd CourseDesign) IsTemplate() bool { return !HasPrefix(cd.Name) }

// LinkKind identifies one of the many-to-many join tables.
type LinkKind int

const (
	DaySubjects    LinkKind = iota + 1 // DayID -> SubjectID
	SeminarDays                        // SeminarID -> DayID
	CourseSeminars                     // CourseDesignID -> SeminarID
)

func (k LinkKind) String() string {
	switch k {
	case DaySubjects:
		return "day_subject"
	case SeminarDays:
		return "seminar_day"
	case CourseSeminars:
		return "course_seminar"
	default:
		return "unknown"
	}
}

// Link is a join row (ParentID, ChildID) of a LinkKind table.
type Link struct {
	ParentID int `json:"parent_id"`
	ChildID  int `json:"child_id"`
}

// CheckItem is one entry of a checklist: a candidate child and whether it is selected.
type CheckItem struct {
	ID       int  `json:"id"`
	Selected bool `json:"selected"`
}

// ChecklistEntry is a CheckItem with the child's display name, as presented to a user.
type ChecklistEntry struct {
	CheckItem
	Name string `json:"name"`
}

// NewSubject contains information needed to create a new Subject.
type NewSubject struct {
	Name            string `json:"name" validate:"required,min=4,max=100,plainname"`
	Description     string `json:"description"`
	RequiredReading string `json:"required_reading"`
}

func (ns *NewSubject) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	return validate.Struct(ns)
}

// UpdateSubject defines what information may be provided to modify an existing Subject.
type UpdateSubject struct {
	NewSubject
	Version int `json:"version"`
}

// NewDetails contains information needed to create a new Day, Seminar or CourseDesign.
type NewDetails struct {
	Name        string `json:"name" validate:"required,min=4,max=100,plainname"`
	Description string `json:"description"`
}

func (nd *NewDetails) Validate(validate *validator.Validate) error {
	nd.Name = core.CleanString(nd.Name)
	return validate.Struct(nd)
}

// UpdateDetails defines what information may be provided to modify an existing Day, Seminar or CourseDesign.
type UpdateDetails struct {
	NewDetails
	Version int `json:"version"`
}

type QueryFilter struct {
	Search        string `query:"search"`
	TemplatesOnly bool   `query:"-"`
	IDs           []int  `query:"-"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
