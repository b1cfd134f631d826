package sqlxrepos

import (
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/kozi/core/course"
	"github.com/trezcool/kozi/core/curriculum"
)

type (
	subjectRow struct {
		ID              int    `db:"id"`
		Name            string `db:"name"`
		Description     string `db:"description"`
		RequiredReading string `db:"required_reading"`
		Version         int    `db:"version"`
	}

	// detailsRow is a day, seminar or course design row.
	detailsRow struct {
		ID          int    `db:"id"`
		Name        string `db:"name"`
		Description string `db:"description"`
		Version     int    `db:"version"`
	}

	courseRow struct {
		ID             int    `db:"id"`
		Name           string `db:"name"`
		Description    string `db:"description"`
		MaxStudents    int    `db:"max_students"`
		CourseDesignID int    `db:"course_design_id"`
		Version        int    `db:"version"`
	}

	courseDateRow struct {
		ID              int       `db:"id"`
		CourseID        int       `db:"course_id"`
		VenueID         int       `db:"venue_id"`
		Date            null.Time `db:"date"`
		EndTime         null.Time `db:"end_time"`
		ReservationInfo string    `db:"reservation_info"`
		Rider           string    `db:"rider"`
		Version         int       `db:"version"`
	}

	venueRow struct {
		ID         int      `db:"id"`
		Name       string   `db:"name"`
		Info       string   `db:"info"`
		Email1     string   `db:"email1"`
		Email2     string   `db:"email2"`
		Phone      string   `db:"phone"`
		Address    string   `db:"address"`
		MapsURL    string   `db:"maps_url"`
		Contact1ID null.Int `db:"contact1_id"`
		Contact2ID null.Int `db:"contact2_id"`
		Version    int      `db:"version"`
	}

	contactRow struct {
		ID      int    `db:"id"`
		Name    string `db:"name"`
		Email   string `db:"email"`
		Phone   string `db:"phone"`
		Address string `db:"address"`
		Version int    `db:"version"`
	}

	linkRow struct {
		ParentID int `db:"parent_id"`
		ChildID  int `db:"child_id"`
	}
)

func (r subjectRow) subject() curriculum.Subject {
	return curriculum.Subject{ID: r.ID, Name: r.Name, Description: r.Description, RequiredReading: r.RequiredReading, Version: r.Version}
}

func (r detailsRow) day() curriculum.Day {
	return curriculum.Day{ID: r.ID, Name: r.Name, Description: r.Description, Version: r.Version}
}

func (r detailsRow) seminar() curriculum.Seminar {
	return curriculum.Seminar{ID: r.ID, Name: r.Name, Description: r.Description, Version: r.Version}
}

func (r detailsRow) courseDesign() curriculum.CourseDesign {
	return curriculum.CourseDesign{ID: r.ID, Name: r.Name, Description: r.Description, Version: r.Version}
}

func (r courseRow) course() course.Course {
	return course.Course{
		ID:             r.ID,
		Name:           r.Name,
		Description:    r.Description,
		MaxStudents:    r.MaxStudents,
		CourseDesignID: r.CourseDesignID,
		Version:        r.Version,
	}
}

func toCourseDateRow(d course.CourseDate) courseDateRow {
	return courseDateRow{
		ID:              d.ID,
		CourseID:        d.CourseID,
		VenueID:         d.VenueID,
		Date:            null.TimeFrom(d.Date.UTC()),
		EndTime:         null.TimeFromPtr(d.EndTime),
		ReservationInfo: d.ReservationInfo,
		Rider:           d.Rider,
		Version:         d.Version,
	}
}

func (r courseDateRow) courseDate() course.CourseDate {
	d := course.CourseDate{
		ID:              r.ID,
		CourseID:        r.CourseID,
		VenueID:         r.VenueID,
		Date:            r.Date.Time.UTC(),
		ReservationInfo: r.ReservationInfo,
		Rider:           r.Rider,
		Version:         r.Version,
	}
	if r.EndTime.Valid {
		end := r.EndTime.Time.UTC()
		d.EndTime = &end
	}
	return d
}

func toVenueRow(v course.Venue) venueRow {
	return venueRow{
		ID:         v.ID,
		Name:       v.Name,
		Info:       v.Info,
		Email1:     v.Email1,
		Email2:     v.Email2,
		Phone:      v.Phone,
		Address:    v.Address,
		MapsURL:    v.MapsURL,
		Contact1ID: nullInt(v.Contact1ID),
		Contact2ID: nullInt(v.Contact2ID),
		Version:    v.Version,
	}
}

func (r venueRow) venue() course.Venue {
	return course.Venue{
		ID:         r.ID,
		Name:       r.Name,
		Info:       r.Info,
		Email1:     r.Email1,
		Email2:     r.Email2,
		Phone:      r.Phone,
		Address:    r.Address,
		MapsURL:    r.MapsURL,
		Contact1ID: intPtr(r.Contact1ID),
		Contact2ID: intPtr(r.Contact2ID),
		Version:    r.Version,
	}
}

func (r contactRow) contact() course.Contact {
	return course.Contact{ID: r.ID, Name: r.Name, Email: r.Email, Phone: r.Phone, Address: r.Address, Version: r.Version}
}

func nullInt(id *int) null.Int {
	if id == nil {
		return null.Int{}
	}
	return null.IntFrom(*id)
}

func intPtr(n null.Int) *int {
	if !n.Valid {
		return nil
	}
	id := n.Int
	return &id
}
