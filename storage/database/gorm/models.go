package gormrepos

import (
	"time"

	"github.com/trezcool/kozi/core/course"
	"github.com/trezcool/kozi/core/curriculum"
)

// The models map onto the tables of the embedded migrations.
// AutoMigrate only creates them on sqlite.

type subjectModel struct {
	ID              int    `gorm:"primaryKey"`
	Name            string `gorm:"size:255;not null"`
	Description     string `gorm:"not null"`
	RequiredReading string `gorm:"not null"`
	Version         int    `gorm:"not null"`
}

func (subjectModel) TableName() string { return "subject" }

type dayModel struct {
	ID          int    `gorm:"primaryKey"`
	Name        string `gorm:"size:255;not null"`
	Description string `gorm:"not null"`
	Version     int    `gorm:"not null"`
}

func (dayModel) TableName() string { return "day" }

type seminarModel struct {
	ID          int    `gorm:"primaryKey"`
	Name        string `gorm:"size:255;not null"`
	Description string `gorm:"not null"`
	Version     int    `gorm:"not null"`
}

func (seminarModel) TableName() string { return "seminar" }

type courseDesignModel struct {
	ID          int    `gorm:"primaryKey"`
	Name        string `gorm:"size:255;not null"`
	Description string `gorm:"not null"`
	Version     int    `gorm:"not null"`
}

func (courseDesignModel) TableName() string { return "course_design" }

type daySubjectModel struct {
	DayID     int           `gorm:"primaryKey;autoIncrement:false"`
	SubjectID int           `gorm:"primaryKey;autoIncrement:false"`
	Day       *dayModel     `gorm:"foreignKey:DayID;constraint:OnDelete:CASCADE"`
	Subject   *subjectModel `gorm:"foreignKey:SubjectID;constraint:OnDelete:CASCADE"`
}

func (daySubjectModel) TableName() string { return "day_subject" }

type seminarDayModel struct {
	SeminarID int           `gorm:"primaryKey;autoIncrement:false"`
	DayID     int           `gorm:"primaryKey;autoIncrement:false"`
	Seminar   *seminarModel `gorm:"foreignKey:SeminarID;constraint:OnDelete:CASCADE"`
	Day       *dayModel     `gorm:"foreignKey:DayID;constraint:OnDelete:CASCADE"`
}

func (seminarDayModel) TableName() string { return "seminar_day" }

type courseSeminarModel struct {
	CourseDesignID int                `gorm:"primaryKey;autoIncrement:false"`
	SeminarID      int                `gorm:"primaryKey;autoIncrement:false"`
	CourseDesign   *courseDesignModel `gorm:"foreignKey:CourseDesignID;constraint:OnDelete:CASCADE"`
	Seminar        *seminarModel      `gorm:"foreignKey:SeminarID;constraint:OnDelete:CASCADE"`
}

func (courseSeminarModel) TableName() string { return "course_seminar" }

type contactModel struct {
	ID      int    `gorm:"primaryKey"`
	Name    string `gorm:"size:255;not null"`
	Email   string `gorm:"size:255;not null"`
	Phone   string `gorm:"size:64;not null"`
	Address string `gorm:"not null"`
	Version int    `gorm:"not null"`
}

func (contactModel) TableName() string { return "contact" }

type venueModel struct {
	ID         int           `gorm:"primaryKey"`
	Name       string        `gorm:"size:255;not null"`
	Info       string        `gorm:"not null"`
	Email1     string        `gorm:"column:email1;size:255;not null"`
	Email2     string        `gorm:"column:email2;size:255;not null"`
	Phone      string        `gorm:"size:64;not null"`
	Address    string        `gorm:"not null"`
	MapsURL    string        `gorm:"column:maps_url;not null"`
	Contact1ID *int          `gorm:"column:contact1_id"`
	Contact2ID *int          `gorm:"column:contact2_id"`
	Contact1   *contactModel `gorm:"foreignKey:Contact1ID;constraint:OnDelete:RESTRICT"`
	Contact2   *contactModel `gorm:"foreignKey:Contact2ID;constraint:OnDelete:RESTRICT"`
	Version    int           `gorm:"not null"`
}

func (venueModel) TableName() string { return "venue" }

type courseModel struct {
	ID             int                `gorm:"primaryKey"`
	Name           string             `gorm:"size:255;not null"`
	Description    string             `gorm:"not null"`
	MaxStudents    int                `gorm:"not null"`
	CourseDesignID int                `gorm:"not null"`
	CourseDesign   *courseDesignModel `gorm:"foreignKey:CourseDesignID"`
	Version        int                `gorm:"not null"`
}

func (courseModel) TableName() string { return "course" }

type courseDateModel struct {
	ID              int          `gorm:"primaryKey"`
	CourseID        int          `gorm:"not null;index"`
	VenueID         int          `gorm:"not null;index"`
	Date            time.Time    `gorm:"not null"`
	EndTime         *time.Time
	ReservationInfo string       `gorm:"not null"`
	Rider           string       `gorm:"not null"`
	Version         int          `gorm:"not null"`
	Course          *courseModel `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
	Venue           *venueModel  `gorm:"foreignKey:VenueID;constraint:OnDelete:CASCADE"`
}

func (courseDateModel) TableName() string { return "course_date" }

// allModels in dependency order.
var allModels = []interface{}{
	&subjectModel{}, &dayModel{}, &seminarModel{}, &courseDesignModel{},
	&daySubjectModel{}, &seminarDayModel{}, &courseSeminarModel{},
	&contactModel{}, &venueModel{}, &courseModel{}, &courseDateModel{},
}

func (m subjectModel) subject() curriculum.Subject {
	return curriculum.Subject{ID: m.ID, Name: m.Name, Description: m.Description, RequiredReading: m.RequiredReading, Version: m.Version}
}

func (m dayModel) day() curriculum.Day {
	return curriculum.Day{ID: m.ID, Name: m.Name, Description: m.Description, Version: m.Version}
}

func (m seminarModel) seminar() curriculum.Seminar {
	return curriculum.Seminar{ID: m.ID, Name: m.Name, Description: m.Description, Version: m.Version}
}

func (m courseDesignModel) courseDesign() curriculum.CourseDesign {
	return curriculum.CourseDesign{ID: m.ID, Name: m.Name, Description: m.Description, Version: m.Version}
}

func (m courseModel) course() course.Course {
	return course.Course{
		ID:             m.ID,
		Name:           m.Name,
		Description:    m.Description,
		MaxStudents:    m.MaxStudents,
		CourseDesignID: m.CourseDesignID,
		Version:        m.Version,
	}
}

func (m courseDateModel) courseDate() course.CourseDate {
	d := course.CourseDate{
		ID:              m.ID,
		CourseID:        m.CourseID,
		VenueID:         m.VenueID,
		Date:            m.Date.UTC(),
		ReservationInfo: m.ReservationInfo,
		Rider:           m.Rider,
		Version:         m.Version,
	}
	if m.EndTime != nil {
		end := m.EndTime.UTC()
		d.EndTime = &end
	}
	return d
}

func (m venueModel) venue() course.Venue {
	return course.Venue{
		ID:         m.ID,
		Name:       m.Name,
		Info:       m.Info,
		Email1:     m.Email1,
		Email2:     m.Email2,
		Phone:      m.Phone,
		Address:    m.Address,
		MapsURL:    m.MapsURL,
		Contact1ID: m.Contact1ID,
		Contact2ID: m.Contact2ID,
		Version:    m.Version,
	}
}

func (m contactModel) contact() course.Contact {
	return course.Contact{ID: m.ID, Name: m.Name, Email: m.Email, Phone: m.Phone, Address: m.Address, Version: m.Version}
}
