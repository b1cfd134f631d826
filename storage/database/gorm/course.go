package gormrepos

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"github.com/trezcool/kozi/core"
	"github.com/trezcool/kozi/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db}
}

// create inserts the model without touching its associations.
func (repo *courseRepository) create(ctx context.Context, m interface{}, entity string) error {
	return core.NewPersistenceError(repo.db.conn(ctx).Omit(clause.Associations).Create(m).Error, "inserting "+entity)
}

// Courses

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	m := courseModel{
		Name:           crs.Name,
		Description:    crs.Description,
		MaxStudents:    crs.MaxStudents,
		CourseDesignID: crs.CourseDesignID,
		Version:        1,
	}
	if err := repo.create(ctx, &m, "course"); err != nil {
		return course.Course{}, err
	}
	return m.course(), nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, id int) (course.Course, error) {
	var m courseModel
	if err := repo.db.conn(ctx).First(&m, id).Error; err != nil {
		return course.Course{}, trapNotFound(err, "course", "getting course")
	}
	return m.course(), nil
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter *course.QueryFilter, ordering []core.DBOrdering) ([]course.Course, error) {
	var ms []courseModel
	q := repo.db.conn(ctx)
	if filter != nil {
		q = withIDs(search(q, filter.Search), "id", filter.IDs)
	}
	if err := q.Order(orderBy(ordering)).Find(&ms).Error; err != nil {
		return nil, core.NewPersistenceError(err, "querying courses")
	}
	courses := make([]course.Course, 0, len(ms))
	for _, m := range ms {
		courses = append(courses, m.course())
	}
	return courses, nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	var m courseModel
	err := repo.db.versionedUpdate(ctx, &m, "course", crs.ID, crs.Version, map[string]interface{}{
		"name":             crs.Name,
		"description":      crs.Description,
		"max_students":     crs.MaxStudents,
		"course_design_id": crs.CourseDesignID,
	})
	if err != nil {
		return course.Course{}, err
	}
	return m.course(), nil
}

// DeleteCoursesByID relies on ON DELETE CASCADE to drop the dates.
func (repo *courseRepository) DeleteCoursesByID(ctx context.Context, ids ...int) error {
	return repo.db.deleteByID(ctx, &courseModel{}, "courses", ids)
}

// Course Dates

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func (repo *courseRepository) CreateCourseDate(ctx context.Context, date course.CourseDate) (course.CourseDate, error) {
	m := courseDateModel{
		CourseID:        date.CourseID,
		VenueID:         date.VenueID,
		Date:            date.Date.UTC(),
		EndTime:         utcPtr(date.EndTime),
		ReservationInfo: date.ReservationInfo,
		Rider:           date.Rider,
		Version:         1,
	}
	if err := repo.create(ctx, &m, "course date"); err != nil {
		return course.CourseDate{}, err
	}
	return m.courseDate(), nil
}

func (repo *courseRepository) GetCourseDate(ctx context.Context, id int) (course.CourseDate, error) {
	var m courseDateModel
	if err := repo.db.conn(ctx).First(&m, id).Error; err != nil {
		return course.CourseDate{}, trapNotFound(err, "course date", "getting course date")
	}
	return m.courseDate(), nil
}

func (repo *courseRepository) QueryCourseDates(ctx context.Context, filter *course.DateFilter) ([]course.CourseDate, error) {
	var ms []courseDateModel
	q := repo.db.conn(ctx)
	if filter != nil {
		q = withIDs(withIDs(q, "course_id", filter.CourseIDs), "venue_id", filter.VenueIDs)
	}
	if err := q.Order("date ASC, id ASC").Find(&ms).Error; err != nil {
		return nil, core.NewPersistenceError(err, "querying course dates")
	}
	dates := make([]course.CourseDate, 0, len(ms))
	for _, m := range ms {
		dates = append(dates, m.courseDate())
	}
	return dates, nil
}

func (repo *courseRepository) UpdateCourseDate(ctx context.Context, date course.CourseDate) (course.CourseDate, error) {
	var m courseDateModel
	err := repo.db.versionedUpdate(ctx, &m, "course date", date.ID, date.Version, map[string]interface{}{
		"course_id":        date.CourseID,
		"venue_id":         date.VenueID,
		"date":             date.Date.UTC(),
		"end_time":         utcPtr(date.EndTime),
		"reservation_info": date.ReservationInfo,
		"rider":            date.Rider,
	})
	if err != nil {
		return course.CourseDate{}, err
	}
	return m.courseDate(), nil
}

func (repo *courseRepository) DeleteCourseDatesByID(ctx context.Context, ids ...int) error {
	return repo.db.deleteByID(ctx, &courseDateModel{}, "course dates", ids)
}

// Venues

func (repo *courseRepository) CreateVenue(ctx context.Context, venue course.Venue) (course.Venue, error) {
	m := toVenueModel(venue)
	m.Version = 1
	if err := repo.create(ctx, &m, "venue"); err != nil {
		return course.Venue{}, err
	}
	return m.venue(), nil
}

func (repo *courseRepository) GetVenue(ctx context.Context, id int) (course.Venue, error) {
	var m venueModel
	if err := repo.db.conn(ctx).First(&m, id).Error; err != nil {
		return course.Venue{}, trapNotFound(err, "venue", "getting venue")
	}
	return m.venue(), nil
}

func (repo *courseRepository) QueryVenues(ctx context.Context, filter *course.QueryFilter, ordering []core.DBOrdering) ([]course.Venue, error) {
	var ms []venueModel
	q := repo.db.conn(ctx)
	if filter != nil {
		q = withIDs(search(q, filter.Search), "id", filter.IDs)
		if filter.ContactID != 0 {
			q = q.Where("(contact1_id = ? OR contact2_id = ?)", filter.ContactID, filter.ContactID)
		}
	}
	if err := q.Order(orderBy(ordering)).Find(&ms).Error; err != nil {
		return nil, core.NewPersistenceError(err, "querying venues")
	}
	venues := make([]course.Venue, 0, len(ms))
	for _, m := range ms {
		venues = append(venues, m.venue())
	}
	return venues, nil
}

func (repo *courseRepository) UpdateVenue(ctx context.Context, venue course.Venue) (course.Venue, error) {
	var m venueModel
	err := repo.db.versionedUpdate(ctx, &m, "venue", venue.ID, venue.Version, map[string]interface{}{
		"name":        venue.Name,
		"info":        venue.Info,
		"email1":      venue.Email1,
		"email2":      venue.Email2,
		"phone":       venue.Phone,
		"address":     venue.Address,
		"maps_url":    venue.MapsURL,
		"contact1_id": venue.Contact1ID,
		"contact2_id": venue.Contact2ID,
	})
	if err != nil {
		return course.Venue{}, err
	}
	return m.venue(), nil
}

// DeleteVenuesByID relies on ON DELETE CASCADE to drop the dates scheduled at the venues.
func (repo *courseRepository) DeleteVenuesByID(ctx context.Context, ids ...int) error {
	return repo.db.deleteByID(ctx, &venueModel{}, "venues", ids)
}

func toVenueModel(v course.Venue) venueModel {
	return venueModel{
		ID:         v.ID,
		Name:       v.Name,
		Info:       v.Info,
		Email1:     v.Email1,
		Email2:     v.Email2,
		Phone:      v.Phone,
		Address:    v.Address,
		MapsURL:    v.MapsURL,
		Contact1ID: v.Contact1ID,
		Contact2ID: v.Contact2ID,
		Version:    v.Version,
	}
}

// Contacts

func (repo *courseRepository) CreateContact(ctx context.Context, contact course.Contact) (course.Contact, error) {
	m := contactModel{Name: contact.Name, Email: contact.Email, Phone: contact.Phone, Address: contact.Address, Version: 1}
	if err := repo.create(ctx, &m, "contact"); err != nil {
		return course.Contact{}, err
	}
	return m.contact(), nil
}

func (repo *courseRepository) GetContact(ctx context.Context, id int) (course.Contact, error) {
	var m contactModel
	if err := repo.db.conn(ctx).First(&m, id).Error; err != nil {
		return course.Contact{}, trapNotFound(err, "contact", "getting contact")
	}
	return m.contact(), nil
}

func (repo *courseRepository) QueryContacts(ctx context.Context, filter *course.QueryFilter, ordering []core.DBOrdering) ([]course.Contact, error) {
	var ms []contactModel
	q := repo.db.conn(ctx)
	if filter != nil {
		q = withIDs(search(q, filter.Search), "id", filter.IDs)
	}
	if err := q.Order(orderBy(ordering)).Find(&ms).Error; err != nil {
		return nil, core.NewPersistenceError(err, "querying contacts")
	}
	contacts := make([]course.Contact, 0, len(ms))
	for _, m := range ms {
		contacts = append(contacts, m.contact())
	}
	return contacts, nil
}

func (repo *courseRepository) UpdateContact(ctx context.Context, contact course.Contact) (course.Contact, error) {
	var m contactModel
	err := repo.db.versionedUpdate(ctx, &m, "contact", contact.ID, contact.Version, map[string]interface{}{
		"name":    contact.Name,
		"email":   contact.Email,
		"phone":   contact.Phone,
		"address": contact.Address,
	})
	if err != nil {
		return course.Contact{}, err
	}
	return m.contact(), nil
}

// DeleteContactsByID fails with a foreign key violation if a venue still references a contact.
func (repo *courseRepository) DeleteContactsByID(ctx context.Context, ids ...int) error {
	return repo.db.deleteByID(ctx, &contactModel{}, "contacts", ids)
}
