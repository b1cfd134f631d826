package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/kozi/core"
	"github.com/trezcool/kozi/core/course"
)

const (
	courseTable     = "course"
	courseDateTable = "course_date"
	venueTable      = "venue"
	contactTable    = "contact"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db}
}

func courseWhere(filter *course.QueryFilter) *where {
	w := new(where)
	if filter == nil {
		return w
	}
	w.search("name", filter.Search)
	w.in("id", filter.IDs)
	return w
}

// Courses

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	var row courseRow
	q := `INSERT INTO course (name, description, max_students, course_design_id) VALUES ($1, $2, $3, $4) RETURNING *`
	err := sqlx.GetContext(ctx, repo.db.exec(ctx), &row, q, crs.Name, crs.Description, crs.MaxStudents, crs.CourseDesignID)
	if err != nil {
		return course.Course{}, core.NewPersistenceError(err, "inserting course")
	}
	return row.course(), nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, id int) (course.Course, error) {
	var row courseRow
	if err := sqlx.GetContext(ctx, repo.db.exec(ctx), &row, `SELECT * FROM course WHERE id = $1`, id); err != nil {
		return course.Course{}, trapNoRowsErr(err, "course", "getting course")
	}
	return row.course(), nil
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter *course.QueryFilter, ordering []core.DBOrdering) ([]course.Course, error) {
	var rows []courseRow
	if err := repo.db.selectRows(ctx, &rows, courseTable, courseWhere(filter), orderBy(ordering)); err != nil {
		return nil, err
	}
	courses := make([]course.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, r.course())
	}
	return courses, nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	var row courseRow
	q := `UPDATE course SET name = $1, description = $2, max_students = $3, course_design_id = $4, version = version + 1
		WHERE id = $5 AND version = $6 RETURNING *`
	err := sqlx.GetContext(ctx, repo.db.exec(ctx), &row, q,
		crs.Name, crs.Description, crs.MaxStudents, crs.CourseDesignID, crs.ID, crs.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return course.Course{}, repo.db.staleUpdate(ctx, courseTable, "course", crs.ID)
	}
	if err != nil {
		return course.Course{}, core.NewPersistenceError(err, "updating course")
	}
	return row.course(), nil
}

// DeleteCoursesByID relies on ON DELETE CASCADE to drop the dates.
func (repo *courseRepository) DeleteCoursesByID(ctx context.Context, ids ...int) error {
	return repo.db.deleteByID(ctx, courseTable, ids)
}

// Course Dates

func (repo *courseRepository) CreateCourseDate(ctx context.Context, date course.CourseDate) (course.CourseDate, error) {
	in := toCourseDateRow(date)
	var row courseDateRow
	q := `INSERT INTO course_date (course_id, venue_id, date, end_time, reservation_info, rider)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING *`
	err := sqlx.GetContext(ctx, repo.db.exec(ctx), &row, q,
		in.CourseID, in.VenueID, in.Date, in.EndTime, in.ReservationInfo, in.Rider)
	if err != nil {
		return course.CourseDate{}, core.NewPersistenceError(err, "inserting course date")
	}
	return row.courseDate(), nil
}

func (repo *courseRepository) GetCourseDate(ctx context.Context, id int) (course.CourseDate, error) {
	var row courseDateRow
	if err := sqlx.GetContext(ctx, repo.db.exec(ctx), &row, `SELECT * FROM course_date WHERE id = $1`, id); err != nil {
		return course.CourseDate{}, trapNoRowsErr(err, "course date", "getting course date")
	}
	return row.courseDate(), nil
}

func (repo *courseRepository) QueryCourseDates(ctx context.Context, filter *course.DateFilter) ([]course.CourseDate, error) {
	w := new(where)
	if filter != nil {
		w.in("course_id", filter.CourseIDs)
		w.in("venue_id", filter.VenueIDs)
	}
	var rows []courseDateRow
	if err := repo.db.selectRows(ctx, &rows, courseDateTable, w, " ORDER BY date ASC, id ASC"); err != nil {
		return nil, err
	}
	dates := make([]course.CourseDate, 0, len(rows))
	for _, r := range rows {
		dates = append(dates, r.courseDate())
	}
	return dates, nil
}

func (repo *courseRepository) UpdateCourseDate(ctx context.Context, date course.CourseDate) (course.CourseDate, error) {
	in := toCourseDateRow(date)
	var row courseDateRow
	q := `UPDATE course_date SET course_id = $1, venue_id = $2, date = $3, end_time = $4,
		reservation_info = $5, rider = $6, version = version + 1
		WHERE id = $7 AND version = $8 RETURNING *`
	err := sqlx.GetContext(ctx, repo.db.exec(ctx), &row, q,
		in.CourseID, in.VenueID, in.Date, in.EndTime, in.ReservationInfo, in.Rider, in.ID, in.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return course.CourseDate{}, repo.db.staleUpdate(ctx, courseDateTable, "course date", date.ID)
	}
	if err != nil {
		return course.CourseDate{}, core.NewPersistenceError(err, "updating course date")
	}
	return row.courseDate(), nil
}

func (repo *courseRepository) DeleteCourseDatesByID(ctx context.Context, ids ...int) error {
	return repo.db.deleteByID(ctx, courseDateTable, ids)
}

// Venues

func (repo *courseRepository) CreateVenue(ctx context.Context, venue course.Venue) (course.Venue, error) {
	var row venueRow
	q := `INSERT INTO venue (name, info, email1, email2, phone, address, maps_url, contact1_id, contact2_id)
		VALUES (:name, :info, :email1, :email2, :phone, :address, :maps_url, :contact1_id, :contact2_id) RETURNING *`
	if err := repo.namedGet(ctx, &row, q, toVenueRow(venue)); err != nil {
		return course.Venue{}, core.NewPersistenceError(err, "inserting venue")
	}
	return row.venue(), nil
}

func (repo *courseRepository) GetVenue(ctx context.Context, id int) (course.Venue, error) {
	var row venueRow
	if err := sqlx.GetContext(ctx, repo.db.exec(ctx), &row, `SELECT * FROM venue WHERE id = $1`, id); err != nil {
		return course.Venue{}, trapNoRowsErr(err, "venue", "getting venue")
	}
	return row.venue(), nil
}

func (repo *courseRepository) QueryVenues(ctx context.Context, filter *course.QueryFilter, ordering []core.DBOrdering) ([]course.Venue, error) {
	w := courseWhere(filter)
	if filter != nil && filter.ContactID != 0 {
		w.add("(contact1_id = ? OR contact2_id = ?)", filter.ContactID, filter.ContactID)
	}
	var rows []venueRow
	if err := repo.db.selectRows(ctx, &rows, venueTable, w, orderBy(ordering)); err != nil {
		return nil, err
	}
	venues := make([]course.Venue, 0, len(rows))
	for _, r := range rows {
		venues = append(venues, r.venue())
	}
	return venues, nil
}

func (repo *courseRepository) UpdateVenue(ctx context.Context, venue course.Venue) (course.Venue, error) {
	var row venueRow
	q := `UPDATE venue SET name = :name, info = :info, email1 = :email1, email2 = :email2, phone = :phone,
		address = :address, maps_url = :maps_url, contact1_id = :contact1_id, contact2_id = :contact2_id,
		version = version + 1
		WHERE id = :id AND version = :version RETURNING *`
	err := repo.namedGet(ctx, &row, q, toVenueRow(venue))
	if errors.Is(err, sql.ErrNoRows) {
		return course.Venue{}, repo.db.staleUpdate(ctx, venueTable, "venue", venue.ID)
	}
	if err != nil {
		return course.Venue{}, core.NewPersistenceError(err, "updating venue")
	}
	return row.venue(), nil
}

// DeleteVenuesByID relies on ON DELETE CASCADE to drop the dates scheduled at the venues.
func (repo *courseRepository) DeleteVenuesByID(ctx context.Context, ids ...int) error {
	return repo.db.deleteByID(ctx, venueTable, ids)
}

// Contacts

func (repo *courseRepository) CreateContact(ctx context.Context, contact course.Contact) (course.Contact, error) {
	var row contactRow
	q := `INSERT INTO contact (name, email, phone, address) VALUES ($1, $2, $3, $4) RETURNING *`
	err := sqlx.GetContext(ctx, repo.db.exec(ctx), &row, q, contact.Name, contact.Email, contact.Phone, contact.Address)
	if err != nil {
		return course.Contact{}, core.NewPersistenceError(err, "inserting contact")
	}
	return row.contact(), nil
}

func (repo *courseRepository) GetContact(ctx context.Context, id int) (course.Contact, error) {
	var row contactRow
	if err := sqlx.GetContext(ctx, repo.db.exec(ctx), &row, `SELECT * FROM contact WHERE id = $1`, id); err != nil {
		return course.Contact{}, trapNoRowsErr(err, "contact", "getting contact")
	}
	return row.contact(), nil
}

func (repo *courseRepository) QueryContacts(ctx context.Context, filter *course.QueryFilter, ordering []core.DBOrdering) ([]course.Contact, error) {
	var rows []contactRow
	if err := repo.db.selectRows(ctx, &rows, contactTable, courseWhere(filter), orderBy(ordering)); err != nil {
		return nil, err
	}
	contacts := make([]course.Contact, 0, len(rows))
	for _, r := range rows {
		contacts = append(contacts, r.contact())
	}
	return contacts, nil
}

func (repo *courseRepository) UpdateContact(ctx context.Context, contact course.Contact) (course.Contact, error) {
	var row contactRow
	q := `UPDATE contact SET name = $1, email = $2, phone = $3, address = $4, version = version + 1
		WHERE id = $5 AND version = $6 RETURNING *`
	err := sqlx.GetContext(ctx, repo.db.exec(ctx), &row, q,
		contact.Name, contact.Email, contact.Phone, contact.Address, contact.ID, contact.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return course.Contact{}, repo.db.staleUpdate(ctx, contactTable, "contact", contact.ID)
	}
	if err != nil {
		return course.Contact{}, core.NewPersistenceError(err, "updating contact")
	}
	return row.contact(), nil
}

// DeleteContactsByID fails with a foreign key violation if a venue still references a contact.
func (repo *courseRepository) DeleteContactsByID(ctx context.Context, ids ...int) error {
	return repo.db.deleteByID(ctx, contactTable, ids)
}

// namedGet runs a named query returning one row into dest.
func (repo *courseRepository) namedGet(ctx context.Context, dest interface{}, query string, arg interface{}) error {
	ex := repo.db.exec(ctx)
	q, args, err := sqlx.Named(query, arg)
	if err != nil {
		return err
	}
	return sqlx.GetContext(ctx, ex, dest, ex.Rebind(q), args...)
}
