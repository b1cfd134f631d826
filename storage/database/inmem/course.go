package inmemdb

import (
	"context"
	"sort"

	"github.com/pkg/errors"

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

func courseFilter(filter *course.QueryFilter) (course.QueryFilter, map[int]bool) {
	if filter == nil {
		return course.QueryFilter{}, nil
	}
	return *filter, idSet(filter.IDs)
}

// Courses

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	crs.CourseDesign, crs.Dates = nil, nil
	err := repo.db.write(ctx, func(t *tables) error {
		if _, ok := t.designs[crs.CourseDesignID]; !ok {
			return core.NewPersistenceError(errors.Errorf("course design %d does not exist", crs.CourseDesignID), "inserting course")
		}
		crs.ID = t.nextID()
		crs.Version = 1
		t.courses[crs.ID] = crs
		return nil
	})
	return crs, err
}

func (repo *courseRepository) GetCourse(ctx context.Context, id int) (crs course.Course, err error) {
	err = repo.db.read(ctx, func(t *tables) error {
		var ok bool
		if crs, ok = t.courses[id]; !ok {
			return notFound("course", id)
		}
		return nil
	})
	return crs, err
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter *course.QueryFilter, ordering []core.DBOrdering) ([]course.Course, error) {
	var courses []course.Course
	err := repo.db.read(ctx, func(t *tables) error {
		f, ids := courseFilter(filter)
		for _, c := range t.courses {
			if matches(c.ID, c.Name, f.Search, false, ids) {
				courses = append(courses, c)
			}
		}
		return nil
	})
	sortRows(courses, ordering, func(c course.Course) int { return c.ID }, func(c course.Course) string { return c.Name })
	return courses, err
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	crs.CourseDesign, crs.Dates = nil, nil
	err := repo.db.write(ctx, func(t *tables) error {
		cur, ok := t.courses[crs.ID]
		if !ok || cur.Version != crs.Version {
			return core.StaleUpdateError(ok, "course")
		}
		if _, ok = t.designs[crs.CourseDesignID]; !ok {
			return core.NewPersistenceError(errors.Errorf("course design %d does not exist", crs.CourseDesignID), "updating course")
		}
		crs.Version++
		t.courses[crs.ID] = crs
		return nil
	})
	return crs, err
}

// DeleteCoursesByID also deletes the dates of the courses.
func (repo *courseRepository) DeleteCoursesByID(ctx context.Context, ids ...int) error {
	return repo.db.write(ctx, func(t *tables) error {
		courses := idSet(ids)
		for _, id := range ids {
			delete(t.courses, id)
		}
		for id, d := range t.dates {
			if courses[d.CourseID] {
				delete(t.dates, id)
			}
		}
		return nil
	})
}

// Course Dates

func (repo *courseRepository) CreateCourseDate(ctx context.Context, date course.CourseDate) (course.CourseDate, error) {
	date.Venue = nil
	err := repo.db.write(ctx, func(t *tables) error {
		if err := t.checkDateRefs(date); err != nil {
			return core.NewPersistenceError(err, "inserting course date")
		}
		date.ID = t.nextID()
		date.Version = 1
		t.dates[date.ID] = date
		return nil
	})
	return date, err
}

func (repo *courseRepository) GetCourseDate(ctx context.Context, id int) (date course.CourseDate, err error) {
	err = repo.db.read(ctx, func(t *tables) error {
		var ok bool
		if date, ok = t.dates[id]; !ok {
			return notFound("course date", id)
		}
		return nil
	})
	return date, err
}

func (repo *courseRepository) QueryCourseDates(ctx context.Context, filter *course.DateFilter) ([]course.CourseDate, error) {
	var dates []course.CourseDate
	err := repo.db.read(ctx, func(t *tables) error {
		var courses, venues map[int]bool
		if filter != nil {
			courses, venues = idSet(filter.CourseIDs), idSet(filter.VenueIDs)
		}
		for _, d := range t.dates {
			if courses != nil && !courses[d.CourseID] {
				continue
			}
			if venues != nil && !venues[d.VenueID] {
				continue
			}
			dates = append(dates, d)
		}
		return nil
	})
	sort.Slice(dates, func(i, j int) bool {
		if !dates[i].Date.Equal(dates[j].Date) {
			return dates[i].Date.Before(dates[j].Date)
		}
		return dates[i].ID < dates[j].ID
	})
	return dates, err
}

func (repo *courseRepository) UpdateCourseDate(ctx context.Context, date course.CourseDate) (course.CourseDate, error) {
	date.Venue = nil
	err := repo.db.write(ctx, func(t *tables) error {
		cur, ok := t.dates[date.ID]
		if !ok || cur.Version != date.Version {
			return core.StaleUpdateError(ok, "course date")
		}
		if err := t.checkDateRefs(date); err != nil {
			return core.NewPersistenceError(err, "updating course date")
		}
		date.Version++
		t.dates[date.ID] = date
		return nil
	})
	return date, err
}

func (repo *courseRepository) DeleteCourseDatesByID(ctx context.Context, ids ...int) error {
	return repo.db.write(ctx, func(t *tables) error {
		for _, id := range ids {
			delete(t.dates, id)
		}
		return nil
	})
}

func (t *tables) checkDateRefs(date course.CourseDate) error {
	if _, ok := t.courses[date.CourseID]; !ok {
		return errors.Errorf("course %d does not exist", date.CourseID)
	}
	if _, ok := t.venues[date.VenueID]; !ok {
		return errors.Errorf("venue %d does not exist", date.VenueID)
	}
	return nil
}

// Venues

func (repo *courseRepository) CreateVenue(ctx context.Context, venue course.Venue) (course.Venue, error) {
	venue.Contact1, venue.Contact2 = nil, nil
	err := repo.db.write(ctx, func(t *tables) error {
		if err := t.checkVenueRefs(venue); err != nil {
			return core.NewPersistenceError(err, "inserting venue")
		}
		venue.ID = t.nextID()
		venue.Version = 1
		t.venues[venue.ID] = venue
		return nil
	})
	return venue, err
}

func (repo *courseRepository) GetVenue(ctx context.Context, id int) (venue course.Venue, err error) {
	err = repo.db.read(ctx, func(t *tables) error {
		var ok bool
		if venue, ok = t.venues[id]; !ok {
			return notFound("venue", id)
		}
		return nil
	})
	return venue, err
}

func (repo *courseRepository) QueryVenues(ctx context.Context, filter *course.QueryFilter, ordering []core.DBOrdering) ([]course.Venue, error) {
	var venues []course.Venue
	err := repo.db.read(ctx, func(t *tables) error {
		f, ids := courseFilter(filter)
		for _, v := range t.venues {
			if !matches(v.ID, v.Name, f.Search, false, ids) {
				continue
			}
			if f.ContactID != 0 && !containsID(v.ContactIDs(), f.ContactID) {
				continue
			}
			venues = append(venues, v)
		}
		return nil
	})
	sortRows(venues, ordering, func(v course.Venue) int { return v.ID }, func(v course.Venue) string { return v.Name })
	return venues, err
}

func (repo *courseRepository) UpdateVenue(ctx context.Context, venue course.Venue) (course.Venue, error) {
	venue.Contact1, venue.Contact2 = nil, nil
	err := repo.db.write(ctx, func(t *tables) error {
		cur, ok := t.venues[venue.ID]
		if !ok || cur.Version != venue.Version {
			return core.StaleUpdateError(ok, "venue")
		}
		if err := t.checkVenueRefs(venue); err != nil {
			return core.NewPersistenceError(err, "updating venue")
		}
		venue.Version++
		t.venues[venue.ID] = venue
		return nil
	})
	return venue, err
}

// DeleteVenuesByID also deletes the dates scheduled at the venues.
func (repo *courseRepository) DeleteVenuesByID(ctx context.Context, ids ...int) error {
	return repo.db.write(ctx, func(t *tables) error {
		venues := idSet(ids)
		for _, id := range ids {
			delete(t.venues, id)
		}
		for id, d := range t.dates {
			if venues[d.VenueID] {
				delete(t.dates, id)
			}
		}
		return nil
	})
}

func (t *tables) checkVenueRefs(venue course.Venue) error {
	for _, id := range venue.ContactIDs() {
		if _, ok := t.contacts[id]; !ok {
			return errors.Errorf("contact %d does not exist", id)
		}
	}
	return nil
}

// Contacts

func (repo *courseRepository) CreateContact(ctx context.Context, contact course.Contact) (course.Contact, error) {
	err := repo.db.write(ctx, func(t *tables) error {
		contact.ID = t.nextID()
		contact.Version = 1
		t.contacts[contact.ID] = contact
		return nil
	})
	return contact, err
}

func (repo *courseRepository) GetContact(ctx context.Context, id int) (contact course.Contact, err error) {
	err = repo.db.read(ctx, func(t *tables) error {
		var ok bool
		if contact, ok = t.contacts[id]; !ok {
			return notFound("contact", id)
		}
		return nil
	})
	return contact, err
}

func (repo *courseRepository) QueryContacts(ctx context.Context, filter *course.QueryFilter, ordering []core.DBOrdering) ([]course.Contact, error) {
	var contacts []course.Contact
	err := repo.db.read(ctx, func(t *tables) error {
		f, ids := courseFilter(filter)
		for _, c := range t.contacts {
			if matches(c.ID, c.Name, f.Search, false, ids) {
				contacts = append(contacts, c)
			}
		}
		return nil
	})
	sortRows(contacts, ordering, func(c course.Contact) int { return c.ID }, func(c course.Contact) string { return c.Name })
	return contacts, err
}

func (repo *courseRepository) UpdateContact(ctx context.Context, contact course.Contact) (course.Contact, error) {
	err := repo.db.write(ctx, func(t *tables) error {
		cur, ok := t.contacts[contact.ID]
		if !ok || cur.Version != contact.Version {
			return core.StaleUpdateError(ok, "contact")
		}
		contact.Version++
		t.contacts[contact.ID] = contact
		return nil
	})
	return contact, err
}

// DeleteContactsByID fails if a venue still references one of the contacts.
func (repo *courseRepository) DeleteContactsByID(ctx context.Context, ids ...int) error {
	return repo.db.write(ctx, func(t *tables) error {
		for _, v := range t.venues {
			for _, id := range ids {
				if containsID(v.ContactIDs(), id) {
					return core.NewPersistenceError(
						errors.Errorf("contact %d is referenced by venue %d", id, v.ID), "deleting contacts")
				}
			}
		}
		for _, id := range ids {
			delete(t.contacts, id)
		}
		return nil
	})
}

func containsID(ids []int, id int) bool {
	for _, i := range ids {
		if i == id {
			return true
		}
	}
	return false
}
