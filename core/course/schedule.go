package course

import (
	"context"

	"github.com/trezcool/kozi/core"
)

// Course Dates

// CreateDate schedules the course at a venue and notifies the venue.
func (svc *Service) CreateDate(ctx context.Context, courseID int, nd NewCourseDate) (CourseDate, error) {
	var (
		crs  Course
		date CourseDate
	)
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if crs, err = svc.repo.GetCourse(ctx, courseID); err != nil {
			return err
		}
		if err = svc.checkVenue(ctx, nd.VenueID); err != nil {
			return err
		}
		date, err = svc.repo.CreateCourseDate(ctx, CourseDate{
			CourseID:        courseID,
			VenueID:         nd.VenueID,
			Date:            nd.Date,
			EndTime:         nd.EndTime,
			ReservationInfo: nd.ReservationInfo,
			Rider:           nd.Rider,
		})
		return err
	})
	if err != nil {
		return CourseDate{}, err
	}

	if date, err = svc.withVenue(ctx, date); err != nil {
		return CourseDate{}, err
	}
	if svc.notifier != nil {
		svc.notifier.NotifyReservation(crs, date)
	}
	return date, nil
}

// GetDate returns the date with its venue and the venue contacts.
func (svc *Service) GetDate(ctx context.Context, id int) (CourseDate, error) {
	date, err := svc.repo.GetCourseDate(ctx, id)
	if err != nil {
		return CourseDate{}, err
	}
	return svc.withVenue(ctx, date)
}

// QueryDates returns the dates of the course with their venues.
func (svc *Service) QueryDates(ctx context.Context, courseID int) ([]CourseDate, error) {
	dates, err := svc.repo.QueryCourseDates(ctx, &DateFilter{CourseIDs: []int{courseID}})
	if err != nil {
		return nil, err
	}
	if len(dates) == 0 {
		return dates, nil
	}

	venueIDs := make([]int, 0, len(dates))
	for _, d := range dates {
		venueIDs = append(venueIDs, d.VenueID)
	}
	venues, err := svc.repo.QueryVenues(ctx, &QueryFilter{IDs: core.UniqueInts(venueIDs)}, nil)
	if err != nil {
		return nil, err
	}
	byID := make(map[int]Venue, len(venues))
	for _, v := range venues {
		byID[v.ID] = v
	}
	for i := range dates {
		if v, ok := byID[dates[i].VenueID]; ok {
			v := v
			dates[i].Venue = &v
		}
	}
	return dates, nil
}

func (svc *Service) UpdateDate(ctx context.Context, id int, ud UpdateCourseDate) (date CourseDate, err error) {
	err = svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		cur, err := svc.repo.GetCourseDate(ctx, id)
		if err != nil {
			return err
		}
		if err = svc.checkVenue(ctx, ud.VenueID); err != nil {
			return err
		}
		date, err = svc.repo.UpdateCourseDate(ctx, CourseDate{
			ID:              id,
			CourseID:        cur.CourseID,
			VenueID:         ud.VenueID,
			Date:            ud.Date,
			EndTime:         ud.EndTime,
			ReservationInfo: ud.ReservationInfo,
			Rider:           ud.Rider,
			Version:         ud.Version,
		})
		return err
	})
	if err != nil {
		return CourseDate{}, err
	}
	return svc.withVenue(ctx, date)
}

func (svc *Service) DeleteDate(ctx context.Context, id int) error {
	return svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := svc.repo.GetCourseDate(ctx, id); err != nil {
			return err
		}
		return svc.repo.DeleteCourseDatesByID(ctx, id)
	})
}

func (svc *Service) checkVenue(ctx context.Context, venueID int) error {
	if _, err := svc.repo.GetVenue(ctx, venueID); err != nil {
		if core.IsNotFound(err) {
			return core.NewValidationError(ErrUnknownVenue, core.FieldError{Field: "venue_id", Error: ErrUnknownVenue.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) withVenue(ctx context.Context, date CourseDate) (CourseDate, error) {
	venue, err := svc.GetVenue(ctx, date.VenueID)
	if err != nil {
		return CourseDate{}, err
	}
	date.Venue = &venue
	return date, nil
}

// Venues

func (svc *Service) CreateVenue(ctx context.Context, nv NewVenue) (venue Venue, err error) {
	err = svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := svc.checkContacts(ctx, nv.Contact1ID, nv.Contact2ID); err != nil {
			return err
		}
		venue, err = svc.repo.CreateVenue(ctx, venueFrom(nv))
		return err
	})
	return venue, err
}

// GetVenue returns the venue with its contacts.
func (svc *Service) GetVenue(ctx context.Context, id int) (Venue, error) {
	venue, err := svc.repo.GetVenue(ctx, id)
	if err != nil {
		return Venue{}, err
	}
	ids := venue.ContactIDs()
	if len(ids) == 0 {
		return venue, nil
	}
	contacts, err := svc.repo.QueryContacts(ctx, &QueryFilter{IDs: ids}, nil)
	if err != nil {
		return Venue{}, err
	}
	for i := range contacts {
		c := &contacts[i]
		if venue.Contact1ID != nil && *venue.Contact1ID == c.ID {
			venue.Contact1 = c
		}
		if venue.Contact2ID != nil && *venue.Contact2ID == c.ID {
			venue.Contact2 = c
		}
	}
	return venue, nil
}

func (svc *Service) QueryVenues(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Venue, error) {
	return svc.repo.QueryVenues(ctx, filter, ordering)
}

func (svc *Service) UpdateVenue(ctx context.Context, id int, uv UpdateVenue) (venue Venue, err error) {
	err = svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := svc.repo.GetVenue(ctx, id); err != nil {
			return err
		}
		if err := svc.checkContacts(ctx, uv.Contact1ID, uv.Contact2ID); err != nil {
			return err
		}
		v := venueFrom(uv.NewVenue)
		v.ID = id
		v.Version = uv.Version
		venue, err = svc.repo.UpdateVenue(ctx, v)
		return err
	})
	return venue, err
}

// DeleteVenue removes the venue and the course dates scheduled there.
func (svc *Service) DeleteVenue(ctx context.Context, id int) error {
	return svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := svc.repo.GetVenue(ctx, id); err != nil {
			return err
		}
		dates, err := svc.repo.QueryCourseDates(ctx, &DateFilter{VenueIDs: []int{id}})
		if err != nil {
			return err
		}
		if len(dates) > 0 {
			if err = svc.repo.DeleteCourseDatesByID(ctx, dateIDs(dates)...); err != nil {
				return err
			}
		}
		return svc.repo.DeleteVenuesByID(ctx, id)
	})
}

func (svc *Service) checkContacts(ctx context.Context, ids ...*int) error {
	for i, id := range ids {
		if id == nil {
			continue
		}
		if _, err := svc.repo.GetContact(ctx, *id); err != nil {
			if core.IsNotFound(err) {
				field := "contact1_id"
				if i == 1 {
					field = "contact2_id"
				}
				return core.NewValidationError(ErrUnknownContact, core.FieldError{Field: field, Error: ErrUnknownContact.Error()})
			}
			return err
		}
	}
	return nil
}

func venueFrom(nv NewVenue) Venue {
	return Venue{
		Name:       nv.Name,
		Info:       nv.Info,
		Email1:     nv.Email1,
		Email2:     nv.Email2,
		Phone:      nv.Phone,
		Address:    nv.Address,
		MapsURL:    nv.MapsURL,
		Contact1ID: nv.Contact1ID,
		Contact2ID: nv.Contact2ID,
	}
}

// Contacts

func (svc *Service) CreateContact(ctx context.Context, nc NewContact) (Contact, error) {
	return svc.repo.CreateContact(ctx, Contact{Name: nc.Name, Email: nc.Email, Phone: nc.Phone, Address: nc.Address})
}

func (svc *Service) GetContact(ctx context.Context, id int) (Contact, error) {
	return svc.repo.GetContact(ctx, id)
}

func (svc *Service) QueryContacts(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Contact, error) {
	return svc.repo.QueryContacts(ctx, filter, ordering)
}

func (svc *Service) UpdateContact(ctx context.Context, id int, uc UpdateContact) (Contact, error) {
	return svc.repo.UpdateContact(ctx, Contact{
		ID:      id,
		Name:    uc.Name,
		Email:   uc.Email,
		Phone:   uc.Phone,
		Address: uc.Address,
		Version: uc.Version,
	})
}

// DeleteContact refuses to delete a contact still referenced by a venue.
func (svc *Service) DeleteContact(ctx context.Context, id int) error {
	return svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := svc.repo.GetContact(ctx, id); err != nil {
			return err
		}
		venues, err := svc.repo.QueryVenues(ctx, &QueryFilter{ContactID: id}, nil)
		if err != nil {
			return err
		}
		if len(venues) > 0 {
			return core.NewValidationError(ErrContactInUse, core.FieldError{Field: "id", Error: ErrContactInUse.Error()})
		}
		return svc.repo.DeleteContactsByID(ctx, id)
	})
}
