package course

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/kozi/core"
	"github.com/trezcool/kozi/core/curriculum"
)

var (
	ErrCourseNotPersisted = errors.New("course must be saved before its design is copied")
	ErrUnknownVenue       = errors.New("venue does not exist")
	ErrUnknownContact     = errors.New("contact does not exist")
	ErrContactInUse       = errors.New("contact is referenced by a venue")
)

type (
	// Repository is the persistence contract of the course, date, venue and contact tables.
	// It follows the same conventions as curriculum.Repository.
	Repository interface {
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		GetCourse(ctx context.Context, id int) (Course, error)
		QueryCourses(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error)
		UpdateCourse(ctx context.Context, crs Course) (Course, error)
		DeleteCoursesByID(ctx context.Context, ids ...int) error

		CreateCourseDate(ctx context.Context, date CourseDate) (CourseDate, error)
		GetCourseDate(ctx context.Context, id int) (CourseDate, error)
		// QueryCourseDates returns dates ordered by Date, then ID.
		QueryCourseDates(ctx context.Context, filter *DateFilter) ([]CourseDate, error)
		UpdateCourseDate(ctx context.Context, date CourseDate) (CourseDate, error)
		DeleteCourseDatesByID(ctx context.Context, ids ...int) error

		CreateVenue(ctx context.Context, venue Venue) (Venue, error)
		GetVenue(ctx context.Context, id int) (Venue, error)
		QueryVenues(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Venue, error)
		UpdateVenue(ctx context.Context, venue Venue) (Venue, error)
		DeleteVenuesByID(ctx context.Context, ids ...int) error

		CreateContact(ctx context.Context, contact Contact) (Contact, error)
		GetContact(ctx context.Context, id int) (Contact, error)
		QueryContacts(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Contact, error)
		UpdateContact(ctx context.Context, contact Contact) (Contact, error)
		DeleteContactsByID(ctx context.Context, ids ...int) error
	}

	Service struct {
		repo     Repository
		designs  curriculum.Repository
		accessor *curriculum.Accessor
		copier   *curriculum.Copier
		tx       core.Transactor
		notifier *Notifier
	}
)

// NewService returns the course service. notifier may be nil to disable reservation notices.
func NewService(repo Repository, designs curriculum.Repository, tx core.Transactor, notifier *Notifier) *Service {
	return &Service{
		repo:     repo,
		designs:  designs,
		accessor: curriculum.NewAccessor(designs),
		copier:   curriculum.NewCopier(designs, tx),
		tx:       tx,
		notifier: notifier,
	}
}

// Create saves the course, copies its template design and points the course at the copy, in one transaction.
func (svc *Service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	var crs Course
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := svc.designs.GetCourseDesign(ctx, nc.CourseDesignID); err != nil {
			return err
		}

		var err error
		crs, err = svc.repo.CreateCourse(ctx, Course{
			Name:           nc.Name,
			Description:    nc.Description,
			MaxStudents:    nc.MaxStudents,
			CourseDesignID: nc.CourseDesignID,
		})
		if err != nil {
			return err
		}
		crs, err = svc.copyDesignForCourse(ctx, nc.CourseDesignID, crs)
		return err
	})
	if err != nil {
		return Course{}, err
	}
	return svc.GetTree(ctx, crs.ID)
}

// copyDesignForCourse copies the template for the saved course and rewires the course to the copy.
func (svc *Service) copyDesignForCourse(ctx context.Context, templateID int, crs Course) (Course, error) {
	if crs.ID == 0 {
		return Course{}, ErrCourseNotPersisted
	}
	cd, err := svc.copier.CopyDesign(ctx, templateID, curriculum.CourseUID(crs.Name, crs.ID))
	if err != nil {
		return Course{}, err
	}
	crs.CourseDesignID = cd.ID
	crs, err = svc.repo.UpdateCourse(ctx, crs)
	if err != nil {
		return Course{}, err
	}
	crs.CourseDesign = &cd
	return crs, nil
}

// ReplaceDesign drops the private design of the course and gives it a fresh copy of the template.
func (svc *Service) ReplaceDesign(ctx context.Context, courseID, templateID int) (Course, error) {
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		crs, err := svc.repo.GetCourse(ctx, courseID)
		if err != nil {
			return err
		}
		old, err := svc.accessor.GetCourseDesignTree(ctx, crs.CourseDesignID)
		if err != nil && !core.IsNotFound(err) {
			return err
		}
		if _, err = svc.copyDesignForCourse(ctx, templateID, crs); err != nil {
			return err
		}
		return svc.deletePrivateDesign(ctx, old)
	})
	if err != nil {
		return Course{}, err
	}
	return svc.GetTree(ctx, courseID)
}

func (svc *Service) Get(ctx context.Context, id int) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

// GetTree returns the course with its design tree and its dates (with venues).
func (svc *Service) GetTree(ctx context.Context, id int) (Course, error) {
	crs, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return Course{}, err
	}
	cd, err := svc.accessor.GetCourseDesignTree(ctx, crs.CourseDesignID)
	if err != nil {
		return Course{}, err
	}
	crs.CourseDesign = &cd

	if crs.Dates, err = svc.QueryDates(ctx, crs.ID); err != nil {
		return Course{}, err
	}
	return crs, nil
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, filter, ordering)
}

func (svc *Service) Update(ctx context.Context, id int, uc UpdateCourse) (crs Course, err error) {
	err = svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		cur, err := svc.repo.GetCourse(ctx, id)
		if err != nil {
			return err
		}
		crs, err = svc.repo.UpdateCourse(ctx, Course{
			ID:             id,
			Name:           uc.Name,
			Description:    uc.Description,
			MaxStudents:    uc.MaxStudents,
			CourseDesignID: cur.CourseDesignID,
			Version:        uc.Version,
		})
		return err
	})
	return crs, err
}

// Delete removes the course, its dates and its private design tree.
// Template entities linked into the private tree are kept.
func (svc *Service) Delete(ctx context.Context, id int) error {
	return svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		crs, err := svc.repo.GetCourse(ctx, id)
		if err != nil {
			return err
		}
		cd, err := svc.accessor.GetCourseDesignTree(ctx, crs.CourseDesignID)
		if err != nil && !core.IsNotFound(err) {
			return err
		}

		dates, err := svc.repo.QueryCourseDates(ctx, &DateFilter{CourseIDs: []int{id}})
		if err != nil {
			return err
		}
		if len(dates) > 0 {
			if err = svc.repo.DeleteCourseDatesByID(ctx, dateIDs(dates)...); err != nil {
				return err
			}
		}
		if err = svc.repo.DeleteCoursesByID(ctx, id); err != nil {
			return err
		}
		return svc.deletePrivateDesign(ctx, cd)
	})
}

// deletePrivateDesign deletes the entities of the tree carrying the prefix of its root.
// Nothing is deleted for a template root.
func (svc *Service) deletePrivateDesign(ctx context.Context, cd curriculum.CourseDesign) error {
	uid, _ := curriculum.StripPrefix(cd.Name)
	if cd.ID == 0 || uid == "" {
		return nil
	}

	var semIDs, dayIDs, subIDs []int
	for _, sem := range cd.Seminars {
		if curriculum.HasUID(sem.Name, uid) {
			semIDs = append(semIDs, sem.ID)
		}
		for _, day := range sem.Days {
			if curriculum.HasUID(day.Name, uid) {
				dayIDs = append(dayIDs, day.ID)
			}
			for _, sub := range day.Subjects {
				if curriculum.HasUID(sub.Name, uid) {
					subIDs = append(subIDs, sub.ID)
				}
			}
		}
	}

	if err := svc.designs.DeleteCourseDesignsByID(ctx, cd.ID); err != nil {
		return err
	}
	if len(semIDs) > 0 {
		if err := svc.designs.DeleteSeminarsByID(ctx, core.UniqueInts(semIDs)...); err != nil {
			return err
		}
	}
	if len(dayIDs) > 0 {
		if err := svc.designs.DeleteDaysByID(ctx, core.UniqueInts(dayIDs)...); err != nil {
			return err
		}
	}
	if len(subIDs) > 0 {
		if err := svc.designs.DeleteSubjectsByID(ctx, core.UniqueInts(subIDs)...); err != nil {
			return err
		}
	}
	return nil
}

func dateIDs(dates []CourseDate) []int {
	ids := make([]int, 0, len(dates))
	for _, d := range dates {
		ids = append(ids, d.ID)
	}
	return ids
}
