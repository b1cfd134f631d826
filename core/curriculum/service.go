package curriculum

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/kozi/core"
)

var (
	ErrUnknownChild   = errors.New("checklist references an unknown item")
	ErrForeignCopy    = errors.New("course copies can only be linked inside their own course")
	ErrUnlinkCopy     = errors.New("course copies can only be unlinked by deleting their course")
	ErrPrivateEntity  = errors.New("course copies can only be removed with their course")
	ErrNotTemplate    = errors.New("only template course designs can be copied")
	ErrEmptyCourseUID = errors.New("course uid is required")
)

type (
	// Repository is the persistence contract of the curriculum tables.
	// Get* return a wrapped core.ErrNotFound for missing rows.
	// Update* check the entity Version: a stale version yields core.ErrConflict (or core.ErrNotFound if the row is gone).
	// Every method joins the transaction carried by ctx, if any.
	Repository interface {
		CreateSubject(ctx context.Context, sub Subject) (Subject, error)
		GetSubject(ctx context.Context, id int) (Subject, error)
		QuerySubjects(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Subject, error)
		UpdateSubject(ctx context.Context, sub Subject) (Subject, error)
		DeleteSubjectsByID(ctx context.Context, ids ...int) error

		CreateDay(ctx context.Context, day Day) (Day, error)
		GetDay(ctx context.Context, id int) (Day, error)
		QueryDays(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Day, error)
		UpdateDay(ctx context.Context, day Day) (Day, error)
		DeleteDaysByID(ctx context.Context, ids ...int) error

		CreateSeminar(ctx context.Context, sem Seminar) (Seminar, error)
		GetSeminar(ctx context.Context, id int) (Seminar, error)
		QuerySeminars(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Seminar, error)
		UpdateSeminar(ctx context.Context, sem Seminar) (Seminar, error)
		DeleteSeminarsByID(ctx context.Context, ids ...int) error

		CreateCourseDesign(ctx context.Context, cd CourseDesign) (CourseDesign, error)
		GetCourseDesign(ctx context.Context, id int) (CourseDesign, error)
		QueryCourseDesigns(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]CourseDesign, error)
		UpdateCourseDesign(ctx context.Context, cd CourseDesign) (CourseDesign, error)
		DeleteCourseDesignsByID(ctx context.Context, ids ...int) error

		// QueryLinks returns the links of the given parents ordered by (ParentID, ChildID).
		QueryLinks(ctx context.Context, kind LinkKind, parentIDs ...int) ([]Link, error)
		// InsertLinks ignores links that already exist.
		InsertLinks(ctx context.Context, kind LinkKind, links ...Link) error
		DeleteLinks(ctx context.Context, kind LinkKind, links ...Link) error
	}

	Service struct {
		*Accessor
		repo   Repository
		tx     core.Transactor
		copier *Copier
	}
)

func NewService(repo Repository, tx core.Transactor) *Service {
	return &Service{
		Accessor: NewAccessor(repo),
		repo:     repo,
		tx:       tx,
		copier:   NewCopier(repo, tx),
	}
}

// Copier returns the copy engine bound to the service repository.
func (svc *Service) Copier() *Copier { return svc.copier }

// Subjects

func (svc *Service) CreateSubject(ctx context.Context, ns NewSubject) (Subject, error) {
	return svc.repo.CreateSubject(ctx, Subject{
		Name:            ns.Name,
		Description:     ns.Description,
		RequiredReading: ns.RequiredReading,
	})
}

// UpdateSubject keeps the course prefix of a namespaced subject.
func (svc *Service) UpdateSubject(ctx context.Context, id int, us UpdateSubject) (sub Subject, err error) {
	err = svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		cur, err := svc.repo.GetSubject(ctx, id)
		if err != nil {
			return err
		}
		sub, err = svc.repo.UpdateSubject(ctx, Subject{
			ID:              id,
			Name:            keepPrefix(cur.Name, us.Name),
			Description:     us.Description,
			RequiredReading: us.RequiredReading,
			Version:         us.Version,
		})
		return err
	})
	return sub, err
}

// DeleteSubject deletes a template subject. Namespaced copies are only removed with their course.
func (svc *Service) DeleteSubject(ctx context.Context, id int) error {
	return svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		sub, err := svc.repo.GetSubject(ctx, id)
		if err != nil {
			return err
		}
		if HasPrefix(sub.Name) {
			return errPrivate()
		}
		return svc.repo.DeleteSubjectsByID(ctx, id)
	})
}

// Days

func (svc *Service) CreateDay(ctx context.Context, nd NewDetails) (Day, error) {
	return svc.repo.CreateDay(ctx, Day{Name: nd.Name, Description: nd.Description})
}

func (svc *Service) UpdateDay(ctx context.Context, id int, ud UpdateDetails) (day Day, err error) {
	err = svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		cur, err := svc.repo.GetDay(ctx, id)
		if err != nil {
			return err
		}
		day, err = svc.repo.UpdateDay(ctx, Day{
			ID:          id,
			Name:        keepPrefix(cur.Name, ud.Name),
			Description: ud.Description,
			Version:     ud.Version,
		})
		return err
	})
	return day, err
}

func (svc *Service) DeleteDay(ctx context.Context, id int) error {
	return svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		day, err := svc.repo.GetDay(ctx, id)
		if err != nil {
			return err
		}
		if HasPrefix(day.Name) {
			return errPrivate()
		}
		return svc.repo.DeleteDaysByID(ctx, id)
	})
}

// SetDaySubjects reconciles the subjects of a day with the checklist.
func (svc *Service) SetDaySubjects(ctx context.Context, dayID int, checklist []CheckItem) (Day, error) {
	if err := svc.applyChecklist(ctx, DaySubjects, dayID, checklist); err != nil {
		return Day{}, err
	}
	return svc.GetDayTree(ctx, dayID)
}

// Seminars

func (svc *Service) CreateSeminar(ctx context.Context, nd NewDetails) (Seminar, error) {
	return svc.repo.CreateSeminar(ctx, Seminar{Name: nd.Name, Description: nd.Description})
}

func (svc *Service) UpdateSeminar(ctx context.Context, id int, ud UpdateDetails) (sem Seminar, err error) {
	err = svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		cur, err := svc.repo.GetSeminar(ctx, id)
		if err != nil {
			return err
		}
		sem, err = svc.repo.UpdateSeminar(ctx, Seminar{
			ID:          id,
			Name:        keepPrefix(cur.Name, ud.Name),
			Description: ud.Description,
			Version:     ud.Version,
		})
		return err
	})
	return sem, err
}

func (svc *Service) DeleteSeminar(ctx context.Context, id int) error {
	return svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		sem, err := svc.repo.GetSeminar(ctx, id)
		if err != nil {
			return err
		}
		if HasPrefix(sem.Name) {
			return errPrivate()
		}
		return svc.repo.DeleteSeminarsByID(ctx, id)
	})
}

// SetSeminarDays reconciles the days of a seminar with the checklist.
func (svc *Service) SetSeminarDays(ctx context.Context, seminarID int, checklist []CheckItem) (Seminar, error) {
	if err := svc.applyChecklist(ctx, SeminarDays, seminarID, checklist); err != nil {
		return Seminar{}, err
	}
	return svc.GetSeminarTree(ctx, seminarID)
}

// Course Designs

func (svc *Service) CreateCourseDesign(ctx context.Context, nd NewDetails) (CourseDesign, error) {
	return svc.repo.CreateCourseDesign(ctx, CourseDesign{Name: nd.Name, Description: nd.Description})
}

func (svc *Service) UpdateCourseDesign(ctx context.Context, id int, ud UpdateDetails) (cd CourseDesign, err error) {
	err = svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		cur, err := svc.repo.GetCourseDesign(ctx, id)
		if err != nil {
			return err
		}
		cd, err = svc.repo.UpdateCourseDesign(ctx, CourseDesign{
			ID:          id,
			Name:        keepPrefix(cur.Name, ud.Name),
			Description: ud.Description,
			Version:     ud.Version,
		})
		return err
	})
	return cd, err
}

// DeleteCourseDesign deletes a template design. A course-private design goes away with its course.
func (svc *Service) DeleteCourseDesign(ctx context.Context, id int) error {
	return svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		cd, err := svc.repo.GetCourseDesign(ctx, id)
		if err != nil {
			return err
		}
		if !cd.IsTemplate() {
			return errPrivate()
		}
		return svc.repo.DeleteCourseDesignsByID(ctx, id)
	})
}

// SetCourseDesignSeminars reconciles the seminars of a course design with the checklist.
func (svc *Service) SetCourseDesignSeminars(ctx context.Context, designID int, checklist []CheckItem) (CourseDesign, error) {
	if err := svc.applyChecklist(ctx, CourseSeminars, designID, checklist); err != nil {
		return CourseDesign{}, err
	}
	return svc.GetCourseDesignTree(ctx, designID)
}

// Checklist returns the candidate children of the parent flagged with their current selection:
// every template child plus the children already linked (which may be namespaced copies).
func (svc *Service) Checklist(ctx context.Context, kind LinkKind, parentID int) ([]ChecklistEntry, error) {
	if _, err := svc.checkParent(ctx, kind, parentID); err != nil {
		return nil, err
	}
	links, err := svc.repo.QueryLinks(ctx, kind, parentID)
	if err != nil {
		return nil, err
	}
	selected := make(map[int]bool, len(links))
	linkedIDs := make([]int, 0, len(links))
	for _, l := range links {
		selected[l.ChildID] = true
		linkedIDs = append(linkedIDs, l.ChildID)
	}

	var entries []ChecklistEntry
	added := make(map[int]bool)
	add := func(id int, name string) {
		if added[id] {
			return
		}
		added[id] = true
		entries = append(entries, ChecklistEntry{CheckItem: CheckItem{ID: id, Selected: selected[id]}, Name: name})
	}
	filters := []*QueryFilter{{TemplatesOnly: true}}
	if len(linkedIDs) > 0 {
		filters = append(filters, &QueryFilter{IDs: linkedIDs})
	}
	for _, filter := range filters {
		if err = svc.checklistCandidates(ctx, kind, filter, add); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func (svc *Service) checklistCandidates(ctx context.Context, kind LinkKind, filter *QueryFilter, add func(int, string)) error {
	switch kind {
	case DaySubjects:
		subs, err := svc.repo.QuerySubjects(ctx, filter, nil)
		if err != nil {
			return err
		}
		for _, s := range subs {
			add(s.ID, s.Name)
		}
	case SeminarDays:
		days, err := svc.repo.QueryDays(ctx, filter, nil)
		if err != nil {
			return err
		}
		for _, d := range days {
			add(d.ID, d.Name)
		}
	case CourseSeminars:
		sems, err := svc.repo.QuerySeminars(ctx, filter, nil)
		if err != nil {
			return err
		}
		for _, s := range sems {
			add(s.ID, s.Name)
		}
	}
	return nil
}

// applyChecklist reconciles the links of the parent inside one transaction.
// Selected children must be templates or copies owned by the parent's course,
// and copies owned by the parent's course cannot be unselected.
func (svc *Service) applyChecklist(ctx context.Context, kind LinkKind, parentID int, checklist []CheckItem) error {
	return svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		parentName, err := svc.checkParent(ctx, kind, parentID)
		if err != nil {
			return err
		}
		uid, _ := StripPrefix(parentName)
		if err = svc.checkChildren(ctx, kind, uid, checklist); err != nil {
			return err
		}
		existing, err := svc.repo.QueryLinks(ctx, kind, parentID)
		if err != nil {
			return err
		}
		toInsert, toDelete := Reconcile(existing, checklist, parentID)
		if len(toDelete) > 0 {
			if err = svc.checkUnlinks(ctx, kind, uid, toDelete); err != nil {
				return err
			}
			if err = svc.repo.DeleteLinks(ctx, kind, toDelete...); err != nil {
				return err
			}
		}
		if len(toInsert) > 0 {
			if err = svc.repo.InsertLinks(ctx, kind, toInsert...); err != nil {
				return err
			}
		}
		return nil
	})
}

// checkParent returns the name of the parent.
func (svc *Service) checkParent(ctx context.Context, kind LinkKind, parentID int) (string, error) {
	switch kind {
	case DaySubjects:
		day, err := svc.repo.GetDay(ctx, parentID)
		return day.Name, err
	case SeminarDays:
		sem, err := svc.repo.GetSeminar(ctx, parentID)
		return sem.Name, err
	case CourseSeminars:
		cd, err := svc.repo.GetCourseDesign(ctx, parentID)
		return cd.Name, err
	default:
		return "", errors.Errorf("unknown link kind %d", kind)
	}
}

// checkChildren rejects selected ids that do not exist or that are copies owned by another course than uid.
// An empty uid is a template parent: it accepts templates only.
func (svc *Service) checkChildren(ctx context.Context, kind LinkKind, uid string, checklist []CheckItem) error {
	ids := make([]int, 0, len(checklist))
	for _, item := range checklist {
		if item.Selected {
			ids = append(ids, item.ID)
		}
	}
	ids = core.UniqueInts(ids)
	if len(ids) == 0 {
		return nil
	}

	names, err := svc.childNames(ctx, kind, ids)
	if err != nil {
		return err
	}
	if len(names) != len(ids) {
		return checklistError(ErrUnknownChild)
	}
	for _, name := range names {
		if prefix, _ := StripPrefix(name); prefix != "" && prefix != uid {
			return checklistError(ErrForeignCopy)
		}
	}
	return nil
}

// checkUnlinks rejects the removal of copies owned by the course uid, which would orphan them.
func (svc *Service) checkUnlinks(ctx context.Context, kind LinkKind, uid string, links []Link) error {
	if uid == "" {
		return nil
	}
	ids := make([]int, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.ChildID)
	}
	names, err := svc.childNames(ctx, kind, ids)
	if err != nil {
		return err
	}
	for _, name := range names {
		if HasUID(name, uid) {
			return checklistError(ErrUnlinkCopy)
		}
	}
	return nil
}

// childNames returns the names of the existing children among ids.
func (svc *Service) childNames(ctx context.Context, kind LinkKind, ids []int) (map[int]string, error) {
	names := make(map[int]string, len(ids))
	filter := &QueryFilter{IDs: ids}
	switch kind {
	case DaySubjects:
		subs, err := svc.repo.QuerySubjects(ctx, filter, nil)
		if err != nil {
			return nil, err
		}
		for _, sub := range subs {
			names[sub.ID] = sub.Name
		}
	case SeminarDays:
		days, err := svc.repo.QueryDays(ctx, filter, nil)
		if err != nil {
			return nil, err
		}
		for _, day := range days {
			names[day.ID] = day.Name
		}
	case CourseSeminars:
		sems, err := svc.repo.QuerySeminars(ctx, filter, nil)
		if err != nil {
			return nil, err
		}
		for _, sem := range sems {
			names[sem.ID] = sem.Name
		}
	}
	return names, nil
}

func checklistError(err error) error {
	return core.NewValidationError(err, core.FieldError{Field: "checklist", Error: err.Error()})
}

func keepPrefix(current, name string) string {
	if prefix, _ := StripPrefix(current); prefix != "" {
		return WithPrefix(name, prefix)
	}
	return name
}

func errPrivate() error {
	return core.NewValidationError(ErrPrivateEntity, core.FieldError{Field: "name", Error: ErrPrivateEntity.Error()})
}
