package inmemdb

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/kozi/core"
	"github.com/trezcool/kozi/core/curriculum"
)

type curriculumRepository struct {
	db *DB
}

var _ curriculum.Repository = (*curriculumRepository)(nil) // interface compliance check

func NewCurriculumRepository(db *DB) curriculum.Repository {
	return &curriculumRepository{db: db}
}

func notFound(entity string, id int) error {
	return errors.Wrapf(core.ErrNotFound, "%s %d", entity, id)
}

// Subjects

func (repo *curriculumRepository) CreateSubject(ctx context.Context, sub curriculum.Subject) (curriculum.Subject, error) {
	err := repo.db.write(ctx, func(t *tables) error {
		sub.ID = t.nextID()
		sub.Version = 1
		t.subjects[sub.ID] = sub
		return nil
	})
	return sub, err
}

func (repo *curriculumRepository) GetSubject(ctx context.Context, id int) (sub curriculum.Subject, err error) {
	err = repo.db.read(ctx, func(t *tables) error {
		var ok bool
		if sub, ok = t.subjects[id]; !ok {
			return notFound("subject", id)
		}
		return nil
	})
	return sub, err
}

func (repo *curriculumRepository) QuerySubjects(ctx context.Context, filter *curriculum.QueryFilter, ordering []core.DBOrdering) ([]curriculum.Subject, error) {
	var subs []curriculum.Subject
	err := repo.db.read(ctx, func(t *tables) error {
		f, ids := normFilter(filter)
		for _, s := range t.subjects {
			if matches(s.ID, s.Name, f.Search, f.TemplatesOnly, ids) {
				subs = append(subs, s)
			}
		}
		return nil
	})
	sortRows(subs, ordering, func(s curriculum.Subject) int { return s.ID }, func(s curriculum.Subject) string { return s.Name })
	return subs, err
}

func (repo *curriculumRepository) UpdateSubject(ctx context.Context, sub curriculum.Subject) (curriculum.Subject, error) {
	err := repo.db.write(ctx, func(t *tables) error {
		cur, ok := t.subjects[sub.ID]
		if !ok || cur.Version != sub.Version {
			return core.StaleUpdateError(ok, "subject")
		}
		sub.Version++
		t.subjects[sub.ID] = sub
		return nil
	})
	return sub, err
}

func (repo *curriculumRepository) DeleteSubjectsByID(ctx context.Context, ids ...int) error {
	return repo.db.write(ctx, func(t *tables) error {
		for _, id := range ids {
			delete(t.subjects, id)
			t.unlinkChild(curriculum.DaySubjects, id)
		}
		return nil
	})
}

// Days

func (repo *curriculumRepository) CreateDay(ctx context.Context, day curriculum.Day) (curriculum.Day, error) {
	day.Subjects = nil
	err := repo.db.write(ctx, func(t *tables) error {
		day.ID = t.nextID()
		day.Version = 1
		t.days[day.ID] = day
		return nil
	})
	return day, err
}

func (repo *curriculumRepository) GetDay(ctx context.Context, id int) (day curriculum.Day, err error) {
	err = repo.db.read(ctx, func(t *tables) error {
		var ok bool
		if day, ok = t.days[id]; !ok {
			return notFound("day", id)
		}
		return nil
	})
	return day, err
}

func (repo *curriculumRepository) QueryDays(ctx context.Context, filter *curriculum.QueryFilter, ordering []core.DBOrdering) ([]curriculum.Day, error) {
	var days []curriculum.Day
	err := repo.db.read(ctx, func(t *tables) error {
		f, ids := normFilter(filter)
		for _, d := range t.days {
			if matches(d.ID, d.Name, f.Search, f.TemplatesOnly, ids) {
				days = append(days, d)
			}
		}
		return nil
	})
	sortRows(days, ordering, func(d curriculum.Day) int { return d.ID }, func(d curriculum.Day) string { return d.Name })
	return days, err
}

func (repo *curriculumRepository) UpdateDay(ctx context.Context, day curriculum.Day) (curriculum.Day, error) {
	day.Subjects = nil
	err := repo.db.write(ctx, func(t *tables) error {
		cur, ok := t.days[day.ID]
		if !ok || cur.Version != day.Version {
			return core.StaleUpdateError(ok, "day")
		}
		day.Version++
		t.days[day.ID] = day
		return nil
	})
	return day, err
}

func (repo *curriculumRepository) DeleteDaysByID(ctx context.Context, ids ...int) error {
	return repo.db.write(ctx, func(t *tables) error {
		for _, id := range ids {
			delete(t.days, id)
			t.unlinkParent(curriculum.DaySubjects, id)
			t.unlinkChild(curriculum.SeminarDays, id)
		}
		return nil
	})
}

// Seminars

func (repo *curriculumRepository) CreateSeminar(ctx context.Context, sem curriculum.Seminar) (curriculum.Seminar, error) {
	sem.Days = nil
	err := repo.db.write(ctx, func(t *tables) error {
		sem.ID = t.nextID()
		sem.Version = 1
		t.seminars[sem.ID] = sem
		return nil
	})
	return sem, err
}

func (repo *curriculumRepository) GetSeminar(ctx context.Context, id int) (sem curriculum.Seminar, err error) {
	err = repo.db.read(ctx, func(t *tables) error {
		var ok bool
		if sem, ok = t.seminars[id]; !ok {
			return notFound("seminar", id)
		}
		return nil
	})
	return sem, err
}

func (repo *curriculumRepository) QuerySeminars(ctx context.Context, filter *curriculum.QueryFilter, ordering []core.DBOrdering) ([]curriculum.Seminar, error) {
	var sems []curriculum.Seminar
	err := repo.db.read(ctx, func(t *tables) error {
		f, ids := normFilter(filter)
		for _, s := range t.seminars {
			if matches(s.ID, s.Name, f.Search, f.TemplatesOnly, ids) {
				sems = append(sems, s)
			}
		}
		return nil
	})
	sortRows(sems, ordering, func(s curriculum.Seminar) int { return s.ID }, func(s curriculum.Seminar) string { return s.Name })
	return sems, err
}

func (repo *curriculumRepository) UpdateSeminar(ctx context.Context, sem curriculum.Seminar) (curriculum.Seminar, error) {
	sem.Days = nil
	err := repo.db.write(ctx, func(t *tables) error {
		cur, ok := t.seminars[sem.ID]
		if !ok || cur.Version != sem.Version {
			return core.StaleUpdateError(ok, "seminar")
		}
		sem.Version++
		t.seminars[sem.ID] = sem
		return nil
	})
	return sem, err
}

func (repo *curriculumRepository) DeleteSeminarsByID(ctx context.Context, ids ...int) error {
	return repo.db.write(ctx, func(t *tables) error {
		for _, id := range ids {
			delete(t.seminars, id)
			t.unlinkParent(curriculum.SeminarDays, id)
			t.unlinkChild(curriculum.CourseSeminars, id)
		}
		return nil
	})
}

// Course Designs

func (repo *curriculumRepository) CreateCourseDesign(ctx context.Context, cd curriculum.CourseDesign) (curriculum.CourseDesign, error) {
	cd.Seminars = nil
	err := repo.db.write(ctx, func(t *tables) error {
		cd.ID = t.nextID()
		cd.Version = 1
		t.designs[cd.ID] = cd
		return nil
	})
	return cd, err
}

func (repo *curriculumRepository) GetCourseDesign(ctx context.Context, id int) (cd curriculum.CourseDesign, err error) {
	err = repo.db.read(ctx, func(t *tables) error {
		var ok bool
		if cd, ok = t.designs[id]; !ok {
			return notFound("course design", id)
		}
		return nil
	})
	return cd, err
}

func (repo *curriculumRepository) QueryCourseDesigns(ctx context.Context, filter *curriculum.QueryFilter, ordering []core.DBOrdering) ([]curriculum.CourseDesign, error) {
	var cds []curriculum.CourseDesign
	err := repo.db.read(ctx, func(t *tables) error {
		f, ids := normFilter(filter)
		for _, cd := range t.designs {
			if matches(cd.ID, cd.Name, f.Search, f.TemplatesOnly, ids) {
				cds = append(cds, cd)
			}
		}
		return nil
	})
	sortRows(cds, ordering, func(cd curriculum.CourseDesign) int { return cd.ID }, func(cd curriculum.CourseDesign) string { return cd.Name })
	return cds, err
}

func (repo *curriculumRepository) UpdateCourseDesign(ctx context.Context, cd curriculum.CourseDesign) (curriculum.CourseDesign, error) {
	cd.Seminars = nil
	err := repo.db.write(ctx, func(t *tables) error {
		cur, ok := t.designs[cd.ID]
		if !ok || cur.Version != cd.Version {
			return core.StaleUpdateError(ok, "course design")
		}
		cd.Version++
		t.designs[cd.ID] = cd
		return nil
	})
	return cd, err
}

// DeleteCourseDesignsByID fails if a course still uses one of the designs.
func (repo *curriculumRepository) DeleteCourseDesignsByID(ctx context.Context, ids ...int) error {
	return repo.db.write(ctx, func(t *tables) error {
		for _, id := range ids {
			for _, crs := range t.courses {
				if crs.CourseDesignID == id {
					return core.NewPersistenceError(
						errors.Errorf("course design %d is referenced by course %d", id, crs.ID), "deleting course designs")
				}
			}
		}
		for _, id := range ids {
			delete(t.designs, id)
			t.unlinkParent(curriculum.CourseSeminars, id)
		}
		return nil
	})
}

// Links

func (repo *curriculumRepository) QueryLinks(ctx context.Context, kind curriculum.LinkKind, parentIDs ...int) ([]curriculum.Link, error) {
	var links []curriculum.Link
	err := repo.db.read(ctx, func(t *tables) error {
		table, ok := t.links[kind]
		if !ok {
			return errors.Errorf("unknown link kind %d", kind)
		}
		parents := idSet(parentIDs)
		for l := range table {
			if parents[l.ParentID] {
				links = append(links, l)
			}
		}
		return nil
	})
	sort.Slice(links, func(i, j int) bool {
		if links[i].ParentID != links[j].ParentID {
			return links[i].ParentID < links[j].ParentID
		}
		return links[i].ChildID < links[j].ChildID
	})
	return links, err
}

// InsertLinks fails if a parent or a child does not exist.
func (repo *curriculumRepository) InsertLinks(ctx context.Context, kind curriculum.LinkKind, links ...curriculum.Link) error {
	return repo.db.write(ctx, func(t *tables) error {
		table, ok := t.links[kind]
		if !ok {
			return errors.Errorf("unknown link kind %d", kind)
		}
		for _, l := range links {
			if !t.linkable(kind, l) {
				return core.NewPersistenceError(
					errors.Errorf("%s (%d, %d) references a missing row", kind, l.ParentID, l.ChildID), "inserting links")
			}
		}
		for _, l := range links {
			table[l] = struct{}{}
		}
		return nil
	})
}

func (repo *curriculumRepository) DeleteLinks(ctx context.Context, kind curriculum.LinkKind, links ...curriculum.Link) error {
	return repo.db.write(ctx, func(t *tables) error {
		table, ok := t.links[kind]
		if !ok {
			return errors.Errorf("unknown link kind %d", kind)
		}
		for _, l := range links {
			delete(table, l)
		}
		return nil
	})
}

func (t *tables) linkable(kind curriculum.LinkKind, l curriculum.Link) bool {
	var parentOK, childOK bool
	switch kind {
	case curriculum.DaySubjects:
		_, parentOK = t.days[l.ParentID]
		_, childOK = t.subjects[l.ChildID]
	case curriculum.SeminarDays:
		_, parentOK = t.seminars[l.ParentID]
		_, childOK = t.days[l.ChildID]
	case curriculum.CourseSeminars:
		_, parentOK = t.designs[l.ParentID]
		_, childOK = t.seminars[l.ChildID]
	}
	return parentOK && childOK
}

func (t *tables) unlinkParent(kind curriculum.LinkKind, parentID int) {
	for l := range t.links[kind] {
		if l.ParentID == parentID {
			delete(t.links[kind], l)
		}
	}
}

func (t *tables) unlinkChild(kind curriculum.LinkKind, childID int) {
	for l := range t.links[kind] {
		if l.ChildID == childID {
			delete(t.links[kind], l)
		}
	}
}

func normFilter(filter *curriculum.QueryFilter) (curriculum.QueryFilter, map[int]bool) {
	if filter == nil {
		return curriculum.QueryFilter{}, nil
	}
	return *filter, idSet(filter.IDs)
}
