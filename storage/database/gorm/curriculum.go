package gormrepos

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

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

func (repo *curriculumRepository) query(ctx context.Context, filter *curriculum.QueryFilter, ordering []core.DBOrdering) *gorm.DB {
	q := repo.db.conn(ctx)
	if filter != nil {
		q = search(q, filter.Search)
		if filter.TemplatesOnly {
			q = q.Where("name NOT LIKE '[%]%'")
		}
		q = withIDs(q, "id", filter.IDs)
	}
	return q.Order(orderBy(ordering))
}

// Subjects

func (repo *curriculumRepository) CreateSubject(ctx context.Context, sub curriculum.Subject) (curriculum.Subject, error) {
	m := subjectModel{Name: sub.Name, Description: sub.Description, RequiredReading: sub.RequiredReading, Version: 1}
	if err := repo.db.conn(ctx).Create(&m).Error; err != nil {
		return curriculum.Subject{}, core.NewPersistenceError(err, "inserting subject")
	}
	return m.subject(), nil
}

func (repo *curriculumRepository) GetSubject(ctx context.Context, id int) (curriculum.Subject, error) {
	var m subjectModel
	if err := repo.db.conn(ctx).First(&m, id).Error; err != nil {
		return curriculum.Subject{}, trapNotFound(err, "subject", "getting subject")
	}
	return m.subject(), nil
}

func (repo *curriculumRepository) QuerySubjects(ctx context.Context, filter *curriculum.QueryFilter, ordering []core.DBOrdering) ([]curriculum.Subject, error) {
	var ms []subjectModel
	if err := repo.query(ctx, filter, ordering).Find(&ms).Error; err != nil {
		return nil, core.NewPersistenceError(err, "querying subjects")
	}
	subs := make([]curriculum.Subject, 0, len(ms))
	for _, m := range ms {
		subs = append(subs, m.subject())
	}
	return subs, nil
}

func (repo *curriculumRepository) UpdateSubject(ctx context.Context, sub curriculum.Subject) (curriculum.Subject, error) {
	var m subjectModel
	err := repo.db.versionedUpdate(ctx, &m, "subject", sub.ID, sub.Version, map[string]interface{}{
		"name":             sub.Name,
		"description":      sub.Description,
		"required_reading": sub.RequiredReading,
	})
	if err != nil {
		return curriculum.Subject{}, err
	}
	return m.subject(), nil
}

// DeleteSubjectsByID relies on ON DELETE CASCADE to drop the links.
func (repo *curriculumRepository) DeleteSubjectsByID(ctx context.Context, ids ...int) error {
	return repo.db.deleteByID(ctx, &subjectModel{}, "subjects", ids)
}

// Days

func (repo *curriculumRepository) CreateDay(ctx context.Context, day curriculum.Day) (curriculum.Day, error) {
	m := dayModel{Name: day.Name, Description: day.Description, Version: 1}
	if err := repo.db.conn(ctx).Create(&m).Error; err != nil {
		return curriculum.Day{}, core.NewPersistenceError(err, "inserting day")
	}
	return m.day(), nil
}

func (repo *curriculumRepository) GetDay(ctx context.Context, id int) (curriculum.Day, error) {
	var m dayModel
	if err := repo.db.conn(ctx).First(&m, id).Error; err != nil {
		return curriculum.Day{}, trapNotFound(err, "day", "getting day")
	}
	return m.day(), nil
}

func (repo *curriculumRepository) QueryDays(ctx context.Context, filter *curriculum.QueryFilter, ordering []core.DBOrdering) ([]curriculum.Day, error) {
	var ms []dayModel
	if err := repo.query(ctx, filter, ordering).Find(&ms).Error; err != nil {
		return nil, core.NewPersistenceError(err, "querying days")
	}
	days := make([]curriculum.Day, 0, len(ms))
	for _, m := range ms {
		days = append(days, m.day())
	}
	return days, nil
}

func (repo *curriculumRepository) UpdateDay(ctx context.Context, day curriculum.Day) (curriculum.Day, error) {
	var m dayModel
	err := repo.db.versionedUpdate(ctx, &m, "day", day.ID, day.Version, map[string]interface{}{
		"name":        day.Name,
		"description": day.Description,
	})
	if err != nil {
		return curriculum.Day{}, err
	}
	return m.day(), nil
}

func (repo *curriculumRepository) DeleteDaysByID(ctx context.Context, ids ...int) error {
	return repo.db.deleteByID(ctx, &dayModel{}, "days", ids)
}

// Seminars

func (repo *curriculumRepository) CreateSeminar(ctx context.Context, sem curriculum.Seminar) (curriculum.Seminar, error) {
	m := seminarModel{Name: sem.Name, Description: sem.Description, Version: 1}
	if err := repo.db.conn(ctx).Create(&m).Error; err != nil {
		return curriculum.Seminar{}, core.NewPersistenceError(err, "inserting seminar")
	}
	return m.seminar(), nil
}

func (repo *curriculumRepository) GetSeminar(ctx context.Context, id int) (curriculum.Seminar, error) {
	var m seminarModel
	if err := repo.db.conn(ctx).First(&m, id).Error; err != nil {
		return curriculum.Seminar{}, trapNotFound(err, "seminar", "getting seminar")
	}
	return m.seminar(), nil
}

func (repo *curriculumRepository) QuerySeminars(ctx context.Context, filter *curriculum.QueryFilter, ordering []core.DBOrdering) ([]curriculum.Seminar, error) {
	var ms []seminarModel
	if err := repo.query(ctx, filter, ordering).Find(&ms).Error; err != nil {
		return nil, core.NewPersistenceError(err, "querying seminars")
	}
	sems := make([]curriculum.Seminar, 0, len(ms))
	for _, m := range ms {
		sems = append(sems, m.seminar())
	}
	return sems, nil
}

func (repo *curriculumRepository) UpdateSeminar(ctx context.Context, sem curriculum.Seminar) (curriculum.Seminar, error) {
	var m seminarModel
	err := repo.db.versionedUpdate(ctx, &m, "seminar", sem.ID, sem.Version, map[string]interface{}{
		"name":        sem.Name,
		"description": sem.Description,
	})
	if err != nil {
		return curriculum.Seminar{}, err
	}
	return m.seminar(), nil
}

func (repo *curriculumRepository) DeleteSeminarsByID(ctx context.Context, ids ...int) error {
	return repo.db.deleteByID(ctx, &seminarModel{}, "seminars", ids)
}

// Course Designs

func (repo *curriculumRepository) CreateCourseDesign(ctx context.Context, cd curriculum.CourseDesign) (curriculum.CourseDesign, error) {
	m := courseDesignModel{Name: cd.Name, Description: cd.Description, Version: 1}
	if err := repo.db.conn(ctx).Create(&m).Error; err != nil {
		return curriculum.CourseDesign{}, core.NewPersistenceError(err, "inserting course design")
	}
	return m.courseDesign(), nil
}

func (repo *curriculumRepository) GetCourseDesign(ctx context.Context, id int) (curriculum.CourseDesign, error) {
	var m courseDesignModel
	if err := repo.db.conn(ctx).First(&m, id).Error; err != nil {
		return curriculum.CourseDesign{}, trapNotFound(err, "course design", "getting course design")
	}
	return m.courseDesign(), nil
}

func (repo *curriculumRepository) QueryCourseDesigns(ctx context.Context, filter *curriculum.QueryFilter, ordering []core.DBOrdering) ([]curriculum.CourseDesign, error) {
	var ms []courseDesignModel
	if err := repo.query(ctx, filter, ordering).Find(&ms).Error; err != nil {
		return nil, core.NewPersistenceError(err, "querying course designs")
	}
	cds := make([]curriculum.CourseDesign, 0, len(ms))
	for _, m := range ms {
		cds = append(cds, m.courseDesign())
	}
	return cds, nil
}

func (repo *curriculumRepository) UpdateCourseDesign(ctx context.Context, cd curriculum.CourseDesign) (curriculum.CourseDesign, error) {
	var m courseDesignModel
	err := repo.db.versionedUpdate(ctx, &m, "course design", cd.ID, cd.Version, map[string]interface{}{
		"name":        cd.Name,
		"description": cd.Description,
	})
	if err != nil {
		return curriculum.CourseDesign{}, err
	}
	return m.courseDesign(), nil
}

func (repo *curriculumRepository) DeleteCourseDesignsByID(ctx context.Context, ids ...int) error {
	return repo.db.deleteByID(ctx, &courseDesignModel{}, "course designs", ids)
}

// Links

type linkTable struct {
	model               interface{}
	name, parent, child string
}

var linkTables = map[curriculum.LinkKind]linkTable{
	curriculum.DaySubjects:    {&daySubjectModel{}, "day_subject", "day_id", "subject_id"},
	curriculum.SeminarDays:    {&seminarDayModel{}, "seminar_day", "seminar_id", "day_id"},
	curriculum.CourseSeminars: {&courseSeminarModel{}, "course_seminar", "course_design_id", "seminar_id"},
}

func tableOf(kind curriculum.LinkKind) (linkTable, error) {
	t, ok := linkTables[kind]
	if !ok {
		return linkTable{}, errors.Errorf("unknown link kind %d", kind)
	}
	return t, nil
}

func (repo *curriculumRepository) QueryLinks(ctx context.Context, kind curriculum.LinkKind, parentIDs ...int) ([]curriculum.Link, error) {
	t, err := tableOf(kind)
	if err != nil {
		return nil, err
	}
	if len(parentIDs) == 0 {
		return nil, nil
	}

	var links []curriculum.Link
	err = repo.db.conn(ctx).
		Model(t.model).
		Select(t.parent+" AS parent_id, "+t.child+" AS child_id").
		Where(t.parent+" IN ?", parentIDs).
		Order(t.parent + ", " + t.child).
		Scan(&links).Error
	if err != nil {
		return nil, core.NewPersistenceError(err, "querying "+t.name)
	}
	return links, nil
}

// InsertLinks ignores links that already exist. A missing parent or child is a foreign key violation.
func (repo *curriculumRepository) InsertLinks(ctx context.Context, kind curriculum.LinkKind, links ...curriculum.Link) error {
	t, err := tableOf(kind)
	if err != nil {
		return err
	}
	if len(links) == 0 {
		return nil
	}

	rows := make([]map[string]interface{}, 0, len(links))
	for _, l := range links {
		rows = append(rows, map[string]interface{}{t.parent: l.ParentID, t.child: l.ChildID})
	}
	err = repo.db.conn(ctx).Model(t.model).Clauses(clause.OnConflict{DoNothing: true}).Create(rows).Error
	return core.NewPersistenceError(err, "inserting into "+t.name)
}

func (repo *curriculumRepository) DeleteLinks(ctx context.Context, kind curriculum.LinkKind, links ...curriculum.Link) error {
	t, err := tableOf(kind)
	if err != nil {
		return err
	}
	for _, l := range links {
		err = repo.db.conn(ctx).
			Where(t.parent+" = ? AND "+t.child+" = ?", l.ParentID, l.ChildID).
			Delete(t.model).Error
		if err != nil {
			return core.NewPersistenceError(err, "deleting from "+t.name)
		}
	}
	return nil
}
