package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/kozi/core"
	"github.com/trezcool/kozi/core/curriculum"
)

const (
	subjectTable      = "subject"
	dayTable          = "day"
	seminarTable      = "seminar"
	courseDesignTable = "course_design"
)

// linkTables maps a link kind to its join table and its parent and child columns.
var linkTables = map[curriculum.LinkKind][3]string{
	curriculum.DaySubjects:    {"day_subject", "day_id", "subject_id"},
	curriculum.SeminarDays:    {"seminar_day", "seminar_id", "day_id"},
	curriculum.CourseSeminars: {"course_seminar", "course_design_id", "seminar_id"},
}

type curriculumRepository struct {
	db *DB
}

var _ curriculum.Repository = (*curriculumRepository)(nil) // interface compliance check

func NewCurriculumRepository(db *DB) curriculum.Repository {
	return &curriculumRepository{db: db}
}

func curriculumWhere(filter *curriculum.QueryFilter) *where {
	w := new(where)
	if filter == nil {
		return w
	}
	w.search("name", filter.Search)
	if filter.TemplatesOnly {
		w.add("name NOT LIKE '[%]%'")
	}
	w.in("id", filter.IDs)
	return w
}

// Subjects

func (repo *curriculumRepository) CreateSubject(ctx context.Context, sub curriculum.Subject) (curriculum.Subject, error) {
	var row subjectRow
	q := `INSERT INTO subject (name, description, required_reading) VALUES ($1, $2, $3) RETURNING *`
	if err := sqlx.GetContext(ctx, repo.db.exec(ctx), &row, q, sub.Name, sub.Description, sub.RequiredReading); err != nil {
		return curriculum.Subject{}, core.NewPersistenceError(err, "inserting subject")
	}
	return row.subject(), nil
}

func (repo *curriculumRepository) GetSubject(ctx context.Context, id int) (curriculum.Subject, error) {
	var row subjectRow
	if err := sqlx.GetContext(ctx, repo.db.exec(ctx), &row, `SELECT * FROM subject WHERE id = $1`, id); err != nil {
		return curriculum.Subject{}, trapNoRowsErr(err, "subject", "getting subject")
	}
	return row.subject(), nil
}

func (repo *curriculumRepository) QuerySubjects(ctx context.Context, filter *curriculum.QueryFilter, ordering []core.DBOrdering) ([]curriculum.Subject, error) {
	var rows []subjectRow
	if err := repo.db.selectRows(ctx, &rows, subjectTable, curriculumWhere(filter), orderBy(ordering)); err != nil {
		return nil, err
	}
	subs := make([]curriculum.Subject, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, r.subject())
	}
	return subs, nil
}

func (repo *curriculumRepository) UpdateSubject(ctx context.Context, sub curriculum.Subject) (curriculum.Subject, error) {
	var row subjectRow
	q := `UPDATE subject SET name = $1, description = $2, required_reading = $3, version = version + 1
		WHERE id = $4 AND version = $5 RETURNING *`
	err := sqlx.GetContext(ctx, repo.db.exec(ctx), &row, q, sub.Name, sub.Description, sub.RequiredReading, sub.ID, sub.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return curriculum.Subject{}, repo.db.staleUpdate(ctx, subjectTable, "subject", sub.ID)
	}
	if err != nil {
		return curriculum.Subject{}, core.NewPersistenceError(err, "updating subject")
	}
	return row.subject(), nil
}

// DeleteSubjectsByID relies on ON DELETE CASCADE to drop the links.
func (repo *curriculumRepository) DeleteSubjectsByID(ctx context.Context, ids ...int) error {
	return repo.db.deleteByID(ctx, subjectTable, ids)
}

// Days

func (repo *curriculumRepository) CreateDay(ctx context.Context, day curriculum.Day) (curriculum.Day, error) {
	row, err := repo.createDetails(ctx, dayTable, day.Name, day.Description)
	return row.day(), err
}

func (repo *curriculumRepository) GetDay(ctx context.Context, id int) (curriculum.Day, error) {
	row, err := repo.getDetails(ctx, dayTable, "day", id)
	return row.day(), err
}

func (repo *curriculumRepository) QueryDays(ctx context.Context, filter *curriculum.QueryFilter, ordering []core.DBOrdering) ([]curriculum.Day, error) {
	rows, err := repo.queryDetails(ctx, dayTable, filter, ordering)
	if err != nil {
		return nil, err
	}
	days := make([]curriculum.Day, 0, len(rows))
	for _, r := range rows {
		days = append(days, r.day())
	}
	return days, nil
}

func (repo *curriculumRepository) UpdateDay(ctx context.Context, day curriculum.Day) (curriculum.Day, error) {
	row, err := repo.updateDetails(ctx, dayTable, "day", detailsRow{ID: day.ID, Name: day.Name, Description: day.Description, Version: day.Version})
	return row.day(), err
}

func (repo *curriculumRepository) DeleteDaysByID(ctx context.Context, ids ...int) error {
	return repo.db.deleteByID(ctx, dayTable, ids)
}

// Seminars

func (repo *curriculumRepository) CreateSeminar(ctx context.Context, sem curriculum.Seminar) (curriculum.Seminar, error) {
	row, err := repo.createDetails(ctx, seminarTable, sem.Name, sem.Description)
	return row.seminar(), err
}

func (repo *curriculumRepository) GetSeminar(ctx context.Context, id int) (curriculum.Seminar, error) {
	row, err := repo.getDetails(ctx, seminarTable, "seminar", id)
	return row.seminar(), err
}

func (repo *curriculumRepository) QuerySeminars(ctx context.Context, filter *curriculum.QueryFilter, ordering []core.DBOrdering) ([]curriculum.Seminar, error) {
	rows, err := repo.queryDetails(ctx, seminarTable, filter, ordering)
	if err != nil {
		return nil, err
	}
	sems := make([]curriculum.Seminar, 0, len(rows))
	for _, r := range rows {
		sems = append(sems, r.seminar())
	}
	return sems, nil
}

func (repo *curriculumRepository) UpdateSeminar(ctx context.Context, sem curriculum.Seminar) (curriculum.Seminar, error) {
	row, err := repo.updateDetails(ctx, seminarTable, "seminar", detailsRow{ID: sem.ID, Name: sem.Name, Description: sem.Description, Version: sem.Version})
	return row.seminar(), err
}

func (repo *curriculumRepository) DeleteSeminarsByID(ctx context.Context, ids ...int) error {
	return repo.db.deleteByID(ctx, seminarTable, ids)
}

// Course Designs

func (repo *curriculumRepository) CreateCourseDesign(ctx context.Context, cd curriculum.CourseDesign) (curriculum.CourseDesign, error) {
	row, err := repo.createDetails(ctx, courseDesignTable, cd.Name, cd.Description)
	return row.courseDesign(), err
}

func (repo *curriculumRepository) GetCourseDesign(ctx context.Context, id int) (curriculum.CourseDesign, error) {
	row, err := repo.getDetails(ctx, courseDesignTable, "course design", id)
	return row.courseDesign(), err
}

func (repo *curriculumRepository) QueryCourseDesigns(ctx context.Context, filter *curriculum.QueryFilter, ordering []core.DBOrdering) ([]curriculum.CourseDesign, error) {
	rows, err := repo.queryDetails(ctx, courseDesignTable, filter, ordering)
	if err != nil {
		return nil, err
	}
	cds := make([]curriculum.CourseDesign, 0, len(rows))
	for _, r := range rows {
		cds = append(cds, r.courseDesign())
	}
	return cds, nil
}

func (repo *curriculumRepository) UpdateCourseDesign(ctx context.Context, cd curriculum.CourseDesign) (curriculum.CourseDesign, error) {
	row, err := repo.updateDetails(ctx, courseDesignTable, "course design", detailsRow{ID: cd.ID, Name: cd.Name, Description: cd.Description, Version: cd.Version})
	return row.courseDesign(), err
}

func (repo *curriculumRepository) DeleteCourseDesignsByID(ctx context.Context, ids ...int) error {
	return repo.db.deleteByID(ctx, courseDesignTable, ids)
}

// day, seminar and course design tables share their columns

func (repo *curriculumRepository) createDetails(ctx context.Context, table, name, description string) (detailsRow, error) {
	var row detailsRow
	q := `INSERT INTO ` + table + ` (name, description) VALUES ($1, $2) RETURNING *`
	if err := sqlx.GetContext(ctx, repo.db.exec(ctx), &row, q, name, description); err != nil {
		return detailsRow{}, core.NewPersistenceError(err, "inserting into "+table)
	}
	return row, nil
}

func (repo *curriculumRepository) getDetails(ctx context.Context, table, entity string, id int) (detailsRow, error) {
	var row detailsRow
	if err := sqlx.GetContext(ctx, repo.db.exec(ctx), &row, `SELECT * FROM `+table+` WHERE id = $1`, id); err != nil {
		return detailsRow{}, trapNoRowsErr(err, entity, "getting "+entity)
	}
	return row, nil
}

func (repo *curriculumRepository) queryDetails(ctx context.Context, table string, filter *curriculum.QueryFilter, ordering []core.DBOrdering) ([]detailsRow, error) {
	var rows []detailsRow
	if err := repo.db.selectRows(ctx, &rows, table, curriculumWhere(filter), orderBy(ordering)); err != nil {
		return nil, err
	}
	return rows, nil
}

func (repo *curriculumRepository) updateDetails(ctx context.Context, table, entity string, in detailsRow) (detailsRow, error) {
	var row detailsRow
	q := `UPDATE ` + table + ` SET name = $1, description = $2, version = version + 1
		WHERE id = $3 AND version = $4 RETURNING *`
	err := sqlx.GetContext(ctx, repo.db.exec(ctx), &row, q, in.Name, in.Description, in.ID, in.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return detailsRow{}, repo.db.staleUpdate(ctx, table, entity, in.ID)
	}
	if err != nil {
		return detailsRow{}, core.NewPersistenceError(err, "updating "+entity)
	}
	return row, nil
}

// Links

func linkTable(kind curriculum.LinkKind) (table, parentCol, childCol string, err error) {
	t, ok := linkTables[kind]
	if !ok {
		return "", "", "", errors.Errorf("unknown link kind %d", kind)
	}
	return t[0], t[1], t[2], nil
}

func (repo *curriculumRepository) QueryLinks(ctx context.Context, kind curriculum.LinkKind, parentIDs ...int) ([]curriculum.Link, error) {
	table, parentCol, childCol, err := linkTable(kind)
	if err != nil {
		return nil, err
	}
	if len(parentIDs) == 0 {
		return nil, nil
	}

	q, args, err := sqlx.In(
		`SELECT `+parentCol+` AS parent_id, `+childCol+` AS child_id FROM `+table+
			` WHERE `+parentCol+` IN (?) ORDER BY `+parentCol+`, `+childCol, parentIDs)
	if err != nil {
		return nil, core.NewPersistenceError(err, "querying "+table)
	}
	ex := repo.db.exec(ctx)
	var rows []linkRow
	if err = sqlx.SelectContext(ctx, ex, &rows, ex.Rebind(q), args...); err != nil {
		return nil, core.NewPersistenceError(err, "querying "+table)
	}
	links := make([]curriculum.Link, 0, len(rows))
	for _, r := range rows {
		links = append(links, curriculum.Link{ParentID: r.ParentID, ChildID: r.ChildID})
	}
	return links, nil
}

// InsertLinks ignores links that already exist. A missing parent or child is a foreign key violation.
func (repo *curriculumRepository) InsertLinks(ctx context.Context, kind curriculum.LinkKind, links ...curriculum.Link) error {
	table, parentCol, childCol, err := linkTable(kind)
	if err != nil {
		return err
	}
	if len(links) == 0 {
		return nil
	}

	rows := make([]linkRow, 0, len(links))
	for _, l := range links {
		rows = append(rows, linkRow{ParentID: l.ParentID, ChildID: l.ChildID})
	}
	q := `INSERT INTO ` + table + ` (` + parentCol + `, ` + childCol + `) VALUES (:parent_id, :child_id)
		ON CONFLICT DO NOTHING`
	_, err = sqlx.NamedExecContext(ctx, repo.db.exec(ctx), q, rows)
	return core.NewPersistenceError(err, "inserting into "+table)
}

func (repo *curriculumRepository) DeleteLinks(ctx context.Context, kind curriculum.LinkKind, links ...curriculum.Link) error {
	table, parentCol, childCol, err := linkTable(kind)
	if err != nil {
		return err
	}

	ex := repo.db.exec(ctx)
	q := ex.Rebind(`DELETE FROM ` + table + ` WHERE ` + parentCol + ` = ? AND ` + childCol + ` = ?`)
	for _, l := range links {
		if _, err = ex.ExecContext(ctx, q, l.ParentID, l.ChildID); err != nil {
			return core.NewPersistenceError(err, "deleting from "+table)
		}
	}
	return nil
}
