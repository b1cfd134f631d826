package curriculum

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/kozi/core"
)

// Copier deep-copies template course designs into course-private trees.
type Copier struct {
	repo Repository
	tx   core.Transactor
	acc  *Accessor
}

func NewCopier(repo Repository, tx core.Transactor) *Copier {
	return &Copier{repo: repo, tx: tx, acc: NewAccessor(repo)}
}

// CopyDesign copies the template design and its whole tree, prefixing every copied name with uid.
//
// Every occurrence of a shared day or subject gets its own copy.
// Descriptions are copied as is. The copy runs in one transaction (joining the caller's one, if any)
// and the first error aborts it.
func (c *Copier) CopyDesign(ctx context.Context, templateID int, uid string) (copied CourseDesign, err error) {
	if uid == "" {
		return CourseDesign{}, ErrEmptyCourseUID
	}

	err = c.tx.WithinTx(ctx, func(ctx context.Context) error {
		tmpl, err := c.acc.GetCourseDesignTree(ctx, templateID)
		if err != nil {
			return err
		}
		if !tmpl.IsTemplate() {
			return core.NewValidationError(ErrNotTemplate, core.FieldError{Field: "course_design_id", Error: ErrNotTemplate.Error()})
		}
		copied, err = c.copyDesign(ctx, tmpl, uid)
		return err
	})
	if err != nil {
		return CourseDesign{}, core.NewPersistenceError(err, "copying course design")
	}
	return copied, nil
}

func (c *Copier) copyDesign(ctx context.Context, tmpl CourseDesign, uid string) (CourseDesign, error) {
	cd, err := c.repo.CreateCourseDesign(ctx, CourseDesign{
		Name:        WithPrefix(tmpl.Name, uid),
		Description: tmpl.Description,
	})
	if err != nil {
		return CourseDesign{}, errors.Wrap(err, "creating course design")
	}

	links := make([]Link, 0, len(tmpl.Seminars))
	for _, tsem := range tmpl.Seminars {
		sem, err := c.copySeminar(ctx, tsem, uid)
		if err != nil {
			return CourseDesign{}, err
		}
		cd.Seminars = append(cd.Seminars, sem)
		links = append(links, Link{ParentID: cd.ID, ChildID: sem.ID})
	}
	if err = c.insertLinks(ctx, CourseSeminars, links); err != nil {
		return CourseDesign{}, err
	}
	return cd, nil
}

func (c *Copier) copySeminar(ctx context.Context, tmpl Seminar, uid string) (Seminar, error) {
	sem, err := c.repo.CreateSeminar(ctx, Seminar{
		Name:        WithPrefix(tmpl.Name, uid),
		Description: tmpl.Description,
	})
	if err != nil {
		return Seminar{}, errors.Wrap(err, "creating seminar")
	}

	links := make([]Link, 0, len(tmpl.Days))
	for _, tday := range tmpl.Days {
		day, err := c.copyDay(ctx, tday, uid)
		if err != nil {
			return Seminar{}, err
		}
		sem.Days = append(sem.Days, day)
		links = append(links, Link{ParentID: sem.ID, ChildID: day.ID})
	}
	if err = c.insertLinks(ctx, SeminarDays, links); err != nil {
		return Seminar{}, err
	}
	return sem, nil
}

func (c *Copier) copyDay(ctx context.Context, tmpl Day, uid string) (Day, error) {
	day, err := c.repo.CreateDay(ctx, Day{
		Name:        WithPrefix(tmpl.Name, uid),
		Description: tmpl.Description,
	})
	if err != nil {
		return Day{}, errors.Wrap(err, "creating day")
	}

	links := make([]Link, 0, len(tmpl.Subjects))
	for _, tsub := range tmpl.Subjects {
		sub, err := c.repo.CreateSubject(ctx, Subject{
			Name:            WithPrefix(tsub.Name, uid),
			Description:     tsub.Description,
			RequiredReading: tsub.RequiredReading,
		})
		if err != nil {
			return Day{}, errors.Wrap(err, "creating subject")
		}
		day.Subjects = append(day.Subjects, sub)
		links = append(links, Link{ParentID: day.ID, ChildID: sub.ID})
	}
	if err = c.insertLinks(ctx, DaySubjects, links); err != nil {
		return Day{}, err
	}
	return day, nil
}

func (c *Copier) insertLinks(ctx context.Context, kind LinkKind, links []Link) error {
	if len(links) == 0 {
		return nil
	}
	return errors.Wrapf(c.repo.InsertLinks(ctx, kind, links...), "linking %s", kind)
}
