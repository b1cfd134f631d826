package curriculum

import (
	"context"

	"github.com/trezcool/kozi/core"
)

// Accessor composes shallow repository reads into curriculum trees.
// Trees are loaded one level at a time (links of every parent, then their children by id),
// so the number of queries depends on the depth of the tree, not on its size.
// Children are ordered by link order.
type Accessor struct {
	repo Repository
}

func NewAccessor(repo Repository) *Accessor {
	return &Accessor{repo: repo}
}

func (a *Accessor) GetSubject(ctx context.Context, id int) (Subject, error) {
	return a.repo.GetSubject(ctx, id)
}

func (a *Accessor) GetDay(ctx context.Context, id int) (Day, error) {
	return a.repo.GetDay(ctx, id)
}

func (a *Accessor) GetSeminar(ctx context.Context, id int) (Seminar, error) {
	return a.repo.GetSeminar(ctx, id)
}

func (a *Accessor) GetCourseDesign(ctx context.Context, id int) (CourseDesign, error) {
	return a.repo.GetCourseDesign(ctx, id)
}

func (a *Accessor) QuerySubjects(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Subject, error) {
	return a.repo.QuerySubjects(ctx, filter, ordering)
}

func (a *Accessor) QueryDays(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Day, error) {
	return a.repo.QueryDays(ctx, filter, ordering)
}

func (a *Accessor) QuerySeminars(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Seminar, error) {
	return a.repo.QuerySeminars(ctx, filter, ordering)
}

func (a *Accessor) QueryCourseDesigns(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]CourseDesign, error) {
	return a.repo.QueryCourseDesigns(ctx, filter, ordering)
}

// GetDayTree returns the day with its subjects.
func (a *Accessor) GetDayTree(ctx context.Context, id int) (Day, error) {
	day, err := a.repo.GetDay(ctx, id)
	if err != nil {
		return Day{}, err
	}
	subjects, err := a.subjectsOf(ctx, day.ID)
	if err != nil {
		return Day{}, err
	}
	day.Subjects = subjects[day.ID]
	return day, nil
}

// GetSeminarTree returns the seminar with its days and their subjects.
func (a *Accessor) GetSeminarTree(ctx context.Context, id int) (Seminar, error) {
	sem, err := a.repo.GetSeminar(ctx, id)
	if err != nil {
		return Seminar{}, err
	}
	days, err := a.daysOf(ctx, sem.ID)
	if err != nil {
		return Seminar{}, err
	}
	sem.Days = days[sem.ID]
	return sem, nil
}

// GetCourseDesignTree returns the design with its full seminar/day/subject tree.
func (a *Accessor) GetCourseDesignTree(ctx context.Context, id int) (CourseDesign, error) {
	cd, err := a.repo.GetCourseDesign(ctx, id)
	if err != nil {
		return CourseDesign{}, err
	}
	seminars, err := a.seminarsOf(ctx, cd.ID)
	if err != nil {
		return CourseDesign{}, err
	}
	cd.Seminars = seminars[cd.ID]
	return cd, nil
}

// links returns the links of the parents and the distinct child ids, in link order.
func (a *Accessor) links(ctx context.Context, kind LinkKind, parentIDs []int) ([]Link, []int, error) {
	if len(parentIDs) == 0 {
		return nil, nil, nil
	}
	links, err := a.repo.QueryLinks(ctx, kind, core.UniqueInts(parentIDs)...)
	if err != nil {
		return nil, nil, err
	}
	childIDs := make([]int, 0, len(links))
	for _, l := range links {
		childIDs = append(childIDs, l.ChildID)
	}
	return links, core.UniqueInts(childIDs), nil
}

func (a *Accessor) subjectsOf(ctx context.Context, dayIDs ...int) (map[int][]Subject, error) {
	links, subIDs, err := a.links(ctx, DaySubjects, dayIDs)
	if err != nil || len(subIDs) == 0 {
		return nil, err
	}
	subs, err := a.repo.QuerySubjects(ctx, &QueryFilter{IDs: subIDs}, nil)
	if err != nil {
		return nil, err
	}
	byID := make(map[int]Subject, len(subs))
	for _, s := range subs {
		byID[s.ID] = s
	}

	out := make(map[int][]Subject)
	for _, l := range links {
		if s, ok := byID[l.ChildID]; ok {
			out[l.ParentID] = append(out[l.ParentID], s)
		}
	}
	return out, nil
}

func (a *Accessor) daysOf(ctx context.Context, seminarIDs ...int) (map[int][]Day, error) {
	links, dayIDs, err := a.links(ctx, SeminarDays, seminarIDs)
	if err != nil || len(dayIDs) == 0 {
		return nil, err
	}
	days, err := a.repo.QueryDays(ctx, &QueryFilter{IDs: dayIDs}, nil)
	if err != nil {
		return nil, err
	}
	subjects, err := a.subjectsOf(ctx, dayIDs...)
	if err != nil {
		return nil, err
	}
	byID := make(map[int]Day, len(days))
	for _, d := range days {
		d.Subjects = subjects[d.ID]
		byID[d.ID] = d
	}

	out := make(map[int][]Day)
	for _, l := range links {
		if d, ok := byID[l.ChildID]; ok {
			out[l.ParentID] = append(out[l.ParentID], d)
		}
	}
	return out, nil
}

func (a *Accessor) seminarsOf(ctx context.Context, designIDs ...int) (map[int][]Seminar, error) {
	links, semIDs, err := a.links(ctx, CourseSeminars, designIDs)
	if err != nil || len(semIDs) == 0 {
		return nil, err
	}
	sems, err := a.repo.QuerySeminars(ctx, &QueryFilter{IDs: semIDs}, nil)
	if err != nil {
		return nil, err
	}
	days, err := a.daysOf(ctx, semIDs...)
	if err != nil {
		return nil, err
	}
	byID := make(map[int]Seminar, len(sems))
	for _, s := range sems {
		s.Days = days[s.ID]
		byID[s.ID] = s
	}

	out := make(map[int][]Seminar)
	for _, l := range links {
		if s, ok := byID[l.ChildID]; ok {
			out[l.ParentID] = append(out[l.ParentID], s)
		}
	}
	return out, nil
}
