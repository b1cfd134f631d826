package inmemdb

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/trezcool/kozi/core"
	"github.com/trezcool/kozi/core/course"
	"github.com/trezcool/kozi/core/curriculum"
)

type txKey struct{}

type (
	// DB keeps every table in memory. Transactions take the write lock and restore a snapshot on error.
	DB struct {
		mutex sync.RWMutex
		t     *tables
	}

	tables struct {
		pk int

		subjects map[int]curriculum.Subject
		days     map[int]curriculum.Day
		seminars map[int]curriculum.Seminar
		designs  map[int]curriculum.CourseDesign
		links    map[curriculum.LinkKind]map[curriculum.Link]struct{}

		courses  map[int]course.Course
		dates    map[int]course.CourseDate
		venues   map[int]course.Venue
		contacts map[int]course.Contact
	}
)

var _ core.Transactor = (*DB)(nil)

func Open() *DB {
	return &DB{t: newTables()}
}

func newTables() *tables {
	return &tables{
		subjects: make(map[int]curriculum.Subject),
		days:     make(map[int]curriculum.Day),
		seminars: make(map[int]curriculum.Seminar),
		designs:  make(map[int]curriculum.CourseDesign),
		links: map[curriculum.LinkKind]map[curriculum.Link]struct{}{
			curriculum.DaySubjects:    make(map[curriculum.Link]struct{}),
			curriculum.SeminarDays:    make(map[curriculum.Link]struct{}),
			curriculum.CourseSeminars: make(map[curriculum.Link]struct{}),
		},
		courses:  make(map[int]course.Course),
		dates:    make(map[int]course.CourseDate),
		venues:   make(map[int]course.Venue),
		contacts: make(map[int]course.Contact),
	}
}

// clone copies the tables. Rows are stored without nested values, so copying the maps is enough.
func (t *tables) clone() *tables {
	c := newTables()
	c.pk = t.pk
	for k, v := range t.subjects {
		c.subjects[k] = v
	}
	for k, v := range t.days {
		c.days[k] = v
	}
	for k, v := range t.seminars {
		c.seminars[k] = v
	}
	for k, v := range t.designs {
		c.designs[k] = v
	}
	for kind, links := range t.links {
		for l := range links {
			c.links[kind][l] = struct{}{}
		}
	}
	for k, v := range t.courses {
		c.courses[k] = v
	}
	for k, v := range t.dates {
		c.dates[k] = v
	}
	for k, v := range t.venues {
		c.venues[k] = v
	}
	for k, v := range t.contacts {
		c.contacts[k] = v
	}
	return c
}

func (t *tables) nextID() int {
	t.pk++
	return t.pk
}

func inTx(ctx context.Context, db *DB) bool {
	owner, _ := ctx.Value(txKey{}).(*DB)
	return owner == db
}

// WithinTx serializes fn against every other access to the DB. Nested calls join the outer transaction.
func (db *DB) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx, db) {
		return fn(ctx)
	}

	db.mutex.Lock()
	defer db.mutex.Unlock()

	snapshot := db.t.clone()
	if err := fn(context.WithValue(ctx, txKey{}, db)); err != nil {
		db.t = snapshot
		return err
	}
	return nil
}

func (db *DB) read(ctx context.Context, fn func(t *tables) error) error {
	if err := ctx.Err(); err != nil {
		return core.NewPersistenceError(err, "reading")
	}
	if !inTx(ctx, db) {
		db.mutex.RLock()
		defer db.mutex.RUnlock()
	}
	return fn(db.t)
}

func (db *DB) write(ctx context.Context, fn func(t *tables) error) error {
	if err := ctx.Err(); err != nil {
		return core.NewPersistenceError(err, "writing")
	}
	if !inTx(ctx, db) {
		db.mutex.Lock()
		defer db.mutex.Unlock()
	}
	return fn(db.t)
}

// Reset drops every row.
func (db *DB) Reset() {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.t = newTables()
}

// matches applies the common name filters: case-insensitive search, templates only and id set.
func matches(id int, name, search string, templatesOnly bool, ids map[int]bool) bool {
	if search != "" && !strings.Contains(strings.ToLower(name), strings.ToLower(search)) {
		return false
	}
	if templatesOnly && curriculum.HasPrefix(name) {
		return false
	}
	if ids != nil && !ids[id] {
		return false
	}
	return true
}

func idSet(ids []int) map[int]bool {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[int]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// sortRows orders rows by the "id" and "name" orderings, defaulting to name then id.
func sortRows[T any](rows []T, ordering []core.DBOrdering, id func(T) int, name func(T) string) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "name", Ascending: true}, {Field: "id", Ascending: true}}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, ord := range ordering {
			var cmp int
			switch ord.Field {
			case "id":
				cmp = id(rows[i]) - id(rows[j])
			case "name":
				cmp = strings.Compare(name(rows[i]), name(rows[j]))
			}
			if cmp == 0 {
				continue
			}
			if ord.Ascending {
				return cmp < 0
			}
			return cmp > 0
		}
		return false
	})
}
