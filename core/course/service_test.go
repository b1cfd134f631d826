package course_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kozi/core"
	"github.com/trezcool/kozi/core/course"
	"github.com/trezcool/kozi/core/curriculum"
	"github.com/trezcool/kozi/services/email"
	"github.com/trezcool/kozi/services/logger"
	"github.com/trezcool/kozi/storage/database/inmem"
	"github.com/trezcool/kozi/testutil"
)

type fixture struct {
	svc        *course.Service
	curriculum *curriculum.Service
	designs    curriculum.Repository
	courses    course.Repository
	mailer     *emailsvc.ConsoleService
}

func setup(t *testing.T) fixture {
	db := inmemdb.Open()
	designs := inmemdb.NewCurriculumRepository(db)
	courses := inmemdb.NewCourseRepository(db)
	conf := &core.Config{AppName: "Kozi", Email: core.EmailConfig{DefaultFromEmail: "noreply@kozi.test"}}
	logger := logsvc.NewNopLogger()
	mailer := emailsvc.NewConsoleServiceMock(conf, logger)
	return fixture{
		svc:        course.NewService(courses, designs, db, course.NewNotifier(mailer, conf, logger)),
		curriculum: curriculum.NewService(designs, db),
		designs:    designs,
		courses:    courses,
		mailer:     mailer,
	}
}

func countRows(t *testing.T, repo curriculum.Repository) int {
	ctx := context.Background()
	subs, err := repo.QuerySubjects(ctx, nil, nil)
	require.NoError(t, err)
	days, err := repo.QueryDays(ctx, nil, nil)
	require.NoError(t, err)
	sems, err := repo.QuerySeminars(ctx, nil, nil)
	require.NoError(t, err)
	cds, err := repo.QueryCourseDesigns(ctx, nil, nil)
	require.NoError(t, err)
	return len(subs) + len(days) + len(sems) + len(cds)
}

func TestService_Create(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	tmpl := testutil.SeedTemplate(t, f.designs)

	crs, err := f.svc.Create(ctx, course.NewCourse{Name: "Course7", MaxStudents: 20, CourseDesignID: tmpl.Design.ID})
	require.NoError(t, err)

	uid := curriculum.CourseUID("Course7", crs.ID)
	require.NotNil(t, crs.CourseDesign)
	assert.NotEqual(t, tmpl.Design.ID, crs.CourseDesignID)
	assert.Equal(t, crs.CourseDesignID, crs.CourseDesign.ID)
	assert.Equal(t, uid+" CourseDesign1", crs.CourseDesign.Name)
	require.Len(t, crs.CourseDesign.Seminars, 1)
	assert.Equal(t, uid+" Seminar1", crs.CourseDesign.Seminars[0].Name)
	require.Len(t, crs.CourseDesign.Seminars[0].Days, 1)
	assert.Equal(t, uid+" Day1", crs.CourseDesign.Seminars[0].Days[0].Name)
	require.Len(t, crs.CourseDesign.Seminars[0].Days[0].Subjects, 1)
	assert.Equal(t, uid+" Introduction", crs.CourseDesign.Seminars[0].Days[0].Subjects[0].Name)

	stored, err := f.svc.Get(ctx, crs.ID)
	require.NoError(t, err)
	assert.Equal(t, crs.CourseDesignID, stored.CourseDesignID)

	// template listings only show the template
	cds, err := f.designs.QueryCourseDesigns(ctx, &curriculum.QueryFilter{TemplatesOnly: true}, nil)
	require.NoError(t, err)
	require.Len(t, cds, 1)
	assert.Equal(t, tmpl.Design.ID, cds[0].ID)
}

func TestService_Create_unknownDesign(t *testing.T) {
	f := setup(t)
	_, err := f.svc.Create(context.Background(), course.NewCourse{Name: "Course7", CourseDesignID: 999})
	assert.True(t, core.IsNotFound(err), "err = %v", err)

	courses, err := f.svc.Query(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, courses)
}

func TestService_Delete(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	tmpl := testutil.SeedTemplate(t, f.designs)
	before := countRows(t, f.designs)

	venue := testutil.CreateVenue(t, f.courses, "Main Hall", "hall@kozi.test")
	keep, err := f.svc.Create(ctx, course.NewCourse{Name: "Other Course", CourseDesignID: tmpl.Design.ID})
	require.NoError(t, err)
	crs, err := f.svc.Create(ctx, course.NewCourse{Name: "Course7", CourseDesignID: tmpl.Design.ID})
	require.NoError(t, err)
	_, err = f.svc.CreateDate(ctx, crs.ID, course.NewCourseDate{VenueID: venue.ID, Date: time.Now().UTC()})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, crs.ID))

	_, err = f.svc.Get(ctx, crs.ID)
	assert.True(t, core.IsNotFound(err))
	assert.Equal(t, before+4, countRows(t, f.designs), "only the other course copy remains")

	dates, err := f.courses.QueryCourseDates(ctx, &course.DateFilter{VenueIDs: []int{venue.ID}})
	require.NoError(t, err)
	assert.Empty(t, dates)

	tree, err := f.svc.GetTree(ctx, keep.ID)
	require.NoError(t, err)
	assert.Equal(t, keep.CourseDesign, tree.CourseDesign)

	assert.True(t, core.IsNotFound(f.svc.Delete(ctx, crs.ID)))
}

// namesWithUID lists the curriculum rows carrying uid.
func namesWithUID(t *testing.T, repo curriculum.Repository, uid string) []string {
	ctx := context.Background()
	var names []string
	subs, err := repo.QuerySubjects(ctx, nil, nil)
	require.NoError(t, err)
	for _, s := range subs {
		names = append(names, s.Name)
	}
	days, err := repo.QueryDays(ctx, nil, nil)
	require.NoError(t, err)
	for _, d := range days {
		names = append(names, d.Name)
	}
	sems, err := repo.QuerySeminars(ctx, nil, nil)
	require.NoError(t, err)
	for _, s := range sems {
		names = append(names, s.Name)
	}
	cds, err := repo.QueryCourseDesigns(ctx, nil, nil)
	require.NoError(t, err)
	for _, cd := range cds {
		names = append(names, cd.Name)
	}

	var found []string
	for _, name := range names {
		if curriculum.HasUID(name, uid) {
			found = append(found, name)
		}
	}
	return found
}

func TestService_Delete_afterChecklistEdits(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	tmpl := testutil.SeedTemplate(t, f.designs)
	day2 := testutil.CreateDay(t, f.designs, "Day2")

	crs, err := f.svc.Create(ctx, course.NewCourse{Name: "CourseA", CourseDesignID: tmpl.Design.ID})
	require.NoError(t, err)
	uid := curriculum.CourseUID("CourseA", crs.ID)
	sem := crs.CourseDesign.Seminars[0]
	day := sem.Days[0]

	_, err = f.curriculum.SetSeminarDays(ctx, sem.ID, []curriculum.CheckItem{{ID: day.ID, Selected: false}})
	vErr, ok := err.(*core.ValidationError)
	require.True(t, ok, "err = %v", err)
	assert.Equal(t, curriculum.ErrUnlinkCopy, vErr.Err)

	got, err := f.curriculum.SetSeminarDays(ctx, sem.ID, []curriculum.CheckItem{{ID: day2.ID, Selected: true}})
	require.NoError(t, err)
	assert.Len(t, got.Days, 2)
	require.Len(t, namesWithUID(t, f.designs, uid), 4)

	require.NoError(t, f.svc.Delete(ctx, crs.ID))
	assert.Empty(t, namesWithUID(t, f.designs, uid))

	_, err = f.designs.GetDay(ctx, day2.ID)
	assert.NoError(t, err, "template day linked into the course tree is kept")
	tree, err := f.curriculum.GetSeminarTree(ctx, tmpl.Seminar.ID)
	require.NoError(t, err)
	assert.Len(t, tree.Days, 1)
}

func TestService_ReplaceDesign(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	tmpl := testutil.SeedTemplate(t, f.designs)
	other := testutil.CreateCourseDesign(t, f.designs, "Short Design")
	crs, err := f.svc.Create(ctx, course.NewCourse{Name: "Course7", CourseDesignID: tmpl.Design.ID})
	require.NoError(t, err)
	before := countRows(t, f.designs)

	got, err := f.svc.ReplaceDesign(ctx, crs.ID, other.ID)
	require.NoError(t, err)
	assert.Equal(t, curriculum.CourseUID("Course7", crs.ID)+" Short Design", got.CourseDesign.Name)
	assert.Empty(t, got.CourseDesign.Seminars)
	// old copy (4 rows) replaced by the new one (1 row)
	assert.Equal(t, before-3, countRows(t, f.designs))

	_, err = f.designs.GetCourseDesign(ctx, crs.CourseDesignID)
	assert.True(t, core.IsNotFound(err))
}

func TestService_Update(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	tmpl := testutil.SeedTemplate(t, f.designs)
	crs, err := f.svc.Create(ctx, course.NewCourse{Name: "Course7", CourseDesignID: tmpl.Design.ID})
	require.NoError(t, err)

	got, err := f.svc.Update(ctx, crs.ID, course.UpdateCourse{Name: "Renamed", MaxStudents: 5, Version: crs.Version})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, crs.CourseDesignID, got.CourseDesignID, "design is kept")

	_, err = f.svc.Update(ctx, crs.ID, course.UpdateCourse{Name: "Again", Version: crs.Version})
	assert.True(t, core.IsConflict(err), "err = %v", err)
}

func TestService_CreateDate_notifiesVenue(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	tmpl := testutil.SeedTemplate(t, f.designs)
	contact := testutil.CreateContact(t, f.courses, "Jane Doe", "jane@kozi.test")
	venue := testutil.CreateVenue(t, f.courses, "Main Hall", "hall@kozi.test", contact)
	silent := testutil.CreateVenue(t, f.courses, "No Email Hall", "")
	crs, err := f.svc.Create(ctx, course.NewCourse{Name: "Course7", MaxStudents: 12, CourseDesignID: tmpl.Design.ID})
	require.NoError(t, err)

	start := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	date, err := f.svc.CreateDate(ctx, crs.ID, course.NewCourseDate{VenueID: venue.ID, Date: start, Rider: "Projector"})
	require.NoError(t, err)
	require.NotNil(t, date.Venue)
	require.NotNil(t, date.Venue.Contact1)
	assert.Equal(t, contact.ID, date.Venue.Contact1.ID)

	_, err = f.svc.CreateDate(ctx, crs.ID, course.NewCourseDate{VenueID: silent.ID, Date: start})
	require.NoError(t, err)

	sent := f.mailer.SentMessages()
	require.Len(t, sent, 1)
	msg := sent[0]
	assert.Equal(t, "hall@kozi.test", msg.To[0].Address)
	require.Len(t, msg.Cc, 1)
	assert.Equal(t, "jane@kozi.test", msg.Cc[0].Address)
	assert.True(t, strings.Contains(msg.TextContent, "Course7"), msg.TextContent)
	assert.True(t, strings.Contains(msg.TextContent, "Projector"), msg.TextContent)
	assert.True(t, strings.Contains(msg.HTMLContent, "Main Hall"), msg.HTMLContent)

	t.Run("unknown venue", func(t *testing.T) {
		_, err := f.svc.CreateDate(ctx, crs.ID, course.NewCourseDate{VenueID: 999, Date: start})
		vErr, ok := err.(*core.ValidationError)
		require.True(t, ok, "err = %v", err)
		assert.Equal(t, course.ErrUnknownVenue, vErr.Err)
	})

	t.Run("tree lists dates in order", func(t *testing.T) {
		tree, err := f.svc.GetTree(ctx, crs.ID)
		require.NoError(t, err)
		require.Len(t, tree.Dates, 2)
		assert.Equal(t, date.ID, tree.Dates[0].ID)
		require.NotNil(t, tree.Dates[0].Venue)
		assert.Equal(t, venue.Name, tree.Dates[0].Venue.Name)
	})
}

func TestService_DeleteContact(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	used := testutil.CreateContact(t, f.courses, "Jane Doe", "")
	free := testutil.CreateContact(t, f.courses, "John Doe", "")
	testutil.CreateVenue(t, f.courses, "Main Hall", "", used)

	tests := []struct {
		name  string
		id    int
		check func(err error) bool
	}{
		{
			name: "in use", id: used.ID,
			check: func(err error) bool {
				vErr, ok := err.(*core.ValidationError)
				return ok && vErr.Err == course.ErrContactInUse
			},
		},
		{name: "free", id: free.ID, check: func(err error) bool { return err == nil }},
		{name: "missing", id: free.ID, check: core.IsNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.svc.DeleteContact(ctx, tt.id)
			assert.True(t, tt.check(err), "err = %v", err)
		})
	}
}

func TestService_CreateVenue_unknownContact(t *testing.T) {
	f := setup(t)
	missing := 999
	_, err := f.svc.CreateVenue(context.Background(), course.NewVenue{Name: "Main Hall", Contact2ID: &missing})
	vErr, ok := err.(*core.ValidationError)
	require.True(t, ok, "err = %v", err)
	assert.Equal(t, course.ErrUnknownContact, vErr.Err)
	assert.Equal(t, "contact2_id", vErr.Fields[0].Field)
}
