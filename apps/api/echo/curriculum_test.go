package echoapi_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kozi/core"
	"github.com/trezcool/kozi/core/curriculum"
	"github.com/trezcool/kozi/testutil"
)

func Test_curriculumApi_subjects(t *testing.T) {
	f := setup(t)
	tmpl := testutil.SeedTemplate(t, f.store.Curriculum)
	private := testutil.CreateSubject(t, f.store.Curriculum, "[Algebra-9] Introduction")

	tests := []httpTest{
		{
			name:     "list hides namespaced subjects",
			method:   http.MethodGet,
			path:     "/v1/subjects",
			wantCode: http.StatusOK,
			wantData: marshallObj(t, []curriculum.Subject{tmpl.Subject}),
		},
		{
			name:     "list all",
			method:   http.MethodGet,
			path:     "/v1/subjects?all=true",
			wantCode: http.StatusOK,
			wantData: marshallObj(t, []curriculum.Subject{tmpl.Subject, private}),
		},
		{
			name:     "list all ordered by -id",
			method:   http.MethodGet,
			path:     "/v1/subjects?all=true&ordering=-id",
			wantCode: http.StatusOK,
			wantData: marshallObj(t, []curriculum.Subject{private, tmpl.Subject}),
		},
		{
			name:     "search without match",
			method:   http.MethodGet,
			path:     "/v1/subjects?search=geometry",
			wantCode: http.StatusOK,
			wantData: []byte(`[]`),
		},
		{
			name:     "bad all param",
			method:   http.MethodGet,
			path:     "/v1/subjects?all=maybe",
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "retrieve",
			method:   http.MethodGet,
			path:     "/v1/subjects/" + itoa(tmpl.Subject.ID),
			wantCode: http.StatusOK,
			wantData: marshallObj(t, tmpl.Subject),
		},
		{
			name:     "retrieve unknown",
			method:   http.MethodGet,
			path:     "/v1/subjects/999",
			wantCode: http.StatusNotFound,
			wantData: marshallObj(t, errNotFound),
		},
		{
			name:     "retrieve malformed id",
			method:   http.MethodGet,
			path:     "/v1/subjects/abc",
			wantCode: http.StatusNotFound,
			wantData: marshallObj(t, errNotFound),
		},
		{
			name:     "create with short name",
			method:   http.MethodPost,
			path:     "/v1/subjects",
			body:     []byte(`{"name": "Ab"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "create with bracketed name",
			method:   http.MethodPost,
			path:     "/v1/subjects",
			body:     []byte(`{"name": "[Course-1] Geometry"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "update with stale version",
			method:   http.MethodPut,
			path:     "/v1/subjects/" + itoa(tmpl.Subject.ID),
			body:     []byte(`{"name": "Introduction", "version": 7}`),
			wantCode: http.StatusConflict,
			wantData: marshallObj(t, httpErr{Error: core.ErrConflict.Error()}),
		},
		{
			name:     "update unknown",
			method:   http.MethodPut,
			path:     "/v1/subjects/999",
			body:     []byte(`{"name": "Introduction", "version": 1}`),
			wantCode: http.StatusNotFound,
			wantData: marshallObj(t, errNotFound),
		},
		{
			name:     "delete namespaced subject",
			method:   http.MethodDelete,
			path:     "/v1/subjects/" + itoa(private.ID),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"name": curriculum.ErrPrivateEntity.Error()}),
		},
	}
	runHTTPTests(t, f, tests)
}

func Test_curriculumApi_createUpdateDelete(t *testing.T) {
	f := setup(t)

	rec := f.do(http.MethodPost, "/v1/subjects", []byte(`{"name": "  Geometry ", "required_reading": "Euclid"}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sub curriculum.Subject
	unmarshallObj(t, rec, &sub)
	assert.Equal(t, "Geometry", sub.Name)
	assert.Equal(t, "Euclid", sub.RequiredReading)
	assert.Equal(t, 1, sub.Version)

	rec = f.do(http.MethodPut, "/v1/subjects/"+itoa(sub.ID), []byte(`{"name": "Plane Geometry", "version": 1}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	unmarshallObj(t, rec, &sub)
	assert.Equal(t, "Plane Geometry", sub.Name)
	assert.Equal(t, 2, sub.Version)

	rec = f.do(http.MethodDelete, "/v1/subjects/"+itoa(sub.ID))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err := f.store.Curriculum.GetSubject(context.Background(), sub.ID)
	assert.True(t, core.IsNotFound(err))
}

func Test_curriculumApi_designs(t *testing.T) {
	f := setup(t)
	tmpl := testutil.SeedTemplate(t, f.store.Curriculum)

	tests := []struct {
		name string
		path string
		want interface{}
	}{
		{
			name: "day",
			path: "/v1/days/" + itoa(tmpl.Day.ID),
			want: tmpl.Day,
		},
		{
			name: "seminar",
			path: "/v1/seminars/" + itoa(tmpl.Seminar.ID),
			want: tmpl.Seminar,
		},
		{
			name: "course design",
			path: "/v1/course-designs/" + itoa(tmpl.Design.ID),
			want: tmpl.Design,
		},
		{
			name: "day tree",
			path: "/v1/days/" + itoa(tmpl.Day.ID) + "/tree",
			want: dayTree(tmpl),
		},
		{
			name: "seminar tree",
			path: "/v1/seminars/" + itoa(tmpl.Seminar.ID) + "/tree",
			want: seminarTree(tmpl),
		},
		{
			name: "course design tree",
			path: "/v1/course-designs/" + itoa(tmpl.Design.ID) + "/tree",
			want: designTree(tmpl),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodGet, tt.path)
			checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marshallObj(t, tt.want)}, rec)
		})
	}

	t.Run("create day", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/v1/days", []byte(`{"name": "Day two", "description": "more"}`))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var day curriculum.Day
		unmarshallObj(t, rec, &day)
		assert.Equal(t, "Day two", day.Name)
		assert.Equal(t, "more", day.Description)
	})

	t.Run("delete template seminar", func(t *testing.T) {
		rec := f.do(http.MethodDelete, "/v1/seminars/"+itoa(tmpl.Seminar.ID))
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		links, err := f.store.Curriculum.QueryLinks(context.Background(), curriculum.CourseSeminars, tmpl.Design.ID)
		require.NoError(t, err)
		assert.Empty(t, links)
	})
}

func Test_curriculumApi_checklists(t *testing.T) {
	f := setup(t)
	tmpl := testutil.SeedTemplate(t, f.store.Curriculum)
	extra := testutil.CreateSubject(t, f.store.Curriculum, "Exercises")
	testutil.CreateSubject(t, f.store.Curriculum, "[Algebra-9] Exercises")
	dayPath := "/v1/days/" + itoa(tmpl.Day.ID) + "/subjects"

	runHTTPTests(t, f, []httpTest{
		{
			name:     "get day subjects",
			method:   http.MethodGet,
			path:     dayPath,
			wantCode: http.StatusOK,
			wantData: []byte(`[
				{"id": ` + itoa(extra.ID) + `, "selected": false, "name": "Exercises"},
				{"id": ` + itoa(tmpl.Subject.ID) + `, "selected": true, "name": "Introduction"}
			]`),
		},
		{
			name:     "unknown parent",
			method:   http.MethodGet,
			path:     "/v1/seminars/999/days",
			wantCode: http.StatusNotFound,
			wantData: marshallObj(t, errNotFound),
		},
		{
			name:     "select unknown child",
			method:   http.MethodPut,
			path:     dayPath,
			body:     []byte(`[{"id": 999, "selected": true}]`),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"checklist": curriculum.ErrUnknownChild.Error()}),
		},
	})

	t.Run("swap day subjects", func(t *testing.T) {
		body := []byte(`[{"id": ` + itoa(tmpl.Subject.ID) + `, "selected": false}, {"id": ` + itoa(extra.ID) + `, "selected": true}]`)
		rec := f.do(http.MethodPut, dayPath, body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var day curriculum.Day
		unmarshallObj(t, rec, &day)
		require.Len(t, day.Subjects, 1)
		assert.Equal(t, extra.ID, day.Subjects[0].ID)
	})

	t.Run("course design seminars", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/v1/course-designs/"+itoa(tmpl.Design.ID)+"/seminars")
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK,
			wantData: []byte(`[{"id": ` + itoa(tmpl.Seminar.ID) + `, "selected": true, "name": "Seminar1"}]`),
		}, rec)
	})
}

func dayTree(tmpl testutil.Template) curriculum.Day {
	day := tmpl.Day
	day.Subjects = []curriculum.Subject{tmpl.Subject}
	return day
}

func seminarTree(tmpl testutil.Template) curriculum.Seminar {
	sem := tmpl.Seminar
	sem.Days = []curriculum.Day{dayTree(tmpl)}
	return sem
}

func designTree(tmpl testutil.Template) curriculum.CourseDesign {
	cd := tmpl.Design
	cd.Seminars = []curriculum.Seminar{seminarTree(tmpl)}
	return cd
}
