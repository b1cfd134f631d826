package echoapi_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kozi/core"
	"github.com/trezcool/kozi/core/course"
	"github.com/trezcool/kozi/core/curriculum"
	"github.com/trezcool/kozi/testutil"
)

func Test_courseApi_lifecycle(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	tmpl := testutil.SeedTemplate(t, f.store.Curriculum)

	// create copies the template
	rec := f.do(http.MethodPost, "/v1/courses",
		[]byte(`{"name": "Algebra", "max_students": 20, "course_design_id": `+itoa(tmpl.Design.ID)+`}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var crs course.Course
	unmarshallObj(t, rec, &crs)

	uid := curriculum.CourseUID("Algebra", crs.ID)
	require.NotNil(t, crs.CourseDesign)
	assert.NotEqual(t, tmpl.Design.ID, crs.CourseDesignID)
	assert.Equal(t, crs.CourseDesignID, crs.CourseDesign.ID)
	assert.Equal(t, uid+" CourseDesign1", crs.CourseDesign.Name)
	require.Len(t, crs.CourseDesign.Seminars, 1)
	require.Len(t, crs.CourseDesign.Seminars[0].Days, 1)
	require.Len(t, crs.CourseDesign.Seminars[0].Days[0].Subjects, 1)
	sub := crs.CourseDesign.Seminars[0].Days[0].Subjects[0]
	assert.Equal(t, uid+" Introduction", sub.Name)
	assert.Equal(t, "Chapter 1", sub.RequiredReading)

	// the copy is hidden from template lists
	rec = f.do(http.MethodGet, "/v1/course-designs")
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marshallObj(t, []curriculum.CourseDesign{tmpl.Design})}, rec)

	t.Run("list courses", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/v1/courses?search=alg")
		require.Equal(t, http.StatusOK, rec.Code)
		var courses []course.Course
		unmarshallObj(t, rec, &courses)
		require.Len(t, courses, 1)
		assert.Equal(t, crs.ID, courses[0].ID)
		assert.Nil(t, courses[0].CourseDesign)
	})

	t.Run("rename keeps the design", func(t *testing.T) {
		rec := f.do(http.MethodPut, "/v1/courses/"+itoa(crs.ID), []byte(`{"name": "Linear Algebra", "max_students": 25, "version": `+itoa(crs.Version)+`}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var upd course.Course
		unmarshallObj(t, rec, &upd)
		assert.Equal(t, "Linear Algebra", upd.Name)
		assert.Equal(t, 25, upd.MaxStudents)
		assert.Equal(t, crs.CourseDesignID, upd.CourseDesignID)
		assert.Equal(t, crs.Version+1, upd.Version)
	})

	t.Run("copying a private design", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/v1/courses", []byte(`{"name": "Geometry", "course_design_id": `+itoa(crs.CourseDesignID)+`}`))
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"course_design_id": curriculum.ErrNotTemplate.Error()}),
		}, rec)
	})

	t.Run("unknown design", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/v1/courses", []byte(`{"name": "Geometry", "course_design_id": 999}`))
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marshallObj(t, errNotFound)}, rec)
	})

	t.Run("delete drops the private tree", func(t *testing.T) {
		rec := f.do(http.MethodDelete, "/v1/courses/"+itoa(crs.ID))
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		_, err := f.store.Courses.GetCourse(ctx, crs.ID)
		assert.True(t, core.IsNotFound(err))
		_, err = f.store.Curriculum.GetCourseDesign(ctx, crs.CourseDesignID)
		assert.True(t, core.IsNotFound(err))
		_, err = f.store.Curriculum.GetSubject(ctx, sub.ID)
		assert.True(t, core.IsNotFound(err))
		_, err = f.store.Curriculum.GetSubject(ctx, tmpl.Subject.ID)
		assert.NoError(t, err)
	})
}

func Test_courseApi_dates(t *testing.T) {
	f := setup(t)
	tmpl := testutil.SeedTemplate(t, f.store.Curriculum)

	rec := f.do(http.MethodPost, "/v1/contacts", []byte(`{"name": "Jane Doe", "email": "JANE@kozi.test"}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var contact course.Contact
	unmarshallObj(t, rec, &contact)
	assert.Equal(t, "jane@kozi.test", contact.Email)

	rec = f.do(http.MethodPost, "/v1/venues",
		[]byte(`{"name": "Main Hall", "email1": "hall@kozi.test", "contact1_id": `+itoa(contact.ID)+`}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var venue course.Venue
	unmarshallObj(t, rec, &venue)

	rec = f.do(http.MethodPost, "/v1/courses", []byte(`{"name": "Algebra", "course_design_id": `+itoa(tmpl.Design.ID)+`}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var crs course.Course
	unmarshallObj(t, rec, &crs)
	datesPath := "/v1/courses/" + itoa(crs.ID) + "/dates"

	rec = f.do(http.MethodPost, datesPath,
		[]byte(`{"venue_id": `+itoa(venue.ID)+`, "date": "2026-11-02T09:00:00Z", "end_time": "2026-11-02T17:00:00Z", "rider": "Projector"}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var date course.CourseDate
	unmarshallObj(t, rec, &date)
	require.NotNil(t, date.Venue)
	require.NotNil(t, date.Venue.Contact1)
	assert.Equal(t, "Jane Doe", date.Venue.Contact1.Name)

	sent := f.mailer.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "hall@kozi.test", sent[0].To[0].Address)

	runHTTPTests(t, f, []httpTest{
		{
			name:     "end before start",
			method:   http.MethodPost,
			path:     datesPath,
			body:     []byte(`{"venue_id": ` + itoa(venue.ID) + `, "date": "2026-11-02T09:00:00Z", "end_time": "2026-11-01T09:00:00Z"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown venue",
			method:   http.MethodPost,
			path:     datesPath,
			body:     []byte(`{"venue_id": 999, "date": "2026-11-02T09:00:00Z"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"venue_id": course.ErrUnknownVenue.Error()}),
		},
		{
			name:     "dates of unknown course",
			method:   http.MethodGet,
			path:     "/v1/courses/999/dates",
			wantCode: http.StatusNotFound,
			wantData: marshallObj(t, errNotFound),
		},
		{
			name:     "contact in use",
			method:   http.MethodDelete,
			path:     "/v1/contacts/" + itoa(contact.ID),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"id": course.ErrContactInUse.Error()}),
		},
		{
			name:     "invalid venue email",
			method:   http.MethodPost,
			path:     "/v1/venues",
			body:     []byte(`{"name": "Side Room", "email1": "nope"}`),
			wantCode: http.StatusBadRequest,
		},
	})

	t.Run("list and update dates", func(t *testing.T) {
		rec := f.do(http.MethodGet, datesPath)
		require.Equal(t, http.StatusOK, rec.Code)
		var dates []course.CourseDate
		unmarshallObj(t, rec, &dates)
		require.Len(t, dates, 1)
		assert.Equal(t, date.ID, dates[0].ID)

		rec = f.do(http.MethodPut, "/v1/course-dates/"+itoa(date.ID),
			[]byte(`{"venue_id": `+itoa(venue.ID)+`, "date": "2026-11-03T09:00:00Z", "version": `+itoa(date.Version)+`}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var upd course.CourseDate
		unmarshallObj(t, rec, &upd)
		assert.Equal(t, 3, upd.Date.Day())
		assert.Nil(t, upd.EndTime)

		rec = f.do(http.MethodPut, "/v1/course-dates/"+itoa(date.ID),
			[]byte(`{"venue_id": `+itoa(venue.ID)+`, "date": "2026-11-04T09:00:00Z", "version": `+itoa(date.Version)+`}`))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("deleting the venue drops its dates", func(t *testing.T) {
		rec := f.do(http.MethodDelete, "/v1/venues/"+itoa(venue.ID))
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		rec = f.do(http.MethodGet, "/v1/course-dates/"+itoa(date.ID))
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = f.do(http.MethodDelete, "/v1/contacts/"+itoa(contact.ID))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
