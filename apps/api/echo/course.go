package echoapi

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kozi/core"
	"github.com/trezcool/kozi/core/course"
)

type courseApi struct {
	svc      *course.Service
	validate *validator.Validate
}

func registerCourseAPI(g *echo.Group, svc *course.Service, validate *validator.Validate) {
	api := courseApi{svc: svc, validate: validate}

	cg := g.Group("/courses")
	cg.GET("", api.query)
	cg.POST("", api.create)
	cg.GET("/:id", api.retrieve)
	cg.PUT("/:id", api.update)
	cg.DELETE("/:id", api.destroy)
	cg.GET("/:id/dates", api.queryDates)
	cg.POST("/:id/dates", api.createDate)

	dg := g.Group("/course-dates")
	dg.GET("/:id", api.retrieveDate)
	dg.PUT("/:id", api.updateDate)
	dg.DELETE("/:id", api.destroyDate)

	vg := g.Group("/venues")
	vg.GET("", api.queryVenues)
	vg.POST("", api.createVenue)
	vg.GET("/:id", api.retrieveVenue)
	vg.PUT("/:id", api.updateVenue)
	vg.DELETE("/:id", api.destroyVenue)

	ctg := g.Group("/contacts")
	ctg.GET("", api.queryContacts)
	ctg.POST("", api.createContact)
	ctg.GET("/:id", api.retrieveContact)
	ctg.PUT("/:id", api.updateContact)
	ctg.DELETE("/:id", api.destroyContact)
}

func courseFilter(ctx echo.Context) (*course.QueryFilter, []core.DBOrdering, error) {
	params, err := bindListParams(ctx)
	if err != nil {
		return nil, nil, err
	}
	filter := &course.QueryFilter{Search: params.Search}
	filter.Clean()
	return filter, params.Orderings, nil
}

// Courses

func (api *courseApi) query(ctx echo.Context) error {
	filter, ordering, err := courseFilter(ctx)
	if err != nil {
		return err
	}
	courses, err := api.svc.Query(ctx.Request().Context(), filter, ordering)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	return ctx.JSON(http.StatusOK, nonNil(courses))
}

// create saves the course with a private copy of the chosen template design.
func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	crs, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	crs, err := api.svc.GetTree(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting course tree")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) update(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data course.UpdateCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	crs, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	return destroy(ctx, "deleting course", api.svc.Delete)
}

// Course Dates

func (api *courseApi) queryDates(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	if _, err = api.svc.Get(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "getting course")
	}
	dates, err := api.svc.QueryDates(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying course dates")
	}
	return ctx.JSON(http.StatusOK, nonNil(dates))
}

// createDate schedules the course and sends the reservation notice to the venue.
func (api *courseApi) createDate(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data course.NewCourseDate
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourseDate")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	date, err := api.svc.CreateDate(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "creating course date")
	}
	return ctx.JSON(http.StatusCreated, date)
}

func (api *courseApi) retrieveDate(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	date, err := api.svc.GetDate(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting course date")
	}
	return ctx.JSON(http.StatusOK, date)
}

func (api *courseApi) updateDate(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data course.UpdateCourseDate
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourseDate")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	date, err := api.svc.UpdateDate(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating course date")
	}
	return ctx.JSON(http.StatusOK, date)
}

func (api *courseApi) destroyDate(ctx echo.Context) error {
	return destroy(ctx, "deleting course date", api.svc.DeleteDate)
}

// Venues

func (api *courseApi) queryVenues(ctx echo.Context) error {
	filter, ordering, err := courseFilter(ctx)
	if err != nil {
		return err
	}
	venues, err := api.svc.QueryVenues(ctx.Request().Context(), filter, ordering)
	if err != nil {
		return errors.Wrap(err, "querying venues")
	}
	return ctx.JSON(http.StatusOK, nonNil(venues))
}

func (api *courseApi) createVenue(ctx echo.Context) error {
	var data course.NewVenue
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewVenue")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	venue, err := api.svc.CreateVenue(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating venue")
	}
	return ctx.JSON(http.StatusCreated, venue)
}

func (api *courseApi) retrieveVenue(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	venue, err := api.svc.GetVenue(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting venue")
	}
	return ctx.JSON(http.StatusOK, venue)
}

func (api *courseApi) updateVenue(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data course.UpdateVenue
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateVenue")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	venue, err := api.svc.UpdateVenue(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating venue")
	}
	return ctx.JSON(http.StatusOK, venue)
}

func (api *courseApi) destroyVenue(ctx echo.Context) error {
	return destroy(ctx, "deleting venue", api.svc.DeleteVenue)
}

// Contacts

func (api *courseApi) queryContacts(ctx echo.Context) error {
	filter, ordering, err := courseFilter(ctx)
	if err != nil {
		return err
	}
	contacts, err := api.svc.QueryContacts(ctx.Request().Context(), filter, ordering)
	if err != nil {
		return errors.Wrap(err, "querying contacts")
	}
	return ctx.JSON(http.StatusOK, nonNil(contacts))
}

func (api *courseApi) createContact(ctx echo.Context) error {
	var data course.NewContact
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewContact")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	contact, err := api.svc.CreateContact(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating contact")
	}
	return ctx.JSON(http.StatusCreated, contact)
}

func (api *courseApi) retrieveContact(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	contact, err := api.svc.GetContact(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting contact")
	}
	return ctx.JSON(http.StatusOK, contact)
}

func (api *courseApi) updateContact(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data course.UpdateContact
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateContact")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	contact, err := api.svc.UpdateContact(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating contact")
	}
	return ctx.JSON(http.StatusOK, contact)
}

func (api *courseApi) destroyContact(ctx echo.Context) error {
	return destroy(ctx, "deleting contact", api.svc.DeleteContact)
}

func destroy(ctx echo.Context, op string, del func(context.Context, int) error) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	if err = del(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, op)
	}
	return ctx.NoContent(http.StatusNoContent)
}
