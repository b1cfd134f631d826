package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kozi/core"
	"github.com/trezcool/kozi/core/curriculum"
)

type curriculumApi struct {
	svc      *curriculum.Service
	validate *validator.Validate
}

func registerCurriculumAPI(g *echo.Group, svc *curriculum.Service, validate *validator.Validate) {
	api := curriculumApi{svc: svc, validate: validate}

	sg := g.Group("/subjects")
	sg.GET("", api.querySubjects)
	sg.POST("", api.createSubject)
	sg.GET("/:id", api.retrieveSubject)
	sg.PUT("/:id", api.updateSubject)
	sg.DELETE("/:id", api.destroySubject)

	dg := g.Group("/days")
	dg.GET("", api.queryDays)
	dg.POST("", api.createDay)
	dg.GET("/:id", api.retrieveDay)
	dg.PUT("/:id", api.updateDay)
	dg.DELETE("/:id", api.destroyDay)
	dg.GET("/:id/tree", api.dayTree)
	dg.GET("/:id/subjects", api.checklist(curriculum.DaySubjects))
	dg.PUT("/:id/subjects", api.setChecklist(curriculum.DaySubjects))

	smg := g.Group("/seminars")
	smg.GET("", api.querySeminars)
	smg.POST("", api.createSeminar)
	smg.GET("/:id", api.retrieveSeminar)
	smg.PUT("/:id", api.updateSeminar)
	smg.DELETE("/:id", api.destroySeminar)
	smg.GET("/:id/tree", api.seminarTree)
	smg.GET("/:id/days", api.checklist(curriculum.SeminarDays))
	smg.PUT("/:id/days", api.setChecklist(curriculum.SeminarDays))

	cdg := g.Group("/course-designs")
	cdg.GET("", api.queryCourseDesigns)
	cdg.POST("", api.createCourseDesign)
	cdg.GET("/:id", api.retrieveCourseDesign)
	cdg.PUT("/:id", api.updateCourseDesign)
	cdg.DELETE("/:id", api.destroyCourseDesign)
	cdg.GET("/:id/tree", api.courseDesignTree)
	cdg.GET("/:id/seminars", api.checklist(curriculum.CourseSeminars))
	cdg.PUT("/:id/seminars", api.setChecklist(curriculum.CourseSeminars))
}

// queryFilter builds the list filter: namespaced (course-private) rows are hidden unless `all=true`.
func queryFilter(ctx echo.Context) (*curriculum.QueryFilter, []core.DBOrdering, error) {
	params, err := bindListParams(ctx)
	if err != nil {
		return nil, nil, err
	}
	filter := &curriculum.QueryFilter{Search: params.Search, TemplatesOnly: !params.All}
	filter.Clean()
	return filter, params.Orderings, nil
}

// Subjects

func (api *curriculumApi) querySubjects(ctx echo.Context) error {
	filter, ordering, err := queryFilter(ctx)
	if err != nil {
		return err
	}
	subs, err := api.svc.QuerySubjects(ctx.Request().Context(), filter, ordering)
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	return ctx.JSON(http.StatusOK, nonNil(subs))
}

func (api *curriculumApi) createSubject(ctx echo.Context) error {
	var data curriculum.NewSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubject")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sub, err := api.svc.CreateSubject(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating subject")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *curriculumApi) retrieveSubject(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	sub, err := api.svc.GetSubject(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting subject")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *curriculumApi) updateSubject(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data curriculum.UpdateSubject
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSubject")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	sub, err := api.svc.UpdateSubject(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating subject")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *curriculumApi) destroySubject(ctx echo.Context) error {
	return destroy(ctx, "deleting subject", api.svc.DeleteSubject)
}

// Days

func (api *curriculumApi) queryDays(ctx echo.Context) error {
	filter, ordering, err := queryFilter(ctx)
	if err != nil {
		return err
	}
	days, err := api.svc.QueryDays(ctx.Request().Context(), filter, ordering)
	if err != nil {
		return errors.Wrap(err, "querying days")
	}
	return ctx.JSON(http.StatusOK, nonNil(days))
}

func (api *curriculumApi) createDay(ctx echo.Context) error {
	data, err := api.bindNewDetails(ctx)
	if err != nil {
		return err
	}
	day, err := api.svc.CreateDay(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating day")
	}
	return ctx.JSON(http.StatusCreated, day)
}

func (api *curriculumApi) retrieveDay(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	day, err := api.svc.GetDay(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting day")
	}
	return ctx.JSON(http.StatusOK, day)
}

func (api *curriculumApi) updateDay(ctx echo.Context) error {
	id, data, err := api.bindUpdateDetails(ctx)
	if err != nil {
		return err
	}
	day, err := api.svc.UpdateDay(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating day")
	}
	return ctx.JSON(http.StatusOK, day)
}

func (api *curriculumApi) destroyDay(ctx echo.Context) error {
	return destroy(ctx, "deleting day", api.svc.DeleteDay)
}

func (api *curriculumApi) dayTree(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	day, err := api.svc.GetDayTree(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting day tree")
	}
	return ctx.JSON(http.StatusOK, day)
}

// Seminars

func (api *curriculumApi) querySeminars(ctx echo.Context) error {
	filter, ordering, err := queryFilter(ctx)
	if err != nil {
		return err
	}
	sems, err := api.svc.QuerySeminars(ctx.Request().Context(), filter, ordering)
	if err != nil {
		return errors.Wrap(err, "querying seminars")
	}
	return ctx.JSON(http.StatusOK, nonNil(sems))
}

func (api *curriculumApi) createSeminar(ctx echo.Context) error {
	data, err := api.bindNewDetails(ctx)
	if err != nil {
		return err
	}
	sem, err := api.svc.CreateSeminar(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating seminar")
	}
	return ctx.JSON(http.StatusCreated, sem)
}

func (api *curriculumApi) retrieveSeminar(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	sem, err := api.svc.GetSeminar(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting seminar")
	}
	return ctx.JSON(http.StatusOK, sem)
}

func (api *curriculumApi) updateSeminar(ctx echo.Context) error {
	id, data, err := api.bindUpdateDetails(ctx)
	if err != nil {
		return err
	}
	sem, err := api.svc.UpdateSeminar(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating seminar")
	}
	return ctx.JSON(http.StatusOK, sem)
}

func (api *curriculumApi) destroySeminar(ctx echo.Context) error {
	return destroy(ctx, "deleting seminar", api.svc.DeleteSeminar)
}

func (api *curriculumApi) seminarTree(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	sem, err := api.svc.GetSeminarTree(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting seminar tree")
	}
	return ctx.JSON(http.StatusOK, sem)
}

// Course Designs

func (api *curriculumApi) queryCourseDesigns(ctx echo.Context) error {
	filter, ordering, err := queryFilter(ctx)
	if err != nil {
		return err
	}
	cds, err := api.svc.QueryCourseDesigns(ctx.Request().Context(), filter, ordering)
	if err != nil {
		return errors.Wrap(err, "querying course designs")
	}
	return ctx.JSON(http.StatusOK, nonNil(cds))
}

func (api *curriculumApi) createCourseDesign(ctx echo.Context) error {
	data, err := api.bindNewDetails(ctx)
	if err != nil {
		return err
	}
	cd, err := api.svc.CreateCourseDesign(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course design")
	}
	return ctx.JSON(http.StatusCreated, cd)
}

func (api *curriculumApi) retrieveCourseDesign(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	cd, err := api.svc.GetCourseDesign(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting course design")
	}
	return ctx.JSON(http.StatusOK, cd)
}

func (api *curriculumApi) updateCourseDesign(ctx echo.Context) error {
	id, data, err := api.bindUpdateDetails(ctx)
	if err != nil {
		return err
	}
	cd, err := api.svc.UpdateCourseDesign(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating course design")
	}
	return ctx.JSON(http.StatusOK, cd)
}

func (api *curriculumApi) destroyCourseDesign(ctx echo.Context) error {
	return destroy(ctx, "deleting course design", api.svc.DeleteCourseDesign)
}

func (api *curriculumApi) courseDesignTree(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	cd, err := api.svc.GetCourseDesignTree(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting course design tree")
	}
	return ctx.JSON(http.StatusOK, cd)
}

// Checklists

func (api *curriculumApi) checklist(kind curriculum.LinkKind) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		id, err := idParam(ctx)
		if err != nil {
			return err
		}
		entries, err := api.svc.Checklist(ctx.Request().Context(), kind, id)
		if err != nil {
			return errors.Wrapf(err, "getting %s checklist", kind)
		}
		return ctx.JSON(http.StatusOK, nonNil(entries))
	}
}

// setChecklist applies the submitted selection and responds with the parent's tree.
func (api *curriculumApi) setChecklist(kind curriculum.LinkKind) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		id, err := idParam(ctx)
		if err != nil {
			return err
		}
		var items []curriculum.CheckItem
		if err = ctx.Bind(&items); err != nil {
			return errors.Wrap(err, "binding to []CheckItem")
		}

		var tree interface{}
		reqCtx := ctx.Request().Context()
		switch kind {
		case curriculum.DaySubjects:
			tree, err = api.svc.SetDaySubjects(reqCtx, id, items)
		case curriculum.SeminarDays:
			tree, err = api.svc.SetSeminarDays(reqCtx, id, items)
		case curriculum.CourseSeminars:
			tree, err = api.svc.SetCourseDesignSeminars(reqCtx, id, items)
		}
		if err != nil {
			return errors.Wrapf(err, "setting %s checklist", kind)
		}
		return ctx.JSON(http.StatusOK, tree)
	}
}

// helpers

func (api *curriculumApi) bindNewDetails(ctx echo.Context) (curriculum.NewDetails, error) {
	var data curriculum.NewDetails
	if err := ctx.Bind(&data); err != nil {
		return data, errors.Wrap(err, "binding to NewDetails")
	}
	if err := data.Validate(api.validate); err != nil {
		return data, err
	}
	return data, nil
}

func (api *curriculumApi) bindUpdateDetails(ctx echo.Context) (int, curriculum.UpdateDetails, error) {
	var data curriculum.UpdateDetails
	id, err := idParam(ctx)
	if err != nil {
		return 0, data, err
	}
	if err = ctx.Bind(&data); err != nil {
		return 0, data, errors.Wrap(err, "binding to UpdateDetails")
	}
	if err = data.Validate(api.validate); err != nil {
		return 0, data, err
	}
	return id, data, nil
}
