package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trezcool/kozi/core"
	"github.com/trezcool/kozi/core/curriculum"
)

const (
	demoDesign  = "CourseDesign1"
	demoSeminar = "Seminar1"
	demoDay     = "Day1"
	demoSubject = "Introduction"
)

func (cli *commandLine) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the demo template design",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cd, err := cli.seed(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "template %q ready (id=%d)\n", cd.Name, cd.ID)
			return nil
		},
	}
}

// seed creates "CourseDesign1" > "Seminar1" > "Day1" > "Introduction", reusing the templates already named so.
func (cli *commandLine) seed(ctx context.Context) (cd curriculum.CourseDesign, err error) {
	svc := cli.curriculum
	err = cli.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		sub, err := findOrCreate(ctx, demoSubject, svc.QuerySubjects, func(ctx context.Context) (curriculum.Subject, error) {
			return svc.CreateSubject(ctx, curriculum.NewSubject{
				Name:            demoSubject,
				Description:     demoSubject + " description",
				RequiredReading: "Chapter 1",
			})
		}, func(s curriculum.Subject) string { return s.Name })
		if err != nil {
			return err
		}

		day, err := findOrCreate(ctx, demoDay, svc.QueryDays, func(ctx context.Context) (curriculum.Day, error) {
			return svc.CreateDay(ctx, curriculum.NewDetails{Name: demoDay, Description: demoDay + " description"})
		}, func(d curriculum.Day) string { return d.Name })
		if err != nil {
			return err
		}
		if _, err = svc.SetDaySubjects(ctx, day.ID, []curriculum.CheckItem{{ID: sub.ID, Selected: true}}); err != nil {
			return err
		}

		sem, err := findOrCreate(ctx, demoSeminar, svc.QuerySeminars, func(ctx context.Context) (curriculum.Seminar, error) {
			return svc.CreateSeminar(ctx, curriculum.NewDetails{Name: demoSeminar, Description: demoSeminar + " description"})
		}, func(s curriculum.Seminar) string { return s.Name })
		if err != nil {
			return err
		}
		if _, err = svc.SetSeminarDays(ctx, sem.ID, []curriculum.CheckItem{{ID: day.ID, Selected: true}}); err != nil {
			return err
		}

		cd, err = findOrCreate(ctx, demoDesign, svc.QueryCourseDesigns, func(ctx context.Context) (curriculum.CourseDesign, error) {
			return svc.CreateCourseDesign(ctx, curriculum.NewDetails{Name: demoDesign, Description: demoDesign + " description"})
		}, func(d curriculum.CourseDesign) string { return d.Name })
		if err != nil {
			return err
		}
		_, err = svc.SetCourseDesignSeminars(ctx, cd.ID, []curriculum.CheckItem{{ID: sem.ID, Selected: true}})
		return err
	})
	return cd, err
}

// findOrCreate returns the template entity with exactly this name, creating it if there is none.
func findOrCreate[T any](
	ctx context.Context,
	name string,
	query func(ctx context.Context, filter *curriculum.QueryFilter, ordering []core.DBOrdering) ([]T, error),
	create func(ctx context.Context) (T, error),
	nameOf func(T) string,
) (T, error) {
	found, err := query(ctx, &curriculum.QueryFilter{Search: name, TemplatesOnly: true}, nil)
	if err != nil {
		var zero T
		return zero, err
	}
	for _, e := range found {
		if nameOf(e) == name {
			return e, nil
		}
	}
	return create(ctx)
}
