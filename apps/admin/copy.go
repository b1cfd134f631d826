package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (cli *commandLine) copyCmd() *cobra.Command {
	var designID, courseID int

	cmd := &cobra.Command{
		Use:   "copy",
		Short: "Give a course a fresh copy of a template design",
		Long: `Give a course a fresh copy of a template design.

The private design of the course is deleted and replaced by a new copy of the template.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			crs, err := cli.courses.ReplaceDesign(cmd.Context(), courseID, designID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "course %q now uses design %q (id=%d)\n", crs.Name, crs.CourseDesign.Name, crs.CourseDesignID)
			return nil
		},
	}
	cmd.Flags().IntVar(&designID, "design", 0, "Template course design ID (required)")
	cmd.Flags().IntVar(&courseID, "course", 0, "Course ID (required)")
	_ = cmd.MarkFlagRequired("design")
	_ = cmd.MarkFlagRequired("course")
	return cmd
}
