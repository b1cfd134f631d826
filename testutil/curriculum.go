package testutil

import (
	"context"
	"testing"

	"github.com/trezcool/kozi/core/course"
	"github.com/trezcool/kozi/core/curriculum"
)

func CreateSubject(t *testing.T, repo curriculum.Repository, name string, reading ...string) curriculum.Subject {
	t.Helper()
	sub := curriculum.Subject{Name: name, Description: name + " description"}
	if len(reading) > 0 {
		sub.RequiredReading = reading[0]
	}
	sub, err := repo.CreateSubject(context.Background(), sub)
	if err != nil {
		t.Fatalf("CreateSubject() failed: %v", err)
	}
	return sub
}

func CreateDay(t *testing.T, repo curriculum.Repository, name string, subjects ...curriculum.Subject) curriculum.Day {
	t.Helper()
	ctx := context.Background()
	day, err := repo.CreateDay(ctx, curriculum.Day{Name: name, Description: name + " description"})
	if err != nil {
		t.Fatalf("CreateDay() failed: %v", err)
	}
	links := make([]curriculum.Link, 0, len(subjects))
	for _, s := range subjects {
		links = append(links, curriculum.Link{ParentID: day.ID, ChildID: s.ID})
	}
	link(t, repo, curriculum.DaySubjects, links)
	return day
}

func CreateSeminar(t *testing.T, repo curriculum.Repository, name string, days ...curriculum.Day) curriculum.Seminar {
	t.Helper()
	ctx := context.Background()
	sem, err := repo.CreateSeminar(ctx, curriculum.Seminar{Name: name, Description: name + " description"})
	if err != nil {
		t.Fatalf("CreateSeminar() failed: %v", err)
	}
	links := make([]curriculum.Link, 0, len(days))
	for _, d := range days {
		links = append(links, curriculum.Link{ParentID: sem.ID, ChildID: d.ID})
	}
	link(t, repo, curriculum.SeminarDays, links)
	return sem
}

func CreateCourseDesign(t *testing.T, repo curriculum.Repository, name string, seminars ...curriculum.Seminar) curriculum.CourseDesign {
	t.Helper()
	ctx := context.Background()
	cd, err := repo.CreateCourseDesign(ctx, curriculum.CourseDesign{Name: name, Description: name + " description"})
	if err != nil {
		t.Fatalf("CreateCourseDesign() failed: %v", err)
	}
	links := make([]curriculum.Link, 0, len(seminars))
	for _, s := range seminars {
		links = append(links, curriculum.Link{ParentID: cd.ID, ChildID: s.ID})
	}
	link(t, repo, curriculum.CourseSeminars, links)
	return cd
}

func link(t *testing.T, repo curriculum.Repository, kind curriculum.LinkKind, links []curriculum.Link) {
	t.Helper()
	if len(links) == 0 {
		return
	}
	if err := repo.InsertLinks(context.Background(), kind, links...); err != nil {
		t.Fatalf("InsertLinks(%s) failed: %v", kind, err)
	}
}

// Template is the seeded template design: "CourseDesign1" > "Seminar1" > "Day1" > "Introduction".
type Template struct {
	Design  curriculum.CourseDesign
	Seminar curriculum.Seminar
	Day     curriculum.Day
	Subject curriculum.Subject
}

func SeedTemplate(t *testing.T, repo curriculum.Repository) Template {
	t.Helper()
	sub := CreateSubject(t, repo, "Introduction", "Chapter 1")
	day := CreateDay(t, repo, "Day1", sub)
	sem := CreateSeminar(t, repo, "Seminar1", day)
	cd := CreateCourseDesign(t, repo, "CourseDesign1", sem)
	return Template{Design: cd, Seminar: sem, Day: day, Subject: sub}
}

func CreateContact(t *testing.T, repo course.Repository, name, email string) course.Contact {
	t.Helper()
	c, err := repo.CreateContact(context.Background(), course.Contact{Name: name, Email: email})
	if err != nil {
		t.Fatalf("CreateContact() failed: %v", err)
	}
	return c
}

func CreateVenue(t *testing.T, repo course.Repository, name, email string, contacts ...course.Contact) course.Venue {
	t.Helper()
	v := course.Venue{Name: name, Email1: email}
	if len(contacts) > 0 {
		v.Contact1ID = &contacts[0].ID
	}
	if len(contacts) > 1 {
		v.Contact2ID = &contacts[1].ID
	}
	v, err := repo.CreateVenue(context.Background(), v)
	if err != nil {
		t.Fatalf("CreateVenue() failed: %v", err)
	}
	return v
}
