package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/lifeplan/internal/calendar"
	"github.com/julianstephens/lifeplan/internal/constants"
	"github.com/julianstephens/lifeplan/internal/models"
)

type AddFormModel struct {
	Title     string
	Frequency models.FrequencyType
	Days      string
	TimeOfDay string
}

// Activity converts the completed form into a new activity.
func (fm *AddFormModel) Activity() (models.Activity, error) {
	days, err := calendar.ParseWeekdays(fm.Days)
	if err != nil {
		return models.Activity{}, err
	}
	if fm.Frequency != models.FrequencyWeekly {
		days = nil
	}
	return models.Activity{
		Title:         strings.TrimSpace(fm.Title),
		FrequencyType: fm.Frequency,
		ScheduledDays: days,
		TimeOfDay:     strings.TrimSpace(fm.TimeOfDay),
		SourceType:    models.SourceManual,
	}, nil
}

// NewAddForm creates the form for adding an activity.
func NewAddForm(fm *AddFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&fm.Title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("title cannot be empty")
					}
					return nil
				}),
			huh.NewSelect[models.FrequencyType]().
				Title("Frequency").
				Options(
					huh.NewOption("Daily", models.FrequencyDaily),
					huh.NewOption("Weekly", models.FrequencyWeekly),
					huh.NewOption("Monthly (shows on Mondays)", models.FrequencyMonthly),
					huh.NewOption("Once", models.FrequencyOnce),
				).
				Value(&fm.Frequency),
			huh.NewInput().
				Title("Days").
				Description("Weekly only: L,M,X,J,V,S,D or mon..sun; empty means every day").
				Value(&fm.Days).
				Validate(func(s string) error {
					_, err := calendar.ParseWeekdays(s)
					return err
				}),
			huh.NewInput().
				Title("Time of day").
				Description("Optional, HH:MM").
				Value(&fm.TimeOfDay).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					if _, err := time.Parse(constants.TimeFormat, strings.TrimSpace(s)); err != nil {
						return fmt.Errorf("time must be HH:MM")
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeDracula())
}
