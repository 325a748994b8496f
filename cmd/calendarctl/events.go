package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mycelian/calendar-sync/client"
	"github.com/mycelian/calendar-sync/internal/app"
	"github.com/mycelian/calendar-sync/internal/eventdate"
	"github.com/mycelian/calendar-sync/internal/ics"
	"github.com/mycelian/calendar-sync/state/calendar"
)

func newEventsCmd(f *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Manage calendar events",
	}
	cmd.AddCommand(newEventsListCmd(f))
	cmd.AddCommand(newEventsCreateCmd(f))
	cmd.AddCommand(newEventsUpdateCmd(f))
	cmd.AddCommand(newEventsDeleteCmd(f))
	cmd.AddCommand(newEventsExportCmd(f))
	cmd.AddCommand(newEventsImportCmd(f))
	return cmd
}

// loadEvents resumes the session and fetches the listing.
func loadEvents(ctx context.Context, a *app.App) error {
	if err := requireSession(ctx, a); err != nil {
		return err
	}
	return a.Calendar.StartLoadingEvents(ctx)
}

func findEvent(a *app.App, id string) (calendar.Event, error) {
	ev, ok := a.Store.Calendar().FindByID(id)
	if !ok {
		return calendar.Event{}, fmt.Errorf("event %s not found", id)
	}
	return ev, nil
}

// explainMissing rewords a 404 for an event that was listed moments ago.
func explainMissing(id string, err error) error {
	if client.IsNotFound(err) {
		return fmt.Errorf("event %s no longer exists on the server: %w", id, err)
	}
	return err
}

func printEvent(out io.Writer, ev calendar.Event) {
	fmt.Fprintf(out, "%s\t%s\t%s\t%s", ev.ID, eventdate.Format(ev.Start), eventdate.Format(ev.End), ev.Title)
	if ev.User.Name != "" {
		fmt.Fprintf(out, "\t(%s)", ev.User.Name)
	}
	fmt.Fprintln(out)
}

func newEventsListCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.run(cmd, func(ctx context.Context, a *app.App, out io.Writer) error {
				if err := loadEvents(ctx, a); err != nil {
					return err
				}
				for _, ev := range a.Calendar.Events() {
					printEvent(out, ev)
				}
				return nil
			})
		},
	}
}

type eventFlags struct {
	title, notes, start, end string
}

func (ef *eventFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&ef.title, "title", "", "Event title")
	cmd.Flags().StringVar(&ef.notes, "notes", "", "Event notes")
	cmd.Flags().StringVar(&ef.start, "start", "", "Start time (RFC 3339)")
	cmd.Flags().StringVar(&ef.end, "end", "", "End time (RFC 3339)")
}

// apply copies the flags the user set onto ev.
func (ef *eventFlags) apply(cmd *cobra.Command, ev *calendar.Event) error {
	if cmd.Flags().Changed("title") {
		ev.Title = ef.title
	}
	if cmd.Flags().Changed("notes") {
		ev.Notes = ef.notes
	}
	if cmd.Flags().Changed("start") {
		t, err := eventdate.Parse(ef.start)
		if err != nil {
			return fmt.Errorf("--start: %w", err)
		}
		ev.Start = t
	}
	if cmd.Flags().Changed("end") {
		t, err := eventdate.Parse(ef.end)
		if err != nil {
			return fmt.Errorf("--end: %w", err)
		}
		ev.End = t
	}
	return nil
}

func newEventsCreateCmd(f *rootFlags) *cobra.Command {
	ef := &eventFlags{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an event",
		RunE: func(cmd *cobra.Command, args []string) error {
			var draft calendar.Event
			if err := ef.apply(cmd, &draft); err != nil {
				return err
			}
			return f.run(cmd, func(ctx context.Context, a *app.App, out io.Writer) error {
				if err := requireSession(ctx, a); err != nil {
					return err
				}
				if err := a.Calendar.StartSavingEvent(ctx, draft); err != nil {
					return err
				}
				events := a.Calendar.Events()
				printEvent(out, events[len(events)-1])
				return nil
			})
		},
	}
	ef.register(cmd)
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newEventsUpdateCmd(f *rootFlags) *cobra.Command {
	ef := &eventFlags{}
	var id string
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change fields of an existing event",
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.run(cmd, func(ctx context.Context, a *app.App, out io.Writer) error {
				if err := loadEvents(ctx, a); err != nil {
					return err
				}
				ev, err := findEvent(a, id)
				if err != nil {
					return err
				}
				if err := ef.apply(cmd, &ev); err != nil {
					return err
				}
				if err := a.Calendar.StartSavingEvent(ctx, ev); err != nil {
					return explainMissing(id, err)
				}
				updated, _ := a.Store.Calendar().FindByID(id)
				printEvent(out, updated)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Event id (required)")
	ef.register(cmd)
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newEventsDeleteCmd(f *rootFlags) *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete an event",
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.run(cmd, func(ctx context.Context, a *app.App, out io.Writer) error {
				if err := loadEvents(ctx, a); err != nil {
					return err
				}
				ev, err := findEvent(a, id)
				if err != nil {
					return err
				}
				a.Calendar.SetActiveEvent(ev)
				return explainMissing(id, a.Calendar.StartDeletingEvent(ctx))
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Event id (required)")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newEventsExportCmd(f *rootFlags) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write events as iCalendar",
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.run(cmd, func(ctx context.Context, a *app.App, out io.Writer) error {
				if err := loadEvents(ctx, a); err != nil {
					return err
				}
				w := out
				if path != "-" {
					file, err := os.Create(path)
					if err != nil {
						return err
					}
					defer file.Close()
					w = file
				}
				return ics.Export(w, a.Calendar.Events(), time.Now())
			})
		},
	}
	cmd.Flags().StringVarP(&path, "out", "o", "-", "Output file, - for stdout")
	return cmd
}

func newEventsImportCmd(f *rootFlags) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Create events from an iCalendar file",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(path)
			if err != nil {
				return err
			}
			defer file.Close()
			drafts, err := ics.Import(file)
			if err != nil {
				return err
			}
			return f.run(cmd, func(ctx context.Context, a *app.App, out io.Writer) error {
				if err := requireSession(ctx, a); err != nil {
					return err
				}
				for _, d := range drafts {
					if err := a.Calendar.StartSavingEvent(ctx, d); err != nil {
						return err
					}
				}
				fmt.Fprintf(out, "Imported %d events\n", len(drafts))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&path, "in", "i", "", "iCalendar file (required)")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}
