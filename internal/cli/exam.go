package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"exam-service/internal/app"
	"exam-service/internal/domain"
	"exam-service/internal/transport/console"
	"github.com/spf13/cobra"
)

// NewExamCmd groups the console authoring commands.
func NewExamCmd(configPath *string) *cobra.Command {
	var creds credentials
	cmd := &cobra.Command{
		Use:   "exam",
		Short: "Manage exams and their questions",
	}
	creds.bind(cmd)
	cmd.AddCommand(
		newExamAddCmd(configPath, &creds),
		newExamListCmd(configPath),
		newExamShowCmd(configPath, &creds),
		newExamRemoveCmd(configPath, &creds),
		newExamAddQuestionCmd(configPath, &creds),
	)
	return cmd
}

func newExamAddCmd(configPath *string, creds *credentials) *cobra.Command {
	var (
		name     string
		date     string
		duration int
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an exam (prompts for missing fields)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsole(cmd, *configPath, func(ctx context.Context, svc *services, p *console.Presenter) error {
				user, err := creds.loginAdmin(ctx, svc, p)
				if err != nil {
					return showFailure(ctx, p, err)
				}
				in, err := promptExam(ctx, p, name, date, duration)
				if err != nil {
					return showFailure(ctx, p, err)
				}
				exam, err := svc.catalog.AddExam(ctx, user, in)
				if err != nil {
					return showFailure(ctx, p, err)
				}
				return p.ShowInfo(fmt.Sprintf("Exam %d %q created for %s.", exam.ID, exam.Name, exam.DateString()))
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "exam name")
	cmd.Flags().StringVar(&date, "date", "", "exam date, YYYY-MM-DD (defaults to today)")
	cmd.Flags().IntVar(&duration, "duration", 0, "duration in minutes")
	return cmd
}

func promptExam(ctx context.Context, p *console.Presenter, name, date string, duration int) (app.NewExam, error) {
	var err error
	if name == "" {
		if name, err = p.AskText(ctx, "Exam name", ""); err != nil {
			return app.NewExam{}, err
		}
	}
	if date == "" {
		today := time.Now().Format(domain.DateLayout)
		if date, err = p.AskText(ctx, "Exam date (YYYY-MM-DD)", today); err != nil {
			return app.NewExam{}, err
		}
	}
	parsed, err := time.Parse(domain.DateLayout, date)
	if err != nil {
		return app.NewExam{}, fmt.Errorf("%w: date must be YYYY-MM-DD", domain.ErrValidation)
	}
	if duration == 0 {
		if duration, err = p.AskNumber(ctx, "Duration (minutes)"); err != nil {
			return app.NewExam{}, err
		}
	}
	return app.NewExam{Name: name, Date: parsed, DurationMinutes: duration}, nil
}

func newExamListCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List exams",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsole(cmd, *configPath, func(ctx context.Context, svc *services, p *console.Presenter) error {
				exams, err := svc.catalog.ListExams(ctx)
				if err != nil {
					return showFailure(ctx, p, err)
				}
				if len(exams) == 0 {
					return p.ShowInfo("No exams yet.")
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tDATE\tMINUTES\tQUESTIONS")
				for _, e := range exams {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\n", e.ID, e.Name, e.DateString(), e.DurationMinutes, e.QuestionsCount)
				}
				return tw.Flush()
			})
		},
	}
}

func newExamShowCmd(configPath *string, creds *credentials) *cobra.Command {
	return &cobra.Command{
		Use:   "show <exam-id>",
		Short: "Show an exam; admins also see its questions and answer key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseExamID(args[0])
			if err != nil {
				return err
			}
			return runConsole(cmd, *configPath, func(ctx context.Context, svc *services, p *console.Presenter) error {
				exam, ok, err := svc.catalog.GetExam(ctx, id)
				if err != nil {
					return showFailure(ctx, p, err)
				}
				if !ok {
					return showFailure(ctx, p, domain.ErrNotFound)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s (#%d)\nDate: %s\nDuration: %d minutes\nQuestions: %d\nCreated by: %s\n",
					exam.Name, exam.ID, exam.DateString(), exam.DurationMinutes, exam.QuestionsCount, exam.CreatedBy)
				if creds.username == "" {
					return nil
				}
				user, err := creds.login(ctx, svc, p)
				if err != nil {
					return showFailure(ctx, p, err)
				}
				if !user.CanManageCatalog() {
					return nil
				}
				questions, err := svc.bank.QuestionsFor(ctx, id)
				if err != nil {
					return showFailure(ctx, p, err)
				}
				for i, q := range questions {
					fmt.Fprintf(out, "\n%d. %s [%d pt]\n", i+1, q.Text, q.Points)
					for j, opt := range q.Options {
						marker := " "
						if q.IsCorrect(j) {
							marker = "*"
						}
						fmt.Fprintf(out, "  %s %d) %s\n", marker, j+1, opt)
					}
				}
				return nil
			})
		},
	}
}

func newExamRemoveCmd(configPath *string, creds *credentials) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <exam-id>",
		Short: "Delete an exam with its questions and recorded answers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseExamID(args[0])
			if err != nil {
				return err
			}
			return runConsole(cmd, *configPath, func(ctx context.Context, svc *services, p *console.Presenter) error {
				user, err := creds.loginAdmin(ctx, svc, p)
				if err != nil {
					return showFailure(ctx, p, err)
				}
				if err := svc.catalog.RemoveExam(ctx, user, id); err != nil {
					return showFailure(ctx, p, err)
				}
				return p.ShowInfo(fmt.Sprintf("Exam %d removed.", id))
			})
		},
	}
}

func newExamAddQuestionCmd(configPath *string, creds *credentials) *cobra.Command {
	return &cobra.Command{
		Use:   "add-question <exam-id>",
		Short: "Add a multiple-choice question to an exam",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseExamID(args[0])
			if err != nil {
				return err
			}
			return runConsole(cmd, *configPath, func(ctx context.Context, svc *services, p *console.Presenter) error {
				user, err := creds.loginAdmin(ctx, svc, p)
				if err != nil {
					return showFailure(ctx, p, err)
				}
				in, err := promptQuestion(ctx, p, id)
				if err != nil {
					return showFailure(ctx, p, err)
				}
				q, err := svc.bank.AddQuestion(ctx, user, in)
				if err != nil {
					return showFailure(ctx, p, err)
				}
				return p.ShowInfo(fmt.Sprintf("Question %d added to exam %d.", q.ID, id))
			})
		},
	}
}

func promptQuestion(ctx context.Context, p *console.Presenter, examID int64) (app.NewQuestion, error) {
	in := app.NewQuestion{ExamID: examID}
	var err error
	if in.Text, err = p.AskText(ctx, "Question text", ""); err != nil {
		return in, err
	}
	count, err := p.AskNumber(ctx, "Number of options")
	if err != nil {
		return in, err
	}
	for i := 1; i <= count; i++ {
		opt, err := p.AskText(ctx, fmt.Sprintf("Option %d", i), "")
		if err != nil {
			return in, err
		}
		in.Options = append(in.Options, opt)
	}
	correct, err := p.AskNumber(ctx, "Correct option number")
	if err != nil {
		return in, err
	}
	in.CorrectOptionIndex = correct - 1
	points, err := p.AskText(ctx, "Points", "1")
	if err != nil {
		return in, err
	}
	if in.Points, err = strconv.Atoi(points); err != nil {
		return in, fmt.Errorf("%w: points must be a whole number", domain.ErrValidation)
	}
	return in, nil
}

func parseExamID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("exam id must be a positive integer, got %q", raw)
	}
	return id, nil
}
