package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/templui/hydrate/internal/app"
	"github.com/templui/hydrate/internal/model"
	"github.com/templui/hydrate/internal/validation"
)

func StatsCmd() *cobra.Command {
	var (
		email string
		days  int
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print a user's daily intake totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days <= 0 || days > 366 {
				return fmt.Errorf("--days must be between 1 and 366")
			}

			return withApp(cmd.Context(), func(a *app.App) error {
				user, err := a.UserService.ByEmail(cmd.Context(), validation.NormalizeEmail(email))
				if err != nil {
					return err
				}
				profile, err := a.UserService.Profile(cmd.Context(), user.ID)
				if err != nil {
					return err
				}
				totals, err := a.IntakeService.DailyTotals(cmd.Context(), user.ID, days)
				if err != nil {
					return err
				}

				p := message.NewPrinter(language.English)
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "DATE\tTOTAL\tINTAKES\tGOAL")
				for _, t := range totals {
					reached := ""
					if t.TotalMl >= profile.DailyGoalMl {
						reached = "yes"
					}
					p.Fprintf(w, "%s\t%d ml\t%d\t%s\n", t.DateKey, t.TotalMl, t.IntakeCount, reached)
				}

				sum := lo.SumBy(totals, func(t model.DailyTotal) int { return t.TotalMl })
				met := lo.CountBy(totals, func(t model.DailyTotal) bool { return t.TotalMl >= profile.DailyGoalMl })
				fmt.Fprintln(w)
				p.Fprintf(w, "total\t%d ml\t\t%d/%d days\n", sum, met, len(totals))
				return w.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "user email")
	cmd.Flags().IntVar(&days, "days", 7, "number of days including today")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
