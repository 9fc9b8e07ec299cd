package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/templui/hydrate/internal/app"
	"github.com/templui/hydrate/internal/service"
)

func UserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	cmd.AddCommand(userCreateCmd())
	return cmd
}

func userCreateCmd() *cobra.Command {
	var (
		in       service.CreateUserInput
		weightKg float64
		goalMl   int
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user (returns the existing id for a known email)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("weight") {
				in.WeightKg = &weightKg
			}
			if cmd.Flags().Changed("goal") {
				in.DailyGoalMl = &goalMl
			}

			return withApp(cmd.Context(), func(a *app.App) error {
				id, err := a.UserService.CreateUser(cmd.Context(), in)
				if err != nil {
					return err
				}
				profile, err := a.UserService.Profile(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tgoal %d ml\n", id, in.Email, profile.DailyGoalMl)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&in.Email, "email", "", "email address")
	cmd.Flags().StringVar(&in.Name, "name", "", "display name")
	cmd.Flags().StringVar(&in.Password, "password", "", "password (optional, users without one cannot log in)")
	cmd.Flags().Float64Var(&weightKg, "weight", 0, "body weight in kg")
	cmd.Flags().StringVar(&in.ActivityLevel, "activity", "", "activity level: low, moderate or high")
	cmd.Flags().StringVar(&in.Climate, "climate", "", "climate: cool, temperate or hot")
	cmd.Flags().IntVar(&goalMl, "goal", 0, "explicit daily goal in ml")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
