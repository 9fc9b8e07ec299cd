package service

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// formatMl renders 2500 as "2,500 ml".
func formatMl(ml int) string {
	return printer.Sprintf("%d ml", ml)
}

func greetingName(name string) string {
	if name == "" {
		return "there"
	}
	return name
}

func welcomeEmailTemplate(name string, dailyGoalMl int, appURL, appName string) (string, string) {
	subject := fmt.Sprintf("Welcome to %s!", appName)
	body := fmt.Sprintf(`Hi %s,

Your daily goal is set to %s. Log every glass and we'll keep track of your streak.

Get started: %s

Stay hydrated,
The %s Team`, greetingName(name), formatMl(dailyGoalMl), appURL, appName)

	return subject, body
}

func reminderEmailTemplate(name string, todayMl, goalMl int, appURL, appName string) (string, string) {
	remaining := max(goalMl-todayMl, 0)

	subject := "Time for a glass of water"
	status := fmt.Sprintf("You've had %s of your %s goal today. %s to go.",
		formatMl(todayMl), formatMl(goalMl), formatMl(remaining))
	if remaining == 0 {
		subject = "Goal reached, keep it up"
		status = fmt.Sprintf("You've already reached your %s goal today. Nice work.", formatMl(goalMl))
	}

	body := fmt.Sprintf(`Hi %s,

%s

Log a drink: %s

The %s Team`, greetingName(name), status, appURL, appName)

	return subject, body
}

func accountDeletedEmailTemplate(name, appName string) (string, string) {
	subject := fmt.Sprintf("Your %s account has been deleted", appName)
	body := fmt.Sprintf(`Hi %s,

Your account has been permanently deleted from %s, including your intake history, achievements and reminder settings.

If you didn't request this deletion, please contact us right away.

The %s Team`, greetingName(name), appName, appName)

	return subject, body
}
