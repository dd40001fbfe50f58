package mailer

import (
	"fmt"
	"strings"
)

const (
	PlanKindWorkout = "workout"
	PlanKindMeal    = "meal"
)

// PlanNotice describes a plan that was just assigned to a client.
type PlanNotice struct {
	ClientName  string
	ClientEmail string
	Kind        string // workout | meal
	PlanName    string
	CoachID     string
}

// PlanNotifier sends the "new plan" email. A nil sender or a client
// without email turns every call into a no-op.
type PlanNotifier struct {
	sender Sender
}

func NewPlanNotifier(sender Sender) *PlanNotifier {
	return &PlanNotifier{sender: sender}
}

// Notify returns (false, nil) when there was nobody to notify.
func (n *PlanNotifier) Notify(notice PlanNotice) (bool, error) {
	if n == nil || n.sender == nil {
		return false, nil
	}
	to := strings.TrimSpace(notice.ClientEmail)
	if to == "" {
		return false, nil
	}

	subject, body := renderPlanNotice(notice)
	if err := n.sender.Send(to, subject, body); err != nil {
		return false, fmt.Errorf("send plan notice to %s: %w", to, err)
	}
	return true, nil
}

func renderPlanNotice(notice PlanNotice) (string, string) {
	kind := "workout plan"
	if notice.Kind == PlanKindMeal {
		kind = "meal plan"
	}

	planName := strings.TrimSpace(notice.PlanName)
	if planName == "" {
		planName = "Untitled"
	}
	name := strings.TrimSpace(notice.ClientName)
	if name == "" {
		name = "there"
	}

	subject := fmt.Sprintf("New %s: %s", kind, planName)

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\r\n\r\n", name)
	fmt.Fprintf(&b, "Your coach has shared a new %s with you: %q.\r\n", kind, planName)
	b.WriteString("Open the app to see the details.\r\n")
	return subject, b.String()
}
