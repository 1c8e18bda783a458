package bot

import (
	"strings"
	"time"

	"leavedesk/internal/leave"
)

// Action tells the runner what to do after a step transition. Steps that
// merely collect a field return ActionNone.
type Action int

const (
	ActionNone Action = iota
	// ActionRegister means the registration dialogue is complete.
	ActionRegister
	// ActionAskReplacement means all leave fields are collected and the
	// runner should offer the replacement candidates.
	ActionAskReplacement
)

type Result struct {
	Replies []string
	Action  Action
}

func reply(texts ...string) Result {
	return Result{Replies: texts}
}

// Advance is the dialogue transition function: given the current session and
// a text input, it mutates the session to the next step and says what to send
// back. Invalid input re-prompts on the same step, never aborts. now anchors
// the past-date check.
func Advance(s *Session, input string, now time.Time) Result {
	input = strings.TrimSpace(input)

	switch s.Step {
	case StepRegisterName:
		if input == "" {
			return reply("Please send your full name.")
		}
		s.Draft.FullName = input
		s.Step = StepRegisterDepartment
		return reply("Which department are you in?")

	case StepRegisterDepartment:
		s.Draft.Department = input
		return Result{
			Replies: []string{"Thanks! Sending your registration."},
			Action:  ActionRegister,
		}

	case StepLeaveKind:
		return reply("Please choose the leave type using the buttons.")

	case StepLeaveStart:
		date, err := time.Parse(leave.DateLayout, input)
		if err != nil {
			return reply("That doesn't look like a date. Please send it as YYYY-MM-DD.")
		}
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		if date.Before(today) {
			return reply("The start date can't be in the past. Please send another date.")
		}
		s.Draft.StartDate = input
		if s.Draft.Kind == leave.KindHourly {
			s.Draft.EndDate = input
			s.Step = StepLeaveStartTime
			return reply("What time does it start? (HH:MM)")
		}
		s.Step = StepLeaveEnd
		return reply("What is the last day of your leave? (YYYY-MM-DD, or repeat the start date for a single day)")

	case StepLeaveEnd:
		end, err := time.Parse(leave.DateLayout, input)
		if err != nil {
			return reply("That doesn't look like a date. Please send it as YYYY-MM-DD.")
		}
		start, _ := time.Parse(leave.DateLayout, s.Draft.StartDate)
		if end.Before(start) {
			return reply("The end date can't be before the start date. Please send it again.")
		}
		s.Draft.EndDate = input
		s.Step = StepLeaveReason
		return reply("What is the reason for your leave?")

	case StepLeaveStartTime:
		if _, err := time.Parse(leave.TimeLayout, input); err != nil {
			return reply("That doesn't look like a time. Please send it as HH:MM.")
		}
		s.Draft.StartTime = input
		s.Step = StepLeaveEndTime
		return reply("And when does it end? (HH:MM)")

	case StepLeaveEndTime:
		if _, err := time.Parse(leave.TimeLayout, input); err != nil {
			return reply("That doesn't look like a time. Please send it as HH:MM.")
		}
		if _, err := leave.LeaveHours(s.Draft.StartTime, input); err != nil {
			return reply("The end time must be after the start time. Please send it again.")
		}
		s.Draft.EndTime = input
		s.Step = StepLeaveReason
		return reply("What is the reason for your leave?")

	case StepLeaveReason:
		s.Draft.Reason = input
		s.Step = StepLeaveReplacement
		return Result{
			Replies: []string{"Who will cover for you while you're away?"},
			Action:  ActionAskReplacement,
		}
	}

	return reply("Send /start to begin.")
}
