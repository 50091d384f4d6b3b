package service

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/msomdec/recruit-dashboard/internal/domain"
)

const (
	minNameLength           = 2
	minPhoneLength          = 7
	minJobDescriptionLength = 20
	minNotesLength          = 10
	minRating               = 1
	maxRating               = 5
)

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func runeLen(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ValidateSchedule checks a schedule request against the form rules. now
// decides what "today" is.
func ValidateSchedule(req domain.ScheduleRequest, now time.Time) error {
	v := &domain.ValidationError{}
	if runeLen(req.CandidateName) < minNameLength {
		v.Add("candidateName", "Name must be at least 2 characters")
	}
	if !validEmail(strings.TrimSpace(req.CandidateEmail)) {
		v.Add("candidateEmail", "Please enter a valid email address")
	}
	if runeLen(req.CandidatePhone) < minPhoneLength {
		v.Add("candidatePhone", "Please enter a valid phone number")
	}
	if req.Date.IsZero() {
		v.Add("date", "Date is required")
	} else if req.Date.In(now.Location()).Before(startOfDay(now)) {
		v.Add("date", "Date must be today or in the future")
	}
	if runeLen(req.JobDescription) < minJobDescriptionLength {
		v.Add("jobDescription", "Job description is required")
	}
	return v.Err()
}

// ValidateFeedback checks ratings are within 1..5 and notes are long enough.
func ValidateFeedback(fb domain.Feedback) error {
	v := &domain.ValidationError{}
	if fb.CommunicationRating < minRating || fb.CommunicationRating > maxRating {
		v.Add("communicationRating", "Communication rating must be between 1 and 5")
	}
	if fb.TechnicalRating < minRating || fb.TechnicalRating > maxRating {
		v.Add("technicalRating", "Technical rating must be between 1 and 5")
	}
	if runeLen(fb.Notes) < minNotesLength {
		v.Add("notes", "Notes must be at least 10 characters")
	}
	return v.Err()
}

// ValidateQuestionRequest requires a detailed job description.
func ValidateQuestionRequest(req domain.QuestionRequest) error {
	v := &domain.ValidationError{}
	if runeLen(req.JobDescription) < minJobDescriptionLength {
		v.Add("jobDescription", "Job description is required and should be detailed")
	}
	return v.Err()
}
