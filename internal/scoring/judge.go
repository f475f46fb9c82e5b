package scoring

import (
	"regexp"
	"strings"

	"github.com/tomorunn/zisaku/internal/domain"
)

// answerPattern is the only accepted answer shape: one or more ASCII
// digits. Matching happens after surrounding whitespace is trimmed.
var answerPattern = regexp.MustCompile(`^[0-9]+$`)

// JudgeInput carries everything the judge needs to decide one attempt.
// It is assembled by the submission service from the contest snapshot;
// the judge itself touches no storage.
type JudgeInput struct {
	State            domain.ContestState
	SubmitterManages bool    // submitter holds organizer rights on this contest
	PriorAttempts    int64   // ledger rows already spent on this (user, problem)
	AttemptLimit     int     // per-problem cap, enforced only while active
	Answer           string  // raw answer as received
	CorrectAnswer    *string // nil when the problem cannot be judged
}

// Judge validates one incoming answer and produces its verdict. The checks
// run in a fixed order and the first failure is terminal for the attempt:
//
//  1. organizers may not submit to their own contest while it is active
//  2. the per-problem attempt limit applies, but only while active
//  3. the trimmed answer must be an unsigned integer string
//
// A surviving answer is compared to the stored one by exact string
// equality, so "007" does not match "7". Problems without a stored answer
// yield an unjudged verdict rather than an error. The returned string is
// the trimmed answer that should be appended to the ledger.
func Judge(in JudgeInput) (string, domain.Verdict, error) {
	if in.State == domain.ContestActive && in.SubmitterManages {
		return "", "", domain.ErrOrganizerSubmission
	}
	if in.State == domain.ContestActive && in.PriorAttempts >= int64(in.AttemptLimit) {
		return "", "", domain.ErrSubmissionLimitReached
	}

	answer := strings.TrimSpace(in.Answer)
	if !answerPattern.MatchString(answer) {
		return "", "", domain.ErrInvalidAnswerFormat
	}

	if in.CorrectAnswer == nil {
		return answer, domain.VerdictUnjudged, nil
	}
	if answer == strings.TrimSpace(*in.CorrectAnswer) {
		return answer, domain.VerdictAccepted, nil
	}
	return answer, domain.VerdictWrong, nil
}
