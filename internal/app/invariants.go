package app

import "untrivially-api/internal/domain"

// MinAnswers is the smallest number of answers a question may have.
const MinAnswers = 2

// EnforceSingleCorrect returns the ids of answers that must be unset so that targetID
// is the only correct answer. An empty targetID means a new answer is about to be
// inserted as correct, so every currently correct answer is returned.
func EnforceSingleCorrect(answers []domain.Answer, targetID string) []string {
	var unset []string
	for _, a := range answers {
		if a.IsCorrect && a.ID != targetID {
			unset = append(unset, a.ID)
		}
	}
	return unset
}

// KeepFirstCorrect clears every correct flag after the first one.
func KeepFirstCorrect(answers []domain.NewAnswer) []domain.NewAnswer {
	out := make([]domain.NewAnswer, len(answers))
	copy(out, answers)
	seen := false
	for i := range out {
		if !out[i].IsCorrect {
			continue
		}
		if seen {
			out[i].IsCorrect = false
		}
		seen = true
	}
	return out
}

// ResolveCorrectOption maps an authoring index onto the generated answer ids.
// Out-of-range indexes resolve to "", leaving the question without a correct answer.
func ResolveCorrectOption(answerIDs []string, index int) string {
	if index < 0 || index >= len(answerIDs) {
		return ""
	}
	return answerIDs[index]
}

// CanDeleteAnswer reports whether a question with count answers may lose one.
func CanDeleteAnswer(count int) bool {
	return count > MinAnswers
}

// CountCorrect returns how many answers are flagged correct.
func CountCorrect(answers []domain.Answer) int {
	n := 0
	for _, a := range answers {
		if a.IsCorrect {
			n++
		}
	}
	return n
}
