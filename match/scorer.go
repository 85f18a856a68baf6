package match

// Tally counts the questions both sets answered (compared) and how many of
// those carry identical answers (matching). Answers compare byte for byte.
func Tally(a, b AnswerSet, questions []Question) (matching, compared int) {
	for _, q := range questions {
		av, ok := a.Answer(q.ID)
		if !ok {
			continue
		}
		bv, ok := b.Answer(q.ID)
		if !ok {
			continue
		}
		compared++
		if av == bv {
			matching++
		}
	}
	return matching, compared
}

// Score returns the percentage of mutually answered questions on which a and
// b agree, in [0, 100]. Halves round away from zero, so 1 of 8 gives 13.
// With no questions or no mutual answers the score is 0.
func Score(a, b User, questions []Question) int {
	if len(questions) == 0 {
		return 0
	}
	matching, compared := Tally(a.Answers, b.Answers, questions)
	return percent(matching, compared)
}

func percent(matching, compared int) int {
	if compared == 0 {
		return 0
	}
	return (200*matching + compared) / (2 * compared)
}
