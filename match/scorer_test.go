package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func questions(ids ...int) []Question {
	qs := make([]Question, len(ids))
	for i, id := range ids {
		qs[i] = Question{ID: QuestionID(id)}
	}
	return qs
}

func user(id int, answers map[string]string) User {
	return User{ID: id, Username: "user" + QuestionID(id).Key(), Answers: answers}
}

func TestAnswerSetAnswer(t *testing.T) {
	a := AnswerSet{"1": "blue", "2": "", "3": "   "}

	v, ok := a.Answer(1)
	assert.True(t, ok)
	assert.Equal(t, "blue", v)

	_, ok = a.Answer(2)
	assert.False(t, ok, "empty answers count as unanswered")
	_, ok = a.Answer(3)
	assert.False(t, ok, "whitespace answers count as unanswered")
	_, ok = a.Answer(4)
	assert.False(t, ok)

	var nilSet AnswerSet
	_, ok = nilSet.Answer(1)
	assert.False(t, ok)
}

func TestScore(t *testing.T) {
	color, pet := 1, 2
	qs := questions(color, pet)

	a := user(1, map[string]string{"1": "blue", "2": "cat"})
	b := user(2, map[string]string{"1": "blue", "2": "dog"})
	c := user(3, map[string]string{"1": "red"})
	d := user(4, map[string]string{})

	assert.Equal(t, 50, Score(a, b, qs))
	assert.Equal(t, 0, Score(a, c, qs))
	assert.Equal(t, 0, Score(a, d, qs))
	assert.Equal(t, 100, Score(a, a, qs))
}

func TestScoreEmptyQuestionSet(t *testing.T) {
	a := user(1, map[string]string{"1": "x"})
	assert.Equal(t, 0, Score(a, a, nil))
	assert.Equal(t, 0, Score(a, a, []Question{}))
}

func TestScoreExactComparison(t *testing.T) {
	qs := questions(1)
	a := user(1, map[string]string{"1": "Blue"})
	b := user(2, map[string]string{"1": "blue"})
	c := user(3, map[string]string{"1": "blue "})

	assert.Equal(t, 0, Score(a, b, qs), "no case folding")
	assert.Equal(t, 0, Score(b, c, qs), "no trimming")
}

func TestScoreIgnoresAnswersOutsideQuestionSet(t *testing.T) {
	a := user(1, map[string]string{"1": "x", "9": "same"})
	b := user(2, map[string]string{"1": "y", "9": "same"})
	assert.Equal(t, 0, Score(a, b, questions(1)))
}

func TestScoreRoundsHalfAwayFromZero(t *testing.T) {
	tests := []struct {
		name     string
		matching int
		compared int
		want     int
	}{
		{"one of eight", 1, 8, 13},
		{"three of eight", 3, 8, 38},
		{"one of three", 1, 3, 33},
		{"two of three", 2, 3, 67},
		{"one of six", 1, 6, 17},
		{"five of six", 5, 6, 83},
		{"one of two hundred", 1, 200, 1},
		{"one of two hundred one", 1, 201, 0},
		{"none", 0, 7, 0},
		{"all", 7, 7, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := AnswerSet{}
			b := AnswerSet{}
			qs := make([]Question, tt.compared)
			for i := 0; i < tt.compared; i++ {
				id := QuestionID(i + 1)
				qs[i] = Question{ID: id}
				a[id.Key()] = "same"
				if i < tt.matching {
					b[id.Key()] = "same"
				} else {
					b[id.Key()] = "other"
				}
			}
			assert.Equal(t, tt.want, Score(User{Answers: a}, User{Answers: b}, qs))
		})
	}
}

func TestScoreSymmetricAndBounded(t *testing.T) {
	qs := questions(1, 2, 3, 4, 5)
	values := []string{"", "1", "2", "3"}
	sets := make([]AnswerSet, 0, 64)
	// every combination over three of the questions, plus a fixed tail
	for _, x := range values {
		for _, y := range values {
			for _, z := range values {
				sets = append(sets, AnswerSet{"1": x, "2": y, "3": z, "5": "2"})
			}
		}
	}

	for i := range sets {
		for j := range sets {
			a, b := User{Answers: sets[i]}, User{Answers: sets[j]}
			ab, ba := Score(a, b, qs), Score(b, a, qs)
			if ab != ba {
				t.Fatalf("score not symmetric for %v / %v: %d vs %d", sets[i], sets[j], ab, ba)
			}
			if ab < 0 || ab > 100 {
				t.Fatalf("score %d out of range", ab)
			}
		}
	}
}

func TestTally(t *testing.T) {
	a := AnswerSet{"1": "a", "2": "b", "3": "c", "4": "d"}
	b := AnswerSet{"1": "a", "2": "x", "3": "", "5": "e"}

	matching, compared := Tally(a, b, questions(1, 2, 3, 4, 5))
	assert.Equal(t, 1, matching)
	assert.Equal(t, 2, compared)
}
