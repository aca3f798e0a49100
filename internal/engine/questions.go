package engine

import "fmt"

// nextQuestion draws a fresh prompt for the given operation. Mixed slots pick
// one of the four base operations per question.
func nextQuestion(s *State, op Operation) Question {
	resolved := op
	if resolved == OpMixed {
		resolved = SlotOrder[s.rng.Intn(4)]
	}

	var prompt string
	var answer int
	switch resolved {
	case OpAddition:
		a, b := 10+s.rng.Intn(90), 10+s.rng.Intn(90)
		prompt = fmt.Sprintf("%d + %d", a, b)
		answer = a + b
	case OpSubtraction:
		a, b := 10+s.rng.Intn(90), 10+s.rng.Intn(90)
		if b > a {
			a, b = b, a
		}
		prompt = fmt.Sprintf("%d - %d", a, b)
		answer = a - b
	case OpMultiplication:
		a, b := 2+s.rng.Intn(11), 2+s.rng.Intn(11)
		prompt = fmt.Sprintf("%d × %d", a, b)
		answer = a * b
	case OpDivision:
		quotient, divisor := 2+s.rng.Intn(11), 2+s.rng.Intn(11)
		prompt = fmt.Sprintf("%d ÷ %d", quotient*divisor, divisor)
		answer = quotient
	}

	// The wire operation stays "mixed" so clients render the slot label,
	// not the resolved operation.
	return Question{Prompt: prompt, Operation: op, Answer: answer}
}
