package engine

import "strconv"

const (
	aiMinDelayMs  = 2000
	aiJitterMs    = 3000
	aiAccuracyPct = 80
)

// driveAI lets AI fill-in seats play their slots. Each AI answer goes through
// the same submit path as a human one, so scoring and relay rules are
// identical.
func driveAI(s *State, elapsedMs int) []Event {
	var events []Event
	for _, team := range s.Teams {
		if s.Phase != PhaseActive {
			break
		}
		p := team.ActivePlayer()
		if p == nil || !p.IsAI || p.CurrentQuestion == nil {
			continue
		}
		if p.aiDelayMs <= 0 {
			p.aiDelayMs = aiMinDelayMs + s.rng.Intn(aiJitterMs)
			continue
		}
		p.aiDelayMs -= elapsedMs
		if p.aiDelayMs > 0 {
			continue
		}
		p.aiDelayMs = 0

		answer := p.CurrentQuestion.Answer
		if s.rng.Intn(100) >= aiAccuracyPct {
			answer++
		}
		evs, err := applySubmitAnswer(s, Command{
			Type:   CmdSubmitAnswer,
			UserID: p.ID,
			Answer: strconv.Itoa(answer),
		})
		if err == nil {
			events = append(events, evs...)
		}
	}
	return events
}
