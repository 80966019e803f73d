package usecase

import (
	"math/rand/v2"

	"github.com/Divya4879/Sassy-AI-Debate-Coach/domain"
)

// FallbackLine is served when no canned line exists for a persona.
const FallbackLine = "That's an interesting point, but I'm not convinced. Can you back it up with evidence?"

// MockResponder serves canned persona lines when no live provider answers.
type MockResponder struct {
	lines     map[string][]string
	defaultID string
	pick      func(n int) int
}

func NewMockResponder() *MockResponder {
	return &MockResponder{
		lines:     cannedLines,
		defaultID: domain.DefaultPersonaID,
		pick:      rand.IntN,
	}
}

// WithPicker replaces the random index source.
func (m *MockResponder) WithPicker(pick func(n int) int) *MockResponder {
	m.pick = pick
	return m
}

// Respond picks one canned line for persona, falling back to the default
// persona's lines when the persona has none, and to FallbackLine when
// neither has any.
func (m *MockResponder) Respond(persona domain.Persona) string {
	lines, ok := m.lines[persona.ID]
	if !ok || len(lines) == 0 {
		lines = m.lines[m.defaultID]
	}
	if len(lines) == 0 {
		return FallbackLine
	}
	return lines[m.pick(len(lines))]
}

var cannedLines = map[string][]string{
	"sassy": {
		"Umm, sweetie? That argument is about as solid as a chocolate teapot. Nice try though! Maybe come back when you've got some ACTUAL facts? Just saying!",
		"OMG, did you really just say that? I can't even! Your logic has more holes than my grandma's knitting. But go off, I guess!",
		"Bestie, I'm gonna need you to take that weak argument and yeet it into the trash where it belongs. Slay better next time!",
	},
	"ruthless": {
		"Your argument fundamentally misunderstands the basic principles at play. This level of reasoning wouldn't pass in an introductory course.",
		"Let me dismantle this point by point. First, your premise is flawed. Second, your evidence is anecdotal at best. Third, your conclusion doesn't follow from your arguments.",
		"I expected better. Your position ignores decades of research and relies on emotional appeals rather than substantive analysis.",
	},
	"sweet": {
		"I see where you're coming from, and you made some interesting points! Maybe we could also consider another perspective? You're doing great!",
		"That's a thoughtful approach! I wonder if we might strengthen it by adding some additional evidence? You're on the right track!",
		"I appreciate your passion on this topic! Perhaps we could explore some counterarguments together to make your position even stronger?",
	},
	"innocent": {
		"Oh, that's actually a really good point! I hadn't thought about it that way before. You might be right about this...",
		"You know what? You're making a lot of sense. I think you've convinced me on this one. That was really well argued!",
		"I'm not sure I can argue against that. You've presented such a thoughtful case. I think you win this round!",
	},
	"bestie": {
		"Okay, okay, you got me there! That's actually a solid point, bestie. I can't even argue with that logic!",
		"Ugh, fine! You're totally right about this one. I hate when you make good arguments because then I have to admit you're smart!",
		"Alright, you win this round! That was actually pretty convincing. I'm impressed, not gonna lie!",
	},
	"flirty": {
		"Mmm, I love it when you get all passionate and argumentative. That fire in your eyes when you debate is quite... attractive. But let me show you another angle, darling.",
		"Oh, you think you can charm me with that logic? Well, two can play that game, gorgeous. Let me seduce you with some counterpoints...",
		"Such a clever mind you have... it's almost as appealing as everything else about you. But I'm not giving up that easily, sweetheart.",
	},
	"objective": {
		"Analyzing your argument: The premise appears sound, but the conclusion requires additional supporting evidence to establish causality rather than correlation.",
		"Your position contains three key assertions. The first is supported by data, the second lacks sufficient evidence, and the third contains a logical fallacy.",
		"The argument presented relies on an assumption that has not been validated. Consider addressing this gap to strengthen your position.",
	},
	"teacher": {
		"Your argument shows promise but needs development. Grade: C+. To improve: add specific examples, address counterarguments, and clarify your thesis statement.",
		"I notice you've used an ad hominem fallacy here. Focus on the argument, not the person. Your structure is good, but evidence is lacking. Grade: B-.",
		"Good effort on presenting your position. You've cited sources but need to explain their relevance. Work on your conclusion. Grade: B.",
	},
	"philosopher": {
		"But what is the nature of truth in your argument? Perhaps we should examine the epistemological foundations of your claims before proceeding further.",
		"Your position raises interesting questions about the moral framework you're operating within. Are you approaching this from a consequentialist or deontological perspective?",
		"I wonder if we're asking the right questions here. Perhaps the dichotomy you've presented is itself an illusion, and a synthesis of perspectives is possible?",
	},
}
