package capabilities

import (
	"github.com/tutor-orchestrator/server/internal/tutor/orchestration/router"
)

// Spec describes one tutoring capability.
type Spec struct {
	Name        string
	Description string
}

var catalog = []Spec{
	{router.ToolConceptExplainer, "Explain the concept plainly with one concrete example. Keep it short."},
	{router.ToolSocraticTutor, "Guide the learner with one or two probing questions instead of giving the answer."},
	{router.ToolDeepDive, "Give a rigorous, detailed treatment including the underlying theory and edge cases."},
	{router.ToolWritingAssistant, "Help the learner start writing: suggest a thesis, an outline and a first sentence."},
	{router.ToolWritingCoach, "Coach the learner's draft paragraph by paragraph with specific, actionable comments."},
	{router.ToolCreativeStudio, "Co-create ambitious pieces, proposing stylistic options and structural experiments."},
	{router.ToolQuickAnswer, "Give the direct answer first, then at most two sentences of justification."},
	{router.ToolProblemSolver, "Solve the problem together, showing the key steps and checking the learner follows."},
	{router.ToolStepByStep, "Work through the problem one numbered step at a time, explaining each transformation."},
	{router.ToolQuizGenerator, "Write three short quiz questions on the topic with an answer key."},
	{router.ToolFeedbackReviewer, "Review the learner's answer or work and give balanced, specific feedback."},
	{router.ToolMasteryAssessor, "Assess mastery with a challenging question set and point out remaining gaps."},
	{router.ToolStudyPlanner, "Build a realistic study plan with time blocks and checkpoints."},
	{router.ToolNoteOrganizer, "Restructure the learner's notes into headings, key points and open questions."},
	{router.ToolConceptMapper, "Describe a concept map linking the main ideas and their relationships."},
	{router.ToolEncouragement, "Acknowledge the learner's effort and feelings and suggest one small next step."},
	{router.ToolWellbeingCoach, "Help the learner manage stress with practical study-wellbeing strategies."},
	{router.ToolReflectionGuide, "Prompt the learner to reflect on how they learn and what to change."},
	{router.ToolCuriosityExplorer, "Share surprising connections and open questions around the topic."},
	{router.ToolResourceFinder, "Find study resources matching the learner's topic and level."},
	{router.ToolResearchGuide, "Guide an independent investigation: sources, methods and how to evaluate evidence."},
	{router.ToolConversation, "Hold a friendly, on-topic conversation and keep the learner engaged."},
	{router.ToolDiscussion, "Discuss the topic as a peer, offering perspectives and asking for the learner's view."},
	{router.ToolDebatePartner, "Take the opposing side respectfully and push the learner to defend their position."},
	{router.ToolPracticalGuide, "Give a concrete, practical how-to the learner can apply right now."},
}

// Catalog returns every built-in capability.
func Catalog() []Spec {
	out := make([]Spec, len(catalog))
	copy(out, catalog)
	return out
}

// Describe returns the catalog description for name.
func Describe(name string) (string, bool) {
	for _, s := range catalog {
		if s.Name == name {
			return s.Description, true
		}
	}
	return "", false
}
