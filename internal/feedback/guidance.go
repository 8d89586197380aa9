package feedback

import "essaycore/pkg/domain"

// Tips returns the qualities of a strong essay of the given category.
// Unknown categories get the general list.
func Tips(category domain.Category) []string {
	switch category {
	case domain.CategoryPersonal:
		return []string{
			"A compelling opening that draws readers in",
			"A clear narrative arc with beginning, middle, and end",
			"Specific examples and concrete details",
			"Reflection on what you learned or how you grew",
			"Your authentic voice and personality",
			"A strong conclusion that ties everything together",
		}
	case domain.CategorySupplemental:
		return []string{
			"Answer the specific prompt completely",
			"Be authentic and personal",
			"Show knowledge of the college",
			"Connect your experiences to the school's values",
			"Be concise and well-organized",
			"Demonstrate fit with the institution",
		}
	case domain.CategoryScholarship:
		return []string{
			"Clear statement of your goals",
			"Explanation of financial need (if applicable)",
			"Examples of leadership and service",
			"Specific plans for the future",
			"How you'll give back to others",
			"Professional yet personal tone",
		}
	}
	return []string{
		"Start with a compelling hook",
		"Use specific examples and details",
		"Show your personality and voice",
		"Organize ideas logically",
		"Proofread carefully",
		"Stay within word limits",
		"Be authentic and honest",
	}
}

// Ideas returns brainstorming prompts for the given category.
func Ideas(category domain.Category) []string {
	switch category {
	case domain.CategoryPersonal:
		return []string{
			"Reflect on a significant challenge you've overcome",
			"Describe a moment that changed your perspective",
			"Share how a hobby or interest has shaped your character",
			"Discuss a person who has influenced your values",
			"Write about a failure that taught you important lessons",
			"Explore how your background has shaped your worldview",
		}
	case domain.CategorySupplemental:
		return []string{
			"Answer the specific prompt directly and authentically",
			"Use concrete examples and specific details",
			"Show, don't tell: use stories and anecdotes",
			"Connect your experiences to the college's values",
			"Be specific about why this college appeals to you",
			"Keep it focused and concise",
		}
	case domain.CategoryScholarship:
		return []string{
			"Clearly state your academic and career goals",
			"Explain how the scholarship will help you achieve them",
			"Demonstrate financial need (if applicable)",
			"Highlight your community service and leadership",
			"Show how you'll give back after graduation",
			"Be specific about your future plans",
		}
	}
	return []string{
		"Free-write for 10 minutes without stopping",
		"Create a mind map of your experiences",
		"List your proudest achievements",
		"Think about what makes you unique",
		"Consider challenges you've overcome",
		"Reflect on your values and beliefs",
	}
}
