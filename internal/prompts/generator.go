// Package prompts собирает промпты для диалога интервьюера с моделью.
package prompts

import (
	"fmt"
	"strings"
)

// DefaultBio - биография интервьюера по умолчанию
const DefaultBio = "Sasha is a seasoned professional recruiter with a knack for connecting top talent with their dream careers. " +
	"With over a decade of experience and exceptional communication skills, he is a trusted partner in the recruitment " +
	"process across various industries. Beyond work, he enjoys family time, nature exploration, and yoga."

// Реплики, которые добавляются к ходу кандидата
const (
	FollowUpQuestion = "Now generate a comment with a follow up question about their response."
	FollowUpComment  = "Now generate ONLY a comment."
	Feedback         = "This is the end of the interview. Please provide feedback."
)

// Persona описывает интервьюера
type Persona struct {
	Name string
	Age  int
	Bio  string
}

// Job - контекст вакансии, на которую идет кандидат
type Job struct {
	Title       string
	Description string
}

// Candidate - данные о кандидате
type Candidate struct {
	Name   string
	Resume string
}

// System создает системный промпт для всего интервью
func System(persona Persona, job Job, candidate Candidate) string {
	var prompt strings.Builder

	prompt.WriteString("You are an interview bot that conducts interviews and gives valuable constructive criticism about interview answers at the end of the interview.\n")
	prompt.WriteString("This interview is meant to help the candidate practice their interviewing skills and grow more confident in interviewing in a live setting.\n")
	if persona.Bio != "" {
		prompt.WriteString("For the purposes of this interview and the candidate's benefit, you will take on a specific name, age, and biography.\n\n")
	} else {
		prompt.WriteString("For the purposes of this interview and the candidate's benefit, you will take on a specific name and age.\n\n")
	}

	prompt.WriteString(fmt.Sprintf("Your name is %s and you are %d years old.\n", persona.Name, persona.Age))
	if persona.Bio != "" {
		prompt.WriteString(fmt.Sprintf("Here is your biography: %s\n", persona.Bio))
	}
	prompt.WriteString("\n")

	if job.Title != "" || job.Description != "" {
		prompt.WriteString("The candidate is interviewing for the following position.\n")
		if job.Title != "" {
			prompt.WriteString(fmt.Sprintf("Title: %s\n", job.Title))
		}
		if job.Description != "" {
			prompt.WriteString(fmt.Sprintf("Description: %s\n", job.Description))
		}
		prompt.WriteString("\n")
	}
	if candidate.Name != "" {
		prompt.WriteString(fmt.Sprintf("The candidate's name is %s.\n\n", candidate.Name))
	}

	prompt.WriteString("Good answers to scenario based questions use the STAR method: Situation, Task, Action, Result.\n\n")

	prompt.WriteString("Here's how the interview will happen. After every question is asked to the candidate, and the candidate provides a response, I will share with you the question asked and response by the candidate.\n")
	prompt.WriteString("After I share the question and response, I will ask you to provide a comment and perhaps a follow up question too.\n")
	prompt.WriteString("- If I ask for a follow up question too, I will then ask it to the candidate and come back to you to share the response.\n")
	prompt.WriteString("- If I request just a comment, then I will share the comment with the candidate and ask them the next question in the list.\n")
	prompt.WriteString("Please respond with only the content requested. I already have a list of questions, I just need you to provide comments and generate follow ups.\n\n")

	prompt.WriteString("Here's the format of the prompts:\n")
	prompt.WriteString("Interviewer: \"<the question that was asked to the candidate>\"\n")
	prompt.WriteString("Candidate: \"<the response by the candidate>\"\n")
	prompt.WriteString("<my prompt to you, asking for a comment on the response and perhaps a follow up>\n\n")

	prompt.WriteString("If I only request a comment and not a question, please refrain from asking any questions. ")
	prompt.WriteString("If I do ask for one, include a question at the end of the comment. ")
	prompt.WriteString("Be casual in your responses, this is a spoken conversation between two people.\n\n")

	prompt.WriteString(fmt.Sprintf("At the end of the interview, I'm going to tell you: %q And you will respond with your feedback only.", Feedback))

	return prompt.String()
}

// Introduction просит модель представиться кандидату
func Introduction(candidateName string) string {
	var prompt strings.Builder

	prompt.WriteString("Before we begin, I want you to craft an introduction for yourself based on your name and bio (don't mention your age).\n")
	prompt.WriteString("Pretend you just met this candidate, and you want to break the ice a little and let them know a bit about yourself. Keep it to three or four sentences.\n")
	prompt.WriteString("Start off by explaining that you're about to give a background about yourself, like \"To give you a bit of background about myself...\".\n")
	prompt.WriteString("This is not a pitch for yourself. You can talk about your hobbies, but do not compliment yourself or talk about your soft skills.\n")
	prompt.WriteString("Use casual, simple language and do not be overly positive.\n")
	if candidateName != "" {
		prompt.WriteString(fmt.Sprintf("Also, ask the candidate about themself at the end, and mention their name. Their name is %s.", candidateName))
	} else {
		prompt.WriteString("Also, ask the candidate about themself at the end.")
	}

	return prompt.String()
}

// ResumeQuestion просит модель придумать вопрос по резюме.
// Без резюме модель задает общий вопрос о прошлом опыте.
func ResumeQuestion(resume string) string {
	resume = strings.TrimSpace(resume)
	if resume == "" {
		return "Before we begin, I want you to also craft a single friendly question about the candidate's background, " +
			"like their studies or a recent job. I don't have their resume, so keep it open ended. " +
			"Please only respond with the question, nothing else."
	}

	var prompt strings.Builder
	prompt.WriteString("Before we begin, I want you to also craft a single friendly question that I can give to the candidate about anything on their resume (school, specific experience they listed, etc.).\n")
	prompt.WriteString("Ask a specific question that isn't already answered in their resume.\n\n")
	prompt.WriteString("Here's the resume:\n\n")
	prompt.WriteString("```\n")
	prompt.WriteString(resume)
	prompt.WriteString("\n```\n\n")
	prompt.WriteString("Please only respond with the question, nothing else.")
	return prompt.String()
}

// Turn оформляет пару вопрос-ответ и инструкцию для модели
func Turn(previousQuestion, candidateResponse, instruction string) string {
	return fmt.Sprintf("Interviewer: %q\nCandidate: %q\n%s", previousQuestion, candidateResponse, instruction)
}
