package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"disha/db"
	"disha/models"
	"disha/services"
	"disha/services/assessment"
	"disha/services/counselor"
	"disha/services/llm"
	"disha/services/report"

	"github.com/samber/lo"
)

const manualStudentID = "manual"

var (
	banner = strings.Repeat("=", 80)
	rule   = strings.Repeat("─", 80)

	followUpExitWords = []string{"exit", "quit", "no", "done"}
	chatExitWords     = []string{"exit", "quit"}
)

type app struct {
	out           io.Writer
	runner        *assessment.Runner
	profiles      counselor.ProfileSource
	questionnaire *assessment.Questionnaire
	counselor     *counselor.Service
	reportDir     string
	savePDF       bool
	now           func() time.Time
}

func (a *app) run(ctx context.Context, mode, studentID string) error {
	switch mode {
	case "assessment", "chat":
		fmt.Fprintf(a.out, "\n%s\n🎓 KASHMIR DISHA - Professional Career Counseling\n%s\n", banner, banner)
		id, profile, err := a.loadStudent(ctx, studentID)
		if err != nil {
			return err
		}
		if mode == "chat" {
			return a.runChat(ctx, id, profile)
		}
		return a.runAssessment(ctx, id, profile)
	case "manual":
		return a.runManual(ctx)
	default:
		return fmt.Errorf("unknown mode %q (use assessment, chat or manual)", mode)
	}
}

func (a *app) loadStudent(ctx context.Context, studentID string) (string, models.Profile, error) {
	studentID = strings.TrimSpace(studentID)
	for studentID == "" {
		id, err := a.runner.Prompt("\n👤 Enter your Student ID: ")
		if err != nil {
			return "", models.Profile{}, err
		}
		if id == "" {
			fmt.Fprintln(a.out, "❌ Student ID required.")
			continue
		}
		studentID = id
	}

	fmt.Fprintln(a.out, "\n🔄 Fetching your profile from database...")
	profile, err := a.profiles.GetProfile(ctx, studentID)
	if err != nil {
		if errors.Is(err, db.ErrProfileNotFound) {
			return "", models.Profile{}, fmt.Errorf("no student found with ID %s, please check your Student ID", studentID)
		}
		return "", models.Profile{}, fmt.Errorf("could not fetch user data: %w", err)
	}
	return studentID, profile, nil
}

// runAssessment asks the career questions and turns the answers into the
// assessment report.
func (a *app) runAssessment(ctx context.Context, studentID string, profile models.Profile) error {
	fmt.Fprintf(a.out, "\n%s\n✨ Hey %s, %s!\n%s\n", banner, profile.Name, assessment.Greeting(a.now()), banner)
	fmt.Fprintln(a.out, "\nI've already received your academic details from your profile.")
	fmt.Fprintln(a.out, "Let me ask you some focused questions to provide the best career guidance.")
	a.printProfileSummary(profile)

	career, ok := a.questionnaire.Section(assessment.SectionCareer)
	if !ok {
		return fmt.Errorf("questionnaire has no %q section", assessment.SectionCareer)
	}
	answers, err := a.runner.RunSection(career)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "\n%s\n✅ Assessment Complete!\n%s\n", banner, banner)
	fmt.Fprintln(a.out, "\n🔍 Analyzing your complete profile...")
	fmt.Fprintln(a.out, "📊 Searching J&K career database...")
	fmt.Fprintln(a.out, "🗺️  Creating personalized roadmap...")
	fmt.Fprintln(a.out, "\nGenerating your career guidance report...")

	generated, err := a.counselor.BuildReport(ctx, studentID, profile, answers, counselor.ReportAssessment)
	if err != nil {
		a.printError(err)
		return nil
	}

	a.presentReport(profile.Name, generated.Content)
	if err := a.offerSave(profile.Name, counselor.AssessmentProfileBlock(profile, answers), generated.Content); err != nil {
		return err
	}
	return a.followUps(ctx, studentID, profile.Name)
}

// runChat is the free-form counseling session. The model may search the
// knowledge base on its own; the final report comes after "done" or once
// the question limit is reached.
func (a *app) runChat(ctx context.Context, studentID string, profile models.Profile) error {
	name := profile.Name
	fmt.Fprintf(a.out, "\n%s\n✨ Hey %s, %s!\n%s\n", banner, name, assessment.Greeting(a.now()), banner)
	a.printProfileSummary(profile)

	if _, err := a.counselor.StartSessionWith(ctx, studentID, profile, counselor.BuildSessionSystemPrompt); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "\n💬 Let's begin the career counseling session!")
	fmt.Fprintln(a.out, "(Type 'done' when you want the final roadmap and guidance)")
	fmt.Fprintln(a.out, strings.Repeat("-", 50))

	opening, err := a.counselor.OpeningQuestion(ctx, studentID)
	if err != nil {
		a.printError(err)
		return nil
	}
	fmt.Fprintf(a.out, "\nCounselor: %s\n", opening)

	for {
		input, err := a.runner.Prompt(fmt.Sprintf("\n%s: ", name))
		if err != nil {
			return err
		}
		command := strings.ToLower(input)

		if lo.Contains(chatExitWords, command) {
			fmt.Fprintln(a.out, "👋 Session ended. Best of luck!")
			return nil
		}

		if command == "done" || a.counselor.QuestionsAsked(studentID) >= counselor.SessionQuestionLimit {
			return a.finishChat(ctx, studentID, profile)
		}

		if input == "" {
			continue
		}

		reply, err := a.counselor.Ask(ctx, studentID, input)
		if err != nil {
			a.printError(err)
			continue
		}
		fmt.Fprintf(a.out, "\nCounselor: %s\n", reply)
	}
}

func (a *app) finishChat(ctx context.Context, studentID string, profile models.Profile) error {
	fmt.Fprintln(a.out, "\n🔍 Analyzing your complete profile...")
	fmt.Fprintln(a.out, "🗺️  Generating your personalized career roadmap...")
	fmt.Fprintln(a.out, "🏫 Searching J&K colleges for recommended courses...")
	fmt.Fprintln(a.out, "\nThis may take a moment...")

	generated, err := a.counselor.SessionReport(ctx, studentID)
	if err != nil {
		a.printError(err)
		return nil
	}

	a.presentReport(profile.Name, generated.Content)
	if err := a.offerSave(profile.Name, counselor.ProfileBlock(profile), generated.Content); err != nil {
		return err
	}
	return a.followUps(ctx, studentID, profile.Name)
}

// runManual collects the profile on the terminal, then runs the assessment.
func (a *app) runManual(ctx context.Context) error {
	fmt.Fprintf(a.out, "\n%s\n🎓 %s! Welcome to KASHMIR DISHA - Professional Career Counseling\n%s\n",
		banner, assessment.Greeting(a.now()), banner)
	fmt.Fprintln(a.out, "\nI'm your personal career counselor, here to guide you towards the best")
	fmt.Fprintln(a.out, "career path based on your unique profile, interests, and circumstances.")
	fmt.Fprintln(a.out, "\nThis assessment will take about 10-15 minutes. Please answer honestly.")

	section, ok := a.questionnaire.Section(assessment.SectionProfile)
	if !ok {
		return fmt.Errorf("questionnaire has no %q section", assessment.SectionProfile)
	}
	answers, err := a.runner.RunSection(section)
	if err != nil {
		return err
	}

	profile := services.NormalizeProfile(lo.MapValues(answers, func(v string, _ string) any { return v }))
	return a.runAssessment(ctx, manualStudentID, profile)
}

func (a *app) followUps(ctx context.Context, studentID, name string) error {
	fmt.Fprintf(a.out, "\n%s\n❓ DO YOU HAVE ANY QUESTIONS OR DOUBTS?\n%s\n", banner, banner)
	fmt.Fprintf(a.out, "\n%s, do you have any questions about your career guidance report?\n", name)
	fmt.Fprintln(a.out, "\nYou can ask about:")
	fmt.Fprintln(a.out, "  • Specific colleges or admission process")
	fmt.Fprintln(a.out, "  • Scholarship details or financial planning")
	fmt.Fprintln(a.out, "  • Study resources or preparation tips")
	fmt.Fprintln(a.out, "  • Alternative career options")
	fmt.Fprintln(a.out, "\nType your question, or type 'no' if you're all set!")
	fmt.Fprintln(a.out, rule)

	for {
		question, err := a.runner.Prompt(fmt.Sprintf("\n%s: ", name))
		if err != nil {
			return err
		}
		if lo.Contains(followUpExitWords, strings.ToLower(question)) {
			fmt.Fprintf(a.out, "\n✅ Great! Best of luck with your career journey, %s!\n", name)
			return nil
		}
		if question == "" {
			continue
		}

		answer, err := a.counselor.FollowUp(ctx, studentID, question)
		if err != nil {
			a.printError(err)
			continue
		}
		fmt.Fprintf(a.out, "\nCounselor: %s\n", answer)
	}
}

func (a *app) presentReport(name, guidance string) {
	fmt.Fprintf(a.out, "\n%s\n🌟 CAREER GUIDANCE REPORT FOR %s\n%s\n", banner, strings.ToUpper(name), banner)
	fmt.Fprintln(a.out, guidance)
	fmt.Fprintf(a.out, "\n%s\n", banner)
}

func (a *app) offerSave(name, profileText, guidance string) error {
	choice, err := a.runner.Prompt("\n💾 Save this report? (yes/no): ")
	if err != nil {
		return err
	}
	if !lo.Contains([]string{"yes", "y"}, strings.ToLower(choice)) {
		fmt.Fprintln(a.out, "\n📋 Report not saved. You can copy the text above if needed.")
		return nil
	}

	at := a.now()
	path, err := report.SaveText(a.reportDir, name, at, profileText, guidance)
	if err != nil {
		a.printError(err)
		return nil
	}
	fmt.Fprintf(a.out, "✅ Saved as: %s\n", path)

	if a.savePDF {
		pdfPath, err := report.SavePDF(a.reportDir, name, at, profileText, guidance)
		if err != nil {
			a.printError(err)
			return nil
		}
		fmt.Fprintf(a.out, "✅ Saved as: %s\n", pdfPath)
	}
	fmt.Fprintln(a.out, "📧 You can share this file with your parents, teachers, or mentors.")
	return nil
}

func (a *app) printProfileSummary(p models.Profile) {
	fmt.Fprintln(a.out, "\n📊 YOUR PROFILE SUMMARY:")
	fmt.Fprintf(a.out, "   Name: %s\n", p.Name)
	fmt.Fprintf(a.out, "   Gender: %s\n", p.Gender)
	fmt.Fprintf(a.out, "   District: %s\n", p.District)
	fmt.Fprintf(a.out, "   School: %s\n", p.SchoolName)
	fmt.Fprintf(a.out, "   10th Percentage: %s\n", percent(p.TenthPercentage))
	fmt.Fprintf(a.out, "   12th Stream: %s\n", p.TwelfthStream)
	fmt.Fprintf(a.out, "   12th Percentage: %s\n", percent(p.TwelfthPercent))
	fmt.Fprintf(a.out, "   Favorite Subject (10th): %s\n", p.FavSubjectTenth)
	fmt.Fprintf(a.out, "   Favorite Subject (12th): %s\n", p.FavSubjectTwelfth)
	fmt.Fprintf(a.out, "   Interests: %s\n", p.Interests)
	fmt.Fprintln(a.out, banner)
}

func (a *app) printError(err error) {
	if llm.IsRateLimit(err) {
		fmt.Fprintln(a.out, "\n⏳ The counselor is receiving too many requests right now. Please wait a minute and try again.")
		return
	}
	fmt.Fprintf(a.out, "\n❌ Error: %v\n", err)
}

func (a *app) farewell() {
	fmt.Fprintf(a.out, "\n%s\n🙏 Thank you for using Kashmir Disha!\n", banner)
	fmt.Fprintln(a.out, "We wish you all the best in your career journey.")
	fmt.Fprintf(a.out, "%s\n\n", banner)
}

// percent appends a percent sign to bare numbers such as "87.5".
func percent(v string) string {
	if v == "" || strings.HasSuffix(v, "%") || strings.IndexFunc(v, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	}) >= 0 {
		return v
	}
	return v + "%"
}
