package counselor

import (
	"context"
	"fmt"
	"log"
	"time"

	"disha/models"
	"disha/services"
	"disha/services/knowledge"
	"disha/services/llm"
)

// ProfileSource returns a normalized student profile.
type ProfileSource interface {
	GetProfile(ctx context.Context, studentID string) (models.Profile, error)
}

// Reply is a counselor answer together with the student it was for.
type Reply struct {
	Content     string
	StudentName string
}

type ReportKind int

const (
	// ReportStandard is the ten-section report served over HTTP.
	ReportStandard ReportKind = iota
	// ReportAssessment is the eleven-section report built from the
	// terminal questionnaire.
	ReportAssessment
)

type Service struct {
	llm          llm.Client
	kb           knowledge.Retriever
	profiles     ProfileSource
	sessions     *services.SessionService
	reports      *services.ReportStoreService
	collegeQuery string
	now          func() time.Time
}

func NewService(client llm.Client, kb knowledge.Retriever, profiles ProfileSource, sessions *services.SessionService, reports *services.ReportStoreService, collegeQuery string) *Service {
	return &Service{
		llm:          client,
		kb:           kb,
		profiles:     profiles,
		sessions:     sessions,
		reports:      reports,
		collegeQuery: collegeQuery,
		now:          time.Now,
	}
}

// StartSession fetches the profile, searches the knowledge base with it and
// opens a fresh chat session seeded with the counselor system prompt.
func (s *Service) StartSession(ctx context.Context, studentID string) (*models.Session, error) {
	profile, err := s.profiles.GetProfile(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return s.StartSessionWith(ctx, studentID, profile, BuildSystemPrompt)
}

// StartSessionWith opens a session for an already loaded profile using the
// given system prompt builder.
func (s *Service) StartSessionWith(ctx context.Context, studentID string, profile models.Profile, build func(models.Profile, string) string) (*models.Session, error) {
	matches, err := s.kb.SearchText(ctx, services.SearchQuery(profile))
	if err != nil {
		return nil, fmt.Errorf("failed to search knowledge base: %w", err)
	}
	return s.sessions.Start(studentID, profile, build(profile, matches)), nil
}

// Chat sends one message in the student's server-side session, starting the
// session first when needed.
func (s *Service) Chat(ctx context.Context, studentID, message string) (*Reply, error) {
	session, err := s.ensureSession(ctx, studentID)
	if err != nil {
		return nil, err
	}

	content, err := s.turn(ctx, studentID, message, ChatMaxTokens, nil)
	if err != nil {
		return nil, err
	}
	return &Reply{Content: content, StudentName: session.Profile.Name}, nil
}

// ChatStateless answers using a caller-supplied history instead of the
// session store. Nothing is recorded server-side.
func (s *Service) ChatStateless(ctx context.Context, studentID, message string, history []models.Message) (*Reply, error) {
	log.Printf("[INFO] Starting stateless chat for student %s with %d history messages", studentID, len(history))

	profile, err := s.profiles.GetProfile(ctx, studentID)
	if err != nil {
		return nil, err
	}

	matches, err := s.kb.SearchText(ctx, services.SearchQuery(profile))
	if err != nil {
		return nil, fmt.Errorf("failed to search knowledge base: %w", err)
	}

	messages := make([]models.Message, 0, len(history)+2)
	messages = append(messages, models.Message{Role: models.RoleSystem, Content: BuildSystemPrompt(profile, matches)})
	messages = append(messages, history...)
	messages = append(messages, models.Message{Role: models.RoleUser, Content: message})

	completion, err := s.llm.Complete(ctx, llm.CompletionRequest{
		Messages:    messages,
		MaxTokens:   ChatMaxTokens,
		Temperature: llm.Temperature(ReportTemperature),
	})
	if err != nil {
		log.Printf("[ERROR] Chat completion failed for student %s: %v", studentID, err)
		return nil, err
	}

	return &Reply{Content: completion.Content, StudentName: profile.Name}, nil
}

// Ask is a counseling turn where the model may search the knowledge base
// itself through the search tool.
func (s *Service) Ask(ctx context.Context, studentID, message string) (string, error) {
	if _, err := s.ensureSession(ctx, studentID); err != nil {
		return "", err
	}

	tool, err := NewSearchTool(s.kb)
	if err != nil {
		return "", err
	}
	return s.turn(ctx, studentID, message, TurnMaxTokens, []llm.Tool{tool})
}

// OpeningQuestion asks the model to open the counseling session. The
// request itself is not kept in the history, only the question.
func (s *Service) OpeningQuestion(ctx context.Context, studentID string) (string, error) {
	session, err := s.sessions.Get(studentID)
	if err != nil {
		return "", err
	}

	messages := append(session.Messages, models.Message{Role: models.RoleUser, Content: OpeningRequest})
	completion, err := s.llm.Complete(ctx, llm.CompletionRequest{
		Messages:  messages,
		MaxTokens: OpeningMaxTokens,
	})
	if err != nil {
		log.Printf("[ERROR] Failed to open session for student %s: %v", studentID, err)
		return "", err
	}

	if err := s.sessions.Append(studentID, models.Message{Role: models.RoleAssistant, Content: completion.Content}); err != nil {
		return "", err
	}
	return completion.Content, nil
}

// FollowUp answers a question about the report that was just produced.
func (s *Service) FollowUp(ctx context.Context, studentID, question string) (string, error) {
	return s.turn(ctx, studentID, FollowUpMessage(question), FollowUpMaxTokens, nil)
}

// Reset drops the student's server-side session.
func (s *Service) Reset(studentID string) bool {
	return s.sessions.Reset(studentID)
}

// QuestionsAsked reports how many counselor turns the session holds.
func (s *Service) QuestionsAsked(studentID string) int {
	session, err := s.sessions.Get(studentID)
	if err != nil {
		return 0
	}
	return session.Questions
}

// GenerateReport builds the standard report for a stored student, merging
// the supplied answers over the profile.
func (s *Service) GenerateReport(ctx context.Context, studentID string, responses map[string]string) (*models.Report, error) {
	profile, err := s.profiles.GetProfile(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return s.BuildReport(ctx, studentID, profile, responses, ReportStandard)
}

// BuildReport generates a report for a profile that is already loaded,
// archives it when a report store is configured and seeds the student's
// session with it so follow-up questions have context.
func (s *Service) BuildReport(ctx context.Context, studentID string, profile models.Profile, responses map[string]string, kind ReportKind) (*models.Report, error) {
	log.Printf("[INFO] Starting report generation for student %s", studentID)

	var system, prompt string
	switch kind {
	case ReportAssessment:
		matches, err := s.kb.SearchText(ctx, services.SearchQuery(profileWithAnswers(profile, responses)))
		if err != nil {
			return nil, fmt.Errorf("failed to search knowledge base: %w", err)
		}
		system = AssessmentReportSystemPrompt
		prompt = BuildAssessmentReportPrompt(profile, responses, matches)
	default:
		colleges, err := s.kb.SearchText(ctx, s.collegeQuery)
		if err != nil {
			return nil, fmt.Errorf("failed to search knowledge base: %w", err)
		}
		system = ReportSystemPrompt
		prompt = BuildReportPrompt(profile, responses, colleges)
	}

	completion, err := s.llm.Complete(ctx, llm.CompletionRequest{
		Messages: []models.Message{
			{Role: models.RoleSystem, Content: system},
			{Role: models.RoleUser, Content: prompt},
		},
		MaxTokens:   ReportMaxTokens,
		Temperature: llm.Temperature(ReportTemperature),
	})
	if err != nil {
		log.Printf("[ERROR] Report generation failed for student %s: %v", studentID, err)
		return nil, err
	}

	report := s.newReport(studentID, profile, responses, completion.Content)

	// Follow-ups run against the chat persona with the report as its last answer.
	matches, err := s.kb.SearchText(ctx, services.SearchQuery(profile))
	if err != nil {
		log.Printf("[WARN] Knowledge base search failed while seeding follow-up session: %v", err)
	}
	s.sessions.Start(studentID, profile, BuildSystemPrompt(profile, matches))
	if err := s.sessions.Append(studentID, models.Message{Role: models.RoleAssistant, Content: report.Content}); err != nil {
		return nil, err
	}

	s.archive(ctx, report)
	log.Printf("[INFO] Successfully generated report for student %s (%d chars)", studentID, len(report.Content))
	return report, nil
}

// SessionReport closes an interactive counseling session with the final
// report. The guidance is appended to the session for follow-ups.
func (s *Service) SessionReport(ctx context.Context, studentID string) (*models.Report, error) {
	session, err := s.sessions.Get(studentID)
	if err != nil {
		return nil, err
	}

	log.Printf("[INFO] Starting session report for student %s after %d questions", studentID, session.Questions)

	colleges, err := s.kb.SearchText(ctx, s.collegeQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to search knowledge base: %w", err)
	}

	messages := append(session.Messages, models.Message{
		Role:    models.RoleUser,
		Content: BuildSessionReportPrompt(session.Profile, colleges),
	})
	completion, err := s.llm.Complete(ctx, llm.CompletionRequest{
		Messages:  messages,
		MaxTokens: ReportMaxTokens,
	})
	if err != nil {
		log.Printf("[ERROR] Session report failed for student %s: %v", studentID, err)
		return nil, err
	}

	if err := s.sessions.Append(studentID, models.Message{Role: models.RoleAssistant, Content: completion.Content}); err != nil {
		return nil, err
	}

	report := s.newReport(studentID, session.Profile, nil, completion.Content)
	s.archive(ctx, report)
	return report, nil
}

func (s *Service) ensureSession(ctx context.Context, studentID string) (*models.Session, error) {
	session, err := s.sessions.Get(studentID)
	if err == nil {
		return session, nil
	}
	return s.StartSession(ctx, studentID)
}

// turn appends the user message, completes over the whole session and
// records the answer. A failed completion rolls the user message back.
func (s *Service) turn(ctx context.Context, studentID, message string, maxTokens int, tools []llm.Tool) (string, error) {
	if err := s.sessions.Append(studentID, models.Message{Role: models.RoleUser, Content: message}); err != nil {
		return "", err
	}

	session, err := s.sessions.Get(studentID)
	if err != nil {
		return "", err
	}

	completion, err := s.llm.Complete(ctx, llm.CompletionRequest{
		Messages:    session.Messages,
		MaxTokens:   maxTokens,
		Temperature: llm.Temperature(ReportTemperature),
		Tools:       tools,
	})
	if err != nil {
		log.Printf("[ERROR] Chat completion failed for student %s: %v", studentID, err)
		s.sessions.PopLast(studentID, models.RoleUser)
		return "", err
	}

	if err := s.sessions.Append(studentID, models.Message{Role: models.RoleAssistant, Content: completion.Content}); err != nil {
		return "", err
	}
	return completion.Content, nil
}

func (s *Service) newReport(studentID string, profile models.Profile, responses map[string]string, content string) *models.Report {
	return &models.Report{
		StudentID:   studentID,
		StudentName: profile.Name,
		Profile:     profile.Merge(responses),
		Content:     content,
		CreatedAt:   s.now(),
	}
}

// archive stores the report when a report store is configured. Failures
// are logged and never fail the request.
func (s *Service) archive(ctx context.Context, report *models.Report) {
	if !s.reports.Enabled() {
		return
	}
	if err := s.reports.SaveReport(ctx, report); err != nil {
		log.Printf("[WARN] Report for student %s was not archived: %v", report.StudentID, err)
	}
}

// profileWithAnswers lets questionnaire answers for stream, subject and
// interests steer the knowledge-base query.
func profileWithAnswers(p models.Profile, responses map[string]string) models.Profile {
	if v := responses["12th_stream"]; v != "" {
		p.TwelfthStream = v
	}
	if v := responses["fav_subject_12th"]; v != "" {
		p.FavSubjectTwelfth = v
	}
	if v := responses["interests"]; v != "" {
		p.Interests = v
	}
	return p
}
