package counselor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"disha/db"
	"disha/models"
	"disha/services"
	"disha/services/knowledge"
	"disha/services/llm"
)

type fakeLLM struct {
	replies  []string
	err      error
	requests []llm.CompletionRequest
}

func (f *fakeLLM) Complete(_ context.Context, req llm.CompletionRequest) (*llm.Completion, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	reply := "guidance"
	if len(f.replies) >= len(f.requests) {
		reply = f.replies[len(f.requests)-1]
	}
	return &llm.Completion{Content: reply}, nil
}

func (f *fakeLLM) last() llm.CompletionRequest {
	return f.requests[len(f.requests)-1]
}

type memReports struct {
	saved []*models.Report
}

func (m *memReports) CreateReport(_ context.Context, r *models.Report) error {
	r.ID = len(m.saved) + 1
	m.saved = append(m.saved, r)
	return nil
}

func (m *memReports) GetReportByID(context.Context, int) (*models.Report, error) { return nil, nil }

func (m *memReports) GetReportsByStudent(context.Context, string) ([]*models.Report, error) {
	return m.saved, nil
}

func (m *memReports) DeleteReport(context.Context, int) error { return nil }

type fixture struct {
	svc      *Service
	llm      *fakeLLM
	sessions *services.SessionService
	reports  *memReports
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := db.NewInMemoryProfileRepository(map[string]map[string]any{
		"student_001": {
			"name":             "Lakshay Kumar",
			"district":         "Srinagar",
			"school_name":      "DPS Srinagar",
			"10th_percentage":  85,
			"12th_stream":      "Science (PCM)",
			"12th_percentage":  82,
			"fav_subject_10th": "Mathematics",
			"fav_subject_12th": "Physics",
			"interests":        "Technology, Coding, Gaming",
		},
	})

	kb := knowledge.NewBase([]models.KnowledgeEntry{
		{CareerName: "Software Engineer", TextContent: "Coding and Physics lead to engineering", Line: "Software Engineer,Coding and Physics lead to engineering,QA_Knowledge,Software Engineer,FALSE"},
		{CareerName: "College", TextContent: "GDC Srinagar offers B.Sc IT and BCA", Line: "College,GDC Srinagar offers B.Sc IT and BCA Computer Applications,Student_Profile,BCA,FALSE"},
	}, knowledge.DefaultOptions)

	fake := &fakeLLM{}
	sessions := services.NewSessionService()
	reports := &memReports{}
	svc := NewService(fake, kb, services.NewProfileService(repo), sessions,
		services.NewReportStoreService(reports), "B.Sc IT BCA Computer")

	return &fixture{svc: svc, llm: fake, sessions: sessions, reports: reports}
}

func TestChatStartsSessionAndRecordsTurn(t *testing.T) {
	f := newFixture(t)
	f.llm.replies = []string{"Consider B.Tech CSE."}

	reply, err := f.svc.Chat(context.Background(), "student_001", "What should I study?")
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if reply.Content != "Consider B.Tech CSE." || reply.StudentName != "Lakshay Kumar" {
		t.Errorf("unexpected reply %+v", reply)
	}

	req := f.llm.last()
	if req.MaxTokens != ChatMaxTokens {
		t.Errorf("expected %d max tokens, got %d", ChatMaxTokens, req.MaxTokens)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != models.RoleSystem {
		t.Fatalf("expected system and user messages, got %+v", req.Messages)
	}
	system := req.Messages[0].Content
	for _, want := range []string{"You are KashmirDisha", "- Name: Lakshay Kumar", "- District (J&K): Srinagar", "- 10th Percentage: 85", "Software Engineer"} {
		if !strings.Contains(system, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}

	session, err := f.sessions.Get("student_001")
	if err != nil {
		t.Fatalf("session not stored: %v", err)
	}
	if len(session.Messages) != 3 || session.Messages[2].Role != models.RoleAssistant {
		t.Errorf("expected system, user, assistant in session, got %+v", session.Messages)
	}
}

func TestChatFailureRollsBackUserMessage(t *testing.T) {
	f := newFixture(t)
	f.llm.err = errors.New("upstream down")

	if _, err := f.svc.Chat(context.Background(), "student_001", "hello"); err == nil {
		t.Fatal("expected error")
	}

	session, err := f.sessions.Get("student_001")
	if err != nil {
		t.Fatalf("session not stored: %v", err)
	}
	if len(session.Messages) != 1 {
		t.Errorf("expected only the system message after rollback, got %d", len(session.Messages))
	}
}

func TestChatUnknownStudent(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Chat(context.Background(), "nobody", "hello")
	if !errors.Is(err, db.ErrProfileNotFound) {
		t.Errorf("expected ErrProfileNotFound, got %v", err)
	}
	if len(f.llm.requests) != 0 {
		t.Error("model should not be called for unknown students")
	}
}

func TestChatStateless(t *testing.T) {
	f := newFixture(t)
	history := []models.Message{
		{Role: models.RoleUser, Content: "hi"},
		{Role: models.RoleAssistant, Content: "hello"},
	}

	if _, err := f.svc.ChatStateless(context.Background(), "student_001", "what next?", history); err != nil {
		t.Fatalf("ChatStateless() error = %v", err)
	}

	req := f.llm.last()
	if len(req.Messages) != 4 || req.Messages[3].Content != "what next?" {
		t.Errorf("expected system + history + user, got %+v", req.Messages)
	}
	if f.sessions.Len() != 0 {
		t.Error("stateless chat should not create a session")
	}
}

func TestGenerateReport(t *testing.T) {
	f := newFixture(t)
	f.llm.replies = []string{"RECOMMENDED COURSE: B.Tech CSE"}

	report, err := f.svc.GenerateReport(context.Background(), "student_001", map[string]string{"career_goal": "Research"})
	if err != nil {
		t.Fatalf("GenerateReport() error = %v", err)
	}

	req := f.llm.last()
	if req.MaxTokens != ReportMaxTokens || req.Temperature == nil || *req.Temperature != ReportTemperature {
		t.Errorf("unexpected request limits %d / %v", req.MaxTokens, req.Temperature)
	}
	if req.Messages[0].Content != ReportSystemPrompt {
		t.Errorf("unexpected system prompt %q", req.Messages[0].Content)
	}
	prompt := req.Messages[1].Content
	for _, want := range []string{"- career_goal: Research", "- name: Lakshay Kumar", "GDC Srinagar", "10. Resources to start today"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("report prompt missing %q", want)
		}
	}

	if report.StudentName != "Lakshay Kumar" || report.Profile["career_goal"] != "Research" {
		t.Errorf("unexpected report %+v", report)
	}
	if len(f.reports.saved) != 1 {
		t.Errorf("expected report to be archived, got %d", len(f.reports.saved))
	}

	if _, err := f.svc.FollowUp(context.Background(), "student_001", "Which GDC is closest?"); err != nil {
		t.Fatalf("FollowUp() error = %v", err)
	}
	followUp := f.llm.last()
	if followUp.MaxTokens != FollowUpMaxTokens {
		t.Errorf("expected %d tokens for follow-up, got %d", FollowUpMaxTokens, followUp.MaxTokens)
	}
	msgs := followUp.Messages
	if msgs[len(msgs)-2].Content != "RECOMMENDED COURSE: B.Tech CSE" {
		t.Errorf("follow-up should see the report, got %+v", msgs)
	}
	if msgs[len(msgs)-1].Content != "Based on the career guidance report I just provided, the student asks: Which GDC is closest?" {
		t.Errorf("unexpected follow-up wording %q", msgs[len(msgs)-1].Content)
	}
}

func TestCounselingSessionFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	profile, err := services.NewProfileService(db.NewInMemoryProfileRepository(map[string]map[string]any{
		"s2": {"fullName": "Asha Bhat", "stream": "Commerce", "subjectsOfInterest": []any{"Economics", "Accounts"}},
	})).GetProfile(ctx, "s2")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.StartSessionWith(ctx, "s2", profile, BuildSessionSystemPrompt); err != nil {
		t.Fatalf("StartSessionWith() error = %v", err)
	}

	f.llm.replies = []string{"Asha, what is your primary career goal?", "Great. What matters most?", "FINAL REPORT"}

	question, err := f.svc.OpeningQuestion(ctx, "s2")
	if err != nil {
		t.Fatalf("OpeningQuestion() error = %v", err)
	}
	opening := f.llm.last()
	if opening.MaxTokens != OpeningMaxTokens || opening.Messages[len(opening.Messages)-1].Content != OpeningRequest {
		t.Errorf("unexpected opening request %+v", opening)
	}
	if !strings.Contains(opening.Messages[0].Content, "Asha Bhat, based on your Commerce background and interest in Economics, Accounts") {
		t.Errorf("session prompt not personalised: %q", opening.Messages[0].Content)
	}
	if question != "Asha, what is your primary career goal?" {
		t.Errorf("unexpected question %q", question)
	}

	if _, err := f.svc.Ask(ctx, "s2", "Private sector"); err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	turn := f.llm.last()
	if turn.MaxTokens != TurnMaxTokens || len(turn.Tools) != 1 || turn.Tools[0].Name != SearchToolName {
		t.Errorf("unexpected turn request: tokens %d tools %d", turn.MaxTokens, len(turn.Tools))
	}
	if got := f.svc.QuestionsAsked("s2"); got != 2 {
		t.Errorf("expected 2 counselor questions, got %d", got)
	}

	report, err := f.svc.SessionReport(ctx, "s2")
	if err != nil {
		t.Fatalf("SessionReport() error = %v", err)
	}
	if report.Content != "FINAL REPORT" {
		t.Errorf("unexpected report content %q", report.Content)
	}
	final := f.llm.last()
	if !strings.Contains(final.Messages[len(final.Messages)-1].Content, "- Stream: Commerce") {
		t.Error("session report prompt should carry the profile summary")
	}

	session, _ := f.sessions.Get("s2")
	// system, opening question, answer, reply, report
	if len(session.Messages) != 5 {
		t.Errorf("expected 5 session messages, got %d", len(session.Messages))
	}
}

func TestSearchTool(t *testing.T) {
	kb := knowledge.NewBase([]models.KnowledgeEntry{
		{CareerName: "Doctor", Line: "Doctor,Clear NEET,QA_Knowledge,Doctor,TRUE"},
	}, knowledge.DefaultOptions)

	tool, err := NewSearchTool(kb)
	if err != nil {
		t.Fatalf("NewSearchTool() error = %v", err)
	}
	if tool.Parameters["type"] != "object" {
		t.Errorf("expected object parameters, got %v", tool.Parameters)
	}

	out, err := tool.Call(context.Background(), `{"query":"neet"}`)
	if err != nil || !strings.Contains(out, "Doctor") {
		t.Errorf("Call() = %q, %v", out, err)
	}

	if _, err := tool.Call(context.Background(), `{"query":" "}`); err == nil {
		t.Error("expected error for blank query")
	}
}

func TestAssessmentProfileBlock(t *testing.T) {
	p := services.NormalizeProfile(map[string]any{"fullName": "Ravi"})
	block := AssessmentProfileBlock(p, map[string]string{"career_goal": "Stable government job with benefits"})

	for _, want := range []string{"- Name: Ravi", "- Career Goal: Stable government job with benefits", "- Main Concern: N/A", "- District: Not specified"} {
		if !strings.Contains(block, want) {
			t.Errorf("block missing %q:\n%s", want, block)
		}
	}
}
