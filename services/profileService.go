package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"disha/db"
	"disha/models"

	"github.com/samber/lo"
)

const (
	notSpecified = "Not specified"
	notAvailable = "Not available"
	notProvided  = "Not provided"
)

// fieldRule lists the document keys consulted for one canonical field, in
// priority order, and the value used when none of them is present.
type fieldRule struct {
	aliases  []string
	fallback string
}

// Covers both generations of the onboarding form: the original flat keys
// (schoolName, streamOrBranch, percentageOrCgpa) and the later ones
// (currentSchool, stream, currentMarks, subjectsOfInterest).
var profileRules = map[string]fieldRule{
	"name":             {[]string{"fullName", "preferredName", "name"}, "Student"},
	"preferred_name":   {[]string{"preferredName", "fullName"}, notSpecified},
	"gender":           {[]string{"gender"}, notSpecified},
	"district":         {[]string{"district"}, notSpecified},
	"state":            {[]string{"state"}, "Jammu & Kashmir"},
	"school_name":      {[]string{"currentSchool", "tenthSchool", "schoolName", "school_name"}, notSpecified},
	"10th_percentage":  {[]string{"tenthMarks", "10th_percentage"}, notAvailable},
	"12th_stream":      {[]string{"stream", "streamOrBranch", "12th_stream"}, notSpecified},
	"12th_percentage":  {[]string{"currentMarks", "percentageOrCgpa", "12th_percentage"}, notAvailable},
	"fav_subject_10th": {[]string{"tenthFavSubject", "tenthTopSubject", "fav_subject_10th"}, notSpecified},
	"fav_subject_12th": {[]string{"favSubject11_12", "fav_subject_12th"}, notSpecified},
	"interests":        {[]string{"subjectsOfInterest", "interests"}, notSpecified},
	"email":            {[]string{"email"}, notProvided},
	"mobile":           {[]string{"mobile"}, notProvided},
	"birth_year":       {[]string{"birthYear", "birth_year"}, notProvided},
	"dob":              {[]string{"dob"}, notProvided},
	"education_type":   {[]string{"educationType", "education_type"}, "Class 12th"},
	"education_status": {[]string{"educationStatus", "education_status"}, "appearing"},
	"current_goal":     {[]string{"currentGoal", "current_goal"}, notSpecified},
	"other_plans":      {[]string{"otherPlans", "other_plans"}, notSpecified},
	"last_search":      {[]string{"lastSearch", "last_search"}, notSpecified},
}

// NormalizeProfile maps a raw student document onto the canonical profile,
// substituting each field's fallback when no alias carries a value.
func NormalizeProfile(raw map[string]any) models.Profile {
	get := func(field string) string {
		rule := profileRules[field]
		for _, alias := range rule.aliases {
			if v, ok := stringValue(raw[alias]); ok {
				return v
			}
		}
		return rule.fallback
	}

	return models.Profile{
		Name:              get("name"),
		PreferredName:     get("preferred_name"),
		Gender:            get("gender"),
		District:          get("district"),
		State:             get("state"),
		SchoolName:        get("school_name"),
		TenthPercentage:   get("10th_percentage"),
		TwelfthStream:     get("12th_stream"),
		TwelfthPercent:    get("12th_percentage"),
		FavSubjectTenth:   get("fav_subject_10th"),
		FavSubjectTwelfth: get("fav_subject_12th"),
		Interests:         get("interests"),
		Email:             get("email"),
		Mobile:            get("mobile"),
		BirthYear:         get("birth_year"),
		DOB:               get("dob"),
		EducationType:     get("education_type"),
		EducationStatus:   get("education_status"),
		CurrentGoal:       get("current_goal"),
		OtherPlans:        get("other_plans"),
		LastSearch:        get("last_search"),
	}
}

// stringValue renders a document value as text. Nil, blank strings and
// empty lists count as absent.
func stringValue(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		s := strings.TrimSpace(val)
		return s, s != ""
	case []string:
		items := lo.Filter(val, func(s string, _ int) bool { return strings.TrimSpace(s) != "" })
		return strings.Join(items, ", "), len(items) > 0
	case []any:
		items := lo.FilterMap(val, func(item any, _ int) (string, bool) {
			return stringValue(item)
		})
		return strings.Join(items, ", "), len(items) > 0
	default:
		s := fmt.Sprint(val)
		return s, s != ""
	}
}

// SearchQuery builds the knowledge-base query from stream, favourite
// subject and interests.
func SearchQuery(p models.Profile) string {
	return fmt.Sprintf("%s %s %s", p.TwelfthStream, p.FavSubjectTwelfth, p.Interests)
}

type ProfileService struct {
	repo db.ProfileRepository
}

func NewProfileService(repo db.ProfileRepository) *ProfileService {
	return &ProfileService{repo: repo}
}

func (s *ProfileService) GetProfile(ctx context.Context, studentID string) (models.Profile, error) {
	log.Printf("[INFO] Starting get profile for student %s", studentID)

	raw, err := s.GetRawProfile(ctx, studentID)
	if err != nil {
		return models.Profile{}, err
	}

	profile := NormalizeProfile(raw)
	log.Printf("[INFO] Successfully mapped profile for student %s (%d raw fields)", studentID, len(raw))
	return profile, nil
}

// GetRawProfile returns the stored document without field mapping.
func (s *ProfileService) GetRawProfile(ctx context.Context, studentID string) (map[string]any, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, fmt.Errorf("student ID is required")
	}

	raw, err := s.repo.GetProfile(ctx, studentID)
	if err != nil {
		log.Printf("[ERROR] Failed to get profile for student %s: %v", studentID, err)
		return nil, err
	}

	return raw, nil
}

func (s *ProfileService) SaveProfile(ctx context.Context, studentID string, data map[string]any) error {
	log.Printf("[INFO] Starting save profile for student %s with %d fields", studentID, len(data))

	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return fmt.Errorf("student ID is required")
	}

	if err := s.repo.SaveProfile(ctx, studentID, data); err != nil {
		log.Printf("[ERROR] Failed to save profile for student %s: %v", studentID, err)
		return fmt.Errorf("failed to save profile: %w", err)
	}

	log.Printf("[INFO] Successfully saved profile for student %s", studentID)
	return nil
}
