package models

// Profile is the canonical shape of a student record after normalization.
// Every field is a plain string; marks and years are kept exactly as stored.
type Profile struct {
	Name              string `json:"name"`
	PreferredName     string `json:"preferred_name"`
	Gender            string `json:"gender"`
	District          string `json:"district"`
	State             string `json:"state"`
	SchoolName        string `json:"school_name"`
	TenthPercentage   string `json:"10th_percentage"`
	TwelfthStream     string `json:"12th_stream"`
	TwelfthPercent    string `json:"12th_percentage"`
	FavSubjectTenth   string `json:"fav_subject_10th"`
	FavSubjectTwelfth string `json:"fav_subject_12th"`
	Interests         string `json:"interests"`
	Email             string `json:"email"`
	Mobile            string `json:"mobile"`
	BirthYear         string `json:"birth_year"`
	DOB               string `json:"dob"`
	EducationType     string `json:"education_type"`
	EducationStatus   string `json:"education_status"`
	CurrentGoal       string `json:"current_goal"`
	OtherPlans        string `json:"other_plans"`
	LastSearch        string `json:"last_search"`
}

type ProfileField struct {
	Key   string
	Label string
	Value string
}

// Fields returns the profile in display order.
func (p Profile) Fields() []ProfileField {
	return []ProfileField{
		{"name", "Name", p.Name},
		{"preferred_name", "Preferred Name", p.PreferredName},
		{"gender", "Gender", p.Gender},
		{"district", "District", p.District},
		{"state", "State", p.State},
		{"school_name", "School", p.SchoolName},
		{"10th_percentage", "10th Percentage", p.TenthPercentage},
		{"12th_stream", "12th Stream", p.TwelfthStream},
		{"12th_percentage", "12th Percentage", p.TwelfthPercent},
		{"fav_subject_10th", "Favorite Subject (10th)", p.FavSubjectTenth},
		{"fav_subject_12th", "Favorite Subject (12th)", p.FavSubjectTwelfth},
		{"interests", "General Interests", p.Interests},
		{"email", "Email", p.Email},
		{"mobile", "Mobile", p.Mobile},
		{"birth_year", "Birth Year", p.BirthYear},
		{"dob", "Date of Birth", p.DOB},
		{"education_type", "Education", p.EducationType},
		{"education_status", "Education Status", p.EducationStatus},
		{"current_goal", "Current Goal", p.CurrentGoal},
		{"other_plans", "Other Plans", p.OtherPlans},
		{"last_search", "Last Search", p.LastSearch},
	}
}

// Map flattens the profile into its wire keys.
func (p Profile) Map() map[string]string {
	fields := p.Fields()
	m := make(map[string]string, len(fields))
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	return m
}

// Merge overlays assessment answers on top of the profile. Answers win on
// key collisions, mirroring a plain dictionary update.
func (p Profile) Merge(responses map[string]string) map[string]string {
	merged := p.Map()
	for k, v := range responses {
		merged[k] = v
	}
	return merged
}
