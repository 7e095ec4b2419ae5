package hevy

// ExerciseTemplate is an exercise definition as returned by the Hevy API
type ExerciseTemplate struct {
	ID                    string   `json:"id"`
	Title                 string   `json:"title"`
	Type                  string   `json:"type,omitempty"`
	PrimaryMuscleGroup    string   `json:"primary_muscle_group,omitempty"`
	SecondaryMuscleGroups []string `json:"secondary_muscle_groups,omitempty"`
	Equipment             string   `json:"equipment,omitempty"`
	IsCustom              bool     `json:"is_custom"`
}

// ExerciseTemplatePage is one page of GET /v1/exercise_templates
type ExerciseTemplatePage struct {
	Page              int                `json:"page"`
	PageCount         int                `json:"page_count"`
	ExerciseTemplates []ExerciseTemplate `json:"exercise_templates"`
}

// apiError is the error body Hevy returns on non-2xx responses
type apiError struct {
	Error string `json:"error"`
}
