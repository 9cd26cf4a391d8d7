package add_student

// AddStudentRequest HTTP request model
type AddStudentRequest struct {
	Name            string `json:"name"`
	GradeLevel      string `json:"gradeLevel,omitempty"`
	GuardianContact string `json:"guardianContact,omitempty"`
}
