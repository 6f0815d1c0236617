package analysis

// TraditionalRequest describes symptoms reported as a list.
type TraditionalRequest struct {
	Symptoms       []string `json:"symptoms" validate:"required,min=1,dive,required"`
	Age            int      `json:"age" validate:"required,min=1,max=120"`
	Gender         string   `json:"gender" validate:"required"`
	Duration       string   `json:"duration" validate:"required"`
	AdditionalInfo string   `json:"additional_info,omitempty"`
}

// BodyRequest describes symptoms located on the body map.
type BodyRequest struct {
	Age          int      `json:"age" validate:"required,min=1,max=120"`
	Gender       string   `json:"gender" validate:"required"`
	BodyParts    []string `json:"body_parts" validate:"required,min=1,dive,required"`
	SymptomTypes []string `json:"symptom_types" validate:"required,min=1,dive,required"`
	Severity     string   `json:"severity" validate:"required"`
	Duration     string   `json:"duration" validate:"required"`
	Description  string   `json:"description" validate:"required,min=10,max=500"`
}
