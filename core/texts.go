package orchestration

import "github.com/koscakluka/ema-interview/core/agents"

// Texts are the locally cached messages shown when the collaborator has
// nothing to say or fails.
type Texts struct {
	PreInterviewGreeting   string
	InterviewGreeting      string
	PostAssessmentGreeting string
	RequestFailed          string
}

func DefaultTexts() Texts {
	return Texts{
		PreInterviewGreeting:   "Merhaba! Dijital Pazarlama Uzmanı pozisyonu için mülakata hoş geldiniz. Hazır olduğunuzda başlayabiliriz.",
		PostAssessmentGreeting: "Tebrikler, mülakatın bu aşamasını tamamladınız. Şimdi pozisyon veya şirket hakkında sorularınız varsa alabilirim.",
		RequestFailed:          "Üzgünüm, bir hata oluştu. Lütfen tekrar deneyin.",
	}
}

func (t Texts) greeting(mode agents.Mode) string {
	switch mode {
	case agents.ModePreInterview:
		return t.PreInterviewGreeting
	case agents.ModeInterview:
		return t.InterviewGreeting
	case agents.ModePostAssessment:
		return t.PostAssessmentGreeting
	default:
		return ""
	}
}
