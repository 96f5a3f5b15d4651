package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	orchestration "github.com/koscakluka/ema-interview/core"
	"github.com/koscakluka/ema-interview/core/agents"
)

func (m Model) View() string {
	var body string
	switch m.snapshot.Stage {
	case orchestration.StageScheduling:
		body = m.schedulingView()
	case orchestration.StageWaiting:
		body = m.waitingView()
	case orchestration.StagePreInterviewChat, orchestration.StageInterview, orchestration.StagePostAssessmentQnA:
		body = m.chatView()
	case orchestration.StageAssessment:
		body = m.assessmentView()
	case orchestration.StageCompletion:
		body = m.completionView()
	}

	header := TitleStyle.Render("Dijital Pazarlama Uzmanı Mülakatı") + "  " +
		DimStyle.Render(fmt.Sprintf("%s · %s", m.snapshot.SessionID, m.snapshot.Stage))

	sections := []string{header, "", body}
	if m.errorMessage != "" {
		sections = append(sections, "", ErrorStyle.Render(m.errorMessage))
	}
	sections = append(sections, "", DimStyle.Render(m.helpLine()))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) helpLine() string {
	switch m.snapshot.Stage {
	case orchestration.StageScheduling:
		return "←/→ gün · ↑/↓ saat · enter planla · ctrl+n şimdi başla · q çıkış"
	case orchestration.StageWaiting:
		return "q çıkış"
	case orchestration.StageInterview:
		return "enter gönder · ctrl+l mikrofon · ctrl+e görüşmeyi bitir · ctrl+c çıkış"
	case orchestration.StagePreInterviewChat, orchestration.StagePostAssessmentQnA:
		return "enter gönder · ctrl+l mikrofon · ctrl+c çıkış"
	case orchestration.StageAssessment:
		return "↑/↓ seçenek · 1-9 seç · enter onayla · q çıkış"
	case orchestration.StageCompletion:
		return "r yeniden başla · q çıkış"
	default:
		return ""
	}
}

func (m Model) schedulingView() string {
	var b strings.Builder
	b.WriteString("Mülakat için bir gün ve saat seçin ya da hemen başlayın.\n\n")

	day := m.selectedDay()
	b.WriteString("Gün:  ")
	b.WriteString(SelectedStyle.Render("‹ " + day.Format("Mon 02 Jan 2006") + " ›"))
	b.WriteString("\n\n")

	for i, slot := range orchestration.TimeSlots {
		if i == m.slot {
			b.WriteString(SelectedStyle.Render("> " + slot))
		} else {
			b.WriteString("  " + slot)
		}
		b.WriteString("\n")
	}
	return BoxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) waitingView() string {
	var b strings.Builder
	if schedule := m.snapshot.Schedule; schedule != nil {
		b.WriteString("Mülakatınız " + SelectedStyle.Render(schedule.StartAt.Format("02 Jan 2006 15:04")) + " için planlandı.\n\n")
	}
	b.WriteString("Başlamasına kalan süre: ")
	b.WriteString(WarningStyle.Render(formatCountdown(m.snapshot.Remaining)))
	b.WriteString("\n\n")
	b.WriteString(DimStyle.Render("Oturum başlangıçtan bir dakika önce otomatik olarak açılacak."))
	return BoxStyle.Render(b.String())
}

func formatCountdown(d time.Duration) string {
	d = d.Round(time.Second)
	hours := int(d / time.Hour)
	minutes := int(d % time.Hour / time.Minute)
	seconds := int(d % time.Minute / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

func (m Model) chatView() string {
	chat := m.session.Chat()
	if chat == nil {
		return m.spinner.View()
	}

	width := max(m.width-4, 20)
	var lines []string
	for _, message := range chat.History() {
		lines = append(lines, renderMessage(message, width))
	}
	if chat.IsLoading() {
		lines = append(lines, m.spinner.View()+DimStyle.Render(" yazıyor..."))
	}
	if chat.IsSpeaking() {
		lines = append(lines, DimStyle.Render("🔊"))
	}

	// Keep the latest messages on screen.
	if limit := max(m.height-10, 4); len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}

	sections := []string{strings.Join(lines, "\n\n"), ""}
	if m.snapshot.Stage == orchestration.StagePostAssessmentQnA && m.snapshot.Result != nil {
		sections = append([]string{DimStyle.Render(fmt.Sprintf("Değerlendirme puanı: %d/%d",
			m.snapshot.Score, m.snapshot.Result.TotalQuestions)), ""}, sections...)
	}
	if m.listening {
		sections = append(sections, WarningStyle.Render("● dinleniyor ")+DimStyle.Render(m.partialText))
	}
	sections = append(sections, m.input.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderMessage(message agents.Message, width int) string {
	label := AgentLabelStyle.Render("Ema")
	if message.Speaker == agents.SpeakerCandidate {
		label = CandidateLabelStyle.Render("Siz")
	}
	return label + "\n" + wordwrap.String(message.Text, width)
}

func (m Model) assessmentView() string {
	engine := m.session.Assessment()
	if engine == nil {
		return m.spinner.View()
	}
	view := engine.View()
	if view.Loading {
		return m.spinner.View() + " Değerlendirme hazırlanıyor..."
	}
	if view.Finished {
		return SuccessStyle.Render("Değerlendirme tamamlandı.")
	}

	width := max(m.width-8, 20)
	var b strings.Builder
	b.WriteString(DimStyle.Render(fmt.Sprintf("Soru %d/%d", view.Index+1, view.Total)))
	b.WriteString("   ")
	remaining := fmt.Sprintf("%ds", int(view.Remaining/time.Second))
	if view.Remaining <= 10*time.Second {
		b.WriteString(ErrorStyle.Render(remaining))
	} else {
		b.WriteString(WarningStyle.Render(remaining))
	}
	b.WriteString("\n\n")
	b.WriteString(wordwrap.String(view.Question.Prompt, width))
	b.WriteString("\n\n")

	for i, option := range view.Question.Options {
		marker := "  "
		if i == m.cursor {
			marker = "> "
		}
		line := fmt.Sprintf("%s%d. %s", marker, i+1, option)
		switch {
		case i == view.Selected:
			line = SelectedStyle.Render(line + " ✓")
		case i == m.cursor:
			line = SelectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return BoxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) completionView() string {
	var b strings.Builder
	b.WriteString(SuccessStyle.Render("Mülakat tamamlandı. Katılımınız için teşekkür ederiz!"))
	b.WriteString("\n\n")
	if result := m.snapshot.Result; result != nil {
		b.WriteString(fmt.Sprintf("Değerlendirme puanı: %d/%d (%%%.0f)\n",
			result.Score, result.TotalQuestions, result.Percentage()))
		for i, record := range result.PerQuestion {
			mark := ErrorStyle.Render("✗")
			if record.IsCorrect {
				mark = SuccessStyle.Render("✓")
			}
			b.WriteString(fmt.Sprintf("%s %d. %s\n", mark, i+1, record.Question))
		}
	}
	return BoxStyle.Render(strings.TrimRight(b.String(), "\n"))
}
