package prompts

import (
	"bytes"
	"embed"
	"text/template"

	"github.com/Divya4879/Sassy-AI-Debate-Coach/domain"
)

// HistoryWindow is how many trailing turns a rebuttal prompt carries.
const HistoryWindow = 4

//go:embed templates/*.tmpl
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.tmpl"))

type transcriptLine struct {
	Label   string
	Message string
}

// BuildOpening renders the prompt for the AI's opening statement.
func BuildOpening(topic, userSide string, persona domain.Persona) (string, error) {
	data := struct {
		Persona  domain.Persona
		Topic    string
		UserSide string
	}{
		Persona:  persona,
		Topic:    topic,
		UserSide: userSide,
	}
	return render("opening.tmpl", data)
}

// BuildRebuttal renders the prompt answering the user's latest argument.
// Only the most recent HistoryWindow turns of history are included.
func BuildRebuttal(argument, topic, userSide string, persona domain.Persona, history []domain.Turn) (string, error) {
	data := struct {
		Persona    domain.Persona
		Topic      string
		UserSide   string
		Argument   string
		Transcript []transcriptLine
	}{
		Persona:    persona,
		Topic:      topic,
		UserSide:   userSide,
		Argument:   argument,
		Transcript: transcript(history),
	}
	return render("rebuttal.tmpl", data)
}

// BuildAnalysis renders the JSON-structured feedback request.
func BuildAnalysis(argument string, persona domain.Persona) (string, error) {
	data := struct {
		Persona  domain.Persona
		Argument string
	}{
		Persona:  persona,
		Argument: argument,
	}
	return render("analysis.tmpl", data)
}

func transcript(history []domain.Turn) []transcriptLine {
	if len(history) > HistoryWindow {
		history = history[len(history)-HistoryWindow:]
	}
	lines := make([]transcriptLine, 0, len(history))
	for _, t := range history {
		label := "AI"
		if t.Speaker == domain.UserSpeaker {
			label = "Human"
		}
		lines = append(lines, transcriptLine{Label: label, Message: t.Message})
	}
	return lines
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
