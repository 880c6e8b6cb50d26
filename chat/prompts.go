package chat

import (
	"embed"
	"fmt"
	"os"
	"strings"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// SQLRequest carries everything the SQL prompt is rendered from.
type SQLRequest struct {
	Schema   string
	Dataset  string
	Dialect  string
	History  []Turn
	Question string
}

// AnswerRequest carries everything the answer prompt is rendered from.
type AnswerRequest struct {
	Schema   string
	Dataset  string
	Dialect  string
	History  []Turn
	Question string
	SQL      string
	Result   string
}

// promptData is the template context shared by both prompts.
type promptData struct {
	Schema   string
	Dataset  string
	Dialect  string
	History  []Turn
	Question string
	SQL      string
	Result   string
}

// Table qualifies a table name with the dataset, quoted for BigQuery.
func (d promptData) Table(name string) string {
	q := d.Dataset + "." + name
	if strings.HasPrefix(d.Dialect, "BigQuery") {
		return "`" + q + "`"
	}
	return q
}

// Transcript renders the history as "AI: ..." / "Human: ..." lines.
func (d promptData) Transcript() string {
	if len(d.History) == 0 {
		return "(none)"
	}
	var sb strings.Builder
	for i, t := range d.History {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(t.Role.Label())
		sb.WriteString(": ")
		sb.WriteString(t.Content)
	}
	return sb.String()
}

// Prompts holds the parsed SQL and answer templates.
type Prompts struct {
	sql    *template.Template
	answer *template.Template
}

// LoadPrompts parses the built-in templates, replacing either with the
// file at sqlPath / answerPath when non-empty.
func LoadPrompts(sqlPath, answerPath string) (*Prompts, error) {
	sqlT, err := loadTemplate("sql", "templates/sql.tmpl", sqlPath)
	if err != nil {
		return nil, err
	}
	answerT, err := loadTemplate("answer", "templates/answer.tmpl", answerPath)
	if err != nil {
		return nil, err
	}
	return &Prompts{sql: sqlT, answer: answerT}, nil
}

// DefaultPrompts returns the built-in templates.
func DefaultPrompts() *Prompts {
	p, err := LoadPrompts("", "")
	if err != nil {
		panic(err)
	}
	return p
}

func loadTemplate(name, builtin, override string) (*template.Template, error) {
	var (
		text []byte
		err  error
	)
	if override != "" {
		text, err = os.ReadFile(override)
	} else {
		text, err = templateFS.ReadFile(builtin)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s prompt: %w", name, err)
	}
	t, err := template.New(name).Option("missingkey=error").Parse(string(text))
	if err != nil {
		return nil, fmt.Errorf("parse %s prompt: %w", name, err)
	}
	return t, nil
}

// RenderSQL renders the SQL-generation instruction.
func (p *Prompts) RenderSQL(req SQLRequest) (string, error) {
	return render(p.sql, promptData{
		Schema:   req.Schema,
		Dataset:  req.Dataset,
		Dialect:  req.Dialect,
		History:  req.History,
		Question: req.Question,
	})
}

// RenderAnswer renders the answer instruction.
func (p *Prompts) RenderAnswer(req AnswerRequest) (string, error) {
	return render(p.answer, promptData(req))
}

func render(t *template.Template, data promptData) (string, error) {
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", t.Name(), err)
	}
	return sb.String(), nil
}
