package classifier

import (
	"context"
	"regexp"
	"strings"
)

// keywordTable maps project names to the title keywords that select them.
// First match wins; the table is checked in a fixed order so classification
// is deterministic. The content was lifted as-is from the operator's curated
// list and is data, not logic. Edit freely.
var keywordTable = []struct {
	project  string
	keywords []string
}{
	// Development and tooling
	{"VS Code", []string{"vs code", "vscode", "visual studio code"}},
	{"GitHub", []string{"github", "git hub"}},
	{"ChatGPT", []string{"chatgpt", "chat gpt", "openai"}},
	{"Xubuntu", []string{"xubuntu", "ubuntu"}},
	{"Python", []string{"python", "django", "flask"}},
	{"JavaScript", []string{"javascript", "node", "react", "vue"}},
	{"PHP", []string{"php", "laravel", "symfony"}},
	{"MySQL", []string{"mysql", "mariadb", "base de datos"}},
	{"Docker", []string{"docker", "contenedor"}},

	// Design
	{"Photoshop", []string{"photoshop", "adobe"}},
	{"GIMP", []string{"gimp"}},
	{"Diseño Web", []string{"diseño web", "web design", "css", "html"}},
	{"WordPress", []string{"wordpress"}},
	{"Elementor", []string{"elementor"}},
	{"Wix", []string{"wix"}},

	// Freelancing
	{"Fiverr", []string{"fiverr"}},
	{"Upwork", []string{"upwork"}},
	{"Freelancer", []string{"freelancer"}},
	{"LinkedIn", []string{"linkedin"}},
	{"Facebook", []string{"facebook"}},

	// Specific projects
	{"AFIP", []string{"afip", "factura electronica", "dolibarr"}},
	{"WhatsApp", []string{"whatsapp", "bot"}},
	{"VGR", []string{"vgr-", "vgr "}},
	{"ENARGAS", []string{"enargas", "metrogas"}},
	{"Cerámica", []string{"ceramica", "ceramic"}},
	{"Salud", []string{"salud", "medicina"}},
	{"IA", []string{"inteligencia artificial", "machine learning"}},

	// Tools
	{"XAMPP", []string{"xampp", "lampp"}},
	{"Moodle", []string{"moodle"}},
	{"Google", []string{"google", "gmail"}},
	{"Windows", []string{"windows"}},
	{"Android", []string{"android"}},
}

var numberedTitle = regexp.MustCompile(`^\d+\s+`)

// Keyword classifies titles against the static keyword table, with the
// original heuristics as fallback: numbered titles use the text after the
// number, otherwise the first two words stand in as a project name.
type Keyword struct {
	defaultProject string
}

func NewKeyword(defaultProject string) *Keyword {
	if defaultProject == "" {
		defaultProject = "General"
	}
	return &Keyword{defaultProject: defaultProject}
}

func (k *Keyword) Classify(_ context.Context, title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return k.defaultProject, nil
	}

	lower := strings.ToLower(title)
	for _, entry := range keywordTable {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.project, nil
			}
		}
	}

	if numberedTitle.MatchString(title) {
		rest := numberedTitle.ReplaceAllString(title, "")
		if len(rest) > 3 {
			if len(rest) > 30 {
				rest = rest[:30]
			}
			return rest, nil
		}
	}

	words := strings.Fields(title)
	switch {
	case len(words) >= 2:
		return strings.Join(words[:2], " "), nil
	case len(words) == 1:
		return words[0], nil
	}

	return k.defaultProject, nil
}
