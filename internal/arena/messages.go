package arena

// Model identifies one side of the comparison. The values are what the
// backend expects in the winner field.
type Model string

const (
	ModelA Model = "Chat A"
	ModelB Model = "Chat B"
)

// Pane is one of the two reply panes.
type Pane int

const (
	PaneA Pane = iota
	PaneB
)

func (p Pane) String() string {
	if p == PaneA {
		return "A"
	}
	return "B"
}

// Proficiency levels offered by the participant form. The empty value is the
// placeholder and keeps voting disabled.
var ProficiencyLevels = []string{
	"Iniciante",
	"Básico",
	"Intermediário",
	"Avançado",
	"Especialista",
}

const ProficiencyPlaceholder = "Selecione..."

const (
	UserLabel   = "Você"
	ModelALabel = "Modelo A"
	ModelBLabel = "Modelo B"
)

const (
	ProficiencyWarning   = "Por favor, selecione seu nível de proficiência para votar."
	ProficiencyRequired  = "Você precisa selecionar seu nível de proficiência para avaliar."
	VoteRegistered       = "Avaliação registrada com sucesso! Obrigado."
	VoteRegistrationFail = "Ocorreu um erro ao registrar sua avaliação. Tente novamente."
)
