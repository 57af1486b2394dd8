package models

const (
	OutcomeSuccess = "success"
	OutcomeDanger  = "danger"
)

// Result is what a successful operation hands back to the HTTP layer:
// a message to flash and where to send the browser next.
type Result struct {
	Outcome  string
	Message  string
	Redirect string
}

type Flash struct {
	Outcome string
	Message string
}

type PageData struct {
	Title       string
	CurrentUser *User
	Flash       *Flash
	CSRFtoken   string
	Games       []Game
	Game        *Game
	Form        map[string]string
	FormErrors  []string
	Next        string
}
