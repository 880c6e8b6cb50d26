package applog

import "regexp"

var (
	rePassword = regexp.MustCompile(`(?i)(password=)([^\s;]+)`)
	reToken    = regexp.MustCompile(`(?i)(token=|bearer\s+)([A-Za-z0-9._-]+)`)
	reDSNPass  = regexp.MustCompile(`(?i)(://)([^:/@\s]+):([^@\s]+)(@)`)
	reAPIKey   = regexp.MustCompile(`(?i)(apikey=|api_key=|key=|x-api-key:\s*)([^\s;&"]+)`)
	reOpenAI   = regexp.MustCompile(`sk-[A-Za-z0-9_-]{8,}`)
)

// Mask hides credentials in text that is about to be shown to the user:
// DSN user and password, password= and key= pairs, bearer tokens and
// OpenAI-style secret keys.
func Mask(s string) string {
	out := rePassword.ReplaceAllString(s, "$1***")
	out = reToken.ReplaceAllString(out, "$1***")
	out = reDSNPass.ReplaceAllString(out, "$1*:*$4")
	out = reAPIKey.ReplaceAllString(out, "$1***")
	out = reOpenAI.ReplaceAllString(out, "sk-***")
	return out
}
