package config

import (
	"bytes"
	"os"
	"strings"
	"text/template"
)

// ExpandEnv expands "{{.VAR}}" placeholders in YAML content against the
// process environment. Using Go template syntax (rather than shell-style
// $VAR/${VAR}) avoids colliding with regex patterns or passwords that
// legitimately contain a literal "$" — those pass through untouched.
//
// A missing variable expands to the empty string; validation is expected
// to catch any required field left empty by that. If the content contains
// malformed template syntax, ExpandEnv returns the original bytes unchanged
// so the YAML parser can fail with a clearer error (or, if the malformed
// template lives inside an otherwise-valid string, succeed as a literal).
func ExpandEnv(data []byte) []byte {
	tmpl, err := template.New("config").Parse(string(data))
	if err != nil {
		return data
	}

	env := map[string]string{}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, env); err != nil {
		return data
	}
	return buf.Bytes()
}
