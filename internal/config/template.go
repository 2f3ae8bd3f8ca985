package config

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/codex-k8s/werkschrift/internal/env"
)

// RenderTemplate renders raw with the config helpers and ctx. Missing env keys render empty.
func RenderTemplate(name string, raw []byte, ctx TemplateContext) ([]byte, error) {
	tmpl, err := template.New(name).Option("missingkey=zero").Funcs(buildFuncMap(ctx)).Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parse template %q: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return nil, fmt.Errorf("execute template %q: %w", name, err)
	}
	return buf.Bytes(), nil
}

// buildFuncMap constructs the template functions available in the config file.
func buildFuncMap(ctx TemplateContext) template.FuncMap {
	return template.FuncMap{
		"default":    funcDef,
		"toLower":    strings.ToLower,
		"envOr":      funcEnvOr(ctx.Env),
		"trimPrefix": funcTrimPrefix,
	}
}

// funcDef returns def when value is empty or whitespace, otherwise value.
func funcDef(def, value string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}

// funcTrimPrefix removes prefix from value. The prefix is the first argument.
func funcTrimPrefix(prefix, value string) string {
	return strings.TrimPrefix(value, prefix)
}

// funcEnvOr returns a function that looks up a key in envMap and falls back to def.
func funcEnvOr(envMap env.Vars) func(key, def string) string {
	return func(key, def string) string {
		if v, ok := envMap[key]; ok && v != "" {
			return v
		}
		return def
	}
}
