package crew

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// RenderPrompt replaces {name} placeholders in template with vars[name].
// Doubled braces produce a literal brace. When a placeholder has no value the
// template is returned unchanged and a single warning is logged. A lone
// brace without a matching partner is copied through as is.
func RenderPrompt(logger *zap.Logger, template string, vars map[string]any) string {
	var sb strings.Builder
	sb.Grow(len(template))

	for i := 0; i < len(template); i++ {
		c := template[i]
		switch {
		case c == '{' && i+1 < len(template) && template[i+1] == '{':
			sb.WriteByte('{')
			i++
		case c == '}' && i+1 < len(template) && template[i+1] == '}':
			sb.WriteByte('}')
			i++
		case c == '{':
			end := strings.IndexByte(template[i+1:], '}')
			if end == -1 {
				sb.WriteByte(c)
				continue
			}
			name := template[i+1 : i+1+end]
			value, ok := vars[name]
			if !ok {
				logger.Warn("Missing context variable in prompt template.", zap.String("variable", name))
				return template
			}
			sb.WriteString(stringify(value))
			i += end + 1
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}
