package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/liveslides/pkg/domain"
)

// Interpolator resolves ${...} placeholders in a template against params.
type Interpolator func(ctx context.Context, template string, params map[string]any) (string, error)

// DefaultInterpolator evaluates placeholders with Interpolate.
func DefaultInterpolator(_ context.Context, template string, params map[string]any) (string, error) {
	return Interpolate(template, params)
}

// Interpolate replaces each ${expr} in template. An expression is an
// identifier followed by any number of property accesses: a.b, a["b"], a[0].
// Only the keys of params are in scope.
//
// Any unresolvable reference or syntax error fails the whole template.
func Interpolate(template string, params map[string]any) (string, error) {
	if !strings.Contains(template, "${") {
		return template, nil
	}

	var b strings.Builder
	b.Grow(len(template))

	rest := template
	for {
		start := strings.Index(rest, "${")
		if start < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:start])

		end := strings.IndexByte(rest[start+2:], '}')
		if end < 0 {
			return "", fmt.Errorf("%w: unterminated placeholder", domain.ErrInterpolation)
		}
		expr := rest[start+2 : start+2+end]

		value, err := evaluate(expr, params)
		if err != nil {
			return "", err
		}
		b.WriteString(format(value))

		rest = rest[start+2+end+1:]
	}
	return b.String(), nil
}

// InterpolateOrKeep is Interpolate that never fails: on error it logs a
// warning and returns template unchanged.
func InterpolateOrKeep(ctx context.Context, logger *slog.Logger, interp Interpolator, template string, params map[string]any) string {
	if interp == nil {
		interp = DefaultInterpolator
	}
	out, err := interp(ctx, template, params)
	if err != nil {
		logger.WarnContext(ctx, "interpolation failed", "template", template, "error", err)
		return template
	}
	return out
}

type accessor struct {
	key   string
	index int
	isIdx bool
}

func evaluate(expr string, params map[string]any) (any, error) {
	root, path, err := parseExpr(strings.TrimSpace(expr))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", domain.ErrInterpolation, expr, err)
	}

	value, ok := params[root]
	if !ok {
		return nil, fmt.Errorf("%w: %q is not defined", domain.ErrInterpolation, root)
	}

	for _, acc := range path {
		value, ok = access(value, acc)
		if !ok {
			return nil, fmt.Errorf("%w: cannot resolve %q", domain.ErrInterpolation, expr)
		}
	}
	return value, nil
}

func parseExpr(expr string) (string, []accessor, error) {
	i := 0
	ident := func() (string, error) {
		startIdx := i
		for i < len(expr) {
			r, size := utf8.DecodeRuneInString(expr[i:])
			if r == '_' || r == '$' || unicode.IsLetter(r) || (i > startIdx && unicode.IsDigit(r)) {
				i += size
				continue
			}
			break
		}
		if i == startIdx {
			return "", fmt.Errorf("expected identifier at offset %d", startIdx)
		}
		return expr[startIdx:i], nil
	}

	root, err := ident()
	if err != nil {
		return "", nil, err
	}

	var path []accessor
	for i < len(expr) {
		switch expr[i] {
		case '.':
			i++
			name, err := ident()
			if err != nil {
				return "", nil, err
			}
			path = append(path, accessor{key: name})
		case '[':
			closeIdx := strings.IndexByte(expr[i:], ']')
			if closeIdx < 0 {
				return "", nil, fmt.Errorf("unterminated index at offset %d", i)
			}
			inner := strings.TrimSpace(expr[i+1 : i+closeIdx])
			i += closeIdx + 1

			if n, err := strconv.Atoi(inner); err == nil {
				path = append(path, accessor{index: n, isIdx: true})
				continue
			}
			key, err := strconv.Unquote(inner)
			if err != nil && len(inner) >= 2 && inner[0] == '\'' && inner[len(inner)-1] == '\'' {
				key, err = inner[1:len(inner)-1], nil
			}
			if err != nil {
				return "", nil, fmt.Errorf("invalid index %q", inner)
			}
			path = append(path, accessor{key: key})
		default:
			r, _ := utf8.DecodeRuneInString(expr[i:])
			return "", nil, fmt.Errorf("unexpected %q at offset %d", r, i)
		}
	}
	return root, path, nil
}

func access(value any, acc accessor) (any, bool) {
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		key := acc.key
		if acc.isIdx {
			key = strconv.Itoa(acc.index)
		}
		v := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil, false
		}
		return v.Interface(), true
	case reflect.Slice, reflect.Array:
		if acc.isIdx {
			if acc.index < 0 || acc.index >= rv.Len() {
				return nil, false
			}
			return rv.Index(acc.index).Interface(), true
		}
		if acc.key == "length" {
			return rv.Len(), true
		}
	case reflect.String:
		if !acc.isIdx && acc.key == "length" {
			return len([]rune(rv.String())), true
		}
	}
	return nil, false
}

func format(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	case fmt.Stringer:
		return v.String()
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		if data, err := json.Marshal(value); err == nil {
			return string(data)
		}
	}
	return fmt.Sprint(value)
}
