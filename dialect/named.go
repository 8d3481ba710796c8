package dialect

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Template is a statement whose :name parameters were rewritten into the
// positional placeholders of one dialect.
type Template struct {
	SQL   string
	Names []string // parameter name per placeholder, in order
}

// HasParams reports whether the source statement contained :name parameters.
func (t *Template) HasParams() bool { return len(t.Names) > 0 }

// Bind orders values by the template's parameter names.
func (t *Template) Bind(values map[string]any) ([]any, error) {
	args := make([]any, len(t.Names))
	for i, name := range t.Names {
		v, ok := values[name]
		if !ok {
			return nil, fmt.Errorf("missing value for :%s", name)
		}
		args[i] = v
	}
	return args, nil
}

type nameToken struct {
	name  string
	start int
	end   int
}

// Compile rewrites :name parameters of query into d's placeholders.
//
// Quoted strings, identifiers, comments, PostgreSQL ::casts and $tag$ blocks
// are left untouched. A statement without :name parameters compiles to
// itself.
func Compile(query string, d Dialect) (*Template, error) {
	toks, err := findNamedParams(query)
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return &Template{SQL: query}, nil
	}

	var b strings.Builder
	b.Grow(len(query) + len(toks)*2)
	names := make([]string, 0, len(toks))
	last := 0
	for i, t := range toks {
		b.WriteString(query[last:t.start])
		b.WriteString(d.Placeholder(i + 1))
		names = append(names, t.name)
		last = t.end
	}
	b.WriteString(query[last:])

	return &Template{SQL: b.String(), Names: names}, nil
}

func findNamedParams(query string) ([]nameToken, error) {
	var out []nameToken
	i := 0
	for i < len(query) {
		r, w := utf8.DecodeRuneInString(query[i:])
		switch r {
		case '\'', '"', '`':
			j := strings.IndexRune(query[i+w:], r)
			if j < 0 {
				return nil, fmt.Errorf("unterminated %c quote at offset %d", r, i)
			}
			i += w + j + 1
			continue
		case '-':
			if strings.HasPrefix(query[i:], "--") {
				j := strings.IndexByte(query[i:], '\n')
				if j < 0 {
					return out, nil
				}
				i += j + 1
				continue
			}
		case '/':
			if strings.HasPrefix(query[i:], "/*") {
				j := strings.Index(query[i+2:], "*/")
				if j < 0 {
					return nil, fmt.Errorf("unterminated block comment at offset %d", i)
				}
				i += 2 + j + 2
				continue
			}
		case '$':
			if j, ok, err := skipDollarQuoted(query, i); err != nil {
				return nil, err
			} else if ok {
				i = j
				continue
			}
		case ':':
			if strings.HasPrefix(query[i:], "::") {
				i += 2
				continue
			}
			name, end := parseIdent(query, i+1)
			if name != "" {
				out = append(out, nameToken{name: name, start: i, end: end})
				i = end
				continue
			}
		}
		i += w
	}
	return out, nil
}

// skipDollarQuoted skips a $tag$...$tag$ block starting at i. Positional
// parameters such as $1 are not blocks.
func skipDollarQuoted(query string, i int) (int, bool, error) {
	j := i + 1
	for j < len(query) {
		r, w := utf8.DecodeRuneInString(query[j:])
		if r == '$' {
			break
		}
		if !(r == '_' || unicode.IsLetter(r) || (j > i+1 && unicode.IsDigit(r))) {
			return 0, false, nil
		}
		j += w
	}
	if j >= len(query) {
		return 0, false, nil
	}
	tag := query[i : j+1]
	end := strings.Index(query[j+1:], tag)
	if end < 0 {
		return 0, false, fmt.Errorf("unterminated dollar-quoted block %s at offset %d", tag, i)
	}
	return j + 1 + end + len(tag), true, nil
}

func parseIdent(query string, i int) (string, int) {
	start := i
	for i < len(query) {
		r, w := utf8.DecodeRuneInString(query[i:])
		if r == '_' || unicode.IsLetter(r) || (i > start && unicode.IsDigit(r)) {
			i += w
			continue
		}
		break
	}
	return query[start:i], i
}
