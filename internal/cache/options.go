package cache

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrMalformedOptions is reported (never returned to cache callers) when an
// option set cannot be serialized into a stable key.
var ErrMalformedOptions = errors.New("malformed cache options")

// Field is a single named option value that participates in a cache key.
type Field struct {
	Name  string
	Value string
}

// Options is implemented by the per-operation option records that scope a
// cached result. Field order does not matter; names must be unique.
type Options interface {
	CacheFields() []Field
}

// Fields is a small builder for Options implementations.
type Fields []Field

// CacheFields lets a bare Fields value be used as Options.
func (f Fields) CacheFields() []Field { return f }

// String appends a string field.
func (f Fields) String(name, value string) Fields {
	return append(f, Field{Name: name, Value: value})
}

// Bool appends a boolean field.
func (f Fields) Bool(name string, value bool) Fields {
	return append(f, Field{Name: name, Value: strconv.FormatBool(value)})
}

// Int appends an integer field.
func (f Fields) Int(name string, value int) Fields {
	return append(f, Field{Name: name, Value: strconv.Itoa(value)})
}

// NoOptions is the empty option set.
var NoOptions Options = Fields(nil)

// Key builds the composite key op:subject:serializedOptions.
func Key(op OpType, subject string, opts Options) (key string, err error) {
	serialized, err := serializeOptions(opts)
	if err != nil {
		return "", err
	}
	return string(op) + ":" + subject + ":" + serialized, nil
}

func serializeOptions(opts Options) (out string, err error) {
	if opts == nil {
		return "", nil
	}
	defer func() {
		if r := recover(); r != nil {
			out = ""
			err = fmt.Errorf("%w: %v", ErrMalformedOptions, r)
		}
	}()

	fields := append([]Field(nil), opts.CacheFields()...)
	sort.Slice(fields, func(i, j int) bool {
		return fields[i].Name < fields[j].Name
	})

	parts := make([]string, 0, len(fields))
	for i, f := range fields {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			return "", fmt.Errorf("%w: empty option name", ErrMalformedOptions)
		}
		if strings.ContainsAny(name, `:|\`) {
			return "", fmt.Errorf("%w: reserved character in option name %q", ErrMalformedOptions, f.Name)
		}
		if i > 0 && fields[i-1].Name == f.Name {
			return "", fmt.Errorf("%w: duplicate option %q", ErrMalformedOptions, f.Name)
		}
		parts = append(parts, name+":"+valueEscaper.Replace(f.Value))
	}
	return strings.Join(parts, "|"), nil
}

// valueEscaper keeps the separators unambiguous inside option values.
var valueEscaper = strings.NewReplacer(`\`, `\\`, `|`, `\|`, `:`, `\:`)
