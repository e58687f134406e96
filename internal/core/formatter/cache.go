package formatter

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/yndnr/busstate-go/pkg/hashtable"
)

// Func renders a value of one concrete type.
type Func func(v any) string

// maskedValue replaces fields whose names look sensitive.
const maskedValue = "***"

var sensitiveFieldPatterns = []string{"password", "secret", "token"}

// Cache holds one Func per type.
type Cache struct {
	funcs  *hashtable.Hashtable[reflect.Type, Func]
	builds func() // test hook, called on every build
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		funcs: hashtable.New[reflect.Type, Func](),
	}
}

// Format renders v using the cached formatter for its dynamic type.
func (c *Cache) Format(v any) string {
	if v == nil {
		return "<nil>"
	}
	return c.For(reflect.TypeOf(v))(v)
}

// For returns the formatter for t, building and caching it on first use.
func (c *Cache) For(t reflect.Type) Func {
	if fn, ok := c.funcs.Get(t); ok {
		return fn
	}

	built := c.build(t)

	var fn Func
	c.funcs.Write(func(w hashtable.Writer[reflect.Type, Func]) {
		if existing, ok := w.TryGet(t); ok {
			fn = existing
			return
		}
		w.Set(t, built)
		fn = built
	})
	return fn
}

// Len returns the number of cached formatters.
func (c *Cache) Len() int {
	return c.funcs.Len()
}

func (c *Cache) build(t reflect.Type) Func {
	if c.builds != nil {
		c.builds()
	}
	render := compile(t, make(map[reflect.Type]*renderer))
	return func(v any) string {
		return render(reflect.ValueOf(v), visiting{})
	}
}

// visiting holds the pointers on the current render path. A pointer seen
// again on the same path is a cycle. The type is part of the key because a
// struct and its first field share an address.
type visiting map[visit]struct{}

type visit struct {
	addr uintptr
	typ  reflect.Type
}

const cycleValue = "<cycle>"

type renderer func(v reflect.Value, path visiting) string

var stringerType = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()

// compile returns a renderer for values of type t. Nested types are
// compiled inline rather than looked up in the cache, so a build never
// re-enters the table. compiling tracks struct types under construction so
// self-referencing types terminate.
func compile(t reflect.Type, compiling map[reflect.Type]*renderer) renderer {
	if t.Kind() != reflect.Pointer && t.Kind() != reflect.Interface && t.Implements(stringerType) {
		return func(v reflect.Value, _ visiting) string {
			return v.Interface().(fmt.Stringer).String()
		}
	}

	switch t.Kind() {
	case reflect.Pointer:
		inner := compile(t.Elem(), compiling)
		return func(v reflect.Value, path visiting) string {
			if v.IsNil() {
				return "<nil>"
			}
			p := visit{addr: v.Pointer(), typ: t}
			if _, ok := path[p]; ok {
				return cycleValue
			}
			path[p] = struct{}{}
			defer delete(path, p)
			return "&" + inner(v.Elem(), path)
		}

	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return func(v reflect.Value, _ visiting) string {
				return fmt.Sprintf("[]byte(len=%d)", v.Len())
			}
		}
		return defaultRenderer

	case reflect.Struct:
		if pending, ok := compiling[t]; ok {
			return func(v reflect.Value, path visiting) string {
				return (*pending)(v, path)
			}
		}
		var r renderer
		compiling[t] = &r
		r = compileStruct(t, compiling)
		return r

	default:
		return defaultRenderer
	}
}

func defaultRenderer(v reflect.Value, _ visiting) string {
	if !v.IsValid() || !v.CanInterface() {
		return "<invalid>"
	}
	return fmt.Sprintf("%v", v.Interface())
}

type fieldRenderer struct {
	index  int
	name   string
	masked bool
	render renderer
}

func compileStruct(t reflect.Type, compiling map[reflect.Type]*renderer) renderer {
	name := t.Name()
	if name == "" {
		name = "struct"
	}

	fields := make([]fieldRenderer, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		fields = append(fields, fieldRenderer{
			index:  i,
			name:   f.Name,
			masked: isSensitiveField(f.Name),
			render: compile(f.Type, compiling),
		})
	}

	return func(v reflect.Value, path visiting) string {
		var b strings.Builder
		b.WriteString(name)
		b.WriteByte('{')
		for i, f := range fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(f.name)
			b.WriteString(": ")
			if f.masked {
				b.WriteString(maskedValue)
				continue
			}
			b.WriteString(f.render(v.Field(f.index), path))
		}
		b.WriteByte('}')
		return b.String()
	}
}

func isSensitiveField(name string) bool {
	lower := strings.ToLower(name)
	for _, p := range sensitiveFieldPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
