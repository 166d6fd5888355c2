// Copyright (c) 2026 Keymaster Team
// masking - secret wrapper library and merchant credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

//go:build !masking_noserde

package security

import (
	"bytes"
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// exposer is implemented by both wrappers. ok is false when the wrapper's
// gate forbids raw output.
type exposer interface {
	exposeForSerialization() (raw any, ok bool)
}

const maxExposedDepth = 1000

var (
	exposerType       = reflect.TypeFor[exposer]()
	jsonMarshalerType = reflect.TypeFor[json.Marshaler]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()

	errExposedDepth = errors.New("security: MarshalExposed exceeded maximum nesting depth")
)

// MarshalExposed encodes v as JSON like encoding/json, except that secrets
// whose gate is GateMasked are written as their raw value. Calling it means
// the caller takes responsibility for where the output goes: use it for
// outbound connector payloads or persisted configuration, never for logs.
//
// Every secret decides for itself: a GateSealed field stays masked even when
// it sits inside an exposed container. Types with their own MarshalJSON or
// MarshalText are encoded by that method, so secrets inside them follow the
// type's choice.
//
// Struct handling follows encoding/json for json tags ("-", a name,
// omitempty) and for promoting the exported fields of embedded structs,
// including embedded structs of unexported types.
func MarshalExposed(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeExposed(&buf, reflect.ValueOf(v), 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeExposed(buf *bytes.Buffer, v reflect.Value, depth int) error {
	if depth > maxExposedDepth {
		return errExposedDepth
	}
	if !v.IsValid() {
		buf.WriteString("null")
		return nil
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			buf.WriteString("null")
			return nil
		}
		if v.Kind() == reflect.Pointer && !v.Type().Elem().Implements(exposerType) && v.Type().Implements(jsonMarshalerType) {
			return writeJSON(buf, v.Interface())
		}
		return encodeExposed(buf, v.Elem(), depth+1)
	}

	t := v.Type()
	if t.Implements(exposerType) {
		raw, ok := v.Interface().(exposer).exposeForSerialization()
		if !ok {
			return writeJSON(buf, v.Interface())
		}
		return encodeExposed(buf, reflect.ValueOf(raw), depth+1)
	}
	if t.Implements(jsonMarshalerType) || t.Implements(textMarshalerType) {
		return writeJSON(buf, v.Interface())
	}
	if v.CanAddr() {
		pt := reflect.PointerTo(t)
		if pt.Implements(jsonMarshalerType) || pt.Implements(textMarshalerType) {
			return writeJSON(buf, v.Addr().Interface())
		}
	}

	switch v.Kind() {
	case reflect.Struct:
		return encodeStruct(buf, v, depth)
	case reflect.Map:
		return encodeMap(buf, v, depth)
	case reflect.Slice:
		if v.IsNil() {
			buf.WriteString("null")
			return nil
		}
		if t.Elem().Kind() == reflect.Uint8 {
			return writeJSON(buf, v.Interface())
		}
		return encodeList(buf, v, depth)
	case reflect.Array:
		return encodeList(buf, v, depth)
	default:
		return writeJSON(buf, v.Interface())
	}
}

func writeJSON(buf *bytes.Buffer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

func encodeList(buf *bytes.Buffer, v reflect.Value, depth int) error {
	buf.WriteByte('[')
	for i := 0; i < v.Len(); i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeExposed(buf, v.Index(i), depth+1); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

func encodeMap(buf *bytes.Buffer, v reflect.Value, depth int) error {
	if v.IsNil() {
		buf.WriteString("null")
		return nil
	}
	type entry struct {
		key string
		val reflect.Value
	}
	entries := make([]entry, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		k, err := mapKey(iter.Key())
		if err != nil {
			return err
		}
		entries = append(entries, entry{key: k, val: iter.Value()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	buf.WriteByte('{')
	for i, e := range entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSON(buf, e.key); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := encodeExposed(buf, e.val, depth+1); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func mapKey(k reflect.Value) (string, error) {
	if k.Kind() == reflect.String {
		return k.String(), nil
	}
	if tm, ok := k.Interface().(encoding.TextMarshaler); ok {
		b, err := tm.MarshalText()
		return string(b), err
	}
	switch k.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(k.Uint(), 10), nil
	}
	return "", fmt.Errorf("security: MarshalExposed: unsupported map key type %s", k.Type())
}

type exposedField struct {
	name      string
	index     []int
	omitEmpty bool
}

var exposedFieldCache sync.Map // reflect.Type -> []exposedField

func encodeStruct(buf *bytes.Buffer, v reflect.Value, depth int) error {
	buf.WriteByte('{')
	first := true
	for _, f := range cachedFields(v.Type()) {
		fv, ok := fieldByIndex(v, f.index)
		if !ok {
			continue
		}
		if f.omitEmpty && isEmptyValue(fv) {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		if err := writeJSON(buf, f.name); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := encodeExposed(buf, fv, depth+1); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

// fieldByIndex walks index, stopping at nil embedded pointers.
func fieldByIndex(v reflect.Value, index []int) (reflect.Value, bool) {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v, true
}

func cachedFields(t reflect.Type) []exposedField {
	if f, ok := exposedFieldCache.Load(t); ok {
		return f.([]exposedField)
	}
	f, _ := exposedFieldCache.LoadOrStore(t, typeFields(t))
	return f.([]exposedField)
}

// typeFields lists the JSON fields of t. When promoted fields collide the
// shallowest wins; collisions at equal depth drop the name, as encoding/json
// does for untagged fields.
func typeFields(t reflect.Type) []exposedField {
	var all []exposedField
	var walk func(t reflect.Type, prefix []int)
	walk = func(t reflect.Type, prefix []int) {
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			tag := sf.Tag.Get("json")
			if tag == "-" {
				continue
			}
			name, opts, _ := strings.Cut(tag, ",")
			index := append(append([]int(nil), prefix...), i)

			if sf.Anonymous && name == "" {
				ft := sf.Type
				if ft.Kind() == reflect.Pointer {
					ft = ft.Elem()
				}
				// Exported fields of unexported embedded structs are
				// promoted too.
				if ft.Kind() == reflect.Struct {
					walk(ft, index)
					continue
				}
			}
			if !sf.IsExported() {
				continue
			}
			if name == "" {
				name = sf.Name
			}
			all = append(all, exposedField{
				name:      name,
				index:     index,
				omitEmpty: strings.Contains(","+opts+",", ",omitempty,"),
			})
		}
	}
	walk(t, nil)

	byName := make(map[string][]exposedField)
	for _, f := range all {
		byName[f.name] = append(byName[f.name], f)
	}
	out := make([]exposedField, 0, len(all))
	for _, f := range all {
		candidates := byName[f.name]
		best := candidates[0]
		ambiguous := false
		for _, c := range candidates[1:] {
			switch {
			case len(c.index) < len(best.index):
				best, ambiguous = c, false
			case len(c.index) == len(best.index):
				ambiguous = true
			}
		}
		if ambiguous || !sameIndex(best.index, f.index) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func sameIndex(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Pointer:
		return v.IsNil()
	}
	return false
}
