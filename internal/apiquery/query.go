// Package apiquery encodes tagged parameter structs into URL values. Query
// strings and x-www-form-urlencoded bodies share the encoder, they only differ
// in the struct tag that is read.
package apiquery

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/kittycad/kittycad-go/internal/param"
)

// Queryer is implemented by parameter structs that travel in the query string.
type Queryer interface {
	URLQuery() (url.Values, error)
}

// MarshalQuery encodes the `query` tagged fields of v.
func MarshalQuery(v any) (url.Values, error) {
	return Marshal(v, "query")
}

// MarshalForm encodes the `form` tagged fields of v.
func MarshalForm(v any) (url.Values, error) {
	return Marshal(v, "form")
}

// Marshal encodes every exported field of the struct v that carries tag into
// url.Values. Unset param.Field values and nil pointers are skipped.
func Marshal(v any, tag string) (url.Values, error) {
	values := url.Values{}
	if v == nil {
		return values, nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return values, nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("apiquery: cannot encode %s, want a struct", rv.Type())
	}
	if err := encodeStruct(values, rv, tag); err != nil {
		return nil, err
	}
	return values, nil
}

func encodeStruct(values url.Values, rv reflect.Value, tag string) error {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		fv := rv.Field(i)
		name, ok := tagName(sf, tag)
		// Untagged embedded structs promote their fields, exported or not,
		// the way encoding/json does.
		if !ok && sf.Anonymous {
			for fv.Kind() == reflect.Pointer && sf.IsExported() && !fv.IsNil() {
				fv = fv.Elem()
			}
			if fv.Kind() == reflect.Struct {
				if err := encodeStruct(values, fv, tag); err != nil {
					return err
				}
			}
			continue
		}
		if !ok || !sf.IsExported() {
			continue
		}
		if err := encodeField(values, name, fv); err != nil {
			return fmt.Errorf("apiquery: field %s: %w", sf.Name, err)
		}
	}
	return nil
}

func tagName(sf reflect.StructField, tag string) (string, bool) {
	raw, ok := sf.Tag.Lookup(tag)
	if !ok {
		return "", false
	}
	name, _, _ := strings.Cut(raw, ",")
	if name == "-" {
		return "", false
	}
	if name == "" {
		name = sf.Name
	}
	return name, true
}

func encodeField(values url.Values, key string, fv reflect.Value) error {
	if f, ok := fv.Interface().(param.FieldLike); ok {
		if !f.IsPresent() || f.IsNull() {
			return nil
		}
		return encodeValue(values, key, reflect.ValueOf(f.Any()))
	}
	return encodeValue(values, key, fv)
}

func encodeValue(values url.Values, key string, v reflect.Value) error {
	if !v.IsValid() {
		return nil
	}
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	switch val := v.Interface().(type) {
	case time.Time:
		values.Add(key, val.UTC().Format(time.RFC3339))
		return nil
	case fmt.Stringer:
		if v.Kind() != reflect.String {
			values.Add(key, val.String())
			return nil
		}
	}

	switch v.Kind() {
	case reflect.String:
		values.Add(key, v.String())
	case reflect.Bool:
		values.Add(key, strconv.FormatBool(v.Bool()))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		values.Add(key, strconv.FormatInt(v.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		values.Add(key, strconv.FormatUint(v.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		values.Add(key, strconv.FormatFloat(v.Float(), 'f', -1, 64))
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := encodeValue(values, key, v.Index(i)); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unsupported kind %s", v.Kind())
	}
	return nil
}
