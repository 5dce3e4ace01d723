package runner

import (
	"errors"
	"fmt"
	"os"
	"reflect"
)

// ExpandTemplates walks the struct pointed to by in and expands ${VAR}
// references in place. String and *string fields are only expanded when they
// carry a `template` tag (`template:"-"` opts out). map[string]string values are
// always expanded. Nested structs, *struct and []struct are traversed.
func ExpandTemplates[T any](in *T, variables map[string]string) error {
	if in == nil {
		return nil
	}
	v := reflect.ValueOf(in).Elem()
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("ExpandTemplates expects *struct; got *%s", v.Type())
	}
	return expandStruct(v, variables)
}

func expandStruct(v reflect.Value, variables map[string]string) error {
	typ := v.Type()
	for i := range typ.NumField() {
		sf := typ.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag, tagged := sf.Tag.Lookup("template")
		tagged = tagged && tag != "-"

		if err := expandValue(v.Field(i), tagged, variables); err != nil {
			return fmt.Errorf("%s: %w", sf.Name, err)
		}
	}
	return nil
}

func expandValue(field reflect.Value, tagged bool, variables map[string]string) error {
	switch field.Kind() {
	case reflect.String:
		if !tagged {
			return nil
		}
		expanded, err := Expand(field.String(), variables)
		if err != nil {
			return err
		}
		field.SetString(expanded)

	case reflect.Ptr:
		if field.IsNil() {
			return nil
		}
		elem := field.Elem()
		switch elem.Kind() {
		case reflect.String:
			if !tagged {
				return nil
			}
			expanded, err := Expand(elem.String(), variables)
			if err != nil {
				return err
			}
			field.Set(reflect.ValueOf(&expanded))
		case reflect.Struct:
			return expandStruct(elem, variables)
		}

	case reflect.Map:
		if field.IsNil() || field.Type().Key().Kind() != reflect.String || field.Type().Elem().Kind() != reflect.String {
			return nil
		}
		expanded, err := ExpandMap(field.Interface().(map[string]string), variables)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(expanded))

	case reflect.Struct:
		return expandStruct(field, variables)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.Struct {
			return nil
		}
		for i := range field.Len() {
			if err := expandStruct(field.Index(i), variables); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
	}
	return nil
}

// Expand replaces ${VAR} references in the input string using the provided variables map.
// Returns an error if any referenced variable is not in the variables map.
func Expand(value string, variables map[string]string) (string, error) {
	var errs error

	result := os.Expand(value, func(key string) string {
		if val, ok := variables[key]; ok {
			return val
		}
		errs = errors.Join(errs, fmt.Errorf("environment variable %q is not in the allowed list", key))
		return ""
	})

	if errs != nil {
		return "", errs
	}

	return result, nil
}

// ExpandMap expands all values in a map[string]string.
func ExpandMap(values map[string]string, variables map[string]string) (map[string]string, error) {
	result := make(map[string]string, len(values))
	var errs error

	for k, v := range values {
		expanded, err := Expand(v, variables)
		if err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		result[k] = expanded
	}

	if errs != nil {
		return nil, errs
	}

	return result, nil
}
