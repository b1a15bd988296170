package querybuilder

import (
	"fmt"
	"reflect"
	"strings"
)

// InsertModel builds an insert from a struct whose exported fields carry
// db tags. Repositories pair it with dedicated insert-model structs so
// generated columns stay out of the statement.
func InsertModel(table string, model any, suffix string) (string, []any, error) {
	cols, vals, err := taggedColumns(model)
	if err != nil {
		return "", nil, err
	}
	return InsertInto(table).
		Columns(cols...).
		Values(vals...).
		Suffix(suffix).
		ToSQL()
}

func taggedColumns(model any) ([]string, []any, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil, nil, fmt.Errorf("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("model must be struct")
	}

	typ := value.Type()
	cols := make([]string, 0, typ.NumField())
	vals := make([]any, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if field.PkgPath != "" {
			continue
		}
		col := columnName(field)
		if col == "" {
			continue
		}
		cols = append(cols, col)
		vals = append(vals, value.Field(i).Interface())
	}

	if len(cols) == 0 {
		return nil, nil, fmt.Errorf("model has no db columns")
	}
	return cols, vals, nil
}

// columnName resolves a field's db tag; untagged and opted-out fields
// answer empty.
func columnName(field reflect.StructField) string {
	tag := strings.TrimSpace(field.Tag.Get("db"))
	if tag == "" || tag == "-" {
		return ""
	}
	name := strings.TrimSpace(strings.Split(tag, ",")[0])
	if name == "-" {
		return ""
	}
	return name
}
