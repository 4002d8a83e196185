package tasks

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "tasks.schema.json"

//go:embed schema/tasks.schema.json
var schemaSource []byte

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaSource)); err != nil {
		return nil, fmt.Errorf("загрузка схемы: %w", err)
	}
	return compiler.Compile(schemaURL)
})

// validateBlob проверяет структуру блоба до разбора в записи
func validateBlob(data []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("компиляция схемы: %w", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %s", ErrMalformed, schemaViolations(err))
	}
	return nil
}

// schemaViolations сворачивает дерево ошибок валидатора в одну строку
func schemaViolations(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}

	var msgs []string
	var collect func(*jsonschema.ValidationError)
	collect = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			msgs = append(msgs, e.InstanceLocation+": "+e.Message)
			return
		}
		for _, cause := range e.Causes {
			collect(cause)
		}
	}
	collect(ve)
	return strings.Join(msgs, "; ")
}
