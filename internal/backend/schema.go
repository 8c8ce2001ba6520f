package backend

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const uploadSchema = `{
  "type": "object",
  "required": ["task_id"],
  "properties": {
    "task_id": {"type": "string", "minLength": 1}
  }
}`

const taskSchema = `{
  "type": "object",
  "required": ["task_id", "status"],
  "properties": {
    "task_id": {"type": "string", "minLength": 1},
    "status": {"enum": ["PENDING", "SUCCESS", "FAILURE"]},
    "message": {"type": "string"},
    "result": {
      "type": "object",
      "required": ["document_type", "structured_data", "pii_detected"],
      "properties": {
        "document_type": {"type": "string"},
        "structured_data": {
          "type": "object",
          "additionalProperties": {"type": ["string", "number"]}
        },
        "pii_detected": {"type": "string"}
      }
    }
  },
  "if": {"properties": {"status": {"const": "SUCCESS"}}},
  "then": {"required": ["result"]}
}`

const searchSchema = `{
  "type": "object",
  "required": ["exact_matches", "semantic_matches"],
  "properties": {
    "exact_matches": {"$ref": "#/$defs/hits"},
    "semantic_matches": {"$ref": "#/$defs/hits"}
  },
  "$defs": {
    "hits": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["filename", "type", "snippet"],
        "properties": {
          "filename": {"type": "string"},
          "type": {"type": "string"},
          "snippet": {"type": "string"}
        }
      }
    }
  }
}`

type responseSchemas struct {
	upload *jsonschema.Schema
	task   *jsonschema.Schema
	search *jsonschema.Schema
}

func compileSchemas() (*responseSchemas, error) {
	compile := func(name, src string) (*jsonschema.Schema, error) {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(name, strings.NewReader(src)); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", name, err)
		}
		schema, err := compiler.Compile(name)
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		return schema, nil
	}

	upload, err := compile("upload.json", uploadSchema)
	if err != nil {
		return nil, err
	}
	task, err := compile("task.json", taskSchema)
	if err != nil {
		return nil, err
	}
	search, err := compile("search.json", searchSchema)
	if err != nil {
		return nil, err
	}
	return &responseSchemas{upload: upload, task: task, search: search}, nil
}
