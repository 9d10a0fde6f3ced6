package idl

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads the file at path and decodes it into a Document.
//
// Files ending in .yaml or .yml are decoded as YAML, anything else as JSON.
// The top level must be an object. Every call reads the file again.
//
// Returns *IOError if the file cannot be read and *MalformedIDLError if its
// content does not decode to an object.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return decodeYAML(path, data)
	default:
		return decodeJSON(path, data)
	}
}

func decodeJSON(path string, data []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &MalformedIDLError{Path: path, Message: "empty document"}
		}
		return nil, &MalformedIDLError{Path: path, Message: "invalid JSON", Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &MalformedIDLError{Path: path, Message: "trailing data after document"}
	}
	return asDocument(path, v)
}

func decodeYAML(path string, data []byte) (Document, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, &MalformedIDLError{Path: path, Message: "invalid YAML", Err: err}
	}
	if v == nil {
		return nil, &MalformedIDLError{Path: path, Message: "empty document"}
	}
	norm, err := normalizeYAML(v)
	if err != nil {
		return nil, &MalformedIDLError{Path: path, Message: err.Error()}
	}
	return asDocument(path, norm)
}

func asDocument(path string, v any) (Document, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &MalformedIDLError{Path: path, Message: fmt.Sprintf("top level is %s, expected an object", kindOf(v))}
	}
	return Document(obj), nil
}

// normalizeYAML converts yaml.v3's decoded values to the shapes the JSON
// decoder produces so both formats look the same downstream.
func normalizeYAML(v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			n, err := normalizeYAML(elem)
			if err != nil {
				return nil, fmt.Errorf("%s.%w", k, err)
			}
			out[k] = n
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("non-string key %v", k)
			}
			n, err := normalizeYAML(elem)
			if err != nil {
				return nil, fmt.Errorf("%s.%w", key, err)
			}
			out[key] = n
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			n, err := normalizeYAML(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d].%w", i, err)
			}
			out[i] = n
		}
		return out, nil
	case int:
		return json.Number(strconv.Itoa(val)), nil
	case int64:
		return json.Number(strconv.FormatInt(val, 10)), nil
	case uint64:
		return json.Number(strconv.FormatUint(val, 10)), nil
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil, fmt.Errorf("non-finite number %s", strconv.FormatFloat(val, 'g', -1, 64))
		}
		return json.Number(strconv.FormatFloat(val, 'g', -1, 64)), nil
	default:
		return val, nil
	}
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "an array"
	case string:
		return "a string"
	case json.Number:
		return "a number"
	case bool:
		return "a boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
