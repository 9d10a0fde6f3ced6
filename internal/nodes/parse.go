package nodes

import (
	"encoding/json"
	"fmt"
	"strconv"
)

var numberFormats = map[string]bool{
	"u8": true, "u16": true, "u32": true, "u64": true, "u128": true,
	"i8": true, "i16": true, "i32": true, "i64": true, "i128": true,
	"f32": true, "f64": true,
}

func parseDefinedTypes(v any) ([]DefinedTypeNode, error) {
	var out []DefinedTypeNode
	for i, item := range list(v) {
		path := fmt.Sprintf("types[%d]", i)
		m, ok := item.(map[string]any)
		if !ok {
			return nil, ingestErrorf(path, "expected an object")
		}
		name := str(m, "name")
		if name == "" {
			return nil, ingestErrorf(path+".name", "required")
		}
		t, err := parseTypeDef(m["type"], path+".type")
		if err != nil {
			return nil, err
		}
		out = append(out, DefinedTypeNode{Name: name, Docs: strList(m["docs"]), Type: t})
	}
	return out, nil
}

// parseTypeDef reads {"kind": "struct"|"enum"|"type"|"alias", ...}.
func parseTypeDef(v any, path string) (TypeNode, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, ingestErrorf(path, "expected a type definition object")
	}
	switch kind := str(m, "kind"); kind {
	case "struct":
		return parseStructFields(m["fields"], path+".fields")
	case "enum":
		return parseEnum(m["variants"], path+".variants")
	case "type", "alias":
		alias, ok := m["alias"]
		if !ok {
			alias = m["value"]
		}
		return parseType(alias, path+".alias")
	default:
		return nil, ingestErrorf(path+".kind", "unsupported kind %q", kind)
	}
}

// parseStructFields handles named fields and Anchor 0.30 tuple structs,
// whose fields array holds bare types.
func parseStructFields(v any, path string) (TypeNode, error) {
	items := list(v)
	if len(items) > 0 && !isNamedField(items[0]) {
		tuple, err := parseTypeList(items, path)
		if err != nil {
			return nil, err
		}
		return TupleType{Items: tuple}, nil
	}
	fields, err := parseFields(items, path)
	if err != nil {
		return nil, err
	}
	return StructType{Fields: fields}, nil
}

func parseEnum(v any, path string) (TypeNode, error) {
	var variants []EnumVariant
	for i, item := range list(v) {
		vpath := fmt.Sprintf("%s[%d]", path, i)
		m, ok := item.(map[string]any)
		if !ok {
			return nil, ingestErrorf(vpath, "expected an object")
		}
		variant := EnumVariant{Name: str(m, "name")}
		if variant.Name == "" {
			return nil, ingestErrorf(vpath+".name", "required")
		}
		items := list(m["fields"])
		var err error
		switch {
		case len(items) == 0:
		case isNamedField(items[0]):
			variant.Fields, err = parseFields(items, vpath+".fields")
		default:
			variant.Tuple, err = parseTypeList(items, vpath+".fields")
		}
		if err != nil {
			return nil, err
		}
		variants = append(variants, variant)
	}
	return EnumType{Variants: variants}, nil
}

func isNamedField(v any) bool {
	m, ok := v.(map[string]any)
	if !ok {
		return false
	}
	_, hasName := m["name"]
	_, hasType := m["type"]
	return hasName && hasType
}

func parseFields(items []any, path string) ([]Field, error) {
	fields := make([]Field, 0, len(items))
	for i, item := range items {
		fpath := fmt.Sprintf("%s[%d]", path, i)
		m, ok := item.(map[string]any)
		if !ok {
			return nil, ingestErrorf(fpath, "expected a field object")
		}
		name := str(m, "name")
		if name == "" {
			return nil, ingestErrorf(fpath+".name", "required")
		}
		t, err := parseType(m["type"], fpath+".type")
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{Name: name, Docs: strList(m["docs"]), Type: t})
	}
	return fields, nil
}

func parseTypeList(items []any, path string) ([]TypeNode, error) {
	out := make([]TypeNode, 0, len(items))
	for i, item := range items {
		t, err := parseType(item, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// parseType reads a type reference in either Anchor dialect:
// "u64", "publicKey" / "pubkey", {"vec": T}, {"option": T}, {"coption": T},
// {"array": [T, n]}, {"tuple": [...]}, {"defined": "Name"} and
// {"defined": {"name": "Name"}}.
func parseType(v any, path string) (TypeNode, error) {
	switch val := v.(type) {
	case string:
		switch {
		case numberFormats[val]:
			return NumberType{Format: val}, nil
		case val == "bool":
			return BoolType{}, nil
		case val == "string":
			return StringType{}, nil
		case val == "publicKey" || val == "pubkey":
			return PublicKeyType{}, nil
		case val == "bytes":
			return BytesType{}, nil
		}
		return nil, ingestErrorf(path, "unsupported type %q", val)
	case map[string]any:
		if len(val) != 1 {
			return nil, ingestErrorf(path, "expected a single-key type object")
		}
		for key, inner := range val {
			switch key {
			case "vec":
				item, err := parseType(inner, path+".vec")
				if err != nil {
					return nil, err
				}
				return ArrayType{Item: item}, nil
			case "option", "coption":
				item, err := parseType(inner, path+"."+key)
				if err != nil {
					return nil, err
				}
				return OptionType{Item: item}, nil
			case "array":
				return parseArray(inner, path+".array")
			case "tuple":
				items, err := parseTypeList(list(inner), path+".tuple")
				if err != nil {
					return nil, err
				}
				return TupleType{Items: items}, nil
			case "defined":
				return parseDefined(inner, path+".defined")
			default:
				return nil, ingestErrorf(path, "unsupported type constructor %q", key)
			}
		}
	}
	return nil, ingestErrorf(path, "expected a type")
}

func parseArray(v any, path string) (TypeNode, error) {
	pair := list(v)
	if len(pair) != 2 {
		return nil, ingestErrorf(path, "expected [type, size]")
	}
	item, err := parseType(pair[0], path+"[0]")
	if err != nil {
		return nil, err
	}
	size, ok := toInt64(pair[1])
	if !ok || size <= 0 {
		return nil, ingestErrorf(path+"[1]", "expected a positive integer size")
	}
	return ArrayType{Item: item, Size: int(size)}, nil
}

func parseDefined(v any, path string) (TypeNode, error) {
	switch val := v.(type) {
	case string:
		if val != "" {
			return LinkType{Name: val}, nil
		}
	case map[string]any:
		if len(list(val["generics"])) > 0 {
			return nil, ingestErrorf(path+".generics", "generic types are not supported")
		}
		if name := str(val, "name"); name != "" {
			return LinkType{Name: name}, nil
		}
	}
	return nil, ingestErrorf(path, "expected a type name")
}

// parseAccounts returns the account nodes and the set of defined type names
// they absorbed. Anchor 0.30 lists accounts as {name, discriminator} with the
// layout under types; legacy IDLs inline it as a struct type.
func parseAccounts(v any, types []DefinedTypeNode, d dialect) ([]AccountNode, map[string]bool, error) {
	byName := make(map[string]DefinedTypeNode, len(types))
	for _, dt := range types {
		byName[dt.Name] = dt
	}
	consumed := make(map[string]bool)

	var out []AccountNode
	for i, item := range list(v) {
		path := fmt.Sprintf("accounts[%d]", i)
		m, ok := item.(map[string]any)
		if !ok {
			return nil, nil, ingestErrorf(path, "expected an object")
		}
		acc := AccountNode{Name: str(m, "name"), Docs: strList(m["docs"])}
		if acc.Name == "" {
			return nil, nil, ingestErrorf(path+".name", "required")
		}

		var layout TypeNode
		if def, ok := m["type"]; ok {
			t, err := parseTypeDef(def, path+".type")
			if err != nil {
				return nil, nil, err
			}
			layout = t
		} else if dt, ok := byName[acc.Name]; ok {
			layout = dt.Type
			consumed[acc.Name] = true
			if len(acc.Docs) == 0 {
				acc.Docs = dt.Docs
			}
		} else {
			return nil, nil, ingestErrorf(path, "no layout for account %q", acc.Name)
		}
		st, ok := layout.(StructType)
		if !ok {
			return nil, nil, ingestErrorf(path, "account %q layout is not a struct", acc.Name)
		}
		acc.Data = st

		disc, err := explicitDiscriminator(m, path)
		if err != nil {
			return nil, nil, err
		}
		if disc == nil {
			disc = d.accountDiscriminator(acc.Name)
		}
		acc.Discriminator = disc

		out = append(out, acc)
	}
	return out, consumed, nil
}

func parseInstructions(v any, d dialect) ([]InstructionNode, error) {
	var out []InstructionNode
	for i, item := range list(v) {
		path := fmt.Sprintf("instructions[%d]", i)
		m, ok := item.(map[string]any)
		if !ok {
			return nil, ingestErrorf(path, "expected an object")
		}
		ix := InstructionNode{Name: str(m, "name"), Docs: strList(m["docs"])}
		if ix.Name == "" {
			return nil, ingestErrorf(path+".name", "required")
		}

		accounts, err := parseInstructionAccounts(list(m["accounts"]), path+".accounts")
		if err != nil {
			return nil, err
		}
		ix.Accounts = accounts

		ix.Arguments, err = parseFields(list(m["args"]), path+".args")
		if err != nil {
			return nil, err
		}

		disc, err := explicitDiscriminator(m, path)
		if err != nil {
			return nil, err
		}
		if disc == nil {
			disc, err = d.instructionDiscriminator(m, i, path)
			if err != nil {
				return nil, err
			}
		}
		ix.Discriminator = disc

		out = append(out, ix)
	}
	return out, nil
}

// parseInstructionAccounts flattens nested account groups in order.
func parseInstructionAccounts(items []any, path string) ([]InstructionAccountNode, error) {
	var out []InstructionAccountNode
	for i, item := range items {
		apath := fmt.Sprintf("%s[%d]", path, i)
		m, ok := item.(map[string]any)
		if !ok {
			return nil, ingestErrorf(apath, "expected an object")
		}
		if nested, ok := m["accounts"]; ok {
			inner, err := parseInstructionAccounts(list(nested), apath+".accounts")
			if err != nil {
				return nil, err
			}
			out = append(out, inner...)
			continue
		}
		acc := InstructionAccountNode{
			Name:     str(m, "name"),
			Docs:     strList(m["docs"]),
			Writable: boolean(m, "isMut") || boolean(m, "writable"),
			Signer:   boolean(m, "isSigner") || boolean(m, "signer"),
			Optional: boolean(m, "isOptional") || boolean(m, "optional"),
		}
		if acc.Name == "" {
			return nil, ingestErrorf(apath+".name", "required")
		}
		out = append(out, acc)
	}
	return out, nil
}

func parseErrors(v any) ([]ErrorNode, error) {
	var out []ErrorNode
	for i, item := range list(v) {
		path := fmt.Sprintf("errors[%d]", i)
		m, ok := item.(map[string]any)
		if !ok {
			return nil, ingestErrorf(path, "expected an object")
		}
		code, ok := toInt64(m["code"])
		if !ok {
			return nil, ingestErrorf(path+".code", "expected an integer")
		}
		e := ErrorNode{Code: code, Name: str(m, "name"), Message: str(m, "msg")}
		if e.Name == "" {
			return nil, ingestErrorf(path+".name", "required")
		}
		out = append(out, e)
	}
	return out, nil
}

func explicitDiscriminator(m map[string]any, path string) ([]byte, error) {
	raw, ok := m["discriminator"]
	if !ok {
		return nil, nil
	}
	items := list(raw)
	if len(items) == 0 {
		return nil, ingestErrorf(path+".discriminator", "expected a non-empty byte array")
	}
	out := make([]byte, len(items))
	for i, item := range items {
		n, ok := toInt64(item)
		if !ok || n < 0 || n > 255 {
			return nil, ingestErrorf(fmt.Sprintf("%s.discriminator[%d]", path, i), "expected a byte")
		}
		out[i] = byte(n)
	}
	return out, nil
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func boolean(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

func list(v any) []any {
	l, _ := v.([]any)
	return l
}

func strList(v any) []string {
	var out []string
	for _, item := range list(v) {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := strconv.ParseInt(string(n), 10, 64)
		return i, err == nil
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	}
	return 0, false
}
