// Package tools maps named MCP tools onto upstream business calls.
//
// Each tool is a Definition: an HTTP method, a path template with {param}
// placeholders, and the parameters that fill the path, the query string or
// the JSON body. Bind turns call arguments into a domain.Request; the
// dispatcher does the rest.
package tools

// ParamType is the JSON type a parameter accepts.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeNumber  ParamType = "number"
	TypeInteger ParamType = "integer"
	TypeBoolean ParamType = "boolean"
)

// Location says where a parameter goes in the request.
type Location string

const (
	InPath  Location = "path"
	InQuery Location = "query"
	InBody  Location = "body"
)

// Param describes one tool argument.
type Param struct {
	Name string
	Type ParamType
	In   Location
	// Field is the upstream name; defaults to Name. Body fields may be
	// dotted ("project.id") to build nested objects.
	Field       string
	Required    bool
	Description string
}

func (p Param) field() string {
	if p.Field != "" {
		return p.Field
	}
	return p.Name
}

// Definition is one entry of the tool table.
type Definition struct {
	Name        string
	Description string
	Method      string
	Path        string
	Params      []Param
}

func str(name, in, desc string) Param {
	return Param{Name: name, Type: TypeString, In: Location(in), Description: desc}
}

func integer(name, in, desc string) Param {
	return Param{Name: name, Type: TypeInteger, In: Location(in), Description: desc}
}

func number(name, in, desc string) Param {
	return Param{Name: name, Type: TypeNumber, In: Location(in), Description: desc}
}

func boolean(name, in, desc string) Param {
	return Param{Name: name, Type: TypeBoolean, In: Location(in), Description: desc}
}

func required(p Param) Param {
	p.Required = true
	return p
}

func as(field string, p Param) Param {
	p.Field = field
	return p
}

func paging() []Param {
	return []Param{
		integer("from", "query", "Index of the first element, for paging (default 0)."),
		integer("count", "query", "Maximum number of elements to return (default 1000)."),
		str("fields", "query", "Comma-separated list of fields to include, e.g. \"id,name,*\"."),
	}
}

func withPaging(params ...Param) []Param {
	return append(params, paging()...)
}
