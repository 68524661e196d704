// Package typestream recovers typed values from the textual output of
// large language models. Model output is prose interleaved with payloads
// delimited by XML-like tags whose names denote the intended type; the
// payload contents are JSON-shaped but routinely malformed. A Parser
// consumes such a stream incrementally, locates the relevant tag region,
// parses its contents with targeted error recovery, binds the result
// against a schema descriptor, and exposes both partial and final typed
// values.
//
//	desc := schema.Class("Person", []schema.Field{
//	        {Name: "name", Type: schema.StringType, Required: true},
//	        {Name: "age", Type: schema.IntType, Required: true},
//	}, "")
//	p, _ := typestream.New(desc)
//	p.Feed([]byte(`Sure! <Person>{"name": "Alice", `))
//	p.Feed([]byte(`"age": 30}</Person> hope that helps`))
//	out, _ := p.Validate()
//
// Feed is total: malformed payloads never make it fail. Malformations are
// absorbed where the recovery rules allow and recorded as faults either
// way; only Validate surfaces unresolved errors.
package typestream
