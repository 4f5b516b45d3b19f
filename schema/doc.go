/*
Package schema holds the logical model/field schema and the registry that
resolves caller-facing names to storage names.

A Schema maps model names to field declarations. Per-deployment customization
(custom storage names, field renames, pluralization, numeric identifiers) is
applied at resolution time by a Registry, so one logical schema serves every
backend:

	s := schema.Schema{
	    "user": {Fields: map[string]schema.Field{
	        "email":     {Type: schema.TypeString, Required: true, Unique: true},
	        "createdAt": {Type: schema.TypeDate, DefaultFunc: func() any { return time.Now().UTC() }},
	    }},
	}
	reg := schema.NewRegistry(s, schema.Options{UsePlural: true})

	name, _ := reg.ModelName("user")      // "users"
	col, _  := reg.FieldName("user", "email")

Every model exposes an implicit id field. It is never declared in the schema;
the registry synthesizes its attributes on each lookup (typed per the
numeric-id policy) and hands out call-scoped copies of field maps, keeping the
shared schema read-only under concurrency.

Schemas can also be declared in YAML; see ParseYAML.
*/
package schema
