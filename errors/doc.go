/*
Package errors provides semantic error types for the adapter layer.

The package defines sentinel errors for use with errors.Is:

	errors.ErrConfiguration      // fatal, at adapter construction
	errors.ErrSchemaResolution   // fatal per call, unknown model or field
	errors.ErrUnsupportedOperator // fatal per call, filter compiler limitation
	errors.ErrInvalidInput       // input validation failure
	errors.ErrNotFound           // backend row lookup miss

Typed errors carry structured context (the offending model, field, operator,
or a diagnostic dump of the registered schema) and match their sentinel via
an Is method:

	_, err := reg.ModelName("widget")
	if errors.IsSchemaResolution(err) {
	    // err.Error() includes the registered model names
	}

A hook veto is deliberately NOT an error: a vetoed write resolves to a nil
result and never reaches the backend.
*/
package errors
