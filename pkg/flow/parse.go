package flow

import "github.com/tidwall/gjson"

// Parse decodes a JSON flow document and validates it. Input that is not
// valid JSON is reported as a malformed document
func Parse(data []byte) (*Document, error) {
	if !gjson.ValidBytes(data) {
		return nil, malformed("flow document is not valid JSON")
	}
	return Validate(gjson.ParseBytes(data).Value())
}

// Counts returns the number of nodes and edges in serialized flow document
// text without decoding or validating it
func Counts(data []byte) (nodes, edges int) {
	res := gjson.GetManyBytes(data, FieldNodes+".#", FieldEdges+".#")
	return int(res[0].Int()), int(res[1].Int())
}
