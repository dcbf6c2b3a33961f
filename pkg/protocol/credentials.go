package protocol

import "encoding/json"

// MarshalJSON flattens the connector-specific secret fields into the same
// object as the settings bundle, matching what the credential endpoints
// expect ({"domain": ..., "api_key": ..., "chunk_size": ...}).
func (r CredentialsRequest) MarshalJSON() ([]byte, error) {
	type alias CredentialsRequest // avoid recursing into this method
	base, err := json.Marshal(alias(r))
	if err != nil {
		return nil, err
	}

	var body map[string]any
	if err := json.Unmarshal(base, &body); err != nil {
		return nil, err
	}
	for k, v := range r.Fields {
		body[k] = v
	}
	return json.Marshal(body)
}
