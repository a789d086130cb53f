package types

// SecretString holds a sensitive value (API key, connection string) and
// redacts itself when printed or serialized. Call Unmask only at the point
// the raw value is handed to a driver or HTTP client.
type SecretString string

const redacted = "***REDACTED***"

// String satisfies fmt.Stringer with a redacted placeholder so secrets never
// reach logs via %s/%v formatting.
func (s SecretString) String() string {
	return redacted
}

// MarshalJSON replaces the value with the redacted placeholder in any JSON
// output (config dumps, structured logs).
func (s SecretString) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redacted + `"`), nil
}

// Unmask returns the raw secret value.
func (s SecretString) Unmask() string {
	return string(s)
}
